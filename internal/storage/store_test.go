package storage

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateKey(t *testing.T) {
	require.NoError(t, ValidateKey(Users, "a@b.com"))
	require.NoError(t, ValidateKey(Menu, "items"))

	for _, tc := range []struct{ collection, id string }{
		{"", "x"},
		{Users, ""},
		{Users, ".."},
		{Users, "../tokens/abc"},
		{"users/../x", "id"},
		{Users, `a\b`},
	} {
		assert.ErrorIs(t, ValidateKey(tc.collection, tc.id), ErrInvalidKey, "%q/%q", tc.collection, tc.id)
	}
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("cart")
			defer unlock()
			v := counter
			v++
			counter = v
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Empty(t, km.locks)
}
