package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5433, Database: "pizza", User: "admin", Password: "pw"}
	assert.Equal(t, "host=db port=5433 dbname=pizza user=admin password=pw sslmode=disable", cfg.DSN())

	cfg.SSLMode = "require"
	assert.Contains(t, cfg.DSN(), "sslmode=require")
}
