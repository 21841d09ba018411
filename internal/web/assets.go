package web

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrAssetNotFound covers missing files and names that escape the public dir.
var ErrAssetNotFound = errors.New("No file could be found")

// Asset response types. The API layer maps them to a Content-Type.
const (
	TypeCSS     = "css"
	TypePNG     = "png"
	TypeJPG     = "jpg"
	TypeFavicon = "favicon"
	TypeJS      = "js"
	TypePlain   = "plain"
)

type Assets struct {
	dir string
}

func NewAssets(dir string) *Assets { return &Assets{dir: dir} }

// Read returns a file below the public directory.
func (a *Assets) Read(name string) ([]byte, error) {
	name = strings.TrimLeft(strings.TrimSpace(name), "/")
	if name == "" {
		return nil, ErrAssetNotFound
	}
	f, err := os.OpenInRoot(a.dir, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, name)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, name)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", name, err)
	}
	return data, nil
}

// AssetType picks the response type from the file name. The later an
// extension appears in the list .css, .png, .jpg, .ico the higher its
// precedence, so "x.css.png" is a png.
func AssetType(name string) string {
	switch {
	case strings.Contains(name, ".ico"):
		return TypeFavicon
	case strings.Contains(name, ".jpg"):
		return TypeJPG
	case strings.Contains(name, ".png"):
		return TypePNG
	case strings.Contains(name, ".css"):
		return TypeCSS
	case strings.HasSuffix(name, ".js"):
		return TypeJS
	default:
		return TypePlain
	}
}
