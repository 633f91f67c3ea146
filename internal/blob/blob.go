// Package blob stores the bytes of uploaded images and hands back the URL a
// client uses to fetch them. Every backend returns a URL reference; image
// bytes are never inlined into memory records.
package blob

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/url"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

type Store interface {
	// Put writes body under key and returns the URL the object is served from.
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// NewKey names an upload "<unix-millis>-<random>-<original name>".
func NewKey(originalName string, now time.Time) string {
	return fmt.Sprintf("%d-%d-%s", now.UnixMilli(), rand.Intn(1_000_000_000), SanitizeFilename(originalName))
}

const maxNameBytes = 200

// SanitizeFilename strips path components and characters that are unsafe in
// object keys or file names.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base("/" + name)
	name = strings.Trim(name, " ./")
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f:
			return -1
		case r == ' ':
			return '_'
		}
		return r
	}, name)

	if len(name) > maxNameBytes {
		ext := filepath.Ext(name)
		if len(ext) > 20 {
			ext = ""
		}
		cut := maxNameBytes - len(ext)
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut] + ext
	}
	if name == "" {
		name = "unnamed"
	}
	return name
}

// ObjectURL renders the public URL of key. template is either a fmt pattern
// with one %s or a base URL the key is appended to.
func ObjectURL(template, key string) string {
	escaped := url.PathEscape(key)
	if strings.Contains(template, "%s") {
		return CleanURL(fmt.Sprintf(template, escaped))
	}
	return CleanURL(strings.TrimRight(template, "/") + "/" + escaped)
}

func CleanURL(urlStr string) string {
	urlStr = strings.ReplaceAll(urlStr, " ", "%20")
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return urlStr
	}

	return parsedURL.String()
}
