package memories

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/petermazzocco/memory-wall/internal/blob"
)

// rasterExt lists the accepted upload types and the extension each is stored
// under. Anything a browser could render as a document (HTML, SVG, XML) is
// absent.
var rasterExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/heic": ".heic",
	"image/heif": ".heif",
}

// imageContentType derives the stored type from the file's bytes. The
// declared type can only reject a file, never choose its type.
func imageContentType(declared string, data []byte) (string, error) {
	if declaredType, _, err := mime.ParseMediaType(declared); err == nil &&
		declaredType != "application/octet-stream" && !strings.HasPrefix(declaredType, "image/") {
		return "", fmt.Errorf("%w: declared %q", ErrUnsupportedType, declaredType)
	}

	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	if sniffed == "application/octet-stream" {
		if t, ok := heifType(data); ok {
			sniffed = t
		}
	}
	if _, ok := rasterExt[sniffed]; !ok {
		return "", fmt.Errorf("%w: content is %q", ErrUnsupportedType, sniffed)
	}
	return sniffed, nil
}

// heifType recognises the ISO-BMFF ftyp brands used by HEIC/HEIF photos,
// which http.DetectContentType does not know.
func heifType(data []byte) (string, bool) {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return "", false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heim", "heis", "hevc", "hevx":
		return "image/heic", true
	case "mif1", "msf1", "heif":
		return "image/heif", true
	}
	return "", false
}

// storedName keeps the client's base name for readability but replaces its
// extension with ext.
func storedName(filename, ext string) string {
	base := blob.SanitizeFilename(filename)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}
