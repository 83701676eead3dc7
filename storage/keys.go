package storage

import (
	"errors"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// URLPrefix is where blobs are served from. Stored URLs are always URLPrefix + key.
const URLPrefix = "/storage/"

// Resource prefixes under which uploads are filed.
const (
	PrefixProducts   = "products"
	PrefixVideos     = "videos"
	PrefixThumbnails = "thumbnails"
)

var (
	// ErrInvalidKey rejects empty keys and keys escaping the store root.
	ErrInvalidKey = errors.New("storage: invalid key")

	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// PublicURL returns the URL a key is served under.
func PublicURL(key string) string {
	return URLPrefix + strings.TrimPrefix(key, "/")
}

// KeyFromURL inverts PublicURL. Bare relative paths (legacy rows) are accepted as keys.
func KeyFromURL(u string) (string, error) {
	key := strings.TrimPrefix(u, URLPrefix)
	if key == u && strings.HasPrefix(u, "/") {
		return "", ErrInvalidKey
	}
	return CleanKey(key)
}

// CleanKey validates a relative key.
func CleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", ErrInvalidKey
		}
	}
	return key, nil
}

// NewKey builds a collision-free key for an uploaded file: <prefix>/<uuid>_<safe base name>.
func NewKey(prefix, filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "_.")
	if len(base) > 100 {
		base = base[len(base)-100:]
	}
	name := uuid.NewString()
	if base != "" {
		name += "_" + base
	}
	return prefix + "/" + name
}
