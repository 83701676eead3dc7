// Package attachments keeps uploaded files and the records that reference them consistent.
package attachments

import (
	"io"
	"mime/multipart"
)

// Upload is a file received with a request.
type Upload struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// FromFileHeader adapts a multipart file.
func FromFileHeader(fh *multipart.FileHeader) Upload {
	return Upload{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// Item is an upload headed for a key prefix such as "products".
type Item struct {
	Prefix string
	File   Upload
}

// Items files every header under prefix.
func Items(prefix string, files []*multipart.FileHeader) []Item {
	out := make([]Item, 0, len(files))
	for _, fh := range files {
		out = append(out, Item{Prefix: prefix, File: FromFileHeader(fh)})
	}
	return out
}
