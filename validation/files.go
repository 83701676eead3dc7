package validation

import (
	"fmt"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"
)

// FileRule checks an upload by sniffed content type and size. Client-supplied
// Content-Type headers and extensions are ignored.
type FileRule struct {
	MaxBytes    int64
	Allowed     []string
	TypeMessage string
	SizeMessage string
}

const mb = 1 << 20

var (
	ImageRule = FileRule{
		MaxBytes:    10 * mb,
		Allowed:     []string{"image/jpeg", "image/png", "image/gif"},
		TypeMessage: "Image must be a jpeg, png, jpg or gif",
		SizeMessage: "Image size must not exceed 10MB",
	}
	VideoRule = FileRule{
		MaxBytes:    100 * mb,
		Allowed:     []string{"video/mp4", "video/x-msvideo", "video/mpeg", "video/quicktime"},
		TypeMessage: "The video must be a file of type: mp4, avi, mpeg, mov.",
		SizeMessage: "The video must not be greater than 100MB.",
	}
	ThumbnailRule = FileRule{
		MaxBytes:    2 * mb,
		Allowed:     []string{"image/jpeg", "image/png", "image/gif"},
		TypeMessage: "The thumbnail must be a file of type: jpeg, png, jpg, gif.",
		SizeMessage: "The thumbnail must not be greater than 2MB.",
	}
)

// Check returns the failing message for fh, or "" if it passes.
func (r FileRule) Check(fh *multipart.FileHeader) string {
	if fh.Size > r.MaxBytes {
		return r.SizeMessage
	}
	f, err := fh.Open()
	if err != nil {
		return r.TypeMessage
	}
	defer f.Close()
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return r.TypeMessage
	}
	for _, allowed := range r.Allowed {
		if mt.Is(allowed) {
			return ""
		}
	}
	return r.TypeMessage
}

// CheckFiles applies r to every file, reporting failures as field.index.
func CheckFiles(field string, files []*multipart.FileHeader, r FileRule, errs Errors) {
	for i, fh := range files {
		if msg := r.Check(fh); msg != "" {
			errs.Add(fmt.Sprintf("%s.%d", field, i), msg)
		}
	}
}
