package catalogapi

import (
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

// Upload limits enforced before any bytes leave the console.
const (
	MaxProductImageBytes = 5 * 1024 * 1024
	MaxLogoBytes         = 2 * 1024 * 1024
	MaxProductImages     = 5
)

// Multipart field names expected by the backend.
const (
	FieldImages = "images"
	FieldLogo   = "logo"
	FieldIcon   = "icon"
	FieldFile   = "file"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooManyFiles    = errors.New("too many files")
)

// AllowedImageType reports whether mime is an accepted image type.
func AllowedImageType(mime string) bool {
	return allowedImageTypes[mime]
}

// ValidateImage checks size and sniffed content type of f and fills in
// f.ContentType with the detected type.
func ValidateImage(f *FilePart, maxBytes int) error {
	if len(f.Data) == 0 {
		return fmt.Errorf("%s: %w", f.Filename, ErrEmptyFile)
	}
	if len(f.Data) > maxBytes {
		return fmt.Errorf("%s: %w (maximum size is %dMB)", f.Filename, ErrFileTooLarge, maxBytes/(1024*1024))
	}
	detected := mimetype.Detect(f.Data).String()
	if !AllowedImageType(detected) {
		return fmt.Errorf("%s: %w %q, only JPEG, PNG, GIF, and WebP are allowed", f.Filename, ErrUnsupportedType, detected)
	}
	f.ContentType = detected
	return nil
}

// ValidateImages validates a batch and enforces maxFiles (0 = unlimited).
func ValidateImages(files []FilePart, maxBytes, maxFiles int) error {
	if maxFiles > 0 && len(files) > maxFiles {
		return fmt.Errorf("%w: maximum %d images allowed", ErrTooManyFiles, maxFiles)
	}
	for i := range files {
		if err := ValidateImage(&files[i], maxBytes); err != nil {
			return err
		}
	}
	return nil
}
