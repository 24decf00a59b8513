package meal

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
)

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
}

// ErrUnsupportedPhoto is returned for files that are not JPEG or PNG.
var ErrUnsupportedPhoto = errors.New("invalid file type, only JPEG, JPG, and PNG images are allowed")

// PhotoExtension returns the lower-cased extension of filename if it is an allowed photo type.
func PhotoExtension(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedPhoto
	}
	return ext, nil
}

// HashPhoto calculates the SHA256 hash of the photo data.
func HashPhoto(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// PhotoStore writes meal photos to a directory, scaled down to a maximum width.
type PhotoStore struct {
	dir   string
	width uint
}

// NewPhotoStore creates a new PhotoStore writing to dir. Wider photos are scaled to width.
func NewPhotoStore(dir string, width uint) *PhotoStore {
	return &PhotoStore{dir: dir, width: width}
}

// Save decodes data, scales it down to the store width if it is wider, and
// writes it as <dir>/<sha256><ext>. Identical photos share one file.
func (p *PhotoStore) Save(data []byte, ext string) (string, error) {
	ext = strings.ToLower(ext)
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedPhoto
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	if uint(img.Bounds().Dx()) > p.width {
		img = resize.Resize(p.width, 0, img, resize.Lanczos3)
	}

	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create photo directory: %w", err)
	}

	photoPath := filepath.Join(p.dir, HashPhoto(data)+ext)
	if err := writePhoto(photoPath, img, ext); err != nil {
		return "", err
	}
	return photoPath, nil
}

// writePhoto encodes img into a temporary file next to photoPath and renames it
// into place, so photoPath never holds a partial image.
func writePhoto(photoPath string, img image.Image, ext string) (err error) {
	out, err := os.CreateTemp(filepath.Dir(photoPath), ".photo-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create photo file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(out.Name())
		}
	}()

	switch ext {
	case ".jpeg", ".jpg":
		err = jpeg.Encode(out, img, nil)
	default:
		err = png.Encode(out, img)
	}
	if err != nil {
		out.Close()
		return fmt.Errorf("failed to encode photo: %w", err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("failed to write photo file: %w", err)
	}
	if err = os.Chmod(out.Name(), 0644); err != nil {
		return fmt.Errorf("failed to write photo file: %w", err)
	}
	if err = os.Rename(out.Name(), photoPath); err != nil {
		return fmt.Errorf("failed to store photo file: %w", err)
	}
	return nil
}

// Remove deletes a previously saved photo. Missing files are ignored.
func (p *PhotoStore) Remove(photoPath string) error {
	if photoPath == "" {
		return nil
	}
	if err := os.Remove(photoPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove photo: %w", err)
	}
	return nil
}
