package meal

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodedImage(t *testing.T, w, h int, ext string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, G: 120, B: 40, A: 255})
	}
	var buf bytes.Buffer
	if ext == ".png" {
		require.NoError(t, png.Encode(&buf, img))
	} else {
		require.NoError(t, jpeg.Encode(&buf, img, nil))
	}
	return buf.Bytes()
}

func decodedWidth(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	return cfg.Width
}

func TestPhotoExtension(t *testing.T) {
	ext, err := PhotoExtension("Dinner.JPG")
	require.NoError(t, err)
	assert.Equal(t, ".jpg", ext)

	_, err = PhotoExtension("menu.gif")
	assert.ErrorIs(t, err, ErrUnsupportedPhoto)
}

func TestPhotoStore_SaveResizesWideImages(t *testing.T) {
	dir := t.TempDir()
	store := NewPhotoStore(dir, 800)
	data := encodedImage(t, 1600, 400, ".png")

	path, err := store.Save(data, ".png")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, HashPhoto(data)+".png"), path)
	assert.Equal(t, 800, decodedWidth(t, path))
}

func TestPhotoStore_SaveKeepsNarrowImages(t *testing.T) {
	store := NewPhotoStore(t.TempDir(), 800)

	path, err := store.Save(encodedImage(t, 320, 240, ".jpg"), ".jpg")
	require.NoError(t, err)
	assert.Equal(t, 320, decodedWidth(t, path))
}

func TestPhotoStore_SaveRejectsBadInput(t *testing.T) {
	store := NewPhotoStore(t.TempDir(), 800)

	_, err := store.Save([]byte("not an image"), ".png")
	assert.Error(t, err)

	_, err = store.Save(encodedImage(t, 10, 10, ".png"), ".bmp")
	assert.ErrorIs(t, err, ErrUnsupportedPhoto)
}

func TestPhotoStore_Remove(t *testing.T) {
	store := NewPhotoStore(t.TempDir(), 800)
	path, err := store.Save(encodedImage(t, 10, 10, ".png"), ".png")
	require.NoError(t, err)

	require.NoError(t, store.Remove(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Remove(path))
	assert.NoError(t, store.Remove(""))
}

func TestWritePhoto_EncodeFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	photoPath := filepath.Join(dir, "empty.png")

	err := writePhoto(photoPath, image.NewRGBA(image.Rect(0, 0, 0, 0)), ".png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to encode photo")

	_, err = os.Stat(photoPath)
	assert.True(t, os.IsNotExist(err))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPhotoStore_SaveSamePhotoTwice(t *testing.T) {
	dir := t.TempDir()
	store := NewPhotoStore(dir, 800)
	data := encodedImage(t, 64, 48, ".png")

	first, err := store.Save(data, ".png")
	require.NoError(t, err)
	second, err := store.Save(data, ".png")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 64, decodedWidth(t, second))
}
