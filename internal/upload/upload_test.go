package upload

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngBytes  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}
	jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
)

// memoryFile adapts a byte slice to the multipart.File interface.
type memoryFile struct {
	*bytes.Reader
}

func newMemoryFile(data []byte) *memoryFile {
	return &memoryFile{Reader: bytes.NewReader(data)}
}

func (f *memoryFile) Close() error { return nil }

func (f *memoryFile) ReadAt(p []byte, off int64) (int, error) {
	return f.Reader.ReadAt(p, off)
}

func TestSaveAcceptsPNG(t *testing.T) {
	store, err := NewImageStore(t.TempDir())
	require.NoError(t, err)

	filename, err := store.Save(newMemoryFile(pngBytes), "photo.png")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".png"))

	written, err := os.ReadFile(filepath.Join(store.Dir(), filename))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, written)
}

func TestSaveAcceptsJPEG(t *testing.T) {
	store, err := NewImageStore(t.TempDir())
	require.NoError(t, err)

	filename, err := store.Save(newMemoryFile(jpegBytes), "photo.jpg")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".jpg"))
}

func TestSaveSniffsContentNotExtension(t *testing.T) {
	store, err := NewImageStore(t.TempDir())
	require.NoError(t, err)

	// A text file with an image extension is still rejected
	_, err = store.Save(newMemoryFile([]byte("just some text")), "fake.png")
	assert.ErrorIs(t, err, ErrInvalidFileType)
}

func TestSaveRejectsOtherImageFormats(t *testing.T) {
	store, err := NewImageStore(t.TempDir())
	require.NoError(t, err)

	gif := []byte("GIF89a\x01\x00\x01\x00")
	_, err = store.Save(newMemoryFile(gif), "anim.gif")
	assert.ErrorIs(t, err, ErrInvalidFileType)
}

func TestSaveFallsBackToSniffedExtension(t *testing.T) {
	store, err := NewImageStore(t.TempDir())
	require.NoError(t, err)

	filename, err := store.Save(newMemoryFile(pngBytes), "noextension")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".png"))
}

func TestNewImageStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")

	store, err := NewImageStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
