package uploads

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader alcanza para que http.DetectContentType lo reconozca.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func pngData(extra string) []byte {
	return append(append([]byte{}, pngHeader...), extra...)
}

func newTestService(t *testing.T, maxBytes int64) *Service {
	t.Helper()
	dir := t.TempDir()
	idx, err := OpenIndex(filepath.Join(dir, "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	svc, err := NewService(Config{Dir: filepath.Join(dir, "files"), PublicURL: "http://img.test/", MaxBytes: maxBytes}, idx, nil)
	require.NoError(t, err)
	return svc
}

func TestStore_SavesFile(t *testing.T) {
	svc := newTestService(t, 1024)

	res, err := svc.Store(context.Background(), "", bytes.NewReader(pngData("a")))
	require.NoError(t, err)
	assert.False(t, res.Replayed)
	assert.Equal(t, ".png", filepath.Ext(res.Filename))
	assert.Equal(t, "http://img.test/uploads/"+res.Filename, res.URL)

	got, err := os.ReadFile(filepath.Join(svc.dir, res.Filename))
	require.NoError(t, err)
	assert.Equal(t, pngData("a"), got)
}

func TestStore_SameContentWithoutKeyIsDeduplicated(t *testing.T) {
	svc := newTestService(t, 1024)
	ctx := context.Background()

	first, err := svc.Store(ctx, "", bytes.NewReader(pngData("a")))
	require.NoError(t, err)
	second, err := svc.Store(ctx, "", bytes.NewReader(pngData("a")))
	require.NoError(t, err)
	other, err := svc.Store(ctx, "", bytes.NewReader(pngData("b")))
	require.NoError(t, err)

	assert.Equal(t, first.Filename, second.Filename)
	assert.True(t, second.Replayed)
	assert.NotEqual(t, first.Filename, other.Filename)

	entries, err := os.ReadDir(svc.dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestStore_IdempotencyKey(t *testing.T) {
	svc := newTestService(t, 1024)
	ctx := context.Background()

	first, err := svc.Store(ctx, "click-1", bytes.NewReader(pngData("a")))
	require.NoError(t, err)

	again, err := svc.Store(ctx, "click-1", bytes.NewReader(pngData("a")))
	require.NoError(t, err)
	assert.Equal(t, first.Filename, again.Filename)
	assert.True(t, again.Replayed)

	_, err = svc.Store(ctx, "click-1", bytes.NewReader(pngData("different")))
	assert.ErrorIs(t, err, ErrKeyReused)

	// otra clave con el mismo contenido es otro upload
	fresh, err := svc.Store(ctx, "click-2", bytes.NewReader(pngData("a")))
	require.NoError(t, err)
	assert.NotEqual(t, first.Filename, fresh.Filename)
}

func TestStore_MissingFileIsStoredAgain(t *testing.T) {
	svc := newTestService(t, 1024)
	ctx := context.Background()

	first, err := svc.Store(ctx, "k", bytes.NewReader(pngData("a")))
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(svc.dir, first.Filename)))

	second, err := svc.Store(ctx, "k", bytes.NewReader(pngData("a")))
	require.NoError(t, err)
	assert.False(t, second.Replayed)
	assert.NotEqual(t, first.Filename, second.Filename)
	assert.FileExists(t, filepath.Join(svc.dir, second.Filename))
}

func TestStore_Rejections(t *testing.T) {
	svc := newTestService(t, 32)
	ctx := context.Background()

	_, err := svc.Store(ctx, "", bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = svc.Store(ctx, "", bytes.NewReader(pngData(string(make([]byte, 64)))))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = svc.Store(ctx, "", bytes.NewReader([]byte("just some text")))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = svc.Store(ctx, string(make([]byte, MaxKeyLen+1)), bytes.NewReader(pngData("a")))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestIndex_PutIfAbsent(t *testing.T) {
	idx, err := OpenIndex(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer idx.Close()

	rec, created, err := idx.PutIfAbsent("k", Record{Filename: "a.png", SHA256: "x"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "a.png", rec.Filename)

	rec, created, err = idx.PutIfAbsent("k", Record{Filename: "b.png", SHA256: "y"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "a.png", rec.Filename)

	require.NoError(t, idx.Delete("k"))
	_, found, err := idx.Get("k")
	require.NoError(t, err)
	assert.False(t, found)
}
