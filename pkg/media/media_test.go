package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestRenderProducesEveryRendition(t *testing.T) {
	img, err := decodeImage(pngFixture(t, 400, 200))
	require.NoError(t, err)

	out, err := Render(context.Background(), img, MemeRenditions)
	require.NoError(t, err)
	require.Len(t, out, len(MemeRenditions))

	sizes := map[string][2]int{
		"icon-32":    {32, 32},
		"icon-80":    {80, 80},
		"icon-160":   {160, 160},
		"preview":    {400, 200},
		"blockchain": {512, 512},
	}
	for name, want := range sizes {
		decoded, err := png.Decode(bytes.NewReader(out[name]))
		require.NoError(t, err, name)
		assert.Equal(t, want[0], decoded.Bounds().Dx(), name)
		assert.Equal(t, want[1], decoded.Bounds().Dy(), name)
	}
}

func TestLocalUploadWritesOriginalAndRenditions(t *testing.T) {
	dir := t.TempDir()
	client, err := New(Local, &Config{LocalDir: dir, PublicURL: "http://localhost:8080/uploads"})
	require.NoError(t, err)

	info, err := client.Upload(context.Background(), &File{
		Name:    "my avatar.png",
		Mime:    "image/png",
		Content: pngFixture(t, 500, 300),
	}, "users/1/avatar", AvatarRenditions)
	require.NoError(t, err)

	assert.Equal(t, int64(500), info.Width)
	assert.Equal(t, int64(300), info.Height)
	assert.Equal(t, ".png", info.Ext)
	assert.Contains(t, info.StoragePath, "users/1/avatar/")
	assert.NotContains(t, info.StoragePath, " ")
	require.Len(t, info.Renditions, 2)

	for _, p := range info.Paths() {
		_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(p)))
		assert.NoError(t, err, p)
	}
	assert.Equal(t, "http://localhost:8080/uploads/"+info.Renditions["80x80"], client.URL(info.Renditions["80x80"]))

	require.NoError(t, client.Remove(context.Background(), info.Paths()...))
	for _, p := range info.Paths() {
		_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(p)))
		assert.True(t, os.IsNotExist(err), p)
	}
}

func TestLocalUploadSkipsRenditionsForNonImages(t *testing.T) {
	client, err := New(Local, &Config{LocalDir: t.TempDir()})
	require.NoError(t, err)

	info, err := client.Upload(context.Background(), &File{
		Name:    "notes.txt",
		Mime:    "text/plain",
		Content: []byte("hello"),
	}, "users/1", AvatarRenditions)
	require.NoError(t, err)
	assert.Empty(t, info.Renditions)
	assert.Equal(t, int64(5), info.Size)
	assert.Equal(t, StaticsFsPath+info.StoragePath, client.URL(info.StoragePath))
}

func TestLocalUploadRejectsBrokenImage(t *testing.T) {
	dir := t.TempDir()
	client, err := New(Local, &Config{LocalDir: dir})
	require.NoError(t, err)

	_, err = client.Upload(context.Background(), &File{
		Name:    "broken.png",
		Mime:    "image/png",
		Content: []byte("not a png"),
	}, "users/1", AvatarRenditions)
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "users", "1"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(Provider("ftp"), &Config{})
	assert.Error(t, err)
}
