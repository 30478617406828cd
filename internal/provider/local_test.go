package provider

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"atlantic-photo/internal/model"
	"atlantic-photo/internal/storage"
)

func pngBytes(t *testing.T, w int, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// headerOnlyPNG returns a PNG signature and IHDR chunk declaring w x h with no pixel data.
func headerOnlyPNG(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8
	ihdr[9] = 2

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func newLocal(t *testing.T) (*Local, *storage.Disk) {
	t.Helper()
	disk, err := storage.New(t.TempDir())
	require.NoError(t, err)
	return NewLocal(disk, "http://localhost:8080/"), disk
}

func TestLocalUpload(t *testing.T) {
	local, disk := newLocal(t)
	data := pngBytes(t, 20, 10, color.RGBA{R: 200, A: 255})

	asset, err := local.Upload(context.Background(), ImagesFolder(7), "cat.png", bytes.NewReader(data))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(asset.PublicID, "AtlanticPhoto/user_7/images/"))
	assert.True(t, strings.HasSuffix(asset.PublicID, ".png"))
	assert.Equal(t, "http://localhost:8080/media/"+asset.PublicID, asset.URL)

	f, err := disk.Open(asset.PublicID)
	require.NoError(t, err)
	defer f.Close()
	var stored bytes.Buffer
	_, err = stored.ReadFrom(f)
	require.NoError(t, err)
	assert.Equal(t, data, stored.Bytes())
}

func TestLocalUploadSameContentGetsDistinctIDs(t *testing.T) {
	local, _ := newLocal(t)
	data := pngBytes(t, 4, 4, color.White)

	a, err := local.Upload(context.Background(), "f", "a.png", bytes.NewReader(data))
	require.NoError(t, err)
	b, err := local.Upload(context.Background(), "f", "b.png", bytes.NewReader(data))
	require.NoError(t, err)

	assert.NotEqual(t, a.PublicID, b.PublicID)
}

func TestLocalUploadRejectsNonImage(t *testing.T) {
	local, _ := newLocal(t)

	_, err := local.Upload(context.Background(), "f", "notes.txt", strings.NewReader("hello"))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidationFailed)
	assert.NotErrorIs(t, err, model.ErrUpstreamProvider)
}

func TestLocalUploadRejectsOversizedImage(t *testing.T) {
	local, disk := newLocal(t)

	_, err := local.Upload(context.Background(), "f", "bomb.png", bytes.NewReader(headerOnlyPNG(60000, 60000)))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidationFailed)
	assert.NotErrorIs(t, err, model.ErrUpstreamProvider)

	_, err = disk.Open("f")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestLocalUploadCancelled(t *testing.T) {
	local, _ := newLocal(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := local.Upload(ctx, "f", "a.png", bytes.NewReader(pngBytes(t, 2, 2, color.Black)))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUpstreamProvider)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalUploadStorageFailure(t *testing.T) {
	store := new(storage.MockStorage)
	store.On("Save", mock.Anything, mock.Anything).Return(int64(0), errors.New("disk full"))
	local := NewLocal(store, "http://x")

	_, err := local.Upload(context.Background(), "f", "a.png", bytes.NewReader(pngBytes(t, 2, 2, color.Black)))
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, KindProvider, perr.Kind)
	assert.Equal(t, "upload", perr.Op)
	store.AssertExpectations(t)
}

func TestLocalTransform(t *testing.T) {
	local, disk := newLocal(t)
	source, err := local.Upload(context.Background(), ImagesFolder(1), "src.png", bytes.NewReader(pngBytes(t, 800, 600, color.RGBA{G: 180, A: 255})))
	require.NoError(t, err)

	params := model.TransformParams{Width: 200, Height: 100, Crop: model.CropFill, Effect: model.EffectGrayscale, Border: model.BorderSolidRed, Angle: 0}
	out, err := local.Transform(context.Background(), source, TransformedFolder(1), params)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.PublicID, "AtlanticPhoto/user_1/transformed_images/"))
	assert.True(t, strings.HasSuffix(out.PublicID, ".png"))

	f, err := disk.Open(out.PublicID)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestLocalTransformMissingSource(t *testing.T) {
	local, _ := newLocal(t)

	_, err := local.Transform(context.Background(), Asset{PublicID: "nope/missing.png"}, "out", model.DefaultTransformParams())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUpstreamProvider)
}

func TestLocalTransformRejectsOversizedSource(t *testing.T) {
	local, disk := newLocal(t)
	_, err := disk.Save("f/legacy.png", bytes.NewReader(headerOnlyPNG(8000, 8000)))
	require.NoError(t, err)

	_, err = local.Transform(context.Background(), Asset{PublicID: "f/legacy.png"}, "out", model.DefaultTransformParams())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidationFailed)
	assert.NotErrorIs(t, err, model.ErrUpstreamProvider)
}

func TestLocalDelete(t *testing.T) {
	local, disk := newLocal(t)
	asset, err := local.Upload(context.Background(), "f", "a.png", bytes.NewReader(pngBytes(t, 2, 2, color.Black)))
	require.NoError(t, err)

	require.NoError(t, local.Delete(context.Background(), asset.PublicID))
	_, err = disk.Open(asset.PublicID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	t.Run("missing asset is not an error", func(t *testing.T) {
		assert.NoError(t, local.Delete(context.Background(), asset.PublicID))
	})
}
