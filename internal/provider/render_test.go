package provider

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"atlantic-photo/internal/model"
)

func solid(w int, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestResizeDimensions(t *testing.T) {
	src := solid(400, 200, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	tests := []struct {
		mode  model.CropMode
		w, h  int
		wantW int
		wantH int
	}{
		{model.CropScale, 100, 100, 100, 100},
		{model.CropFit, 100, 100, 100, 50},
		{model.CropLimit, 800, 800, 400, 200},
		{model.CropLimit, 200, 200, 200, 100},
		{model.CropCrop, 100, 150, 100, 150},
		{model.CropCrop, 1000, 1000, 400, 200},
		{model.CropFill, 150, 150, 150, 150},
		{model.CropThumb, 120, 300, 120, 300},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			out := resize(src, tt.w, tt.h, tt.mode)
			assert.Equal(t, tt.wantW, out.Bounds().Dx())
			assert.Equal(t, tt.wantH, out.Bounds().Dy())
		})
	}
}

func TestPixelEffects(t *testing.T) {
	t.Run("grayscale equalises channels", func(t *testing.T) {
		img := solid(2, 2, color.RGBA{R: 200, G: 50, B: 10, A: 255})
		applyEffect(img, model.EffectGrayscale)
		px := img.RGBAAt(0, 0)
		assert.Equal(t, px.R, px.G)
		assert.Equal(t, px.G, px.B)
	})

	t.Run("invert", func(t *testing.T) {
		img := solid(2, 2, color.RGBA{R: 200, G: 50, B: 10, A: 255})
		applyEffect(img, model.EffectInvert)
		assert.Equal(t, color.RGBA{R: 55, G: 205, B: 245, A: 255}, img.RGBAAt(1, 1))
	})

	t.Run("blur keeps a uniform image unchanged", func(t *testing.T) {
		c := color.RGBA{R: 90, G: 90, B: 90, A: 255}
		img := solid(5, 5, c)
		applyEffect(img, model.EffectBlur)
		assert.Equal(t, c, img.RGBAAt(2, 2))
		assert.Equal(t, c, img.RGBAAt(0, 4))
	})

	t.Run("brightness saturates", func(t *testing.T) {
		img := solid(1, 1, color.RGBA{R: 250, G: 100, A: 255})
		applyEffect(img, model.EffectBrightness)
		px := img.RGBAAt(0, 0)
		assert.Equal(t, uint8(255), px.R)
		assert.Equal(t, uint8(125), px.G)
	})
}

func TestDrawBorder(t *testing.T) {
	img := solid(30, 30, color.RGBA{A: 255})
	drawBorder(img, model.BorderSolidRed)

	assert.Equal(t, red, img.RGBAAt(0, 15))
	assert.Equal(t, red, img.RGBAAt(29, 0))
	assert.Equal(t, color.RGBA{A: 255}, img.RGBAAt(1, 1))

	dashed := solid(30, 30, color.RGBA{A: 255})
	drawBorder(dashed, model.BorderDashedBlue)
	assert.Equal(t, blue, dashed.RGBAAt(0, 1))
	assert.Equal(t, blue, dashed.RGBAAt(1, 0))
	assert.Equal(t, color.RGBA{A: 255}, dashed.RGBAAt(7, 0))
}

func TestRotate(t *testing.T) {
	img := solid(40, 20, color.RGBA{B: 255, A: 255})

	assert.Same(t, img, rotate(img, 0))
	assert.Same(t, img, rotate(img, 360))

	quarter := rotate(img, 90)
	assert.Equal(t, 20, quarter.Bounds().Dx())
	assert.Equal(t, 40, quarter.Bounds().Dy())

	tilted := rotate(img, 45)
	assert.Greater(t, tilted.Bounds().Dx(), 40)
	assert.Equal(t, uint8(0), tilted.RGBAAt(0, 0).A)
}

func TestRenderDefaults(t *testing.T) {
	out := render(solid(800, 600, color.RGBA{R: 120, G: 60, B: 30, A: 255}), model.DefaultTransformParams())
	// 500x300 rotated by 15 degrees
	assert.Equal(t, 561, out.Bounds().Dx())
	assert.Equal(t, 420, out.Bounds().Dy())
}
