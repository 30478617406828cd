package provider

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"atlantic-photo/internal/model"
)

// render applies params to src in provider order: resize, effect, border,
// rotation.
func render(src image.Image, params model.TransformParams) *image.RGBA {
	out := resize(src, params.Width, params.Height, params.Crop)
	applyEffect(out, params.Effect)
	drawBorder(out, params.Border)
	return rotate(out, params.Angle)
}

func resize(src image.Image, width int, height int, mode model.CropMode) *image.RGBA {
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()

	switch mode {
	case model.CropScale:
		return scaleTo(src, b, width, height)
	case model.CropFit:
		w, h := fitWithin(sw, sh, width, height)
		return scaleTo(src, b, w, h)
	case model.CropLimit:
		if sw <= width && sh <= height {
			return scaleTo(src, b, sw, sh)
		}
		w, h := fitWithin(sw, sh, width, height)
		return scaleTo(src, b, w, h)
	case model.CropCrop:
		w, h := min(width, sw), min(height, sh)
		x0 := b.Min.X + (sw-w)/2
		y0 := b.Min.Y + (sh-h)/2
		return scaleTo(src, image.Rect(x0, y0, x0+w, y0+h), w, h)
	default: // fill, thumb
		ratio := math.Max(float64(width)/float64(sw), float64(height)/float64(sh))
		cw := min(sw, int(math.Round(float64(width)/ratio)))
		ch := min(sh, int(math.Round(float64(height)/ratio)))
		x0 := b.Min.X + (sw-cw)/2
		y0 := b.Min.Y + (sh-ch)/2
		return scaleTo(src, image.Rect(x0, y0, x0+cw, y0+ch), width, height)
	}
}

func fitWithin(sw int, sh int, width int, height int) (int, int) {
	ratio := math.Min(float64(width)/float64(sw), float64(height)/float64(sh))
	return max(1, int(math.Round(float64(sw)*ratio))), max(1, int(math.Round(float64(sh)*ratio)))
}

func scaleTo(src image.Image, srcRect image.Rectangle, width int, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, max(1, width), max(1, height)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, srcRect, draw.Over, nil)
	return dst
}

func applyEffect(img *image.RGBA, effect model.Effect) {
	switch effect {
	case model.EffectBlur:
		convolve(img, [9]float64{1, 1, 1, 1, 1, 1, 1, 1, 1}, 9)
		return
	case model.EffectSharpen:
		convolve(img, [9]float64{0, -1, 0, -1, 5, -1, 0, -1, 0}, 1)
		return
	}

	fn := pixelEffect(effect)
	if fn == nil {
		return
	}

	for i := 0; i+3 < len(img.Pix); i += 4 {
		r, g, b := fn(float64(img.Pix[i]), float64(img.Pix[i+1]), float64(img.Pix[i+2]))
		img.Pix[i], img.Pix[i+1], img.Pix[i+2] = clamp(r), clamp(g), clamp(b)
	}
}

type rgbFunc func(r, g, b float64) (float64, float64, float64)

func pixelEffect(effect model.Effect) rgbFunc {
	switch effect {
	case model.EffectGrayscale:
		return func(r, g, b float64) (float64, float64, float64) {
			y := luma(r, g, b)
			return y, y, y
		}
	case model.EffectSepia:
		return func(r, g, b float64) (float64, float64, float64) {
			return 0.393*r + 0.769*g + 0.189*b,
				0.349*r + 0.686*g + 0.168*b,
				0.272*r + 0.534*g + 0.131*b
		}
	case model.EffectInvert:
		return func(r, g, b float64) (float64, float64, float64) {
			return 255 - r, 255 - g, 255 - b
		}
	case model.EffectBrightness:
		return func(r, g, b float64) (float64, float64, float64) {
			return r * 1.25, g * 1.25, b * 1.25
		}
	case model.EffectContrast:
		return func(r, g, b float64) (float64, float64, float64) {
			const k = 1.4
			return (r-128)*k + 128, (g-128)*k + 128, (b-128)*k + 128
		}
	case model.EffectSaturation:
		return func(r, g, b float64) (float64, float64, float64) {
			const k = 1.6
			y := luma(r, g, b)
			return y + (r-y)*k, y + (g-y)*k, y + (b-y)*k
		}
	case model.EffectCartoonify:
		return func(r, g, b float64) (float64, float64, float64) {
			return posterize(r), posterize(g), posterize(b)
		}
	default:
		return nil
	}
}

func luma(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}

func posterize(v float64) float64 {
	const step = 255.0 / 5
	return math.Round(v/step) * step
}

func clamp(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}

// convolve applies a 3×3 kernel to the colour channels, leaving alpha as is.
// Edge pixels reuse the nearest in-bounds neighbour.
func convolve(img *image.RGBA, kernel [9]float64, divisor float64) {
	b := img.Bounds()
	src := make([]uint8, len(img.Pix))
	copy(src, img.Pix)

	at := func(x, y int) int {
		x = min(max(x, b.Min.X), b.Max.X-1)
		y = min(max(y, b.Min.Y), b.Max.Y-1)
		return (y-b.Min.Y)*img.Stride + (x-b.Min.X)*4
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var sum [3]float64
			k := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					o := at(x+dx, y+dy)
					for c := range 3 {
						sum[c] += float64(src[o+c]) * kernel[k]
					}
					k++
				}
			}
			o := at(x, y)
			for c := range 3 {
				img.Pix[o+c] = clamp(sum[c] / divisor)
			}
		}
	}
}

var (
	black = color.RGBA{A: 255}
	red   = color.RGBA{R: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

func drawBorder(img *image.RGBA, border model.Border) {
	var (
		c      color.RGBA
		width  int
		dashed bool
	)
	switch border {
	case model.BorderSolidBlack:
		c, width = black, 1
	case model.BorderSolidRed:
		c, width = red, 1
	case model.BorderDashedBlue:
		c, width, dashed = blue, 2, true
	default:
		return
	}

	b := img.Bounds()
	on := func(i int) bool { return !dashed || i%10 < 6 }

	for w := range width {
		for x := b.Min.X; x < b.Max.X; x++ {
			if on(x - b.Min.X) {
				img.SetRGBA(x, b.Min.Y+w, c)
				img.SetRGBA(x, b.Max.Y-1-w, c)
			}
		}
		for y := b.Min.Y; y < b.Max.Y; y++ {
			if on(y - b.Min.Y) {
				img.SetRGBA(b.Min.X+w, y, c)
				img.SetRGBA(b.Max.X-1-w, y, c)
			}
		}
	}
}

// rotate turns img clockwise by angle degrees onto a canvas that fits the
// whole result. Uncovered corners stay transparent.
func rotate(img *image.RGBA, angle int) *image.RGBA {
	angle %= 360
	if angle == 0 {
		return img
	}

	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	rad := float64(angle) * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)

	nw := int(math.Ceil(math.Abs(w*cos) + math.Abs(h*sin) - 1e-9))
	nh := int(math.Ceil(math.Abs(w*sin) + math.Abs(h*cos) - 1e-9))
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))

	cx, cy := w/2, h/2
	ncx, ncy := float64(nw)/2, float64(nh)/2
	for y := range nh {
		for x := range nw {
			// Inverse mapping: rotate the destination pixel centre back
			// counter-clockwise into source space.
			dx := float64(x) + 0.5 - ncx
			dy := float64(y) + 0.5 - ncy
			sx := dx*cos + dy*sin + cx
			sy := -dx*sin + dy*cos + cy
			ix, iy := int(math.Floor(sx)), int(math.Floor(sy))
			if ix < 0 || iy < 0 || ix >= b.Dx() || iy >= b.Dy() {
				continue
			}
			dst.SetRGBA(x, y, img.RGBAAt(b.Min.X+ix, b.Min.Y+iy))
		}
	}
	return dst
}
