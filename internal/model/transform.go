package model

import (
	"fmt"
	"slices"
	"time"
)

type CropMode string

const (
	CropFill  CropMode = "fill"
	CropFit   CropMode = "fit"
	CropCrop  CropMode = "crop"
	CropLimit CropMode = "limit"
	CropThumb CropMode = "thumb"
	CropScale CropMode = "scale"
)

var CropModes = []CropMode{CropFill, CropFit, CropCrop, CropLimit, CropThumb, CropScale}

type Effect string

const (
	EffectGrayscale  Effect = "grayscale"
	EffectSepia      Effect = "sepia"
	EffectInvert     Effect = "invert"
	EffectCartoonify Effect = "cartoonify"
	EffectBlur       Effect = "blur"
	EffectBrightness Effect = "brightness"
	EffectContrast   Effect = "contrast"
	EffectSaturation Effect = "saturation"
	EffectSharpen    Effect = "sharpen"
)

var Effects = []Effect{
	EffectGrayscale, EffectSepia, EffectInvert, EffectCartoonify, EffectBlur,
	EffectBrightness, EffectContrast, EffectSaturation, EffectSharpen,
}

type Border string

const (
	BorderSolidBlack Border = "1px_solid_black"
	BorderSolidRed   Border = "1px_solid_red"
	BorderDashedBlue Border = "2px_dashed_blue"
)

var Borders = []Border{BorderSolidBlack, BorderSolidRed, BorderDashedBlue}

const (
	MinTransformWidth  = 100
	MaxTransformWidth  = 1920
	MinTransformHeight = 100
	MaxTransformHeight = 1080
	MaxTransformAngle  = 360
)

// TransformParams describes a named transformation applied by the image
// provider.
type TransformParams struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Crop   CropMode `json:"crop"`
	Effect Effect   `json:"effect"`
	Border Border   `json:"border"`
	Angle  int      `json:"angle"`
}

func DefaultTransformParams() TransformParams {
	return TransformParams{
		Width:  500,
		Height: 300,
		Crop:   CropCrop,
		Effect: EffectGrayscale,
		Border: BorderDashedBlue,
		Angle:  15,
	}
}

func (p TransformParams) Validate() error {
	if p.Width < MinTransformWidth || p.Width > MaxTransformWidth {
		return fmt.Errorf("%w: width must be between %d and %d", ErrValidationFailed, MinTransformWidth, MaxTransformWidth)
	}
	if p.Height < MinTransformHeight || p.Height > MaxTransformHeight {
		return fmt.Errorf("%w: height must be between %d and %d", ErrValidationFailed, MinTransformHeight, MaxTransformHeight)
	}
	if p.Angle < 0 || p.Angle > MaxTransformAngle {
		return fmt.Errorf("%w: angle must be between 0 and %d", ErrValidationFailed, MaxTransformAngle)
	}
	if !slices.Contains(CropModes, p.Crop) {
		return fmt.Errorf("%w: unsupported crop mode %q", ErrValidationFailed, p.Crop)
	}
	if !slices.Contains(Effects, p.Effect) {
		return fmt.Errorf("%w: unsupported effect %q", ErrValidationFailed, p.Effect)
	}
	if !slices.Contains(Borders, p.Border) {
		return fmt.Errorf("%w: unsupported border %q", ErrValidationFailed, p.Border)
	}
	return nil
}

type TransformedPic struct {
	ID            int64           `json:"id"`
	URL           string          `json:"url"`
	PublicID      string          `json:"-"`
	OriginalPicID *int64          `json:"original_pic_id"`
	UserID        int64           `json:"user_id"`
	Params        TransformParams `json:"params"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TransformPatch carries the fields of a partial transformation update.
type TransformPatch struct {
	Width  *int      `json:"width"`
	Height *int      `json:"height"`
	Crop   *CropMode `json:"crop"`
	Effect *Effect   `json:"effect"`
	Border *Border   `json:"border"`
	Angle  *int      `json:"angle"`
}

// Apply returns p with every non-nil patch field replaced.
func (t TransformPatch) Apply(p TransformParams) TransformParams {
	if t.Width != nil {
		p.Width = *t.Width
	}
	if t.Height != nil {
		p.Height = *t.Height
	}
	if t.Crop != nil {
		p.Crop = *t.Crop
	}
	if t.Effect != nil {
		p.Effect = *t.Effect
	}
	if t.Border != nil {
		p.Border = *t.Border
	}
	if t.Angle != nil {
		p.Angle = *t.Angle
	}
	return p
}
