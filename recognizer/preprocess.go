package recognizer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// TensorLayout is the memory order of the model input.
type TensorLayout string

const (
	LayoutNHWC TensorLayout = "nhwc"
	LayoutNCHW TensorLayout = "nchw"
)

// InputSpec describes the model's single image input.
type InputSpec struct {
	Width    int
	Height   int
	Channels int
	Layout   TensorLayout
	// Invert maps ink to 1 and paper to 0.
	Invert bool
}

// Size returns the number of float32 elements of one input tensor.
func (s InputSpec) Size() int { return s.Width * s.Height * s.Channels }

// Shape returns the tensor shape including the batch dimension of 1.
func (s InputSpec) Shape() []int64 {
	if s.Layout == LayoutNCHW {
		return []int64{1, int64(s.Channels), int64(s.Height), int64(s.Width)}
	}
	return []int64{1, int64(s.Height), int64(s.Width), int64(s.Channels)}
}

// inputSpecFromDims derives the input spec from model dimensions, using the
// fallback width and height for dynamic (non-positive) dimensions.
func inputSpecFromDims(dims []int64, fallbackW, fallbackH int, invert bool) (InputSpec, error) {
	pick := func(v int64, fallback int) int {
		if v > 0 {
			return int(v)
		}
		return fallback
	}
	switch len(dims) {
	case 4:
		if dims[1] == 1 || dims[1] == 3 {
			return InputSpec{
				Channels: int(dims[1]),
				Height:   pick(dims[2], fallbackH),
				Width:    pick(dims[3], fallbackW),
				Layout:   LayoutNCHW,
				Invert:   invert,
			}, nil
		}
		ch := 1
		if dims[3] > 0 {
			ch = int(dims[3])
		}
		if ch != 1 && ch != 3 {
			return InputSpec{}, fmt.Errorf("unsupported channel count %d", ch)
		}
		return InputSpec{
			Channels: ch,
			Height:   pick(dims[1], fallbackH),
			Width:    pick(dims[2], fallbackW),
			Layout:   LayoutNHWC,
			Invert:   invert,
		}, nil
	case 3:
		return InputSpec{
			Channels: 1,
			Height:   pick(dims[1], fallbackH),
			Width:    pick(dims[2], fallbackW),
			Layout:   LayoutNHWC,
			Invert:   invert,
		}, nil
	default:
		return InputSpec{}, fmt.Errorf("unsupported input rank %d", len(dims))
	}
}

// ImageToTensor grayscales the glyph, centers it on a square white canvas so
// the aspect ratio survives, resizes it to the InputSpec and scales pixels to [0,1].
func ImageToTensor(glyph image.Image, spec InputSpec) ([]float32, error) {
	if spec.Width <= 0 || spec.Height <= 0 || spec.Channels <= 0 {
		return nil, fmt.Errorf("invalid input spec %dx%dx%d", spec.Width, spec.Height, spec.Channels)
	}
	b := glyph.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("empty glyph image")
	}
	side := b.Dx()
	if b.Dy() > side {
		side = b.Dy()
	}
	canvas := imaging.New(side, side, color.White)
	canvas = imaging.PasteCenter(canvas, imaging.Grayscale(glyph))
	resized := imaging.Resize(canvas, spec.Width, spec.Height, imaging.Lanczos)

	plane := spec.Width * spec.Height
	out := make([]float32, spec.Size())
	for y := 0; y < spec.Height; y++ {
		for x := 0; x < spec.Width; x++ {
			off := resized.PixOffset(x, y)
			v := float32(resized.Pix[off]) / 255
			if spec.Invert {
				v = 1 - v
			}
			for c := 0; c < spec.Channels; c++ {
				if spec.Layout == LayoutNCHW {
					out[c*plane+y*spec.Width+x] = v
				} else {
					out[(y*spec.Width+x)*spec.Channels+c] = v
				}
			}
		}
	}
	return out, nil
}
