package recognizer

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

func TestInputSpecFromDims(t *testing.T) {
	tests := []struct {
		name    string
		dims    []int64
		want    InputSpec
		wantErr bool
	}{
		{"nchw gray", []int64{1, 1, 28, 28}, InputSpec{Width: 28, Height: 28, Channels: 1, Layout: LayoutNCHW}, false},
		{"nchw rgb dynamic", []int64{-1, 3, -1, -1}, InputSpec{Width: 32, Height: 32, Channels: 3, Layout: LayoutNCHW}, false},
		{"nhwc gray", []int64{1, 48, 40, 1}, InputSpec{Width: 40, Height: 48, Channels: 1, Layout: LayoutNHWC}, false},
		{"nhwc dynamic", []int64{1, -1, -1, 1}, InputSpec{Width: 32, Height: 32, Channels: 1, Layout: LayoutNHWC}, false},
		{"rank 3", []int64{1, 20, 24}, InputSpec{Width: 24, Height: 20, Channels: 1, Layout: LayoutNHWC}, false},
		{"bad channels", []int64{1, 32, 32, 2}, InputSpec{}, true},
		{"bad rank", []int64{1, 784}, InputSpec{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := inputSpecFromDims(tt.dims, 32, 32, false)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("inputSpecFromDims: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestImageToTensorWhite(t *testing.T) {
	spec := InputSpec{Width: 16, Height: 16, Channels: 1, Layout: LayoutNHWC}
	out, err := ImageToTensor(imaging.New(5, 9, color.White), spec)
	if err != nil {
		t.Fatalf("ImageToTensor: %v", err)
	}
	if len(out) != spec.Size() {
		t.Fatalf("len = %d, want %d", len(out), spec.Size())
	}
	for i, v := range out {
		if v < 0.99 {
			t.Fatalf("out[%d] = %v, want white", i, v)
		}
	}

	spec.Invert = true
	out, _ = ImageToTensor(imaging.New(5, 9, color.White), spec)
	for i, v := range out {
		if v > 0.01 {
			t.Fatalf("inverted out[%d] = %v, want 0", i, v)
		}
	}
}

func TestImageToTensorChannels(t *testing.T) {
	img := imaging.New(8, 8, color.White)
	for y := 2; y < 6; y++ {
		for x := 2; x < 6; x++ {
			img.Set(x, y, color.Black)
		}
	}
	spec := InputSpec{Width: 8, Height: 8, Channels: 3, Layout: LayoutNCHW}
	out, err := ImageToTensor(img, spec)
	if err != nil {
		t.Fatalf("ImageToTensor: %v", err)
	}
	plane := 64
	for i := 0; i < plane; i++ {
		if out[i] != out[plane+i] || out[i] != out[2*plane+i] {
			t.Fatalf("channels differ at %d", i)
		}
	}
	if center := out[4*8+4]; center > 0.2 {
		t.Errorf("center = %v, want dark", center)
	}
	if corner := out[0]; corner < 0.8 {
		t.Errorf("corner = %v, want light", corner)
	}
}

func TestImageToTensorRejectsEmpty(t *testing.T) {
	spec := InputSpec{Width: 8, Height: 8, Channels: 1}
	if _, err := ImageToTensor(image.NewNRGBA(image.Rect(0, 0, 0, 0)), spec); err == nil {
		t.Error("expected error for empty glyph")
	}
	if _, err := ImageToTensor(imaging.New(4, 4, color.White), InputSpec{}); err == nil {
		t.Error("expected error for zero InputSpec")
	}
}
