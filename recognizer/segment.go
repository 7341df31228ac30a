package recognizer

import (
	"context"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Segmenter splits a page image into glyph crops and their boxes. Both slices
// have the same length and order; no detections yield empty slices.
type Segmenter interface {
	Segment(ctx context.Context, img image.Image) ([]image.Image, []BoundingBox, error)
}

// ComponentSegmenter finds glyphs as connected ink regions. The image is
// thresholded, the ink mask is dilated so strokes of one glyph (Hangul jamo,
// the dot of an i) merge, and every 8-connected region becomes one glyph.
// Glyphs are emitted in raster discovery order, not reading order.
type ComponentSegmenter struct {
	cfg SegmenterConfig
}

// NewComponentSegmenter returns a segmenter using cfg with defaults applied.
func NewComponentSegmenter(cfg SegmenterConfig) *ComponentSegmenter {
	cfg.ApplyDefaults()
	return &ComponentSegmenter{cfg: cfg}
}

// Segment implements Segmenter. It does not observe cancellation; the
// pipeline polls the context per glyph.
func (s *ComponentSegmenter) Segment(_ context.Context, img image.Image) ([]image.Image, []BoundingBox, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, nil, nil
	}
	gray := imaging.Grayscale(img)
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	threshold := s.cfg.Threshold
	if threshold <= 0 {
		threshold = otsuThreshold(imaging.Histogram(gray))
	}
	ink := binarize(gray, uint8(threshold))
	mask := dilate(ink, w, h, s.cfg.DilateRadius)
	regions := connectedRegions(mask, ink, w, h, s.cfg.MinArea)

	bin := inkImage(ink, w, h)
	glyphs := make([]image.Image, 0, len(regions))
	boxes := make([]BoundingBox, 0, len(regions))
	for _, r := range regions {
		pad := r.Inset(-s.cfg.Padding).Intersect(bin.Bounds())
		glyphs = append(glyphs, imaging.Crop(bin, pad))
		boxes = append(boxes, BoundingBox{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()})
	}
	return glyphs, boxes, nil
}

// otsuThreshold picks the gray level maximizing between-class variance of a
// normalized 256-bin histogram.
func otsuThreshold(hist [256]float64) int {
	var total, sumAll float64
	for i, p := range hist {
		total += p
		sumAll += float64(i) * p
	}
	threshold := 127
	var wB, sumB, best float64
	for i := 0; i < 256; i++ {
		wB += hist[i]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF <= 0 {
			break
		}
		sumB += float64(i) * hist[i]
		mB := sumB / wB
		mF := (sumAll - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = i
		}
	}
	return threshold
}

// binarize marks pixels at or below threshold as ink.
func binarize(gray *image.NRGBA, threshold uint8) []bool {
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	ink := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			ink[y*w+x] = gray.Pix[gray.PixOffset(x, y)] <= threshold
		}
	}
	return ink
}

// dilate grows the mask by a square of the given radius.
func dilate(mask []bool, w, h, radius int) []bool {
	if radius <= 0 {
		return mask
	}
	out := make([]bool, len(mask))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !mask[y*w+x] {
				continue
			}
			for dy := -radius; dy <= radius; dy++ {
				yy := y + dy
				if yy < 0 || yy >= h {
					continue
				}
				for dx := -radius; dx <= radius; dx++ {
					xx := x + dx
					if xx < 0 || xx >= w {
						continue
					}
					out[yy*w+xx] = true
				}
			}
		}
	}
	return out
}

// connectedRegions labels 8-connected regions of mask in raster order and
// returns for each the tight bounds of its ink pixels. Regions with fewer than
// minArea ink pixels are dropped.
func connectedRegions(mask, ink []bool, w, h, minArea int) []image.Rectangle {
	seen := make([]bool, len(mask))
	var regions []image.Rectangle
	var stack []int
	for start := range mask {
		if !mask[start] || seen[start] {
			continue
		}
		seen[start] = true
		stack = append(stack[:0], start)
		bounds := image.Rectangle{}
		area := 0
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := p%w, p/w
			if ink[p] {
				px := image.Rect(x, y, x+1, y+1)
				if area == 0 {
					bounds = px
				} else {
					bounds = bounds.Union(px)
				}
				area++
			}
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					xx, yy := x+dx, y+dy
					if xx < 0 || yy < 0 || xx >= w || yy >= h {
						continue
					}
					q := yy*w + xx
					if mask[q] && !seen[q] {
						seen[q] = true
						stack = append(stack, q)
					}
				}
			}
		}
		if area > 0 && area >= minArea {
			regions = append(regions, bounds)
		}
	}
	return regions
}

// inkImage renders the ink mask black on white.
func inkImage(ink []bool, w, h int) *image.NRGBA {
	img := imaging.New(w, h, color.White)
	black := color.NRGBA{A: 255}
	for i, on := range ink {
		if on {
			img.SetNRGBA(i%w, i/w, black)
		}
	}
	return img
}
