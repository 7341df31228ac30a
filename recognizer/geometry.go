package recognizer

import (
	"fmt"
	"sort"
	"strings"
)

// BoundingBox is an axis-aligned rectangle in source image pixel coordinates
// with the origin at the top-left corner.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Right returns X + Width.
func (b BoundingBox) Right() int { return b.X + b.Width }

// Bottom returns Y + Height.
func (b BoundingBox) Bottom() int { return b.Y + b.Height }

func (b BoundingBox) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", b.X, b.Y, b.Width, b.Height)
}

// Precedes reports whether a comes before b in reading order. A box lying
// entirely above b precedes it; otherwise the smaller X wins.
//
// The relation is not transitive for boxes that partially overlap vertically
// with swapped X. It is kept as is: line breaking depends on the order it yields.
func Precedes(a, b BoundingBox) bool {
	if a.Bottom() <= b.Y {
		return true
	}
	return a.X < b.X
}

// BreaksLine reports whether a line break goes between prev and cur: cur starts
// strictly below the bottom of prev.
func BreaksLine(prev, cur BoundingBox) bool {
	return prev.Bottom() < cur.Y
}

// RecognizedGlyph is one classified glyph with its position.
type RecognizedGlyph struct {
	Label      string      `json:"label"`
	Box        BoundingBox `json:"box"`
	Confidence float32     `json:"confidence"`
}

// SortGlyphs orders glyphs in place using Precedes. The sort is stable so equal
// or incomparable inputs keep their segmenter order and repeated runs agree.
func SortGlyphs(glyphs []RecognizedGlyph) {
	sort.SliceStable(glyphs, func(i, j int) bool {
		return Precedes(glyphs[i].Box, glyphs[j].Box)
	})
}

// AssembleText concatenates labels of already sorted glyphs, inserting "\n"
// wherever BreaksLine holds. The previous box starts as the zero box.
func AssembleText(glyphs []RecognizedGlyph) string {
	var b strings.Builder
	var prev BoundingBox
	for _, g := range glyphs {
		if BreaksLine(prev, g.Box) {
			b.WriteByte('\n')
		}
		b.WriteString(g.Label)
		prev = g.Box
	}
	return b.String()
}

// BoxesFromFlat converts n boxes given as 4n flat x, y, width, height values.
// It panics when the coordinate count does not match n: that is a segmenter bug.
func BoxesFromFlat(coords []int, n int) []BoundingBox {
	if len(coords)%4 != 0 || len(coords)/4 != n {
		panic(fmt.Sprintf("recognizer: %d coordinates do not describe %d boxes", len(coords), n))
	}
	out := make([]BoundingBox, n)
	for i := range out {
		out[i] = BoundingBox{
			X:      coords[i*4],
			Y:      coords[i*4+1],
			Width:  coords[i*4+2],
			Height: coords[i*4+3],
		}
	}
	return out
}
