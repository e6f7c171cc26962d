package viz

import (
	"math"
	"strings"
)

// Braille cells hold 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a braille pixel grid. Pixel coordinates run over
// (Width*2) x (Height*4).
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
}

func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&pixelMap[y%4][x%2] != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// PhaseMap draws one dot per super-droplet. The horizontal position is
// log10 of the absolute water mass between the smallest and largest
// non-zero mass. Ice sits in the upper half of the canvas and liquid in
// the lower half; within a half the droplet index spreads dots vertically.
// Zero-mass droplets are skipped.
func (c *Canvas) PhaseMap(mass []float64) (liquid, ice int) {
	c.Clear()

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, m := range mass {
		if m == 0 || math.IsNaN(m) {
			continue
		}
		l := math.Log10(math.Abs(m))
		lo, hi = math.Min(lo, l), math.Max(hi, l)
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}

	w, h := c.Width*2, c.Height*4
	half := h / 2
	if half == 0 {
		half = 1
	}
	for i, m := range mass {
		if m == 0 || math.IsNaN(m) {
			continue
		}
		x := w / 2
		if hi > lo {
			x = int((math.Log10(math.Abs(m)) - lo) / (hi - lo) * float64(w-1))
		}
		y := i % half
		if m < 0 {
			ice++
		} else {
			liquid++
			y += h - half
		}
		c.Set(x, y)
	}
	return liquid, ice
}
