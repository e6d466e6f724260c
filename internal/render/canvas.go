// ABOUTME: Braille terminal canvas
// ABOUTME: Each cell holds a 2x4 dot grid; strokes are rasterized with Bresenham lines
package render

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	dotsPerCellX = 2
	dotsPerCellY = 4
	brailleBase  = 0x2800
)

// dotBits maps a dot position (x, y) inside a cell to its braille bit
var dotBits = [dotsPerCellX][dotsPerCellY]rune{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

type point struct {
	x, y   float64
	moveTo bool
}

type cell struct {
	bits  rune
	color lipgloss.Color
}

// Canvas is a Surface backed by terminal cells. A cell takes the color of the last
// stroke that touched it.
type Canvas struct {
	cols, rows int
	cells      []cell
	path       []point
	color      lipgloss.Color
}

// NewCanvas creates a canvas of cols x rows terminal cells
func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{}
	c.Resize(cols, rows)
	return c
}

// Resize changes the cell dimensions and clears the canvas
func (c *Canvas) Resize(cols, rows int) {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	c.cols = cols
	c.rows = rows
	c.cells = make([]cell, cols*rows)
	c.path = c.path[:0]
}

// Cols returns the width in cells
func (c *Canvas) Cols() int { return c.cols }

// Rows returns the height in cells
func (c *Canvas) Rows() int { return c.rows }

// Size returns the size in dots
func (c *Canvas) Size() (int, int) {
	return c.cols * dotsPerCellX, c.rows * dotsPerCellY
}

func (c *Canvas) Clear() {
	for i := range c.cells {
		c.cells[i] = cell{}
	}
}

func (c *Canvas) BeginPath() {
	c.path = c.path[:0]
}

func (c *Canvas) MoveTo(x, y float64) {
	c.path = append(c.path, point{x: x, y: y, moveTo: true})
}

func (c *Canvas) LineTo(x, y float64) {
	c.path = append(c.path, point{x: x, y: y})
}

func (c *Canvas) SetStrokeColor(color lipgloss.Color) {
	c.color = color
}

// Stroke rasterizes every segment of the pending path. A lone MoveTo plots one dot.
func (c *Canvas) Stroke() {
	var prev *point
	for i := range c.path {
		p := &c.path[i]
		if p.moveTo || prev == nil {
			c.plot(p.x, p.y)
		} else {
			c.line(prev.x, prev.y, p.x, p.y)
		}
		prev = p
	}
}

// Dot reports whether the dot at (x, y) is set
func (c *Canvas) Dot(x, y int) bool {
	w, h := c.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return false
	}
	ce := c.cells[(y/dotsPerCellY)*c.cols+x/dotsPerCellX]
	return ce.bits&dotBits[x%dotsPerCellX][y%dotsPerCellY] != 0
}

// ColorAt returns the color of the cell holding dot (x, y)
func (c *Canvas) ColorAt(x, y int) lipgloss.Color {
	w, h := c.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return ""
	}
	return c.cells[(y/dotsPerCellY)*c.cols+x/dotsPerCellX].color
}

// String renders the canvas as rows of braille characters joined by newlines
func (c *Canvas) String() string {
	var sb strings.Builder
	for row := 0; row < c.rows; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}

		// Batch runs of equally colored cells into one styled span
		var run strings.Builder
		var runColor lipgloss.Color
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if runColor == "" {
				sb.WriteString(run.String())
			} else {
				sb.WriteString(lipgloss.NewStyle().Foreground(runColor).Render(run.String()))
			}
			run.Reset()
		}

		for col := 0; col < c.cols; col++ {
			ce := c.cells[row*c.cols+col]
			color := ce.color
			if ce.bits == 0 {
				color = ""
			}
			if color != runColor {
				flush()
				runColor = color
			}
			if ce.bits == 0 {
				run.WriteByte(' ')
			} else {
				run.WriteRune(brailleBase + ce.bits)
			}
		}
		flush()
	}
	return sb.String()
}

// plot sets the dot containing (x, y). Points on the far right or bottom edge
// land on the last dot.
func (c *Canvas) plot(x, y float64) {
	c.set(c.dot(x, y))
}

func (c *Canvas) dot(x, y float64) (int, int) {
	w, h := c.Size()
	return clampDot(x, w), clampDot(y, h)
}

func clampDot(v float64, size int) int {
	if math.IsNaN(v) {
		return -1
	}
	v = math.Max(-1, math.Floor(v))
	i := int(math.Min(v, float64(size)))
	if i >= size {
		i = size - 1
	}
	return i
}

func (c *Canvas) set(x, y int) {
	w, h := c.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	ce := &c.cells[(y/dotsPerCellY)*c.cols+x/dotsPerCellX]
	ce.bits |= dotBits[x%dotsPerCellX][y%dotsPerCellY]
	ce.color = c.color
}

// line draws a Bresenham line between two points
func (c *Canvas) line(x0f, y0f, x1f, y1f float64) {
	x0, y0 := c.dot(x0f, y0f)
	x1, y1 := c.dot(x1f, y1f)

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy

	for {
		c.set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
