// ABOUTME: Drawing surface interface consumed by the renderer
// ABOUTME: Path-based stroking with a current stroke color, sized in pixels
package render

import "github.com/charmbracelet/lipgloss"

// Surface is a 2D raster target. Coordinates are in pixels with the origin at the top left.
type Surface interface {
	// Size returns the drawable area in pixels
	Size() (width, height int)

	// Clear empties the whole surface
	Clear()

	// BeginPath discards any pending path
	BeginPath()

	// MoveTo starts a new subpath at (x, y)
	MoveTo(x, y float64)

	// LineTo adds a straight segment from the current point to (x, y)
	LineTo(x, y float64)

	// Stroke draws the pending path in the current stroke color
	Stroke()

	// SetStrokeColor sets the color used by subsequent strokes
	SetStrokeColor(color lipgloss.Color)
}
