package render

import (
	"image"
	"image/color"
	"math"
)

// DepthBuffer holds the greatest depth written so far for every pixel.
// Larger values are closer to the camera.
type DepthBuffer struct {
	W    int
	H    int
	Data []float64 // Row-major, y*W+x
}

// NewDepthBuffer creates a depth buffer with every cell at -MaxFloat64.
func NewDepthBuffer(width, height int) *DepthBuffer {
	d := &DepthBuffer{
		W:    width,
		H:    height,
		Data: make([]float64, width*height),
	}
	d.Clear()
	return d
}

// Clear resets every cell to -MaxFloat64.
func (d *DepthBuffer) Clear() {
	if len(d.Data) == 0 {
		return
	}
	// Use copy-doubling for faster clearing
	d.Data[0] = -math.MaxFloat64
	for i := 1; i < len(d.Data); i *= 2 {
		copy(d.Data[i:], d.Data[:i])
	}
}

// Get returns the depth at (x, y). Coordinates must be in range.
func (d *DepthBuffer) Get(x, y int) float64 {
	return d.Data[y*d.W+x]
}

// Set stores the depth at (x, y). Coordinates must be in range.
func (d *DepthBuffer) Set(x, y int, depth float64) {
	d.Data[y*d.W+x] = depth
}

// Image returns a top-down grayscale rendering of the buffer with every
// value clamped into [0, 255]. Untouched cells are black.
func (d *DepthBuffer) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, d.W, d.H))
	for y := range d.H {
		for x := range d.W {
			v := math.Max(0, math.Min(DepthRange, d.Get(x, y)))
			img.SetGray(x, d.H-1-y, color.Gray{Y: uint8(v)})
		}
	}
	return img
}

// Write saves Image to path, choosing the format by extension.
func (d *DepthBuffer) Write(path string) error {
	return saveImage(path, d.Image())
}
