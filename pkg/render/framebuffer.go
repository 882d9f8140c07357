package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/taigrr/tinyrender/pkg/tga"
)

// PixelBuffer is the color target of a render pass. Coordinates have
// their origin at the bottom left, matching Viewport output.
type PixelBuffer interface {
	Set(x, y int, c Color)
	Get(x, y int) Color
	Width() int
	Height() int
}

// Framebuffer is a row-major RGBA pixel grid with its origin at the
// bottom left. Row 0 is the bottom row of the rendered image.
type Framebuffer struct {
	W      int
	H      int
	Pixels []color.RGBA
}

var _ PixelBuffer = (*Framebuffer)(nil)

// NewFramebuffer creates a new framebuffer cleared to transparent black.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		W:      width,
		H:      height,
		Pixels: make([]color.RGBA, width*height),
	}
}

// Width returns the width in pixels.
func (fb *Framebuffer) Width() int { return fb.W }

// Height returns the height in pixels.
func (fb *Framebuffer) Height() int { return fb.H }

// Clear fills the framebuffer with a solid color.
func (fb *Framebuffer) Clear(c color.RGBA) {
	for i := range fb.Pixels {
		fb.Pixels[i] = c
	}
}

// Set sets the pixel at (x, y). Out-of-range writes are ignored.
func (fb *Framebuffer) Set(x, y int, c color.RGBA) {
	if x < 0 || x >= fb.W || y < 0 || y >= fb.H {
		return
	}
	fb.Pixels[y*fb.W+x] = c
}

// Get returns the color at (x, y), or transparent black if out of range.
func (fb *Framebuffer) Get(x, y int) color.RGBA {
	if x < 0 || x >= fb.W || y < 0 || y >= fb.H {
		return color.RGBA{}
	}
	return fb.Pixels[y*fb.W+x]
}

// DrawLine draws a line from (x0, y0) to (x1, y1) using Bresenham's algorithm.
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		fb.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// FlipVertically mirrors the rows in place.
func (fb *Framebuffer) FlipVertically() {
	for y := range fb.H / 2 {
		top := fb.Pixels[y*fb.W : (y+1)*fb.W]
		bot := fb.Pixels[(fb.H-1-y)*fb.W : (fb.H-y)*fb.W]
		for x := range top {
			top[x], bot[x] = bot[x], top[x]
		}
	}
}

// FlipHorizontally mirrors the columns in place.
func (fb *Framebuffer) FlipHorizontally() {
	for y := range fb.H {
		row := fb.Pixels[y*fb.W : (y+1)*fb.W]
		for x := range fb.W / 2 {
			row[x], row[fb.W-1-x] = row[fb.W-1-x], row[x]
		}
	}
}

// Scale returns a copy resized to width x height with bilinear filtering.
func (fb *Framebuffer) Scale(width, height int) *Framebuffer {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), fb.ToImage(), image.Rect(0, 0, fb.W, fb.H), draw.Src, nil)
	return FramebufferFromImage(dst)
}

// ToImage converts the framebuffer to a top-down image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.W, fb.H))
	for y := range fb.H {
		for x := range fb.W {
			img.SetRGBA(x, fb.H-1-y, fb.Pixels[y*fb.W+x])
		}
	}
	return img
}

// FramebufferFromImage converts a top-down image into a framebuffer.
func FramebufferFromImage(img image.Image) *Framebuffer {
	b := img.Bounds()
	fb := NewFramebuffer(b.Dx(), b.Dy())
	for y := range fb.H {
		for x := range fb.W {
			c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			fb.Set(x, fb.H-1-y, c)
		}
	}
	return fb
}

// Save writes the framebuffer to path, choosing the encoder by
// extension: .tga (RLE, bottom-up rows), .png or .bmp.
func (fb *Framebuffer) Save(path string) error {
	return saveImage(path, fb.ToImage())
}

func saveImage(path string, img image.Image) (err error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".tga", ".png", ".bmp":
	default:
		return fmt.Errorf("unsupported image format %q", ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close image: %w", cerr)
		}
	}()

	switch ext {
	case ".tga":
		err = tga.Encode(f, img, &tga.Options{RLE: true, BottomUp: true})
	case ".png":
		err = png.Encode(f, img)
	default:
		err = bmp.Encode(f, img)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
