// Package background renders the installer window background: a flat canvas
// with a directional indicator pointing from the bundle icon slot to the
// install-target slot. Output is deterministic for a given layout so tests
// can assert on geometry.
package background

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"golang.org/x/image/vector"

	"github.com/soracane/dmgforge/layout"
)

// Canvas and indicator colors. Flat, no gradients, so any non-canvas pixel
// belongs to the indicator.
var (
	CanvasColor = color.NRGBA{R: 0xEC, G: 0xEC, B: 0xF1, A: 0xFF}
	ArrowColor  = color.NRGBA{R: 0x55, G: 0x59, B: 0x61, A: 0xFF}
)

const (
	shaftHalfWidth = 3.5
	headLength     = 26.0
	headHalfWidth  = 13.0
	// edgePadding keeps the indicator strictly inside the icon gap even
	// after antialiased edges.
	edgePadding = 2.0
)

// Render draws the background for the given layout. Icon coordinates are in
// window space (origin bottom-left); the raster flips Y.
func Render(spec layout.Spec) (*image.RGBA, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	width, height := spec.WindowWidth, spec.WindowHeight
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(CanvasColor), image.Point{}, draw.Src)

	from := point{
		x: float64(spec.BundleIcon.X),
		y: float64(height - spec.BundleIcon.Y),
	}
	to := point{
		x: float64(spec.ShortcutIcon.X),
		y: float64(height - spec.ShortcutIcon.Y),
	}

	dx, dy := to.x-from.x, to.y-from.y
	distance := math.Hypot(dx, dy)
	inset := float64(spec.IconSize)/2 + float64(spec.ArrowMargin) + edgePadding
	if distance <= 2*inset+headLength {
		return nil, fmt.Errorf("icon slots %.0f apart leave no room for the indicator", distance)
	}

	// Unit direction and its normal.
	ux, uy := dx/distance, dy/distance
	nx, ny := -uy, ux

	start := point{x: from.x + ux*inset, y: from.y + uy*inset}
	tip := point{x: to.x - ux*inset, y: to.y - uy*inset}
	base := point{x: tip.x - ux*headLength, y: tip.y - uy*headLength}

	z := vector.NewRasterizer(width, height)

	// Shaft quad.
	z.MoveTo(float32(start.x+nx*shaftHalfWidth), float32(start.y+ny*shaftHalfWidth))
	z.LineTo(float32(base.x+nx*shaftHalfWidth), float32(base.y+ny*shaftHalfWidth))
	z.LineTo(float32(base.x-nx*shaftHalfWidth), float32(base.y-ny*shaftHalfWidth))
	z.LineTo(float32(start.x-nx*shaftHalfWidth), float32(start.y-ny*shaftHalfWidth))
	z.ClosePath()

	// Head triangle.
	z.MoveTo(float32(tip.x), float32(tip.y))
	z.LineTo(float32(base.x+nx*headHalfWidth), float32(base.y+ny*headHalfWidth))
	z.LineTo(float32(base.x-nx*headHalfWidth), float32(base.y-ny*headHalfWidth))
	z.ClosePath()

	z.Draw(canvas, canvas.Bounds(), image.NewUniform(ArrowColor), image.Point{})
	return canvas, nil
}

// RenderPNG renders the background and encodes it as PNG.
func RenderPNG(spec layout.Spec) ([]byte, error) {
	img, err := Render(spec)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode background: %w", err)
	}
	return buf.Bytes(), nil
}

type point struct {
	x, y float64
}
