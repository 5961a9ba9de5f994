package chart

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Variant selects between the owner's chart and the public read-only chart.
type Variant int

const (
	Interactive Variant = iota
	ReadOnly
)

const (
	// DefaultMargin is the gap between the pie and the surface edge.
	DefaultMargin = 10
	// readOnlyGutter is the extra room the read-only variant keeps for its
	// external labels.
	readOnlyGutter = 50

	leaderElbow = 14
	leaderTail  = 16
	textPad     = 4
)

// Placeholder is painted instead of a pie when there is nothing to show.
const Placeholder = "No data"

var (
	backgroundColor = drawing.ColorFromHex("1A1B26")
	labelColor      = drawing.ColorWhite
	leaderColor     = drawing.ColorFromHex("C0CAF5")
	placeholderFg   = drawing.ColorFromHex("666666")
)

// Options configures a render pass.
type Options struct {
	Variant Variant
	// Size is the side of the square surface, normally the container width.
	Size int
	// Margin defaults to DefaultMargin when zero.
	Margin int
}

func (o Options) margin() float64 {
	m := o.Margin
	if m <= 0 {
		m = DefaultMargin
	}
	if o.Variant == ReadOnly && o.Size >= 4*readOnlyGutter {
		m += readOnlyGutter
	}
	return float64(m)
}

// side is the surface edge in pixels; never less than one.
func (o Options) side() int {
	return max(o.Size, 1)
}

// Geometry returns where the pie sits on a surface rendered with o. The
// hit tester must use the same geometry the renderer drew with.
func (o Options) Geometry() Geometry {
	s := float64(o.side())
	return NewGeometry(s, s, o.margin())
}

// fit sizes o to the surface bounds b and returns the pie geometry on it.
// Non-square surfaces centre the pie in the shorter dimension.
func (o Options) fit(b image.Rectangle) (Options, Geometry) {
	o.Size = min(b.Dx(), b.Dy())
	g := NewGeometry(float64(b.Dx()), float64(b.Dy()), o.margin())
	g.CX += float64(b.Min.X)
	g.CY += float64(b.Min.Y)
	return o, g
}

func (o Options) labelThreshold() float64 {
	if o.Variant == ReadOnly {
		return 0.2
	}
	return 0.1
}

func (o Options) labelRadius() float64 {
	if o.Variant == ReadOnly {
		return 0.6
	}
	return 0.7
}

// NewSurface allocates a square surface for o.Size. A fresh surface is made
// for every paint so it always matches the current container width.
func NewSurface(o Options) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, o.side(), o.side()))
}

// Render clears img and paints the pie for cats. It returns the slices it
// drew so callers can hit-test against exactly what is on screen; the result
// is nil when the placeholder was painted.
//
// The pie is placed from img's bounds, so o.Size is ignored here; a surface
// from NewSurface(o) gives the same placement as o.Geometry().
func Render(img *image.RGBA, cats []AggregatedCategory, o Options) ([]Slice, error) {
	b := img.Bounds()
	draw.Draw(img, b, image.NewUniform(backgroundColor), b.Min, draw.Src)
	o, g := o.fit(b)

	slices := Layout(cats)
	if slices == nil {
		drawCentered(img, Placeholder, g.CX, g.CY, placeholderFg)
		return nil, nil
	}

	gc, err := drawing.NewRasterGraphicContext(img)
	if err != nil {
		return nil, fmt.Errorf("raster context: %w", err)
	}

	for i, s := range slices {
		if s.Width() <= 0 {
			continue
		}
		gc.BeginPath()
		gc.SetFillColor(hexColor(cats[i].Color))
		gc.MoveTo(g.CX, g.CY)
		gc.ArcTo(g.CX, g.CY, g.Radius, g.Radius, s.StartAngle, s.Width())
		gc.Close()
		gc.Fill()
	}

	for _, s := range slices {
		if s.Width() <= o.labelThreshold() {
			continue
		}
		x, y := g.Point(s.Mid(), o.labelRadius())
		drawCentered(img, s.Percentage+"%", x, y, labelColor)
	}

	if o.Variant == ReadOnly {
		drawLeaderLabels(img, gc, slices, g)
	}
	return slices, nil
}

// drawLeaderLabels draws "name (HH:MM:SS)" outside the circle, connected to
// the slice edge by a line that bends left or right depending on which half
// of the surface the slice's bisector points into.
func drawLeaderLabels(img *image.RGBA, gc *drawing.RasterGraphicContext, slices []Slice, g Geometry) {
	gc.SetStrokeColor(leaderColor)
	gc.SetLineWidth(1)

	for _, s := range slices {
		if s.Width() <= 0 {
			continue
		}
		mid := s.Mid()
		ex, ey := g.Point(mid, 1)
		bx, by := g.Point(mid, 1+leaderElbow/math.Max(g.Radius, 1))

		right := math.Cos(mid) >= 0
		tx := bx + leaderTail
		if !right {
			tx = bx - leaderTail
		}

		gc.BeginPath()
		gc.MoveTo(ex, ey)
		gc.LineTo(bx, by)
		gc.LineTo(tx, by)
		gc.Stroke()

		text := fmt.Sprintf("%s (%s)", s.Name, FormatTime(s.Seconds))
		w := textWidth(text)
		x := tx + textPad
		if !right {
			x = tx - textPad - w
		}
		drawText(img, text, x, by+textHalfHeight(), labelColor)
	}
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

var face = basicfont.Face7x13

func textWidth(text string) float64 {
	d := &font.Drawer{Face: face}
	return float64(d.MeasureString(text).Ceil())
}

func textHalfHeight() float64 {
	return float64(face.Metrics().Ascent.Ceil()) / 2
}

// drawCentered draws text with its centre at (x, y).
func drawCentered(img *image.RGBA, text string, x, y float64, c color.Color) {
	drawText(img, text, x-textWidth(text)/2, y+textHalfHeight(), c)
}

// drawText draws text with its baseline starting at (x, y), clamped so the
// label stays on the surface.
func drawText(img *image.RGBA, text string, x, y float64, c color.Color) {
	b := img.Bounds()
	w := textWidth(text)
	x = math.Max(float64(b.Min.X), math.Min(x, float64(b.Max.X)-w))
	y = math.Max(float64(b.Min.Y)+2*textHalfHeight(), math.Min(y, float64(b.Max.Y)))

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(int(x)), Y: fixed.I(int(y))},
	}
	d.DrawString(text)
}

// EncodePNG renders cats onto a fresh surface and writes it as PNG.
func EncodePNG(w io.Writer, cats []AggregatedCategory, o Options) ([]Slice, error) {
	img := NewSurface(o)
	slices, err := Render(img, cats, o)
	if err != nil {
		return nil, err
	}
	if err := png.Encode(w, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return slices, nil
}
