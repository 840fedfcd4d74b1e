package render

import (
	"image"
	"image/color"
	imagedraw "image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || maxWidth <= 0 || face == nil {
		return trimmed
	}

	drawer := font.Drawer{Face: face}
	if drawer.MeasureString(trimmed).Round() <= maxWidth {
		return trimmed
	}

	ellipsis := "..."
	if drawer.MeasureString(ellipsis).Round() > maxWidth {
		return ""
	}

	runes := []rune(trimmed)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}

func drawRoundedPanel(img *image.RGBA, rect image.Rectangle, radius int, clr color.Color) {
	if img == nil || rect.Empty() {
		return
	}
	if radius < 0 {
		radius = 0
	}
	maxRadius := rect.Dx() / 2
	if r := rect.Dy() / 2; r < maxRadius {
		maxRadius = r
	}
	if radius > maxRadius {
		radius = maxRadius
	}
	fill := image.NewUniform(clr)
	if radius == 0 {
		imagedraw.Draw(img, rect, fill, image.Point{}, imagedraw.Over)
		return
	}

	// cross of two rectangles, then the four corner discs
	vertical := image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y)
	imagedraw.Draw(img, vertical, fill, image.Point{}, imagedraw.Over)
	for _, side := range []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Min.X+radius, rect.Max.Y-radius),
		image.Rect(rect.Max.X-radius, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius),
	} {
		if side.Dx() > 0 && side.Dy() > 0 {
			imagedraw.Draw(img, side, fill, image.Point{}, imagedraw.Over)
		}
	}

	corners := []image.Point{
		{rect.Min.X + radius, rect.Min.Y + radius},
		{rect.Max.X - radius - 1, rect.Min.Y + radius},
		{rect.Min.X + radius, rect.Max.Y - radius - 1},
		{rect.Max.X - radius - 1, rect.Max.Y - radius - 1},
	}
	for _, center := range corners {
		drawQuarter(img, center, radius, rect, clr)
	}
}

// drawQuarter fills the part of a disc that lies outside the panel's cross so
// corner pixels are blended once.
func drawQuarter(img *image.RGBA, center image.Point, radius int, rect image.Rectangle, clr color.Color) {
	rSquared := radius * radius
	inner := image.Rect(rect.Min.X+radius, rect.Min.Y+radius, rect.Max.X-radius, rect.Max.Y-radius)
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y > rSquared {
				continue
			}
			p := image.Pt(center.X+x, center.Y+y)
			if !p.In(rect) {
				continue
			}
			if p.X >= inner.Min.X && p.X < inner.Max.X {
				continue
			}
			if p.Y >= inner.Min.Y && p.Y < inner.Max.Y {
				continue
			}
			blendPixel(img, p.X, p.Y, clr)
		}
	}
}

func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if img == nil {
		return
	}
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	imagedraw.Draw(img, image.Rect(x, y, x+1, y+1), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawString(drawer *font.Drawer, x, baseline int, text string, clr color.Color) int {
	if drawer == nil || text == "" {
		return x
	}
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
	return drawer.Dot.X.Round()
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	if drawer == nil {
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	x := rect.Min.X + (rect.Dx()-width)/2
	if x < rect.Min.X {
		x = rect.Min.X
	}
	drawString(drawer, x, baselineIn(drawer.Face, rect), text, clr)
}

func baselineIn(face font.Face, rect image.Rectangle) int {
	m := face.Metrics()
	return rect.Min.Y + (rect.Dy()+m.Ascent.Ceil()-m.Descent.Ceil())/2
}

func drawIcon(dst *image.RGBA, icon image.Image, at image.Point) {
	if icon == nil {
		return
	}
	b := icon.Bounds()
	imagedraw.Draw(dst, image.Rect(at.X, at.Y, at.X+b.Dx(), at.Y+b.Dy()), icon, b.Min, imagedraw.Over)
}
