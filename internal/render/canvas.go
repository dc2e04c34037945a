package render

import (
	"image"
	"image/color"
	"image/draw"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

func hex(s string) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	var v [3]uint8
	for i := 0; i < 3 && len(s) >= 2*(i+1); i++ {
		v[i] = hexByte(s[2*i])<<4 | hexByte(s[2*i+1])
	}
	return color.RGBA{R: v[0], G: v[1], B: v[2], A: 0xff}
}

func hexByte(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t) }
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 0xff}
}

type canvas struct {
	img *image.RGBA
}

func newCanvas(w, h int) *canvas {
	return &canvas{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

func (c *canvas) fill(r image.Rectangle, col color.Color) {
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Src)
}

// vgradient fills r with a top-to-bottom gradient.
func (c *canvas) vgradient(r image.Rectangle, from, to color.RGBA) {
	h := r.Dy()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		t := 0.0
		if h > 1 {
			t = float64(y-r.Min.Y) / float64(h-1)
		}
		c.fill(image.Rect(r.Min.X, y, r.Max.X, y+1), lerp(from, to, t))
	}
}

// hgradient fills r with a left-to-right gradient, clipped to rounded
// top corners of radius rad.
func (c *canvas) hgradientTop(r image.Rectangle, from, to color.RGBA, rad int) {
	w := r.Dx()
	for x := r.Min.X; x < r.Max.X; x++ {
		t := 0.0
		if w > 1 {
			t = float64(x-r.Min.X) / float64(w-1)
		}
		col := lerp(from, to, t)
		for y := r.Min.Y; y < r.Max.Y; y++ {
			if insideRounded(r, x, y, rad, true, false) {
				c.img.SetRGBA(x, y, col)
			}
		}
	}
}

// roundRect fills r with col, rounding the selected corners.
func (c *canvas) roundRect(r image.Rectangle, col color.RGBA, rad int, top, bottom bool) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if insideRounded(r, x, y, rad, top, bottom) {
				c.img.SetRGBA(x, y, col)
			}
		}
	}
}

func insideRounded(r image.Rectangle, x, y, rad int, top, bottom bool) bool {
	if rad <= 0 {
		return true
	}
	var cx, cy int
	switch {
	case top && y < r.Min.Y+rad && x < r.Min.X+rad:
		cx, cy = r.Min.X+rad, r.Min.Y+rad
	case top && y < r.Min.Y+rad && x >= r.Max.X-rad:
		cx, cy = r.Max.X-rad-1, r.Min.Y+rad
	case bottom && y >= r.Max.Y-rad && x < r.Min.X+rad:
		cx, cy = r.Min.X+rad, r.Max.Y-rad-1
	case bottom && y >= r.Max.Y-rad && x >= r.Max.X-rad:
		cx, cy = r.Max.X-rad-1, r.Max.Y-rad-1
	default:
		return true
	}
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= rad*rad
}

// circle fills a disc centred at (cx, cy).
func (c *canvas) circle(cx, cy, rad int, col color.RGBA) {
	for y := cy - rad; y <= cy+rad; y++ {
		for x := cx - rad; x <= cx+rad; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= rad*rad {
				c.img.SetRGBA(x, y, col)
			}
		}
	}
}

type align int

const (
	alignLeft align = iota
	alignCenter
)

// text draws s with its baseline at y.
func (c *canvas) text(face font.Face, s string, x, y int, col color.Color, a align) {
	d := &font.Drawer{Dst: c.img, Src: image.NewUniform(col), Face: face}
	if a == alignCenter {
		x -= d.MeasureString(s).Ceil() / 2
	}
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

// wrap splits s into lines no wider than maxW, breaking words that do not
// fit on a line of their own. Explicit newlines are preserved.
func wrap(face font.Face, s string, maxW int) []string {
	var out []string
	for _, para := range strings.Split(s, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			cand := word
			if line != "" {
				cand = line + " " + word
			}
			if font.MeasureString(face, cand).Ceil() <= maxW {
				line = cand
				continue
			}
			if line != "" {
				out = append(out, line)
				line = ""
			}
			for font.MeasureString(face, word).Ceil() > maxW && utf8.RuneCountInString(word) > 1 {
				head, rest := splitToWidth(face, word, maxW)
				out = append(out, head)
				word = rest
			}
			line = word
		}
		out = append(out, line)
	}
	return out
}

func splitToWidth(face font.Face, word string, maxW int) (string, string) {
	end := 0
	for i, r := range word {
		next := i + utf8.RuneLen(r)
		if font.MeasureString(face, word[:next]).Ceil() > maxW {
			break
		}
		end = next
	}
	if end == 0 {
		_, size := utf8.DecodeRuneInString(word)
		end = size
	}
	return word[:end], word[end:]
}

func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if r == utf8.RuneError {
		return "?"
	}
	return strings.ToUpper(string(r))
}
