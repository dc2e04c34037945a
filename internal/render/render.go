// Package render draws the PNG cards attached to published notes, replies,
// and admin logs. Rendering is a pure function of its inputs.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/tbourn/go-tellonym/internal/domain"
)

// MaxRenderedComments caps how many comments a message card shows. Older
// comments stay recorded but are not drawn.
const MaxRenderedComments = 5

// ErrEmptyText is returned when a card would carry no text.
var ErrEmptyText = errors.New("render: empty text")

const (
	cardWidth   = 1400
	footerText  = "ANONYMOUS MESSAGING PLATFORM"
	brandText   = "TELLONYM"
	lineHeight  = 36
	maxBodyLine = 1160
)

type palette struct{ primary, accent color.RGBA }

var typePalettes = map[domain.MessageType]palette{
	domain.TypeQuestion:   {hex("#3498db"), hex("#1f618d")},
	domain.TypeCompliment: {hex("#2ecc71"), hex("#1e8449")},
	domain.TypeAdvice:     {hex("#f1c40f"), hex("#d35400")},
	domain.TypeConfession: {hex("#9b59b6"), hex("#6c3483")},
}

var fallbackPalette = palette{hex("#ff4081"), hex("#c2185b")}

var (
	navy      = hex("#0f3460")
	bgTop     = hex("#1a1a2e")
	bgBottom  = hex("#16213e")
	white     = hex("#ffffff")
	ink       = hex("#212529")
	muted     = hex("#6c757d")
	softInk   = hex("#495057")
	footerInk = hex("#a9bcd0")
	panelTop  = hex("#f8f9fa")
	panelBot  = hex("#e9ecef")
)

// Renderer holds parsed fonts. Faces are created per call, so a Renderer
// is safe for concurrent use.
type Renderer struct {
	regular *opentype.Font
	bold    *opentype.Font
}

// New parses the embedded Go fonts.
func New() (*Renderer, error) {
	reg, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &Renderer{regular: reg, bold: bold}, nil
}

type faces struct {
	brand, header, body, small, commentName, comment font.Face
}

func (r *Renderer) faces() (*faces, error) {
	mk := func(f *opentype.Font, size float64) (font.Face, error) {
		return opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	}
	var fs faces
	var err error
	if fs.brand, err = mk(r.bold, 24); err != nil {
		return nil, err
	}
	if fs.header, err = mk(r.bold, 32); err != nil {
		return nil, err
	}
	if fs.body, err = mk(r.regular, 26); err != nil {
		return nil, err
	}
	if fs.small, err = mk(r.regular, 16); err != nil {
		return nil, err
	}
	if fs.commentName, err = mk(r.bold, 20); err != nil {
		return nil, err
	}
	if fs.comment, err = mk(r.regular, 18); err != nil {
		return nil, err
	}
	return &fs, nil
}

func (fs *faces) Close() {
	for _, f := range []font.Face{fs.brand, fs.header, fs.body, fs.small, fs.commentName, fs.comment} {
		if f != nil {
			_ = f.Close()
		}
	}
}

// frame draws the background, brand bar, white panel, and footer shared by
// every card.
func frame(c *canvas, fs *faces, height int, accent, top, bottom color.RGBA) {
	c.vgradient(image.Rect(0, 0, cardWidth, height), top, bottom)
	c.fill(image.Rect(0, 0, cardWidth, 80), navy)
	c.circle(50, 40, 20, accent)
	c.text(fs.brand, brandText, 80, 48, white, alignLeft)
	c.roundRect(image.Rect(50, 120, 1350, height-50), white, 20, true, true)
	c.fill(image.Rect(0, height-40, cardWidth, height), navy)
	c.text(fs.small, footerText, cardWidth/2, height-14, footerInk, alignCenter)
}

func headerBand(c *canvas, fs *faces, title string, p palette) {
	c.hgradientTop(image.Rect(70, 140, 1330, 220), p.primary, p.accent, 15)
	c.text(fs.header, title, cardWidth/2, 192, white, alignCenter)
}

// body draws wrapped text inside the grey content box starting at y and
// returns the box bottom.
func body(c *canvas, fs *faces, text string, y, minHeight int) int {
	lines := wrap(fs.body, text, maxBodyLine)
	h := len(lines)*lineHeight + 60
	if h < minHeight {
		h = minHeight
	}
	box := image.Rect(90, y, 1310, y+h)
	c.vgradient(box, panelTop, panelBot)
	for i, ln := range lines {
		c.text(fs.body, ln, box.Min.X+30, box.Min.Y+50+i*lineHeight, ink, alignLeft)
	}
	return box.Max.Y
}

func encode(c *canvas) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, c.img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func bodyHeight(fs *faces, text string, minHeight int) int {
	h := len(wrap(fs.body, text, maxBodyLine))*lineHeight + 60
	if h < minHeight {
		return minHeight
	}
	return h
}

// MessageCard renders a published note with up to MaxRenderedComments
// comments. The header shows the total comment count.
func (r *Renderer) MessageCard(text, receiverName string, t domain.MessageType, comments []domain.Comment) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	fs, err := r.faces()
	if err != nil {
		return nil, err
	}
	defer fs.Close()

	p, ok := typePalettes[t]
	if !ok {
		p = fallbackPalette
	}
	shown := comments
	if len(shown) > MaxRenderedComments {
		shown = shown[:MaxRenderedComments]
	}

	const boxY = 250
	bh := bodyHeight(fs, text, 300)
	height := boxY + bh + 90 + 100
	if len(shown) > 0 {
		height += 130*len(shown) + 150
	}

	c := newCanvas(cardWidth, height)
	frame(c, fs, height, p.primary, bgTop, bgBottom)

	title := "ANONYMOUS MESSAGE"
	if t.Valid() {
		title = strings.ToUpper(string(t))
	}
	headerBand(c, fs, title, p)
	y := body(c, fs, text, boxY, 300)
	c.text(fs.body, "To: "+receiverName, 120, y+50, softInk, alignLeft)
	y += 90

	if len(shown) > 0 {
		y += 20
		c.roundRect(image.Rect(70, y, 1330, y+60), navy, 15, true, false)
		c.text(fs.brand, fmt.Sprintf("COMMENTS (%d)", len(comments)), 100, y+40, white, alignLeft)
		y += 100
		for i, cm := range shown {
			if i > 0 {
				c.fill(image.Rect(100, y-20, 1300, y-19), panelBot)
			}
			x := 130
			name := "Anonymous"
			nameCol := muted
			if cm.Mode == domain.ModeIdentified {
				c.circle(145, y-8, 22, panelBot)
				c.text(fs.commentName, initial(cm.AuthorName), 145, y, muted, alignCenter)
				x = 180
				name = cm.AuthorName
				nameCol = navy
			}
			c.text(fs.commentName, name, x, y, nameCol, alignLeft)
			for k, ln := range wrap(fs.comment, cm.Text, 1300-x-40) {
				if k >= 2 {
					break
				}
				c.text(fs.comment, ln, x, y+40+k*30, softInk, alignLeft)
			}
			y += 130
		}
	}
	return encode(c)
}

// ReplyCard renders a reply delivered privately to the original sender.
// The replier is shown by name with an initial badge.
func (r *Renderer) ReplyCard(text, replierName string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	fs, err := r.faces()
	if err != nil {
		return nil, err
	}
	defer fs.Close()

	green := palette{hex("#27ae60"), hex("#219653")}
	const boxY = 320
	height := boxY + bodyHeight(fs, text, 250) + 110
	if height < 700 {
		height = 700
	}

	c := newCanvas(cardWidth, height)
	frame(c, fs, height, green.primary, hex("#1a5d1a"), hex("#27ae60"))
	headerBand(c, fs, "NEW REPLY", green)

	c.circle(140, 268, 28, hex("#e8f5e9"))
	c.text(fs.commentName, initial(replierName), 140, 276, green.primary, alignCenter)
	c.text(fs.brand, "FROM: "+strings.ToUpper(replierName), 185, 277, green.primary, alignLeft)

	body(c, fs, text, boxY, 250)
	return encode(c)
}

// AdminCard renders the privileged log entry naming both parties.
func (r *Renderer) AdminCard(text string, sender, receiver domain.Profile) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	fs, err := r.faces()
	if err != nil {
		return nil, err
	}
	defer fs.Close()

	red := palette{hex("#e74c3c"), hex("#c0392b")}
	const boxY = 470
	height := boxY + bodyHeight(fs, text, 250) + 110

	c := newCanvas(cardWidth, height)
	frame(c, fs, height, red.primary, bgTop, bgBottom)
	headerBand(c, fs, "ADMIN LOG", red)

	party := func(cx int, p domain.Profile, role string) {
		c.circle(cx, 300, 50, panelBot)
		c.text(fs.header, initial(p.DisplayName), cx, 312, navy, alignCenter)
		c.text(fs.commentName, strings.ToUpper(p.DisplayName), cx, 385, ink, alignCenter)
		c.text(fs.comment, role+" "+p.ID, cx, 415, muted, alignCenter)
	}
	party(400, sender, "SENDER")
	c.text(fs.header, "->", cardWidth/2, 312, muted, alignCenter)
	party(1000, receiver, "RECEIVER")

	body(c, fs, text, boxY, 250)
	return encode(c)
}
