// Package render draws a word onto an 800x800 decorative PNG: a diagonal
// gradient, a few faint shapes, the word in a glowing bold face and a small
// watermark along the bottom edge.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	Width         = 800
	Height        = 800
	MinFontSize   = 32
	MaxFontSize   = 200
	Padding       = 40
	watermarkSize = 14
)

// Image is a rendered PNG and the design used for it.
type Image struct {
	PNG    []byte
	Design string
	Width  int
	Height int
}

// Renderer draws word images. It is safe for concurrent use.
type Renderer struct {
	bold    *truetype.Font
	regular *truetype.Font

	mu    sync.Mutex
	rng   *rand.Rand
	faces map[faceKey]font.Face
}

type faceKey struct {
	bold bool
	size float64
}

// New parses the embedded Go fonts. A nil rng selects a randomly seeded
// source for design choice.
func New(rng *rand.Rand) (*Renderer, error) {
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing bold font: %w", err)
	}
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing regular font: %w", err)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Renderer{
		bold:    bold,
		regular: regular,
		rng:     rng,
		faces:   make(map[faceKey]font.Face),
	}, nil
}

// Render draws word with a randomly chosen design.
func (r *Renderer) Render(word, watermark string) (*Image, error) {
	r.mu.Lock()
	design := Designs[r.rng.IntN(len(Designs))]
	r.mu.Unlock()
	return r.RenderWith(design, word, watermark)
}

// RenderWith draws word with a specific design.
func (r *Renderer) RenderWith(design Design, word, watermark string) (*Image, error) {
	if strings.TrimSpace(word) == "" {
		return nil, fmt.Errorf("cannot render an empty word")
	}
	from, err := ParseHex(design.GradientFrom)
	if err != nil {
		return nil, fmt.Errorf("design %s: %w", design.Name, err)
	}
	to, err := ParseHex(design.GradientTo)
	if err != nil {
		return nil, fmt.Errorf("design %s: %w", design.Name, err)
	}
	glow, err := ParseHex(design.Glow)
	if err != nil {
		return nil, fmt.Errorf("design %s: %w", design.Name, err)
	}

	dc := gg.NewContext(Width, Height)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	grad := gg.NewLinearGradient(0, 0, Width, Height)
	grad.AddColorStop(0, from)
	grad.AddColorStop(1, to)
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, Width, Height)
	dc.Fill()

	for _, el := range design.Decorations {
		drawElement(dc, el)
	}

	size := r.fitFontSize(word)
	dc.SetFontFace(r.face(true, size))
	drawGlow(dc, word, glow, design.GlowStrength)
	dc.SetColor(glow)
	dc.DrawStringAnchored(word, Width/2, Height/2, 0.5, 0.35)

	if watermark != "" {
		dc.SetFontFace(r.face(false, watermarkSize))
		dc.SetRGBA(1, 1, 1, 0.5)
		dc.DrawStringAnchored(watermark, Width/2, Height-20, 0.5, 0)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return &Image{PNG: buf.Bytes(), Design: design.Name, Width: Width, Height: Height}, nil
}

// FontSize is the starting point size for word: the width left after padding
// divided by an average glyph advance of 0.8em, clamped to
// [MinFontSize, MaxFontSize].
func FontSize(word string) int {
	n := utf8.RuneCountInString(word)
	if n == 0 {
		return MaxFontSize
	}
	size := int(math.Floor(float64(Width-2*Padding) / (float64(n) * 0.8)))
	return max(MinFontSize, min(MaxFontSize, size))
}

// fitFontSize starts at FontSize and shrinks while the measured word is
// wider than the padded canvas.
func (r *Renderer) fitFontSize(word string) float64 {
	size := float64(FontSize(word))
	for size > MinFontSize {
		w, _ := measure(r.face(true, size), word)
		if w <= Width-2*Padding {
			break
		}
		size -= 4
	}
	return max(size, MinFontSize)
}

func (r *Renderer) face(bold bool, size float64) font.Face {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := faceKey{bold: bold, size: size}
	if f, ok := r.faces[key]; ok {
		return f
	}
	ttf := r.regular
	if bold {
		ttf = r.bold
	}
	f := truetype.NewFace(ttf, &truetype.Options{Size: size, Hinting: font.HintingFull})
	r.faces[key] = f
	return f
}

func measure(face font.Face, s string) (float64, float64) {
	dc := gg.NewContext(1, 1)
	dc.SetFontFace(face)
	return dc.MeasureString(s)
}

// drawGlow approximates a gaussian glow by stamping the word in rings of
// translucent copies around its final position.
func drawGlow(dc *gg.Context, word string, glow color.Color, strength float64) {
	r, g, b, _ := glow.RGBA()
	for radius := strength; radius >= 1; radius-- {
		dc.SetRGBA(float64(r)/0xffff, float64(g)/0xffff, float64(b)/0xffff, 0.08)
		for i := range 8 {
			angle := float64(i) * math.Pi / 4
			dc.DrawStringAnchored(word, Width/2+radius*math.Cos(angle), Height/2+radius*math.Sin(angle), 0.5, 0.35)
		}
	}
}

// ParseHex parses #rgb or #rrggbb.
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
