package render

import (
	"bytes"
	"image/color"
	"image/png"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFontSize(t *testing.T) {
	tests := []struct {
		word string
		want int
	}{
		{"a", MaxFontSize},
		{"vex", MaxFontSize},
		{"serendipity", 81},
		{"pneumonoultramicroscopicsilicovolcanoconiosis", MinFontSize},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, FontSize(tt.word))
		})
	}
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#1a1a2e")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x1a, G: 0x1a, B: 0x2e, A: 0xff}, c)

	c, err = ParseHex("#fff")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, c)

	_, err = ParseHex("white")
	assert.Error(t, err)
}

func TestEveryDesignRenders(t *testing.T) {
	r, err := New(rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)

	for _, d := range Designs {
		t.Run(d.Name, func(t *testing.T) {
			img, err := r.RenderWith(d, "ephemeral", "@wordbot")
			require.NoError(t, err)
			assert.Equal(t, d.Name, img.Design)

			decoded, err := png.Decode(bytes.NewReader(img.PNG))
			require.NoError(t, err)
			assert.Equal(t, Width, decoded.Bounds().Dx())
			assert.Equal(t, Height, decoded.Bounds().Dy())
		})
	}
}

func TestRenderPicksCatalogueDesign(t *testing.T) {
	r, err := New(rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)

	img, err := r.Render("zephyr", "")
	require.NoError(t, err)
	_, ok := DesignByName(img.Design)
	assert.True(t, ok)
}

func TestRenderRejectsEmptyWord(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)
	_, err = r.RenderWith(Designs[0], " ", "")
	assert.Error(t, err)
}

func TestDesignCatalogueColoursParse(t *testing.T) {
	for _, d := range Designs {
		for _, hex := range []string{d.GradientFrom, d.GradientTo, d.Glow} {
			_, err := ParseHex(hex)
			assert.NoError(t, err, "design %s colour %s", d.Name, hex)
		}
	}
}
