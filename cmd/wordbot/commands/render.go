package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/wordbot/internal/render"
	"github.com/Adithya-Monish-Kumar-K/wordbot/pkg/config"
)

var (
	renderOut       string
	renderDesign    string
	renderWatermark string
)

var renderCmd = &cobra.Command{
	Use:   "render WORD",
	Short: "Render a word image to a PNG file without posting",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output file (default WORD.png)")
	renderCmd.Flags().StringVar(&renderDesign, "design", "", "design name (default random)")
	renderCmd.Flags().StringVar(&renderWatermark, "watermark", "", "attribution text (default from config)")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	word := corpus.Normalize(args[0])
	watermark := renderWatermark
	if watermark == "" {
		watermark = cfg.Publisher.Watermark
	}
	out := renderOut
	if out == "" {
		out = word + ".png"
	}

	r, err := render.New(nil)
	if err != nil {
		return err
	}
	var img *render.Image
	if renderDesign != "" {
		d, ok := render.DesignByName(renderDesign)
		if !ok {
			return fmt.Errorf("unknown design %q", renderDesign)
		}
		img, err = r.RenderWith(d, word, watermark)
	} else {
		img, err = r.Render(word, watermark)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, img.PNG, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s, %dx%d)\n", out, img.Design, img.Width, img.Height)
	return nil
}
