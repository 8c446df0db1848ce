package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/fallback"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/generation"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/lifecycle"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/remote"
)

var (
	previewFlags   listingFlags
	previewOffline bool
	previewOut     string
	previewModel   string
	previewTimeout time.Duration
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Generate an artifact without a server",
	Long: `Generate a description or render the way the server would, without
storing it. The remote model is used when OPENROUTER_API_KEY is set;
otherwise, or with --offline, the local placeholder is shown.

Examples:
  estatectl preview text --location "Business Bay" --bedrooms 1 --locale en
  estatectl preview render --id 3f1c... --style arabic --out render.svg`,
}

var previewTextCmd = &cobra.Command{
	Use:   "text",
	Short: "Preview a description",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := runPreview(cmd.Context(), models.KindText)
		if err != nil {
			return err
		}
		if GetOutput() == "json" {
			return printJSON(a)
		}
		PrintVerbose("provenance: %s %s", a.Provenance, a.FallbackReason)
		fmt.Println(a.Value)
		return nil
	},
}

var previewRenderCmd = &cobra.Command{
	Use:   "render",
	Short: "Preview a render",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := runPreview(cmd.Context(), models.KindRender)
		if err != nil {
			return err
		}
		if previewOut != "" && a.Provenance == models.ProvenanceFallback {
			if err := os.WriteFile(previewOut, []byte(fallback.SVG(a.Style)), 0o644); err != nil {
				return fmt.Errorf("write render: %w", err)
			}
			fmt.Printf("Placeholder render written to %s\n", previewOut)
			return nil
		}
		if GetOutput() == "json" {
			return printJSON(a)
		}
		fmt.Println(a.Value)
		return nil
	},
}

// runPreview generates through an in-memory store, so the remote call,
// fallback and provenance match what the server would commit.
func runPreview(ctx context.Context, kind models.ArtifactKind) (models.Artifact, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := previewFlags.project(ctx)
	if err != nil {
		return models.Artifact{}, err
	}

	apiKey := os.Getenv("OPENROUTER_API_KEY")
	if previewOffline {
		apiKey = ""
	}
	remoteCfg := remote.Config{APIKey: apiKey, Timeout: previewTimeout}
	if kind == models.KindText {
		remoteCfg.TextModel = previewModel
	} else {
		remoteCfg.ImageModel = previewModel
	}
	client := remote.NewClient(remoteCfg)

	store := lifecycle.NewStore()
	created := store.Create(p.Attributes, p.Style, p.Locale)
	PrintVerbose("generating %s (remote configured: %t)", kind, client.Configured())

	return generation.New(store, client, generation.Config{}).
		Generate(ctx, created.ID, kind, generation.Options{})
}

func init() {
	for _, c := range []*cobra.Command{previewTextCmd, previewRenderCmd} {
		previewFlags.register(c)
		c.Flags().BoolVar(&previewOffline, "offline", false, "skip the remote model")
		c.Flags().StringVar(&previewModel, "model", "", "override the model")
		c.Flags().DurationVar(&previewTimeout, "timeout", 90*time.Second, "remote request timeout")
	}
	previewRenderCmd.Flags().StringVar(&previewOut, "out", "", "write a placeholder render to this SVG file")

	previewCmd.AddCommand(previewTextCmd)
	previewCmd.AddCommand(previewRenderCmd)
	rootCmd.AddCommand(previewCmd)
}
