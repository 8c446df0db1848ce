package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/prompt"
)

var promptFlags listingFlags

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the prompts sent to the model",
}

var promptTextCmd = &cobra.Command{
	Use:   "text",
	Short: "Print the description prompt",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := promptFlags.project(cmd.Context())
		if err != nil {
			return err
		}
		return printSpec(prompt.BuildTextPrompt(p, p.Locale))
	},
}

var promptImageCmd = &cobra.Command{
	Use:   "image",
	Short: "Print the render prompt",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := promptFlags.project(cmd.Context())
		if err != nil {
			return err
		}
		return printSpec(prompt.BuildImagePrompt(p, p.Style))
	},
}

func printSpec(spec prompt.Spec) error {
	if GetOutput() == "json" {
		return printJSON(spec)
	}
	fmt.Printf("# %s prompt\n", spec.Modality)
	if spec.System != "" {
		fmt.Printf("\n## system\n%s\n", spec.System)
	}
	fmt.Printf("\n## user\n%s\n", spec.User)
	if spec.ImageURL != "" {
		fmt.Printf("\n## reference image\n%s\n", truncate(string(spec.ImageURL), 120))
	}
	fmt.Println(strings.Repeat("-", 40))
	return nil
}

func init() {
	promptFlags.register(promptTextCmd)
	promptFlags.register(promptImageCmd)

	promptCmd.AddCommand(promptTextCmd)
	promptCmd.AddCommand(promptImageCmd)
	rootCmd.AddCommand(promptCmd)
}
