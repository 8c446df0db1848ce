package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dumitrugolubov/dubai-estate-ai/pkg/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit, and build time of estatectl.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if GetOutput() == "json" {
			return printJSON(config.GetBuildInfo())
		}
		fmt.Println(config.VersionString("estatectl"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
