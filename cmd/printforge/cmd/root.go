package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"printforge/cmd/printforge/cmd/convert"
	"printforge/cmd/printforge/cmd/export"
	"printforge/cmd/printforge/cmd/serve"
	"printforge/cmd/printforge/cmd/version"
)

var Verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "printforge",
	Short: "Convert images to printable 3D models and drive them through a print service",
	Long: `Convert images to printable 3D models and drive them through a print service.

- serve runs the API with the conversion orchestrator and status synchronizer
- convert batch-converts a directory of images from the command line
- export writes conversion or print job history to csv/json/xlsx`,
	TraverseChildren: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(convert.Cmd)
	rootCmd.AddCommand(export.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "V", false, "verbose output")
}
