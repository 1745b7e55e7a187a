package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kbbridge",
	Short: "Cool Shop Knowledge Hub bridge for Ada",
	Long:  `kbbridge installs the Cool Shop Knowledge Hub into Ada bots over OAuth and removes it again when Ada sends a signed uninstall.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
