package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Release builds set this with
// -ldflags "-X github.com/spigell/career-advisor/cmd.version=<tag>".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the client version and the advisor backend it talks to",
	Run: func(cmd *cobra.Command, _ []string) {
		printVersion(cmd.OutOrStdout(), viper.GetString("backend.url"))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func printVersion(w io.Writer, backend string) {
	fmt.Fprintf(w, "%s %s (backend %s)\n", app, version, backend)
}
