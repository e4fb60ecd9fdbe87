package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/packsmith/packsmith/internal/version"
)

// versionCmd definition
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the packsmith version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "packsmith %s %s/%s\n",
			version.BuildVersion(), runtime.GOOS, runtime.GOARCH)
	},
}

// GetVersionCmd exports the version command
func GetVersionCmd() *cobra.Command {
	return versionCmd
}
