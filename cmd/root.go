package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/schemadiff/schemadiff/cmd/diff"
	"github.com/schemadiff/schemadiff/cmd/inspect"
	"github.com/schemadiff/schemadiff/cmd/util"
	"github.com/schemadiff/schemadiff/internal/logger"
	"github.com/schemadiff/schemadiff/internal/version"
	"github.com/spf13/cobra"
)

var Debug bool

var RootCmd = &cobra.Command{
	Use:   "schemadiff",
	Short: "Database schema comparison tool",
	Long: fmt.Sprintf(`schemadiff compares two database schemas and reports the entities that were
added, removed, modified or renamed.

Version: %s@%s %s %s

Commands:
  diff     Compare two schemas
  inspect  Print the schema model of one source

Use "schemadiff [command] --help" for more information about a command.`,
		version.App(), version.GetGitCommit(), version.Platform(), version.GetBuildDate()),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "Enable debug logging")
	RootCmd.PersistentFlags().StringVar(&util.ConfigFile, "config", "", "Config file (default is ./schemadiff.yaml)")
	RootCmd.AddCommand(diff.DiffCmd)
	RootCmd.AddCommand(inspect.InspectCmd)
	RootCmd.AddCommand(VersionCmd)
}

func setupLogger() {
	logger.Setup(os.Stderr, Debug, os.Getenv("SCHEMADIFF_LOG_FORMAT"))
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		if errors.Is(err, diff.ErrChangesDetected) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
