package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for archtree
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archtree",
		Short: "Tree-preserving 7-Zip backups with verification",
		Long: `Archtree reads a list of files and directories, archives them with
7-Zip while preserving full paths, and verifies that every expected
file actually made it into the archive.

Input lines starting with "!" are exclusion patterns (* and ?
wildcards). Missing files are re-added automatically until the archive
converges or the retry bound is reached.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	// Add subcommands
	cmd.AddCommand(NewBackupCommand())
	cmd.AddCommand(NewVerifyCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
