package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/dvc-matrix/dvc-matrix/internal/util"
)

// Version information - set at build time via ldflags
var (
	Version = "0.3.0"
	// Build can be set via ldflags at compile time
	Build = "dev"
	// Commit and Branch - the git revision the binary was built from (optional ldflag)
	Commit = ""
	Branch = ""
)

var versionCmd = &cobra.Command{
	Use:     "version",
	GroupID: GroupDiag,
	Short:   "Print version information",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), versionString(resolveCommitHash(), resolveBranch()))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func versionString(commit, branch string) string {
	switch {
	case commit != "" && branch != "":
		return fmt.Sprintf("dvc-matrix version %s (%s: %s@%s)", Version, Build, branch, shortCommit(commit))
	case commit != "":
		return fmt.Sprintf("dvc-matrix version %s (%s: %s)", Version, Build, shortCommit(commit))
	}
	return fmt.Sprintf("dvc-matrix version %s (%s)", Version, Build)
}

func shortCommit(commit string) string {
	if len(commit) > 12 {
		return commit[:12]
	}
	return commit
}

func resolveCommitHash() string {
	if Commit != "" {
		return Commit
	}
	return buildSetting("vcs.revision")
}

func resolveBranch() string {
	if Branch != "" {
		return Branch
	}
	if branch := buildSetting("vcs.branch"); branch != "" {
		return branch
	}

	// Fallback: ask git at runtime
	if branch, err := util.ExecWithOutput(".", "git", "symbolic-ref", "--short", "HEAD"); err == nil && branch != "HEAD" {
		return branch
	}
	return ""
}

func buildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key && setting.Value != "" {
			return setting.Value
		}
	}
	return ""
}
