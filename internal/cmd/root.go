// Package cmd implements the dvc-matrix command line.
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dvc-matrix/dvc-matrix/internal/config"
	"github.com/dvc-matrix/dvc-matrix/internal/style"
	"github.com/dvc-matrix/dvc-matrix/internal/ui"
)

// Command group IDs shown in help output.
const (
	GroupPipeline = "pipeline"
	GroupDiag     = "diag"
)

var (
	rootDir     string
	rootTheme   string
	rootVerbose bool
)

// project is the state every command shares once the root pre-run has
// loaded configuration.
var project struct {
	cfg     *config.Config
	verbose bool
}

var rootCmd = &cobra.Command{
	Use:   "dvc-matrix",
	Short: "Expand matrix stages into a DVC pipeline",
	Long: `dvc-matrix expands the foreach-matrix declarations of dvc-matrix.yaml
into concrete foreach lists and writes the resulting dvc.yaml.

Run without a subcommand it behaves like 'generate'. Use 'status' to see
which expanded stages have run, changed, or never run.`,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadProject,
	RunE:              runGenerate,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupPipeline, Title: "Pipeline:"},
		&cobra.Group{ID: GroupDiag, Title: "Diagnostics:"},
	)
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "C", ".", "Project directory")
	rootCmd.PersistentFlags().StringVar(&rootTheme, "theme", "", "Color scheme: auto, dark or light")
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Enable debug logging")
	addGenerateFlags(rootCmd)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return exitCode(rootCmd.Execute(), os.Stderr)
}

// exitCode maps a command error to the process exit code, printing it to
// stderr unless it is a silent exit.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	if code, ok := IsSilentExit(err); ok {
		return code
	}
	fmt.Fprintf(stderr, "%s %v\n", style.ErrorPrefix, err)
	return 1
}

// loadProject resolves configuration for the project directory. Flags win
// over the environment, which wins over the project file.
func loadProject(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if rootTheme != "" {
		cfg.Theme = rootTheme
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("--theme: %w", err)
		}
	}

	ui.InitTheme(cfg.Theme)
	ui.ApplyThemeMode()

	project.cfg = cfg
	project.verbose = rootVerbose
	return nil
}

// projectPath resolves a configured path against the project directory.
func projectPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(rootDir, p)
}

// firstNonEmpty returns the first non-empty value.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
