package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dvc-matrix/dvc-matrix/internal/dvc"
	"github.com/dvc-matrix/dvc-matrix/internal/materialize"
	"github.com/dvc-matrix/dvc-matrix/internal/style"
)

var (
	generateFile   string
	generateOutput string
)

var generateCmd = &cobra.Command{
	Use:     "generate",
	GroupID: GroupPipeline,
	Short:   "Write dvc.yaml from the matrix file (default)",
	Long: `Materialize the matrix file into a DVC pipeline.

Every stage with a foreach-matrix mapping gets a foreach list holding the
cross product of its parameter lists. Stages without one are copied as-is.
The output is written atomically while holding <output>.lock.

Examples:
  dvc-matrix generate
  dvc-matrix generate -f experiments.yaml -o dvc.yaml`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	addGenerateFlags(generateCmd)
	rootCmd.AddCommand(generateCmd)
}

// addGenerateFlags registers the generate flags on c. The root command
// shares them because it materializes by default.
func addGenerateFlags(c *cobra.Command) {
	c.Flags().StringVarP(&generateFile, "file", "f", "", "Path to matrix file (default from config)")
	c.Flags().StringVarP(&generateOutput, "output", "o", "", "Path to output file (default from config)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := project.cfg
	src := projectPath(firstNonEmpty(generateFile, cfg.Matrix))
	dst := projectPath(firstNonEmpty(generateOutput, cfg.Output))
	out := cmd.OutOrStdout()

	result, err := materialize.File(src, dst, cfg.LockTimeout.Duration)
	if errors.Is(err, dvc.ErrSourceNotFound) {
		style.FprintWarning(out, "No matrix file found at %s", src)
		return nil
	}
	if err != nil {
		return err
	}

	logger := commandLogger(cmd)
	for _, sc := range result.Expanded {
		logger.Debug("expanded stage", "stage", sc.Stage, "instances", sc.Instances)
	}
	style.FprintSuccess(out, "Wrote %s: %d instances from %d matrix stages",
		dst, result.Total(), len(result.Expanded))
	return nil
}
