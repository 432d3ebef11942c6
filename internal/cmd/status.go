package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dvc-matrix/dvc-matrix/internal/dvc"
	"github.com/dvc-matrix/dvc-matrix/internal/matrix"
	"github.com/dvc-matrix/dvc-matrix/internal/reconcile"
	"github.com/dvc-matrix/dvc-matrix/internal/style"
	"github.com/dvc-matrix/dvc-matrix/internal/suggest"
	"github.com/dvc-matrix/dvc-matrix/internal/template"
	"github.com/dvc-matrix/dvc-matrix/internal/ui"
	"github.com/dvc-matrix/dvc-matrix/internal/util"
)

var (
	statusJSON       bool
	statusKey        string
	statusStatusFile string
	statusShowCmd    bool
	statusExitCode   bool
)

var statusCmd = &cobra.Command{
	Use:     "status [stage...]",
	GroupID: GroupDiag,
	Short:   "Show the state of every expanded stage",
	Long: `Reconcile the matrix file, dvc.yaml, dvc.lock and 'dvc status --json'
into one record per expanded stage instance.

Stages that never ran are reported as "not run" with the parameters of
their combination. Stages recorded in dvc.lock get their parameters back
by matching the recorded command (or outputs, with --key outs) against
the stage template.

Arguments select stage base names (train) or single instances (train@3).

Examples:
  dvc-matrix status
  dvc-matrix status train --cmd
  dvc-matrix status --json --key outs
  dvc-matrix status --status-file status.json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	statusCmd.Flags().StringVar(&statusKey, "key", "", "Recover parameters from cmd or outs (default from config)")
	statusCmd.Flags().StringVar(&statusStatusFile, "status-file", "", "Read 'dvc status --json' output from a file instead of running dvc")
	statusCmd.Flags().BoolVar(&statusShowCmd, "cmd", false, "Show the command of every stage")
	statusCmd.Flags().BoolVar(&statusExitCode, "exit-code", false, "Exit 1 when any stage has changed or not run")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := project.cfg
	logger := commandLogger(cmd)
	out := cmd.OutOrStdout()

	key, err := reconcile.ParseKey(firstNonEmpty(statusKey, cfg.Key))
	if err != nil {
		return fmt.Errorf("--key: %w", err)
	}

	in, err := loadInputs(logger)
	if err != nil {
		return err
	}
	if in.Matrix == nil && in.Pipeline == nil {
		style.FprintWarning(out, "No matrix file found at %s", projectPath(cfg.Matrix))
		return nil
	}
	in.Key = key

	r := reconcile.New(logger)
	var groups []reconcile.StageGroup
	if len(args) == 0 {
		groups = r.ReconcileAll(in)
	} else {
		groups = selectStages(r, in, args, logger)
	}

	records := reconcile.Flatten(groups)
	if statusJSON {
		if records == nil {
			records = []reconcile.StageRecord{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return err
		}
	} else {
		printStatus(out, groups, statusShowCmd)
	}

	if statusExitCode {
		for _, rec := range records {
			if rec.Status != reconcile.StatusOK {
				return NewSilentExit(1)
			}
		}
	}
	return nil
}

// loadInputs reads every snapshot the reconciler needs. A missing matrix
// or pipeline file leaves that document nil.
func loadInputs(logger *slog.Logger) (reconcile.Inputs, error) {
	cfg := project.cfg
	var in reconcile.Inputs

	var err error
	if in.Matrix, err = loadOptionalDocument(cfg.Matrix, logger); err != nil {
		return in, err
	}
	if in.Pipeline, err = loadOptionalDocument(cfg.Pipeline, logger); err != nil {
		return in, err
	}
	if in.Lock, err = dvc.LoadLock(projectPath(cfg.Lock)); err != nil {
		return in, err
	}
	if in.Status, err = loadStatus(logger); err != nil {
		return in, err
	}
	return in, nil
}

func loadOptionalDocument(path string, logger *slog.Logger) (*dvc.Document, error) {
	doc, err := dvc.LoadDocument(projectPath(path))
	if errors.Is(err, dvc.ErrSourceNotFound) {
		logger.Debug("document not found", "path", projectPath(path))
		return nil, nil
	}
	return doc, err
}

// loadStatus reads the external status map from --status-file, or runs
// dvc. A failing dvc is reported and treated as "nothing changed".
func loadStatus(logger *slog.Logger) (dvc.Status, error) {
	if statusStatusFile != "" {
		data, err := os.ReadFile(statusStatusFile)
		if err != nil {
			return nil, fmt.Errorf("reading status file: %w", err)
		}
		return parseStatusOutput(data)
	}

	output, err := util.ExecWithOutput(rootDir, project.cfg.DVC, "status", "--json")
	if err != nil {
		logger.Warn("dvc status failed, assuming no changes", "error", err)
		return dvc.Status{}, nil
	}
	status, err := parseStatusOutput([]byte(output))
	if err != nil {
		logger.Warn("ignoring unreadable dvc status output", "error", err)
		return dvc.Status{}, nil
	}
	return status, nil
}

func parseStatusOutput(data []byte) (dvc.Status, error) {
	if strings.TrimSpace(string(data)) == "" {
		return dvc.Status{}, nil
	}
	return dvc.ParseStatus(data)
}

// selectStages reconciles the named stages. A name with an @index selects
// one instance of its base.
func selectStages(r *reconcile.Reconciler, in reconcile.Inputs, names []string, logger *slog.Logger) []reconcile.StageGroup {
	var groups []reconcile.StageGroup
	for _, name := range names {
		base := name
		instance := ""
		if b, _, ok := matrix.SplitStageName(name); ok {
			base, instance = b, name
		}

		records := r.Reconcile(base, in)
		if instance != "" {
			var picked []reconcile.StageRecord
			for _, rec := range records {
				if rec.Name == instance {
					picked = append(picked, rec)
				}
			}
			records = picked
		}
		if len(records) == 0 {
			logger.Warn("no stage instances found", "stage", name,
				"hint", suggest.Hint(suggest.FindSimilar(base, knownStages(in), 3)))
			continue
		}
		groups = append(groups, reconcile.StageGroup{Base: base, Records: records})
	}
	return groups
}

// knownStages lists the declared stage base names of both documents.
func knownStages(in reconcile.Inputs) []string {
	seen := make(map[string]bool)
	var names []string
	for _, doc := range []*dvc.Document{in.Pipeline, in.Matrix} {
		for _, name := range doc.StageNames() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// printStatus renders one table per stage base, followed by a summary.
func printStatus(w io.Writer, groups []reconcile.StageGroup, showCmd bool) {
	if len(groups) == 0 {
		fmt.Fprintln(w, style.Dim.Render("No stages"))
		return
	}

	counts := make(map[string]int)
	total := 0
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, style.Bold.Render(g.Base))
		fmt.Fprint(w, stageTable(g.Records).Render())

		for _, rec := range g.Records {
			total++
			counts[summaryBucket(rec.Status)]++
		}
		if showCmd {
			printCommands(w, g.Records)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, style.Dim.Render(fmt.Sprintf("%d stages: %d ok, %d changed, %d not run",
		total, counts[reconcile.StatusOK], counts[reconcile.StatusChanged], counts[reconcile.StatusNotRun])))
}

// stageTable builds the table for one group. Parameter columns follow
// the order parameters first appear in the records.
func stageTable(records []reconcile.StageRecord) *style.Table {
	var params []string
	seen := make(map[string]bool)
	for _, rec := range records {
		for _, b := range rec.Params {
			if !seen[b.Name] {
				seen[b.Name] = true
				params = append(params, b.Name)
			}
		}
	}

	columns := []style.Column{{Name: "STAGE"}}
	for _, p := range params {
		columns = append(columns, style.Column{Name: strings.ToUpper(p), MaxWidth: 24})
	}
	columns = append(columns, style.Column{Name: "STATUS"})
	statusCol := len(columns) - 1

	tbl := style.NewTable(columns...)
	tbl.SetCellStyler(func(row, col int, value string) (lipgloss.Style, bool) {
		if col != statusCol {
			return lipgloss.Style{}, false
		}
		return ui.StageStatusStyle(value), true
	})

	for _, rec := range records {
		row := []string{rec.Name}
		for _, p := range params {
			v, _ := rec.Params.Get(p)
			row = append(row, v)
		}
		row = append(row, rec.Status)
		tbl.AddRow(row...)
	}
	return tbl
}

// printCommands lists the commands of records in display form.
func printCommands(w io.Writer, records []reconcile.StageRecord) {
	for _, rec := range records {
		if rec.Cmd == "" {
			continue
		}
		fmt.Fprintf(w, "  %s %s\n", style.ArrowPrefix, ui.RenderCommand(rec.Name))
		for _, line := range strings.Split(template.Display(rec.Cmd), "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
}

// summaryBucket folds a status into ok, changed or not run.
func summaryBucket(status string) string {
	switch {
	case status == reconcile.StatusNotRun:
		return reconcile.StatusNotRun
	case strings.HasPrefix(status, reconcile.StatusChanged):
		return reconcile.StatusChanged
	}
	return reconcile.StatusOK
}
