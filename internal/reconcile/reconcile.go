// Package reconcile merges the matrix declaration, the rendered pipeline,
// the lock file and the external status into one status record per stage
// instance.
//
// Each stage base name resolves to exactly one source. When dvc.lock holds
// entries for it the records are recovered from what actually ran;
// otherwise they come from expanding the declaration and are all "not run".
package reconcile

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dvc-matrix/dvc-matrix/internal/dvc"
	"github.com/dvc-matrix/dvc-matrix/internal/matrix"
	"github.com/dvc-matrix/dvc-matrix/internal/template"
)

// ErrMalformedStageDeclaration is reported for a recorded stage whose
// declaration lacks the template section needed to recover parameters.
var ErrMalformedStageDeclaration = errors.New("stage declaration has no template section")

// Key selects which recorded value parameters are recovered from.
type Key string

const (
	// KeyCmd inverts do.cmd against the recorded cmd.
	KeyCmd Key = "cmd"
	// KeyOuts inverts do.outs against the recorded output paths.
	KeyOuts Key = "outs"
)

// ParseKey validates a key name. The empty string selects KeyCmd.
func ParseKey(s string) (Key, error) {
	switch Key(s) {
	case "", KeyCmd:
		return KeyCmd, nil
	case KeyOuts:
		return KeyOuts, nil
	}
	return "", fmt.Errorf("unknown key %q (want %q or %q)", s, KeyCmd, KeyOuts)
}

// Inputs are the snapshots one reconciliation pass reads. Any document
// may be nil.
type Inputs struct {
	Matrix   *dvc.Document
	Pipeline *dvc.Document
	Lock     *dvc.LockDocument
	Status   dvc.Status
	Key      Key
}

// Reconciler produces stage records. Per-stage problems are logged and
// never abort a pass.
type Reconciler struct {
	logger *slog.Logger
}

// New creates a Reconciler. A nil logger discards diagnostics.
func New(logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reconciler{logger: logger}
}

// source is where the records of one base name come from.
type source interface {
	records(r *Reconciler, base string, in Inputs) []StageRecord
}

// resolve picks the source for base once, from data availability alone.
func (r *Reconciler) resolve(base string, in Inputs) source {
	if entries := in.Lock.Entries(base); len(entries) > 0 {
		return recordedSource{entries: entries}
	}
	return declaredSource{}
}

// Reconcile returns the records of one stage base name.
func (r *Reconciler) Reconcile(base string, in Inputs) []StageRecord {
	records := r.resolve(base, in).records(r, base, in)
	for _, record := range records {
		for _, b := range record.Params {
			if dvc.IsReservedParameter(b.Name) {
				r.logger.Warn("parameter left out of json output", "stage", record.Name, "param", b.Name)
			}
		}
	}
	return records
}

// ReconcileAll reconciles every stage base name: pipeline stages in
// document order, then stages declared only in the matrix document.
// Base names without records are omitted.
func (r *Reconciler) ReconcileAll(in Inputs) []StageGroup {
	var groups []StageGroup
	for _, base := range stageNames(in) {
		records := r.Reconcile(base, in)
		if len(records) == 0 {
			continue
		}
		groups = append(groups, StageGroup{Base: base, Records: records})
	}
	return groups
}

func stageNames(in Inputs) []string {
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

// declaration finds the stage in the first document that has it.
func declaration(name string, docs ...*dvc.Document) (*dvc.Stage, *dvc.Document) {
	for _, doc := range docs {
		if stage, ok := doc.Stage(name); ok {
			return stage, doc
		}
	}
	return nil, nil
}

// declaredSource expands the declaration; nothing has run yet.
type declaredSource struct{}

func (declaredSource) records(r *Reconciler, base string, in Inputs) []StageRecord {
	stage, doc := declaration(base, in.Matrix, in.Pipeline)
	if stage == nil {
		return nil
	}

	globals := doc.Vars
	if in.Matrix != nil {
		globals = in.Matrix.Vars
	}
	body, _ := stage.Template()
	cmd := template.Parse(body.Cmd)

	if !stage.IsIterated() {
		return []StageRecord{r.declaredRecord(base, nil, cmd, stage.Vars, globals)}
	}

	combos := stage.Combinations()
	records := make([]StageRecord, 0, len(combos))
	for i, combo := range combos {
		records = append(records, r.declaredRecord(matrix.StageName(base, i), combo, cmd, stage.Vars, globals))
	}
	return records
}

func (r *Reconciler) declaredRecord(name string, combo matrix.Combination, cmd template.Template, stageVars, globals map[string]string) StageRecord {
	record := StageRecord{Name: name, Params: combo, Status: StatusNotRun}
	if cmd.String() == "" {
		return record
	}
	rendered, err := cmd.Render(combo, stageVars, globals)
	if err != nil {
		r.logger.Warn("cannot render stage command", "stage", name, "error", err)
		return record
	}
	record.Cmd = rendered
	return record
}

// recordedSource recovers parameters from what dvc.lock recorded.
type recordedSource struct {
	entries []dvc.LockStage
}

func (s recordedSource) records(r *Reconciler, base string, in Inputs) []StageRecord {
	records := make([]StageRecord, 0, len(s.entries))
	for _, entry := range s.entries {
		stage, doc := declaration(entry.Base(), in.Pipeline, in.Matrix)
		if stage == nil {
			r.logger.Warn("skipping recorded stage", "stage", entry.Name,
				"error", fmt.Errorf("%w: %s is not declared", ErrMalformedStageDeclaration, entry.Base()))
			continue
		}
		body, ok := stage.Template()
		if !ok || (in.Key == KeyOuts && len(body.Outs) == 0) || (in.Key != KeyOuts && body.Cmd == "") {
			r.logger.Warn("skipping recorded stage", "stage", entry.Name,
				"error", fmt.Errorf("%w: %s has no %s template", ErrMalformedStageDeclaration, entry.Base(), keyOrDefault(in.Key)))
			continue
		}

		record := StageRecord{
			Name:   entry.Name,
			Cmd:    entry.Cmd,
			Status: statusOf(entry.Name, in.Status),
		}

		scopes := []map[string]string{stage.Vars}
		if in.Matrix != nil {
			scopes = append(scopes, in.Matrix.Vars)
		}
		scopes = append(scopes, doc.Vars)
		values, fields, err := recoverParams(in.Key, body, entry, scopes...)
		if err != nil {
			r.logger.Warn("stage has no derivable parameters", "stage", entry.Name, "error", err)
		} else {
			record.Params = orderParams(values, declaredNames(stage), fields)
		}
		records = append(records, record)
	}
	return records
}

func keyOrDefault(k Key) Key {
	if k == "" {
		return KeyCmd
	}
	return k
}

// recoverParams inverts the declared template against the recorded value and
// returns the values with the template's field order. Variables with a value
// in scopes are matched literally.
func recoverParams(key Key, body dvc.StageBody, entry dvc.LockStage, scopes ...map[string]string) (map[string]string, []string, error) {
	if key != KeyOuts {
		tpl := template.Parse(body.Cmd).Bind(scopes...)
		values, err := tpl.Invert(entry.Cmd)
		return values, tpl.Fields(), err
	}

	// Templates with fields are tried first so a constant output such as
	// metrics.json cannot shadow a parameterized one.
	var ordered []template.Template
	var constant []template.Template
	for _, out := range body.Outs {
		tpl := template.Parse(out).Bind(scopes...)
		if len(tpl.Fields()) > 0 {
			ordered = append(ordered, tpl)
		} else {
			constant = append(constant, tpl)
		}
	}
	ordered = append(ordered, constant...)

	for _, tpl := range ordered {
		for _, path := range entry.Outs {
			if values, err := tpl.Invert(path); err == nil {
				return values, tpl.Fields(), nil
			}
		}
	}
	return nil, nil, fmt.Errorf("%w: no recorded output of %s matches %v", template.ErrNoMatch, entry.Name, body.Outs)
}

// declaredNames returns the parameter names in declaration order.
func declaredNames(stage *dvc.Stage) []string {
	if stage.HasMatrix {
		return stage.Matrix.Names()
	}
	if len(stage.Foreach) > 0 {
		names := make([]string, len(stage.Foreach[0]))
		for i, b := range stage.Foreach[0] {
			names[i] = b.Name
		}
		return names
	}
	return nil
}

// orderParams turns recovered values into a Combination, following the
// declared parameter order and then template field order.
func orderParams(values map[string]string, declared, fields []string) matrix.Combination {
	combo := make(matrix.Combination, 0, len(values))
	used := make(map[string]bool, len(values))
	for _, names := range [][]string{declared, fields} {
		for _, name := range names {
			value, ok := values[name]
			if !ok || used[name] {
				continue
			}
			used[name] = true
			combo = append(combo, matrix.Binding{Name: name, Value: value})
		}
	}
	return combo
}
