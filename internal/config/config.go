package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vango-dev/sso/internal/errors"
	"gopkg.in/yaml.v3"
)

// Step operations.
const (
	OpGet         = "get"
	OpSet         = "set"
	OpUpdate      = "update"
	OpSubscribe   = "subscribe"
	OpUnsubscribe = "unsubscribe"
	OpNotified    = "notified"
	OpRevoke      = "revoke"
)

// Computed expression operators.
const (
	ExprSum     = "sum"
	ExprProduct = "product"
	ExprConcat  = "concat"
	ExprLen     = "len"
	ExprNot     = "not"
)

// Extensions lists the scenario file extensions Load understands.
var Extensions = []string{".json", ".yaml", ".yml"}

// Scenario is a scripted sequence of store operations with expectations.
type Scenario struct {
	// Name identifies the scenario in traces (default: file name).
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Description is free text shown by verbose runs.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Fields are the initial field values of the store.
	Fields map[string]any `json:"fields" yaml:"fields"`

	// Computed maps computed property names to expressions such as
	// "sum:a,b" or "not:done".
	Computed map[string]string `json:"computed,omitempty" yaml:"computed,omitempty"`

	// Batch wraps all steps in one batch, deferring every notification
	// until the last step has run.
	Batch bool `json:"batch,omitempty" yaml:"batch,omitempty"`

	// Steps are run in order.
	Steps []Step `json:"steps" yaml:"steps"`

	// path stores the path where the scenario was loaded from.
	path string
}

// Step is one store operation.
type Step struct {
	// Op is one of get, set, update, subscribe, unsubscribe, notified, revoke.
	Op string `json:"op" yaml:"op"`

	// Key is the store key the step operates on.
	Key string `json:"key,omitempty" yaml:"key,omitempty"`

	// Value is the value written by set.
	Value any `json:"value,omitempty" yaml:"value,omitempty"`

	// Delta is added to the current numeric value by update.
	Delta float64 `json:"delta,omitempty" yaml:"delta,omitempty"`

	// Listener names the listener for subscribe, unsubscribe and notified.
	Listener string `json:"listener,omitempty" yaml:"listener,omitempty"`

	// Expect is the value a get must return, or the notification count for
	// notified. Nil means no expectation.
	Expect any `json:"expect,omitempty" yaml:"expect,omitempty"`

	// ExpectError is a substring the step's error must contain.
	ExpectError string `json:"expectError,omitempty" yaml:"expectError,omitempty"`
}

// Expr is a parsed computed expression.
type Expr struct {
	Op   string
	Args []string
}

// String returns the expression in its file form.
func (e Expr) String() string {
	return e.Op + ":" + strings.Join(e.Args, ",")
}

// Load reads a scenario file. The format is chosen by extension.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("S100").
				WithDetail("No scenario file at " + path).
				WithSuggestion("Check the path passed to 'sso run'")
		}
		return nil, errors.New("S101").Wrap(err)
	}

	sc := &Scenario{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, sc); err != nil {
			return nil, errors.New("S101").
				WithDetail("Failed to parse " + path + ": " + err.Error()).
				WithSuggestion("Check that the scenario is valid JSON")
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, sc); err != nil {
			return nil, errors.New("S101").
				WithDetail("Failed to parse " + path + ": " + err.Error()).
				WithSuggestion("Check that the scenario is valid YAML")
		}
	default:
		return nil, errors.Newf("S101", "Unsupported scenario format %q", ext).
			WithSuggestion("Use a .json, .yaml or .yml file")
	}

	sc.path = path
	sc.applyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// LoadDir loads every scenario file in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("S100").WithDetail("No directory at " + dir)
		}
		return nil, errors.New("S101").Wrap(err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !hasScenarioExt(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		sc, err := Load(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

// Path returns the path where the scenario was loaded from.
func (s *Scenario) Path() string {
	return s.path
}

// Dir returns the directory containing the scenario file.
func (s *Scenario) Dir() string {
	if s.path == "" {
		return ""
	}
	return filepath.Dir(s.path)
}

// applyDefaults fills in default values for empty fields and normalizes
// numbers, which JSON decodes as float64 and YAML as int.
func (s *Scenario) applyDefaults() {
	if s.Name == "" && s.path != "" {
		s.Name = strings.TrimSuffix(filepath.Base(s.path), filepath.Ext(s.path))
	}
	if s.Fields == nil {
		s.Fields = make(map[string]any)
	}
	for k, v := range s.Fields {
		s.Fields[k] = Normalize(v)
	}
	for i := range s.Steps {
		s.Steps[i].Op = strings.ToLower(strings.TrimSpace(s.Steps[i].Op))
		s.Steps[i].Value = Normalize(s.Steps[i].Value)
		s.Steps[i].Expect = Normalize(s.Steps[i].Expect)
	}
}

// Validate checks if the scenario is well formed.
func (s *Scenario) Validate() error {
	for name, src := range s.Computed {
		if _, ok := s.Fields[name]; ok {
			return s.invalid("computed %q collides with a field", name)
		}
		if _, err := ParseExpr(src); err != nil {
			return s.invalid("computed %q: %v", name, err)
		}
	}

	for i, step := range s.Steps {
		n := i + 1
		switch step.Op {
		case OpGet, OpSet, OpUpdate:
			if step.Key == "" {
				return s.invalid("step %d: %s requires a key", n, step.Op)
			}
		case OpSubscribe, OpUnsubscribe:
			if step.Key == "" || step.Listener == "" {
				return s.invalid("step %d: %s requires a key and a listener", n, step.Op)
			}
		case OpNotified:
			if step.Listener == "" {
				return s.invalid("step %d: notified requires a listener", n)
			}
			if _, ok := step.Expect.(float64); !ok {
				return s.invalid("step %d: notified requires a numeric expect", n)
			}
		case OpRevoke:
		case "":
			return s.invalid("step %d: missing op", n)
		default:
			return s.invalid("step %d: unknown op %q", n, step.Op)
		}
	}
	return nil
}

func (s *Scenario) invalid(format string, args ...any) error {
	where := s.path
	if where == "" {
		where = s.Name
	}
	return errors.New("S101").
		WithDetail(fmt.Sprintf("%s: %s", where, fmt.Sprintf(format, args...)))
}

// ParseExpr parses a computed expression of the form "op:arg[,arg...]".
func ParseExpr(src string) (Expr, error) {
	op, rest, ok := strings.Cut(strings.TrimSpace(src), ":")
	if !ok || rest == "" {
		return Expr{}, fmt.Errorf("expression %q must have the form op:args", src)
	}

	var args []string
	for _, a := range strings.Split(rest, ",") {
		if a = strings.TrimSpace(a); a == "" {
			return Expr{}, fmt.Errorf("expression %q has an empty argument", src)
		}
		args = append(args, a)
	}

	switch op {
	case ExprSum, ExprProduct, ExprConcat:
		if len(args) < 2 {
			return Expr{}, fmt.Errorf("%s needs at least two arguments", op)
		}
	case ExprLen, ExprNot:
		if len(args) != 1 {
			return Expr{}, fmt.Errorf("%s takes exactly one argument", op)
		}
	default:
		return Expr{}, fmt.Errorf("unknown operator %q", op)
	}
	return Expr{Op: op, Args: args}, nil
}

// Normalize converts every number in v to float64, recursing into maps and
// slices, so JSON and YAML scenarios compare the same way.
func Normalize(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Normalize(e)
		}
		return out
	default:
		return v
	}
}

// Exists checks if a scenario file exists at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func hasScenarioExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
