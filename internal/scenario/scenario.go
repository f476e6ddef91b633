package scenario

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vango-dev/sso/internal/config"
	"github.com/vango-dev/sso/pkg/sso"
)

// Result summarizes a scenario run.
type Result struct {
	// RunID identifies the run in traces and logs.
	RunID string

	// Scenario is the scenario name.
	Scenario string

	// Steps is the number of steps that ran.
	Steps int

	// Passed and Failed count steps by outcome.
	Passed int
	Failed int

	// Failures describes each failed step.
	Failures []Failure

	// Notifications is the number of listener notifications delivered.
	Notifications int

	// Duration is the wall time of the run.
	Duration time.Duration
}

// OK reports whether every step passed.
func (r *Result) OK() bool {
	return r.Failed == 0
}

// Failure is a step whose outcome did not match its expectations.
type Failure struct {
	Step    int
	Op      string
	Key     string
	Message string
}

func (f Failure) String() string {
	if f.Key == "" {
		return fmt.Sprintf("step %d (%s): %s", f.Step, f.Op, f.Message)
	}
	return fmt.Sprintf("step %d (%s %s): %s", f.Step, f.Op, f.Key, f.Message)
}

// Option configures a run.
type Option func(*options)

type options struct {
	logger *slog.Logger
	instr  sso.Instrumentation
	runID  string
}

// WithLogger sets the logger used by the run and its store.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithInstrumentation installs instrumentation on the scenario's store.
func WithInstrumentation(instr sso.Instrumentation) Option {
	return func(o *options) {
		o.instr = instr
	}
}

// WithRunID fixes the run ID instead of generating a random one.
func WithRunID(id string) Option {
	return func(o *options) {
		o.runID = id
	}
}

// Run executes sc and writes its trace to w.
//
// The returned error reports a scenario that could not run at all, such as
// one whose store cannot be built, or a cancelled ctx. Failed expectations
// are reported in the Result.
func Run(ctx context.Context, sc *config.Scenario, w io.Writer, opts ...Option) (*Result, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}

	r := &runner{
		sc:        sc,
		w:         w,
		tag:       shortID(o.runID),
		listeners: make(map[string]*listener),
		unsubs:    make(map[string]func()),
		result:    &Result{RunID: o.runID, Scenario: sc.Name},
	}
	logger := o.logger.With("run", o.runID, "scenario", sc.Name)

	storeOpts := []sso.Option{
		sso.WithName(sc.Name),
		sso.WithLogger(logger),
		sso.WithComputed(compileComputed(sc.Computed)),
	}
	if o.instr != nil {
		storeOpts = append(storeOpts, sso.WithInstrumentation(o.instr))
	}

	var batcher *sso.Batcher
	if sc.Batch {
		batcher = sso.NewBatcher()
		storeOpts = append(storeOpts, sso.WithConfig(sso.Config{Next: batcher.Next}))
	}

	store, err := sso.New(sc.Fields, storeOpts...)
	if err != nil {
		return nil, err
	}
	r.store = store

	logger.Debug("scenario started", "steps", len(sc.Steps), "batch", sc.Batch)
	start := time.Now()

	if batcher != nil {
		batcher.Batch(func() { err = r.steps(ctx) })
	} else {
		err = r.steps(ctx)
	}
	r.result.Duration = time.Since(start)
	if err != nil {
		return r.result, err
	}

	logger.Info("scenario finished",
		"passed", r.result.Passed,
		"failed", r.result.Failed,
		"notifications", r.result.Notifications,
		"duration", r.result.Duration,
	)
	return r.result, nil
}

// runner holds the state of one run.
type runner struct {
	sc     *config.Scenario
	w      io.Writer
	tag    string
	store  *sso.Store
	result *Result

	listeners map[string]*listener

	// unsubs maps "listener\x00key" to the subscription's unsubscribe func.
	unsubs map[string]func()
}

func (r *runner) steps(ctx context.Context) error {
	for i, step := range r.sc.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.step(i+1, step)
	}
	return nil
}

// step runs one step and checks its expectations.
func (r *runner) step(n int, step config.Step) {
	r.result.Steps++

	detail, got, err := r.apply(step)
	msg := r.check(step, got, err)

	outcome := "ok"
	if msg != "" {
		outcome = "FAIL: " + msg
		r.result.Failed++
		r.result.Failures = append(r.result.Failures, Failure{
			Step:    n,
			Op:      step.Op,
			Key:     step.Key,
			Message: msg,
		})
	} else {
		r.result.Passed++
	}
	r.tracef("%s #%d %s %s", r.sc.Name, n, detail, outcome)
}

// apply performs the store operation of step. It returns a trace detail,
// the observed value for get and notified, and the operation's error.
func (r *runner) apply(step config.Step) (string, any, error) {
	switch step.Op {
	case config.OpGet:
		v, err := r.store.Get(step.Key)
		return fmt.Sprintf("get %s = %s", step.Key, formatValue(v)), config.Normalize(v), err

	case config.OpSet:
		err := r.store.Set(step.Key, step.Value)
		return fmt.Sprintf("set %s = %s", step.Key, formatValue(step.Value)), nil, err

	case config.OpUpdate:
		err := sso.Modify(r.store, step.Key, func(n float64) float64 { return n + step.Delta })
		return fmt.Sprintf("update %s += %s", step.Key, formatValue(step.Delta)), nil, err

	case config.OpSubscribe:
		detail := fmt.Sprintf("subscribe %s <- %s", step.Key, step.Listener)
		ch, err := r.store.Channel(step.Key)
		if err != nil {
			return detail, nil, err
		}
		r.unsubs[subKey(step.Listener, step.Key)] = ch.SubscribeListener(r.listener(step.Listener))
		return detail, nil, nil

	case config.OpUnsubscribe:
		detail := fmt.Sprintf("unsubscribe %s <- %s", step.Key, step.Listener)
		k := subKey(step.Listener, step.Key)
		unsub, ok := r.unsubs[k]
		if !ok {
			return detail, nil, fmt.Errorf("%s is not subscribed to %s", step.Listener, step.Key)
		}
		unsub()
		delete(r.unsubs, k)
		return detail, nil, nil

	case config.OpNotified:
		count := 0
		if l, ok := r.listeners[step.Listener]; ok {
			count = l.count
		}
		return fmt.Sprintf("notified %s = %d", step.Listener, count), float64(count), nil

	case config.OpRevoke:
		return "revoke", nil, r.store.Revoke()
	}
	return step.Op, nil, fmt.Errorf("unknown op %q", step.Op)
}

// check compares an outcome with the step's expectations and returns a
// failure message, or "" when the step passed.
func (r *runner) check(step config.Step, got any, err error) string {
	if step.ExpectError != "" {
		if err == nil {
			return fmt.Sprintf("expected error containing %q, got none", step.ExpectError)
		}
		if !strings.Contains(strings.ToLower(err.Error()), strings.ToLower(step.ExpectError)) {
			return fmt.Sprintf("expected error containing %q, got %q", step.ExpectError, err.Error())
		}
		return ""
	}
	if err != nil {
		return "unexpected error: " + err.Error()
	}
	if step.Expect != nil && !sso.Equal(got, step.Expect) {
		return fmt.Sprintf("expected %s, got %s", formatValue(step.Expect), formatValue(got))
	}
	return ""
}

func (r *runner) listener(name string) *listener {
	l, ok := r.listeners[name]
	if !ok {
		l = &listener{id: uint64(len(r.listeners) + 1), name: name, r: r}
		r.listeners[name] = l
	}
	return l
}

func (r *runner) tracef(format string, args ...any) {
	fmt.Fprintf(r.w, "[%s] %s\n", r.tag, fmt.Sprintf(format, args...))
}

// listener is a named scenario listener that counts its notifications.
type listener struct {
	id    uint64
	name  string
	count int
	r     *runner
}

func (l *listener) ID() uint64 { return l.id }

func (l *listener) MarkDirty() {
	l.count++
	l.r.result.Notifications++
	l.r.tracef("  notify %s", l.name)
}

func subKey(listener, key string) string {
	return listener + "\x00" + key
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatValue renders v compactly for traces.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", x)
	case float64:
		return fmt.Sprintf("%g", x)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ":" + formatValue(x[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(v)
	}
}
