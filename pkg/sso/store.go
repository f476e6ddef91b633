package sso

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
)

// Kind classifies a store key.
type Kind int

const (
	// KindUnknown is a key the store does not have.
	KindUnknown Kind = iota

	// KindField is an observable data field.
	KindField

	// KindMethod is a callable value of the descriptor.
	KindMethod

	// KindComputed is a derived read-only property.
	KindComputed
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindField:
		return "field"
	case KindMethod:
		return "method"
	case KindComputed:
		return "computed"
	default:
		return "unknown"
	}
}

// Store is a shared state object built from a keyed record.
//
// Reads go through Get, writes through Set, Update and Call. Fields notify
// only the listeners that read them; methods and computed properties run
// with subscription suppressed. A store is live until it is revoked, after
// which every operation fails with ErrRevoked.
type Store struct {
	id   uint64
	name string

	// mu protects data and cfg.
	mu   sync.RWMutex
	data map[string]any
	cfg  Config

	// fields, methods and computed are fixed at construction.
	fields   map[string]*Channel
	methods  map[string]*method
	computed map[string]Computed
	keys     []string

	// depth counts method and computed bodies currently running.
	// While it is non-zero, field reads do not subscribe.
	depth atomic.Int32

	revoked atomic.Bool

	equal  func(a, b any) bool
	logger *slog.Logger
	instr  Instrumentation
}

// New creates a store from desc.
//
// desc is a map with string keys or a struct. Non-nil func values become
// methods; everything else becomes an observable field. The store keeps its
// own copy of the values.
//
// Example:
//
//	counter, err := sso.New(map[string]any{
//	    "count": 0,
//	    "inc": func(s *sso.Store) error {
//	        return sso.Modify(s, "count", func(n int) int { return n + 1 })
//	    },
//	})
func New(desc any, opts ...Option) (*Store, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c, err := classify(desc, o.computed)
	if err != nil {
		return nil, err
	}

	s := &Store{
		id:       nextID(),
		name:     o.name,
		data:     c.values,
		cfg:      GlobalConfig().merge(o.config),
		fields:   make(map[string]*Channel, len(c.values)),
		methods:  c.methods,
		computed: c.computed,
		equal:    o.equal,
		instr:    o.instr,
	}
	if s.name == "" {
		s.name = fmt.Sprintf("store-%d", s.id)
	}
	if s.equal == nil {
		s.equal = Equal
	}
	if s.instr == nil {
		s.instr = NopInstrumentation{}
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	s.logger = logger.With("component", "sso", "store", s.name)

	for key := range c.values {
		s.fields[key] = &Channel{key: key, store: s}
		s.keys = append(s.keys, key)
	}
	sort.Strings(s.keys)

	s.logger.Debug("store created",
		"fields", len(s.fields),
		"methods", len(s.methods),
		"computed", len(s.computed),
	)
	return s, nil
}

// MustNew is like New but panics on error.
func MustNew(desc any, opts ...Option) *Store {
	s, err := New(desc, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// ID returns the unique identifier of the store.
func (s *Store) ID() uint64 {
	return s.id
}

// Name returns the store name used in logs and metrics.
func (s *Store) Name() string {
	return s.name
}

// Keys returns the field keys in sorted order.
func (s *Store) Keys() []string {
	keys := make([]string, len(s.keys))
	copy(keys, s.keys)
	return keys
}

// Kind classifies key.
func (s *Store) Kind(key string) Kind {
	if _, ok := s.computed[key]; ok {
		return KindComputed
	}
	if _, ok := s.methods[key]; ok {
		return KindMethod
	}
	if _, ok := s.fields[key]; ok {
		return KindField
	}
	return KindUnknown
}

// Revoked reports whether the store has been revoked.
func (s *Store) Revoked() bool {
	return s.revoked.Load()
}

// =============================================================================
// Read path
// =============================================================================

// Get reads key.
//
//   - A computed key returns its freshly derived value.
//   - A method key returns a MethodFunc bound to the store.
//   - A field read inside a method or computed body returns the raw value.
//   - Any other field read returns the value and subscribes the current
//     listener (see Track).
//   - An unknown key returns nil without error.
func (s *Store) Get(key string) (any, error) {
	if s.revoked.Load() {
		return nil, errRevoked(key)
	}
	if fn, ok := s.computed[key]; ok {
		return s.derive(fn), nil
	}
	if m, ok := s.methods[key]; ok {
		return s.bind(m), nil
	}
	ch, ok := s.fields[key]
	if !ok {
		return nil, nil
	}
	if s.inMethod() {
		return ch.Read(), nil
	}
	return ch.track(), nil
}

// Snapshot returns a copy of all field values.
func (s *Store) Snapshot() (map[string]any, error) {
	if s.revoked.Load() {
		return nil, errRevoked("")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.data), nil
}

// Channel returns the channel backing a data field.
func (s *Store) Channel(key string) (*Channel, error) {
	if s.revoked.Load() {
		return nil, errRevoked(key)
	}
	ch, ok := s.fields[key]
	if !ok {
		return nil, errUnknownField(key)
	}
	return ch, nil
}

// External returns the external-store contract for a data field.
func (s *Store) External(key string) (ExternalStore, error) {
	ch, err := s.Channel(key)
	if err != nil {
		return ExternalStore{}, err
	}
	return ch.External(), nil
}

func (s *Store) derive(fn Computed) any {
	s.enter()
	defer s.leave()
	return fn(s)
}

func (s *Store) enter() { s.depth.Add(1) }

func (s *Store) leave() { s.depth.Add(-1) }

func (s *Store) inMethod() bool { return s.depth.Load() > 0 }

// =============================================================================
// Write path
// =============================================================================

// Set writes value to key. The write is dropped without notification when
// value equals the current value.
//
// Keys are checked in order: computed, field, method, unknown. Writing
// anything but a field is an error.
func (s *Store) Set(key string, value any) error {
	if s.revoked.Load() {
		return errRevoked(key)
	}
	if _, ok := s.computed[key]; ok {
		return errComputedWrite(key)
	}
	if ch, ok := s.fields[key]; ok {
		ch.write(value)
		return nil
	}
	if _, ok := s.methods[key]; ok {
		return errMethodWrite(key)
	}
	return errUnknownField(key)
}

// Update sets key to fn applied to its current value. It follows the same
// key precedence and equality check as Set. fn runs without the store lock,
// so it may read the store.
func (s *Store) Update(key string, fn func(current any) any) error {
	if s.revoked.Load() {
		return errRevoked(key)
	}
	if fn == nil {
		return errUpdaterNotFunc(key)
	}
	if _, ok := s.computed[key]; ok {
		return errComputedWrite(key)
	}
	if ch, ok := s.fields[key]; ok {
		ch.write(fn(ch.Read()))
		return nil
	}
	if _, ok := s.methods[key]; ok {
		return errMethodWrite(key)
	}
	return errUnknownField(key)
}

// Call is the single entry point behind the store's call form:
//
//	store.Call()                          // revoke
//	store.Call(func() sso.Config { ... }) // merge a per-store configuration
//	store.Call("count", func(n int) int { return n + 1 })
//
// The updater may be func(any) any or any func taking and returning one
// value. Any other second argument fails with ErrUpdaterNotFunc. A nil func
// as the first argument fails with ErrIllegalConfig.
func (s *Store) Call(args ...any) error {
	var first, second any
	if len(args) > 0 {
		first = args[0]
	}
	if len(args) > 1 {
		second = args[1]
	}

	if first == nil {
		return s.Revoke()
	}

	if rv := reflect.ValueOf(first); rv.Kind() == reflect.Func {
		if s.revoked.Load() {
			return errRevoked("")
		}
		if rv.IsNil() {
			return errIllegalConfig()
		}
		override, err := produceConfig(first)
		if err != nil {
			return err
		}
		return s.merge(override)
	}

	key, ok := first.(string)
	if !ok {
		key = fmt.Sprint(first)
	}
	if s.revoked.Load() {
		return errRevoked(key)
	}
	if !isCallable(second) {
		return errUpdaterNotFunc(key)
	}
	if fn, ok := second.(func(any) any); ok {
		return s.Update(key, fn)
	}
	return s.updateReflect(key, reflect.ValueOf(second))
}

// updateReflect runs Update with a typed updater such as func(int) int.
func (s *Store) updateReflect(key string, fn reflect.Value) error {
	t := fn.Type()
	if t.NumIn() != 1 || t.NumOut() < 1 {
		return errUpdaterNotFunc(key)
	}

	var mismatch error
	err := s.Update(key, func(current any) any {
		in, err := argValue(current, t.In(0))
		if err != nil {
			mismatch = errTypeMismatch(key, fmt.Sprintf("%T", current), t.In(0).String())
			return current
		}
		return fn.Call([]reflect.Value{in})[0].Interface()
	})
	if err != nil {
		return err
	}
	return mismatch
}

// =============================================================================
// Methods
// =============================================================================

// Method returns the MethodFunc for key.
func (s *Store) Method(key string) (MethodFunc, error) {
	if s.revoked.Load() {
		return nil, errRevoked(key)
	}
	m, ok := s.methods[key]
	if !ok {
		return nil, errNotMethod(key)
	}
	return s.bind(m), nil
}

// Invoke calls the method key with args.
func (s *Store) Invoke(key string, args ...any) (any, error) {
	return s.InvokeContext(context.Background(), key, args...)
}

// InvokeContext calls the method key with args. ctx is passed to a method
// that declares a context.Context parameter, and to the instrumentation.
func (s *Store) InvokeContext(ctx context.Context, key string, args ...any) (any, error) {
	if s.revoked.Load() {
		return nil, errRevoked(key)
	}
	m, ok := s.methods[key]
	if !ok {
		return nil, errNotMethod(key)
	}
	return s.invoke(ctx, m, args)
}

func (s *Store) bind(m *method) MethodFunc {
	return func(args ...any) (any, error) {
		if s.revoked.Load() {
			return nil, errRevoked(m.key)
		}
		return s.invoke(context.Background(), m, args)
	}
}

func (s *Store) invoke(ctx context.Context, m *method, args []any) (res any, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, end := s.instr.MethodStarted(ctx, s.name, m.key)
	defer func() { end(err) }()

	s.enter()
	defer s.leave()
	return m.call(ctx, s, args)
}

// =============================================================================
// Configuration & revocation
// =============================================================================

// Configure validates partial and merges it into this store's configuration.
// Other stores are unaffected.
func (s *Store) Configure(partial any) error {
	if s.revoked.Load() {
		return errRevoked("")
	}
	override, err := validateConfiguration(partial)
	if err != nil {
		return err
	}
	return s.merge(override)
}

func (s *Store) merge(override Config) error {
	s.mu.Lock()
	s.cfg = s.cfg.merge(override)
	s.mu.Unlock()
	s.logger.Debug("store configuration merged")
	return nil
}

// Config returns the store's current configuration.
func (s *Store) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Revoke permanently invalidates the store and drops all listeners.
// Revoking an already revoked store returns ErrRevoked.
func (s *Store) Revoke() error {
	if !s.revoked.CompareAndSwap(false, true) {
		return errRevoked("")
	}
	for _, ch := range s.fields {
		ch.release()
	}
	s.instr.Revoked(s.name)
	s.logger.Info("store revoked")
	return nil
}
