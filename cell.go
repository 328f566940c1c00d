package prefs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-prefs/pkg/journal"
)

// ErrNotBound reports a read or write that ran outside any Bind for the
// cell's descriptor.
var ErrNotBound = errors.New("prefs: cell not bound in context")

// Cell owns one descriptor's read/write contract. A cell is inert until Bind
// seeds state for it into a context; reads and writes derived from that
// context share the state, while separate Binds and separate cells stay
// fully independent.
type Cell struct {
	desc      Descriptor
	ctxKey    *cellContextKey
	guard     Guard
	engine    string
	compiled  CompiledGuard
	rule      string
	normalize func(string) string
	hooks     journal.Hooks
	channel   string
	logger    GuardLogger
	metadata  map[string]any
}

// cellContextKey is compared by identity: each cell allocates its own, so two
// cells never collide in a context even with equal descriptors.
type cellContextKey struct{ storeKey string }

// CellOption configures a Cell.
type CellOption func(*cellConfig)

type cellConfig struct {
	guard     Guard
	rule      string
	cache     ProgramCache
	functions *FunctionRegistry
	normalize func(string) string
	hooks     journal.Hooks
	channel   string
	logger    GuardLogger
	metadata  map[string]any
}

func applyCellOptions(opts []CellOption) cellConfig {
	cfg := cellConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithGuard selects the engine guard rules run on. The engine stays idle
// until WithGuardRule supplies a rule.
func WithGuard(g Guard) CellOption {
	return func(cfg *cellConfig) {
		cfg.guard = g
	}
}

// WithGuardRule installs the rule every candidate value must pass, both while
// seeding and on writes. Rules run on the engine from WithGuard, falling back
// to expr.
func WithGuardRule(rule string) CellOption {
	return func(cfg *cellConfig) {
		cfg.rule = rule
	}
}

// WithGuardCache wires a ProgramCache into the guard engine the cell resolves
// by default. Engines configured explicitly via WithGuard carry their own.
func WithGuardCache(cache ProgramCache) CellOption {
	return func(cfg *cellConfig) {
		cfg.cache = cache
	}
}

// WithGuardFunctions exposes the registry's functions to the cell's guard
// rule. The registry is cloned.
func WithGuardFunctions(registry *FunctionRegistry) CellOption {
	return func(cfg *cellConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithGuardFunction registers fn under name for the cell's guard rule.
func WithGuardFunction(name string, fn Function) CellOption {
	return func(cfg *cellConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

// WithNormalize canonicalizes every candidate value before the guard sees
// it, during seeding and on writes.
func WithNormalize(fn func(string) string) CellOption {
	return func(cfg *cellConfig) {
		cfg.normalize = fn
	}
}

// WithJournal attaches journal hooks notified after seeds and writes. Hooks
// are cloned and nil entries dropped.
func WithJournal(hooks journal.Hooks) CellOption {
	normalized := cloneJournalHooks(hooks)
	return func(cfg *cellConfig) {
		cfg.hooks = normalized
	}
}

// WithJournalChannel sets the channel stamped on emitted events.
func WithJournalChannel(channel string) CellOption {
	return func(cfg *cellConfig) {
		cfg.channel = channel
	}
}

// WithGuardLogger attaches a guard logger to the cell.
func WithGuardLogger(logger GuardLogger) CellOption {
	return func(cfg *cellConfig) {
		if logger == nil {
			cfg.logger = noopGuardLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithGuardMetadata supplies ambient metadata visible to guard rules.
func WithGuardMetadata(metadata map[string]any) CellOption {
	return func(cfg *cellConfig) {
		cfg.metadata = cloneMetadata(metadata)
	}
}

// NewCell constructs the cell for desc, compiling the guard rule when one is
// configured so a broken rule surfaces here rather than on first use.
func NewCell(desc Descriptor, opts ...CellOption) (*Cell, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	cfg := applyCellOptions(opts)
	c := &Cell{
		desc:      desc,
		ctxKey:    &cellContextKey{storeKey: desc.StoreKey},
		normalize: cfg.normalize,
		hooks:     cfg.hooks,
		channel:   cfg.channel,
		logger:    cfg.logger,
		metadata:  cloneMetadata(cfg.metadata),
	}
	if cfg.rule != "" {
		guard := cfg.guard
		if guard == nil {
			guard = defaultGuard(cfg)
		}
		compiled, err := guard.Compile(cfg.rule)
		if err != nil {
			return nil, wrapGuardRuleError(guardEngineName(guard), cfg.rule, desc.StoreKey, "", err)
		}
		c.guard = guard
		c.engine = guardEngineName(guard)
		c.compiled = compiled
		c.rule = cfg.rule
	}
	return c, nil
}

// MustCell is NewCell for package-level descriptor wiring; it panics on
// configuration errors.
func MustCell(desc Descriptor, opts ...CellOption) *Cell {
	c, err := NewCell(desc, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func defaultGuard(cfg cellConfig) Guard {
	var exprOpts []ExprGuardOption
	if cfg.cache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cfg.cache))
	}
	if cfg.functions != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(cfg.functions))
	}
	return NewExprGuard(exprOpts...)
}

// Descriptor returns the descriptor the cell was built from.
func (c *Cell) Descriptor() Descriptor {
	return c.desc
}

func (c *Cell) guardLogger() GuardLogger {
	if c.logger == nil {
		return noopGuardLogger{}
	}
	return c.logger
}

// check runs the compiled guard against one candidate value.
func (c *Cell) check(phase, current, candidate string) (bool, error) {
	if c.compiled == nil {
		return true, nil
	}
	gctx := GuardContext{
		Key:      c.desc.StoreKey,
		Hook:     c.desc.HookName,
		Value:    candidate,
		Current:  current,
		Phase:    phase,
		Metadata: c.metadata,
	}
	start := time.Now()
	allowed, err := c.compiled.Allow(gctx)
	duration := time.Since(start)
	err = wrapGuardRuleError(c.engine, c.rule, c.desc.StoreKey, phase, err)
	c.guardLogger().LogGuardCheck(GuardLogEvent{
		Engine:   c.engine,
		Rule:     c.rule,
		Key:      c.desc.StoreKey,
		Phase:    phase,
		Allowed:  allowed && err == nil,
		Duration: duration,
		Err:      err,
	})
	if err != nil {
		return false, err
	}
	return allowed, nil
}

func (c *Cell) applyNormalize(value string) string {
	if c.normalize == nil {
		return value
	}
	return c.normalize(value)
}

// BindOption configures one Bind.
type BindOption func(*bindConfig)

type bindConfig struct {
	doc    Document
	signal MountSignal
	actor  string
	user   string
	tenant string
}

func applyBindOptions(opts []BindOption) bindConfig {
	cfg := bindConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithDocument attaches the live document whose hook seeds the binding and
// whose store receives writes. Without a document the binding runs in the
// document-generation phase: seeded from the default, never mounted, writes
// kept in memory.
func WithDocument(doc Document) BindOption {
	return func(cfg *bindConfig) {
		cfg.doc = doc
	}
}

// WithMountSignal defers the text channel until sig fires. Without a signal,
// a document-backed binding counts as mounted from the start.
func WithMountSignal(sig MountSignal) BindOption {
	return func(cfg *bindConfig) {
		cfg.signal = sig
	}
}

// WithActor attributes journal events from this binding to an actor ID.
func WithActor(actorID string) BindOption {
	return func(cfg *bindConfig) {
		cfg.actor = actorID
	}
}

// WithUser stamps journal events from this binding with a user ID.
func WithUser(userID string) BindOption {
	return func(cfg *bindConfig) {
		cfg.user = userID
	}
}

// WithTenant stamps journal events from this binding with a tenant ID.
func WithTenant(tenantID string) BindOption {
	return func(cfg *bindConfig) {
		cfg.tenant = tenantID
	}
}

// Bind seeds state for the cell and returns a context carrying it. Binds for
// different cells nest freely in either order; a nested Bind for the same
// cell shadows the outer one.
func (c *Cell) Bind(ctx context.Context, opts ...BindOption) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := applyBindOptions(opts)
	st := &cellState{
		cell:   c,
		doc:    cfg.doc,
		actor:  cfg.actor,
		user:   cfg.user,
		tenant: cfg.tenant,
	}
	st.seed()
	switch {
	case cfg.doc == nil:
		// document-generation phase: the mount transition never happens here
	case cfg.signal != nil:
		cfg.signal.OnMount(st.mount)
	default:
		st.mounted = true
	}
	c.emitSeeded(st)
	return context.WithValue(ctx, c.ctxKey, st)
}

// cellState is the per-Bind live state for one cell.
type cellState struct {
	mu      sync.Mutex
	cell    *Cell
	doc     Document
	actor   string
	user    string
	tenant  string
	value   string
	mounted bool
	trace   SeedTrace
}

// seed picks the binding's starting value: the pre-paint hook when present
// and admitted, the descriptor default otherwise. Seeding never fails; a
// guard error counts as a rejection and lands in the trace.
func (st *cellState) seed() {
	c := st.cell
	trace := SeedTrace{Key: c.desc.StoreKey, Hook: c.desc.HookName}
	switch {
	case st.doc == nil:
		trace.Sources = append(trace.Sources, SeedSource{
			Origin: SeedOriginHook,
			Reason: "no document",
		})
	default:
		raw, ok := st.doc.Hook(c.desc.HookName)
		if !ok || raw == "" {
			trace.Sources = append(trace.Sources, SeedSource{
				Origin: SeedOriginHook,
				Reason: "hook unset",
			})
			break
		}
		candidate := c.applyNormalize(raw)
		source := SeedSource{Origin: SeedOriginHook, Value: candidate, Found: true}
		allowed, err := c.check(GuardPhaseSeed, "", candidate)
		switch {
		case err != nil:
			source.Reason = "guard error: " + err.Error()
		case !allowed:
			source.Reason = "guard rejected"
		default:
			source.Accepted = true
			trace.Sources = append(trace.Sources, source)
			trace.Value = candidate
			trace.Origin = SeedOriginHook
			st.value = candidate
			st.trace = trace
			return
		}
		trace.Sources = append(trace.Sources, source)
	}
	trace.Sources = append(trace.Sources, SeedSource{
		Origin:   SeedOriginDefault,
		Value:    c.desc.DefaultValue,
		Found:    true,
		Accepted: true,
	})
	trace.Value = c.desc.DefaultValue
	trace.Origin = SeedOriginDefault
	st.value = c.desc.DefaultValue
	st.trace = trace
}

// mount flips the text channel live. Signals fire at most once; a repeat
// call is harmless.
func (st *cellState) mount() {
	st.mu.Lock()
	st.mounted = true
	st.mu.Unlock()
}

func (st *cellState) snapshot() (value string, mounted bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.value, st.mounted
}

func (c *Cell) stateFrom(ctx context.Context) (*cellState, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotBound, c.desc.StoreKey)
	}
	st, ok := ctx.Value(c.ctxKey).(*cellState)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotBound, c.desc.StoreKey)
	}
	return st, nil
}

func (c *Cell) emitSeeded(st *cellState) {
	if !c.hooks.Enabled() {
		return
	}
	value, _ := st.snapshot()
	event := journal.BuildSeededEvent(journal.PreferenceEventInput{
		ActorID:  st.actor,
		UserID:   st.user,
		TenantID: st.tenant,
		Channel:  c.channel,
		Key:      c.desc.StoreKey,
		Hook:     c.desc.HookName,
		NewValue: value,
		Origin:   string(st.trace.Origin),
	})
	// Journal failures never disturb the binding.
	_ = c.hooks.Notify(context.Background(), event)
}

func (c *Cell) emitUpdated(st *cellState, oldValue, newValue string, persisted bool) {
	if !c.hooks.Enabled() {
		return
	}
	event := journal.BuildUpdatedEvent(journal.PreferenceEventInput{
		ActorID:   st.actor,
		UserID:    st.user,
		TenantID:  st.tenant,
		Channel:   c.channel,
		Key:       c.desc.StoreKey,
		Hook:      c.desc.HookName,
		OldValue:  oldValue,
		NewValue:  newValue,
		Persisted: persisted,
	})
	_ = c.hooks.Notify(context.Background(), event)
}

func cloneJournalHooks(hooks journal.Hooks) journal.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]journal.Hook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return journal.Hooks(normalized)
}

func cloneMetadata(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
