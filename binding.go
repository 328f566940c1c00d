package prefs

import "context"

// Binding is the presentation-channel view of a bound cell. Value always
// carries the real configured value, pre-paint identical to what the
// synthesized routine put on the hook, so styling writes never show a
// default that is about to be replaced.
type Binding struct {
	Value string

	state *cellState
}

// TextBinding is the reader-visible channel. Ready stays false until the
// mount transition; until then render the placeholder, not Value.
type TextBinding struct {
	Value string
	Ready bool

	state *cellState
}

// Presentation reads the binding for styling output.
func (c *Cell) Presentation(ctx context.Context) (Binding, error) {
	st, err := c.stateFrom(ctx)
	if err != nil {
		return Binding{}, err
	}
	value, _ := st.snapshot()
	return Binding{Value: value, state: st}, nil
}

// Text reads the binding for reader-visible output.
func (c *Cell) Text(ctx context.Context) (TextBinding, error) {
	st, err := c.stateFrom(ctx)
	if err != nil {
		return TextBinding{}, err
	}
	value, mounted := st.snapshot()
	binding := TextBinding{Ready: mounted, state: st}
	if mounted {
		binding.Value = value
	}
	return binding, nil
}

// Explain returns the seed provenance recorded when the binding entered
// scope.
func (c *Cell) Explain(ctx context.Context) (SeedTrace, error) {
	st, err := c.stateFrom(ctx)
	if err != nil {
		return SeedTrace{}, err
	}
	return st.trace, nil
}

// Set routes a write through the bound cell: normalize, guard, then the
// triple write covering memory, hook, and store in one step.
func (c *Cell) Set(ctx context.Context, next string) error {
	st, err := c.stateFrom(ctx)
	if err != nil {
		return err
	}
	return st.set(next)
}

// Set writes through the binding. See Cell.Set.
func (b Binding) Set(next string) error {
	if b.state == nil {
		return ErrNotBound
	}
	return b.state.set(next)
}

// Set writes through the binding. Writes are input-driven and inputs imply a
// live page, so Set works before the mount transition too.
func (tb TextBinding) Set(next string) error {
	if tb.state == nil {
		return ErrNotBound
	}
	return tb.state.set(next)
}

func (st *cellState) set(next string) error {
	c := st.cell
	candidate := c.applyNormalize(next)
	st.mu.Lock()
	current := st.value
	st.mu.Unlock()

	allowed, err := c.check(GuardPhaseWrite, current, candidate)
	if err != nil {
		return err
	}
	if !allowed {
		return wrapGuardRuleError(c.engine, c.rule, c.desc.StoreKey, GuardPhaseWrite, ErrGuardRejected)
	}

	// Triple write: no reader observes memory, hook, and store disagreeing.
	st.mu.Lock()
	st.value = candidate
	doc := st.doc
	if doc != nil {
		doc.SetHook(c.desc.HookName, candidate)
		doc.WriteStore(FormatStoreWrite(c.desc.StoreKey, candidate))
	}
	st.mu.Unlock()

	c.emitUpdated(st, current, candidate, doc != nil)
	return nil
}
