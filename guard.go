package prefs

import (
	"fmt"
	"time"
)

// Guard phases. Seed guards vet values recovered from a pre-paint hook
// during Bind; write guards vet values handed to Set.
const (
	GuardPhaseSeed  = "seed"
	GuardPhaseWrite = "write"
)

// GuardContext carries the inputs a guard rule sees. Value is the candidate
// under judgement; Current is the cell's value before the change, empty while
// seeding.
type GuardContext struct {
	Key      string
	Hook     string
	Value    string
	Current  string
	Phase    string
	Now      *time.Time
	Metadata map[string]any
}

func (ctx GuardContext) withDefaultNow() GuardContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx GuardContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx GuardContext) withDefaultMetadata() GuardContext {
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx GuardContext) withDefaults() GuardContext {
	return ctx.withDefaultNow().withDefaultMetadata()
}

// Guard judges candidate values against a rule expression. A (false, nil)
// verdict is an orderly rejection; an error means the rule itself failed.
type Guard interface {
	Allow(ctx GuardContext, rule string) (bool, error)
	Compile(rule string) (CompiledGuard, error)
}

// CompiledGuard is a reusable rule program bound to its engine.
type CompiledGuard interface {
	Allow(ctx GuardContext) (bool, error)
}

func guardEngineName(g Guard) string {
	if g == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", g) {
	case "*prefs.exprGuard":
		return "expr"
	case "*prefs.celGuard":
		return "cel"
	case "*prefs.jsGuard":
		return "js"
	default:
		return "custom"
	}
}

// decisionFromResult narrows an engine result to the boolean verdict a guard
// must produce.
func decisionFromResult(engine, rule string, result any) (bool, error) {
	verdict, ok := result.(bool)
	if !ok {
		return false, wrapGuardRuleError(engine, rule, "", "", fmt.Errorf("rule produced %T, want bool", result))
	}
	return verdict, nil
}
