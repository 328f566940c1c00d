package prefs

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprGuardOption configures an expr guard instance.
type ExprGuardOption func(*exprGuard)

// ExprWithProgramCache wires a ProgramCache into the expr guard.
func ExprWithProgramCache(cache ProgramCache) ExprGuardOption {
	return func(g *exprGuard) {
		g.cache = cache
	}
}

// ExprWithFunctionRegistry wires a FunctionRegistry into the expr guard.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprGuardOption {
	return func(g *exprGuard) {
		if registry == nil {
			return
		}
		g.registry = registry.Clone()
	}
}

// exprGuard judges rules using github.com/expr-lang/expr.
type exprGuard struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprGuard constructs a Guard backed by expr-lang/expr. It is the engine
// WithGuardRule falls back to when no engine is configured.
func NewExprGuard(opts ...ExprGuardOption) Guard {
	g := &exprGuard{}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Allow compiles and runs rule against ctx.
func (g *exprGuard) Allow(ctx GuardContext, rule string) (bool, error) {
	if rule == "" {
		return false, wrapGuardError("expr", fmt.Errorf("rule must not be empty"))
	}
	ctx = ctx.withDefaults()
	env := g.environment(ctx)
	if g.cache == nil {
		result, err := exprlang.Eval(rule, env)
		if err != nil {
			return false, wrapGuardRuleError("expr", rule, ctx.Key, ctx.Phase, err)
		}
		return decisionFromResult("expr", rule, result)
	}
	program, err := g.loadOrCompile(rule)
	if err != nil {
		return false, err
	}
	result, err := exprlang.Run(program, env)
	if err != nil {
		return false, wrapGuardRuleError("expr", rule, ctx.Key, ctx.Phase, err)
	}
	return decisionFromResult("expr", rule, result)
}

// Compile returns a compiled guard that judges rule per invocation.
func (g *exprGuard) Compile(rule string) (CompiledGuard, error) {
	if rule == "" {
		return nil, wrapGuardError("expr", fmt.Errorf("rule must not be empty"))
	}
	program, err := g.loadOrCompile(rule)
	if err != nil {
		return nil, err
	}
	return &exprCompiledGuard{
		guard:   g,
		program: program,
		rule:    rule,
	}, nil
}

func (g *exprGuard) loadOrCompile(rule string) (*exprvm.Program, error) {
	if g.cache != nil {
		if cached, ok := g.cache.Get(rule); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range g.registryNames() {
		fn := g.registryFunction(name)
		options = append(options, exprlang.Function(name, fn))
	}
	program, err := exprlang.Compile(rule, options...)
	if err != nil {
		return nil, wrapGuardRuleError("expr", rule, "", "", err)
	}
	if g.cache != nil {
		g.cache.Set(rule, program)
	}
	return program, nil
}

type exprCompiledGuard struct {
	guard   *exprGuard
	program *exprvm.Program
	rule    string
}

func (r *exprCompiledGuard) Allow(ctx GuardContext) (bool, error) {
	if r.guard == nil {
		return false, wrapGuardError("expr", fmt.Errorf("compiled guard missing engine"))
	}
	ctx = ctx.withDefaults()
	if r.program == nil {
		return r.guard.Allow(ctx, r.rule)
	}
	env := r.guard.environment(ctx)
	result, err := exprlang.Run(r.program, env)
	if err != nil {
		return false, wrapGuardRuleError("expr", r.rule, ctx.Key, ctx.Phase, err)
	}
	return decisionFromResult("expr", r.rule, result)
}

func (g *exprGuard) environment(ctx GuardContext) map[string]any {
	env := map[string]any{
		"value":    ctx.Value,
		"current":  ctx.Current,
		"key":      ctx.Key,
		"hook":     ctx.Hook,
		"phase":    ctx.Phase,
		"now":      ctx.timestamp(),
		"metadata": ctx.Metadata,
	}
	if g.registry != nil {
		env["call"] = func(name string, arguments ...any) (any, error) {
			return g.registry.Call(name, arguments...)
		}
		for _, name := range g.registry.Names() {
			fn := name
			env[fn] = func(arguments ...any) (any, error) {
				return g.registry.Call(fn, arguments...)
			}
		}
	}
	return env
}

func (g *exprGuard) registryNames() []string {
	if g == nil || g.registry == nil {
		return nil
	}
	return g.registry.Names()
}

func (g *exprGuard) registryFunction(name string) func(...any) (any, error) {
	if g == nil || g.registry == nil {
		return nil
	}
	return func(arguments ...any) (any, error) {
		return g.registry.Call(name, arguments...)
	}
}
