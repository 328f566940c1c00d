package prefs

import (
	"fmt"

	"github.com/dop251/goja"
)

// JSGuardOption configures the JS guard.
type JSGuardOption func(*jsGuard)

// JSWithProgramCache wires a ProgramCache into the JS guard.
func JSWithProgramCache(cache ProgramCache) JSGuardOption {
	return func(g *jsGuard) {
		g.cache = cache
	}
}

// JSWithFunctionRegistry wires a FunctionRegistry into the JS guard.
func JSWithFunctionRegistry(registry *FunctionRegistry) JSGuardOption {
	return func(g *jsGuard) {
		if registry == nil {
			return
		}
		g.registry = registry.Clone()
	}
}

// jsGuard judges rules using goja. Rules run in the same dialect the
// synthesized routine is written in, so a deployment can keep a single rule
// language across server and document.
type jsGuard struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewJSGuard constructs a Guard backed by goja.
func NewJSGuard(opts ...JSGuardOption) Guard {
	g := &jsGuard{}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

func (g *jsGuard) Allow(ctx GuardContext, rule string) (bool, error) {
	if rule == "" {
		return false, wrapGuardError("js", fmt.Errorf("rule must not be empty"))
	}
	ctx = ctx.withDefaults()
	if g.cache == nil {
		return g.run(ctx, rule, nil)
	}
	program, err := g.loadOrCompile(rule)
	if err != nil {
		return false, err
	}
	return g.run(ctx, rule, program)
}

func (g *jsGuard) Compile(rule string) (CompiledGuard, error) {
	if rule == "" {
		return nil, wrapGuardError("js", fmt.Errorf("rule must not be empty"))
	}
	program, err := g.loadOrCompile(rule)
	if err != nil {
		return nil, err
	}
	return &jsCompiledGuard{
		guard:   g,
		rule:    rule,
		program: program,
	}, nil
}

func (g *jsGuard) loadOrCompile(rule string) (*goja.Program, error) {
	if g.cache != nil {
		if cached, ok := g.cache.Get(rule); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", g.wrapRule(rule), false)
	if err != nil {
		return nil, wrapGuardRuleError("js", rule, "", "", err)
	}
	if g.cache != nil {
		g.cache.Set(rule, program)
	}
	return program, nil
}

func (g *jsGuard) run(ctx GuardContext, rule string, program *goja.Program) (bool, error) {
	vm := goja.New()
	g.injectContext(vm, ctx)
	if program != nil {
		value, err := vm.RunProgram(program)
		if err != nil {
			return false, wrapGuardRuleError("js", rule, ctx.Key, ctx.Phase, err)
		}
		return decisionFromResult("js", rule, value.Export())
	}
	value, err := vm.RunString(g.wrapRule(rule))
	if err != nil {
		return false, wrapGuardRuleError("js", rule, ctx.Key, ctx.Phase, err)
	}
	return decisionFromResult("js", rule, value.Export())
}

func (g *jsGuard) injectContext(vm *goja.Runtime, ctx GuardContext) {
	vm.Set("value", ctx.Value)
	vm.Set("current", ctx.Current)
	vm.Set("key", ctx.Key)
	vm.Set("hook", ctx.Hook)
	vm.Set("phase", ctx.Phase)
	vm.Set("now", ctx.timestamp())
	vm.Set("metadata", ctx.Metadata)
	if g.registry != nil {
		vm.Set("call", func(name string, arguments ...any) (any, error) {
			return g.registry.Call(name, arguments...)
		})
		for _, name := range g.registry.Names() {
			fn := name
			vm.Set(fn, func(arguments ...any) (any, error) {
				return g.registry.Call(fn, arguments...)
			})
		}
	}
}

func (g *jsGuard) wrapRule(rule string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", rule)
}

type jsCompiledGuard struct {
	guard   *jsGuard
	rule    string
	program *goja.Program
}

func (r *jsCompiledGuard) Allow(ctx GuardContext) (bool, error) {
	if r.guard == nil {
		return false, wrapGuardError("js", fmt.Errorf("compiled guard missing engine"))
	}
	ctx = ctx.withDefaults()
	return r.guard.run(ctx, r.rule, r.program)
}
