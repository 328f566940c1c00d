package prefs

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELGuardOption configures the CEL guard.
type CELGuardOption func(*celGuard)

// CELWithProgramCache wires a ProgramCache into the CEL guard.
func CELWithProgramCache(cache ProgramCache) CELGuardOption {
	return func(g *celGuard) {
		g.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL guard.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELGuardOption {
	return func(g *celGuard) {
		if registry == nil {
			return
		}
		g.registry = registry.Clone()
	}
}

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celGuard struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELGuard constructs a Guard backed by cel-go.
func NewCELGuard(opts ...CELGuardOption) Guard {
	g := &celGuard{}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

func (g *celGuard) Allow(ctx GuardContext, rule string) (bool, error) {
	if rule == "" {
		return false, wrapGuardError("cel", fmt.Errorf("rule must not be empty"))
	}
	ctx = ctx.withDefaults()
	program, err := g.loadOrCompile(rule)
	if err != nil {
		return false, err
	}
	out, _, err := program.program.Eval(g.activation(ctx))
	if err != nil {
		return false, wrapGuardRuleError("cel", rule, ctx.Key, ctx.Phase, err)
	}
	return decisionFromResult("cel", rule, out.Value())
}

func (g *celGuard) Compile(rule string) (CompiledGuard, error) {
	if rule == "" {
		return nil, wrapGuardError("cel", fmt.Errorf("rule must not be empty"))
	}
	program, err := g.loadOrCompile(rule)
	if err != nil {
		return nil, err
	}
	return &celCompiledGuard{
		guard:   g,
		program: program,
		rule:    rule,
	}, nil
}

func (g *celGuard) loadOrCompile(rule string) (*celProgram, error) {
	if g.cache != nil {
		if cached, ok := g.cache.Get(rule); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := g.buildEnv()
	if err != nil {
		return nil, wrapGuardRuleError("cel", rule, "", "", err)
	}
	ast, issues := env.Parse(rule)
	if issues != nil && issues.Err() != nil {
		return nil, wrapGuardRuleError("cel", rule, "", "", issues.Err())
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, wrapGuardRuleError("cel", rule, "", "", issues.Err())
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, wrapGuardRuleError("cel", rule, "", "", err)
	}

	bundle := &celProgram{
		env:     env,
		program: prg,
	}
	if g.cache != nil {
		g.cache.Set(rule, bundle)
	}
	return bundle, nil
}

// buildEnv declares the fixed rule vocabulary. The variable set never varies
// per check, so compiled programs stay valid across contexts.
func (g *celGuard) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("value", celgo.StringType),
		celgo.Variable("current", celgo.StringType),
		celgo.Variable("key", celgo.StringType),
		celgo.Variable("hook", celgo.StringType),
		celgo.Variable("phase", celgo.StringType),
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("metadata", celgo.DynType),
	}
	if g.registry != nil {
		opts = append(opts, celgo.Function("call", g.buildCallOverloads()...))
	}
	return celgo.NewEnv(opts...)
}

// buildCallOverloads declares call(name, args...) for a bounded set of
// arities; CEL overloads are fixed-arity, so the variadic surface is spelled
// out one arity at a time.
func (g *celGuard) buildCallOverloads() []celgo.FunctionOpt {
	const maxArity = 6
	fnOpts := make([]celgo.FunctionOpt, 0, maxArity)
	for arity := 1; arity <= maxArity; arity++ {
		argTypes := make([]*celgo.Type, 1, arity)
		argTypes[0] = celgo.StringType
		for i := 1; i < arity; i++ {
			argTypes = append(argTypes, celgo.DynType)
		}
		fnOpts = append(fnOpts, celgo.Overload(
			fmt.Sprintf("call_string_dyn_%d", arity-1),
			argTypes,
			celgo.DynType,
			celgo.FunctionBinding(g.callBinding()),
		))
	}
	return fnOpts
}

func (g *celGuard) activation(ctx GuardContext) map[string]any {
	activation := map[string]any{
		"value":    ctx.Value,
		"current":  ctx.Current,
		"key":      ctx.Key,
		"hook":     ctx.Hook,
		"phase":    ctx.Phase,
		"now":      ctx.timestamp(),
		"metadata": ctx.Metadata,
	}
	if g.registry != nil {
		activation["call"] = func(name string, arguments ...any) (any, error) {
			return g.registry.Call(name, arguments...)
		}
	}
	return activation
}

type celCompiledGuard struct {
	guard   *celGuard
	program *celProgram
	rule    string
}

func (r *celCompiledGuard) Allow(ctx GuardContext) (bool, error) {
	if r.guard == nil {
		return false, wrapGuardError("cel", fmt.Errorf("compiled guard missing engine"))
	}
	ctx = ctx.withDefaults()
	program := r.program
	if program == nil {
		var err error
		program, err = r.guard.loadOrCompile(r.rule)
		if err != nil {
			return false, err
		}
	}
	out, _, err := program.program.Eval(r.guard.activation(ctx))
	if err != nil {
		return false, wrapGuardRuleError("cel", r.rule, ctx.Key, ctx.Phase, err)
	}
	return decisionFromResult("cel", r.rule, out.Value())
}

func (g *celGuard) callBinding() func(...ref.Val) ref.Val {
	return func(values ...ref.Val) ref.Val {
		if g.registry == nil {
			return types.NewErr("prefs: function registry not configured")
		}
		if len(values) == 0 {
			return types.NewErr("prefs: call requires function name")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("prefs: call name must be string")
		}
		args := make([]any, 0, len(values)-1)
		for _, val := range values[1:] {
			args = append(args, val.Value())
		}
		result, err := g.registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
