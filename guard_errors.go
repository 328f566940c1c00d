package prefs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrGuardRejected reports an orderly rejection: the rule evaluated cleanly
// and answered false.
var ErrGuardRejected = errors.New("prefs: guard rejected value")

// GuardError captures guard engine metadata alongside the originating error.
type GuardError struct {
	Engine string
	Rule   string
	Key    string
	Phase  string
	Err    error
}

func (e *GuardError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("prefs: %s guard %s key=%s phase=%s: %v", e.Engine, describeRule(e.Rule), e.Key, e.Phase, e.Err)
}

func (e *GuardError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeRule(rule string) string {
	if rule == "" {
		return "rule=<empty>"
	}
	return fmt.Sprintf("rule=%q", rule)
}

func wrapGuardError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var guardErr *GuardError
	if errors.As(err, &guardErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "prefs:") {
		return err
	}
	return fmt.Errorf("prefs: %s guard: %w", engine, err)
}

func wrapGuardRuleError(engine, rule, key, phase string, err error) error {
	if err == nil {
		return nil
	}

	var guardErr *GuardError
	if errors.As(err, &guardErr) {
		if guardErr.Engine == "" {
			guardErr.Engine = engine
		}
		if guardErr.Rule == "" {
			guardErr.Rule = rule
		}
		if guardErr.Key == "" {
			guardErr.Key = key
		}
		if guardErr.Phase == "" {
			guardErr.Phase = phase
		}
		return guardErr
	}

	return &GuardError{
		Engine: engine,
		Rule:   rule,
		Key:    key,
		Phase:  phase,
		Err:    err,
	}
}
