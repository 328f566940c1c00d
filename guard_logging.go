package prefs

import "time"

// GuardLogEvent describes one guard check for logging.
type GuardLogEvent struct {
	Engine   string
	Rule     string
	Key      string
	Phase    string
	Allowed  bool
	Duration time.Duration
	Err      error
}

// GuardLogger records guard checks.
type GuardLogger interface {
	LogGuardCheck(GuardLogEvent)
}

// GuardLoggerFunc adapts a function to GuardLogger.
type GuardLoggerFunc func(GuardLogEvent)

// LogGuardCheck implements GuardLogger.
func (f GuardLoggerFunc) LogGuardCheck(event GuardLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopGuardLogger struct{}

func (noopGuardLogger) LogGuardCheck(GuardLogEvent) {}
