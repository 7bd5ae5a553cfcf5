package cli

import "go.uber.org/zap"

// agentLogger wraps zap for verbose debug output on stderr.
type agentLogger struct {
	sugared *zap.SugaredLogger
}

func newAgentLogger(globals *Globals) *agentLogger {
	if globals == nil || !globals.Verbose {
		return &agentLogger{}
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	cfg.Encoding = "json"
	cfg.OutputPaths = []string{"stderr"}
	logger, _ := cfg.Build()
	return &agentLogger{sugared: logger.Sugar()}
}

func (l *agentLogger) Debug(format string, args ...interface{}) {
	if l.sugared == nil {
		return
	}
	l.sugared.Debugf(format, args...)
}

// zapLogger exposes the underlying structured logger for components that
// take a *zap.Logger. Nop when verbose is off.
func (l *agentLogger) zapLogger() *zap.Logger {
	if l.sugared == nil {
		return zap.NewNop()
	}
	return l.sugared.Desugar()
}
