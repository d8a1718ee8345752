package logger

// LoggerInstance defines the interface for logging backends.
type LoggerInstance interface {
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

// Logger holds multiple logging backends and dispatches log calls to all of them.
type Logger struct {
	instances []LoggerInstance
	keyvals   []any
}

var singleton *Logger

// Init initializes the global logger with one or more logging backends.
// Calls made before Init are dropped.
func Init(instances ...LoggerInstance) {
	singleton = &Logger{
		instances: instances,
	}
}

// With returns a logger that prepends keyvals to every call. The returned
// logger shares the backends of the global logger at the time of the call.
//
// Example:
//
//	log := logger.With("snapshot_id", snap.ID)
//	log.Info("[Graph] Snapshot published", "nodes", snap.NodeCount())
func With(keyvals ...any) *Logger {
	l := singleton
	if l == nil {
		return &Logger{}
	}
	return l.With(keyvals...)
}

// With returns a child logger carrying keyvals in addition to l's own.
func (l *Logger) With(keyvals ...any) *Logger {
	merged := make([]any, 0, len(l.keyvals)+len(keyvals))
	merged = append(merged, l.keyvals...)
	merged = append(merged, keyvals...)
	return &Logger{instances: l.instances, keyvals: merged}
}

func (l *Logger) merge(keyvals []any) []any {
	if len(l.keyvals) == 0 {
		return keyvals
	}
	out := make([]any, 0, len(l.keyvals)+len(keyvals))
	out = append(out, l.keyvals...)
	return append(out, keyvals...)
}

func (l *Logger) Debug(message string, keyvals ...any) {
	kv := l.merge(keyvals)
	for _, instance := range l.instances {
		instance.Debug(message, kv...)
	}
}

func (l *Logger) Info(message string, keyvals ...any) {
	kv := l.merge(keyvals)
	for _, instance := range l.instances {
		instance.Info(message, kv...)
	}
}

func (l *Logger) Warn(message string, keyvals ...any) {
	kv := l.merge(keyvals)
	for _, instance := range l.instances {
		instance.Warn(message, kv...)
	}
}

func (l *Logger) Error(message string, keyvals ...any) {
	kv := l.merge(keyvals)
	for _, instance := range l.instances {
		instance.Error(message, kv...)
	}
}

func (l *Logger) Fatal(message string, keyvals ...any) {
	kv := l.merge(keyvals)
	for _, instance := range l.instances {
		instance.Fatal(message, kv...)
	}
}

// Info writes a message at INFO level to all configured backends.
func Info(message string, keyvals ...any) {
	if singleton == nil {
		return
	}
	singleton.Info(message, keyvals...)
}

// Warn writes a message at WARN level to all configured backends.
func Warn(message string, keyvals ...any) {
	if singleton == nil {
		return
	}
	singleton.Warn(message, keyvals...)
}

// Error writes a message at ERROR level to all configured backends.
func Error(message string, keyvals ...any) {
	if singleton == nil {
		return
	}
	singleton.Error(message, keyvals...)
}

// Debug writes a message at DEBUG level to all configured backends.
func Debug(message string, keyvals ...any) {
	if singleton == nil {
		return
	}
	singleton.Debug(message, keyvals...)
}

// Fatal writes a message at FATAL level and terminates the program.
func Fatal(message string, keyvals ...any) {
	if singleton == nil {
		return
	}
	singleton.Fatal(message, keyvals...)
}
