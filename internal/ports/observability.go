package ports

type Observability interface {
	LogDebug(msg string, fields ...Field)
	LogInfo(msg string, fields ...Field)
	LogWarn(msg string, fields ...Field)
	LogError(msg string, err error, fields ...Field)
	LogCritical(msg string, err error, fields ...Field)

	IncCounter(name string, v float64)
	ObserveLatency(name string, seconds float64)

	SetGauge(name string, v float64)

	// RecordDropped counts one event abandoned at the named stage.
	RecordDropped(stage string, err error, fields ...Field)
}

type Field struct {
	Key   string
	Value any
}

// F is shorthand for Field{Key: k, Value: v}.
func F(k string, v any) Field { return Field{Key: k, Value: v} }
