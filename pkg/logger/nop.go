package logger

// nopLogger discards everything. Used as the default where a logger is
// optional.
type nopLogger struct{}

// NewNopLogger returns a logger that discards all output.
func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) Info(string, ...LogField)         {}
func (nopLogger) Error(string, ...LogField)        {}
func (nopLogger) Debug(string, ...LogField)        {}
func (nopLogger) Warn(string, ...LogField)         {}
func (nopLogger) WithFields(...LogField) Logger    { return nopLogger{} }
func (nopLogger) WithCorrelationID(string) Logger  { return nopLogger{} }
