package ports

// Logger is the logging surface components depend on. apex/log's *Logger
// and *Entry both satisfy it.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
}
