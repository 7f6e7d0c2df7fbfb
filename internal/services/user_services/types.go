package user_services

// Logger interface for all user services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// mask shortens an identifier for log output.
func mask(s string) string {
	if len(s) <= 4 {
		return s + "****"
	}
	return s[:4] + "****"
}
