package core

// Logger is any logging service.
// expected args fmt: error | map[string]interface{} | any value worth reporting
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
