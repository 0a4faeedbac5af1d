// Package logging holds the structured logging surface shared by the registry and
// every wrapper it builds. internal/logger adapts zap to it.
package logging

// Logger logs one object as a single structured field named key.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) InfoObj(string, string, interface{})  {}
func (Nop) DebugObj(string, string, interface{}) {}
func (Nop) WarnObj(string, string, interface{})  {}
func (Nop) ErrorObj(string, string, interface{}) {}

// Ensure returns log, or Nop when log is nil.
func Ensure(log Logger) Logger {
	if log == nil {
		return Nop{}
	}
	return log
}
