package logger

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Logger interface {
	Info(action, message, requestID string, details map[string]interface{})
	Debug(action, message, requestID string, details map[string]interface{})
	Warn(action, message, requestID string, details map[string]interface{}, err error)
	Error(action, message, requestID string, details map[string]interface{}, err error)
}

var levelRank = map[string]int{
	"DEBUG": 0,
	"INFO":  1,
	"WARN":  2,
	"ERROR": 3,
}

type jsonLogger struct {
	service  string
	hostname string
	minLevel int
	out      io.Writer
	mu       sync.Mutex
}

// New returns a logger writing JSON lines to stdout. level is one of
// debug, info, warn, error; anything else means debug.
func New(service, level string) Logger {
	return NewWithWriter(service, level, os.Stdout)
}

func NewWithWriter(service, level string, out io.Writer) Logger {
	hostname, _ := os.Hostname()
	return &jsonLogger{
		service:  service,
		hostname: hostname,
		minLevel: levelRank[strings.ToUpper(level)],
		out:      out,
	}
}

func (l *jsonLogger) Info(action, message, requestID string, details map[string]interface{}) {
	l.log("INFO", action, message, requestID, details, nil)
}

func (l *jsonLogger) Debug(action, message, requestID string, details map[string]interface{}) {
	l.log("DEBUG", action, message, requestID, details, nil)
}

func (l *jsonLogger) Warn(action, message, requestID string, details map[string]interface{}, err error) {
	l.log("WARN", action, message, requestID, details, err)
}

func (l *jsonLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
	l.log("ERROR", action, message, requestID, details, err)
}

func (l *jsonLogger) log(level, action, message, requestID string, details map[string]interface{}, err error) {
	if levelRank[level] < l.minLevel {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Service:   l.service,
		Hostname:  l.hostname,
		RequestID: requestID,
		Action:    action,
		Message:   message,
		Details:   details,
	}

	if err != nil {
		entry.Error = &ErrorInfo{
			Msg:  err.Error(),
			Type: errorType(err),
		}
	}

	json.NewEncoder(l.out).Encode(entry)
}

// Nop discards everything. Handy in tests.
func Nop() Logger {
	return NewWithWriter("nop", "error", io.Discard)
}
