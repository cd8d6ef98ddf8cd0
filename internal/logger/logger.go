// Package logger provides leveled logging for HyllaDB components.
//
// The store is an embedded library, so logging defaults to quiet (WARN) and
// writes to stderr. Applications embedding the library can raise the level
// and redirect output without pulling in a logging framework of their own.
package logger

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu           sync.Mutex
	currentLevel = LevelWarn
	logger       = stdlog.New(os.Stderr, "", 0)
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// SetLevel sets the minimum level that will be written. Unrecognized names
// are ignored so a bad config value cannot silence errors.
func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToUpper(level) {
	case "DEBUG":
		currentLevel = LevelDebug
	case "INFO":
		currentLevel = LevelInfo
	case "WARN":
		currentLevel = LevelWarn
	case "ERROR":
		currentLevel = LevelError
	}
}

// SetOutput redirects log output, e.g. to a file or a test buffer.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = stdlog.New(w, "", 0)
}

func write(level Level, format string, v ...any) {
	mu.Lock()
	defer mu.Unlock()
	if level < currentLevel {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	prefix := fmt.Sprintf("[%s] [%s] ", timestamp, level.String())
	logger.Println(prefix + fmt.Sprintf(format, v...))
}

func Debug(format string, v ...any) {
	write(LevelDebug, format, v...)
}

func Info(format string, v ...any) {
	write(LevelInfo, format, v...)
}

func Warn(format string, v ...any) {
	write(LevelWarn, format, v...)
}

func Error(format string, v ...any) {
	write(LevelError, format, v...)
}
