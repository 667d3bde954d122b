package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
)

// Log levels, ordered from quietest to noisiest.
const (
	None = iota
	Error
	Warning
	Info
	Debug
)

var levelNames = map[int]string{
	Error:   "ERROR",
	Warning: "WARN",
	Info:    "INFO",
	Debug:   "DEBUG",
}

var (
	currentLevel atomic.Int32
	logger       = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lmicroseconds)
)

func init() {
	currentLevel.Store(Info)
}

// SetLevel sets the global level, clamped to [None, Debug].
func SetLevel(level int) {
	if level < None {
		level = None
	}
	if level > Debug {
		level = Debug
	}
	currentLevel.Store(int32(level))
	if level == Debug {
		output(Debug, 3, "log level set to debug")
	}
}

// GetLevel returns the current global level.
func GetLevel() int {
	return int(currentLevel.Load())
}

// Enabled reports whether messages at level would be written.
func Enabled(level int) bool {
	return level > None && int32(level) <= currentLevel.Load()
}

// ParseLevel maps a level name (case-insensitive) to its constant.
// Unknown names yield Info and an error.
func ParseLevel(name string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "off":
		return None, nil
	case "error":
		return Error, nil
	case "warn", "warning":
		return Warning, nil
	case "info", "":
		return Info, nil
	case "debug":
		return Debug, nil
	}
	return Info, fmt.Errorf("invalid log level '%s'", name)
}

// SetupLogging parses name and applies it, falling back to Info.
// It returns the level that was applied.
func SetupLogging(name string) int {
	level, err := ParseLevel(name)
	if err != nil {
		output(Warning, 3, fmt.Sprintf("%v, using 'info'", err))
	}
	SetLevel(level)
	return level
}

// SetOutput redirects the global logger.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Logf writes a formatted message when level is enabled.
func Logf(level int, format string, v ...interface{}) {
	if !Enabled(level) {
		return
	}
	output(level, 3, fmt.Sprintf(format, v...))
}

// output writes msg with the level tag. Debug lines carry the caller's
// file, line and function; depth is the runtime.Caller skip count.
func output(level int, depth int, msg string) {
	if !Enabled(level) {
		return
	}
	name, ok := levelNames[level]
	if !ok {
		name = "UNKN"
	}
	prefix := "[" + name + "] "
	if level == Debug {
		prefix += caller(depth)
	}
	logger.Println(prefix + msg)
}

func caller(depth int) string {
	pc, file, line, ok := runtime.Caller(depth)
	if !ok {
		return "???:0:??? "
	}
	fn := "???"
	if f := runtime.FuncForPC(pc); f != nil {
		fn = filepath.Base(f.Name())
	}
	return fmt.Sprintf("%s:%d:%s ", filepath.Base(file), line, fn)
}
