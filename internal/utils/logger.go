// Package utils provides logging, path validation and small file helpers
// shared across the pipeline.
package utils

import (
	"fmt"
	"os"
	"strings"
)

// LogLevel represents the level of logging verbosity
type LogLevel int

const (
	// LevelQuiet suppresses all output except errors
	LevelQuiet LogLevel = iota
	// LevelNormal shows standard pipeline progress
	LevelNormal
	// LevelVerbose shows detailed information about each step
	LevelVerbose
	// LevelDebug shows all debugging information
	LevelDebug
)

// Terminal color codes using ANSI escape sequences
const (
	resetColor   = "\033[0m"
	redColor     = "\033[31m" // errors
	greenColor   = "\033[32m" // success/completion
	yellowColor  = "\033[33m" // warnings
	blueColor    = "\033[34m" // step progress
	magentaColor = "\033[35m" // emphasis
	cyanColor    = "\033[36m" // debug
)

// CurrentLogLevel is the global log level setting
var CurrentLogLevel = LevelNormal

// SetLogLevel sets the global logging level
func SetLogLevel(level LogLevel) {
	CurrentLogLevel = level
}

// LogLevelFromString converts a string level name to LogLevel
func LogLevelFromString(level string) LogLevel {
	switch strings.ToLower(level) {
	case "quiet", "q":
		return LevelQuiet
	case "normal", "n":
		return LevelNormal
	case "verbose", "v":
		return LevelVerbose
	case "debug", "d":
		return LevelDebug
	default:
		return LevelNormal
	}
}

func colored(text, color string) string {
	return color + text + resetColor
}

// Highlight returns magenta-colored text for emphasized content
func Highlight(text string) string {
	return colored(text, magentaColor)
}

// ErrorText returns red-colored text for error messages
func ErrorText(text string) string {
	return colored(text, redColor)
}

// LogError logs an error message (always shown)
func LogError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s\n", colored(fmt.Sprintf(format, args...), redColor))
}

// LogInfo logs an informational message at Normal+ level
func LogInfo(format string, args ...interface{}) {
	if CurrentLogLevel >= LevelNormal {
		fmt.Printf("%s\n", colored(fmt.Sprintf(format, args...), blueColor))
	}
}

// LogSuccess logs a success message at Normal+ level
func LogSuccess(format string, args ...interface{}) {
	if CurrentLogLevel >= LevelNormal {
		fmt.Printf("%s\n", colored(fmt.Sprintf(format, args...), greenColor))
	}
}

// LogWarning logs a warning message at Normal+ level
func LogWarning(format string, args ...interface{}) {
	if CurrentLogLevel >= LevelNormal {
		fmt.Printf("%s\n", colored(fmt.Sprintf(format, args...), yellowColor))
	}
}

// LogVerbose logs a message at Verbose+ level
func LogVerbose(format string, args ...interface{}) {
	if CurrentLogLevel >= LevelVerbose {
		fmt.Printf("\t%s\n", colored(fmt.Sprintf(format, args...), blueColor))
	}
}

// LogDebug logs a debug message at Debug level
func LogDebug(format string, args ...interface{}) {
	if CurrentLogLevel >= LevelDebug {
		fmt.Printf("\t%s\n", colored(fmt.Sprintf(format, args...), cyanColor))
	}
}
