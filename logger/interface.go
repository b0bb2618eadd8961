/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package logger

import (
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Level is the logging severity, from most to least severe.
type Level uint8

const (
	ErrorLevel Level = iota
	WarnLevel
	InfoLevel
	DebugLevel
	// NilLevel disables logging.
	NilLevel
)

// FuncLog returns the Logger a component must use. Used for injection and
// lazy initialization.
type FuncLog func() Logger

// Logger is the minimal structured logging surface used by the engine.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
}

func (l Level) String() string {
	switch l {
	case ErrorLevel:
		return "Error"
	case WarnLevel:
		return "Warning"
	case InfoLevel:
		return "Info"
	case DebugLevel:
		return "Debug"
	}
	return ""
}

// Parse converts a string to a Level, case-insensitively. Unrecognized
// inputs map to InfoLevel.
func Parse(s string) Level {
	switch {
	case strings.EqualFold(s, ErrorLevel.String()):
		return ErrorLevel
	case strings.EqualFold(s, WarnLevel.String()):
		return WarnLevel
	case strings.EqualFold(s, DebugLevel.String()):
		return DebugLevel
	default:
		return InfoLevel
	}
}

func (l Level) logrus() logrus.Level {
	switch l {
	case ErrorLevel:
		return logrus.ErrorLevel
	case WarnLevel:
		return logrus.WarnLevel
	case DebugLevel:
		return logrus.DebugLevel
	case NilLevel:
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

var defLevel atomic.Uint32

// SetLevel sets the process-wide log level.
func SetLevel(l Level) {
	defLevel.Store(uint32(l))
	std.SetLevel(l.logrus())
}

// GetLevel returns the process-wide log level.
func GetLevel() Level {
	return Level(defLevel.Load())
}

// Default returns the package default logger.
func Default() Logger {
	return &log{e: logrus.NewEntry(std)}
}

func init() {
	defLevel.Store(uint32(InfoLevel))
}
