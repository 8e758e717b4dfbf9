/*
 * MIT License
 *
 * Copyright (c) 2022-2025 Arsene Tochemey Gandote
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
 */

package log

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// Level specifies the log level
type Level int

const (
	InfoLevel Level = iota
	WarningLevel
	ErrorLevel
	DebugLevel
	// InvalidLevel is returned for unknown level names
	InvalidLevel
)

var levelNames = map[Level]string{
	InfoLevel:    "INFO",
	WarningLevel: "WARNING",
	ErrorLevel:   "ERROR",
	DebugLevel:   "DEBUG",
}

var zapLevels = map[Level]zapcore.Level{
	InfoLevel:    zapcore.InfoLevel,
	WarningLevel: zapcore.WarnLevel,
	ErrorLevel:   zapcore.ErrorLevel,
	DebugLevel:   zapcore.DebugLevel,
}

// String returns the level name
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "INVALID"
}

// ParseLevel returns the Level named name, case insensitive, InvalidLevel otherwise.
// "warn" is accepted for WarningLevel.
func ParseLevel(name string) Level {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "WARN" {
		return WarningLevel
	}
	for level, levelName := range levelNames {
		if levelName == name {
			return level
		}
	}
	return InvalidLevel
}

func (l Level) zap() zapcore.Level {
	if level, ok := zapLevels[l]; ok {
		return level
	}
	return zapcore.DebugLevel
}

func fromZap(level zapcore.Level) Level {
	for l, z := range zapLevels {
		if z == level {
			return l
		}
	}
	return InvalidLevel
}
