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
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// DefaultLogger writes JSON entries at InfoLevel and above to os.Stdout
	DefaultLogger Logger = NewZap(InfoLevel, os.Stdout)
	// DebugLogger writes JSON entries at every level to os.Stdout
	DebugLogger Logger = NewZap(DebugLevel, os.Stdout)
)

// Zap is a Logger backed by a zap sugared logger
type Zap struct {
	*zap.SugaredLogger
	base *zap.Logger
}

var _ Logger = (*Zap)(nil)

// NewZap creates a Zap logger writing JSON entries at level and above to writers
func NewZap(level Level, writers ...io.Writer) *Zap {
	syncers := make([]zapcore.WriteSyncer, len(writers))
	for i, writer := range writers {
		syncers[i] = zapcore.AddSync(writer)
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zap.CombineWriteSyncers(syncers...),
		level.zap())

	base := zap.New(core, zap.AddCaller())
	return &Zap{SugaredLogger: base.Sugar(), base: base}
}

// LogLevel implements Logger
func (z *Zap) LogLevel() Level {
	return fromZap(z.base.Level())
}

// Enabled implements Logger
func (z *Zap) Enabled(level Level) bool {
	_, known := zapLevels[level]
	return known && z.base.Core().Enabled(level.zap())
}

// With implements Logger. Non string keys are skipped and a trailing key
// without value is recorded under "_".
func (z *Zap) With(keyValues ...any) Logger {
	if len(keyValues) == 0 {
		return z
	}

	fields := make([]zap.Field, 0, len(keyValues)/2+1)
	for i := 0; i < len(keyValues); i += 2 {
		if i == len(keyValues)-1 {
			fields = append(fields, zap.Any("_", keyValues[i]))
			break
		}
		if key, ok := keyValues[i].(string); ok {
			fields = append(fields, field(key, keyValues[i+1]))
		}
	}

	base := z.base.With(fields...)
	return &Zap{SugaredLogger: base.Sugar(), base: base}
}

// Flush implements Logger
func (z *Zap) Flush() error {
	// syncing a terminal fails on some platforms
	_ = z.base.Sync()
	return nil
}

func field(key string, value any) zap.Field {
	switch v := value.(type) {
	case error:
		return zap.NamedError(key, v)
	case time.Duration:
		return zap.Duration(key, v)
	case string:
		return zap.String(key, v)
	default:
		return zap.Any(key, v)
	}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}
