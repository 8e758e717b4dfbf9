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
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Level   string `json:"level"`
	Msg     string `json:"msg"`
	Caller  string `json:"caller"`
	Actor   string `json:"actor"`
	Reason  string `json:"reason"`
	Missing any    `json:"_"`
}

func decode(t *testing.T, buffer *bytes.Buffer) entry {
	t.Helper()
	var e entry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buffer.String())), &e))
	buffer.Reset()
	return e
}

func TestZap(t *testing.T) {
	t.Run("With Info log", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		logger.Info("test info")
		e := decode(t, buffer)
		assert.Equal(t, "info", e.Level)
		assert.Equal(t, "test info", e.Msg)
		assert.Contains(t, e.Caller, "zap_test.go")
		assert.Equal(t, InfoLevel, logger.LogLevel())
	})
	t.Run("With Debug disabled at Info", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		logger.Debugf("hidden %d", 1)
		assert.Empty(t, buffer.String())
		assert.False(t, logger.Enabled(DebugLevel))
		assert.True(t, logger.Enabled(ErrorLevel))
		assert.False(t, logger.Enabled(InvalidLevel))
	})
	t.Run("With formatted warning", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(WarningLevel, buffer)
		logger.Warnf("mailbox %s dropped %d", "a", 2)
		e := decode(t, buffer)
		assert.Equal(t, "warn", e.Level)
		assert.Equal(t, "mailbox a dropped 2", e.Msg)
		assert.Equal(t, WarningLevel, logger.LogLevel())
	})
	t.Run("With structured fields", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(DebugLevel, buffer).With("actor", "adder", 42, "skipped", "reason", errors.New("boom"), "dangling")
		logger.Error("stopped")
		e := decode(t, buffer)
		assert.Equal(t, "error", e.Level)
		assert.Equal(t, "adder", e.Actor)
		assert.Equal(t, "boom", e.Reason)
		assert.Equal(t, "dangling", e.Missing)
		assert.NoError(t, logger.Flush())
	})
}

func TestDiscardLogger(t *testing.T) {
	DiscardLogger.Info("nothing")
	DiscardLogger.Errorf("nothing %d", 1)
	assert.Equal(t, DiscardLogger, DiscardLogger.With("k", "v"))
	assert.False(t, DiscardLogger.Enabled(ErrorLevel))
	assert.NoError(t, DiscardLogger.Flush())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, ErrorLevel, ParseLevel("ERROR"))
	assert.Equal(t, WarningLevel, ParseLevel("warn"))
	assert.Equal(t, InvalidLevel, ParseLevel("verbose"))
	assert.Equal(t, "WARNING", WarningLevel.String())
	assert.Equal(t, "INVALID", InvalidLevel.String())
}
