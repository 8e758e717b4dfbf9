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

package validation

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
)

// Assert fails with message when ok is false
func Assert(ok bool, message string) Validator {
	return Func(func() error {
		if ok {
			return nil
		}
		return errors.New(message)
	})
}

// NewEmptyStringValidator rejects a blank value
func NewEmptyStringValidator(field, value string) Validator {
	return Func(func() error {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("the [%s] is required", field)
		}
		return nil
	})
}

// NewPatternValidator rejects a value not matched by pattern. err is returned
// on mismatch, a generic error when nil.
func NewPatternValidator(pattern *regexp.Regexp, value string, err error) Validator {
	return Func(func() error {
		if pattern.MatchString(value) {
			return nil
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("%q does not match %s", value, pattern)
	})
}

// NewTCPAddressValidator checks a host:port pair. Port zero is accepted and
// stands for a port picked at listen time.
func NewTCPAddressValidator(hostPort string) Validator {
	return Func(func() error {
		host, portStr, err := net.SplitHostPort(strings.TrimSpace(hostPort))
		if err != nil {
			return fmt.Errorf("invalid address=(%s): %w", hostPort, err)
		}
		if host == "" {
			return fmt.Errorf("invalid address=(%s): missing host", hostPort)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil || port < 0 || port > 65535 {
			return fmt.Errorf("invalid address=(%s): port out of range", hostPort)
		}
		return nil
	})
}
