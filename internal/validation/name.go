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
	"regexp"
	"strings"
)

const maxNameLength = 255

// namePattern accepts word characters plus non-leading '-', '_' and '.'
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-_.]*$`)

// NameValidator validates actor names and actor path segments
type NameValidator struct {
	name string
}

var _ Validator = (*NameValidator)(nil)

// NewNameValidator creates an instance of NameValidator
func NewNameValidator(name string) *NameValidator {
	return &NameValidator{name: name}
}

// Validate implements validation.Validator.
func (v *NameValidator) Validate() error {
	return New(FailFast()).
		AddValidator(NewEmptyStringValidator("name", v.name)).
		AddAssertion(len(v.name) <= maxNameLength, fmt.Sprintf("name %q exceeds %d characters", v.name, maxNameLength)).
		AddValidator(NewPatternValidator(namePattern, v.name, fmt.Errorf("invalid name %q: must contain only word characters plus non-leading '-', '_' or '.'", v.name))).
		Validate()
}

// PathValidator validates a slash separated actor path
type PathValidator struct {
	path string
}

var _ Validator = (*PathValidator)(nil)

// NewPathValidator creates an instance of PathValidator
func NewPathValidator(path string) *PathValidator {
	return &PathValidator{path: path}
}

// Validate implements validation.Validator.
func (v *PathValidator) Validate() error {
	trimmed := strings.Trim(v.path, "/")
	if trimmed == "" {
		return errors.New("actor path is required")
	}
	for segment := range strings.SplitSeq(trimmed, "/") {
		if err := NewNameValidator(segment).Validate(); err != nil {
			return err
		}
	}
	return nil
}
