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

// Package address provides the representation of actor addresses.
//
// An address identifies a single actor mailbox and is made of the following parts:
//
//   - Protocol: the transport protocol used to reach the actor
//   - Host: network host or IP where the hosting system listens
//   - Port: optional port where the hosting system listens
//   - Path: slash separated name of the actor within its system
//
// The textual representation of an Address is:
//
//	<protocol>://<host>[:<port>]/<path>
//
// Addresses of actors that were never published use the Local protocol and
// the hosting system id as host. Address values are immutable.
package address

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/tochemey/troupe/errors"
	"github.com/tochemey/troupe/internal/validation"
)

// Local is the protocol of actors reachable only within their own process
const Local = "inproc"

// Address represents the address of an actor
type Address struct {
	protocol string
	host     string
	port     int
	path     string
}

// New creates an Address. A zero port is omitted from the textual form.
func New(protocol, host string, port int, path string) Address {
	return Address{
		protocol: strings.ToLower(protocol),
		host:     strings.ToLower(host),
		port:     port,
		path:     strings.Trim(path, "/"),
	}
}

// NewLocal creates the address of an unpublished actor hosted by systemID
func NewLocal(systemID, path string) Address {
	return New(Local, systemID, 0, path)
}

// Parse parses the textual form of an address
func Parse(s string) (Address, error) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return Address{}, errors.NewErrInvalidAddress(s, err)
	}

	if u.Scheme == "" || u.Host == "" {
		return Address{}, errors.NewErrInvalidAddress(s, fmt.Errorf("expected <protocol>://<host>[:<port>]/<path>"))
	}

	port := 0
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return Address{}, errors.NewErrInvalidAddress(s, err)
		}
	}

	addr := New(u.Scheme, u.Hostname(), port, u.Path)
	if err := addr.Validate(); err != nil {
		return Address{}, errors.NewErrInvalidAddress(s, err)
	}
	return addr, nil
}

// MustParse is Parse that panics on error
func MustParse(s string) Address {
	addr, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// Protocol returns the protocol tag
func (a Address) Protocol() string {
	return a.protocol
}

// Host returns the host
func (a Address) Host() string {
	return a.host
}

// Port returns the port, zero when absent
func (a Address) Port() int {
	return a.port
}

// Path returns the actor path without leading slash
func (a Address) Path() string {
	return a.path
}

// HostPort returns host[:port]
func (a Address) HostPort() string {
	if a.port == 0 {
		return a.host
	}
	return net.JoinHostPort(a.host, strconv.Itoa(a.port))
}

// IsLocal reports whether the address uses the Local protocol
func (a Address) IsLocal() bool {
	return a.protocol == Local
}

// IsZero reports whether the address is the zero value
func (a Address) IsZero() bool {
	return a == Address{}
}

// WithPath returns a copy of the address pointing at path
func (a Address) WithPath(path string) Address {
	return New(a.protocol, a.host, a.port, path)
}

// Endpoint returns the address with an empty path. It identifies the
// listener of the hosting system rather than one actor.
func (a Address) Endpoint() Address {
	return Address{protocol: a.protocol, host: a.host, port: a.port}
}

// Equals reports whether both addresses denote the same mailbox
func (a Address) Equals(other Address) bool {
	return a == other
}

// String returns the textual form of the address
func (a Address) String() string {
	if a.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s://%s/%s", a.protocol, a.HostPort(), a.path)
}

// Validate checks the address parts
func (a Address) Validate() error {
	chain := validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("protocol", a.protocol)).
		AddValidator(validation.NewEmptyStringValidator("host", a.host)).
		AddValidator(validation.NewPathValidator(a.path))

	if a.port != 0 {
		chain.AddValidator(validation.NewTCPAddressValidator(net.JoinHostPort(a.host, strconv.Itoa(a.port))))
	}
	return chain.Validate()
}

// MarshalText implements encoding.TextMarshaler
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *Address) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*a = Address{}
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
