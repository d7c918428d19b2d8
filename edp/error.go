// Copyright 2025 GSU Analytics

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package edp

import (
	"errors"
	"fmt"
)

// TransportError indicates a network level failure before any HTTP status was
// received.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError indicates that the remote request failed with a non-2xx HTTP
// status. It carries the status code and the raw response body for
// diagnostics.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote request failed: status %d: %s", e.StatusCode, e.Body)
}

// MalformedError indicates that the response body is not valid JSON, or is
// valid JSON missing the expected envelope fields.
type MalformedError struct {
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return "malformed response: " + e.Reason + ": " + e.Err.Error()
	}
	return "malformed response: " + e.Reason
}

func (e *MalformedError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status code carried by err, or 0 when err does
// not wrap a StatusError. It looks through annotation chains.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// IsTransport tests whether err wraps a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsMalformed tests whether err wraps a MalformedError.
func IsMalformed(err error) bool {
	var me *MalformedError
	return errors.As(err, &me)
}
