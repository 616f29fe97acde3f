// Copyright 2025 The azstor Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package base

import (
	"errors"
	"fmt"
	"net/http"
)

// StorageError is the single failure type surfaced by all connector
// operations. Code carries the HTTP status reported by the storage service
// when one is available; locally detected failures use 400 for invalid
// arguments and 401 for missing credentials. Everything else defaults to 500.
type StorageError struct {
	Code    int    // HTTP-style status code
	Op      string // Operation that failed (create_container, send_message, ...)
	Message string // Human-readable description
	Cause   error  // Underlying SDK or transport error, if any
}

func (e *StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: [%d] %s: %v", e.Op, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: [%d] %s", e.Op, e.Code, e.Message)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a StorageError with an explicit status code.
// A non-positive code is normalized to 500.
func NewStorageError(code int, op, message string, cause error) *StorageError {
	if code <= 0 {
		code = http.StatusInternalServerError
	}
	return &StorageError{Code: code, Op: op, Message: message, Cause: cause}
}

// ErrMissingCredentials reports that a connector was constructed without an
// account key or SAS token. The 401 code mirrors what the service would
// return for an unauthenticated request.
func ErrMissingCredentials(op string) *StorageError {
	return &StorageError{
		Code:    http.StatusUnauthorized,
		Op:      op,
		Message: "no account key or SAS token configured",
	}
}

// ErrInvalidArgument reports a locally detected bad parameter, before any
// request is sent to the service.
func ErrInvalidArgument(op, message string) *StorageError {
	return &StorageError{Code: http.StatusBadRequest, Op: op, Message: message}
}

// Code extracts the status code from err. It returns 0 when err is nil and
// 500 when err is not a StorageError.
func Code(err error) int {
	if err == nil {
		return 0
	}
	var se *StorageError
	if errors.As(err, &se) {
		return se.Code
	}
	return http.StatusInternalServerError
}

// IsNotFound reports whether err represents a missing container, blob,
// queue, or message (HTTP 404).
func IsNotFound(err error) bool {
	return Code(err) == http.StatusNotFound
}

// IsForbidden reports whether err represents a permission failure (HTTP 403),
// e.g. a SAS token without the required permission letter.
func IsForbidden(err error) bool {
	return Code(err) == http.StatusForbidden
}

// IsUnauthenticated reports whether err represents absent or rejected
// credentials (HTTP 401).
func IsUnauthenticated(err error) bool {
	return Code(err) == http.StatusUnauthorized
}

// IsConflict reports whether err represents a resource that already exists
// or is mid-deletion (HTTP 409).
func IsConflict(err error) bool {
	return Code(err) == http.StatusConflict
}
