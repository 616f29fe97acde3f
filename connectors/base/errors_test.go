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
	"testing"
)

func TestStorageError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *StorageError
		wantMsg string
	}{
		{
			name: "with cause",
			err: &StorageError{
				Code:    404,
				Op:      "get_blob",
				Message: "blob not found",
				Cause:   errors.New("BlobNotFound"),
			},
			wantMsg: "get_blob: [404] blob not found: BlobNotFound",
		},
		{
			name: "without cause",
			err: &StorageError{
				Code:    401,
				Op:      "connect",
				Message: "no account key or SAS token configured",
			},
			wantMsg: "connect: [401] no account key or SAS token configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestStorageError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewStorageError(500, "upload_blob", "upload failed", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
	if NewStorageError(500, "op", "msg", nil).Unwrap() != nil {
		t.Error("Unwrap() should return nil when Cause is nil")
	}
}

func TestNewStorageError_DefaultsTo500(t *testing.T) {
	err := NewStorageError(0, "list_containers", "service unavailable", nil)
	if err.Code != 500 {
		t.Errorf("Code = %d, want 500", err.Code)
	}
	err = NewStorageError(-1, "list_containers", "service unavailable", nil)
	if err.Code != 500 {
		t.Errorf("Code = %d, want 500", err.Code)
	}
}

func TestErrMissingCredentials(t *testing.T) {
	err := ErrMissingCredentials("generate_sas")
	if err.Code != 401 {
		t.Errorf("Code = %d, want 401", err.Code)
	}
	if !IsUnauthenticated(err) {
		t.Error("expected IsUnauthenticated to be true")
	}
	if err.Op != "generate_sas" {
		t.Errorf("Op = %q, want %q", err.Op, "generate_sas")
	}
}

func TestErrInvalidArgument(t *testing.T) {
	err := ErrInvalidArgument("send_message", "visibility timeout out of range")
	if err.Code != 400 {
		t.Errorf("Code = %d, want 400", err.Code)
	}
	if IsNotFound(err) || IsForbidden(err) || IsUnauthenticated(err) {
		t.Error("400 should not match any other class")
	}
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, 0},
		{"storage error", NewStorageError(409, "create_container", "exists", nil), 409},
		{"wrapped storage error", fmt.Errorf("outer: %w", NewStorageError(403, "get_blob", "denied", nil)), 403},
		{"plain error", errors.New("boom"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Code(tt.err); got != tt.want {
				t.Errorf("Code() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorClassHelpers(t *testing.T) {
	notFound := NewStorageError(404, "get_blob", "missing", nil)
	forbidden := NewStorageError(403, "get_blob", "denied", nil)
	conflict := NewStorageError(409, "create_container", "exists", nil)

	if !IsNotFound(notFound) {
		t.Error("expected IsNotFound for 404")
	}
	if !IsForbidden(forbidden) {
		t.Error("expected IsForbidden for 403")
	}
	if !IsConflict(conflict) {
		t.Error("expected IsConflict for 409")
	}
	if IsNotFound(forbidden) || IsForbidden(notFound) {
		t.Error("class helpers must not cross-match")
	}
	if IsNotFound(nil) {
		t.Error("nil error must not match any class")
	}
}
