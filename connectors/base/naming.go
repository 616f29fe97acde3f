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
	"fmt"
	"regexp"
	"strings"
)

// Container, bucket, and queue names share the same vendor rules: 3-63
// characters, lowercase letters, digits, and single hyphens, starting and
// ending with a letter or digit. Validating locally turns a malformed name
// into a 400 before any request is sent.
var resourceNamePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// ValidateResourceName checks a container, bucket, or queue name against the
// common storage naming rules. kind is used in the error message only.
func ValidateResourceName(kind, name string) error {
	if len(name) < 3 || len(name) > 63 {
		return fmt.Errorf("%s name must be 3-63 characters, got %d", kind, len(name))
	}
	if !resourceNamePattern.MatchString(name) {
		return fmt.Errorf("invalid %s name %q: only lowercase letters, digits, and hyphens are allowed", kind, name)
	}
	if strings.Contains(name, "--") {
		return fmt.Errorf("invalid %s name %q: consecutive hyphens are not allowed", kind, name)
	}
	return nil
}

// ValidateObjectName checks a blob or object key. Keys are much more
// permissive than container names; only empty keys, oversized keys, and
// control characters are rejected locally.
func ValidateObjectName(name string) error {
	if name == "" {
		return fmt.Errorf("object name cannot be empty")
	}
	if len(name) > 1024 {
		return fmt.Errorf("object name exceeds 1024 characters")
	}
	if strings.ContainsAny(name, "\x00\n\r") {
		return fmt.Errorf("object name contains control characters")
	}
	return nil
}

// SanitizeLogString removes or escapes characters that could be used for log
// injection. This prevents attackers from injecting fake log entries or
// control characters via user-supplied resource names.
func SanitizeLogString(s string) string {
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	// Remove ANSI escape sequences
	ansiRegex := regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)
	s = ansiRegex.ReplaceAllString(s, "")
	// Limit length to prevent log flooding
	const maxLogLength = 500
	if len(s) > maxLogLength {
		s = s[:maxLogLength] + "...[truncated]"
	}
	return s
}
