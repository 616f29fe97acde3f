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

package sdk

import (
	"context"
	"fmt"
	"strings"

	"azstor/connectors/base"
)

// Version is the current SDK version
const Version = "1.0.0"

// ConfigValidator checks a connector configuration before Connect and fills
// in connector-specific defaults afterwards.
type ConfigValidator interface {
	Validate(config *base.ConnectorConfig) error
	ApplyDefaults(config *base.ConnectorConfig)
}

// resourceNameOptions are option keys whose values name storage resources and
// therefore must satisfy the service naming rules when present.
var resourceNameOptions = []string{
	"default_container",
	"default_bucket",
	"default_queue",
}

// DefaultConfigValidator validates the fields storage connectors share:
// required options or credentials must be present, and any default resource
// name must be a valid container/bucket/queue name.
type DefaultConfigValidator struct {
	required []string
	optional map[string]interface{}
}

// NewDefaultConfigValidator creates a validator requiring the given fields
// (looked up in Options, then Credentials) and carrying option defaults
func NewDefaultConfigValidator(required []string, optional map[string]interface{}) *DefaultConfigValidator {
	if optional == nil {
		optional = make(map[string]interface{})
	}
	return &DefaultConfigValidator{
		required: required,
		optional: optional,
	}
}

// Validate checks identity fields, required fields, and resource-name options
func (v *DefaultConfigValidator) Validate(config *base.ConnectorConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if config.Name == "" {
		return fmt.Errorf("connector name is required")
	}

	if config.Type == "" {
		return fmt.Errorf("connector type is required")
	}

	for _, field := range v.required {
		if !fieldPresent(config, field) {
			return fmt.Errorf("required field '%s' is missing", field)
		}
	}

	for _, key := range resourceNameOptions {
		raw, ok := config.Options[key]
		if !ok {
			continue
		}
		name, ok := raw.(string)
		if !ok {
			return fmt.Errorf("option '%s' must be a string", key)
		}
		if name == "" {
			continue
		}
		kind := strings.TrimPrefix(key, "default_")
		if err := base.ValidateResourceName(kind, name); err != nil {
			return fmt.Errorf("option '%s': %w", key, err)
		}
	}

	return nil
}

// ApplyDefaults fills unset options with the validator's defaults
func (v *DefaultConfigValidator) ApplyDefaults(config *base.ConnectorConfig) {
	if config.Options == nil {
		config.Options = make(map[string]interface{})
	}

	for field, defaultValue := range v.optional {
		if _, exists := config.Options[field]; !exists {
			config.Options[field] = defaultValue
		}
	}
}

// RequiredFields returns the required fields
func (v *DefaultConfigValidator) RequiredFields() []string {
	return v.required
}

func fieldPresent(config *base.ConnectorConfig, field string) bool {
	if v, ok := config.Options[field]; ok {
		if s, isStr := v.(string); !isStr || s != "" {
			return true
		}
	}
	return config.Credentials[field] != ""
}

// LifecycleHooks lets embedding connectors observe lifecycle and dispatch
// events without overriding the corresponding methods.
type LifecycleHooks struct {
	// OnConnect is called after the configuration is validated and stored
	OnConnect func(ctx context.Context, config *base.ConnectorConfig) error

	// OnDisconnect is called before the connection state is cleared
	OnDisconnect func(ctx context.Context) error

	// OnHealthCheck may amend or veto the reported health status
	OnHealthCheck func(ctx context.Context, status *base.HealthStatus) error

	// OnQuery is called before each read operation
	OnQuery func(ctx context.Context, query *base.Query) error

	// OnExecute is called before each write operation
	OnExecute func(ctx context.Context, cmd *base.Command) error
}

// ContextKey is a type for context keys
type ContextKey string

// ContextKeyRequestID is the context key carrying the per-request ID the
// gateway assigns
const ContextKeyRequestID ContextKey = "request_id"

// GetRequestID extracts the request ID from context, or "" when absent
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(ContextKeyRequestID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithRequestID returns a context carrying the given request ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}
