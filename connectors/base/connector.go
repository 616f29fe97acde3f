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
	"context"
	"time"
)

// Connector defines the interface that all storage connectors implement.
// Read operations (listing, content retrieval) go through Query; mutations
// (create, upload, delete, enqueue) go through Execute.
type Connector interface {
	// Lifecycle Management
	Connect(ctx context.Context, config *ConnectorConfig) error
	Disconnect(ctx context.Context) error
	HealthCheck(ctx context.Context) (*HealthStatus, error)

	// Read operations
	Query(ctx context.Context, query *Query) (*QueryResult, error)

	// Mutating operations
	Execute(ctx context.Context, cmd *Command) (*CommandResult, error)

	// Metadata
	Name() string           // Unique connector instance name
	Type() string           // Connector type (azureblob, azurequeue, s3, gcs)
	Version() string        // Connector version
	Capabilities() []string // List of capabilities (query, execute, sas)
}

// ConnectorConfig holds the configuration for a connector instance.
type ConnectorConfig struct {
	Name        string                 `json:"name"`        // Unique name for this connector
	Type        string                 `json:"type"`        // Type: azureblob, azurequeue, s3, gcs
	Endpoint    string                 `json:"endpoint"`    // Service endpoint override (emulators, S3-compatible stores)
	Credentials map[string]string      `json:"credentials"` // Account keys, SAS tokens, access keys
	Options     map[string]interface{} `json:"options"`     // Connector-specific options
	Timeout     time.Duration          `json:"timeout"`     // Operation timeout (default: 30s)
}

// Query represents a read operation against a storage service.
type Query struct {
	Operation  string                 `json:"operation"`  // list_containers, get_blob, peek_messages, ...
	Parameters map[string]interface{} `json:"parameters"` // Operation parameters
	Timeout    time.Duration          `json:"timeout"`    // Override default timeout
	Limit      int                    `json:"limit"`      // Result limit (optional)
}

// QueryResult contains the results of a Query operation.
type QueryResult struct {
	Rows      []map[string]interface{} `json:"rows"`               // Result rows (key-value maps)
	RowCount  int                      `json:"row_count"`          // Number of rows returned
	Duration  time.Duration            `json:"duration"`           // Operation execution time
	Connector string                   `json:"connector"`          // Connector name that served the query
	Metadata  map[string]interface{}   `json:"metadata,omitempty"` // Additional metadata
}

// Command represents a mutating operation against a storage service.
type Command struct {
	Action     string                 `json:"action"`     // create_container, upload_blob, send_message, ...
	Parameters map[string]interface{} `json:"parameters"` // Command parameters
	Timeout    time.Duration          `json:"timeout"`    // Override default timeout
}

// CommandResult contains the results of a Command execution.
type CommandResult struct {
	Success   bool                   `json:"success"`              // Was command successful?
	RequestID string                 `json:"request_id,omitempty"` // Service-assigned request ID
	Duration  time.Duration          `json:"duration"`             // Execution time
	Message   string                 `json:"message"`              // Status message
	Connector string                 `json:"connector"`            // Connector name
	Metadata  map[string]interface{} `json:"metadata,omitempty"`   // Additional metadata
}

// HealthStatus represents the health of a connector.
type HealthStatus struct {
	Healthy   bool              `json:"healthy"`   // Overall health status
	Latency   time.Duration     `json:"latency"`   // Round-trip latency to the service
	Details   map[string]string `json:"details"`   // Additional diagnostic info
	Timestamp time.Time         `json:"timestamp"` // When health check was performed
	Error     string            `json:"error"`     // Error message if unhealthy
}
