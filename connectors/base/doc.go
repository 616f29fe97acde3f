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

/*
Package base provides the core interfaces and types shared by all azstor
storage connectors.

# Overview

The base package defines the Connector interface that every storage backend
(Azure Blob, Azure Queue, S3, GCS) implements, along with the uniform
StorageError failure type and common resource-name validation.

# Connector Interface

All connectors implement the Connector interface:

	type Connector interface {
	    // Lifecycle
	    Connect(ctx context.Context, config *ConnectorConfig) error
	    Disconnect(ctx context.Context) error
	    HealthCheck(ctx context.Context) (*HealthStatus, error)

	    // Read operations
	    Query(ctx context.Context, query *Query) (*QueryResult, error)

	    // Mutating operations
	    Execute(ctx context.Context, cmd *Command) (*CommandResult, error)

	    // Metadata
	    Name() string
	    Type() string
	    Version() string
	    Capabilities() []string
	}

# Query Operations

Read operations go through Query with a string operation name:

	query := &Query{
	    Operation:  "list_blobs",
	    Parameters: map[string]interface{}{"container": "reports"},
	    Timeout:    5 * time.Second,
	}

	result, err := connector.Query(ctx, query)
	if err != nil {
	    return err
	}

	for _, row := range result.Rows {
	    fmt.Println(row["name"])
	}

# Command Operations

Mutations go through Execute:

	cmd := &Command{
	    Action: "upload_blob",
	    Parameters: map[string]interface{}{
	        "container": "reports",
	        "blob":      "2025/q3.csv",
	        "content":   csvBody,
	    },
	}

	result, err := connector.Execute(ctx, cmd)
	if err != nil {
	    return err
	}

	fmt.Printf("Request ID: %s\n", result.RequestID)

# Error Handling

Every operation failure surfaces as a *StorageError carrying an HTTP-style
status code. The code comes from the storage service when one is available,
else 500; locally detected failures use 400 (invalid argument) and 401
(missing credentials). Match on classes, not codes:

	_, err := connector.Query(ctx, query)
	switch {
	case base.IsNotFound(err):
	    // container or blob does not exist
	case base.IsForbidden(err):
	    // credential lacks the required permission
	}

# Thread Safety

All Connector implementations must be safe for concurrent use.
The interface methods can be called from multiple goroutines simultaneously.
*/
package base
