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
Package registry provides a thread-safe registry for managing storage
connectors.

# Overview

The Registry is the central management point for all storage connectors.
It handles:

  - Connector registration and lifecycle management
  - Lazy loading of connectors from PostgreSQL storage
  - Health checking across all registered connectors
  - Automatic synchronization across gateway replicas

# Creating a Registry

For in-memory storage (development):

	registry := NewRegistry()

For persistent storage (production):

	registry, err := NewRegistryWithStorage(databaseURL)
	if err != nil {
	    log.Fatal(err)
	}

# Registering Connectors

Register a connector with its configuration:

	config := &base.ConnectorConfig{
	    Name:    "main-blob",
	    Type:    "azureblob",
	    Options: map[string]interface{}{"account_name": "mystorageaccount"},
	    Credentials: map[string]string{"account_key": accountKey},
	    Timeout: 30 * time.Second,
	}

	err := registry.Register("main-blob", blobConnector, config)

# Using Connectors

Retrieve and use a registered connector:

	connector, err := registry.Get("main-blob")
	if err != nil {
	    return err
	}

	result, err := connector.Query(ctx, &base.Query{
	    Operation: "list_blobs",
	    Parameters: map[string]interface{}{"container": "data"},
	})

# Lazy Loading

With PostgreSQL storage, connectors are loaded on first access:

	// Set up factory for lazy loading
	registry.SetFactory(func(connectorType string) (base.Connector, error) {
	    switch connectorType {
	    case "azureblob":
	        return azureblob.NewAzureBlobConnector(), nil
	    case "s3":
	        return s3.NewS3Connector(), nil
	    default:
	        return nil, fmt.Errorf("unknown connector type: %s", connectorType)
	    }
	})

	// Connector is loaded and connected on first Get()
	connector, err := registry.Get("delayed-connector")

# Synchronization Across Replicas

In multi-replica deployments, start periodic reload:

	ctx := context.Background()
	registry.StartPeriodicReload(ctx, 30*time.Second)

This ensures connectors registered by one replica are available to others.

# Health Checking

Check health of all registered connectors:

	health := registry.HealthCheck(ctx)
	for name, status := range health {
	    if !status.Healthy {
	        log.Printf("Connector %s unhealthy: %s", name, status.Error)
	    }
	}

# Graceful Shutdown

Disconnect all connectors on shutdown:

	registry.DisconnectAll(ctx)

# Thread Safety

The Registry is safe for concurrent use. All methods use sync.RWMutex
for proper synchronization. Multiple goroutines can register, retrieve,
and query connectors simultaneously.
*/
package registry
