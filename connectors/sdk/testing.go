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
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"azstor/connectors/base"
)

// FakeObjectStore is an in-memory connector for tests. It keeps containers
// of blobs in maps and answers the same Query/Execute dispatch the real
// connectors use, with the same error codes: 404 for a missing container or
// blob, 409 for a container that already exists. Tests can drive the
// registry and gateway against it without a storage account.
type FakeObjectStore struct {
	name       string
	connected  bool
	failErr    error
	containers map[string]map[string][]byte
	metrics    *ConnectorMetrics
	mu         sync.RWMutex
}

// NewFakeObjectStore creates an empty fake store
func NewFakeObjectStore(name string) *FakeObjectStore {
	return &FakeObjectStore{
		name:       name,
		containers: make(map[string]map[string][]byte),
		metrics:    NewConnectorMetrics("fake"),
	}
}

// SeedBlob creates the container if needed and stores content under it
func (f *FakeObjectStore) SeedBlob(container, blob, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.containers[container] == nil {
		f.containers[container] = make(map[string][]byte)
	}
	f.containers[container][blob] = []byte(content)
}

// FailWith makes every subsequent operation return err. Pass nil to clear.
func (f *FakeObjectStore) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failErr = err
}

// Connect implements base.Connector
func (f *FakeObjectStore) Connect(ctx context.Context, config *base.ConnectorConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failErr != nil {
		return f.failErr
	}

	if config != nil && config.Name != "" {
		f.name = config.Name
	}
	f.connected = true
	f.metrics.RecordConnect()
	return nil
}

// Disconnect implements base.Connector
func (f *FakeObjectStore) Disconnect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failErr != nil {
		return f.failErr
	}

	f.connected = false
	f.metrics.RecordDisconnect()
	return nil
}

// HealthCheck implements base.Connector
func (f *FakeObjectStore) HealthCheck(ctx context.Context) (*base.HealthStatus, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	status := &base.HealthStatus{
		Healthy:   f.connected && f.failErr == nil,
		Timestamp: time.Now(),
	}
	if !f.connected {
		status.Error = "not connected"
	} else if f.failErr != nil {
		status.Error = f.failErr.Error()
	}
	return status, nil
}

// Query implements base.Connector read dispatch over the in-memory store
func (f *FakeObjectStore) Query(ctx context.Context, query *base.Query) (*base.QueryResult, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	timer := NewTimer()
	defer timer.RecordTo(f.metrics.RecordRead, nil)

	if err := f.gate("query"); err != nil {
		return nil, err
	}

	switch strings.ToLower(query.Operation) {
	case "list_containers":
		return f.listContainers()
	case "list_blobs", "list", "":
		return f.listBlobs(query)
	case "get_blob", "get":
		return f.getBlob(query)
	default:
		return nil, base.ErrInvalidArgument("query", fmt.Sprintf("unknown operation: %s", query.Operation))
	}
}

// Execute implements base.Connector write dispatch over the in-memory store
func (f *FakeObjectStore) Execute(ctx context.Context, cmd *base.Command) (*base.CommandResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	timer := NewTimer()
	defer timer.RecordTo(f.metrics.RecordWrite, nil)

	if err := f.gate("execute"); err != nil {
		return nil, err
	}

	switch strings.ToLower(cmd.Action) {
	case "create_container":
		return f.createContainer(cmd)
	case "delete_container":
		return f.deleteContainer(cmd)
	case "upload_blob", "put", "upload":
		return f.uploadBlob(cmd)
	case "delete_blob", "delete":
		return f.deleteBlob(cmd)
	default:
		return nil, base.ErrInvalidArgument("execute", fmt.Sprintf("unknown action: %s", cmd.Action))
	}
}

// gate returns the injected failure or a not-connected error. Callers hold
// at least the read lock.
func (f *FakeObjectStore) gate(op string) error {
	if f.failErr != nil {
		return f.failErr
	}
	if !f.connected {
		return base.NewStorageError(0, op, "not connected", nil)
	}
	return nil
}

func (f *FakeObjectStore) listContainers() (*base.QueryResult, error) {
	names := make([]string, 0, len(f.containers))
	for name := range f.containers {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		rows = append(rows, map[string]interface{}{"name": name})
	}
	f.metrics.AddObjectsListed(int64(len(rows)))

	return &base.QueryResult{Rows: rows, RowCount: len(rows), Connector: f.name}, nil
}

func (f *FakeObjectStore) listBlobs(query *base.Query) (*base.QueryResult, error) {
	container := stringParam(query.Parameters, "container")
	if container == "" {
		return nil, base.ErrInvalidArgument("list_blobs", "container name is required")
	}

	blobs, ok := f.containers[container]
	if !ok {
		return nil, base.NewStorageError(http.StatusNotFound, "list_blobs",
			fmt.Sprintf("container not found: %s", container), nil)
	}

	names := make([]string, 0, len(blobs))
	for name := range blobs {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		rows = append(rows, map[string]interface{}{
			"name": name,
			"size": int64(len(blobs[name])),
		})
	}
	f.metrics.AddObjectsListed(int64(len(rows)))

	return &base.QueryResult{Rows: rows, RowCount: len(rows), Connector: f.name}, nil
}

func (f *FakeObjectStore) getBlob(query *base.Query) (*base.QueryResult, error) {
	container := stringParam(query.Parameters, "container")
	blob := stringParam(query.Parameters, "blob")
	if container == "" {
		return nil, base.ErrInvalidArgument("get_blob", "container name is required")
	}
	if blob == "" {
		return nil, base.ErrInvalidArgument("get_blob", "blob name is required")
	}

	content, ok := f.containers[container][blob]
	if !ok {
		return nil, base.NewStorageError(http.StatusNotFound, "get_blob",
			fmt.Sprintf("blob not found: %s/%s", container, blob), nil)
	}
	f.metrics.AddBytesDownloaded(int64(len(content)))

	return &base.QueryResult{
		Rows: []map[string]interface{}{{
			"name":    blob,
			"content": string(content),
			"size":    int64(len(content)),
		}},
		RowCount:  1,
		Connector: f.name,
	}, nil
}

func (f *FakeObjectStore) createContainer(cmd *base.Command) (*base.CommandResult, error) {
	container := stringParam(cmd.Parameters, "container")
	if container == "" {
		return nil, base.ErrInvalidArgument("create_container", "container name is required")
	}

	if _, exists := f.containers[container]; exists {
		return nil, base.NewStorageError(http.StatusConflict, "create_container",
			fmt.Sprintf("container already exists: %s", container), nil)
	}

	f.containers[container] = make(map[string][]byte)
	return &base.CommandResult{Success: true, Connector: f.name}, nil
}

func (f *FakeObjectStore) deleteContainer(cmd *base.Command) (*base.CommandResult, error) {
	container := stringParam(cmd.Parameters, "container")
	if container == "" {
		return nil, base.ErrInvalidArgument("delete_container", "container name is required")
	}

	if _, exists := f.containers[container]; !exists {
		return nil, base.NewStorageError(http.StatusNotFound, "delete_container",
			fmt.Sprintf("container not found: %s", container), nil)
	}

	delete(f.containers, container)
	return &base.CommandResult{Success: true, Connector: f.name}, nil
}

func (f *FakeObjectStore) uploadBlob(cmd *base.Command) (*base.CommandResult, error) {
	container := stringParam(cmd.Parameters, "container")
	blob := stringParam(cmd.Parameters, "blob")
	if container == "" {
		return nil, base.ErrInvalidArgument("upload_blob", "container name is required")
	}
	if blob == "" {
		return nil, base.ErrInvalidArgument("upload_blob", "blob name is required")
	}

	blobs, ok := f.containers[container]
	if !ok {
		return nil, base.NewStorageError(http.StatusNotFound, "upload_blob",
			fmt.Sprintf("container not found: %s", container), nil)
	}

	content := stringParam(cmd.Parameters, "content")
	blobs[blob] = []byte(content)
	f.metrics.AddBytesUploaded(int64(len(content)))

	return &base.CommandResult{Success: true, Message: "uploaded", Connector: f.name}, nil
}

func (f *FakeObjectStore) deleteBlob(cmd *base.Command) (*base.CommandResult, error) {
	container := stringParam(cmd.Parameters, "container")
	blob := stringParam(cmd.Parameters, "blob")
	if container == "" {
		return nil, base.ErrInvalidArgument("delete_blob", "container name is required")
	}
	if blob == "" {
		return nil, base.ErrInvalidArgument("delete_blob", "blob name is required")
	}

	if _, ok := f.containers[container][blob]; !ok {
		return nil, base.NewStorageError(http.StatusNotFound, "delete_blob",
			fmt.Sprintf("blob not found: %s/%s", container, blob), nil)
	}

	delete(f.containers[container], blob)
	return &base.CommandResult{Success: true, Message: "deleted", Connector: f.name}, nil
}

// Name implements base.Connector
func (f *FakeObjectStore) Name() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.name
}

// Type implements base.Connector
func (f *FakeObjectStore) Type() string { return "fake" }

// Version implements base.Connector
func (f *FakeObjectStore) Version() string { return Version }

// Capabilities implements base.Connector
func (f *FakeObjectStore) Capabilities() []string { return []string{"query", "execute"} }

// GetMetrics exposes the fake's traffic counters, mirroring BaseConnector
func (f *FakeObjectStore) GetMetrics() *ConnectorMetrics { return f.metrics }

// BlobContent returns the stored content and whether the blob exists
func (f *FakeObjectStore) BlobContent(container, blob string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	content, ok := f.containers[container][blob]
	return string(content), ok
}

// IsConnected returns the connection state
func (f *FakeObjectStore) IsConnected() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.connected
}

func stringParam(params map[string]interface{}, key string) string {
	if params == nil {
		return ""
	}
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

// Verify FakeObjectStore implements base.Connector
var _ base.Connector = (*FakeObjectStore)(nil)
