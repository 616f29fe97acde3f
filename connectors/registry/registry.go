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

package registry

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"azstor/connectors/base"
	"azstor/connectors/sdk"
)

// ConnectorFactory builds a connector instance for a connector type. The
// registry calls it when a persisted config needs a live connector.
type ConnectorFactory func(connectorType string) (base.Connector, error)

// entry is one registered connector. The connector field stays nil for
// configs loaded from storage until the first Get instantiates them.
type entry struct {
	connector base.Connector
	config    *base.ConnectorConfig
}

// Registry tracks the storage connectors available to the gateway, keyed by
// name. Safe for concurrent use. With a PostgreSQL store attached, configs
// registered by other gateway replicas are picked up on reload and their
// connectors built lazily through the factory.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	store   *PostgreSQLStorage
	factory ConnectorFactory
	logger  *log.Logger
}

// NewRegistry creates an in-memory registry with no persistence.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		logger:  log.New(os.Stdout, "[registry] ", log.LstdFlags),
	}
}

// NewRegistryWithStorage creates a registry backed by PostgreSQL and pulls in
// every persisted connector config. A failed initial load is logged, not
// fatal: the configs are fetched again on the next reload tick.
func NewRegistryWithStorage(dbURL string) (*Registry, error) {
	store, err := NewPostgreSQLStorage(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	r := &Registry{
		entries: make(map[string]*entry),
		store:   store,
		logger:  log.New(os.Stdout, "[registry] ", log.LstdFlags),
	}

	if err := r.ReloadFromStorage(context.Background()); err != nil {
		r.logger.Printf("Initial load from storage failed: %v", err)
	}

	return r, nil
}

// SetFactory installs the factory used to build connectors for configs that
// were loaded from storage without a live instance.
func (r *Registry) SetFactory(factory ConnectorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factory = factory
}

// ReloadFromStorage fetches connector configs persisted by any gateway
// replica and adds the ones this instance has not seen. Connectors for new
// configs are built on first use.
func (r *Registry) ReloadFromStorage(ctx context.Context) error {
	if r.store == nil {
		return nil
	}

	ids, err := r.store.ListConnectors(ctx)
	if err != nil {
		return fmt.Errorf("failed to list connectors: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	added := 0
	for _, id := range ids {
		if _, seen := r.entries[id]; seen {
			continue
		}

		config, err := r.store.GetConnector(ctx, id)
		if err != nil {
			r.logger.Printf("Skipping connector '%s': %v", id, err)
			continue
		}

		r.entries[id] = &entry{config: config}
		added++
	}

	if added > 0 {
		r.logger.Printf("Picked up %d connector config(s) from storage", added)
	}

	return nil
}

// StartPeriodicReload launches a goroutine that reloads configs from storage
// on the given interval until ctx is cancelled. Keeps replicas converged on
// the same connector set.
func (r *Registry) StartPeriodicReload(ctx context.Context, interval time.Duration) {
	if r.store == nil {
		return
	}

	r.logger.Printf("Reloading connector configs every %v", interval)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.ReloadFromStorage(ctx); err != nil {
					r.logger.Printf("Reload from storage failed: %v", err)
				}
			}
		}
	}()
}

// Register connects the connector and adds it under the given name. The name
// must not already be taken, whether by a live connector or a stored config.
func (r *Registry) Register(name string, connector base.Connector, config *base.ConnectorConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.entries[name]; taken {
		return fmt.Errorf("connector '%s' already registered", name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	if err := connector.Connect(ctx, config); err != nil {
		return fmt.Errorf("failed to connect connector '%s': %w", name, err)
	}

	r.entries[name] = &entry{connector: connector, config: config}

	// Registration survives a persistence failure; the config just stays
	// local to this replica.
	if r.store != nil {
		if err := r.store.SaveConnector(ctx, name, config); err != nil {
			r.logger.Printf("Failed to persist connector '%s': %v", name, err)
		}
	}

	r.logger.Printf("Registered connector '%s' (type: %s)", name, config.Type)

	return nil
}

// Unregister disconnects and removes a connector. A disconnect error is
// logged but does not keep the entry around.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok {
		return fmt.Errorf("connector '%s' not found", name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if e.connector != nil {
		if err := e.connector.Disconnect(ctx); err != nil {
			r.logger.Printf("Error disconnecting connector '%s': %v", name, err)
		}
	}

	delete(r.entries, name)

	if r.store != nil {
		if err := r.store.DeleteConnector(ctx, name); err != nil {
			r.logger.Printf("Failed to delete connector '%s' from storage: %v", name, err)
		}
	}

	r.logger.Printf("Unregistered connector '%s'", name)

	return nil
}

// Get returns the named connector, building and connecting it through the
// factory if only its config is known so far.
func (r *Registry) Get(name string) (base.Connector, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	factory := r.factory
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("connector '%s' not found", name)
	}
	if e.connector != nil {
		return e.connector, nil
	}
	if factory == nil {
		return nil, fmt.Errorf("connector '%s' not found", name)
	}

	return r.instantiate(name)
}

// instantiate builds a connector for a config-only entry under the write
// lock. A concurrent Get may have won the race, in which case its connector
// is returned.
func (r *Registry) instantiate(name string) (base.Connector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("connector '%s' not found", name)
	}
	if e.connector != nil {
		return e.connector, nil
	}

	r.logger.Printf("Building connector '%s' (type: %s) from stored config", name, e.config.Type)

	connector, err := r.factory(e.config.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector '%s': %w", name, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.config.Timeout)
	defer cancel()

	if err := connector.Connect(ctx, e.config); err != nil {
		return nil, fmt.Errorf("failed to connect connector '%s': %w", name, err)
	}

	e.connector = connector

	return connector, nil
}

// GetConfig returns the stored configuration for a connector.
func (r *Registry) GetConfig(name string) (*base.ConnectorConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("config for connector '%s' not found", name)
	}

	return e.config, nil
}

// List returns the names of all live connectors, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name, e := range r.entries {
		if e.connector != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return names
}

// ListWithTypes returns live connector names mapped to their types.
func (r *Registry) ListWithTypes() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]string)
	for name, e := range r.entries {
		if e.connector != nil {
			result[name] = e.connector.Type()
		}
	}

	return result
}

// ListByType returns the names of all configured connectors of the given
// type, sorted. Includes configs whose connectors have not been built yet.
func (r *Registry) ListByType(connectorType string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0)
	for name, e := range r.entries {
		if e.config.Type == connectorType {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return names
}

// HealthCheck probes every live connector concurrently and returns the
// status per connector name.
func (r *Registry) HealthCheck(ctx context.Context) map[string]*base.HealthStatus {
	r.mu.RLock()
	live := make(map[string]base.Connector, len(r.entries))
	for name, e := range r.entries {
		if e.connector != nil {
			live[name] = e.connector
		}
	}
	r.mu.RUnlock()

	results := make(map[string]*base.HealthStatus, len(live))
	var (
		wg        sync.WaitGroup
		resultsMu sync.Mutex
	)

	for name, connector := range live {
		wg.Add(1)
		go func(name string, connector base.Connector) {
			defer wg.Done()

			status, err := connector.HealthCheck(ctx)
			if err != nil {
				status = &base.HealthStatus{
					Healthy:   false,
					Error:     err.Error(),
					Timestamp: time.Now(),
				}
			}

			resultsMu.Lock()
			results[name] = status
			resultsMu.Unlock()
		}(name, connector)
	}
	wg.Wait()

	return results
}

// HealthCheckSingle probes one connector. A failing probe is reported as an
// unhealthy status, not an error; the error return covers unknown names.
func (r *Registry) HealthCheckSingle(ctx context.Context, name string) (*base.HealthStatus, error) {
	connector, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	status, err := connector.HealthCheck(ctx)
	if err != nil {
		return &base.HealthStatus{
			Healthy:   false,
			Error:     err.Error(),
			Timestamp: time.Now(),
		}, nil
	}

	return status, nil
}

// Metrics returns a metrics snapshot per live connector. Connectors that do
// not expose metrics are omitted.
func (r *Registry) Metrics() map[string]*sdk.MetricsSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshots := make(map[string]*sdk.MetricsSnapshot)
	for name, e := range r.entries {
		if e.connector == nil {
			continue
		}
		if m, ok := e.connector.(interface{ GetMetrics() *sdk.ConnectorMetrics }); ok {
			snapshots[name] = m.GetMetrics().Snapshot()
		}
	}

	return snapshots
}

// Count returns the number of live connectors.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, e := range r.entries {
		if e.connector != nil {
			n++
		}
	}

	return n
}

// DisconnectAll disconnects every live connector. Used on shutdown.
func (r *Registry) DisconnectAll(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, e := range r.entries {
		if e.connector == nil {
			continue
		}
		if err := e.connector.Disconnect(ctx); err != nil {
			r.logger.Printf("Error disconnecting connector '%s': %v", name, err)
		}
	}

	r.logger.Printf("Disconnected %d connector(s)", len(r.entries))
}
