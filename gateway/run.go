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

package gateway

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"azstor/connectors/azureblob"
	"azstor/connectors/azurequeue"
	"azstor/connectors/base"
	"azstor/connectors/config"
	"azstor/connectors/gcs"
	"azstor/connectors/registry"
	"azstor/connectors/s3"
)

// NewConnector creates a connector instance for the given type. Used as
// the registry factory for lazy loading.
func NewConnector(connectorType string) (base.Connector, error) {
	switch connectorType {
	case "azureblob":
		return azureblob.NewAzureBlobConnector(), nil
	case "azurequeue":
		return azurequeue.NewAzureQueueConnector(), nil
	case "s3":
		return s3.NewS3Connector(), nil
	case "gcs":
		return gcs.NewGCSConnector(), nil
	default:
		return nil, fmt.Errorf("unknown connector type: %s", connectorType)
	}
}

// Run is the exported entry point for the storage gateway daemon.
//
// It resolves connector configuration (config file, then environment
// variables), registers the connectors, and serves HTTP until SIGINT or
// SIGTERM. The function blocks until shutdown completes.
//
// Environment variables used:
//   - PORT: HTTP server port (default: 8080)
//   - CONNECTORS_CONFIG_FILE: path to the YAML connectors file (optional)
//   - DATABASE_URL: PostgreSQL connection string for registry persistence (optional)
//   - GATEWAY_JWT_SECRET: enables bearer-token auth when set (optional)
func Run() {
	logger := log.New(os.Stdout, "[STORAGE_GATEWAY] ", log.LstdFlags)
	logger.Println("Starting storage gateway...")

	// Registry: persistent when a database is configured
	var reg *registry.Registry
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		var err error
		reg, err = registry.NewRegistryWithStorage(dbURL)
		if err != nil {
			logger.Fatalf("Failed to initialize registry storage: %v", err)
		}
	} else {
		reg = registry.NewRegistry()
	}
	reg.SetFactory(NewConnector)

	// Resolve connector configs: file first, env var fallback
	configFile := os.Getenv("CONNECTORS_CONFIG_FILE")
	svc := config.NewRuntimeConfigService(config.RuntimeConfigServiceOptions{
		SelfHosted: true,
		ConfigFile: configFile,
	})
	if configFile != "" {
		loader, err := config.NewYAMLConfigFileLoader(configFile)
		if err != nil {
			logger.Fatalf("Failed to load config file %s: %v", configFile, err)
		}
		svc.SetConfigFileLoader(loader)
	}

	ctx := context.Background()
	configs, source, err := svc.GetConnectorConfigs(ctx)
	if err != nil {
		logger.Printf("Warning: no connector configuration resolved: %v", err)
	} else {
		logger.Printf("Loaded %d connector config(s) from %s", len(configs), source)
	}

	registered := 0
	for _, cfg := range configs {
		connector, err := NewConnector(cfg.Type)
		if err != nil {
			logger.Printf("Skipping connector '%s': %v", cfg.Name, err)
			continue
		}
		if err := reg.Register(cfg.Name, connector, cfg); err != nil {
			logger.Printf("Failed to register connector '%s': %v", cfg.Name, err)
			continue
		}
		registered++
	}
	logger.Printf("Registered %d connector(s)", registered)

	// Keep replicas in sync when backed by PostgreSQL
	reloadCtx, cancelReload := context.WithCancel(ctx)
	defer cancelReload()
	reg.StartPeriodicReload(reloadCtx, 30*time.Second)

	srv := NewServer(reg, Options{
		Addr:      ":" + getEnv("PORT", "8080"),
		JWTSecret: []byte(os.Getenv("GATEWAY_JWT_SECRET")),
		Logger:    logger,
	})

	// Graceful shutdown on SIGINT/SIGTERM
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-done
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
	}()

	if err := srv.Start(); err != nil {
		logger.Fatalf("Server failed: %v", err)
	}
	logger.Println("Storage gateway stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
