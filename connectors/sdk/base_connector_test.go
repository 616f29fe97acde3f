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
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"azstor/connectors/base"
)

func blobConfig() *base.ConnectorConfig {
	return &base.ConnectorConfig{
		Name: "main-blob",
		Type: "azureblob",
		Credentials: map[string]string{
			"account_name": "devstore",
			"account_key":  "c2VjcmV0",
		},
		Options: map[string]interface{}{
			"default_container": "reports",
		},
	}
}

func TestNewBaseConnector(t *testing.T) {
	conn := NewBaseConnector("azureblob")

	if conn.Type() != "azureblob" {
		t.Errorf("type = %s, want azureblob", conn.Type())
	}
	if conn.Version() != "1.0.0" {
		t.Errorf("version = %s, want 1.0.0", conn.Version())
	}
	if conn.IsConnected() {
		t.Error("expected disconnected before Connect")
	}
	if conn.GetMetrics() == nil {
		t.Error("expected metrics to be initialized")
	}
}

func TestBaseConnectorConnect(t *testing.T) {
	t.Run("stores config and name", func(t *testing.T) {
		conn := NewBaseConnector("azureblob")

		if err := conn.Connect(context.Background(), blobConfig()); err != nil {
			t.Fatalf("connect failed: %v", err)
		}

		if !conn.IsConnected() {
			t.Error("expected connected")
		}
		if conn.Name() != "main-blob" {
			t.Errorf("name = %s, want main-blob", conn.Name())
		}
		if conn.GetConfig().Type != "azureblob" {
			t.Errorf("config type = %s", conn.GetConfig().Type)
		}
	})

	t.Run("applies default timeout", func(t *testing.T) {
		conn := NewBaseConnector("azureblob")

		cfg := blobConfig()
		cfg.Timeout = 0
		if err := conn.Connect(context.Background(), cfg); err != nil {
			t.Fatalf("connect failed: %v", err)
		}

		if conn.GetTimeout() != 30*time.Second {
			t.Errorf("timeout = %v, want 30s", conn.GetTimeout())
		}
	})

	t.Run("validation failure is a 400", func(t *testing.T) {
		conn := NewBaseConnector("azureblob")
		conn.SetValidator(NewDefaultConfigValidator([]string{"account_name"}, nil))

		cfg := blobConfig()
		delete(cfg.Credentials, "account_name")
		err := conn.Connect(context.Background(), cfg)
		if base.Code(err) != 400 {
			t.Errorf("code = %d, want 400", base.Code(err))
		}
	})

	t.Run("invalid default container rejected", func(t *testing.T) {
		conn := NewBaseConnector("azureblob")
		conn.SetValidator(NewDefaultConfigValidator(nil, nil))

		cfg := blobConfig()
		cfg.Options["default_container"] = "Bad--Name"
		err := conn.Connect(context.Background(), cfg)
		if base.Code(err) != 400 {
			t.Errorf("code = %d, want 400", base.Code(err))
		}
	})

	t.Run("validator defaults applied", func(t *testing.T) {
		conn := NewBaseConnector("azureblob")
		conn.SetValidator(NewDefaultConfigValidator(nil, map[string]interface{}{
			"sas_expiry": 3600,
		}))

		cfg := blobConfig()
		if err := conn.Connect(context.Background(), cfg); err != nil {
			t.Fatalf("connect failed: %v", err)
		}
		if conn.GetIntOption("sas_expiry", 0) != 3600 {
			t.Errorf("sas_expiry = %d, want 3600", conn.GetIntOption("sas_expiry", 0))
		}
	})
}

func TestBaseConnectorDisconnect(t *testing.T) {
	conn := NewBaseConnector("azureblob")

	if err := conn.Connect(context.Background(), blobConfig()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if err := conn.Disconnect(context.Background()); err != nil {
		t.Fatalf("disconnect failed: %v", err)
	}
	if conn.IsConnected() {
		t.Error("expected disconnected")
	}

	// Disconnecting twice is a no-op.
	if err := conn.Disconnect(context.Background()); err != nil {
		t.Errorf("second disconnect: %v", err)
	}
}

func TestBaseConnectorHealthCheck(t *testing.T) {
	conn := NewBaseConnector("azureblob")

	status, err := conn.HealthCheck(context.Background())
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	if status.Healthy {
		t.Error("expected unhealthy before connect")
	}

	if err := conn.Connect(context.Background(), blobConfig()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	status, err = conn.HealthCheck(context.Background())
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	if !status.Healthy {
		t.Error("expected healthy after connect")
	}
	if status.Details["connector_type"] != "azureblob" {
		t.Errorf("details = %v", status.Details)
	}
}

func TestBaseConnectorDispatchNotConnected(t *testing.T) {
	conn := NewBaseConnector("azureblob")
	ctx := context.Background()

	if _, err := conn.Query(ctx, &base.Query{Operation: "list_blobs"}); base.Code(err) != 500 {
		t.Errorf("query code = %d, want 500", base.Code(err))
	}
	if _, err := conn.Execute(ctx, &base.Command{Action: "upload_blob"}); base.Code(err) != 500 {
		t.Errorf("execute code = %d, want 500", base.Code(err))
	}
}

func TestBaseConnectorHooks(t *testing.T) {
	t.Run("connect hook runs", func(t *testing.T) {
		conn := NewBaseConnector("azureblob")

		var hookName string
		conn.SetHooks(&LifecycleHooks{
			OnConnect: func(ctx context.Context, config *base.ConnectorConfig) error {
				hookName = config.Name
				return nil
			},
		})

		if err := conn.Connect(context.Background(), blobConfig()); err != nil {
			t.Fatalf("connect failed: %v", err)
		}
		if hookName != "main-blob" {
			t.Errorf("hook saw %q, want main-blob", hookName)
		}
	})

	t.Run("connect hook failure aborts", func(t *testing.T) {
		conn := NewBaseConnector("azureblob")
		conn.SetHooks(&LifecycleHooks{
			OnConnect: func(ctx context.Context, config *base.ConnectorConfig) error {
				return errors.New("probe failed")
			},
		})

		if err := conn.Connect(context.Background(), blobConfig()); err == nil {
			t.Fatal("expected error from hook")
		}
		if conn.IsConnected() {
			t.Error("expected disconnected after hook failure")
		}
	})

	t.Run("query hook can veto", func(t *testing.T) {
		conn := NewBaseConnector("azureblob")
		conn.SetHooks(&LifecycleHooks{
			OnQuery: func(ctx context.Context, query *base.Query) error {
				if query.Operation == "list_containers" {
					return errors.New("listing disabled")
				}
				return nil
			},
		})

		if err := conn.Connect(context.Background(), blobConfig()); err != nil {
			t.Fatalf("connect failed: %v", err)
		}

		if _, err := conn.Query(context.Background(), &base.Query{Operation: "list_containers"}); err == nil {
			t.Error("expected veto from query hook")
		}
		if _, err := conn.Query(context.Background(), &base.Query{Operation: "list_blobs"}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("health hook can mark unhealthy", func(t *testing.T) {
		conn := NewBaseConnector("azureblob")
		conn.SetHooks(&LifecycleHooks{
			OnHealthCheck: func(ctx context.Context, status *base.HealthStatus) error {
				return errors.New("credential expired")
			},
		})

		if err := conn.Connect(context.Background(), blobConfig()); err != nil {
			t.Fatalf("connect failed: %v", err)
		}

		status, err := conn.HealthCheck(context.Background())
		if err != nil {
			t.Fatalf("health check failed: %v", err)
		}
		if status.Healthy {
			t.Error("expected unhealthy from hook")
		}
	})
}

func TestBaseConnectorOptionHelpers(t *testing.T) {
	conn := NewBaseConnector("azureblob")

	cfg := blobConfig()
	cfg.Options["sas_expiry"] = 3600
	cfg.Options["skip_verify"] = true
	cfg.Options["float_count"] = float64(7)
	if err := conn.Connect(context.Background(), cfg); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	if got := conn.GetStringOption("default_container", ""); got != "reports" {
		t.Errorf("default_container = %q", got)
	}
	if got := conn.GetStringOption("missing", "fallback"); got != "fallback" {
		t.Errorf("missing option = %q, want fallback", got)
	}
	if got := conn.GetIntOption("sas_expiry", 0); got != 3600 {
		t.Errorf("sas_expiry = %d", got)
	}
	if got := conn.GetIntOption("float_count", 0); got != 7 {
		t.Errorf("float option = %d, want 7", got)
	}
	if !conn.GetBoolOption("skip_verify", false) {
		t.Error("skip_verify = false, want true")
	}
	if got := conn.GetCredential("account_name"); got != "devstore" {
		t.Errorf("account_name credential = %q", got)
	}
	if got := conn.GetCredential("missing"); got != "" {
		t.Errorf("missing credential = %q, want empty", got)
	}
}

func TestBaseConnectorEndpoint(t *testing.T) {
	conn := NewBaseConnector("azureblob")

	cfg := blobConfig()
	cfg.Endpoint = "http://127.0.0.1:10000/devstoreaccount1"
	if err := conn.Connect(context.Background(), cfg); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	if got := conn.GetEndpoint(); got != "http://127.0.0.1:10000/devstoreaccount1" {
		t.Errorf("endpoint = %q", got)
	}
}

func TestBaseConnectorNameFallsBackToType(t *testing.T) {
	conn := NewBaseConnector("azurequeue")

	if conn.Name() != "azurequeue" {
		t.Errorf("name = %s, want type fallback azurequeue", conn.Name())
	}

	conn.SetName("jobs-queue")
	if conn.Name() != "jobs-queue" {
		t.Errorf("name = %s, want jobs-queue", conn.Name())
	}
}

func TestBaseConnectorWithTimeout(t *testing.T) {
	conn := NewBaseConnector("azureblob")

	cfg := blobConfig()
	cfg.Timeout = 5 * time.Second
	if err := conn.Connect(context.Background(), cfg); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	ctx, cancel := conn.WithTimeout(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected deadline")
	}
	if remaining := time.Until(deadline); remaining > 5*time.Second || remaining < 4*time.Second {
		t.Errorf("unexpected deadline %v from now", remaining)
	}
}

func TestBaseConnectorLogger(t *testing.T) {
	conn := NewBaseConnector("azureblob")

	var buf bytes.Buffer
	conn.SetLogger(log.New(&buf, "[main-blob] ", 0))
	conn.Log("uploaded %s", "reports/a.txt")

	out := buf.String()
	if !strings.Contains(out, "[main-blob] uploaded reports/a.txt") {
		t.Errorf("unexpected log output: %q", out)
	}
	if conn.GetLogger() == nil {
		t.Error("expected logger accessor to return the logger")
	}
}

func TestBaseConnectorMetricsRecorded(t *testing.T) {
	conn := NewBaseConnector("azureblob")

	if err := conn.Connect(context.Background(), blobConfig()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if _, err := conn.Query(context.Background(), &base.Query{Operation: "list_blobs"}); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if _, err := conn.Execute(context.Background(), &base.Command{Action: "upload_blob"}); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	snap := conn.GetMetrics().Snapshot()
	if snap.ReadsTotal != 1 {
		t.Errorf("reads = %d, want 1", snap.ReadsTotal)
	}
	if snap.WritesTotal != 1 {
		t.Errorf("writes = %d, want 1", snap.WritesTotal)
	}
}

func TestBaseConnectorSetCapabilities(t *testing.T) {
	conn := NewBaseConnector("azureblob")
	conn.SetCapabilities([]string{"query", "execute", "sas"})
	conn.SetVersion("2.1.0")

	caps := conn.Capabilities()
	if len(caps) != 3 || caps[2] != "sas" {
		t.Errorf("capabilities = %v", caps)
	}
	if conn.Version() != "2.1.0" {
		t.Errorf("version = %s", conn.Version())
	}
}
