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
	"errors"
	"testing"

	"azstor/connectors/base"
)

func newConnectedFake(t *testing.T) *FakeObjectStore {
	t.Helper()

	fake := NewFakeObjectStore("fake-blob")
	if err := fake.Connect(context.Background(), &base.ConnectorConfig{Name: "fake-blob", Type: "fake"}); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	return fake
}

func TestFakeObjectStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	fake := newConnectedFake(t)

	if !fake.IsConnected() {
		t.Fatal("expected connected after Connect")
	}

	status, err := fake.HealthCheck(ctx)
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	if !status.Healthy {
		t.Error("expected healthy while connected")
	}

	if err := fake.Disconnect(ctx); err != nil {
		t.Fatalf("disconnect failed: %v", err)
	}
	status, _ = fake.HealthCheck(ctx)
	if status.Healthy {
		t.Error("expected unhealthy after disconnect")
	}
}

func TestFakeObjectStoreBlobRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newConnectedFake(t)

	res, err := fake.Execute(ctx, &base.Command{
		Action:     "create_container",
		Parameters: map[string]interface{}{"container": "reports"},
	})
	if err != nil {
		t.Fatalf("create_container failed: %v", err)
	}
	if !res.Success {
		t.Error("expected success")
	}

	_, err = fake.Execute(ctx, &base.Command{
		Action: "upload_blob",
		Parameters: map[string]interface{}{
			"container": "reports",
			"blob":      "2025/august.csv",
			"content":   "a,b,c",
		},
	})
	if err != nil {
		t.Fatalf("upload_blob failed: %v", err)
	}

	list, err := fake.Query(ctx, &base.Query{
		Operation:  "list_blobs",
		Parameters: map[string]interface{}{"container": "reports"},
	})
	if err != nil {
		t.Fatalf("list_blobs failed: %v", err)
	}
	if list.RowCount != 1 || list.Rows[0]["name"] != "2025/august.csv" {
		t.Errorf("unexpected listing: %+v", list.Rows)
	}

	got, err := fake.Query(ctx, &base.Query{
		Operation:  "get_blob",
		Parameters: map[string]interface{}{"container": "reports", "blob": "2025/august.csv"},
	})
	if err != nil {
		t.Fatalf("get_blob failed: %v", err)
	}
	if got.Rows[0]["content"] != "a,b,c" {
		t.Errorf("content = %v, want a,b,c", got.Rows[0]["content"])
	}

	_, err = fake.Execute(ctx, &base.Command{
		Action:     "delete_blob",
		Parameters: map[string]interface{}{"container": "reports", "blob": "2025/august.csv"},
	})
	if err != nil {
		t.Fatalf("delete_blob failed: %v", err)
	}

	if _, ok := fake.BlobContent("reports", "2025/august.csv"); ok {
		t.Error("expected blob to be gone after delete")
	}
}

func TestFakeObjectStoreErrorCodes(t *testing.T) {
	ctx := context.Background()
	fake := newConnectedFake(t)
	fake.SeedBlob("reports", "a.txt", "x")

	t.Run("get missing blob is 404", func(t *testing.T) {
		_, err := fake.Query(ctx, &base.Query{
			Operation:  "get_blob",
			Parameters: map[string]interface{}{"container": "reports", "blob": "nope"},
		})
		if base.Code(err) != 404 {
			t.Errorf("code = %d, want 404", base.Code(err))
		}
	})

	t.Run("list missing container is 404", func(t *testing.T) {
		_, err := fake.Query(ctx, &base.Query{
			Operation:  "list_blobs",
			Parameters: map[string]interface{}{"container": "nope"},
		})
		if base.Code(err) != 404 {
			t.Errorf("code = %d, want 404", base.Code(err))
		}
	})

	t.Run("duplicate container is 409", func(t *testing.T) {
		_, err := fake.Execute(ctx, &base.Command{
			Action:     "create_container",
			Parameters: map[string]interface{}{"container": "reports"},
		})
		if base.Code(err) != 409 {
			t.Errorf("code = %d, want 409", base.Code(err))
		}
	})

	t.Run("missing container param is 400", func(t *testing.T) {
		_, err := fake.Query(ctx, &base.Query{Operation: "list_blobs"})
		if base.Code(err) != 400 {
			t.Errorf("code = %d, want 400", base.Code(err))
		}
	})

	t.Run("unknown operation is 400", func(t *testing.T) {
		_, err := fake.Query(ctx, &base.Query{Operation: "drop_table"})
		if base.Code(err) != 400 {
			t.Errorf("code = %d, want 400", base.Code(err))
		}
	})
}

func TestFakeObjectStoreSeedAndList(t *testing.T) {
	ctx := context.Background()
	fake := newConnectedFake(t)
	fake.SeedBlob("logs", "b.log", "bb")
	fake.SeedBlob("logs", "a.log", "aa")
	fake.SeedBlob("archive", "old.tar", "data")

	res, err := fake.Query(ctx, &base.Query{Operation: "list_containers"})
	if err != nil {
		t.Fatalf("list_containers failed: %v", err)
	}
	if res.RowCount != 2 {
		t.Fatalf("containers = %d, want 2", res.RowCount)
	}
	// Listings are sorted.
	if res.Rows[0]["name"] != "archive" || res.Rows[1]["name"] != "logs" {
		t.Errorf("unexpected order: %+v", res.Rows)
	}

	blobs, err := fake.Query(ctx, &base.Query{
		Operation:  "list_blobs",
		Parameters: map[string]interface{}{"container": "logs"},
	})
	if err != nil {
		t.Fatalf("list_blobs failed: %v", err)
	}
	if blobs.Rows[0]["name"] != "a.log" || blobs.Rows[1]["name"] != "b.log" {
		t.Errorf("unexpected order: %+v", blobs.Rows)
	}
}

func TestFakeObjectStoreFailWith(t *testing.T) {
	ctx := context.Background()
	fake := newConnectedFake(t)

	injected := base.NewStorageError(503, "query", "service unavailable", nil)
	fake.FailWith(injected)

	_, err := fake.Query(ctx, &base.Query{Operation: "list_containers"})
	if !errors.Is(err, injected) && base.Code(err) != 503 {
		t.Errorf("expected injected error, got %v", err)
	}

	status, _ := fake.HealthCheck(ctx)
	if status.Healthy {
		t.Error("expected unhealthy while failure injected")
	}

	fake.FailWith(nil)
	if _, err := fake.Query(ctx, &base.Query{Operation: "list_containers"}); err != nil {
		t.Errorf("expected recovery after clearing failure, got %v", err)
	}
}

func TestFakeObjectStoreNotConnected(t *testing.T) {
	fake := NewFakeObjectStore("cold")

	_, err := fake.Query(context.Background(), &base.Query{Operation: "list_containers"})
	if base.Code(err) != 500 {
		t.Errorf("code = %d, want 500", base.Code(err))
	}
}

func TestFakeObjectStoreMetrics(t *testing.T) {
	ctx := context.Background()
	fake := newConnectedFake(t)
	fake.SeedBlob("reports", "a.txt", "hello")

	if _, err := fake.Query(ctx, &base.Query{
		Operation:  "get_blob",
		Parameters: map[string]interface{}{"container": "reports", "blob": "a.txt"},
	}); err != nil {
		t.Fatalf("get_blob failed: %v", err)
	}

	snap := fake.GetMetrics().Snapshot()
	if snap.ReadsTotal != 1 {
		t.Errorf("reads = %d, want 1", snap.ReadsTotal)
	}
	if snap.BytesDownloaded != 5 {
		t.Errorf("bytes downloaded = %d, want 5", snap.BytesDownloaded)
	}
}

func TestFakeObjectStoreTakesConfigName(t *testing.T) {
	fake := NewFakeObjectStore("placeholder")

	err := fake.Connect(context.Background(), &base.ConnectorConfig{Name: "main-blob", Type: "fake"})
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if fake.Name() != "main-blob" {
		t.Errorf("name = %q, want main-blob", fake.Name())
	}
}
