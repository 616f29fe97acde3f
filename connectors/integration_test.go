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

//go:build integration

// Package connectors provides integration tests for the storage connectors.
//
// Run these tests against local emulators:
//
//	# Azurite (Azure Blob + Queue emulator)
//	docker run -d --name azurite-test -p 10000:10000 -p 10001:10001 \
//	  mcr.microsoft.com/azure-storage/azurite
//
//	# MinIO (S3-compatible)
//	docker run -d --name minio-test -p 9000:9000 \
//	  -e MINIO_ROOT_USER=minioadmin -e MINIO_ROOT_PASSWORD=minioadmin \
//	  minio/minio server /data
//
//	# Run integration tests
//	go test -tags=integration ./connectors/...
//
//	# Clean up
//	docker rm -f azurite-test minio-test
package connectors

import (
	"context"
	"os"
	"testing"
	"time"

	"azstor/connectors/azureblob"
	"azstor/connectors/azurequeue"
	"azstor/connectors/base"
	"azstor/connectors/s3"
)

// Azurite's well-known development account
const (
	azuriteAccount = "devstoreaccount1"
	azuriteKey     = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="
)

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}

func azuriteBlobEndpoint() string {
	if ep := os.Getenv("AZURITE_BLOB_ENDPOINT"); ep != "" {
		return ep
	}
	return "http://127.0.0.1:10000/" + azuriteAccount
}

func azuriteQueueEndpoint() string {
	if ep := os.Getenv("AZURITE_QUEUE_ENDPOINT"); ep != "" {
		return ep
	}
	return "http://127.0.0.1:10001/" + azuriteAccount
}

// Azure Blob Integration Tests

func TestAzureBlob_FullLifecycle(t *testing.T) {
	c := azureblob.NewAzureBlobConnector()
	ctx := context.Background()

	err := c.Connect(ctx, &base.ConnectorConfig{
		Name:     "blob-integration-test",
		Type:     "azureblob",
		Endpoint: azuriteBlobEndpoint(),
		Options: map[string]interface{}{
			"account_name": azuriteAccount,
		},
		Credentials: map[string]string{
			"account_key": azuriteKey,
		},
		Timeout: 30 * time.Second,
	})
	if err != nil {
		t.Skipf("Azurite not available: %v", err)
	}
	defer c.Disconnect(ctx)

	container := "integration-test"

	// Create container
	_, err = c.Execute(ctx, &base.Command{
		Action:     "create_container",
		Parameters: map[string]interface{}{"container": container},
	})
	if err != nil && !base.IsConflict(err) {
		t.Fatalf("create_container failed: %v", err)
	}

	defer c.Execute(ctx, &base.Command{
		Action:     "delete_container",
		Parameters: map[string]interface{}{"container": container},
	})

	// Upload
	result, err := c.Execute(ctx, &base.Command{
		Action: "upload_blob",
		Parameters: map[string]interface{}{
			"container":    container,
			"blob":         "hello.txt",
			"content":      "hello integration",
			"content_type": "text/plain",
		},
	})
	if err != nil {
		t.Fatalf("upload_blob failed: %v", err)
	}
	if !result.Success {
		t.Error("expected upload to succeed")
	}

	// List
	listResult, err := c.Query(ctx, &base.Query{
		Operation:  "list_blobs",
		Parameters: map[string]interface{}{"container": container},
	})
	if err != nil {
		t.Fatalf("list_blobs failed: %v", err)
	}
	if listResult.RowCount != 1 {
		t.Errorf("expected 1 blob, got %d", listResult.RowCount)
	}

	// Get content
	getResult, err := c.Query(ctx, &base.Query{
		Operation: "get_blob",
		Parameters: map[string]interface{}{
			"container": container,
			"blob":      "hello.txt",
		},
	})
	if err != nil {
		t.Fatalf("get_blob failed: %v", err)
	}
	if getResult.Rows[0]["content"] != "hello integration" {
		t.Errorf("unexpected blob content: %v", getResult.Rows[0]["content"])
	}

	// Properties
	headResult, err := c.Query(ctx, &base.Query{
		Operation: "get_properties",
		Parameters: map[string]interface{}{
			"container": container,
			"blob":      "hello.txt",
		},
	})
	if err != nil {
		t.Fatalf("get_properties failed: %v", err)
	}
	if headResult.RowCount != 1 {
		t.Error("expected one properties row")
	}

	// Delete
	result, err = c.Execute(ctx, &base.Command{
		Action: "delete_blob",
		Parameters: map[string]interface{}{
			"container": container,
			"blob":      "hello.txt",
		},
	})
	if err != nil {
		t.Fatalf("delete_blob failed: %v", err)
	}

	// Missing blob answers 404
	_, err = c.Query(ctx, &base.Query{
		Operation: "get_blob",
		Parameters: map[string]interface{}{
			"container": container,
			"blob":      "hello.txt",
		},
	})
	if !base.IsNotFound(err) {
		t.Errorf("expected 404 for deleted blob, got %v", err)
	}
}

func TestAzureBlob_SASAgainstEmulator(t *testing.T) {
	c := azureblob.NewAzureBlobConnector()
	ctx := context.Background()

	err := c.Connect(ctx, &base.ConnectorConfig{
		Name:     "blob-sas-test",
		Type:     "azureblob",
		Endpoint: azuriteBlobEndpoint(),
		Options: map[string]interface{}{
			"account_name": azuriteAccount,
		},
		Credentials: map[string]string{
			"account_key": azuriteKey,
		},
		Timeout: 30 * time.Second,
	})
	if err != nil {
		t.Skipf("Azurite not available: %v", err)
	}
	defer c.Disconnect(ctx)

	result, err := c.Query(ctx, &base.Query{
		Operation: "generate_sas",
		Parameters: map[string]interface{}{
			"container": "integration-test",
			"blob":      "hello.txt",
		},
	})
	if err != nil {
		t.Fatalf("generate_sas failed: %v", err)
	}

	token, _ := result.Rows[0]["token"].(string)
	if token == "" {
		t.Error("expected a SAS token")
	}
	signedURL, _ := result.Rows[0]["url"].(string)
	if signedURL == "" {
		t.Error("expected a signed resource URL")
	}
}

// Azure Queue Integration Tests

func TestAzureQueue_FullLifecycle(t *testing.T) {
	c := azurequeue.NewAzureQueueConnector()
	ctx := context.Background()

	err := c.Connect(ctx, &base.ConnectorConfig{
		Name:     "queue-integration-test",
		Type:     "azurequeue",
		Endpoint: azuriteQueueEndpoint(),
		Options: map[string]interface{}{
			"account_name": azuriteAccount,
		},
		Credentials: map[string]string{
			"account_key": azuriteKey,
		},
		Timeout: 30 * time.Second,
	})
	if err != nil {
		t.Skipf("Azurite not available: %v", err)
	}
	defer c.Disconnect(ctx)

	queue := "integration-jobs"

	_, err = c.Execute(ctx, &base.Command{
		Action:     "create_queue",
		Parameters: map[string]interface{}{"queue": queue},
	})
	if err != nil && !base.IsConflict(err) {
		t.Fatalf("create_queue failed: %v", err)
	}

	defer c.Execute(ctx, &base.Command{
		Action:     "delete_queue",
		Parameters: map[string]interface{}{"queue": queue},
	})

	// Send
	result, err := c.Execute(ctx, &base.Command{
		Action: "send_message",
		Parameters: map[string]interface{}{
			"queue":   queue,
			"content": "job-1",
		},
	})
	if err != nil {
		t.Fatalf("send_message failed: %v", err)
	}
	if !result.Success {
		t.Error("expected send to succeed")
	}

	// Peek leaves the message in place
	peekResult, err := c.Query(ctx, &base.Query{
		Operation:  "peek_messages",
		Parameters: map[string]interface{}{"queue": queue},
	})
	if err != nil {
		t.Fatalf("peek_messages failed: %v", err)
	}
	if peekResult.RowCount != 1 {
		t.Errorf("expected 1 peeked message, got %d", peekResult.RowCount)
	}

	// Receive hides it behind the visibility timeout
	recvResult, err := c.Execute(ctx, &base.Command{
		Action: "receive_messages",
		Parameters: map[string]interface{}{
			"queue":              queue,
			"visibility_timeout": 1,
		},
	})
	if err != nil {
		t.Fatalf("receive_messages failed: %v", err)
	}
	if !recvResult.Success {
		t.Error("expected receive to succeed")
	}
}

func TestAzureQueue_VisibilityTimeoutValidation(t *testing.T) {
	c := azurequeue.NewAzureQueueConnector()
	ctx := context.Background()

	err := c.Connect(ctx, &base.ConnectorConfig{
		Name:     "queue-validation-test",
		Type:     "azurequeue",
		Endpoint: azuriteQueueEndpoint(),
		Options: map[string]interface{}{
			"account_name": azuriteAccount,
		},
		Credentials: map[string]string{
			"account_key": azuriteKey,
		},
		Timeout: 30 * time.Second,
	})
	if err != nil {
		t.Skipf("Azurite not available: %v", err)
	}
	defer c.Disconnect(ctx)

	_, err = c.Execute(ctx, &base.Command{
		Action: "send_message",
		Parameters: map[string]interface{}{
			"queue":              "integration-jobs",
			"content":            "bad",
			"visibility_timeout": 700000, // above the 7-day service ceiling
		},
	})
	if base.Code(err) != 400 {
		t.Errorf("expected 400 for out-of-range visibility timeout, got %v", err)
	}
}

// S3 Integration Tests (MinIO)

func TestS3_FullLifecycle(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}

	c := s3.NewS3Connector()
	ctx := context.Background()

	err := c.Connect(ctx, &base.ConnectorConfig{
		Name:     "s3-integration-test",
		Type:     "s3",
		Endpoint: endpoint,
		Options: map[string]interface{}{
			"region":           "us-east-1",
			"force_path_style": true,
		},
		Credentials: map[string]string{
			"access_key_id":     "minioadmin",
			"secret_access_key": "minioadmin",
		},
		Timeout: 30 * time.Second,
	})
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}
	defer c.Disconnect(ctx)

	bucket := "integration-test"

	_, err = c.Execute(ctx, &base.Command{
		Action:     "create_bucket",
		Parameters: map[string]interface{}{"bucket": bucket},
	})
	if err != nil && !base.IsConflict(err) {
		t.Fatalf("create_bucket failed: %v", err)
	}

	defer c.Execute(ctx, &base.Command{
		Action:     "delete_bucket",
		Parameters: map[string]interface{}{"bucket": bucket},
	})

	// Put
	result, err := c.Execute(ctx, &base.Command{
		Action: "put_object",
		Parameters: map[string]interface{}{
			"bucket":  bucket,
			"key":     "hello.txt",
			"content": "hello minio",
		},
	})
	if err != nil {
		t.Fatalf("put_object failed: %v", err)
	}
	if !result.Success {
		t.Error("expected put to succeed")
	}

	// List
	listResult, err := c.Query(ctx, &base.Query{
		Operation:  "list_objects",
		Parameters: map[string]interface{}{"bucket": bucket},
	})
	if err != nil {
		t.Fatalf("list_objects failed: %v", err)
	}
	if listResult.RowCount != 1 {
		t.Errorf("expected 1 object, got %d", listResult.RowCount)
	}

	// Get
	getResult, err := c.Query(ctx, &base.Query{
		Operation: "get_object",
		Parameters: map[string]interface{}{
			"bucket": bucket,
			"key":    "hello.txt",
		},
	})
	if err != nil {
		t.Fatalf("get_object failed: %v", err)
	}
	if getResult.Rows[0]["content"] != "hello minio" {
		t.Errorf("unexpected object content: %v", getResult.Rows[0]["content"])
	}

	// Delete
	_, err = c.Execute(ctx, &base.Command{
		Action: "delete_object",
		Parameters: map[string]interface{}{
			"bucket": bucket,
			"key":    "hello.txt",
		},
	})
	if err != nil {
		t.Fatalf("delete_object failed: %v", err)
	}
}
