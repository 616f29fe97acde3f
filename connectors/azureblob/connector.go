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

// Package azureblob provides the Azure Blob Storage connector. It implements
// the base.Connector interface for container and blob operations including
// listing, reading, writing, deleting, and SAS token generation. Shared-key
// and SAS-token authentication are supported; only shared-key connectors can
// mint further SAS tokens.
package azureblob

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/service"

	"azstor/connectors/azure"
	"azstor/connectors/base"
	"azstor/connectors/sdk"
)

// AzureBlobConnector implements the storage Connector interface for Azure
// Blob Storage.
type AzureBlobConnector struct {
	sdk.BaseConnector
	client           *azblob.Client
	serviceClient    *service.Client
	cred             azure.Credential
	signingKey       *azblob.SharedKeyCredential
	defaultContainer string
}

// BlobInfo describes one blob in a listing.
type BlobInfo struct {
	Name         string
	Size         int64
	LastModified time.Time
	ContentType  string
	ETag         string
}

// NewAzureBlobConnector creates a new Azure Blob connector instance
func NewAzureBlobConnector() *AzureBlobConnector {
	conn := &AzureBlobConnector{}
	conn.BaseConnector = *sdk.NewBaseConnector("azureblob")
	conn.SetVersion("1.0.0")
	conn.SetCapabilities([]string{
		"query",   // List containers/blobs, read content
		"execute", // Create/delete containers, upload/delete blobs
		"sas",     // Generate SAS tokens
	})

	// Set up configuration validator
	conn.SetValidator(sdk.NewDefaultConfigValidator(
		[]string{"account_name"}, // Account name is required
		map[string]interface{}{
			"sas_expiry":  3600,  // 1 hour in seconds
			"skip_verify": false, // Skip the connectivity probe at Connect
		},
	))

	return conn
}

// Connect resolves credentials and builds the Azure Blob clients
func (c *AzureBlobConnector) Connect(ctx context.Context, cfg *base.ConnectorConfig) error {
	// Call base connect for validation and hooks
	if err := c.BaseConnector.Connect(ctx, cfg); err != nil {
		return err
	}

	c.defaultContainer = c.GetStringOption("default_container", "")

	// account_name lives in Options for discoverability but is also accepted
	// in Credentials alongside the secret material.
	creds := credentialMap(cfg)
	if creds["account_name"] == "" {
		creds["account_name"] = c.GetStringOption("account_name", "")
	}

	cred, err := azure.Resolve("connect", creds)
	if err != nil {
		return err
	}
	c.cred = cred

	serviceURL := azure.BlobServiceURL(cred)
	if ep := c.GetEndpoint(); ep != "" {
		serviceURL = ep
		if t, ok := cred.(azure.SASToken); ok {
			serviceURL = ep + "?" + t.Token
		}
	}

	switch k := cred.(type) {
	case azure.SharedKey:
		key, err := azblob.NewSharedKeyCredential(k.AccountName, k.AccountKey)
		if err != nil {
			return azure.WrapError("connect", "invalid shared key credential", err)
		}
		c.signingKey = key
		c.client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, key, nil)
		if err != nil {
			return azure.WrapError("connect", "failed to create client", err)
		}
		c.serviceClient, err = service.NewClientWithSharedKeyCredential(serviceURL, key, nil)
		if err != nil {
			return azure.WrapError("connect", "failed to create service client", err)
		}
	case azure.SASToken:
		c.signingKey = nil
		c.client, err = azblob.NewClientWithNoCredential(serviceURL, nil)
		if err != nil {
			return azure.WrapError("connect", "failed to create client", err)
		}
		c.serviceClient, err = service.NewClientWithNoCredential(serviceURL, nil)
		if err != nil {
			return azure.WrapError("connect", "failed to create service client", err)
		}
	}

	// Verify connectivity
	if !c.GetBoolOption("skip_verify", false) {
		if _, err := c.serviceClient.GetProperties(ctx, nil); err != nil {
			return azure.WrapError("connect", "failed to verify Azure Blob connectivity", err)
		}
	}

	c.GetMetrics().RecordConnect()
	c.Log("Connected to Azure Blob Storage (account: %s, container: %s)",
		base.SanitizeLogString(cred.Account()), base.SanitizeLogString(c.defaultContainer))

	return nil
}

// Disconnect closes the Azure Blob connection
func (c *AzureBlobConnector) Disconnect(ctx context.Context) error {
	c.GetMetrics().RecordDisconnect()
	c.client = nil
	c.serviceClient = nil
	c.signingKey = nil
	return c.BaseConnector.Disconnect(ctx)
}

// HealthCheck verifies Azure Blob connectivity
func (c *AzureBlobConnector) HealthCheck(ctx context.Context) (*base.HealthStatus, error) {
	if c.serviceClient == nil {
		return &base.HealthStatus{
			Healthy:   false,
			Error:     "Azure Blob client not initialized",
			Timestamp: time.Now(),
		}, nil
	}

	start := time.Now()
	_, err := c.serviceClient.GetProperties(ctx, nil)
	latency := time.Since(start)

	if err != nil {
		return &base.HealthStatus{
			Healthy:   false,
			Error:     err.Error(),
			Latency:   latency,
			Timestamp: time.Now(),
		}, nil
	}

	details := map[string]string{
		"account_name":      c.cred.Account(),
		"default_container": c.defaultContainer,
	}

	return &base.HealthStatus{
		Healthy:   true,
		Latency:   latency,
		Details:   details,
		Timestamp: time.Now(),
	}, nil
}

// Query lists containers/blobs, retrieves blob content, or generates SAS tokens
func (c *AzureBlobConnector) Query(ctx context.Context, query *base.Query) (*base.QueryResult, error) {
	if c.client == nil {
		return nil, base.NewStorageError(0, "query", "Azure Blob client not initialized", nil)
	}

	timer := sdk.NewTimer()
	defer timer.RecordTo(c.GetMetrics().RecordRead, nil)

	op := query.Operation
	if op == "" {
		op = "list_blobs"
	}

	switch strings.ToLower(op) {
	case "list_containers":
		return c.listContainers(ctx)
	case "list_blobs", "list":
		return c.listBlobs(ctx, query)
	case "get_blob", "get":
		return c.getBlob(ctx, query)
	case "get_properties", "head":
		return c.getBlobProperties(ctx, query)
	case "generate_sas":
		return c.generateSAS(query)
	default:
		return nil, base.ErrInvalidArgument("query", fmt.Sprintf("unknown operation: %s", op))
	}
}

// Execute performs write operations on Azure Blob
func (c *AzureBlobConnector) Execute(ctx context.Context, cmd *base.Command) (*base.CommandResult, error) {
	if c.client == nil {
		return nil, base.NewStorageError(0, "execute", "Azure Blob client not initialized", nil)
	}

	timer := sdk.NewTimer()
	defer timer.RecordTo(c.GetMetrics().RecordWrite, nil)

	switch strings.ToLower(cmd.Action) {
	case "upload_blob", "put", "upload":
		return c.uploadBlob(ctx, cmd)
	case "delete_blob", "delete":
		return c.deleteBlob(ctx, cmd)
	case "copy_blob", "copy":
		return c.copyBlob(ctx, cmd)
	case "create_container":
		return c.createContainer(ctx, cmd)
	case "delete_container":
		return c.deleteContainer(ctx, cmd)
	default:
		return nil, base.ErrInvalidArgument("execute", fmt.Sprintf("unknown action: %s", cmd.Action))
	}
}

// listContainers returns all containers in the storage account, fully drained
// into an ordered result (the service lists lexically).
func (c *AzureBlobConnector) listContainers(ctx context.Context) (*base.QueryResult, error) {
	start := time.Now()

	pager := c.serviceClient.NewListContainersPager(nil)

	rows := make([]map[string]interface{}, 0)
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, azure.WrapError("list_containers", "failed to list containers", err)
		}

		for _, item := range resp.ContainerItems {
			rows = append(rows, map[string]interface{}{
				"name":          *item.Name,
				"last_modified": item.Properties.LastModified,
			})
		}
	}

	c.GetMetrics().AddObjectsListed(int64(len(rows)))

	return &base.QueryResult{
		Rows:      rows,
		RowCount:  len(rows),
		Duration:  time.Since(start),
		Connector: c.Name(),
	}, nil
}

// listBlobs lists blobs in a container (flat listing, fully drained)
func (c *AzureBlobConnector) listBlobs(ctx context.Context, query *base.Query) (*base.QueryResult, error) {
	start := time.Now()

	containerName := c.getContainer(query.Parameters)
	if containerName == "" {
		return nil, base.ErrInvalidArgument("list_blobs", "container name is required")
	}

	rows := make([]map[string]interface{}, 0)
	for info, err := range c.Blobs(ctx, containerName) {
		if err != nil {
			return nil, err
		}
		rows = append(rows, map[string]interface{}{
			"name":          info.Name,
			"size":          info.Size,
			"last_modified": info.LastModified,
			"content_type":  info.ContentType,
			"etag":          info.ETag,
		})
	}

	c.GetMetrics().AddObjectsListed(int64(len(rows)))

	return &base.QueryResult{
		Rows:      rows,
		RowCount:  len(rows),
		Duration:  time.Since(start),
		Connector: c.Name(),
	}, nil
}

// Blobs returns a lazy iterator over a container's blobs. Pages are fetched
// on demand as the caller advances, so early termination skips the remaining
// round-trips. A page-fetch failure is yielded once as a non-nil error and
// ends the sequence.
func (c *AzureBlobConnector) Blobs(ctx context.Context, containerName string) iter.Seq2[BlobInfo, error] {
	return func(yield func(BlobInfo, error) bool) {
		if c.serviceClient == nil {
			yield(BlobInfo{}, base.NewStorageError(0, "list_blobs", "Azure Blob client not initialized", nil))
			return
		}

		containerClient := c.serviceClient.NewContainerClient(containerName)
		pager := containerClient.NewListBlobsFlatPager(&container.ListBlobsFlatOptions{})

		for pager.More() {
			resp, err := pager.NextPage(ctx)
			if err != nil {
				yield(BlobInfo{}, azure.WrapError("list_blobs", "failed to list blobs", err))
				return
			}

			for _, item := range resp.Segment.BlobItems {
				info := BlobInfo{
					Name:        *item.Name,
					ContentType: getStringPtrValue(item.Properties.ContentType),
					ETag:        getStringPtrValue((*string)(item.Properties.ETag)),
				}
				if item.Properties.ContentLength != nil {
					info.Size = *item.Properties.ContentLength
				}
				if item.Properties.LastModified != nil {
					info.LastModified = *item.Properties.LastModified
				}
				if !yield(info, nil) {
					return
				}
			}
		}
	}
}

// getBlob retrieves the full blob content as a string
func (c *AzureBlobConnector) getBlob(ctx context.Context, query *base.Query) (*base.QueryResult, error) {
	start := time.Now()

	containerName := c.getContainer(query.Parameters)
	blobName := getStringParam(query.Parameters, "blob", "")

	if containerName == "" {
		return nil, base.ErrInvalidArgument("get_blob", "container name is required")
	}
	if blobName == "" {
		return nil, base.ErrInvalidArgument("get_blob", "blob name is required")
	}

	blobClient := c.serviceClient.NewContainerClient(containerName).NewBlobClient(blobName)

	downloadResponse, err := blobClient.DownloadStream(ctx, nil)
	if err != nil {
		return nil, azure.WrapError("get_blob", fmt.Sprintf("failed to download blob: %s", blobName), err)
	}

	// The stream is drained completely; partial reads are never surfaced.
	content, err := io.ReadAll(downloadResponse.Body)
	downloadResponse.Body.Close()
	if err != nil {
		return nil, azure.WrapError("get_blob", "failed to read blob content", err)
	}

	c.GetMetrics().AddBytesDownloaded(int64(len(content)))

	row := map[string]interface{}{
		"blob":           blobName,
		"content":        string(content),
		"content_length": int64(len(content)),
		"content_type":   getStringPtrValue(downloadResponse.ContentType),
		"last_modified":  downloadResponse.LastModified,
	}

	return &base.QueryResult{
		Rows:      []map[string]interface{}{row},
		RowCount:  1,
		Duration:  time.Since(start),
		Connector: c.Name(),
	}, nil
}

// getBlobProperties retrieves blob metadata without content
func (c *AzureBlobConnector) getBlobProperties(ctx context.Context, query *base.Query) (*base.QueryResult, error) {
	start := time.Now()

	containerName := c.getContainer(query.Parameters)
	blobName := getStringParam(query.Parameters, "blob", "")

	if containerName == "" {
		return nil, base.ErrInvalidArgument("get_properties", "container name is required")
	}
	if blobName == "" {
		return nil, base.ErrInvalidArgument("get_properties", "blob name is required")
	}

	blobClient := c.serviceClient.NewContainerClient(containerName).NewBlobClient(blobName)

	props, err := blobClient.GetProperties(ctx, nil)
	if err != nil {
		return nil, azure.WrapError("get_properties", fmt.Sprintf("failed to get blob properties: %s", blobName), err)
	}

	row := map[string]interface{}{
		"blob":           blobName,
		"content_length": *props.ContentLength,
		"content_type":   getStringPtrValue(props.ContentType),
		"last_modified":  props.LastModified,
		"etag":           getStringPtrValue((*string)(props.ETag)),
	}

	if props.Metadata != nil {
		row["metadata"] = props.Metadata
	}

	return &base.QueryResult{
		Rows:      []map[string]interface{}{row},
		RowCount:  1,
		Duration:  time.Since(start),
		Connector: c.Name(),
	}, nil
}

// generateSAS mints a container- or blob-scoped SAS token
func (c *AzureBlobConnector) generateSAS(query *base.Query) (*base.QueryResult, error) {
	start := time.Now()

	containerName := c.getContainer(query.Parameters)
	blobName := getStringParam(query.Parameters, "blob", "")
	permissions := getStringParam(query.Parameters, "permissions", DefaultSASPermissions)
	expiry := getIntParam(query.Parameters, "expiry", c.GetIntOption("sas_expiry", 3600))

	if containerName == "" {
		return nil, base.ErrInvalidArgument("generate_sas", "container name is required")
	}

	token, err := c.GenerateSAS(SASOptions{
		Container:   containerName,
		Blob:        blobName,
		Permissions: permissions,
		Expiry:      time.Duration(expiry) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	c.GetMetrics().RecordSASIssued()

	scope := "container"
	if blobName != "" {
		scope = "blob"
	}

	row := map[string]interface{}{
		"token":       token,
		"url":         c.ResourceURL(containerName, blobName) + "?" + token,
		"scope":       scope,
		"permissions": permissions,
		"expires_at":  time.Now().UTC().Add(time.Duration(expiry) * time.Second),
	}

	return &base.QueryResult{
		Rows:      []map[string]interface{}{row},
		RowCount:  1,
		Duration:  time.Since(start),
		Connector: c.Name(),
	}, nil
}

// uploadBlob uploads content to a blob
func (c *AzureBlobConnector) uploadBlob(ctx context.Context, cmd *base.Command) (*base.CommandResult, error) {
	start := time.Now()

	containerName := c.getContainer(cmd.Parameters)
	blobName := getStringParam(cmd.Parameters, "blob", "")
	content := getStringParam(cmd.Parameters, "content", "")
	contentType := getStringParam(cmd.Parameters, "content_type", "application/octet-stream")

	if containerName == "" {
		return nil, base.ErrInvalidArgument("upload_blob", "container name is required")
	}
	if blobName == "" {
		return nil, base.ErrInvalidArgument("upload_blob", "blob name is required")
	}

	resp, err := c.client.UploadBuffer(ctx, containerName, blobName, []byte(content), &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &contentType,
		},
	})
	if err != nil {
		return nil, azure.WrapError("upload_blob", fmt.Sprintf("failed to upload blob: %s", blobName), err)
	}

	c.GetMetrics().AddBytesUploaded(int64(len(content)))

	return &base.CommandResult{
		Success:   true,
		RequestID: getStringPtrValue(resp.RequestID),
		Duration:  time.Since(start),
		Message:   fmt.Sprintf("Blob uploaded successfully: %s (%d bytes)", blobName, len(content)),
		Connector: c.Name(),
	}, nil
}

// deleteBlob deletes a blob along with its snapshots
func (c *AzureBlobConnector) deleteBlob(ctx context.Context, cmd *base.Command) (*base.CommandResult, error) {
	start := time.Now()

	containerName := c.getContainer(cmd.Parameters)
	blobName := getStringParam(cmd.Parameters, "blob", "")

	if containerName == "" {
		return nil, base.ErrInvalidArgument("delete_blob", "container name is required")
	}
	if blobName == "" {
		return nil, base.ErrInvalidArgument("delete_blob", "blob name is required")
	}

	// Snapshots are deleted with the base blob; the service rejects the
	// delete otherwise.
	deleteSnapshots := blob.DeleteSnapshotsOptionTypeInclude
	resp, err := c.client.DeleteBlob(ctx, containerName, blobName, &azblob.DeleteBlobOptions{
		DeleteSnapshots: &deleteSnapshots,
	})
	if err != nil {
		return nil, azure.WrapError("delete_blob", fmt.Sprintf("failed to delete blob: %s", blobName), err)
	}

	return &base.CommandResult{
		Success:   true,
		RequestID: getStringPtrValue(resp.RequestID),
		Duration:  time.Since(start),
		Message:   fmt.Sprintf("Blob deleted: %s", blobName),
		Connector: c.Name(),
	}, nil
}

// copyBlob starts a server-side blob copy
func (c *AzureBlobConnector) copyBlob(ctx context.Context, cmd *base.Command) (*base.CommandResult, error) {
	start := time.Now()

	sourceContainer := getStringParam(cmd.Parameters, "source_container", c.defaultContainer)
	sourceBlob := getStringParam(cmd.Parameters, "source_blob", "")
	destContainer := getStringParam(cmd.Parameters, "dest_container", c.defaultContainer)
	destBlob := getStringParam(cmd.Parameters, "dest_blob", "")

	if sourceContainer == "" || destContainer == "" {
		return nil, base.ErrInvalidArgument("copy_blob", "source and destination container names are required")
	}
	if sourceBlob == "" || destBlob == "" {
		return nil, base.ErrInvalidArgument("copy_blob", "source_blob and dest_blob are required")
	}

	sourceURL := c.ResourceURL(sourceContainer, sourceBlob)

	destClient := c.serviceClient.NewContainerClient(destContainer).NewBlobClient(destBlob)

	resp, err := destClient.StartCopyFromURL(ctx, sourceURL, nil)
	if err != nil {
		return nil, azure.WrapError("copy_blob", "failed to copy blob", err)
	}

	return &base.CommandResult{
		Success:   true,
		RequestID: getStringPtrValue(resp.RequestID),
		Duration:  time.Since(start),
		Message:   fmt.Sprintf("Blob copy started to %s/%s", destContainer, destBlob),
		Connector: c.Name(),
	}, nil
}

// createContainer creates a new container
func (c *AzureBlobConnector) createContainer(ctx context.Context, cmd *base.Command) (*base.CommandResult, error) {
	start := time.Now()

	containerName := getStringParam(cmd.Parameters, "container", "")

	if err := base.ValidateResourceName("container", containerName); err != nil {
		return nil, base.ErrInvalidArgument("create_container", err.Error())
	}

	resp, err := c.client.CreateContainer(ctx, containerName, nil)
	if err != nil {
		return nil, azure.WrapError("create_container", fmt.Sprintf("failed to create container: %s", containerName), err)
	}

	return &base.CommandResult{
		Success:   true,
		RequestID: getStringPtrValue(resp.RequestID),
		Duration:  time.Since(start),
		Message:   fmt.Sprintf("Container created: %s", containerName),
		Connector: c.Name(),
	}, nil
}

// deleteContainer deletes a container and every blob it holds
func (c *AzureBlobConnector) deleteContainer(ctx context.Context, cmd *base.Command) (*base.CommandResult, error) {
	start := time.Now()

	containerName := getStringParam(cmd.Parameters, "container", "")

	if containerName == "" {
		return nil, base.ErrInvalidArgument("delete_container", "container name is required")
	}

	resp, err := c.client.DeleteContainer(ctx, containerName, nil)
	if err != nil {
		return nil, azure.WrapError("delete_container", fmt.Sprintf("failed to delete container: %s", containerName), err)
	}

	return &base.CommandResult{
		Success:   true,
		RequestID: getStringPtrValue(resp.RequestID),
		Duration:  time.Since(start),
		Message:   fmt.Sprintf("Container deleted: %s", containerName),
		Connector: c.Name(),
	}, nil
}

// ResourceURL composes the fetchable URL of a container or blob. The caller
// appends a SAS token when one is needed.
func (c *AzureBlobConnector) ResourceURL(containerName, blobName string) string {
	url := fmt.Sprintf("https://%s.blob.core.windows.net/%s", c.cred.Account(), containerName)
	if blobName != "" {
		url += "/" + blobName
	}
	return url
}

// getContainer returns the container from parameters or default
func (c *AzureBlobConnector) getContainer(params map[string]interface{}) string {
	if container := getStringParam(params, "container", ""); container != "" {
		return container
	}
	return c.defaultContainer
}

// credentialMap copies the config credentials so the resolver can fill in
// defaults without mutating the caller's map.
func credentialMap(cfg *base.ConnectorConfig) map[string]string {
	out := make(map[string]string, len(cfg.Credentials)+1)
	for k, v := range cfg.Credentials {
		out[k] = v
	}
	return out
}

// Helper functions
func getStringParam(params map[string]interface{}, key, defaultValue string) string {
	if params == nil {
		return defaultValue
	}
	if v, ok := params[key].(string); ok {
		return v
	}
	return defaultValue
}

func getIntParam(params map[string]interface{}, key string, defaultValue int) int {
	if params == nil {
		return defaultValue
	}
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return defaultValue
}

func getStringPtrValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Verify AzureBlobConnector implements base.Connector
var _ base.Connector = (*AzureBlobConnector)(nil)
