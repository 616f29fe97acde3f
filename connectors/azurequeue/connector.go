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

// Package azurequeue provides the Azure Queue Storage connector. It implements
// the base.Connector interface for queue management and message operations
// including enqueue, peek, receive, and SAS token generation.
package azurequeue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"azstor/connectors/azure"
	"azstor/connectors/base"
	"azstor/connectors/sdk"
)

const (
	// DefaultVisibilityTimeout hides a newly enqueued message for 30 seconds
	// when the caller does not choose one.
	DefaultVisibilityTimeout = 30

	// MaxVisibilityTimeout is seven days in seconds, the service maximum for
	// both visibility timeouts and message time-to-live.
	MaxVisibilityTimeout = 604800
)

// AzureQueueConnector implements the storage Connector interface for Azure
// Queue Storage.
type AzureQueueConnector struct {
	sdk.BaseConnector
	serviceClient *azqueue.ServiceClient
	cred          azure.Credential
	signingKey    *azqueue.SharedKeyCredential
	defaultQueue  string
}

// NewAzureQueueConnector creates a new Azure Queue connector instance
func NewAzureQueueConnector() *AzureQueueConnector {
	conn := &AzureQueueConnector{}
	conn.BaseConnector = *sdk.NewBaseConnector("azurequeue")
	conn.SetVersion("1.0.0")
	conn.SetCapabilities([]string{
		"query",   // List queues, peek messages
		"execute", // Create/delete queues, send/receive/delete messages
		"sas",     // Generate SAS tokens
	})

	conn.SetValidator(sdk.NewDefaultConfigValidator(
		[]string{"account_name"},
		map[string]interface{}{
			"sas_expiry":  3600,
			"skip_verify": false,
		},
	))

	return conn
}

// Connect resolves credentials and builds the Azure Queue service client
func (c *AzureQueueConnector) Connect(ctx context.Context, cfg *base.ConnectorConfig) error {
	if err := c.BaseConnector.Connect(ctx, cfg); err != nil {
		return err
	}

	c.defaultQueue = c.GetStringOption("default_queue", "")

	creds := make(map[string]string, len(cfg.Credentials)+1)
	for k, v := range cfg.Credentials {
		creds[k] = v
	}
	if creds["account_name"] == "" {
		creds["account_name"] = c.GetStringOption("account_name", "")
	}

	cred, err := azure.Resolve("connect", creds)
	if err != nil {
		return err
	}
	c.cred = cred

	serviceURL := azure.QueueServiceURL(cred)
	if ep := c.GetEndpoint(); ep != "" {
		serviceURL = ep
		if t, ok := cred.(azure.SASToken); ok {
			serviceURL = ep + "?" + t.Token
		}
	}

	switch k := cred.(type) {
	case azure.SharedKey:
		key, err := azqueue.NewSharedKeyCredential(k.AccountName, k.AccountKey)
		if err != nil {
			return azure.WrapError("connect", "invalid shared key credential", err)
		}
		c.signingKey = key
		c.serviceClient, err = azqueue.NewServiceClientWithSharedKeyCredential(serviceURL, key, nil)
		if err != nil {
			return azure.WrapError("connect", "failed to create service client", err)
		}
	case azure.SASToken:
		c.signingKey = nil
		c.serviceClient, err = azqueue.NewServiceClientWithNoCredential(serviceURL, nil)
		if err != nil {
			return azure.WrapError("connect", "failed to create service client", err)
		}
	}

	// Verify connectivity
	if !c.GetBoolOption("skip_verify", false) {
		if _, err := c.serviceClient.GetServiceProperties(ctx, nil); err != nil {
			return azure.WrapError("connect", "failed to verify Azure Queue connectivity", err)
		}
	}

	c.GetMetrics().RecordConnect()
	c.Log("Connected to Azure Queue Storage (account: %s, queue: %s)",
		base.SanitizeLogString(cred.Account()), base.SanitizeLogString(c.defaultQueue))

	return nil
}

// Disconnect closes the Azure Queue connection
func (c *AzureQueueConnector) Disconnect(ctx context.Context) error {
	c.GetMetrics().RecordDisconnect()
	c.serviceClient = nil
	c.signingKey = nil
	return c.BaseConnector.Disconnect(ctx)
}

// HealthCheck verifies Azure Queue connectivity
func (c *AzureQueueConnector) HealthCheck(ctx context.Context) (*base.HealthStatus, error) {
	if c.serviceClient == nil {
		return &base.HealthStatus{
			Healthy:   false,
			Error:     "Azure Queue client not initialized",
			Timestamp: time.Now(),
		}, nil
	}

	start := time.Now()
	_, err := c.serviceClient.GetServiceProperties(ctx, nil)
	latency := time.Since(start)

	if err != nil {
		return &base.HealthStatus{
			Healthy:   false,
			Error:     err.Error(),
			Latency:   latency,
			Timestamp: time.Now(),
		}, nil
	}

	return &base.HealthStatus{
		Healthy: true,
		Latency: latency,
		Details: map[string]string{
			"account_name":  c.cred.Account(),
			"default_queue": c.defaultQueue,
		},
		Timestamp: time.Now(),
	}, nil
}

// Query lists queues, peeks messages, or generates SAS tokens
func (c *AzureQueueConnector) Query(ctx context.Context, query *base.Query) (*base.QueryResult, error) {
	if c.serviceClient == nil {
		return nil, base.NewStorageError(0, "query", "Azure Queue client not initialized", nil)
	}

	timer := sdk.NewTimer()
	defer timer.RecordTo(c.GetMetrics().RecordRead, nil)

	switch strings.ToLower(query.Operation) {
	case "list_queues", "list":
		return c.listQueues(ctx, query)
	case "peek_messages", "peek":
		return c.peekMessages(ctx, query)
	case "generate_sas":
		return c.generateSAS(query)
	default:
		return nil, base.ErrInvalidArgument("query", fmt.Sprintf("unknown operation: %s", query.Operation))
	}
}

// Execute performs write operations on Azure Queue
func (c *AzureQueueConnector) Execute(ctx context.Context, cmd *base.Command) (*base.CommandResult, error) {
	if c.serviceClient == nil {
		return nil, base.NewStorageError(0, "execute", "Azure Queue client not initialized", nil)
	}

	timer := sdk.NewTimer()
	defer timer.RecordTo(c.GetMetrics().RecordWrite, nil)

	switch strings.ToLower(cmd.Action) {
	case "create_queue":
		return c.createQueue(ctx, cmd)
	case "delete_queue":
		return c.deleteQueue(ctx, cmd)
	case "send_message", "send", "enqueue":
		return c.sendMessage(ctx, cmd)
	case "receive_messages", "receive", "dequeue":
		return c.receiveMessages(ctx, cmd)
	case "delete_message":
		return c.deleteMessage(ctx, cmd)
	default:
		return nil, base.ErrInvalidArgument("execute", fmt.Sprintf("unknown action: %s", cmd.Action))
	}
}

// listQueues lists queues in the account, optionally filtered by name prefix
func (c *AzureQueueConnector) listQueues(ctx context.Context, query *base.Query) (*base.QueryResult, error) {
	start := time.Now()

	opts := &azqueue.ListQueuesOptions{}
	if prefix := getStringParam(query.Parameters, "prefix", ""); prefix != "" {
		opts.Prefix = &prefix
	}

	pager := c.serviceClient.NewListQueuesPager(opts)

	rows := make([]map[string]interface{}, 0)
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, azure.WrapError("list_queues", "failed to list queues", err)
		}

		for _, item := range resp.Queues {
			row := map[string]interface{}{
				"name": getStringPtrValue(item.Name),
			}
			if len(item.Metadata) > 0 {
				row["metadata"] = item.Metadata
			}
			rows = append(rows, row)
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

// peekMessages reads messages without changing their visibility
func (c *AzureQueueConnector) peekMessages(ctx context.Context, query *base.Query) (*base.QueryResult, error) {
	start := time.Now()

	queueName := c.getQueue(query.Parameters)
	if queueName == "" {
		return nil, base.ErrInvalidArgument("peek_messages", "queue name is required")
	}

	count := int32(getIntParam(query.Parameters, "count", 1))
	if count < 1 || count > 32 {
		return nil, base.ErrInvalidArgument("peek_messages", "count must be between 1 and 32")
	}

	queueClient := c.serviceClient.NewQueueClient(queueName)

	resp, err := queueClient.PeekMessages(ctx, &azqueue.PeekMessagesOptions{
		NumberOfMessages: &count,
	})
	if err != nil {
		return nil, azure.WrapError("peek_messages", fmt.Sprintf("failed to peek messages on queue: %s", queueName), err)
	}

	rows := make([]map[string]interface{}, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		row := map[string]interface{}{
			"message_id": getStringPtrValue(msg.MessageID),
			"content":    getStringPtrValue(msg.MessageText),
		}
		if msg.InsertionTime != nil {
			row["inserted_at"] = *msg.InsertionTime
		}
		if msg.ExpirationTime != nil {
			row["expires_at"] = *msg.ExpirationTime
		}
		if msg.DequeueCount != nil {
			row["dequeue_count"] = *msg.DequeueCount
		}
		rows = append(rows, row)
	}

	c.GetMetrics().AddObjectsListed(int64(len(rows)))

	return &base.QueryResult{
		Rows:      rows,
		RowCount:  len(rows),
		Duration:  time.Since(start),
		Connector: c.Name(),
	}, nil
}

// generateSAS mints a queue-scoped SAS token
func (c *AzureQueueConnector) generateSAS(query *base.Query) (*base.QueryResult, error) {
	start := time.Now()

	queueName := c.getQueue(query.Parameters)
	permissions := getStringParam(query.Parameters, "permissions", DefaultSASPermissions)
	expiry := getIntParam(query.Parameters, "expiry", c.GetIntOption("sas_expiry", 3600))

	if queueName == "" {
		return nil, base.ErrInvalidArgument("generate_sas", "queue name is required")
	}

	token, err := c.GenerateSAS(SASOptions{
		Queue:       queueName,
		Permissions: permissions,
		Expiry:      time.Duration(expiry) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	c.GetMetrics().RecordSASIssued()

	row := map[string]interface{}{
		"token":       token,
		"url":         c.ResourceURL(queueName) + "?" + token,
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

// createQueue creates a new queue
func (c *AzureQueueConnector) createQueue(ctx context.Context, cmd *base.Command) (*base.CommandResult, error) {
	start := time.Now()

	queueName := getStringParam(cmd.Parameters, "queue", "")

	if err := base.ValidateResourceName("queue", queueName); err != nil {
		return nil, base.ErrInvalidArgument("create_queue", err.Error())
	}

	resp, err := c.serviceClient.CreateQueue(ctx, queueName, nil)
	if err != nil {
		return nil, azure.WrapError("create_queue", fmt.Sprintf("failed to create queue: %s", queueName), err)
	}

	return &base.CommandResult{
		Success:   true,
		RequestID: getStringPtrValue(resp.RequestID),
		Duration:  time.Since(start),
		Message:   fmt.Sprintf("Queue created: %s", queueName),
		Connector: c.Name(),
	}, nil
}

// deleteQueue deletes a queue and every message it holds
func (c *AzureQueueConnector) deleteQueue(ctx context.Context, cmd *base.Command) (*base.CommandResult, error) {
	start := time.Now()

	queueName := getStringParam(cmd.Parameters, "queue", "")

	if queueName == "" {
		return nil, base.ErrInvalidArgument("delete_queue", "queue name is required")
	}

	resp, err := c.serviceClient.DeleteQueue(ctx, queueName, nil)
	if err != nil {
		return nil, azure.WrapError("delete_queue", fmt.Sprintf("failed to delete queue: %s", queueName), err)
	}

	return &base.CommandResult{
		Success:   true,
		RequestID: getStringPtrValue(resp.RequestID),
		Duration:  time.Since(start),
		Message:   fmt.Sprintf("Queue deleted: %s", queueName),
		Connector: c.Name(),
	}, nil
}

// sendMessage enqueues a message, optionally with a time-to-live and a
// custom visibility timeout.
func (c *AzureQueueConnector) sendMessage(ctx context.Context, cmd *base.Command) (*base.CommandResult, error) {
	start := time.Now()

	queueName := c.getQueue(cmd.Parameters)
	content := getStringParam(cmd.Parameters, "content", "")

	if queueName == "" {
		return nil, base.ErrInvalidArgument("send_message", "queue name is required")
	}
	if content == "" {
		return nil, base.ErrInvalidArgument("send_message", "message content is required")
	}

	visibility := int32(getIntParam(cmd.Parameters, "visibility_timeout", DefaultVisibilityTimeout))
	if visibility < 1 || visibility > MaxVisibilityTimeout {
		return nil, base.ErrInvalidArgument("send_message",
			fmt.Sprintf("visibility_timeout must be between 1 and %d seconds", MaxVisibilityTimeout))
	}

	opts := &azqueue.EnqueueMessageOptions{
		VisibilityTimeout: &visibility,
	}

	// TTL of -1 means the message never expires.
	if ttl := getIntParam(cmd.Parameters, "ttl", 0); ttl != 0 {
		if ttl != -1 && (ttl < 1 || ttl > MaxVisibilityTimeout) {
			return nil, base.ErrInvalidArgument("send_message",
				fmt.Sprintf("ttl must be -1 or between 1 and %d seconds", MaxVisibilityTimeout))
		}
		ttl32 := int32(ttl)
		opts.TimeToLive = &ttl32
	}

	resp, err := c.serviceClient.NewQueueClient(queueName).EnqueueMessage(ctx, content, opts)
	if err != nil {
		return nil, azure.WrapError("send_message", fmt.Sprintf("failed to enqueue message on queue: %s", queueName), err)
	}

	messageID := ""
	if len(resp.Messages) > 0 {
		messageID = getStringPtrValue(resp.Messages[0].MessageID)
	}

	c.GetMetrics().AddBytesUploaded(int64(len(content)))

	return &base.CommandResult{
		Success:   true,
		RequestID: getStringPtrValue(resp.RequestID),
		Duration:  time.Since(start),
		Message:   fmt.Sprintf("Message enqueued: %s", messageID),
		Connector: c.Name(),
		Metadata: map[string]interface{}{
			"message_id": messageID,
		},
	}, nil
}

// receiveMessages dequeues messages, making them invisible for the
// visibility timeout.
func (c *AzureQueueConnector) receiveMessages(ctx context.Context, cmd *base.Command) (*base.CommandResult, error) {
	start := time.Now()

	queueName := c.getQueue(cmd.Parameters)
	if queueName == "" {
		return nil, base.ErrInvalidArgument("receive_messages", "queue name is required")
	}

	count := int32(getIntParam(cmd.Parameters, "count", 1))
	if count < 1 || count > 32 {
		return nil, base.ErrInvalidArgument("receive_messages", "count must be between 1 and 32")
	}

	opts := &azqueue.DequeueMessagesOptions{
		NumberOfMessages: &count,
	}
	if v := getIntParam(cmd.Parameters, "visibility_timeout", 0); v != 0 {
		if v < 1 || v > MaxVisibilityTimeout {
			return nil, base.ErrInvalidArgument("receive_messages",
				fmt.Sprintf("visibility_timeout must be between 1 and %d seconds", MaxVisibilityTimeout))
		}
		v32 := int32(v)
		opts.VisibilityTimeout = &v32
	}

	resp, err := c.serviceClient.NewQueueClient(queueName).DequeueMessages(ctx, opts)
	if err != nil {
		return nil, azure.WrapError("receive_messages", fmt.Sprintf("failed to receive messages on queue: %s", queueName), err)
	}

	messages := make([]map[string]interface{}, 0, len(resp.Messages))
	var received int64
	for _, msg := range resp.Messages {
		text := getStringPtrValue(msg.MessageText)
		received += int64(len(text))
		messages = append(messages, map[string]interface{}{
			"message_id":  getStringPtrValue(msg.MessageID),
			"content":     text,
			"pop_receipt": getStringPtrValue(msg.PopReceipt),
		})
	}
	c.GetMetrics().AddBytesDownloaded(received)

	return &base.CommandResult{
		Success:   true,
		RequestID: getStringPtrValue(resp.RequestID),
		Duration:  time.Since(start),
		Message:   fmt.Sprintf("Received %d message(s)", len(messages)),
		Connector: c.Name(),
		Metadata: map[string]interface{}{
			"messages": messages,
		},
	}, nil
}

// deleteMessage removes a previously received message using its pop receipt
func (c *AzureQueueConnector) deleteMessage(ctx context.Context, cmd *base.Command) (*base.CommandResult, error) {
	start := time.Now()

	queueName := c.getQueue(cmd.Parameters)
	messageID := getStringParam(cmd.Parameters, "message_id", "")
	popReceipt := getStringParam(cmd.Parameters, "pop_receipt", "")

	if queueName == "" {
		return nil, base.ErrInvalidArgument("delete_message", "queue name is required")
	}
	if messageID == "" || popReceipt == "" {
		return nil, base.ErrInvalidArgument("delete_message", "message_id and pop_receipt are required")
	}

	resp, err := c.serviceClient.NewQueueClient(queueName).DeleteMessage(ctx, messageID, popReceipt, nil)
	if err != nil {
		return nil, azure.WrapError("delete_message", fmt.Sprintf("failed to delete message: %s", messageID), err)
	}

	return &base.CommandResult{
		Success:   true,
		RequestID: getStringPtrValue(resp.RequestID),
		Duration:  time.Since(start),
		Message:   fmt.Sprintf("Message deleted: %s", messageID),
		Connector: c.Name(),
	}, nil
}

// ResourceURL composes the fetchable URL of a queue. The caller appends a
// SAS token when one is needed.
func (c *AzureQueueConnector) ResourceURL(queueName string) string {
	return fmt.Sprintf("https://%s.queue.core.windows.net/%s", c.cred.Account(), queueName)
}

// getQueue returns the queue from parameters or default
func (c *AzureQueueConnector) getQueue(params map[string]interface{}) string {
	if queue := getStringParam(params, "queue", ""); queue != "" {
		return queue
	}
	return c.defaultQueue
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

// Verify AzureQueueConnector implements base.Connector
var _ base.Connector = (*AzureQueueConnector)(nil)
