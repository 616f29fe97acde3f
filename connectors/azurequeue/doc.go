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
Package azurequeue provides the Azure Queue Storage connector.

# Overview

The connector wraps the Azure Queue SDK behind the storage Connector
interface. It supports queue management, sending and peeking messages,
receive/delete round-trips, and generating queue-scoped SAS tokens.

# Authentication

Exactly one credential mode must be configured:

  - account_key: shared key for the storage account; enables every
    operation including SAS generation
  - sas_token: a pre-issued SAS token; the connector can use the
    service but cannot mint further tokens

# Configuration

Required configuration:

  - account_name: Azure storage account name

Optional configuration:

  - default_queue: queue used when a request names none
  - sas_expiry: default SAS token lifetime in seconds (default: 3600)
  - skip_verify: skip the connectivity probe during Connect

The service endpoint defaults to https://{account}.queue.core.windows.net/
and can be overridden through ConnectorConfig.Endpoint for Azurite.

# Query Operations

  - list_queues: list queues, optionally filtered by name prefix
  - peek_messages: read up to 32 messages without changing visibility
  - generate_sas: mint a queue-scoped SAS token

# Execute Operations

  - create_queue: create a queue
  - delete_queue: delete a queue and every message in it
  - send_message: enqueue a message with optional ttl and
    visibility_timeout (default 30s, max 7 days)
  - receive_messages: dequeue messages, returning pop receipts
  - delete_message: remove a received message by id and pop receipt

# Usage Example

	conn := azurequeue.NewAzureQueueConnector()
	err := conn.Connect(ctx, &base.ConnectorConfig{
		Name: "main-queue",
		Type: "azurequeue",
		Credentials: map[string]string{
			"account_key": "base64-account-key",
		},
		Options: map[string]interface{}{
			"account_name":  "mystorageaccount",
			"default_queue": "jobs",
		},
	})

	result, err := conn.Execute(ctx, &base.Command{
		Action: "send_message",
		Parameters: map[string]interface{}{
			"content": `{"job":"nightly-report"}`,
			"ttl":     3600,
		},
	})

# SAS Tokens

GenerateSAS signs locally with the account key. Queue tokens accept the
permission letters r (read), a (add), u (update), and p (process), default
to read-only, and use the same one-hour lifetime and five-minute clock-skew
backdating as the blob connector.

# Thread Safety

The AzureQueueConnector is safe for concurrent use by multiple goroutines
after Connect.
*/
package azurequeue
