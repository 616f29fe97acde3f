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
Package azureblob provides the Azure Blob Storage connector.

# Overview

The connector wraps the Azure Blob SDK behind the storage Connector
interface. It supports listing containers and blobs, reading and writing
blob content, deleting blobs together with their snapshots, and generating
SAS (Shared Access Signature) tokens.

# Authentication

Exactly one credential mode must be configured:

  - account_key: shared key for the storage account; enables every
    operation including SAS generation
  - sas_token: a pre-issued SAS token; the connector can use the
    service but cannot mint further tokens

Supplying both is a configuration error; supplying neither fails with an
authentication error.

# Configuration

Required configuration:

  - account_name: Azure storage account name

Optional configuration:

  - default_container: container used when a request names none
  - sas_expiry: default SAS token lifetime in seconds (default: 3600)
  - skip_verify: skip the connectivity probe during Connect

The service endpoint defaults to https://{account}.blob.core.windows.net/
and can be overridden through ConnectorConfig.Endpoint for Azurite.

# Query Operations

  - list_containers: list every container in the account
  - list_blobs: flat listing of a container's blobs
  - get_blob: download the full blob content
  - get_properties: blob metadata without content
  - generate_sas: mint a container- or blob-scoped SAS token

# Execute Operations

  - upload_blob: write blob content
  - delete_blob: delete a blob and its snapshots
  - copy_blob: server-side copy within or between containers
  - create_container: create a container
  - delete_container: delete a container and everything in it

# Usage Example

	conn := azureblob.NewAzureBlobConnector()
	err := conn.Connect(ctx, &base.ConnectorConfig{
		Name: "main-blob",
		Type: "azureblob",
		Credentials: map[string]string{
			"account_key": "base64-account-key",
		},
		Options: map[string]interface{}{
			"account_name":      "mystorageaccount",
			"default_container": "reports",
		},
	})

	result, err := conn.Query(ctx, &base.Query{
		Operation: "list_blobs",
		Parameters: map[string]interface{}{
			"container": "reports",
		},
	})

# Lazy Listing

Callers that may stop early can iterate blobs without draining the full
listing:

	for info, err := range conn.Blobs(ctx, "reports") {
		if err != nil {
			return err
		}
		if strings.HasPrefix(info.Name, "2025/") {
			break
		}
	}

# SAS Tokens

GenerateSAS signs locally with the account key. Tokens default to
read-only permission and a one-hour lifetime, and the start time is
backdated five minutes to tolerate client clock skew. The returned value
is the bare query string; combine it with ResourceURL to build a
fetchable URL.

# Thread Safety

The AzureBlobConnector is safe for concurrent use by multiple goroutines
after Connect.
*/
package azureblob
