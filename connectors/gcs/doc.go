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
Package gcs provides a Google Cloud Storage connector.

# Overview

The GCS connector wraps the Cloud Storage SDK behind the storage Connector
interface. It supports listing buckets and objects, reading and writing
object content, and generating signed URLs for secure, time-limited access.

# Authentication

The connector supports multiple authentication methods:

  - Service Account: JSON key file or inline JSON credentials
  - Application Default Credentials (ADC): automatic credential discovery
  - Workload Identity: for GKE workloads

# Configuration

Optional credentials:

  - credentials_file: path to a service account JSON key file
  - credentials_json: inline service account JSON credentials

Optional configuration:

  - project_id: GCP project ID (required for listing buckets)
  - default_bucket: bucket used when a request names none
  - signed_url_expiry: default signed URL lifetime in seconds (default: 900)
  - skip_verify: skip the connectivity probe during Connect

A custom endpoint for the GCS emulator goes in ConnectorConfig.Endpoint.

# Query Operations

  - list_buckets: list all buckets in the project
  - list_objects: list objects in a bucket with optional prefix filtering
  - get_object: download the full object content
  - get_object_metadata: object metadata without content
  - get_bucket_metadata: bucket metadata

# Execute Operations

  - put_object: upload object content
  - delete_object: delete a single object
  - copy_object: copy object within or between buckets
  - create_bucket: create a bucket
  - delete_bucket: delete an empty bucket
  - generate_signed_url: generate a signed URL for object access

# Usage Example

	conn := gcs.NewGCSConnector()
	err := conn.Connect(ctx, &base.ConnectorConfig{
		Name: "backup-gcs",
		Type: "gcs",
		Credentials: map[string]string{
			"credentials_file": "/path/to/service-account.json",
		},
		Options: map[string]interface{}{
			"project_id":     "my-gcp-project",
			"default_bucket": "my-bucket",
		},
	})

	result, err := conn.Query(ctx, &base.Query{
		Operation: "list_objects",
		Parameters: map[string]interface{}{
			"prefix": "data/",
		},
	})

# Thread Safety

The GCSConnector is safe for concurrent use by multiple goroutines after
Connect.
*/
package gcs
