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
Package config provides configuration loading for storage connectors from
environment variables, YAML files, and a database-backed registry.

# Overview

The config package provides standardized loaders for each connector type
plus a RuntimeConfigService that resolves configuration from three sources
in priority order: database, config file, environment variables.

# Environment Variable Convention

Connector configuration uses the prefix STORAGE_<CONNECTOR_NAME>_:

	STORAGE_MAINBLOB_ACCOUNT_NAME=mystorageaccount
	STORAGE_MAINBLOB_ACCOUNT_KEY=base64key
	STORAGE_MAINBLOB_TIMEOUT=30s
	STORAGE_MAINBLOB_DEFAULT_CONTAINER=data

The Azure loaders also fall back to the conventional AZURE_STORAGE_ACCOUNT,
AZURE_STORAGE_KEY, and AZURE_STORAGE_SAS_TOKEN variables; the S3 loader
falls back to AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / AWS_REGION, and
the GCS loader to GOOGLE_APPLICATION_CREDENTIALS / GOOGLE_CLOUD_PROJECT.

# Connector-Specific Loaders

Azure Blob:

	config, err := config.LoadAzureBlobConfig("mainblob")
	// Requires an account name; account key or SAS token supply auth

Azure Queue:

	config, err := config.LoadAzureQueueConfig("jobs")
	// Shares the storage account credentials with the blob loader

S3:

	config, err := config.LoadS3Config("archive")
	// Credentials optional; the AWS default chain also works

GCS:

	config, err := config.LoadGCSConfig("backups")
	// Credentials optional; Application Default Credentials also work

# File-Based Configuration

YAMLConfigFileLoader reads a connectors file with ${VAR} expansion:

	loader, err := config.NewYAMLConfigFileLoader("connectors.yaml")
	configs, err := loader.LoadConnectors()

See GenerateExampleConfigFile for the expected layout.

# Runtime Configuration Service

RuntimeConfigService combines the sources with a TTL cache and optional
AWS Secrets Manager credential resolution:

	svc := config.NewRuntimeConfigService(config.RuntimeConfigServiceOptions{
	    DB:             db,
	    SecretsManager: secrets,
	})
	configs, source, err := svc.GetConnectorConfigs(ctx)

# Configuration Validation

Validate configuration before use:

	if err := config.ValidateConfig(cfg); err != nil {
	    log.Fatalf("Invalid config: %v", err)
	}

# Thread Safety

All types in this package are safe for concurrent use.
*/
package config
