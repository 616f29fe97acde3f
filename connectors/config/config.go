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

package config

import (
	"fmt"
	"os"
	"time"

	"azstor/connectors/base"
)

// LoadFromEnv loads a connector configuration from environment variables.
// Environment variables are prefixed with STORAGE_<CONNECTOR_NAME>_.
// Example: STORAGE_MAINBLOB_ACCOUNT_NAME, STORAGE_ARCHIVE_ACCESS_KEY_ID.
func LoadFromEnv(connectorName, connectorType string) (*base.ConnectorConfig, error) {
	prefix := "STORAGE_" + connectorName + "_"

	config := &base.ConnectorConfig{
		Name:        connectorName,
		Type:        connectorType,
		Credentials: make(map[string]string),
		Options:     make(map[string]interface{}),
	}

	// Custom endpoint (optional, for emulators and S3-compatible services)
	config.Endpoint = os.Getenv(prefix + "ENDPOINT")

	// Timeout (optional, defaults to 30s)
	timeoutStr := os.Getenv(prefix + "TIMEOUT")
	if timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout format: %s", timeoutStr)
		}
		config.Timeout = timeout
	} else {
		config.Timeout = 30 * time.Second
	}

	return config, nil
}

// LoadAzureBlobConfig loads Azure Blob connector configuration.
// Falls back to the conventional AZURE_STORAGE_* variables when the
// prefixed ones are absent.
func LoadAzureBlobConfig(connectorName string) (*base.ConnectorConfig, error) {
	config, err := LoadFromEnv(connectorName, "azureblob")
	if err != nil {
		return nil, err
	}

	prefix := "STORAGE_" + connectorName + "_"

	accountName := getEnvOrDefault(prefix+"ACCOUNT_NAME", os.Getenv("AZURE_STORAGE_ACCOUNT"))
	if accountName == "" {
		return nil, fmt.Errorf("missing required environment variable: %sACCOUNT_NAME", prefix)
	}
	config.Options["account_name"] = accountName

	if accountKey := getEnvOrDefault(prefix+"ACCOUNT_KEY", os.Getenv("AZURE_STORAGE_KEY")); accountKey != "" {
		config.Credentials["account_key"] = accountKey
	}
	if sasToken := getEnvOrDefault(prefix+"SAS_TOKEN", os.Getenv("AZURE_STORAGE_SAS_TOKEN")); sasToken != "" {
		config.Credentials["sas_token"] = sasToken
	}

	if container := os.Getenv(prefix + "DEFAULT_CONTAINER"); container != "" {
		config.Options["default_container"] = container
	}

	return config, nil
}

// LoadAzureQueueConfig loads Azure Queue connector configuration. The
// credential variables are shared with the blob connector since both
// services hang off the same storage account.
func LoadAzureQueueConfig(connectorName string) (*base.ConnectorConfig, error) {
	config, err := LoadAzureBlobConfig(connectorName)
	if err != nil {
		return nil, err
	}
	config.Type = "azurequeue"

	prefix := "STORAGE_" + connectorName + "_"
	delete(config.Options, "default_container")
	if queue := os.Getenv(prefix + "DEFAULT_QUEUE"); queue != "" {
		config.Options["default_queue"] = queue
	}

	return config, nil
}

// LoadS3Config loads S3 connector configuration. Credentials are optional
// since the AWS default chain (IAM roles, shared config) also works.
func LoadS3Config(connectorName string) (*base.ConnectorConfig, error) {
	config, err := LoadFromEnv(connectorName, "s3")
	if err != nil {
		return nil, err
	}

	prefix := "STORAGE_" + connectorName + "_"

	if accessKey := getEnvOrDefault(prefix+"ACCESS_KEY_ID", os.Getenv("AWS_ACCESS_KEY_ID")); accessKey != "" {
		config.Credentials["access_key_id"] = accessKey
	}
	if secretKey := getEnvOrDefault(prefix+"SECRET_ACCESS_KEY", os.Getenv("AWS_SECRET_ACCESS_KEY")); secretKey != "" {
		config.Credentials["secret_access_key"] = secretKey
	}
	if sessionToken := os.Getenv(prefix + "SESSION_TOKEN"); sessionToken != "" {
		config.Credentials["session_token"] = sessionToken
	}

	config.Options["region"] = getEnvOrDefault(prefix+"REGION",
		getEnvOrDefault("AWS_REGION", "us-east-1"))

	if bucket := os.Getenv(prefix + "DEFAULT_BUCKET"); bucket != "" {
		config.Options["default_bucket"] = bucket
	}
	if os.Getenv(prefix+"FORCE_PATH_STYLE") == "true" {
		config.Options["force_path_style"] = true
	}

	return config, nil
}

// LoadGCSConfig loads Google Cloud Storage connector configuration.
// Credentials are optional since Application Default Credentials also work.
func LoadGCSConfig(connectorName string) (*base.ConnectorConfig, error) {
	config, err := LoadFromEnv(connectorName, "gcs")
	if err != nil {
		return nil, err
	}

	prefix := "STORAGE_" + connectorName + "_"

	if credFile := getEnvOrDefault(prefix+"CREDENTIALS_FILE", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); credFile != "" {
		config.Credentials["credentials_file"] = credFile
	}
	if credJSON := os.Getenv(prefix + "CREDENTIALS_JSON"); credJSON != "" {
		config.Credentials["credentials_json"] = credJSON
	}

	if projectID := getEnvOrDefault(prefix+"PROJECT_ID", os.Getenv("GOOGLE_CLOUD_PROJECT")); projectID != "" {
		config.Options["project_id"] = projectID
	}
	if bucket := os.Getenv(prefix + "DEFAULT_BUCKET"); bucket != "" {
		config.Options["default_bucket"] = bucket
	}

	return config, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ValidateConfig validates a connector configuration
func ValidateConfig(config *base.ConnectorConfig) error {
	if config.Name == "" {
		return fmt.Errorf("connector name is required")
	}
	if config.Type == "" {
		return fmt.Errorf("connector type is required")
	}
	switch config.Type {
	case "azureblob", "azurequeue":
		accountName, _ := config.Options["account_name"].(string)
		if accountName == "" {
			accountName = config.Credentials["account_name"]
		}
		if accountName == "" {
			return fmt.Errorf("account_name is required for %s connector", config.Type)
		}
	}
	if config.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	return nil
}
