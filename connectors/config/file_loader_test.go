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
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "test_value")
	t.Setenv("OTHER_VAR", "other_value")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "dollar brace syntax",
			input:    "prefix ${TEST_VAR} suffix",
			expected: "prefix test_value suffix",
		},
		{
			name:     "dollar syntax",
			input:    "prefix $TEST_VAR suffix",
			expected: "prefix test_value suffix",
		},
		{
			name:     "default value - var exists",
			input:    "${TEST_VAR:-default}",
			expected: "test_value",
		},
		{
			name:     "default value - var not exists",
			input:    "${UNDEFINED_VAR:-default_val}",
			expected: "default_val",
		},
		{
			name:     "undefined var - empty result",
			input:    "${UNDEFINED_VAR}",
			expected: "",
		},
		{
			name:     "multiple vars",
			input:    "${TEST_VAR} and ${OTHER_VAR}",
			expected: "test_value and other_value",
		},
		{
			name:     "no vars",
			input:    "plain text without variables",
			expected: "plain text without variables",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandEnvVars(tt.input)
			if result != tt.expected {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestValidateConfigFile(t *testing.T) {
	tests := []struct {
		name    string
		config  *ConfigFile
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid config",
			config: &ConfigFile{
				Version: "1.0",
				Connectors: map[string]ConnectorFileConfig{
					"main_blob": {Type: "azureblob", Enabled: true},
					"archive":   {Type: "s3", Enabled: true},
				},
			},
			wantErr: false,
		},
		{
			name:    "missing version",
			config:  &ConfigFile{},
			wantErr: true,
			errMsg:  "version",
		},
		{
			name: "missing connector type",
			config: &ConfigFile{
				Version: "1.0",
				Connectors: map[string]ConnectorFileConfig{
					"broken": {Enabled: true},
				},
			},
			wantErr: true,
			errMsg:  "must specify a type",
		},
		{
			name: "invalid connector type",
			config: &ConfigFile{
				Version: "1.0",
				Connectors: map[string]ConnectorFileConfig{
					"db": {Type: "postgres", Enabled: true},
				},
			},
			wantErr: true,
			errMsg:  "invalid type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfigFile(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateConfigFile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got %v", tt.errMsg, err)
			}
		})
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "connectors.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestYAMLConfigFileLoader_LoadConnectors(t *testing.T) {
	t.Setenv("TEST_ACCOUNT_KEY", "dGVzdC1rZXk=")

	path := writeConfigFile(t, `
version: "1.0"
connectors:
  main_blob:
    type: azureblob
    enabled: true
    credentials:
      account_key: ${TEST_ACCOUNT_KEY}
    options:
      account_name: teststorage
      default_container: data
    timeout_ms: 45000
  disabled_queue:
    type: azurequeue
    enabled: false
    options:
      account_name: teststorage
`)

	loader, err := NewYAMLConfigFileLoader(path)
	if err != nil {
		t.Fatalf("NewYAMLConfigFileLoader failed: %v", err)
	}

	configs, err := loader.LoadConnectors()
	if err != nil {
		t.Fatalf("LoadConnectors failed: %v", err)
	}

	if len(configs) != 1 {
		t.Fatalf("expected 1 enabled connector, got %d", len(configs))
	}

	cfg := configs[0]
	if cfg.Name != "main_blob" {
		t.Errorf("expected name 'main_blob', got %q", cfg.Name)
	}
	if cfg.Type != "azureblob" {
		t.Errorf("expected type 'azureblob', got %q", cfg.Type)
	}
	if cfg.Credentials["account_key"] != "dGVzdC1rZXk=" {
		t.Errorf("expected expanded account_key, got %q", cfg.Credentials["account_key"])
	}
	if cfg.Options["account_name"] != "teststorage" {
		t.Errorf("expected account_name 'teststorage', got %v", cfg.Options["account_name"])
	}
	if cfg.Timeout != 45*time.Second {
		t.Errorf("expected timeout 45s, got %v", cfg.Timeout)
	}
}

func TestYAMLConfigFileLoader_DefaultTimeout(t *testing.T) {
	path := writeConfigFile(t, `
version: "1.0"
connectors:
  archive:
    type: s3
    enabled: true
    options:
      region: us-east-1
`)

	loader, err := NewYAMLConfigFileLoader(path)
	if err != nil {
		t.Fatalf("NewYAMLConfigFileLoader failed: %v", err)
	}

	configs, err := loader.LoadConnectors()
	if err != nil {
		t.Fatalf("LoadConnectors failed: %v", err)
	}

	if len(configs) != 1 {
		t.Fatalf("expected 1 connector, got %d", len(configs))
	}
	if configs[0].Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %v", configs[0].Timeout)
	}
}

func TestYAMLConfigFileLoader_Endpoint(t *testing.T) {
	path := writeConfigFile(t, `
version: "1.0"
connectors:
  emulated:
    type: azureblob
    enabled: true
    endpoint: http://127.0.0.1:10000/devstoreaccount1
    options:
      account_name: devstoreaccount1
`)

	loader, err := NewYAMLConfigFileLoader(path)
	if err != nil {
		t.Fatalf("NewYAMLConfigFileLoader failed: %v", err)
	}

	configs, err := loader.LoadConnectors()
	if err != nil {
		t.Fatalf("LoadConnectors failed: %v", err)
	}

	if configs[0].Endpoint != "http://127.0.0.1:10000/devstoreaccount1" {
		t.Errorf("expected emulator endpoint, got %q", configs[0].Endpoint)
	}
}

func TestYAMLConfigFileLoader_MissingFile(t *testing.T) {
	_, err := NewYAMLConfigFileLoader("/nonexistent/connectors.yaml")
	if err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestYAMLConfigFileLoader_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "version: [broken")

	_, err := NewYAMLConfigFileLoader(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestYAMLConfigFileLoader_Reload(t *testing.T) {
	path := writeConfigFile(t, `
version: "1.0"
connectors:
  first:
    type: s3
    enabled: true
`)

	loader, err := NewYAMLConfigFileLoader(path)
	if err != nil {
		t.Fatalf("NewYAMLConfigFileLoader failed: %v", err)
	}

	updated := `
version: "1.0"
connectors:
  first:
    type: s3
    enabled: true
  second:
    type: gcs
    enabled: true
`
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		t.Fatalf("failed to update config file: %v", err)
	}

	if err := loader.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	configs, err := loader.LoadConnectors()
	if err != nil {
		t.Fatalf("LoadConnectors failed: %v", err)
	}
	if len(configs) != 2 {
		t.Errorf("expected 2 connectors after reload, got %d", len(configs))
	}
}

func TestGenerateExampleConfigFile(t *testing.T) {
	example := GenerateExampleConfigFile()

	if !strings.Contains(example, "azureblob") {
		t.Error("expected example to contain an azureblob connector")
	}
	if !strings.Contains(example, "version:") {
		t.Error("expected example to declare a version")
	}
}
