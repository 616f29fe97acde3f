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

package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name           string
		component      string
		instanceID     string
		expectedComp   string
		expectedInstID string
	}{
		{
			name:           "with instance ID set",
			component:      "gateway",
			instanceID:     "instance-123",
			expectedComp:   "gateway",
			expectedInstID: "instance-123",
		},
		{
			name:           "without instance ID",
			component:      "gateway",
			instanceID:     "",
			expectedComp:   "gateway",
			expectedInstID: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("INSTANCE_ID", tt.instanceID)

			logger := New(tt.component)

			if logger.Component != tt.expectedComp {
				t.Errorf("Expected component %s, got %s", tt.expectedComp, logger.Component)
			}
			if logger.InstanceID != tt.expectedInstID {
				t.Errorf("Expected instance ID %s, got %s", tt.expectedInstID, logger.InstanceID)
			}
			if logger.Container == "" {
				t.Error("Expected container to be set from hostname")
			}
		})
	}
}

func captureEntry(t *testing.T, buf *bytes.Buffer) LogEntry {
	t.Helper()

	var entry LogEntry
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v\nOutput: %s", err, buf.String())
	}
	return entry
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		name      string
		logFunc   func(*Logger, string, string, string, map[string]interface{})
		level     LogLevel
		message   string
		connector string
		requestID string
		fields    map[string]interface{}
	}{
		{
			name:      "Info log",
			logFunc:   (*Logger).Info,
			level:     INFO,
			message:   "blob uploaded",
			connector: "main-blob",
			requestID: "req-456",
			fields:    map[string]interface{}{"container": "data"},
		},
		{
			name:      "Error log",
			logFunc:   (*Logger).Error,
			level:     ERROR,
			message:   "upload failed",
			connector: "main-blob",
			requestID: "req-012",
			fields:    map[string]interface{}{"status_code": 500},
		},
		{
			name:      "Warn log",
			logFunc:   (*Logger).Warn,
			level:     WARN,
			message:   "slow operation",
			connector: "archive",
			requestID: "req-def",
			fields:    nil,
		},
		{
			name:      "Debug log",
			logFunc:   (*Logger).Debug,
			level:     DEBUG,
			message:   "dispatching operation",
			connector: "jobs",
			requestID: "req-uvw",
			fields:    map[string]interface{}{"operation": "peek_messages"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New("test-component")
			logger.SetOutput(&buf)

			tt.logFunc(logger, tt.connector, tt.requestID, tt.message, tt.fields)

			entry := captureEntry(t, &buf)

			if entry.Level != tt.level {
				t.Errorf("Expected level %s, got %s", tt.level, entry.Level)
			}
			if entry.Message != tt.message {
				t.Errorf("Expected message '%s', got '%s'", tt.message, entry.Message)
			}
			if entry.Connector != tt.connector {
				t.Errorf("Expected connector '%s', got '%s'", tt.connector, entry.Connector)
			}
			if entry.RequestID != tt.requestID {
				t.Errorf("Expected request ID '%s', got '%s'", tt.requestID, entry.RequestID)
			}
			if entry.Component != "test-component" {
				t.Errorf("Expected component 'test-component', got '%s'", entry.Component)
			}

			if _, err := time.Parse(time.RFC3339Nano, entry.Timestamp); err != nil {
				t.Errorf("Invalid timestamp format: %s", entry.Timestamp)
			}

			for key, expectedValue := range tt.fields {
				actualValue, ok := entry.Fields[key]
				if !ok {
					t.Errorf("Expected field '%s' not found", key)
					continue
				}
				// JSON unmarshals numbers as float64
				if expected, isInt := expectedValue.(int); isInt {
					if actual, isFloat := actualValue.(float64); !isFloat || int(actual) != expected {
						t.Errorf("Field '%s': expected %v, got %v", key, expectedValue, actualValue)
					}
				} else if actualValue != expectedValue {
					t.Errorf("Field '%s': expected %v, got %v", key, expectedValue, actualValue)
				}
			}
		})
	}
}

func TestInfoWithDuration(t *testing.T) {
	var buf bytes.Buffer
	logger := New("test-component")
	logger.SetOutput(&buf)

	logger.InfoWithDuration("main-blob", "req-456", "request completed", 123.45, map[string]interface{}{
		"path": "/api/v1/connectors/main-blob/query",
	})

	entry := captureEntry(t, &buf)

	if entry.Fields["duration_ms"] != 123.45 {
		t.Errorf("Expected duration_ms 123.45, got %v", entry.Fields["duration_ms"])
	}
	if entry.Fields["path"] != "/api/v1/connectors/main-blob/query" {
		t.Errorf("Expected path to be preserved, got %v", entry.Fields["path"])
	}
	if entry.Level != INFO {
		t.Errorf("Expected INFO level, got %s", entry.Level)
	}
}

func TestErrorWithCode(t *testing.T) {
	tests := []struct {
		name           string
		statusCode     int
		err            error
		fields         map[string]interface{}
		expectError    bool
		expectedErrMsg string
	}{
		{
			name:           "with error",
			statusCode:     500,
			err:            &testError{msg: "container listing failed"},
			fields:         map[string]interface{}{"connector_type": "azureblob"},
			expectError:    true,
			expectedErrMsg: "container listing failed",
		},
		{
			name:        "without error",
			statusCode:  404,
			err:         nil,
			fields:      nil,
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New("test-component")
			logger.SetOutput(&buf)

			logger.ErrorWithCode("main-blob", "req-456", "request failed", tt.statusCode, tt.err, tt.fields)

			entry := captureEntry(t, &buf)

			statusCode, ok := entry.Fields["status_code"].(float64)
			if !ok {
				t.Fatalf("status_code is not a number: %v", entry.Fields["status_code"])
			}
			if int(statusCode) != tt.statusCode {
				t.Errorf("Expected status_code %d, got %v", tt.statusCode, statusCode)
			}

			if tt.expectError {
				if entry.Fields["error"] != tt.expectedErrMsg {
					t.Errorf("Expected error message '%s', got '%v'", tt.expectedErrMsg, entry.Fields["error"])
				}
			}

			if entry.Level != ERROR {
				t.Errorf("Expected ERROR level, got %s", entry.Level)
			}
		})
	}
}

func TestJSONMarshalError(t *testing.T) {
	var buf bytes.Buffer
	logger := New("test-component")
	logger.SetOutput(&buf)

	// Channels cannot be marshaled to JSON; the entry is dropped with a
	// plain-text fallback on the standard logger
	ch := make(chan int)
	logger.Info("main-blob", "req-456", "test message", map[string]interface{}{
		"channel": ch,
	})

	if buf.Len() != 0 {
		t.Errorf("Expected no JSON output for unmarshalable entry, got: %s", buf.String())
	}
}

type testError struct {
	msg string
}

func (e *testError) Error() string {
	return e.msg
}

func BenchmarkLog(b *testing.B) {
	logger := New("benchmark-component")
	var buf bytes.Buffer
	logger.SetOutput(&buf)

	fields := map[string]interface{}{
		"operation": "list_blobs",
		"duration":  45.67,
		"success":   true,
		"row_count": 150,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("main-blob", "req-456", "request completed", fields)
	}
}
