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

package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"azstor/connectors/base"
	"azstor/connectors/registry"
	"azstor/connectors/sdk"
)

// stubConnector implements base.Connector with canned responses
type stubConnector struct {
	name      string
	connType  string
	healthy   bool
	queryErr  error
	execErr   error
	lastQuery *base.Query
	lastCmd   *base.Command
}

func (c *stubConnector) Connect(ctx context.Context, config *base.ConnectorConfig) error {
	return nil
}

func (c *stubConnector) Disconnect(ctx context.Context) error { return nil }

func (c *stubConnector) HealthCheck(ctx context.Context) (*base.HealthStatus, error) {
	return &base.HealthStatus{
		Healthy:   c.healthy,
		Latency:   5 * time.Millisecond,
		Timestamp: time.Now(),
	}, nil
}

func (c *stubConnector) Query(ctx context.Context, query *base.Query) (*base.QueryResult, error) {
	c.lastQuery = query
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	return &base.QueryResult{
		Rows:      []map[string]interface{}{{"name": "data"}},
		RowCount:  1,
		Connector: c.name,
	}, nil
}

func (c *stubConnector) Execute(ctx context.Context, cmd *base.Command) (*base.CommandResult, error) {
	c.lastCmd = cmd
	if c.execErr != nil {
		return nil, c.execErr
	}
	return &base.CommandResult{
		Success:   true,
		Message:   "ok",
		Connector: c.name,
	}, nil
}

func (c *stubConnector) Name() string { return c.name }

func (c *stubConnector) Type() string { return c.connType }

func (c *stubConnector) Version() string { return "1.0.0" }

func (c *stubConnector) Capabilities() []string { return []string{"query", "execute"} }

func newTestServer(t *testing.T, opts Options, connectors ...*stubConnector) (*Server, *registry.Registry) {
	t.Helper()

	reg := registry.NewRegistry()
	for _, c := range connectors {
		config := &base.ConnectorConfig{
			Name:    c.name,
			Type:    c.connType,
			Timeout: 5 * time.Second,
		}
		require.NoError(t, reg.Register(c.name, c, config))
	}

	return NewServer(reg, opts), reg
}

func TestHealthzHandler(t *testing.T) {
	srv, _ := newTestServer(t, Options{},
		&stubConnector{name: "main-blob", connType: "azureblob", healthy: true})

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(1), body["connectors"])
}

func TestListConnectorsHandler(t *testing.T) {
	srv, _ := newTestServer(t, Options{},
		&stubConnector{name: "main-blob", connType: "azureblob", healthy: true},
		&stubConnector{name: "archive", connType: "s3", healthy: true})

	req := httptest.NewRequest("GET", "/api/v1/connectors", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Connectors map[string]string `json:"connectors"`
		Count      int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "azureblob", body.Connectors["main-blob"])
	assert.Equal(t, "s3", body.Connectors["archive"])
}

func TestListConnectorsHandler_TypeFilter(t *testing.T) {
	srv, _ := newTestServer(t, Options{},
		&stubConnector{name: "main-blob", connType: "azureblob", healthy: true},
		&stubConnector{name: "archive", connType: "s3", healthy: true})

	req := httptest.NewRequest("GET", "/api/v1/connectors?type=s3", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Connectors map[string]string `json:"connectors"`
		Count      int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Contains(t, body.Connectors, "archive")
}

func TestQueryHandler(t *testing.T) {
	conn := &stubConnector{name: "main-blob", connType: "azureblob", healthy: true}
	srv, _ := newTestServer(t, Options{}, conn)

	reqBody := `{"operation":"list_blobs","parameters":{"container":"data"},"limit":10}`
	req := httptest.NewRequest("POST", "/api/v1/connectors/main-blob/query", strings.NewReader(reqBody))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result base.QueryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.RowCount)
	assert.Equal(t, "main-blob", result.Connector)

	// Request fields must reach the connector
	require.NotNil(t, conn.lastQuery)
	assert.Equal(t, "list_blobs", conn.lastQuery.Operation)
	assert.Equal(t, "data", conn.lastQuery.Parameters["container"])
	assert.Equal(t, 10, conn.lastQuery.Limit)
}

func TestQueryHandler_MissingOperation(t *testing.T) {
	srv, _ := newTestServer(t, Options{},
		&stubConnector{name: "main-blob", connType: "azureblob", healthy: true})

	req := httptest.NewRequest("POST", "/api/v1/connectors/main-blob/query", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryHandler_ConnectorNotFound(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	reqBody := `{"operation":"list_blobs"}`
	req := httptest.NewRequest("POST", "/api/v1/connectors/nope/query", strings.NewReader(reqBody))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQueryHandler_StorageErrorCodePreserved(t *testing.T) {
	conn := &stubConnector{
		name:     "main-blob",
		connType: "azureblob",
		healthy:  true,
		queryErr: base.NewStorageError(404, "get_blob", "blob not found", nil),
	}
	srv, _ := newTestServer(t, Options{}, conn)

	reqBody := `{"operation":"get_blob","parameters":{"container":"data","blob":"missing.txt"}}`
	req := httptest.NewRequest("POST", "/api/v1/connectors/main-blob/query", strings.NewReader(reqBody))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var errResp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, 404, errResp.Code)
	assert.Contains(t, errResp.Error, "blob not found")
	assert.NotEmpty(t, errResp.RequestID)
}

func TestExecuteHandler(t *testing.T) {
	conn := &stubConnector{name: "jobs", connType: "azurequeue", healthy: true}
	srv, _ := newTestServer(t, Options{}, conn)

	reqBody := `{"action":"send_message","parameters":{"queue":"jobs","content":"hello"}}`
	req := httptest.NewRequest("POST", "/api/v1/connectors/jobs/execute", strings.NewReader(reqBody))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result base.CommandResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)

	require.NotNil(t, conn.lastCmd)
	assert.Equal(t, "send_message", conn.lastCmd.Action)
}

func TestExecuteHandler_MissingAction(t *testing.T) {
	srv, _ := newTestServer(t, Options{},
		&stubConnector{name: "jobs", connType: "azurequeue", healthy: true})

	req := httptest.NewRequest("POST", "/api/v1/connectors/jobs/execute", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecuteHandler_InvalidArgumentMapsTo400(t *testing.T) {
	conn := &stubConnector{
		name:     "jobs",
		connType: "azurequeue",
		healthy:  true,
		execErr:  base.ErrInvalidArgument("send_message", "visibility_timeout out of range"),
	}
	srv, _ := newTestServer(t, Options{}, conn)

	reqBody := `{"action":"send_message","parameters":{"queue":"jobs","content":"x","visibility_timeout":-1}}`
	req := httptest.NewRequest("POST", "/api/v1/connectors/jobs/execute", strings.NewReader(reqBody))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConnectorHealthHandler(t *testing.T) {
	srv, _ := newTestServer(t, Options{},
		&stubConnector{name: "main-blob", connType: "azureblob", healthy: true})

	req := httptest.NewRequest("GET", "/api/v1/connectors/main-blob/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status base.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Healthy)
}

func TestConnectorHealthHandler_Unhealthy(t *testing.T) {
	srv, _ := newTestServer(t, Options{},
		&stubConnector{name: "main-blob", connType: "azureblob", healthy: false})

	req := httptest.NewRequest("GET", "/api/v1/connectors/main-blob/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAllHealthHandler(t *testing.T) {
	srv, _ := newTestServer(t, Options{},
		&stubConnector{name: "main-blob", connType: "azureblob", healthy: true},
		&stubConnector{name: "archive", connType: "s3", healthy: false})

	req := httptest.NewRequest("GET", "/api/v1/connectors/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Healthy    bool                          `json:"healthy"`
		Connectors map[string]*base.HealthStatus `json:"connectors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Healthy)
	assert.Len(t, body.Connectors, 2)
}

func TestRequestIDMiddleware(t *testing.T) {
	srv, _ := newTestServer(t, Options{},
		&stubConnector{name: "main-blob", connType: "azureblob", healthy: true})

	req := httptest.NewRequest("GET", "/api/v1/connectors", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDMiddleware_HonorsCallerID(t *testing.T) {
	srv, _ := newTestServer(t, Options{},
		&stubConnector{name: "main-blob", connType: "azureblob", healthy: true})

	req := httptest.NewRequest("GET", "/api/v1/connectors", nil)
	req.Header.Set("X-Request-ID", "caller-supplied-id")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, "caller-supplied-id", rec.Header().Get("X-Request-ID"))
}

func TestAuthMiddleware(t *testing.T) {
	secret := []byte("test-secret")
	srv, _ := newTestServer(t, Options{JWTSecret: secret},
		&stubConnector{name: "main-blob", connType: "azureblob", healthy: true})

	// No token
	req := httptest.NewRequest("GET", "/api/v1/connectors", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token
	req = httptest.NewRequest("GET", "/api/v1/connectors", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "test-client",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)

	req = httptest.NewRequest("GET", "/api/v1/connectors", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_HealthzUnauthenticated(t *testing.T) {
	srv, _ := newTestServer(t, Options{JWTSecret: []byte("test-secret")},
		&stubConnector{name: "main-blob", connType: "azureblob", healthy: true})

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGatewayDrivesObjectStore(t *testing.T) {
	reg := registry.NewRegistry()
	fake := sdk.NewFakeObjectStore("main-blob")
	require.NoError(t, reg.Register("main-blob", fake, &base.ConnectorConfig{
		Name:    "main-blob",
		Type:    "fake",
		Timeout: 5 * time.Second,
	}))
	srv := NewServer(reg, Options{})
	router := srv.Router()

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := do("POST", "/api/v1/connectors/main-blob/execute",
		`{"action":"create_container","parameters":{"container":"reports"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do("POST", "/api/v1/connectors/main-blob/execute",
		`{"action":"upload_blob","parameters":{"container":"reports","blob":"a.csv","content":"a,b,c"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do("POST", "/api/v1/connectors/main-blob/query",
		`{"operation":"list_blobs","parameters":{"container":"reports"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var list base.QueryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.RowCount)
	assert.Equal(t, "a.csv", list.Rows[0]["name"])

	rec = do("POST", "/api/v1/connectors/main-blob/query",
		`{"operation":"get_blob","parameters":{"container":"reports","blob":"a.csv"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got base.QueryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "a,b,c", got.Rows[0]["content"])

	// Missing blob surfaces the connector's 404 on the wire
	rec = do("POST", "/api/v1/connectors/main-blob/query",
		`{"operation":"get_blob","parameters":{"container":"reports","blob":"missing.csv"}}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConnectorMetricsHandler(t *testing.T) {
	reg := registry.NewRegistry()
	fake := sdk.NewFakeObjectStore("main-blob")
	require.NoError(t, reg.Register("main-blob", fake, &base.ConnectorConfig{
		Name:    "main-blob",
		Type:    "fake",
		Timeout: 5 * time.Second,
	}))
	fake.SeedBlob("reports", "a.txt", "hello")
	srv := NewServer(reg, Options{})
	router := srv.Router()

	req := httptest.NewRequest("POST", "/api/v1/connectors/main-blob/query",
		strings.NewReader(`{"operation":"get_blob","parameters":{"container":"reports","blob":"a.txt"}}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest("GET", "/api/v1/connectors/metrics", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Connectors map[string]*sdk.MetricsSnapshot `json:"connectors"`
		Count      int                             `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)

	snap := body.Connectors["main-blob"]
	require.NotNil(t, snap)
	assert.Equal(t, int64(1), snap.ReadsTotal)
	assert.Equal(t, int64(5), snap.BytesDownloaded)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, Options{},
		&stubConnector{name: "main-blob", connType: "azureblob", healthy: true})

	// Drive a request through so the gateway counters have samples
	reqBody := `{"operation":"list_containers"}`
	req := httptest.NewRequest("POST", "/api/v1/connectors/main-blob/query", strings.NewReader(reqBody))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest("GET", "/metrics", nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "azstor_gateway_requests_total")
}
