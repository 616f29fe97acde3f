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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"azstor/connectors/base"
	"azstor/connectors/sdk"
)

// queryRequest is the wire format for POST /connectors/{name}/query
type queryRequest struct {
	Operation  string                 `json:"operation"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Limit      int                    `json:"limit,omitempty"`
	TimeoutMs  int                    `json:"timeout_ms,omitempty"`
}

// executeRequest is the wire format for POST /connectors/{name}/execute
type executeRequest struct {
	Action     string                 `json:"action"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	TimeoutMs  int                    `json:"timeout_ms,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      int    `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) healthzHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"connectors": s.registry.Count(),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) listConnectorsHandler(w http.ResponseWriter, r *http.Request) {
	connectors := s.registry.ListWithTypes()

	// Optional ?type= filter
	if connectorType := r.URL.Query().Get("type"); connectorType != "" {
		names := s.registry.ListByType(connectorType)
		filtered := make(map[string]string, len(names))
		for _, name := range names {
			filtered[name] = connectorType
		}
		connectors = filtered
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"connectors": connectors,
		"count":      len(connectors),
	})
}

func (s *Server) allHealthHandler(w http.ResponseWriter, r *http.Request) {
	results := s.registry.HealthCheck(r.Context())

	healthy := true
	for _, status := range results {
		if !status.Healthy {
			healthy = false
			break
		}
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}

	s.writeJSON(w, code, map[string]interface{}{
		"healthy":    healthy,
		"connectors": results,
	})
}

func (s *Server) connectorMetricsHandler(w http.ResponseWriter, r *http.Request) {
	snapshots := s.registry.Metrics()

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"connectors": snapshots,
		"count":      len(snapshots),
	})
}

func (s *Server) connectorHealthHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	status, err := s.registry.HealthCheckSingle(r.Context(), name)
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, fmt.Sprintf("connector '%s' not found", name))
		return
	}

	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, status)
}

func (s *Server) queryHandler(w http.ResponseWriter, r *http.Request) {
	timer := sdk.NewTimer()
	name := mux.Vars(r)["name"]

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.recordRequest("query", "error", timer)
		s.writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Operation == "" {
		s.recordRequest("query", "error", timer)
		s.writeError(w, r, http.StatusBadRequest, "operation is required")
		return
	}

	connector, err := s.registry.Get(name)
	if err != nil {
		s.recordRequest("query", "error", timer)
		s.writeError(w, r, http.StatusNotFound, fmt.Sprintf("connector '%s' not found", name))
		return
	}

	result, err := connector.Query(r.Context(), &base.Query{
		Operation:  req.Operation,
		Parameters: req.Parameters,
		Limit:      req.Limit,
		Timeout:    time.Duration(req.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		s.recordRequest("query", "error", timer)
		s.writeConnectorError(w, r, name, err)
		return
	}

	s.recordRequest("query", "success", timer)
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) executeHandler(w http.ResponseWriter, r *http.Request) {
	timer := sdk.NewTimer()
	name := mux.Vars(r)["name"]

	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.recordRequest("execute", "error", timer)
		s.writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Action == "" {
		s.recordRequest("execute", "error", timer)
		s.writeError(w, r, http.StatusBadRequest, "action is required")
		return
	}

	connector, err := s.registry.Get(name)
	if err != nil {
		s.recordRequest("execute", "error", timer)
		s.writeError(w, r, http.StatusNotFound, fmt.Sprintf("connector '%s' not found", name))
		return
	}

	result, err := connector.Execute(r.Context(), &base.Command{
		Action:     req.Action,
		Parameters: req.Parameters,
		Timeout:    time.Duration(req.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		s.recordRequest("execute", "error", timer)
		s.writeConnectorError(w, r, name, err)
		return
	}

	s.recordRequest("execute", "success", timer)
	s.writeJSON(w, http.StatusOK, result)
}

// writeConnectorError maps a connector error to an HTTP response. The
// status code carried by a StorageError is preserved on the wire.
func (s *Server) writeConnectorError(w http.ResponseWriter, r *http.Request, connector string, err error) {
	code := base.Code(err)
	promConnectorErrors.WithLabelValues(connector, strconv.Itoa(code)).Inc()

	message := err.Error()
	var storageErr *base.StorageError
	if errors.As(err, &storageErr) {
		message = storageErr.Message
		if storageErr.Op != "" {
			message = storageErr.Op + ": " + message
		}
	}

	s.writeError(w, r, code, message)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, code int, message string) {
	s.writeJSON(w, code, errorResponse{
		Error:     message,
		Code:      code,
		RequestID: sdk.GetRequestID(r.Context()),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("Failed to encode response: %v", err)
	}
}

func (s *Server) recordRequest(operation, status string, timer *sdk.Timer) {
	promRequestsTotal.WithLabelValues(operation, status).Inc()
	promRequestDuration.WithLabelValues(operation).Observe(float64(timer.Duration().Milliseconds()))
}
