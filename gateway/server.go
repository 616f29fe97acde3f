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
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"azstor/connectors/registry"
	sharedlogger "azstor/shared/logger"
)

// Prometheus metrics
var (
	promRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "azstor_gateway_requests_total",
			Help: "Total number of requests processed by the storage gateway",
		},
		[]string{"operation", "status"},
	)
	promRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "azstor_gateway_request_duration_milliseconds",
			Help:    "Request duration in milliseconds",
			Buckets: []float64{5, 10, 50, 100, 200, 500, 1000, 2000, 5000},
		},
		[]string{"operation"},
	)
	promConnectorErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "azstor_gateway_connector_errors_total",
			Help: "Total number of connector operation errors by status code",
		},
		[]string{"connector", "code"},
	)
)

func init() {
	prometheus.MustRegister(promRequestsTotal)
	prometheus.MustRegister(promRequestDuration)
	prometheus.MustRegister(promConnectorErrors)
}

// Options configures the gateway server.
type Options struct {
	// Addr is the listen address (default ":8080")
	Addr string

	// JWTSecret enables bearer-token authentication on /api/v1 routes
	// when non-empty. Health and metrics endpoints are never authenticated
	JWTSecret []byte

	// AllowedOrigins configures CORS (default "*")
	AllowedOrigins []string

	// Logger receives server logs. Defaults to stdout with a
	// "[STORAGE_GATEWAY]" prefix
	Logger *log.Logger
}

// Server is the HTTP front-end for a connector registry. It exposes
// query, execute, and health operations for every registered connector
// plus Prometheus metrics. The connector packages remain usable as a
// library without it.
type Server struct {
	registry  *registry.Registry
	opts      Options
	logger    *log.Logger
	accessLog *sharedlogger.Logger
	httpSrv   *http.Server
}

// NewServer creates a gateway server around an existing registry.
func NewServer(reg *registry.Registry, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[STORAGE_GATEWAY] ", log.LstdFlags)
	}

	return &Server{
		registry:  reg,
		opts:      opts,
		logger:    logger,
		accessLog: sharedlogger.New("gateway"),
	}
}

// Router builds the gorilla/mux router with all gateway routes and
// middleware applied. Exposed separately so tests can drive the handler
// stack through httptest without binding a port.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	// Health and metrics are unauthenticated
	r.HandleFunc("/healthz", s.healthzHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Connector API
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.requestIDMiddleware)
	api.Use(s.accessLogMiddleware)
	if len(s.opts.JWTSecret) > 0 {
		api.Use(s.authMiddleware)
	}

	api.HandleFunc("/connectors", s.listConnectorsHandler).Methods("GET")
	api.HandleFunc("/connectors/health", s.allHealthHandler).Methods("GET")
	api.HandleFunc("/connectors/metrics", s.connectorMetricsHandler).Methods("GET")
	api.HandleFunc("/connectors/{name}/query", s.queryHandler).Methods("POST")
	api.HandleFunc("/connectors/{name}/execute", s.executeHandler).Methods("POST")
	api.HandleFunc("/connectors/{name}/health", s.connectorHealthHandler).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return c.Handler(r)
}

// Start begins serving HTTP requests. It blocks until the server exits.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	s.logger.Printf("Storage gateway listening on %s", s.opts.Addr)
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server and disconnects all
// registered connectors.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Println("Shutting down storage gateway...")

	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Shutdown(ctx)
	}

	s.registry.DisconnectAll(ctx)
	return err
}
