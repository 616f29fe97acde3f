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
Package gateway exposes a connector registry over HTTP.

The gateway is an optional front-end: the connector packages remain fully
usable as a library without it. It maps the registry's uniform Query and
Execute dispatch onto a small JSON API:

	GET  /healthz                              liveness probe
	GET  /metrics                              Prometheus metrics
	GET  /api/v1/connectors                    list connectors (?type= filter)
	GET  /api/v1/connectors/health             health of all connectors
	GET  /api/v1/connectors/metrics            per-connector metrics snapshots
	POST /api/v1/connectors/{name}/query       read operation
	POST /api/v1/connectors/{name}/execute     mutating operation
	GET  /api/v1/connectors/{name}/health      single connector health

Query and execute requests carry the operation or action name and its
parameters:

	POST /api/v1/connectors/main-blob/query
	{"operation": "list_blobs", "parameters": {"container": "data"}, "limit": 100}

Connector failures keep their service status codes on the wire: a missing
blob answers 404, absent credentials 401, a bad parameter 400.

# Embedding

	reg := registry.NewRegistry()
	// ... register connectors ...

	srv := gateway.NewServer(reg, gateway.Options{Addr: ":8080"})
	log.Fatal(srv.Start())

Setting Options.JWTSecret enables HMAC bearer-token authentication on the
/api/v1 routes; health and metrics stay open for probes and scrapers.

Run wires the whole daemon (config resolution, registry, signal handling)
and is what cmd/storaged calls.
*/
package gateway
