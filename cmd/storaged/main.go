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

// Package main is the entry point for the storage gateway daemon.
//
// storaged serves registered storage connectors (Azure Blob, Azure Queue,
// S3, GCS) over a uniform HTTP API with Prometheus metrics.
//
// Usage:
//
//	./storaged
//
// Environment Variables:
//
//	PORT - HTTP server port (default: 8080)
//	CONNECTORS_CONFIG_FILE - path to the YAML connectors file (optional)
//	DATABASE_URL - PostgreSQL connection string for registry persistence (optional)
//	GATEWAY_JWT_SECRET - enables bearer-token auth when set (optional)
package main

import (
	"azstor/gateway"
)

func main() {
	gateway.Run()
}
