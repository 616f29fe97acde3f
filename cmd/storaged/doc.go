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
Command storaged runs the storage gateway daemon.

storaged registers storage connectors from configuration and serves them
over a uniform HTTP API. Connectors can be configured through a YAML file,
environment variables, or the PostgreSQL-backed registry.

# Usage

	storaged

# Environment Variables

Optional:
  - PORT: HTTP server port (default: 8080)
  - CONNECTORS_CONFIG_FILE: path to the YAML connectors file
  - DATABASE_URL: PostgreSQL connection string for registry persistence
  - GATEWAY_JWT_SECRET: enables bearer-token authentication when set

# Connector Configuration

With a config file:

	export CONNECTORS_CONFIG_FILE=/etc/azstor/connectors.yaml
	./storaged

With environment variables (single-account zero-config fallback):

	export AZURE_STORAGE_ACCOUNT="mystorageaccount"
	export AZURE_STORAGE_KEY="base64key"
	./storaged

# Example

	export CONNECTORS_CONFIG_FILE=connectors.yaml
	export PORT=8080
	./storaged

	curl -s localhost:8080/api/v1/connectors
	curl -s -X POST localhost:8080/api/v1/connectors/main-blob/query \
	    -d '{"operation":"list_containers"}'
*/
package main
