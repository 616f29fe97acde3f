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

// Package sdk provides the building blocks shared by azstor storage connectors.
//
// A connector embeds BaseConnector to get configuration storage, validation,
// lifecycle hooks, option and credential accessors, timeout handling, and an
// injectable logger:
//
//	type MyConnector struct {
//	    *sdk.BaseConnector
//	    client *someSDK.Client
//	}
//
//	func NewMyConnector() *MyConnector {
//	    c := &MyConnector{BaseConnector: sdk.NewBaseConnector("mytype")}
//	    c.SetVersion("1.0.0")
//	    c.SetCapabilities([]string{"query", "execute"})
//	    c.SetValidator(sdk.NewDefaultConfigValidator([]string{"account_name"}, nil))
//	    return c
//	}
//
// The connector's Connect override calls BaseConnector.Connect first, then
// builds the vendor SDK client from the validated config.
//
// # Validation
//
// Configuration is validated at Connect time. DefaultConfigValidator checks
// required fields across Options and Credentials, rejects malformed
// container/bucket/queue names in the default_* options, and fills in
// optional-field defaults.
//
// # Metrics
//
// Every BaseConnector carries a ConnectorMetrics instance tracking reads,
// writes, errors, bytes transferred, objects listed, and SAS tokens issued,
// with latency quantiles over a sliding window. Snapshot() returns a
// point-in-time copy; the gateway aggregates snapshots across the registry.
//
// # Testing
//
// FakeObjectStore is an in-memory connector holding containers of blobs
// behind the same Query/Execute dispatch the real connectors use, with the
// same error codes (404 missing, 409 duplicate container). Registry and
// gateway tests drive it instead of a storage account.
package sdk
