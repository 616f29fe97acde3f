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

package azurequeue

import (
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue/sas"

	"azstor/connectors/azure"
	"azstor/connectors/base"
)

const (
	// DefaultSASExpiry is the token lifetime used when the caller does not
	// request one.
	DefaultSASExpiry = time.Hour

	// DefaultClockSkewMargin backdates the token start time so that tokens
	// remain valid on clients whose clocks run slightly ahead of the service.
	DefaultClockSkewMargin = 5 * time.Minute

	// DefaultSASPermissions grants read-only access.
	DefaultSASPermissions = "r"
)

// SASOptions controls SAS token generation. Queue is required.
type SASOptions struct {
	Queue           string
	Permissions     string
	Expiry          time.Duration
	ClockSkewMargin time.Duration
}

// GenerateSAS mints a queue-scoped service SAS token and returns the encoded
// query string (without a leading "?"). Signing happens locally with the
// account key; connectors configured with a SAS token cannot mint further
// tokens and get a 401.
func (c *AzureQueueConnector) GenerateSAS(opts SASOptions) (string, error) {
	if c.signingKey == nil {
		return "", base.ErrMissingCredentials("generate_sas")
	}

	if opts.Queue == "" {
		return "", base.ErrInvalidArgument("generate_sas", "queue name is required")
	}

	permissions := opts.Permissions
	if permissions == "" {
		permissions = DefaultSASPermissions
	}
	expiry := opts.Expiry
	if expiry <= 0 {
		expiry = DefaultSASExpiry
	}
	margin := opts.ClockSkewMargin
	if margin <= 0 {
		margin = DefaultClockSkewMargin
	}

	perms, err := parseQueuePermissions(permissions)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	values := sas.QueueSignatureValues{
		Protocol:    sas.ProtocolHTTPS,
		StartTime:   now.Add(-margin),
		ExpiryTime:  now.Add(expiry),
		Permissions: perms.String(),
		QueueName:   opts.Queue,
	}

	queryParams, err := values.SignWithSharedKey(c.signingKey)
	if err != nil {
		return "", azure.WrapError("generate_sas", "failed to sign SAS token", err)
	}

	return queryParams.Encode(), nil
}

func parseQueuePermissions(s string) (sas.QueuePermissions, error) {
	var perms sas.QueuePermissions
	for _, ch := range s {
		switch ch {
		case 'r':
			perms.Read = true
		case 'a':
			perms.Add = true
		case 'u':
			perms.Update = true
		case 'p':
			perms.Process = true
		default:
			return perms, base.ErrInvalidArgument("generate_sas",
				fmt.Sprintf("invalid queue permission %q (allowed: raup)", ch))
		}
	}
	return perms, nil
}
