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

package azureblob

import (
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"

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

// SASOptions controls SAS token generation. Container is required; an empty
// Blob scopes the token to the whole container.
type SASOptions struct {
	Container       string
	Blob            string
	Permissions     string
	Expiry          time.Duration
	ClockSkewMargin time.Duration
}

// GenerateSAS mints a service SAS token for a blob or container and returns
// the encoded query string (without a leading "?"). Signing happens locally
// with the account key; connectors configured with a SAS token cannot mint
// further tokens and get a 401.
func (c *AzureBlobConnector) GenerateSAS(opts SASOptions) (string, error) {
	if c.signingKey == nil {
		return "", base.ErrMissingCredentials("generate_sas")
	}

	if opts.Container == "" {
		return "", base.ErrInvalidArgument("generate_sas", "container name is required")
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

	now := time.Now().UTC()
	values := sas.BlobSignatureValues{
		Protocol:      sas.ProtocolHTTPS,
		StartTime:     now.Add(-margin),
		ExpiryTime:    now.Add(expiry),
		ContainerName: opts.Container,
		BlobName:      opts.Blob,
	}

	// An empty BlobName makes the SDK emit a container-scoped token (sr=c).
	if opts.Blob != "" {
		perms, err := parseBlobPermissions(permissions)
		if err != nil {
			return "", err
		}
		values.Permissions = perms.String()
	} else {
		perms, err := parseContainerPermissions(permissions)
		if err != nil {
			return "", err
		}
		values.Permissions = perms.String()
	}

	queryParams, err := values.SignWithSharedKey(c.signingKey)
	if err != nil {
		return "", azure.WrapError("generate_sas", "failed to sign SAS token", err)
	}

	return queryParams.Encode(), nil
}

func parseBlobPermissions(s string) (sas.BlobPermissions, error) {
	var perms sas.BlobPermissions
	for _, ch := range s {
		switch ch {
		case 'r':
			perms.Read = true
		case 'a':
			perms.Add = true
		case 'c':
			perms.Create = true
		case 'w':
			perms.Write = true
		case 'd':
			perms.Delete = true
		default:
			return perms, base.ErrInvalidArgument("generate_sas",
				fmt.Sprintf("invalid blob permission %q (allowed: racwd)", ch))
		}
	}
	return perms, nil
}

func parseContainerPermissions(s string) (sas.ContainerPermissions, error) {
	var perms sas.ContainerPermissions
	for _, ch := range s {
		switch ch {
		case 'r':
			perms.Read = true
		case 'a':
			perms.Add = true
		case 'c':
			perms.Create = true
		case 'w':
			perms.Write = true
		case 'd':
			perms.Delete = true
		case 'l':
			perms.List = true
		default:
			return perms, base.ErrInvalidArgument("generate_sas",
				fmt.Sprintf("invalid container permission %q (allowed: racwdl)", ch))
		}
	}
	return perms, nil
}
