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

package azure

import (
	"fmt"
	"strings"

	"azstor/connectors/base"
)

// Credential is the authentication mode for an Azure Storage account.
// Exactly one concrete mode exists per resolved credential: SharedKey
// (account key, can also sign SAS tokens) or SASToken (pre-issued token,
// cannot sign anything further).
type Credential interface {
	// Account returns the storage account name.
	Account() string

	isCredential()
}

// SharedKey authenticates with the account's base64-encoded shared key.
type SharedKey struct {
	AccountName string
	AccountKey  string
}

func (SharedKey) isCredential() {}

// Account returns the storage account name.
func (k SharedKey) Account() string { return k.AccountName }

// SASToken authenticates with a pre-issued shared access signature.
type SASToken struct {
	AccountName string
	Token       string
}

func (SASToken) isCredential() {}

// Account returns the storage account name.
func (t SASToken) Account() string { return t.AccountName }

// Resolve builds a Credential from a connector's credential map. The map
// must carry account_name and exactly one of account_key or sas_token.
// Neither mode present is an authentication failure (401); a missing
// account name or both modes at once is a configuration error (400).
func Resolve(op string, creds map[string]string) (Credential, error) {
	account := creds["account_name"]
	if account == "" {
		return nil, base.ErrInvalidArgument(op, "account_name is required")
	}

	key := creds["account_key"]
	sas := creds["sas_token"]

	switch {
	case key != "" && sas != "":
		return nil, base.ErrInvalidArgument(op, "account_key and sas_token are mutually exclusive")
	case key != "":
		return SharedKey{AccountName: account, AccountKey: key}, nil
	case sas != "":
		return SASToken{AccountName: account, Token: strings.TrimPrefix(sas, "?")}, nil
	default:
		return nil, base.ErrMissingCredentials(op)
	}
}

// BlobServiceURL returns the blob endpoint for the credential's account.
// SAS-mode credentials carry the token in the URL query string.
func BlobServiceURL(c Credential) string {
	return serviceURL(c, "blob")
}

// QueueServiceURL returns the queue endpoint for the credential's account.
func QueueServiceURL(c Credential) string {
	return serviceURL(c, "queue")
}

func serviceURL(c Credential, service string) string {
	url := fmt.Sprintf("https://%s.%s.core.windows.net/", c.Account(), service)
	if t, ok := c.(SASToken); ok {
		url += "?" + t.Token
	}
	return url
}
