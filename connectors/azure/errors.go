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
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"azstor/connectors/base"
)

// WrapError normalizes an Azure SDK failure into a StorageError. The status
// code and service error code are lifted from *azcore.ResponseError when the
// failure came from an HTTP response; everything else defaults to 500.
func WrapError(op, message string, err error) *base.StorageError {
	if err == nil {
		return nil
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		if respErr.ErrorCode != "" {
			message = fmt.Sprintf("%s (%s)", message, respErr.ErrorCode)
		}
		return base.NewStorageError(respErr.StatusCode, op, message, err)
	}

	return base.NewStorageError(0, op, message, err)
}
