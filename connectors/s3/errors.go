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

package s3

import (
	"errors"
	"fmt"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"

	"azstor/connectors/base"
)

// wrapError normalizes an AWS SDK failure into a StorageError. The HTTP
// status is lifted from the transport response error and the service error
// code is appended to the message; everything else defaults to 500.
func wrapError(op, message string, err error) *base.StorageError {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() != "" {
		message = fmt.Sprintf("%s (%s)", message, apiErr.ErrorCode())
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return base.NewStorageError(respErr.HTTPStatusCode(), op, message, err)
	}

	return base.NewStorageError(0, op, message, err)
}
