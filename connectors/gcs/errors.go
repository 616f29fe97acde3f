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

package gcs

import (
	"errors"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"azstor/connectors/base"
)

// wrapError normalizes a GCS SDK failure into a StorageError. The HTTP
// status is lifted from *googleapi.Error when the failure came from the
// service; the package sentinels map to 404; everything else defaults
// to 500.
func wrapError(op, message string, err error) *base.StorageError {
	if err == nil {
		return nil
	}

	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return base.NewStorageError(404, op, message, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return base.NewStorageError(apiErr.Code, op, message, err)
	}

	return base.NewStorageError(0, op, message, err)
}
