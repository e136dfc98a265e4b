// Copyright 2025 Blink Labs Software
//
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

package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSUploader writes objects to a Google Cloud Storage bucket
type GCSUploader struct {
	client  *storage.Client
	bucket  *storage.BucketHandle
	prefix  string
	baseURL string
}

func NewGCSUploader(
	ctx context.Context,
	bucket string,
	prefix string,
	opts uploaderOptions,
) (*GCSUploader, error) {
	var clientOpts []option.ClientOption
	if opts.credentialsFile != "" {
		if _, err := os.Stat(opts.credentialsFile); err != nil {
			return nil, fmt.Errorf(
				"gcs publish: credentials file %q: %w",
				opts.credentialsFile,
				err,
			)
		}
		clientOpts = append(
			clientOpts,
			option.WithCredentialsFile(opts.credentialsFile),
		)
	}
	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gcs publish: create storage client: %w", err)
	}
	baseURL := opts.publicBaseURL
	if baseURL == "" {
		baseURL = "https://storage.googleapis.com/" + bucket
	}
	return &GCSUploader{
		client:  client,
		bucket:  client.Bucket(bucket),
		prefix:  prefix,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func (u *GCSUploader) Put(
	ctx context.Context,
	key string,
	contentType string,
	data []byte,
) error {
	w := u.bucket.Object(u.prefix + key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		return errors.Join(err, w.Close())
	}
	return w.Close()
}

func (u *GCSUploader) URL(key string) string {
	return u.baseURL + "/" + u.prefix + key
}

// Close releases the storage client
func (u *GCSUploader) Close() error {
	return u.client.Close()
}
