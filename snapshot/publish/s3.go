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
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Uploader writes objects to an S3 bucket
type S3Uploader struct {
	client  *s3.Client
	bucket  string
	prefix  string
	baseURL string
}

func NewS3Uploader(
	ctx context.Context,
	bucket string,
	prefix string,
	opts uploaderOptions,
) (*S3Uploader, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.region))
	}
	if opts.accessKeyID != "" {
		loadOpts = append(
			loadOpts,
			config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(
					opts.accessKeyID,
					opts.secretAccessKey,
					"",
				),
			),
		)
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3 publish: load default AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.endpoint != "" {
			o.BaseEndpoint = aws.String(opts.endpoint)
			o.UsePathStyle = true
		}
	})
	baseURL := opts.publicBaseURL
	if baseURL == "" {
		if opts.endpoint != "" {
			baseURL = strings.TrimSuffix(opts.endpoint, "/") + "/" + bucket
		} else {
			baseURL = fmt.Sprintf(
				"https://%s.s3.%s.amazonaws.com",
				bucket,
				awsCfg.Region,
			)
		}
	}
	return &S3Uploader{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func (u *S3Uploader) Put(
	ctx context.Context,
	key string,
	contentType string,
	data []byte,
) error {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(u.prefix + key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	return err
}

func (u *S3Uploader) URL(key string) string {
	return u.baseURL + "/" + u.prefix + key
}
