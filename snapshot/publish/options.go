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

type uploaderOptions struct {
	region          string
	endpoint        string
	accessKeyID     string
	secretAccessKey string
	credentialsFile string
	publicBaseURL   string
}

type UploaderOptionFunc func(*uploaderOptions)

// WithRegion overrides the S3 region
func WithRegion(region string) UploaderOptionFunc {
	return func(o *uploaderOptions) {
		o.region = region
	}
}

// WithEndpoint points the S3 client at an S3 compatible service
func WithEndpoint(endpoint string) UploaderOptionFunc {
	return func(o *uploaderOptions) {
		o.endpoint = endpoint
	}
}

// WithStaticCredentials uses a fixed S3 access key instead of the default
// credential chain
func WithStaticCredentials(accessKeyID, secretAccessKey string) UploaderOptionFunc {
	return func(o *uploaderOptions) {
		o.accessKeyID = accessKeyID
		o.secretAccessKey = secretAccessKey
	}
}

// WithCredentialsFile specifies the GCS service account key file
func WithCredentialsFile(path string) UploaderOptionFunc {
	return func(o *uploaderOptions) {
		o.credentialsFile = path
	}
}

// WithPublicBaseURL sets the base of the returned object URLs, such as a CDN
func WithPublicBaseURL(baseURL string) UploaderOptionFunc {
	return func(o *uploaderOptions) {
		o.publicBaseURL = baseURL
	}
}
