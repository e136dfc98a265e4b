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

// Package publish uploads snapshot bundles to object storage so holders can
// fetch their proofs without going through the API.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gosimple/slug"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/blinklabs-io/ferry/identity"
	"github.com/blinklabs-io/ferry/snapshot"
)

var ErrInvalidTarget = errors.New("invalid publish target")

// Uploader stores a single object
type Uploader interface {
	Put(ctx context.Context, key string, contentType string, data []byte) error
	// URL returns the location of an uploaded object
	URL(key string) string
}

// Key returns the object key of a migration bundle: <slug(name)>/<address>.json
func Key(name string, migration identity.Identity) string {
	s := slug.Make(name)
	if s == "" {
		s = "migration"
	}
	return s + "/" + migration.String() + ".json"
}

type publishMetrics struct {
	uploads *prometheus.CounterVec
	bytes   prometheus.Counter
}

// Publisher writes bundles through an Uploader
type Publisher struct {
	uploader Uploader
	logger   *slog.Logger
	metrics  *publishMetrics
}

func NewPublisher(
	uploader Uploader,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) *Publisher {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	p := &Publisher{
		uploader: uploader,
		logger:   logger,
	}
	if promRegistry != nil {
		factory := promauto.With(promRegistry)
		p.metrics = &publishMetrics{
			uploads: factory.NewCounterVec(
				prometheus.CounterOpts{
					Name: "snapshot_publish_total",
					Help: "snapshot bundle uploads by result",
				},
				[]string{"result"},
			),
			bytes: factory.NewCounter(prometheus.CounterOpts{
				Name: "snapshot_publish_bytes_total",
				Help: "bytes of snapshot bundles uploaded",
			}),
		}
	}
	return p
}

// Publish uploads the bundle of a migration and returns its URL
func (p *Publisher) Publish(
	ctx context.Context,
	name string,
	migration identity.Identity,
	bundle *snapshot.Bundle,
) (string, error) {
	var buf bytes.Buffer
	if err := bundle.WriteJSON(&buf); err != nil {
		return "", err
	}
	key := Key(name, migration)
	if err := p.uploader.Put(ctx, key, "application/json", buf.Bytes()); err != nil {
		p.observe("error", 0)
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	p.observe("ok", buf.Len())
	url := p.uploader.URL(key)
	p.logger.Info(
		"published snapshot bundle",
		"component", "publish",
		"migration", migration.String(),
		"url", url,
		"bytes", buf.Len(),
	)
	return url, nil
}

func (p *Publisher) observe(result string, size int) {
	if p.metrics == nil {
		return
	}
	p.metrics.uploads.WithLabelValues(result).Inc()
	p.metrics.bytes.Add(float64(size))
}

// ParseTarget splits a target of the form s3://bucket[/prefix] or
// gs://bucket[/prefix]
func ParseTarget(target string) (scheme string, bucket string, prefix string, err error) {
	scheme, path, ok := strings.Cut(target, "://")
	if !ok || (scheme != "s3" && scheme != "gs") {
		return "", "", "", fmt.Errorf(
			"%w: expected s3://<bucket>[/prefix] or gs://<bucket>[/prefix], got %q",
			ErrInvalidTarget,
			target,
		)
	}
	bucket, prefix, _ = strings.Cut(path, "/")
	if bucket == "" {
		return "", "", "", fmt.Errorf("%w: bucket not set", ErrInvalidTarget)
	}
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return scheme, bucket, prefix, nil
}

// NewUploader builds the uploader for a target URL
func NewUploader(
	ctx context.Context,
	target string,
	opts ...UploaderOptionFunc,
) (Uploader, error) {
	scheme, bucket, prefix, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}
	o := uploaderOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	switch scheme {
	case "s3":
		return NewS3Uploader(ctx, bucket, prefix, o)
	default:
		return NewGCSUploader(ctx, bucket, prefix, o)
	}
}
