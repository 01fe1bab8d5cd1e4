// Package storage checks that the upload bucket is reachable.
package storage

import (
	"context"
	"fmt"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
)

// BucketAttrsGetter abstracts *storage.BucketHandle so tests can inject a
// stub.
type BucketAttrsGetter interface {
	Attrs(ctx context.Context) (*gcs.BucketAttrs, error)
}

// BucketProber verifies that the bucket raising upload events exists and is
// readable with the service credentials.
type BucketProber struct {
	Name   string
	Bucket BucketAttrsGetter
}

// NewBucketProber wraps a GCS client handle for bucket.
func NewBucketProber(client *gcs.Client, bucket string) *BucketProber {
	return &BucketProber{Name: bucket, Bucket: client.Bucket(bucket)}
}

// NewFirebaseBucketProber resolves bucket through the Firebase Admin SDK,
// which uses Application Default Credentials on Cloud Run.
func NewFirebaseBucketProber(ctx context.Context, projectID, bucket string) (*BucketProber, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID, StorageBucket: bucket})
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}

	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase storage client: %w", err)
	}

	handle, err := client.DefaultBucket()
	if err != nil {
		return nil, fmt.Errorf("firebase bucket %q: %w", bucket, err)
	}
	return &BucketProber{Name: bucket, Bucket: handle}, nil
}

// Probe fetches the bucket metadata.
func (p *BucketProber) Probe(ctx context.Context) error {
	if _, err := p.Bucket.Attrs(ctx); err != nil {
		return fmt.Errorf("bucket %s attrs: %w", p.Name, err)
	}
	return nil
}
