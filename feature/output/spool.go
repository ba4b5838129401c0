package output

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"stash-ingest/core/storage"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// Spool keeps chunks the storage service could not accept for later replay.
type Spool interface {
	Put(ctx context.Context, kind string, payload []byte) (string, error)
}

// ObjectSpool writes dead letters to object storage as <prefix>/<kind>/<uuid>.json.
type ObjectSpool struct {
	client storage.Client
	bucket string
	prefix string
}

// NewObjectSpool creates a spool in bucket under prefix.
func NewObjectSpool(client storage.Client, bucket, prefix string) *ObjectSpool {
	return &ObjectSpool{client: client, bucket: bucket, prefix: prefix}
}

func (s *ObjectSpool) Put(ctx context.Context, kind string, payload []byte) (string, error) {
	key := path.Join(s.prefix, kind, uuid.NewString()+".json")
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to spool %s chunk: %w", kind, err)
	}
	return key, nil
}
