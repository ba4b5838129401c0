package cursor

import (
	"context"
	"fmt"
	"io"
	"strings"

	"stash-ingest/core/storage"

	"github.com/minio/minio-go/v7"
)

// Object stores the cursor as an object in the state bucket.
type Object struct {
	client storage.Client
	bucket string
	key    string
}

// NewObject returns an object storage backed store.
func NewObject(client storage.Client, bucket, key string) *Object {
	return &Object{client: client, bucket: bucket, key: key}
}

func (o *Object) Load(ctx context.Context) (string, error) {
	obj, err := o.client.GetObject(ctx, o.bucket, o.key, minio.GetObjectOptions{})
	if err != nil {
		if storage.IsNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get cursor object: %w", err)
	}
	defer obj.Close()

	// minio reports a missing key on first read, not on GetObject
	b, err := io.ReadAll(io.LimitReader(obj, 4096))
	if err != nil {
		if storage.IsNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read cursor object: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (o *Object) Save(ctx context.Context, cursor string) error {
	_, err := o.client.PutObject(ctx, o.bucket, o.key, strings.NewReader(cursor), int64(len(cursor)), minio.PutObjectOptions{
		ContentType: "text/plain",
	})
	if err != nil {
		return fmt.Errorf("failed to put cursor object: %w", err)
	}
	return nil
}
