package cursor

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"stash-ingest/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestObject(t *testing.T) {
	ctx := context.Background()

	t.Run("Load", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetObject", mock.Anything, "bucket", "state/cursor", mock.Anything).
			Return(io.NopCloser(strings.NewReader("7-7\n")), nil)

		c, err := NewObject(client, "bucket", "state/cursor").Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "7-7", c)
		client.AssertExpectations(t)
	})

	t.Run("MissingObjectIsEmpty", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetObject", mock.Anything, "bucket", "state/cursor", mock.Anything).
			Return(nil, minio.ErrorResponse{Code: "NoSuchKey"})

		c, err := NewObject(client, "bucket", "state/cursor").Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "", c)
	})

	t.Run("LoadError", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetObject", mock.Anything, "bucket", "state/cursor", mock.Anything).
			Return(nil, errors.New("access denied"))

		_, err := NewObject(client, "bucket", "state/cursor").Load(ctx)
		assert.ErrorContains(t, err, "failed to get cursor object")
	})

	t.Run("Save", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("PutObject", mock.Anything, "bucket", "state/cursor", mock.Anything, int64(3), mock.Anything).
			Return(minio.UploadInfo{}, nil)

		require.NoError(t, NewObject(client, "bucket", "state/cursor").Save(ctx, "8-8"))
		client.AssertExpectations(t)
	})
}
