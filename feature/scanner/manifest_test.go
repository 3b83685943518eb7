package scanner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"snapshot-catalog/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestExtractor(client *mocks.Client) *Extractor {
	gw := NewGateway(client, "snapshots", 0)
	return NewExtractor(gw, zap.NewNop())
}

func TestExtractor_Extract(t *testing.T) {
	const prefix = "ethereum-reth-mainnet-archive-v1/1/"

	t.Run("NoBodyManifest", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("StatObject", mock.Anything, "snapshots", prefix+"manifest-body.json", mock.Anything).
			Return(minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound})

		_, err := newTestExtractor(client).Extract(context.Background(), prefix)
		assert.True(t, errors.Is(err, ErrNoManifest))
	})

	t.Run("BodyCheckFailurePropagates", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("StatObject", mock.Anything, "snapshots", prefix+"manifest-body.json", mock.Anything).
			Return(minio.ObjectInfo{}, minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden})

		_, err := newTestExtractor(client).Extract(context.Background(), prefix)
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrNoManifest))
	})

	t.Run("HeaderEnrichment", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("StatObject", mock.Anything, "snapshots", prefix+"manifest-body.json", mock.Anything).
			Return(minio.ObjectInfo{Key: prefix + "manifest-body.json"}, nil)
		client.On("GetObject", mock.Anything, "snapshots", prefix+"manifest-header.json", mock.Anything).
			Return(io.NopCloser(bytes.NewReader([]byte(
				`{"total_size": 1099511627776, "chunks": 512, "compression": {"algorithm": "zstd", "level": 3}}`,
			))), nil)

		manifest, err := newTestExtractor(client).Extract(context.Background(), prefix)
		require.NoError(t, err)

		require.NotNil(t, manifest.TotalSizeBytes)
		assert.Equal(t, int64(1099511627776), *manifest.TotalSizeBytes)
		require.NotNil(t, manifest.TotalChunks)
		assert.Equal(t, 512, *manifest.TotalChunks)
		require.NotNil(t, manifest.CompressionType)
		assert.Equal(t, "zstd", *manifest.CompressionType)
		assert.NotNil(t, manifest.Header)
	})

	t.Run("MissingHeaderYieldsNilMetrics", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("StatObject", mock.Anything, "snapshots", prefix+"manifest-body.json", mock.Anything).
			Return(minio.ObjectInfo{Key: prefix + "manifest-body.json"}, nil)
		client.On("GetObject", mock.Anything, "snapshots", prefix+"manifest-header.json", mock.Anything).
			Return(nil, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound})

		manifest, err := newTestExtractor(client).Extract(context.Background(), prefix)
		require.NoError(t, err)
		assert.Nil(t, manifest.TotalSizeBytes)
		assert.Nil(t, manifest.TotalChunks)
		assert.Nil(t, manifest.CompressionType)
		assert.Nil(t, manifest.Header)
	})

	t.Run("MalformedHeaderYieldsNilMetrics", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("StatObject", mock.Anything, "snapshots", prefix+"manifest-body.json", mock.Anything).
			Return(minio.ObjectInfo{Key: prefix + "manifest-body.json"}, nil)
		client.On("GetObject", mock.Anything, "snapshots", prefix+"manifest-header.json", mock.Anything).
			Return(io.NopCloser(bytes.NewReader([]byte(`{not json`))), nil)

		manifest, err := newTestExtractor(client).Extract(context.Background(), prefix)
		require.NoError(t, err)
		assert.Nil(t, manifest.TotalSizeBytes)
		assert.Nil(t, manifest.Header)
	})

	t.Run("StringTypedNumbers", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("StatObject", mock.Anything, "snapshots", prefix+"manifest-body.json", mock.Anything).
			Return(minio.ObjectInfo{Key: prefix + "manifest-body.json"}, nil)
		client.On("GetObject", mock.Anything, "snapshots", prefix+"manifest-header.json", mock.Anything).
			Return(io.NopCloser(bytes.NewReader([]byte(
				`{"total_size": "1099511627776", "chunks": "512"}`,
			))), nil)

		manifest, err := newTestExtractor(client).Extract(context.Background(), prefix)
		require.NoError(t, err)
		require.NotNil(t, manifest.TotalSizeBytes)
		assert.Equal(t, int64(1099511627776), *manifest.TotalSizeBytes)
		require.NotNil(t, manifest.TotalChunks)
		assert.Equal(t, 512, *manifest.TotalChunks)
	})

	t.Run("ZeroMetricsTreatedAsAbsent", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("StatObject", mock.Anything, "snapshots", prefix+"manifest-body.json", mock.Anything).
			Return(minio.ObjectInfo{Key: prefix + "manifest-body.json"}, nil)
		client.On("GetObject", mock.Anything, "snapshots", prefix+"manifest-header.json", mock.Anything).
			Return(io.NopCloser(bytes.NewReader([]byte(
				`{"total_size": 0, "chunks": 0}`,
			))), nil)

		manifest, err := newTestExtractor(client).Extract(context.Background(), prefix)
		require.NoError(t, err)
		assert.Nil(t, manifest.TotalSizeBytes)
		assert.Nil(t, manifest.TotalChunks)
	})

	t.Run("NonObjectCompression", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("StatObject", mock.Anything, "snapshots", prefix+"manifest-body.json", mock.Anything).
			Return(minio.ObjectInfo{Key: prefix + "manifest-body.json"}, nil)
		client.On("GetObject", mock.Anything, "snapshots", prefix+"manifest-header.json", mock.Anything).
			Return(io.NopCloser(bytes.NewReader([]byte(
				`{"total_size": 100, "chunks": 2, "compression": "zstd"}`,
			))), nil)

		manifest, err := newTestExtractor(client).Extract(context.Background(), prefix)
		require.NoError(t, err)
		assert.Nil(t, manifest.CompressionType)
		require.NotNil(t, manifest.TotalSizeBytes)
		assert.Equal(t, int64(100), *manifest.TotalSizeBytes)
	})
}
