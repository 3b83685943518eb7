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
)

func objectChannel(keys ...string) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(keys))
	for _, key := range keys {
		ch <- minio.ObjectInfo{Key: key}
	}
	close(ch)
	return ch
}

func notFoundErr() error {
	return minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}
}

func TestGateway_ListCommonPrefixes(t *testing.T) {
	t.Run("FiltersNonPrefixEntries", func(t *testing.T) {
		client := new(mocks.Client)
		gw := NewGateway(client, "snapshots", 0)

		client.On("ListObjects", mock.Anything, "snapshots", mock.Anything).
			Return(objectChannel("ethereum-reth-mainnet-archive-v1/", "README.md", "arbitrum-one-nitro-mainnet-full-v1/"))

		prefixes, err := gw.ListCommonPrefixes(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, []string{"ethereum-reth-mainnet-archive-v1/", "arbitrum-one-nitro-mainnet-full-v1/"}, prefixes)
	})

	t.Run("ExcludesTheListedPrefixItself", func(t *testing.T) {
		client := new(mocks.Client)
		gw := NewGateway(client, "snapshots", 0)

		client.On("ListObjects", mock.Anything, "snapshots", mock.Anything).
			Return(objectChannel("proto/", "proto/1/", "proto/2/"))

		prefixes, err := gw.ListCommonPrefixes(context.Background(), "proto/")
		require.NoError(t, err)
		assert.Equal(t, []string{"proto/1/", "proto/2/"}, prefixes)
	})

	t.Run("RespectsPrefixCap", func(t *testing.T) {
		client := new(mocks.Client)
		gw := NewGateway(client, "snapshots", 2)

		client.On("ListObjects", mock.Anything, "snapshots", mock.Anything).
			Return(objectChannel("a/", "b/", "c/", "d/"))

		prefixes, err := gw.ListCommonPrefixes(context.Background(), "")
		require.NoError(t, err)
		assert.Len(t, prefixes, 2)
	})

	t.Run("ReleasesListingAtCap", func(t *testing.T) {
		client := new(mocks.Client)
		gw := NewGateway(client, "snapshots", 2)

		client.On("ListObjects", mock.Anything, "snapshots", mock.Anything).
			Return(objectChannel("a/", "b/", "c/", "d/"))

		_, err := gw.ListCommonPrefixes(context.Background(), "")
		require.NoError(t, err)

		// The listing context must be cancelled on return so the producer
		// does not stay parked after the cap cut the drain short.
		listCtx := client.Calls[0].Arguments.Get(0).(context.Context)
		assert.Error(t, listCtx.Err())
	})

	t.Run("PropagatesListingError", func(t *testing.T) {
		client := new(mocks.Client)
		gw := NewGateway(client, "snapshots", 0)

		ch := make(chan minio.ObjectInfo, 1)
		ch <- minio.ObjectInfo{Err: errors.New("connection reset")}
		close(ch)
		client.On("ListObjects", mock.Anything, "snapshots", mock.Anything).
			Return((<-chan minio.ObjectInfo)(ch))

		_, err := gw.ListCommonPrefixes(context.Background(), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestGateway_ObjectExists(t *testing.T) {
	t.Run("Exists", func(t *testing.T) {
		client := new(mocks.Client)
		gw := NewGateway(client, "snapshots", 0)

		client.On("StatObject", mock.Anything, "snapshots", "proto/1/manifest-body.json", mock.Anything).
			Return(minio.ObjectInfo{Key: "proto/1/manifest-body.json"}, nil)

		exists, err := gw.ObjectExists(context.Background(), "proto/1/manifest-body.json")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("MissingIsNotAnError", func(t *testing.T) {
		client := new(mocks.Client)
		gw := NewGateway(client, "snapshots", 0)

		client.On("StatObject", mock.Anything, "snapshots", "proto/1/manifest-body.json", mock.Anything).
			Return(minio.ObjectInfo{}, notFoundErr())

		exists, err := gw.ObjectExists(context.Background(), "proto/1/manifest-body.json")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("OtherErrorsPropagate", func(t *testing.T) {
		client := new(mocks.Client)
		gw := NewGateway(client, "snapshots", 0)

		client.On("StatObject", mock.Anything, "snapshots", "proto/1/manifest-body.json", mock.Anything).
			Return(minio.ObjectInfo{}, minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden})

		_, err := gw.ObjectExists(context.Background(), "proto/1/manifest-body.json")
		assert.Error(t, err)
	})
}

func TestGateway_GetObjectBytes(t *testing.T) {
	t.Run("ReadsContent", func(t *testing.T) {
		client := new(mocks.Client)
		gw := NewGateway(client, "snapshots", 0)

		client.On("GetObject", mock.Anything, "snapshots", "proto/1/manifest-header.json", mock.Anything).
			Return(io.NopCloser(bytes.NewReader([]byte(`{"total_size": 42}`))), nil)

		data, err := gw.GetObjectBytes(context.Background(), "proto/1/manifest-header.json")
		require.NoError(t, err)
		assert.JSONEq(t, `{"total_size": 42}`, string(data))
	})

	t.Run("MissingObjectSentinel", func(t *testing.T) {
		client := new(mocks.Client)
		gw := NewGateway(client, "snapshots", 0)

		client.On("GetObject", mock.Anything, "snapshots", "proto/1/manifest-header.json", mock.Anything).
			Return(nil, notFoundErr())

		_, err := gw.GetObjectBytes(context.Background(), "proto/1/manifest-header.json")
		assert.True(t, errors.Is(err, ErrObjectNotFound))
	})
}
