package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"snapshot-catalog/core/storage"

	"github.com/minio/minio-go/v7"
)

// ErrObjectNotFound is returned by gateway reads when the requested object
// does not exist in the bucket.
var ErrObjectNotFound = errors.New("object not found")

// Gateway is the thin capability the scanner uses to observe the object
// store: delimited prefix listing, existence checks, and object reads. It
// never writes to the bucket.
type Gateway struct {
	client    storage.Client
	bucket    string
	prefixCap int
}

// NewGateway creates a gateway over the given storage client and bucket.
func NewGateway(client storage.Client, bucket string, prefixCap int) *Gateway {
	if prefixCap <= 0 {
		prefixCap = 1000
	}
	return &Gateway{client: client, bucket: bucket, prefixCap: prefixCap}
}

// Bucket returns the bucket the gateway observes.
func (g *Gateway) Bucket() string {
	return g.bucket
}

// Ping verifies the bucket is reachable and exists.
func (g *Gateway) Ping(ctx context.Context) error {
	exists, err := g.client.BucketExists(ctx, g.bucket)
	if err != nil {
		return fmt.Errorf("failed to reach bucket %s: %w", g.bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", g.bucket)
	}
	return nil
}

// ListCommonPrefixes enumerates the immediate sub-prefixes ("directories")
// under the given prefix. The listing is drained fully, up to the configured
// safety cap. Prefixes are returned with their trailing separator intact.
func (g *Gateway) ListCommonPrefixes(ctx context.Context, prefix string) ([]string, error) {
	// The listing producer runs until its context ends. Cancelling on return
	// releases it when the cap cuts the drain short.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Non-recursive listing delimits on "/": common prefixes come back as
	// entries whose key ends with the separator.
	objectCh := g.client.ListObjects(ctx, g.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	})

	var prefixes []string
	for obj := range objectCh {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list prefixes under %q: %w", prefix, obj.Err)
		}
		if !strings.HasSuffix(obj.Key, "/") || obj.Key == prefix {
			continue
		}
		prefixes = append(prefixes, obj.Key)
		if len(prefixes) >= g.prefixCap {
			break
		}
	}

	return prefixes, nil
}

// ObjectExists checks whether the given key exists. A missing object is not
// an error.
func (g *Gateway) ObjectExists(ctx context.Context, key string) (bool, error) {
	_, err := g.client.StatObject(ctx, g.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	return true, nil
}

// GetObjectBytes fetches an object's full content. A missing object is
// reported as ErrObjectNotFound.
func (g *Gateway) GetObjectBytes(ctx context.Context, key string) ([]byte, error) {
	reader, err := g.client.GetObject(ctx, g.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", key, err)
	}
	defer reader.Close()

	// The client opens objects lazily, so a missing key may only surface here.
	data, err := io.ReadAll(reader)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	return data, nil
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == 404
}
