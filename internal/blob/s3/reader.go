package s3blob

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

// maxFetchSize bounds how much of one object Fetch reads into memory.
const maxFetchSize = 512 * 1024 * 1024

// Reader reads archive objects from the client's bucket.
type Reader struct {
	client *s3.Client
	bucket string
}

// NewReader creates a Reader.
func NewReader(c *Client) *Reader {
	return &Reader{client: c.S3(), bucket: c.Bucket()}
}

// Fetch returns the full body of the object at key.
func (r *Reader) Fetch(ctx context.Context, key string) ([]byte, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("s3blob: fetch %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("s3blob: fetch %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxFetchSize+1))
	if err != nil {
		return nil, fmt.Errorf("s3blob: read %s: %w", key, err)
	}
	if len(data) > maxFetchSize {
		return nil, fmt.Errorf("s3blob: %s exceeds %d bytes", key, maxFetchSize)
	}
	return data, nil
}

// isNotFound matches NoSuchKey, the typed NotFound, and bare 404 responses
// from compatible providers.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var status interface{ HTTPStatusCode() int }
	return errors.As(err, &status) && status.HTTPStatusCode() == 404
}

var _ domain.ObjectReader = (*Reader)(nil)
