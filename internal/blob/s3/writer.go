package s3blob

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

const (
	// partSize is the multipart chunk size; S3 rejects parts under 5 MiB.
	partSize int64 = 8 * 1024 * 1024

	// multipartThreshold is the object size above which Store switches to
	// the concurrent uploader.
	multipartThreshold = 64 * 1024 * 1024
)

// Writer stores archive objects in the client's bucket.
type Writer struct {
	client   *s3.Client
	bucket   string
	uploader *manager.Uploader
}

// NewWriter creates a Writer.
func NewWriter(c *Client) *Writer {
	return &Writer{
		client: c.S3(),
		bucket: c.Bucket(),
		uploader: manager.NewUploader(c.S3(), func(u *manager.Uploader) {
			u.PartSize = partSize
		}),
	}
}

// Store writes data at key. Small objects use a single PutObject; large ones
// are uploaded in parts.
func (w *Writer) Store(ctx context.Context, key string, data []byte, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}

	if len(data) > multipartThreshold {
		if _, err := w.uploader.Upload(ctx, in); err != nil {
			return fmt.Errorf("s3blob: multipart upload %s: %w", key, err)
		}
		return nil
	}

	in.ContentLength = aws.Int64(int64(len(data)))
	if _, err := w.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("s3blob: put %s: %w", key, err)
	}
	return nil
}

var _ domain.ObjectWriter = (*Writer)(nil)
