package publisher

import (
	"bytes"
	"context"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"

	ierr "github.com/cartloom/checkout/internal/errors"
	"github.com/cartloom/checkout/internal/logger"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Publisher stores receipts as objects with content type application/pdf.
// Keys carry the reverse-chronological sort prefix so external listing tools
// show the newest receipts first.
type S3Publisher struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	logger    *logger.Logger
}

func NewS3Publisher(client *s3.Client, bucket, keyPrefix string, logger *logger.Logger) *S3Publisher {
	return &S3Publisher{
		client:    client,
		bucket:    bucket,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

func (p *S3Publisher) Filename(orderNumber int64, now time.Time) string {
	return SortableKey(orderNumber, now)
}

func (p *S3Publisher) objectKey(filename string) string {
	if p.keyPrefix == "" {
		return filename
	}
	return path.Join(p.keyPrefix, filename)
}

func (p *S3Publisher) Store(ctx context.Context, filename string, data []byte) error {
	key := p.objectKey(filename)

	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("failed to upload receipt").
			WithMessagef("bucket:%s, key:%s", p.bucket, key).
			Mark(ierr.ErrPublishFailed)
	}

	p.logger.Infow("uploaded receipt", "bucket", p.bucket, "key", key, "bytes", len(data))
	return nil
}

func (p *S3Publisher) List(ctx context.Context) ([]StoredReceipt, error) {
	out, err := p.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(p.bucket),
		Prefix: aws.String(p.keyPrefix),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("failed to list receipts").
			WithMessagef("bucket:%s", p.bucket).
			Mark(ierr.ErrStorageUnavailable)
	}

	receipts := make([]StoredReceipt, 0, len(out.Contents))
	for _, obj := range out.Contents {
		receipts = append(receipts, StoredReceipt{
			Name:    path.Base(aws.ToString(obj.Key)),
			Size:    aws.ToInt64(obj.Size),
			ModTime: aws.ToTime(obj.LastModified),
		})
	}
	return receipts, nil
}

func (p *S3Publisher) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	key := p.objectKey(filename)

	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ierr.NewErrorf("receipt %s not found", filename).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("failed to get receipt").
			WithMessagef("bucket:%s, key:%s", p.bucket, key).
			Mark(ierr.ErrStorageUnavailable)
	}
	return out.Body, nil
}
