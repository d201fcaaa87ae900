package sequencer

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"

	ierr "github.com/cartloom/checkout/internal/errors"
	"github.com/cartloom/checkout/internal/logger"
)

const s3CasMaxRetries = 8

// ObjectAPI is the slice of the S3 client the sequencer needs. *s3.Client
// satisfies it; tests substitute an in-memory conditional store.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sequencer keeps the counter as a plain-text integer object. A bare
// read-modify-write over the object would let two concurrent webhooks issue
// the same number, so every write is conditional on the ETag observed at read
// time (If-None-Match: * for the very first write). A lost race surfaces as a
// 412 and the whole read-increment-write cycle is retried with backoff, which
// keeps Next linearizable even across server instances.
type S3Sequencer struct {
	client     ObjectAPI
	bucket     string
	key        string
	seed       int64
	logger     *logger.Logger
	newBackOff func() backoff.BackOff
}

func NewS3Sequencer(client ObjectAPI, bucket, key string, seed int64, logger *logger.Logger) *S3Sequencer {
	return &S3Sequencer{
		client: client,
		bucket: bucket,
		key:    key,
		seed:   seed,
		logger: logger,
		newBackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s3CasMaxRetries)
		},
	}
}

func (s *S3Sequencer) Next(ctx context.Context) (int64, error) {
	var issued int64

	operation := func() error {
		current, etag, err := s.read(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}

		next := current + 1
		if err := s.writeConditional(ctx, next, etag); err != nil {
			if isPreconditionFailure(err) {
				s.logger.Debugw("order counter write lost a race, retrying",
					"bucket", s.bucket, "key", s.key)
				return err
			}
			return backoff.Permanent(ierr.WithError(err).
				WithHint("failed to persist order counter").
				WithMessagef("bucket:%s, key:%s", s.bucket, s.key).
				Mark(ierr.ErrStorageUnavailable))
		}

		issued = next
		return nil
	}

	b := backoff.WithContext(s.newBackOff(), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		if ierr.Is(err, ierr.ErrStorageUnavailable) {
			return 0, err
		}
		return 0, ierr.WithError(err).
			WithHint("order counter contention not resolved within retry budget").
			Mark(ierr.ErrStorageUnavailable)
	}

	return issued, nil
}

// read returns the current counter value and the ETag to condition the next
// write on. A missing object yields the seed and an empty ETag.
func (s *S3Sequencer) read(ctx context.Context) (int64, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return s.seed, "", nil
		}
		return 0, "", ierr.WithError(err).
			WithHint("failed to read order counter object").
			WithMessagef("bucket:%s, key:%s", s.bucket, s.key).
			Mark(ierr.ErrStorageUnavailable)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return 0, "", ierr.WithError(err).Mark(ierr.ErrStorageUnavailable)
	}

	value, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, "", ierr.WithError(err).
			WithHint("order counter object is not an integer").
			WithMessagef("bucket:%s, key:%s", s.bucket, s.key).
			Mark(ierr.ErrStorageUnavailable)
	}

	return value, aws.ToString(out.ETag), nil
}

func (s *S3Sequencer) writeConditional(ctx context.Context, value int64, etag string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader([]byte(strconv.FormatInt(value, 10))),
		ContentType: aws.String("text/plain"),
	}
	if etag == "" {
		input.IfNoneMatch = aws.String("*")
	} else {
		input.IfMatch = aws.String(etag)
	}

	_, err := s.client.PutObject(ctx, input)
	return err
}

func isPreconditionFailure(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}
