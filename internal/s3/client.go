package s3

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cartloom/checkout/internal/config"
	ierr "github.com/cartloom/checkout/internal/errors"
)

// NewClient builds the object storage client shared by the counter store and
// the receipt publisher. A custom endpoint switches the client to
// S3-compatible stores such as Cloudflare R2, which require path-style
// addressing.
func NewClient(config *config.Configuration) (*s3.Client, error) {
	if config.Orders.CounterBackend != "s3" && config.Receipts.Backend != "s3" {
		return nil, nil
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(context.Background(),
		awsConfig.WithRegion(config.S3.Region),
	)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to load aws config").
			Mark(ierr.ErrHTTPClient)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if config.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.S3.Endpoint)
			o.UsePathStyle = true
		}
	})

	return client, nil
}
