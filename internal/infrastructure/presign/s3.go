package presign

import (
	"context"
	"fmt"
	"time"

	"github.com/andreyxaxa/Image-Admin-Panel/pkg/s3client"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPresigner issues GET URLs for objects of one bucket.
type ObjectPresigner struct {
	*s3client.S3Client
	bucket string
	ttl    time.Duration
}

func New(s3c *s3client.S3Client, bucket string, ttl time.Duration) *ObjectPresigner {
	return &ObjectPresigner{s3c, bucket, ttl}
}

func (p *ObjectPresigner) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := p.Presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return "", fmt.Errorf("ObjectPresigner - PresignGet - p.Presigner.PresignGetObject: %w", err)
	}

	return req.URL, nil
}
