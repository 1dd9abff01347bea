package journal

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/autopeer-io/truckhub/pkg/log"
	"github.com/autopeer-io/truckhub/pkg/options"
)

var _ Uploader = (*MinIOUploader)(nil)

// MinIOUploader stores journal files in an S3-compatible bucket.
type MinIOUploader struct {
	client     *minio.Client
	bucketName string
}

// NewMinIOUploader creates an uploader from S3 options.
func NewMinIOUploader(opts *options.S3Options) (*MinIOUploader, error) {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: opts.InsecureSkipVerify},
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure:    opts.UseSSL,
		Region:    opts.Region,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinIOUploader{
		client:     client,
		bucketName: opts.BucketName,
	}, nil
}

// CheckBucket creates the bucket when it does not exist.
func (u *MinIOUploader) CheckBucket(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		log.Info("Bucket does not exist, creating...", "bucket", u.bucketName)
		if err := u.client.MakeBucket(ctx, u.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

func (u *MinIOUploader) Upload(ctx context.Context, objectKey, filePath string) error {
	info, err := u.client.FPutObject(ctx, u.bucketName, objectKey, filePath, minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", objectKey, err)
	}
	log.Debug("Uploaded journal object", "bucket", info.Bucket, "key", info.Key, "size", info.Size)
	return nil
}
