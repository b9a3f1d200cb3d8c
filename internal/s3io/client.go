package s3io

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// API is the subset of the S3 client used by the Orchestrator.
// This allows for dependency injection and testing with mocks; the real
// *s3.Client implements it.
type API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Orchestrator is the S3 interaction layer for the sorting pipeline, bound to
// a single bucket and the credentials of one shared-config profile.
type Orchestrator struct {
	api    API
	bucket string
	log    logrus.FieldLogger
}

// NewOrchestrator creates an Orchestrator that wraps the provided S3 API.
func NewOrchestrator(api API, bucket string, log logrus.FieldLogger) *Orchestrator {
	return &Orchestrator{
		api:    api,
		bucket: bucket,
		log:    log,
	}
}

// NewDefaultOrchestrator creates an Orchestrator with a real S3 client built
// from the named AWS shared-config profile. Do NOT assume the profile is
// configured for the execution context: a missing profile is reported as a
// MissingProfileError so the user can tell a config typo from an AWS failure.
func NewDefaultOrchestrator(ctx context.Context, profile, bucket string, log logrus.FieldLogger) (*Orchestrator, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithSharedConfigProfile(profile))
	if err != nil {
		var notExist awsconfig.SharedConfigProfileNotExistError
		if errors.As(err, &notExist) {
			return nil, MissingProfileError{Profile: profile}
		}
		return nil, fmt.Errorf("failed to load AWS configuration for profile %q: %w", profile, err)
	}
	log.Debug("AWS session initiated")

	orchestrator := NewOrchestrator(s3.NewFromConfig(cfg), bucket, log)
	log.Debug("s3 client initialized")
	return orchestrator, nil
}

// Bucket returns the bucket this Orchestrator operates on.
func (o *Orchestrator) Bucket() string {
	return o.bucket
}

// ListBuckets returns the names of all buckets visible to the configured
// profile, in case more than one bucket needs scanning.
func (o *Orchestrator) ListBuckets(ctx context.Context) ([]string, error) {
	response, err := o.api.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		if accessDenied(err) {
			return nil, PermissionError{Operation: "ListBuckets"}
		}
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}

	var buckets []string
	for _, bucket := range response.Buckets {
		buckets = append(buckets, aws.ToString(bucket.Name))
	}
	return buckets, nil
}

// ListObjects returns every object key in the bucket, following pagination.
// Requires s3:ListBucket on the bucket; a denial maps to a PermissionError
// naming the bucket and operation.
func (o *Orchestrator) ListObjects(ctx context.Context) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(o.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(o.bucket),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			if accessDenied(err) {
				return nil, PermissionError{Bucket: o.bucket, Operation: "ListObjectsV2"}
			}
			return nil, fmt.Errorf("failed to list objects in bucket %q: %w", o.bucket, err)
		}
		for _, object := range page.Contents {
			keys = append(keys, aws.ToString(object.Key))
		}
	}
	return keys, nil
}

// Download fetches the object at key and copies its body to w, returning the
// number of bytes written.
func (o *Orchestrator) Download(ctx context.Context, key string, w io.Writer) (int64, error) {
	o.log.Infof("downloading %q from S3 bucket %q", key, o.bucket)

	response, err := o.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if accessDenied(err) {
			return 0, PermissionError{Bucket: o.bucket, Operation: "download", Key: key}
		}
		return 0, fmt.Errorf("failed to download %q from bucket %q: %w", key, o.bucket, err)
	}
	defer response.Body.Close()

	n, err := io.Copy(w, response.Body)
	if err != nil {
		return n, fmt.Errorf("failed to read object body for %q: %w", key, err)
	}
	return n, nil
}

// Upload stores the contents of r as the object at key.
func (o *Orchestrator) Upload(ctx context.Context, r io.Reader, key string) error {
	o.log.Infof("uploading to S3 bucket %q with path %q", o.bucket, key)

	_, err := o.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	if err != nil {
		if accessDenied(err) {
			return PermissionError{Bucket: o.bucket, Operation: "upload", Key: key}
		}
		return fmt.Errorf("failed to upload %q to bucket %q: %w", key, o.bucket, err)
	}
	return nil
}

// Delete removes the object at key from the bucket.
func (o *Orchestrator) Delete(ctx context.Context, key string) error {
	o.log.Warnf("deleting %q from S3 bucket %q", key, o.bucket)

	_, err := o.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if accessDenied(err) {
			return PermissionError{Bucket: o.bucket, Operation: "delete", Key: key}
		}
		return fmt.Errorf("failed to delete %q from bucket %q: %w", key, o.bucket, err)
	}
	return nil
}

// IsDirectoryMarker reports whether key names a zero-byte "directory" object
// rather than real content.
func IsDirectoryMarker(key string) bool {
	return strings.HasSuffix(key, "/")
}
