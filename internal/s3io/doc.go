// Package s3io abstracts low level S3 and AWS interaction to a high level
// interface for the sorting pipeline: listing, downloading, uploading, and
// deleting objects in the configured bucket.
package s3io
