package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// XLSXContentType is the MIME type of generated checklists.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// RequireEnv reads every key and fails naming all of the unset or empty ones.
func RequireEnv(keys ...string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	var missing []string
	for _, key := range keys {
		v := GetEnv(key, "")
		if v == "" {
			missing = append(missing, key)
			continue
		}
		values[key] = v
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	return values, nil
}

// GetEnvInt reads an integer environment variable, returning fallback when unset.
func GetEnvInt(key string, fallback int) (int, error) {
	raw := GetEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return v, nil
}

// GetEnvDuration reads a Go duration environment variable, returning fallback when unset.
func GetEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := GetEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

// BucketTarget replicates artifacts into a Cloud Storage bucket.
type BucketTarget struct {
	bucket     *storage.BucketHandle
	bucketName string
	prefix     string
}

// NewBucketTarget creates a target writing objects under prefix in bucket.
func NewBucketTarget(client *storage.Client, bucket, prefix string) *BucketTarget {
	return &BucketTarget{
		bucket:     client.Bucket(bucket),
		bucketName: bucket,
		prefix:     strings.Trim(prefix, "/"),
	}
}

// Name returns the gs:// URI of the destination prefix.
func (b *BucketTarget) Name() string {
	return "gs://" + path.Join(b.bucketName, b.prefix)
}

// ObjectName returns the object a file named filename is stored as.
func (b *BucketTarget) ObjectName(filename string) string {
	if b.prefix == "" {
		return filename
	}
	return b.prefix + "/" + filename
}

// Copy uploads localPath, replacing any existing object of the same name.
func (b *BucketTarget) Copy(ctx context.Context, localPath, filename string) error {
	localFileReader, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("could not open local file %s: %w", localPath, err)
	}
	defer localFileReader.Close()

	objectName := b.ObjectName(filename)
	gcsWriter := b.bucket.Object(objectName).NewWriter(ctx)
	gcsWriter.ContentType = XLSXContentType

	if _, err := io.Copy(gcsWriter, localFileReader); err != nil {
		_ = gcsWriter.Close()
		return fmt.Errorf("io.Copy to GCS failed: %w", classify(err))
	}
	if err := gcsWriter.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer (finalize upload of %s): %w", objectName, classify(err))
	}
	return nil
}

// classify adds the HTTP status to errors returned by the storage API.
func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return fmt.Errorf("storage API returned %d: %w", gerr.Code, err)
	}
	return err
}
