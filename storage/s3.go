package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"imageculler/logging"
)

// BucketClient transfers images between a local directory and an
// S3-compatible bucket. Credentials come from the standard AWS
// environment variables.
type BucketClient struct {
	client *minio.Client
}

// NewBucketClient connects to an S3-compatible endpoint.
func NewBucketClient(endpoint string, useSSL bool) (*BucketClient, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("missing bucket endpoint")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewEnvAWS(),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create bucket client for %s: %v", endpoint, err)
	}

	return &BucketClient{client: client}, nil
}

// DownloadAll fetches every object in the bucket into localDir, keeping
// the object basenames. Returns false when nothing was downloaded or any
// object failed.
func (c *BucketClient) DownloadAll(ctx context.Context, bucket, localDir string) bool {
	if err := os.MkdirAll(localDir, 0755); err != nil {
		logging.LogError("Cannot create download directory %s: %v", localDir, err)
		return false
	}

	allSuccess := true
	downloaded := 0

	for obj := range c.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			logging.LogError("Cannot list bucket %s: %v", bucket, obj.Err)
			return false
		}

		localPath := filepath.Join(localDir, filepath.Base(obj.Key))
		if err := c.client.FGetObject(ctx, bucket, obj.Key, localPath, minio.GetObjectOptions{}); err != nil {
			fmt.Printf("Failed to download %s: %v\n", obj.Key, err)
			logging.LogError("Cannot download %s from bucket %s: %v", obj.Key, bucket, err)
			allSuccess = false
			continue
		}
		fmt.Printf("Downloaded %s to %s\n", obj.Key, localPath)
		downloaded++
	}

	if downloaded == 0 {
		fmt.Printf("No files found in bucket %s.\n", bucket)
		return false
	}

	return allSuccess
}

// UploadOrdered uploads the named files from localDir to the bucket,
// keyed 1.ext, 2.ext, ... in list order. Per-file failures are logged and
// reflected in the returned boolean.
func (c *BucketClient) UploadOrdered(ctx context.Context, localDir, bucket string, files []string) bool {
	allSuccess := true

	for idx, name := range files {
		localPath := filepath.Join(localDir, name)
		if _, err := os.Stat(localPath); err != nil {
			fmt.Printf("File not found: %s\n", localPath)
			allSuccess = false
			continue
		}

		key := strconv.Itoa(idx+1) + filepath.Ext(name)
		if _, err := c.client.FPutObject(ctx, bucket, key, localPath, minio.PutObjectOptions{}); err != nil {
			fmt.Printf("Failed to upload %s: %v\n", localPath, err)
			logging.LogError("Cannot upload %s to bucket %s: %v", localPath, bucket, err)
			allSuccess = false
			continue
		}
		fmt.Printf("Uploaded %s to bucket %s as %s\n", localPath, bucket, key)
	}

	return allSuccess
}
