package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig holds the connection settings for an S3-compatible endpoint.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// Region skips bucket location lookups when set.
	Region    string
}

// MinioFileStorage is a StorageEngine that keeps every area as a key prefix
// inside a single bucket: a stored file is the object "<area>/<name>".
//
// Object stores have no rename, so Rename is a server-side copy followed by a
// delete of the source; unlike the local engine it is not atomic.
type MinioFileStorage struct {
	client *minio.Client
	bucket string
}

// NewMinioClient creates a client for cfg.
func NewMinioClient(cfg MinioConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}
	return client, nil
}

// NewMinioFileStorage creates a MinioFileStorage storing objects in bucket.
func NewMinioFileStorage(client *minio.Client, bucket string) *MinioFileStorage {
	return &MinioFileStorage{client: client, bucket: bucket}
}

// ObjectKey returns the object key for name within area.
func ObjectKey(area string, name string) (string, error) {
	if err := ValidateName(area); err != nil {
		return "", fmt.Errorf("area: %w", err)
	}
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return area + "/" + name, nil
}

// translateMinioError maps S3 "no such key" responses onto fs.ErrNotExist so
// callers can treat both engines alike.
func translateMinioError(op string, key string, err error) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return &fs.PathError{Op: op, Path: key, Err: fs.ErrNotExist}
	}
	return fmt.Errorf("%s %s: %w", op, key, err)
}

// EnsureArea checks that the bucket exists and creates it if it does not.
// Areas themselves are key prefixes and need no setup.
func (s *MinioFileStorage) EnsureArea(ctx context.Context, area string) error {
	if err := ValidateName(area); err != nil {
		return fmt.Errorf("area: %w", err)
	}

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			// Another instance may have won the race.
			if code := minio.ToErrorResponse(err).Code; code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
				return nil
			}
			return fmt.Errorf("failed to create bucket %q: %w", s.bucket, err)
		}
	}
	return nil
}

func (s *MinioFileStorage) Exists(ctx context.Context, area string, name string) (bool, error) {
	key, err := ObjectKey(area, name)
	if err != nil {
		return false, err
	}

	_, err = s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}

	err = translateMinioError("stat", key, err)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (s *MinioFileStorage) List(ctx context.Context, area string) ([]string, error) {
	if err := ValidateName(area); err != nil {
		return nil, fmt.Errorf("area: %w", err)
	}

	prefix := area + "/"
	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	}

	names := make([]string, 0, 64)
	for obj := range s.client.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects in %q: %w", prefix, obj.Err)
		}

		name := strings.TrimPrefix(obj.Key, prefix)

		// Common prefixes come back as keys ending in "/"; areas are flat.
		if name == "" || strings.HasSuffix(name, "/") {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func (s *MinioFileStorage) Open(ctx context.Context, area string, name string) (*Object, error) {
	key, err := ObjectKey(area, name)
	if err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateMinioError("get", key, err)
	}

	// GetObject is lazy; Stat performs the request and surfaces NoSuchKey.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, translateMinioError("get", key, err)
	}

	return &Object{Body: obj, Size: info.Size, ModTime: info.LastModified}, nil
}

func (s *MinioFileStorage) PutFromFile(ctx context.Context, area string, name string, tempPath string, _ int64) error {
	key, err := ObjectKey(area, name)
	if err != nil {
		return err
	}

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.client.FPutObject(ctx, s.bucket, key, tempPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %q to bucket %q: %w", key, s.bucket, err)
	}
	return nil
}

func (s *MinioFileStorage) Rename(ctx context.Context, area string, oldName string, newName string) error {
	srcKey, err := ObjectKey(area, oldName)
	if err != nil {
		return err
	}
	dstKey, err := ObjectKey(area, newName)
	if err != nil {
		return err
	}

	if srcKey == dstKey {
		return nil
	}

	copySrc := minio.CopySrcOptions{Bucket: s.bucket, Object: srcKey}
	copyDst := minio.CopyDestOptions{Bucket: s.bucket, Object: dstKey}
	if _, err := s.client.CopyObject(ctx, copyDst, copySrc); err != nil {
		return translateMinioError("copy", srcKey, err)
	}

	if err := s.client.RemoveObject(ctx, s.bucket, srcKey, minio.RemoveObjectOptions{}); err != nil {
		return translateMinioError("remove", srcKey, err)
	}
	return nil
}

func (s *MinioFileStorage) Delete(ctx context.Context, area string, name string) error {
	key, err := ObjectKey(area, name)
	if err != nil {
		return err
	}

	// S3 deletes are idempotent, so absence has to be checked explicitly.
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		return translateMinioError("remove", key, err)
	}

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return translateMinioError("remove", key, err)
	}
	return nil
}
