// file: internals/helpers/storage/oss.go
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"missionhub_backend/internals/configs"
)

// OSSStorage is the Aliyun OSS backend behind the same ObjectStorage
// interface. Buckets map 1:1 to OSS buckets; public access via public-read ACL.
type OSSStorage struct {
	Client     *oss.Client
	Endpoint   string
	PublicBase string
}

func NewOSSStorageFromEnv() (*OSSStorage, error) {
	endpoint := configs.GetEnv("ALI_OSS_ENDPOINT")
	ak := configs.GetEnv("ALI_OSS_ACCESS_KEY")
	sk := configs.GetEnv("ALI_OSS_SECRET_KEY")
	sts := configs.GetEnv("ALI_OSS_SECURITY_TOKEN")
	if endpoint == "" || ak == "" || sk == "" {
		return nil, fmt.Errorf("missing env: ALI_OSS_ENDPOINT/ACCESS_KEY/SECRET_KEY")
	}

	var (
		client *oss.Client
		err    error
	)
	if sts != "" {
		client, err = oss.New(endpoint, ak, sk, oss.SecurityToken(sts))
	} else {
		client, err = oss.New(endpoint, ak, sk)
	}
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}

	return &OSSStorage{
		Client:     client,
		Endpoint:   endpoint,
		PublicBase: configs.GetEnv("ALI_OSS_PUBLIC_BASE"),
	}, nil
}

func (s *OSSStorage) EnsureBucket(ctx context.Context, spec BucketSpec) error {
	acl := oss.ACL(oss.ACLPrivate)
	if spec.Public {
		acl = oss.ACL(oss.ACLPublicRead)
	}
	err := s.Client.CreateBucket(spec.Name, acl)
	if err == nil {
		return nil
	}
	if se, ok := err.(oss.ServiceError); ok {
		switch se.Code {
		case "BucketAlreadyExists", "BucketAlreadyOwnedByYou":
			return nil
		}
	}
	return fmt.Errorf("create bucket %s: %w", spec.Name, err)
}

func (s *OSSStorage) Upload(ctx context.Context, bucket, path string, data []byte, contentType string, upsert bool) error {
	bkt, err := s.Client.Bucket(bucket)
	if err != nil {
		return fmt.Errorf("bucket %s: %w", bucket, err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	opts := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType(contentType),
		oss.ContentDisposition("inline"),
		oss.CacheControl("public, max-age=31536000, immutable"),
	}
	if !upsert {
		opts = append(opts, oss.ForbidOverWrite(true))
	}
	if err := bkt.PutObject(path, bytes.NewReader(data), opts...); err != nil {
		if se, ok := err.(oss.ServiceError); ok && se.Code == "FileAlreadyExists" {
			return fmt.Errorf("upload %s/%s: %w", bucket, path, ErrObjectExists)
		}
		return fmt.Errorf("upload %s/%s: %w", bucket, path, err)
	}
	return nil
}

func (s *OSSStorage) Delete(ctx context.Context, bucket, path string) error {
	bkt, err := s.Client.Bucket(bucket)
	if err != nil {
		return fmt.Errorf("bucket %s: %w", bucket, err)
	}
	return bkt.DeleteObject(path, oss.WithContext(ctx))
}

func (s *OSSStorage) PublicURL(bucket, path string) string {
	if s.PublicBase != "" {
		return strings.TrimRight(s.PublicBase, "/") + "/" + bucket + "/" + path
	}
	end := s.Endpoint
	end = strings.TrimPrefix(end, "https://")
	end = strings.TrimPrefix(end, "http://")
	return fmt.Sprintf("https://%s.%s/%s", bucket, end, path)
}
