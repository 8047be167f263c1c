package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rpupo63/portfolio-projects-backend/config"
	"github.com/rpupo63/portfolio-projects-backend/errs"
)

// S3Client is the part of the S3 API the image store needs.
type S3Client interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Uploader is satisfied by *manager.Uploader.
type S3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3ImageStore keeps project images in a bucket reachable under a public base URL.
type S3ImageStore struct {
	client     S3Client
	uploader   S3Uploader
	bucket     string
	keyPrefix  string
	publicBase string
}

func NewS3ImageStore(client S3Client, uploader S3Uploader, bucket, keyPrefix, publicBase string) *S3ImageStore {
	return &S3ImageStore{
		client:     client,
		uploader:   uploader,
		bucket:     bucket,
		keyPrefix:  strings.Trim(keyPrefix, "/"),
		publicBase: strings.TrimRight(publicBase, "/"),
	}
}

// NewS3ImageStoreFromConfig builds the store from IMAGE_BUCKET and the S3_*
// settings. S3_ENDPOINT points the client at any S3 compatible host.
func NewS3ImageStoreFromConfig(ctx context.Context, cfg map[string]string) (*S3ImageStore, error) {
	bucket := config.GetString(cfg, "IMAGE_BUCKET", "")
	if bucket == "" {
		return nil, errs.NewConfigError("IMAGE_BUCKET", nil)
	}

	acfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimSpace(config.GetString(cfg, "S3_ENDPOINT", ""))
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	usePathStyle := config.GetBool(cfg, "S3_USE_PATH_STYLE", false)

	client := s3.NewFromConfig(acfg, func(o *s3.Options) {
		if endpoint != "" {
			if u, uerr := url.Parse(endpoint); uerr == nil {
				o.BaseEndpoint = aws.String(u.String())
			}
		}
		o.UsePathStyle = usePathStyle
	})

	publicBase := config.GetString(cfg, "IMAGE_PUBLIC_BASE_URL", "")
	if publicBase == "" {
		publicBase = defaultPublicBase(bucket, acfg.Region, endpoint, usePathStyle)
	}

	return NewS3ImageStore(
		client,
		manager.NewUploader(client),
		bucket,
		config.GetString(cfg, "IMAGE_KEY_PREFIX", "projects"),
		publicBase,
	), nil
}

func defaultPublicBase(bucket, region, endpoint string, usePathStyle bool) string {
	if endpoint != "" {
		if usePathStyle {
			return strings.TrimRight(endpoint, "/") + "/" + bucket
		}
		if u, err := url.Parse(endpoint); err == nil {
			return fmt.Sprintf("%s://%s.%s", u.Scheme, bucket, u.Host)
		}
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
}

// Upload stores body under the key prefix and returns its public URL.
func (s *S3ImageStore) Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	key := s.key(name)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", errs.NewStorageUnavailableError("s3", "upload image", err)
	}
	return s.publicBase + "/" + key, nil
}

// Owns reports whether imageURL lives under this store's public base URL.
func (s *S3ImageStore) Owns(imageURL string) bool {
	_, ok := s.keyFor(imageURL)
	return ok
}

func (s *S3ImageStore) Delete(ctx context.Context, imageURL string) error {
	key, ok := s.keyFor(imageURL)
	if !ok {
		return errs.NewInvalidFieldError("image", "not hosted on "+s.publicBase)
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errs.NewUpstreamError("s3", "delete image", err)
	}
	return nil
}

func (s *S3ImageStore) key(name string) string {
	if s.keyPrefix == "" {
		return name
	}
	return s.keyPrefix + "/" + name
}

func (s *S3ImageStore) keyFor(imageURL string) (string, bool) {
	if s.publicBase == "" {
		return "", false
	}

	rest, found := strings.CutPrefix(strings.TrimSpace(imageURL), s.publicBase+"/")
	if !found {
		return "", false
	}
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}

	key, err := url.PathUnescape(rest)
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}
