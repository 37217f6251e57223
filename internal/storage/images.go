package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const imageCacheControl = "public, max-age=31536000, immutable"

// ErrUnmanagedURL is returned when a URL does not point into the bucket.
var ErrUnmanagedURL = errors.New("url is not served from the image bucket")

type Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicBaseURL   string
	StorageClass    string
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != "" && strings.TrimSpace(c.Bucket) != ""
}

// objectAPI is the part of the S3 client the image store calls.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// ImageStore keeps menu pictures in an S3-compatible bucket (Cloudflare R2 in
// production) served from PublicBaseURL.
type ImageStore struct {
	bucket       string
	publicBase   string
	storageClass *types.StorageClass
	api          objectAPI
}

type MenuImageURLs struct {
	Full      string `json:"full"`
	Thumbnail string `json:"thumbnail"`
}

func NewImageStore(ctx context.Context, cfg Config) (*ImageStore, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("object store endpoint is required")
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("object store bucket is required")
	}
	publicBase := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if publicBase == "" {
		return nil, fmt.Errorf("object store public base url is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "auto"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			strings.TrimSpace(cfg.AccessKeyID),
			strings.TrimSpace(cfg.SecretAccessKey),
			"",
		)),
	)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		// R2 needs path-style addressing.
		o.UsePathStyle = true
	})

	return newImageStore(client, bucket, publicBase, cfg.StorageClass), nil
}

func newImageStore(api objectAPI, bucket, publicBase, storageClass string) *ImageStore {
	return &ImageStore{
		bucket:       bucket,
		publicBase:   strings.TrimRight(publicBase, "/"),
		storageClass: parseStorageClass(storageClass),
		api:          api,
	}
}

// MenuImageKeys returns the object keys for the full image and thumbnail of
// a menu item upload at t.
func MenuImageKeys(itemID int64, t time.Time) (string, string) {
	base := "menu/items/" + strconv.FormatInt(itemID, 10) + "/" + strconv.FormatInt(t.UnixMilli(), 10)
	return base + ".jpg", base + "_thumb.jpg"
}

// ThumbnailURL derives the thumbnail URL stored next to a full image URL.
func ThumbnailURL(fullURL string) string {
	if !strings.HasSuffix(fullURL, ".jpg") || strings.HasSuffix(fullURL, "_thumb.jpg") {
		return ""
	}
	return strings.TrimSuffix(fullURL, ".jpg") + "_thumb.jpg"
}

func (s *ImageStore) PublicURL(key string) string {
	return s.publicBase + "/" + strings.TrimLeft(key, "/")
}

// PutMenuImage uploads both JPEG variants. A failed thumbnail upload removes
// the full image again.
func (s *ImageStore) PutMenuImage(ctx context.Context, itemID int64, full, thumb []byte, at time.Time) (MenuImageURLs, error) {
	fullKey, thumbKey := MenuImageKeys(itemID, at)
	if err := s.putJPEG(ctx, fullKey, full); err != nil {
		return MenuImageURLs{}, fmt.Errorf("upload %s: %w", fullKey, err)
	}
	if err := s.putJPEG(ctx, thumbKey, thumb); err != nil {
		_ = s.deleteKey(ctx, fullKey)
		return MenuImageURLs{}, fmt.Errorf("upload %s: %w", thumbKey, err)
	}
	return MenuImageURLs{Full: s.PublicURL(fullKey), Thumbnail: s.PublicURL(thumbKey)}, nil
}

// DeleteMenuImage removes a stored image and its thumbnail. URLs outside the
// bucket are left alone.
func (s *ImageStore) DeleteMenuImage(ctx context.Context, fullURL string) error {
	key, ok := s.ResolveKeyFromURL(fullURL)
	if !ok {
		return ErrUnmanagedURL
	}
	if err := s.deleteKey(ctx, key); err != nil {
		return err
	}
	if thumb := ThumbnailURL(fullURL); thumb != "" {
		if thumbKey, ok := s.ResolveKeyFromURL(thumb); ok {
			return s.deleteKey(ctx, thumbKey)
		}
	}
	return nil
}

func (s *ImageStore) putJPEG(ctx context.Context, key string, body []byte) error {
	input := &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(strings.TrimLeft(key, "/")),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String("image/jpeg"),
		CacheControl: aws.String(imageCacheControl),
	}
	if s.storageClass != nil {
		input.StorageClass = *s.storageClass
	}
	_, err := s.api.PutObject(ctx, input)
	return err
}

func (s *ImageStore) deleteKey(ctx context.Context, key string) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(strings.TrimLeft(key, "/")),
	})
	return err
}

func (s *ImageStore) ResolveKeyFromURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if strings.HasPrefix(raw, s.publicBase+"/") {
		return strings.TrimLeft(raw[len(s.publicBase):], "/"), true
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	// Path-style S3 URL: https://<account>.r2.cloudflarestorage.com/<bucket>/<key>
	parts := strings.Split(strings.TrimLeft(parsed.Path, "/"), "/")
	if len(parts) >= 2 && parts[0] == s.bucket {
		return strings.Join(parts[1:], "/"), true
	}
	return "", false
}

func parseStorageClass(v string) *types.StorageClass {
	v = strings.TrimSpace(strings.ToUpper(v))
	if v == "" {
		return nil
	}
	sc := types.StorageClass(v)
	return &sc
}
