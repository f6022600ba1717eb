package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	// ErrUnsupportedType is returned for uploads that are not images.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrForeignURL is returned when deleting a URL this bucket did not issue.
	ErrForeignURL = errors.New("url does not belong to the asset bucket")
)

// ImageTypes maps accepted content types to the extension stored.
var ImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

var folderPattern = regexp.MustCompile(`[^a-z0-9-]+`)

// Uploader stores CMS images and returns their public URLs.
type Uploader interface {
	Upload(ctx context.Context, folder, filename string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

// objectAPI is the part of the S3 client the uploader uses.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Uploader struct {
	client  objectAPI
	bucket  string
	baseURL string
}

// NewS3Uploader loads AWS configuration for region, using static credentials
// when both keys are set. publicBaseURL overrides the virtual-hosted bucket
// URL, e.g. for a CDN in front of the bucket.
func NewS3Uploader(ctx context.Context, bucket, region, accessKeyID, secretAccessKey, publicBaseURL string) (*S3Uploader, error) {
	if bucket == "" {
		return nil, fmt.Errorf("AWS_S3_BUCKET is required")
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if accessKeyID != "" && secretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return newS3Uploader(s3.NewFromConfig(cfg), bucket, region, publicBaseURL), nil
}

func newS3Uploader(client objectAPI, bucket, region, publicBaseURL string) *S3Uploader {
	base := strings.TrimSuffix(publicBaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3Uploader{client: client, bucket: bucket, baseURL: base}
}

// Upload stores body under folder with a random name and returns its public URL.
func (u *S3Uploader) Upload(ctx context.Context, folder, filename string, body io.Reader, contentType string) (string, error) {
	ext, ok := ImageTypes[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("%w: %s (%s)", ErrUnsupportedType, contentType, filename)
	}

	key := path.Join(cleanFolder(folder), uuid.NewString()+ext)
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return u.baseURL + "/" + key, nil
}

// Delete removes the object behind a URL returned by Upload.
func (u *S3Uploader) Delete(ctx context.Context, publicURL string) error {
	key, ok := strings.CutPrefix(publicURL, u.baseURL+"/")
	if !ok || key == "" {
		return fmt.Errorf("%w: %s", ErrForeignURL, publicURL)
	}
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	return err
}

// cleanFolder keeps folder names to lowercase words joined by dashes.
func cleanFolder(folder string) string {
	f := folderPattern.ReplaceAllString(strings.ToLower(folder), "-")
	f = strings.Trim(f, "-")
	if f == "" {
		return "uploads"
	}
	return f
}
