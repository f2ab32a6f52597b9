// Package storage wraps the S3 object store: uploads, presigned GET/PUT
// URLs, and the download path the worker uses to feed images to the
// advisory model.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const presignExpiry = 1 * time.Hour

// S3Store holds the clients for one bucket. Constructed once at process
// start and passed into every component that touches object storage.
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

func NewS3Store(ctx context.Context, region, bucket string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
	}, nil
}

// Upload writes an object and returns its key.
func (s *S3Store) Upload(ctx context.Context, objectKey string, body io.Reader, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", objectKey, err)
	}
	return objectKey, nil
}

// PresignGet generates a time-limited download URL for an object.
func (s *S3Store) PresignGet(ctx context.Context, objectKey string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to sign GET for %s: %w", objectKey, err)
	}
	return req.URL, nil
}

// PresignPut generates a time-limited upload URL so clients can push images
// directly to the bucket.
func (s *S3Store) PresignPut(ctx context.Context, objectKey, contentType string) (string, error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(5*time.Minute))
	if err != nil {
		return "", fmt.Errorf("failed to sign PUT for %s: %w", objectKey, err)
	}
	return req.URL, nil
}

// Download fetches an object's bytes and content type. Keys are presigned
// first; full http(s) URLs are fetched as-is.
func (s *S3Store) Download(ctx context.Context, keyOrURL string) ([]byte, string, error) {
	url := keyOrURL
	if !strings.HasPrefix(keyOrURL, "http") {
		signed, err := s.PresignGet(ctx, keyOrURL)
		if err != nil {
			return nil, "", err
		}
		url = signed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download %s: %w", keyOrURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download %s: status %d", keyOrURL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return data, contentType, nil
}
