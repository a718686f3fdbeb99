package storage

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"codecanvas_backend/pkg/config"
	"codecanvas_backend/pkg/utils/image"
	"codecanvas_backend/pkg/utils/validation"
)

// Client uploads export artifacts and user images to R2.
type Client struct {
	cfg config.StorageConfig
}

func NewClient(cfg config.StorageConfig) *Client {
	return &Client{cfg: cfg}
}

func (c *Client) s3Client() (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.cfg.AccessKey,
			c.cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %v", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.cfg.AccountID))
		o.UsePathStyle = true
		o.Region = "auto"
	})

	return client, nil
}

func (c *Client) publicURL(key string) string {
	base := strings.TrimRight(c.cfg.PublicURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.r2.cloudflarestorage.com/%s", c.cfg.AccountID, c.cfg.Bucket)
	}
	return base + "/" + key
}

// UploadArtifact stores a rendered export blob and returns its URL.
func (c *Client) UploadArtifact(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	client, err := c.s3Client()
	if err != nil {
		return "", err
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("could not upload artifact: %v", err)
	}

	return c.publicURL(key), nil
}

// UploadImage validates, optimizes and stores a user-supplied image
// (avatar or portfolio cover) under the user's folder.
func (c *Client) UploadImage(ctx context.Context, file *multipart.FileHeader, username, kind string) (string, error) {
	if err := validation.ValidateImage(file); err != nil {
		return "", err
	}

	buf, contentType, err := image.ProcessImage(file)
	if err != nil {
		return "", err
	}

	ext := filepath.Ext(strings.ToLower(file.Filename))
	key := fmt.Sprintf("%s/%s/%d-%s%s",
		slug.Make(username), kind, time.Now().UnixNano(), uuid.New().String(), ext)

	client, err := c.s3Client()
	if err != nil {
		return "", err
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("could not upload image: %v", err)
	}

	return c.publicURL(key), nil
}
