package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/OFFIS-RIT/netexplorer/internal/util"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// UploadPrefix is the key prefix of archived CSV uploads.
const UploadPrefix = "uploads"

func NewS3Client(ctx context.Context) (*s3.Client, error) {
	region := util.GetEnvString("AWS_REGION", "us-east-1")
	endpoint := util.GetEnv("AWS_ENDPOINT")
	accessKey := util.GetEnv("AWS_ACCESS_KEY")
	secretKey := util.GetEnv("AWS_SECRET_KEY")

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(endpoint))
	}
	if accessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey,
			secretKey,
			"",
		)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return client, nil
}

func Bucket() string {
	return util.GetEnv("AWS_BUCKET")
}

// PutFile stores file under prefix/<key>.<ext of name> and returns the object key.
func PutFile(ctx context.Context, client *s3.Client, prefix string, name string, key string, file io.ReadSeeker) (string, error) {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	if ext == "" {
		ext = "csv"
	}
	objectKey := fmt.Sprintf("%s/%s.%s", prefix, key, ext)

	mimeType := mime.TypeByExtension("." + ext)
	if mimeType == "" {
		mimeType = "text/csv"
	}

	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(Bucket()),
		Key:         aws.String(objectKey),
		Body:        file,
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return objectKey, nil
}

// ArchiveUpload stores an uploaded edge table under a fresh key.
func ArchiveUpload(ctx context.Context, client *s3.Client, name string, content []byte) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	return PutFile(ctx, client, UploadPrefix, name, id, bytes.NewReader(content))
}
