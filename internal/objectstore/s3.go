// Package objectstore загружает подтверждения оплаты в S3-совместимое хранилище.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/magabrotheeeer/rental-ledger/internal/config"
)

// PutObjectAPI часть клиента S3, нужная для загрузки.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store загружает объекты в один bucket.
type Store struct {
	client   PutObjectAPI
	bucket   string
	region   string
	endpoint string
}

// New строит клиента S3 из стандартной цепочки учётных данных AWS.
// Если задан endpoint (MinIO, LocalStack), используется path-style адресация.
func New(ctx context.Context, cfg config.ObjectStorage) (*Store, error) {
	const op = "objectstore.New"
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%s: bucket is not configured", op)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		ep := cfg.Endpoint
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(ep)
			o.UsePathStyle = true
		})
	}
	return NewWithClient(s3.NewFromConfig(awsCfg, opts...), cfg), nil
}

// NewWithClient оборачивает готового клиента.
func NewWithClient(client PutObjectAPI, cfg config.ObjectStorage) *Store {
	return &Store{
		client:   client,
		bucket:   cfg.Bucket,
		region:   cfg.Region,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
	}
}

// Put загружает body под ключом key и возвращает публичный URL объекта.
func (s *Store) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	const op = "objectstore.Put"
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return s.url(key), nil
}

func (s *Store) url(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
