package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/eddie-kann/astrokiddo/pkg/logger"
)

// Config holds the S3-compatible endpoint settings for the audio bucket.
// Cloudflare R2 is the deployed target but any S3-compatible store works.
type Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicBaseURL   string
}

func (c Config) validate() error {
	switch {
	case strings.TrimSpace(c.Endpoint) == "":
		return errors.New("storage: endpoint is required")
	case strings.TrimSpace(c.AccessKeyID) == "" || strings.TrimSpace(c.SecretAccessKey) == "":
		return errors.New("storage: credentials are required")
	case strings.TrimSpace(c.Bucket) == "":
		return errors.New("storage: bucket is required")
	case strings.TrimSpace(c.PublicBaseURL) == "":
		return errors.New("storage: public base url is required")
	}
	return nil
}

// R2Store uploads audio objects to an S3-compatible bucket and hands out
// their public URLs.
type R2Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
	log           *zap.Logger
}

// NewR2Store constructs the object store client.
func NewR2Store(ctx context.Context, cfg Config) (*R2Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &R2Store{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		log:           logger.WithModule("storage"),
	}, nil
}

// SaveAudio uploads an mp3 blob under the given key and returns the public URL.
func (s *R2Store) SaveAudio(ctx context.Context, key string, data []byte) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("storage: object key is required")
	}
	if len(data) == 0 {
		return "", errors.New("storage: refusing to upload empty object")
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("audio/mpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("storage: uploading %s: %w", key, err)
	}

	url := s.publicBaseURL + "/" + key
	s.log.Info("saved audio object", zap.String("url", url), zap.Int("bytes", len(data)))
	return url, nil
}
