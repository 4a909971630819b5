package gallery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/inkgen/server/internal/shared/config"
)

// Design describes an archived design in the gallery.
type Design struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists finished designs and lists recent ones.
type Store interface {
	Put(ctx context.Context, key string, image []byte) error
	Recent(ctx context.Context, limit int32) ([]*Design, error)
}

// S3Store keeps designs in an S3-compatible bucket. Objects are keyed by
// month so listing recent designs only scans the current prefix.
type S3Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

// NewS3Store creates a gallery store from storage configuration.
func NewS3Store(cfg config.StorageConfig) (*S3Store, error) {
	if cfg.Endpoint == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.Bucket == "" {
		return nil, errors.New("incomplete storage configuration")
	}

	creds := credentials.NewStaticCredentialsProvider(
		cfg.AccessKeyID,
		cfg.SecretAccessKey,
		"",
	)

	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(creds),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &S3Store{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// Put uploads one PNG design.
func (s *S3Store) Put(ctx context.Context, key string, image []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(image),
		ContentLength: aws.Int64(int64(len(image))),
		ContentType:   aws.String("image/png"),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// Recent lists the newest designs under the current month prefix, newest
// first.
func (s *S3Store) Recent(ctx context.Context, limit int32) ([]*Design, error) {
	prefix := monthPrefix(time.Now().UTC())

	result, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}

	designs := make([]*Design, 0, len(result.Contents))
	for _, obj := range result.Contents {
		if obj.Key == nil {
			continue
		}
		d := &Design{
			Key: *obj.Key,
			URL: s.publicBaseURL + "/" + *obj.Key,
		}
		if obj.LastModified != nil {
			d.CreatedAt = *obj.LastModified
		}
		designs = append(designs, d)
	}

	sort.Slice(designs, func(i, j int) bool {
		return designs[i].CreatedAt.After(designs[j].CreatedAt)
	})
	return designs, nil
}

// monthPrefix returns the designs/<yyyy>/<mm>/ key prefix for t.
func monthPrefix(t time.Time) string {
	return fmt.Sprintf("designs/%04d/%02d/", t.Year(), int(t.Month()))
}

// designKey builds the object key for a new design.
func designKey(t time.Time, id string) string {
	return monthPrefix(t) + id + ".png"
}
