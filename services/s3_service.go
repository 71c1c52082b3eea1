package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Service archives the photos users send. Telegram file ids are not
// guaranteed to stay resolvable, so the bot fetches each photo once and
// keeps its own durable copy; the archived key becomes the meal record's
// input reference.
type S3Service struct {
	client *s3.Client
	bucket string
}

func NewS3Service(ctx context.Context, bucket, region string) (*S3Service, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &S3Service{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

// ArchivePhoto stores jpeg bytes under meal-photos/ and returns the object key.
func (s *S3Service) ArchivePhoto(ctx context.Context, userID string, data []byte) (string, error) {
	key := fmt.Sprintf("meal-photos/%s/%s-%s.jpg", userID, time.Now().Format("20060102"), uuid.NewString())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("upload photo to S3: %w", err)
	}
	return key, nil
}
