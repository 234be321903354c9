// Package archive copies filed abuse reports to S3-compatible object storage
// so they outlive the database.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/anoninbox/internal/server/models"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
)

// Options configures the target bucket. BaseEndpoint points at MinIO or any
// other S3-compatible server; empty means AWS.
type Options struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

// S3Archiver stores one JSON object per report.
type S3Archiver struct {
	client *s3.Client
	bucket string
}

func NewS3Archiver(ctx context.Context, opts Options) (*S3Archiver, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("error loading aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Archiver{client: client, bucket: opts.Bucket}, nil
}

type archivedReport struct {
	ID             int64     `json:"id"`
	MessageID      int64     `json:"message_id"`
	ReporterID     int64     `json:"reporter_id"`
	ReportedAt     time.Time `json:"reported_at"`
	MessageContent string    `json:"message_content"`
	SenderIP       *string   `json:"sender_ip,omitempty"`
	UserAgent      *string   `json:"user_agent,omitempty"`
}

// ObjectKey returns the key a report is stored under.
func ObjectKey(r *models.Report) string {
	d := r.ReportedAt.UTC()
	return fmt.Sprintf("reports/%d/%02d/%02d/%d-%v.json", d.Year(), d.Month(), d.Day(), r.ID, uuid.New())
}

// ReportFiled uploads report as JSON.
func (a *S3Archiver) ReportFiled(ctx context.Context, report *models.Report) error {
	body, err := json.Marshal(archivedReport{
		ID:             report.ID,
		MessageID:      report.MessageID,
		ReporterID:     report.ReporterID,
		ReportedAt:     report.ReportedAt,
		MessageContent: report.MessageContent,
		SenderIP:       report.SenderIP,
		UserAgent:      report.UserAgent,
	})
	if err != nil {
		return err
	}

	_, err = putObject(a.client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(ObjectKey(report)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("error archiving report %d: %w", report.ID, err)
	}

	return nil
}
