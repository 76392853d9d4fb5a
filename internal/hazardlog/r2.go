package hazardlog

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// DefaultR2Prefix is the key prefix hazard rows are written under.
const DefaultR2Prefix = "hazard-log"

// R2Config contains configuration for the Cloudflare R2 store.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string // Defaults to "auto"
	Prefix          string // Defaults to DefaultR2Prefix
	Endpoint        string // Overrides the account endpoint (tests, S3-compatible stores)
}

// =============================================================================
// R2Store Implementation
// =============================================================================

// R2Store writes each hazard row as its own CSV object in Cloudflare R2.
// R2 is S3-compatible, so we use the AWS SDK v2 with custom configuration.
// Objects are create-only: a key is never overwritten.
type R2Store struct {
	client     *s3.Client
	bucketName string
	prefix     string
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewR2Store creates a new R2Store.
//
// The R2 endpoint URL is constructed from the account ID unless Endpoint is set.
func NewR2Store(cfg R2Config, clock clockwork.Clock, logger *slog.Logger) (*R2Store, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("r2 bucket name is required")
	}

	// Default region for R2
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	// Format: https://{account_id}.r2.cloudflarestorage.com
	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.AccountID == "" {
			return nil, fmt.Errorf("r2 account ID is required")
		}
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}

	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix == "" {
		prefix = DefaultR2Prefix
	}

	creds := credentials.NewStaticCredentialsProvider(
		cfg.AccessKeyID,
		cfg.SecretAccessKey,
		"", // session token not needed for R2
	)

	awsCfg := aws.Config{
		Region:      region,
		Credentials: creds,
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	logger.Info("initialized r2 hazard log",
		"bucket", cfg.BucketName,
		"endpoint", endpoint,
		"prefix", prefix,
	)

	return &R2Store{
		client:     client,
		bucketName: cfg.BucketName,
		prefix:     prefix,
		clock:      clock,
		logger:     logger,
	}, nil
}

// Name implements Store.
func (s *R2Store) Name() string {
	return "r2"
}

// AppendRows implements Store. Each row becomes one object; on failure the
// count of rows already written is returned with the error.
func (s *R2Store) AppendRows(ctx context.Context, rows []Row) (int, error) {
	if err := validateRows(rows); err != nil {
		return 0, &StoreError{Store: s.Name(), Op: "AppendRows", Err: err}
	}

	for i, row := range rows {
		key := s.objectKey(uuid.New())

		body, err := encodeCSVRow(row)
		if err != nil {
			return i, &StoreError{Store: s.Name(), Op: "AppendRows", Err: err}
		}

		result, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucketName),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String("text/csv"),
			IfNoneMatch: aws.String("*"),
		})
		if err != nil {
			return i, &StoreError{Store: s.Name(), Op: "AppendRows", Err: wrapS3Error(err)}
		}

		s.logger.Debug("stored hazard row in R2",
			"key", key,
			"etag", aws.ToString(result.ETag),
		)
	}

	return len(rows), nil
}

// objectKey returns prefix/YYYY/MM/DD/<id>.csv for the current UTC day.
func (s *R2Store) objectKey(id uuid.UUID) string {
	return fmt.Sprintf("%s/%s/%s.csv", s.prefix, s.clock.Now().UTC().Format("2006/01/02"), id)
}

// encodeCSVRow renders a single row as one CSV line.
func encodeCSVRow(row Row) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(row.Strings()); err != nil {
		return nil, fmt.Errorf("encode csv row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode csv row: %w", err)
	}
	return buf.Bytes(), nil
}

// wrapS3Error converts S3 SDK errors to hazardlog errors.
func wrapS3Error(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed":
			return ErrKeyExists
		case "NoSuchBucket", "NotFound":
			return ErrNotFound
		case "AccessDenied", "Forbidden":
			return ErrAccessDenied
		case "SlowDown", "TooManyRequests":
			return ErrRateLimited
		}

		// Check HTTP status code
		var httpErr interface{ HTTPStatusCode() int }
		if errors.As(err, &httpErr) {
			switch httpErr.HTTPStatusCode() {
			case http.StatusPreconditionFailed:
				return ErrKeyExists
			case http.StatusNotFound:
				return ErrNotFound
			case http.StatusForbidden:
				return ErrAccessDenied
			}
		}
	}

	return fmt.Errorf("R2 operation failed: %w", err)
}
