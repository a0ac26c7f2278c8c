// Package aws provides the Controller struct that wraps AWS services: SSM for private keys and S3 for delivery archives.
package aws

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/smithy-go/logging"
	"github.com/isometry/gh-webhook-stub/internal/helpers"
	"github.com/pkg/errors"
)

// Controller represents a wrapper for AWS services providing S3 and SSM functionality with logging support.
type Controller struct {
	logger *slog.Logger

	config    *aws.Config
	endpoint  string
	s3Client  *s3.Client
	ssmClient *ssm.Client
}

// Option defines a function type used to configure an instance of the Controller struct.
type Option func(*Controller)

// NewController initializes a Controller with customizable options and default configurations if unspecified.
func NewController(ctx context.Context, opts ...Option) (*Controller, error) {
	_inst := &Controller{}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	_inst.logger = _inst.logger.With("controller", "aws")
	if _inst.config == nil {
		_inst.logger.Debug("loading default AWS configuration...")
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load AWS configuration")
		}
		_inst.config = &cfg
	}
	_inst.config.Logger = newAWSLogger(_inst.logger)
	if _inst.endpoint != "" {
		_inst.config.BaseEndpoint = aws.String(_inst.endpoint)
	}

	_inst.s3Client = s3.NewFromConfig(*_inst.config, func(o *s3.Options) {
		o.UsePathStyle = _inst.endpoint != ""
	})
	_inst.ssmClient = ssm.NewFromConfig(*_inst.config)
	return _inst, nil
}

// GetSecret retrieves a value from SSM Parameter Store. If encrypted is true, the value is returned decrypted.
func (a *Controller) GetSecret(ctx context.Context, key string, encrypted bool) (string, error) {
	a.logger.With("key", key).Debug("fetching SSM secret...")
	ssmResponse, err := a.ssmClient.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(key),
		WithDecryption: aws.Bool(encrypted),
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to load SSM parameter %s", key)
	}
	if ssmResponse.Parameter == nil || ssmResponse.Parameter.Value == nil {
		return "", errors.Errorf("SSM parameter %s has no value", key)
	}
	return *ssmResponse.Parameter.Value, nil
}

// ArchiveKey returns the object key of an archived delivery: a UTC timestamp followed by the event and delivery ID.
func ArchiveKey(prefix, event, deliveryID string, at time.Time) string {
	return fmt.Sprintf("%s%s.%s.%s.jsonl", prefix, at.UTC().Format(time.RFC3339Nano), event, deliveryID)
}

// PutS3Object uploads body to bucket under key.
// Returns an error if the S3 upload fails or if the bucket name is empty.
func (a *Controller) PutS3Object(ctx context.Context, bucket, key, contentType string, body []byte) error {
	if bucket == "" {
		return errors.New("missing S3 bucket name")
	}
	a.logger.Debug("uploading object...", slog.String("bucket", bucket), slog.String("key", key))
	_, err := a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return errors.Wrap(err, "failed to put object to S3")
	}
	return nil
}

type awsLogger struct {
	logger *slog.Logger
}

func newAWSLogger(logger *slog.Logger) *awsLogger {
	return &awsLogger{logger}
}

func (a *awsLogger) Logf(classification logging.Classification, format string, args ...any) {
	a.logger.Debug(fmt.Sprintf("[%v] %s", classification, fmt.Sprintf(format, args...)))
}
