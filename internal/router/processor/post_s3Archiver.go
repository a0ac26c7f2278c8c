package processor

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/isometry/gh-webhook-stub/internal/controllers/aws"
	"github.com/isometry/gh-webhook-stub/internal/helpers"
	"github.com/isometry/gh-webhook-stub/internal/render"
)

// ArchiveContentType is the content type of archived deliveries.
const ArchiveContentType = "application/x-ndjson"

// ObjectPutter stores objects in a bucket. *aws.Controller implements it.
type ObjectPutter interface {
	PutS3Object(ctx context.Context, bucket, key, contentType string, body []byte) error
}

type s3ArchiverPostProcessor struct {
	logger *slog.Logger
	putter ObjectPutter
	bucket string
	prefix string
	now    func() time.Time
}

// WithArchivePrefix sets the key prefix of archived deliveries.
func WithArchivePrefix(prefix string) Option {
	return func(p Processor) {
		if ap, ok := p.(*s3ArchiverPostProcessor); ok {
			ap.prefix = prefix
		}
	}
}

// NewS3ArchiverPostProcessor returns a Processor storing every delivery in bucket as a JSONL stub
// that can be fed back to the receive command.
func NewS3ArchiverPostProcessor(putter ObjectPutter, bucket string, opts ...Option) Processor {
	_inst := &s3ArchiverPostProcessor{putter: putter, bucket: bucket, logger: helpers.NewNoopLogger(), now: time.Now}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *s3ArchiverPostProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("post-processor:s3Archiver")
}

func (p *s3ArchiverPostProcessor) Process(ctx context.Context, req any) (*Bus, error) {
	bus, err := asBus(req)
	if err != nil {
		return nil, err
	}

	payload, err := bus.Request.Read(ctx)
	if err != nil {
		return bus, err
	}
	var buf bytes.Buffer
	if err = render.Write(&buf, render.FormatJSONL, bus.Request.Headers, payload); err != nil {
		return bus, err
	}

	key := aws.ArchiveKey(p.prefix, bus.Event, bus.DeliveryID, p.now())
	if err = p.putter.PutS3Object(ctx, p.bucket, key, ArchiveContentType, buf.Bytes()); err != nil {
		p.logger.Warn("failed to archive delivery", slog.String("bucket", p.bucket), slog.Any("error", err))
		return bus, err
	}
	bus.Archived = key
	p.logger.Info("delivery archived", slog.String("bucket", p.bucket), slog.String("key", key))
	return bus, nil
}
