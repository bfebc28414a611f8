package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"simplib/pkg/circuitbreaker"
	"simplib/pkg/logging"
	"simplib/pkg/queue"
)

// PutObjectAPI is the part of *s3.Client the sink needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Config struct {
	Region   string
	Endpoint string // empty for AWS; set for MinIO and friends
	User     string
	Password string
}

// NewS3Client builds a client with static credentials. A custom endpoint
// switches to path-style addressing.
func NewS3Client(ctx context.Context, c S3Config) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.User, c.Password, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

const (
	defaultMaxRetries = 5
	defaultBackoff    = time.Minute
)

// S3Sink uploads each snapshot as <prefix>/<snapshot>/<file>. Calls go
// through a circuit breaker; failed uploads wait in a retry queue and are
// attempted again before the next snapshot goes up.
type S3Sink struct {
	client     PutObjectAPI
	bucket     string
	prefix     string
	breaker    *circuitbreaker.CircuitBreaker
	retries    *queue.Queue
	log        logging.Logger
	now        func() time.Time
	maxRetries int
	backoff    time.Duration
}

func NewS3Sink(client PutObjectAPI, bucket, prefix string, log logging.Logger) *S3Sink {
	return &S3Sink{
		client:     client,
		bucket:     bucket,
		prefix:     prefix,
		breaker:    circuitbreaker.NewCircuitBreaker(3, 5*time.Minute),
		retries:    queue.NewQueue(),
		log:        log.With("component", "s3-sink"),
		now:        time.Now,
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff,
	}
}

// SetClock replaces time.Now for the sink, its breaker and its queue.
func (s *S3Sink) SetClock(now func() time.Time) {
	s.now = now
	s.breaker.SetClock(now)
	s.retries.SetClock(now)
}

// Pending is the number of uploads waiting for a retry.
func (s *S3Sink) Pending() int {
	return s.retries.Size()
}

func (s *S3Sink) Upload(ctx context.Context, snapshot string) error {
	s.RetryPending(ctx)

	err := s.breaker.Execute(func() error { return s.put(ctx, snapshot) }, nil)
	if err == nil {
		s.log.Info(ctx, "snapshot uploaded", "snapshot", snapshot, "bucket", s.bucket)
		return nil
	}

	s.retries.Enqueue(&queue.Upload{
		ID:         uuid.NewString(),
		Snapshot:   snapshot,
		Key:        s.key(snapshot),
		RetryAt:    s.now().Add(s.backoff),
		RetryCount: 0,
		MaxRetries: s.maxRetries,
		LastError:  err.Error(),
	})
	return fmt.Errorf("upload %s: %w", filepath.Base(snapshot), err)
}

func (s *S3Sink) Forget(snapshot string) {
	if n := s.retries.Drop(snapshot); n > 0 {
		s.log.Warn(context.Background(), "dropped pending uploads of removed snapshot", "snapshot", snapshot, "count", n)
	}
}

// RetryPending attempts every due upload once and returns how many went
// through. Uploads that keep failing back off exponentially and are dropped
// after maxRetries attempts.
func (s *S3Sink) RetryPending(ctx context.Context) int {
	var (
		again []*queue.Upload
		done  int
	)
	for u := s.retries.Dequeue(); u != nil; u = s.retries.Dequeue() {
		if _, err := os.Stat(u.Snapshot); err != nil {
			s.log.Warn(ctx, "pending snapshot is gone", "snapshot", u.Snapshot, "upload_id", u.ID)
			continue
		}

		err := s.breaker.Execute(func() error { return s.put(ctx, u.Snapshot) }, nil)
		if err == nil {
			done++
			s.log.Info(ctx, "pending snapshot uploaded", "snapshot", u.Snapshot, "upload_id", u.ID, "attempts", u.RetryCount+1)
			continue
		}

		if errors.Is(err, circuitbreaker.ErrOpen) {
			// not an attempt; the rest stays queued
			again = append(again, u)
			break
		}

		u.RetryCount++
		u.LastError = err.Error()
		if u.Exhausted() {
			s.log.Error(ctx, "giving up on snapshot upload", "snapshot", u.Snapshot, "upload_id", u.ID, "error", err)
			continue
		}
		u.RetryAt = s.now().Add(s.backoff << u.RetryCount)
		again = append(again, u)
	}
	for _, u := range again {
		s.retries.Enqueue(u)
	}
	return done
}

func (s *S3Sink) key(snapshot string) string {
	return path.Join(s.prefix, filepath.Base(snapshot))
}

func (s *S3Sink) put(ctx context.Context, snapshot string) error {
	entries, err := os.ReadDir(snapshot)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := s.putFile(ctx, filepath.Join(snapshot, e.Name()), path.Join(s.key(snapshot), e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (s *S3Sink) putFile(ctx context.Context, file, key string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(file)),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func contentType(file string) string {
	if filepath.Ext(file) == ".csv" {
		return "text/csv"
	}
	return "application/octet-stream"
}
