package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simplib/pkg/logging"
)

type fakeS3 struct {
	mu      sync.Mutex
	fail    int
	objects map[string]string
	calls   int
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail > 0 {
		f.fail--
		return nil, errors.New("connection refused")
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.objects == nil {
		f.objects = make(map[string]string)
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = string(body)
	return &s3.PutObjectOutput{}, nil
}

func makeSnapshot(t *testing.T, name string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "books.csv"), []byte("id\n1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loans.csv"), []byte("id\n"), 0o644))
	return dir
}

func TestS3Sink_Upload(t *testing.T) {
	client := &fakeS3{}
	sink := NewS3Sink(client, "library", "backups", logging.Discard())
	snapshot := makeSnapshot(t, "20240301_093000")

	require.NoError(t, sink.Upload(context.Background(), snapshot))
	assert.Equal(t, map[string]string{
		"library/backups/20240301_093000/books.csv": "id\n1\n",
		"library/backups/20240301_093000/loans.csv": "id\n",
	}, client.objects)
	assert.Zero(t, sink.Pending())
}

func TestS3Sink_FailedUploadIsRetried(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	client := &fakeS3{fail: 1}
	sink := NewS3Sink(client, "library", "", logging.Discard())
	sink.SetClock(func() time.Time { return now })
	snapshot := makeSnapshot(t, "20240301_093000")
	ctx := context.Background()

	assert.Error(t, sink.Upload(ctx, snapshot))
	assert.Equal(t, 1, sink.Pending())

	// not due yet
	assert.Zero(t, sink.RetryPending(ctx))
	assert.Equal(t, 1, sink.Pending())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, sink.RetryPending(ctx))
	assert.Zero(t, sink.Pending())
	assert.Contains(t, client.objects, "library/20240301_093000/books.csv")
}

func TestS3Sink_OpenBreakerSkipsCalls(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	client := &fakeS3{fail: 100}
	sink := NewS3Sink(client, "library", "", logging.Discard())
	sink.SetClock(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		assert.Error(t, sink.Upload(ctx, makeSnapshot(t, fmt.Sprintf("20240301_09300%d", i))))
	}
	calls := client.calls

	assert.Error(t, sink.Upload(ctx, makeSnapshot(t, "20240301_093009")))
	assert.Equal(t, calls, client.calls)
	assert.Equal(t, 5, sink.Pending())
}

func TestS3Sink_ForgetDropsPending(t *testing.T) {
	client := &fakeS3{fail: 1}
	sink := NewS3Sink(client, "library", "", logging.Discard())
	snapshot := makeSnapshot(t, "20240301_093000")

	assert.Error(t, sink.Upload(context.Background(), snapshot))
	sink.Forget(snapshot)
	assert.Zero(t, sink.Pending())
}

func TestS3Sink_GivesUpAfterMaxRetries(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	client := &fakeS3{fail: 100}
	sink := NewS3Sink(client, "library", "", logging.Discard())
	sink.SetClock(func() time.Time { return now })
	sink.maxRetries = 2
	ctx := context.Background()

	assert.Error(t, sink.Upload(ctx, makeSnapshot(t, "20240301_093000")))
	for i := 0; i < 3; i++ {
		// step past both the backoff and the breaker timeout
		now = now.Add(time.Hour)
		sink.RetryPending(ctx)
	}
	assert.Zero(t, sink.Pending())
}

func TestS3Sink_SetClockKeepsPendingUploads(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	client := &fakeS3{fail: 1}
	sink := NewS3Sink(client, "library", "", logging.Discard())
	ctx := context.Background()

	assert.Error(t, sink.Upload(ctx, makeSnapshot(t, "20240301_093000")))
	require.Equal(t, 1, sink.Pending())

	sink.SetClock(func() time.Time { return now.Add(24 * time.Hour) })
	assert.Equal(t, 1, sink.Pending())
}
