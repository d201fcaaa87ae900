package sequencer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "github.com/cartloom/checkout/internal/errors"
)

// fakeObjectStore is an in-memory conditional object store. Puts honor
// If-Match and If-None-Match the way S3 does, answering 412 on a lost race.
type fakeObjectStore struct {
	mu      sync.Mutex
	data    []byte
	etag    string
	exists  bool
	version int

	putCalls        int
	sawIfNoneMatch  bool
	injectConflicts int
	getErr          error
	putErr          error
}

func (f *fakeObjectStore) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	if !f.exists {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(f.data)),
		ETag: aws.String(f.etag),
	}, nil
}

func (f *fakeObjectStore) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.putCalls++
	if f.putErr != nil {
		return nil, f.putErr
	}
	if f.injectConflicts > 0 {
		f.injectConflicts--
		return nil, preconditionFailed()
	}

	if params.IfNoneMatch != nil {
		f.sawIfNoneMatch = true
		if f.exists {
			return nil, preconditionFailed()
		}
	}
	if params.IfMatch != nil && (!f.exists || f.etag != aws.ToString(params.IfMatch)) {
		return nil, preconditionFailed()
	}

	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.data = data
	f.exists = true
	f.version++
	f.etag = fmt.Sprintf("\"v%d\"", f.version)
	return &s3.PutObjectOutput{ETag: aws.String(f.etag)}, nil
}

func (f *fakeObjectStore) stored(t *testing.T) int64 {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.True(t, f.exists)
	n, err := strconv.ParseInt(string(f.data), 10, 64)
	require.NoError(t, err)
	return n
}

func preconditionFailed() error {
	return &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "at least one precondition failed"}
}

func newTestS3Sequencer(t *testing.T, store *fakeObjectStore, seed int64) *S3Sequencer {
	t.Helper()
	seq := NewS3Sequencer(store, "orders", "counter.txt", seed, testLogger(t))
	seq.newBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 50)
	}
	return seq
}

func TestS3Sequencer_SeedsMissingCounter(t *testing.T) {
	store := &fakeObjectStore{}
	seq := newTestS3Sequencer(t, store, 1116)

	n, err := seq.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1117), n)

	// The very first write must be create-only so two fresh instances
	// cannot both seed the counter.
	assert.True(t, store.sawIfNoneMatch)
	assert.Equal(t, int64(1117), store.stored(t))
}

func TestS3Sequencer_ResumesFromStoredValue(t *testing.T) {
	store := &fakeObjectStore{data: []byte("2050"), etag: `"v1"`, exists: true, version: 1}
	seq := newTestS3Sequencer(t, store, 1116)

	n, err := seq.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2051), n)
}

func TestS3Sequencer_RetriesLostRace(t *testing.T) {
	store := &fakeObjectStore{data: []byte("300"), etag: `"v1"`, exists: true, version: 1, injectConflicts: 2}
	seq := newTestS3Sequencer(t, store, 100)

	n, err := seq.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(301), n)

	// Two 412s plus the write that finally landed.
	assert.Equal(t, 3, store.putCalls)
	assert.Equal(t, int64(301), store.stored(t))
}

func TestS3Sequencer_ConcurrentNextIsUnique(t *testing.T) {
	store := &fakeObjectStore{}
	seq := newTestS3Sequencer(t, store, 500)

	const workers = 8
	results := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := seq.Next(context.Background())
			assert.NoError(t, err)
			results <- n
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool, workers)
	for n := range results {
		assert.False(t, seen[n], "order number %d issued twice", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers)
	assert.Equal(t, int64(500+workers), store.stored(t))
}

func TestS3Sequencer_ReadFailureIsNotRetried(t *testing.T) {
	store := &fakeObjectStore{getErr: errors.New("access denied")}
	seq := newTestS3Sequencer(t, store, 100)

	_, err := seq.Next(context.Background())
	require.Error(t, err)
	assert.True(t, ierr.Is(err, ierr.ErrStorageUnavailable))
	assert.Zero(t, store.putCalls)
}

func TestS3Sequencer_WriteFailureIsNotRetried(t *testing.T) {
	store := &fakeObjectStore{data: []byte("300"), etag: `"v1"`, exists: true, version: 1,
		putErr: errors.New("slow down")}
	seq := newTestS3Sequencer(t, store, 100)

	_, err := seq.Next(context.Background())
	require.Error(t, err)
	assert.True(t, ierr.Is(err, ierr.ErrStorageUnavailable))
	assert.Equal(t, 1, store.putCalls)
}

func TestS3Sequencer_CorruptCounterObject(t *testing.T) {
	store := &fakeObjectStore{data: []byte("not a number"), etag: `"v1"`, exists: true, version: 1}
	seq := newTestS3Sequencer(t, store, 100)

	_, err := seq.Next(context.Background())
	require.Error(t, err)
	assert.True(t, ierr.Is(err, ierr.ErrStorageUnavailable))
}
