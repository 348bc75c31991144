package snapshot

import (
	"context"
	"image"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/invigilo/proctord/pkg/config"
	"github.com/invigilo/proctord/pkg/logger"
	"github.com/invigilo/proctord/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frameSource() *media.FrameCache {
	src := media.NewFrameCache()
	src.Put(image.NewRGBA(image.Rect(0, 0, 48, 48)))
	return src
}

func testPipeline(endpoint string, src media.Source, actx *Context, archive Storage) *Pipeline {
	conf := config.Snapshot{
		Interval: 10 * time.Millisecond,
		Endpoint: endpoint,
		MaxWidth: 64,
		Quality:  80,
	}
	uploader := NewUploader(endpoint, func() string { return "secret" }, logger.Default())
	return NewPipeline(conf, "taker@x", src, func() *Context { return actx }, uploader, archive, logger.Default())
}

func TestCaptureUploads(t *testing.T) {
	var auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := testPipeline(srv.URL, nil, nil, nil)
	job := p.Capture(context.Background(), "taker@x", frameSource(), &Context{AttemptId: "at-1"})

	assert.Equal(t, Uploaded, job.Outcome)
	assert.NoError(t, job.Err)
	assert.Equal(t, "Bearer secret", auth.Load())
}

func TestCaptureWithoutContextSkipsUpload(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	dir := t.TempDir()
	archive, err := NewLocalStorage(dir)
	require.NoError(t, err)

	p := testPipeline(srv.URL, nil, nil, archive)
	job := p.Capture(context.Background(), "taker@x", frameSource(), nil)

	assert.Equal(t, SkippedNoContext, job.Outcome)
	assert.Zero(t, hits.Load(), "no context means no upload")

	files, err := filepath.Glob(filepath.Join(dir, "*.jpg"))
	require.NoError(t, err)
	assert.Len(t, files, 1, "the archive gets the frame regardless")
}

func TestFailedUploadIsTerminal(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := testPipeline(srv.URL, nil, nil, nil)
	actx := &Context{AttemptId: "at-1"}

	job := p.Capture(context.Background(), "taker@x", frameSource(), actx)
	assert.Equal(t, Failed, job.Outcome)
	assert.Error(t, job.Err)

	// the failure is forgotten, the next capture is a fresh job
	job = p.Capture(context.Background(), "taker@x", frameSource(), actx)
	assert.Equal(t, Uploaded, job.Outcome)
	assert.Equal(t, int32(2), hits.Load(), "exactly one request per job, no retries")
}

func TestCaptureNoFrame(t *testing.T) {
	p := testPipeline("http://localhost:0", nil, nil, nil)
	job := p.Capture(context.Background(), "taker@x", media.NewFrameCache(), &Context{AttemptId: "at-1"})
	assert.Equal(t, Failed, job.Outcome)
	assert.ErrorIs(t, job.Err, media.ErrNoFrame)
}

func TestRunSkipsTicksWithoutMedia(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	// an empty cache: every tick is skipped before a job is created
	p := testPipeline(srv.URL, media.NewFrameCache(), &Context{AttemptId: "at-1"}, nil)
	var outcomes atomic.Int32
	p.OnOutcome = func(Job) { outcomes.Add(1) }

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	assert.Zero(t, hits.Load())
	assert.Zero(t, outcomes.Load())
}

func TestRunTicks(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	p := testPipeline(srv.URL, frameSource(), &Context{AttemptId: "at-1"}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	assert.GreaterOrEqual(t, hits.Load(), int32(2), "periodic captures keep coming")
}

func TestLocalStorageWrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save("a.jpg", []byte{0xff, 0xd8}))

	data, err := os.ReadFile(filepath.Join(dir, "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8}, data)
}
