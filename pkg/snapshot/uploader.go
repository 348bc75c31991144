package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/invigilo/proctord/pkg/logger"
)

// TokenFunc yields the current bearer credential from whatever the
// session token store holds.
type TokenFunc func() string

// Uploader posts captured frames to the external persistence endpoint.
type Uploader struct {
	endpoint string
	token    TokenFunc
	client   *http.Client
	log      *logger.Logger
}

func NewUploader(endpoint string, token TokenFunc, log *logger.Logger) *Uploader {
	return &Uploader{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}
}

type uploadBody struct {
	Image []byte `json:"image"`
	*Context
}

// Upload sends one job. A non-2xx response or a transport error is the
// job's terminal failure; the caller never retries.
func (u *Uploader) Upload(ctx context.Context, job *Job) error {
	body, err := json.Marshal(uploadBody{Image: job.Image, Context: job.Context})
	if err != nil {
		return err
	}
	rq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	rq.Header.Set("Content-Type", "application/json")
	if token := u.token(); token != "" {
		rq.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := u.client.Do(rq)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("upload status %v", res.StatusCode)
	}
	return nil
}
