package snapshot

import (
	"context"
	"path/filepath"

	"cloud.google.com/go/storage"
	"github.com/gofrs/flock"
	"github.com/invigilo/proctord/pkg/config"
	"github.com/invigilo/proctord/pkg/logger"
	"github.com/invigilo/proctord/pkg/os"
)

// Storage is an archive sink for captured frames, kept independently of
// the external upload endpoint (the operator's own record).
type Storage interface {
	Save(name string, data []byte) error
}

func NewStorage(conf config.Snapshot, log *logger.Logger) (Storage, error) {
	switch conf.Provider {
	case "local":
		return NewLocalStorage(conf.Folder)
	case "gcs":
		return NewGcsStorage(conf.Bucket)
	default:
		return NoopStorage{}, nil
	}
}

type NoopStorage struct{}

func (NoopStorage) Save(string, []byte) error { return nil }

// LocalStorage writes frames into a directory guarded by a file lock,
// so concurrent console instances don't clobber each other's archives.
type LocalStorage struct {
	dir  string
	lock *flock.Flock
}

func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.CheckCreateDir(dir); err != nil {
		return nil, err
	}
	return &LocalStorage{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, ".lock")),
	}, nil
}

func (s *LocalStorage) Save(name string, data []byte) error {
	if err := s.lock.Lock(); err != nil {
		return err
	}
	defer func() { _ = s.lock.Unlock() }()
	return os.WriteFile(filepath.Join(s.dir, name), data, 0644)
}

// GcsStorage archives frames into a Google Cloud Storage bucket.
type GcsStorage struct {
	bucket *storage.BucketHandle
}

func NewGcsStorage(bucket string) (*GcsStorage, error) {
	client, err := storage.NewClient(context.Background())
	if err != nil {
		return nil, err
	}
	return &GcsStorage{bucket: client.Bucket(bucket)}, nil
}

func (s *GcsStorage) Save(name string, data []byte) error {
	w := s.bucket.Object(name).NewWriter(context.Background())
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
