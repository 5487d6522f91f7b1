// Package gcsstore implements objectstore.Store against Google Cloud
// Storage, a second §4.J boundary backend alongside adapters/s3store — the
// core itself never imports a cloud storage SDK.
//
// Grounded on the teacher's core/pkg/artifacts/gcs_store.go: the
// "Attrs-then-Writer, content hash keys the object" idempotent-write shape
// carries over directly. The key layout and error translation are rewritten
// around objectstore.Store's PutBytes/GetBytes contract rather than HELM's
// Store/Get/Exists/Delete surface.
package gcsstore

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"

	"github.com/signia-project/signia/pkg/errs"
	"github.com/signia-project/signia/pkg/hashing"
)

// Config configures a Store.
type Config struct {
	Bucket string
	Prefix string // optional key prefix, e.g. "signia/objects/"
}

// Store is an objectstore.Store backed by GCS.
type Store struct {
	client *storage.Client
	bucket string
	prefix string
}

// New constructs a Store. The client authenticates via Application Default
// Credentials, the same way the teacher's NewGCSStore does.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidArgument, "gcsstore.client.new", "failed to create GCS client", err)
	}
	return &Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *Store) object(id string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(s.prefix + id + ".blob")
}

// PutBytesContext stores bytes under their content hash, skipping the
// upload if the object already exists (§4.J's idempotent-write rule).
func (s *Store) PutBytesContext(ctx context.Context, data []byte) (string, error) {
	id := hashing.HashHex(data)
	obj := s.object(id)

	if _, err := obj.Attrs(ctx); err == nil {
		return id, nil
	} else if !errors.Is(err, storage.ErrObjectNotExist) {
		return "", errs.Wrap(errs.KindInvariant, "gcsstore.attrs.failed", "gcs attrs check failed", err)
	}

	w := obj.NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", errs.Wrap(errs.KindInvariant, "gcsstore.put.failed", "gcs write failed", err)
	}
	if err := w.Close(); err != nil {
		return "", errs.Wrap(errs.KindInvariant, "gcsstore.put.failed", "gcs writer close failed", err)
	}
	return id, nil
}

// GetBytesContext retrieves bytes previously stored under id.
func (s *Store) GetBytesContext(ctx context.Context, id string) ([]byte, error) {
	r, err := s.object(id).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, errs.New(errs.KindNotFound, "objectstore.miss", "no object stored for id "+id)
		}
		return nil, errs.Wrap(errs.KindInvariant, "gcsstore.get.failed", "gcs read failed", err)
	}
	defer func() { _ = r.Close() }()
	return io.ReadAll(r)
}

// PutBytes implements objectstore.Store using context.Background(). Callers
// that need cancellation or deadlines should call PutBytesContext directly.
func (s *Store) PutBytes(data []byte) (string, error) {
	return s.PutBytesContext(context.Background(), data)
}

// GetBytes implements objectstore.Store using context.Background().
func (s *Store) GetBytes(id string) ([]byte, error) {
	return s.GetBytesContext(context.Background(), id)
}

// Close releases the underlying GCS client.
func (s *Store) Close() error {
	return s.client.Close()
}
