package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gasdist/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listResponse = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>gasdist-backups</Name>
  <Prefix>backups/</Prefix>
  <KeyCount>2</KeyCount>
  <MaxKeys>1000</MaxKeys>
  <IsTruncated>false</IsTruncated>
  <Contents>
    <Key>backups/gasdist-20261017T020000Z.json.gz</Key>
    <LastModified>2026-10-17T02:00:01.000Z</LastModified>
    <ETag>"a1"</ETag>
    <Size>2048</Size>
    <StorageClass>STANDARD</StorageClass>
  </Contents>
  <Contents>
    <Key>backups/gasdist-20261018T020000Z.json.gz</Key>
    <LastModified>2026-10-18T02:00:01.000Z</LastModified>
    <ETag>"b2"</ETag>
    <Size>4096</Size>
    <StorageClass>STANDARD</StorageClass>
  </Contents>
</ListBucketResult>`

// fakeS3 answers the PutObject and ListObjectsV2 calls the store makes
type fakeS3 struct {
	mu      sync.Mutex
	puts    map[string][]byte
	listURL string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.puts[r.URL.Path] = body
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		f.listURL = r.URL.String()
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(listResponse))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStore(t *testing.T) (*S3BackupStore, *fakeS3) {
	t.Helper()
	fake := &fakeS3{puts: make(map[string][]byte)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := NewS3BackupStore(context.Background(), &config.StorageConfig{
		Endpoint:        srv.URL,
		Region:          "us-east-1",
		Bucket:          "gasdist-backups",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
		BackupPrefix:    "backups/",
	})
	require.NoError(t, err)
	return store, fake
}

func TestNewS3BackupStore_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewS3BackupStore(ctx, nil)
	assert.ErrorContains(t, err, "configuration is required")

	_, err = NewS3BackupStore(ctx, &config.StorageConfig{AccessKeyID: "k", SecretAccessKey: "s"})
	assert.ErrorContains(t, err, "bucket is required")

	_, err = NewS3BackupStore(ctx, &config.StorageConfig{Bucket: "b", AccessKeyID: "k"})
	assert.ErrorContains(t, err, "access key and secret are required")
}

func TestS3BackupStore_Store(t *testing.T) {
	store, fake := newTestStore(t)
	payload := []byte("gzip-bytes")

	ref, err := store.Store(context.Background(), "gasdist-20261019T020000Z.json.gz", bytes.NewReader(payload), int64(len(payload)))
	require.NoError(t, err)

	assert.Equal(t, "gasdist-20261019T020000Z.json.gz", ref.Name)
	assert.Equal(t, "s3://gasdist-backups/backups/gasdist-20261019T020000Z.json.gz", ref.Location)
	assert.Equal(t, int64(len(payload)), ref.Size)
	assert.Equal(t, payload, fake.puts["/gasdist-backups/backups/gasdist-20261019T020000Z.json.gz"])
}

func TestS3BackupStore_StoreRequiresName(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Store(context.Background(), "", bytes.NewReader(nil), 0)
	assert.Error(t, err)
}

func TestS3BackupStore_List(t *testing.T) {
	store, fake := newTestStore(t)

	refs, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 2)

	assert.Equal(t, "gasdist-20261018T020000Z.json.gz", refs[0].Name)
	assert.Equal(t, int64(4096), refs[0].Size)
	assert.Equal(t, "gasdist-20261017T020000Z.json.gz", refs[1].Name)
	assert.Contains(t, fake.listURL, "list-type=2")
	assert.Contains(t, fake.listURL, "prefix=backups")
}

func TestS3BackupStore_Key(t *testing.T) {
	assert.Equal(t, "backups/a.gz", (&S3BackupStore{prefix: "backups/"}).key("a.gz"))
	assert.Equal(t, "backups/a.gz", (&S3BackupStore{prefix: "backups"}).key("a.gz"))
	assert.Equal(t, "a.gz", (&S3BackupStore{}).key("a.gz"))
}
