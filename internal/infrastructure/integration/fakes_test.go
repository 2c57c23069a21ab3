package integration

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gasdist/backend/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptedScanner(t *testing.T) {
	s := NewScriptedScanner()
	s.Script("RAW-1", integration.ScanResult{Code: "4006381333931", Symbology: integration.SymbologyEAN13})

	got, err := s.Decode(context.Background(), []byte("RAW-1"))
	require.NoError(t, err)
	assert.Equal(t, "4006381333931", got.Code)

	_, err = s.Decode(context.Background(), []byte("RAW-2"))
	assert.ErrorIs(t, err, integration.ErrInvalidScan)
}

func TestRecordingNotifier(t *testing.T) {
	n := NewRecordingNotifier()
	require.NoError(t, n.Send(context.Background(), integration.Notification{Type: "a"}))

	n.FailWith(errors.New("offline"))
	assert.Error(t, n.Send(context.Background(), integration.Notification{Type: "b"}))

	sent := n.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "a", sent[0].Type)
}

func TestInMemoryBackupStore(t *testing.T) {
	s := NewInMemoryBackupStore()
	now := time.Date(2026, 10, 18, 2, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := s.Store(ctx, "first.json.gz", bytes.NewReader([]byte("one")), 3)
	require.NoError(t, err)
	now = now.Add(24 * time.Hour)
	ref, err := s.Store(ctx, "second.json.gz", bytes.NewReader([]byte("two!")), 4)
	require.NoError(t, err)
	assert.Equal(t, "memory://second.json.gz", ref.Location)
	assert.Equal(t, int64(4), ref.Size)

	refs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "second.json.gz", refs[0].Name)

	b, ok := s.Object("first.json.gz")
	require.True(t, ok)
	assert.Equal(t, "one", string(b))
}
