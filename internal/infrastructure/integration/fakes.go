package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/gasdist/backend/internal/domain/integration"
)

// ScriptedScanner returns preset results keyed by raw input. Used in tests and demos.
type ScriptedScanner struct {
	mu      sync.Mutex
	results map[string]integration.ScanResult
}

// NewScriptedScanner creates a scanner with no scripted codes
func NewScriptedScanner() *ScriptedScanner {
	return &ScriptedScanner{results: make(map[string]integration.ScanResult)}
}

// Script makes raw decode to result
func (s *ScriptedScanner) Script(raw string, result integration.ScanResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[raw] = result
}

// Decode returns the scripted result or ErrInvalidScan
func (s *ScriptedScanner) Decode(_ context.Context, raw []byte) (integration.ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.results[string(raw)]; ok {
		return r, nil
	}
	return integration.ScanResult{}, fmt.Errorf("%w: %q not scripted", integration.ErrInvalidScan, raw)
}

// RecordingNotifier keeps every notification it is asked to send
type RecordingNotifier struct {
	mu   sync.Mutex
	sent []integration.Notification
	err  error
}

// NewRecordingNotifier creates an empty recorder
func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

// FailWith makes subsequent sends return err
func (n *RecordingNotifier) FailWith(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.err = err
}

// Name identifies the provider
func (n *RecordingNotifier) Name() string { return "recording" }

// Send records the notification
func (n *RecordingNotifier) Send(_ context.Context, msg integration.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

// Sent returns a copy of the recorded notifications
func (n *RecordingNotifier) Sent() []integration.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]integration.Notification(nil), n.sent...)
}

// InMemoryBackupStore keeps archives in memory
type InMemoryBackupStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	refs    []integration.BackupRef
	now     func() time.Time
}

// NewInMemoryBackupStore creates an empty store
func NewInMemoryBackupStore() *InMemoryBackupStore {
	return &InMemoryBackupStore{
		objects: make(map[string][]byte),
		now:     time.Now,
	}
}

// Store reads r fully and keeps it under name
func (s *InMemoryBackupStore) Store(_ context.Context, name string, r io.Reader, _ int64) (integration.BackupRef, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return integration.BackupRef{}, fmt.Errorf("failed to read backup: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ref := integration.BackupRef{
		Name:      name,
		Location:  "memory://" + name,
		Size:      int64(buf.Len()),
		CreatedAt: s.now().UTC(),
	}
	s.objects[name] = buf.Bytes()
	s.refs = append(s.refs, ref)
	return ref, nil
}

// List returns stored archives, newest first
func (s *InMemoryBackupStore) List(_ context.Context) ([]integration.BackupRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]integration.BackupRef(nil), s.refs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Object returns the stored bytes of an archive
func (s *InMemoryBackupStore) Object(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.objects[name]
	return b, ok
}

var (
	_ integration.ScanPort   = (*ScriptedScanner)(nil)
	_ integration.NotifyPort = (*RecordingNotifier)(nil)
	_ integration.BackupPort = (*InMemoryBackupStore)(nil)
)
