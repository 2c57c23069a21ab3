package appstate

import (
	"sync"
	"testing"
	"time"

	"github.com/gasdist/backend/internal/domain/identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Session(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	s := NewStore(WithClock(func() time.Time { return now }))

	_, ok := s.Session()
	assert.False(t, ok)
	assert.Empty(t, s.Token())
	assert.False(t, s.Can(identity.CapCustomersRead))

	s.SignIn(Session{
		UserID:    uuid.New(),
		Username:  "clerk",
		Role:      identity.RoleOperator,
		Token:     "tok",
		ExpiresAt: now.Add(time.Hour),
	})
	got, ok := s.Session()
	require.True(t, ok)
	assert.Equal(t, "clerk", got.Username)
	assert.Equal(t, "tok", s.Token())
	assert.True(t, s.Can(identity.CapApprovalsRequest))
	assert.False(t, s.Can(identity.CapCustomersEdit))

	now = now.Add(2 * time.Hour)
	assert.Empty(t, s.Token(), "expired tokens are not handed out")

	s.SignOut()
	_, ok = s.Session()
	assert.False(t, ok)
}

func TestStore_SetOnlineNotifiesTransitionsOnly(t *testing.T) {
	s := NewStore()
	var changes []Change
	unsubscribe := s.Subscribe(func(c Change) { changes = append(changes, c) })

	s.SetOnline(false)
	assert.Empty(t, changes, "already offline")

	s.SetOnline(true)
	s.SetOnline(true)
	s.SetOnline(false)
	require.Len(t, changes, 2)
	assert.Equal(t, Change{Kind: ChangeConnectivity, Online: true, WentOnline: true}, changes[0])
	assert.Equal(t, Change{Kind: ChangeConnectivity, Online: false}, changes[1])
	assert.False(t, s.IsOnline())

	unsubscribe()
	unsubscribe()
	s.SetOnline(true)
	assert.Len(t, changes, 2)
}

func TestStore_Notices(t *testing.T) {
	s := NewStore(WithMaxNotices(2))

	first := s.Notify(NoticeInfo, "Queued customer create")
	second := s.Notify(NoticeError, "Sync failed")
	third := s.Notify(NoticeSuccess, "Synced 3 changes")

	notices := s.Notices()
	require.Len(t, notices, 2)
	assert.Equal(t, second, notices[0].ID)
	assert.Equal(t, third, notices[1].ID)

	s.DismissNotice(first)
	s.DismissNotice(second)
	notices = s.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, "Synced 3 changes", notices[0].Message)
	assert.Equal(t, NoticeSuccess, notices[0].Level)
}

func TestStore_ConcurrentUse(t *testing.T) {
	s := NewStore()
	var mu sync.Mutex
	seen := 0
	s.Subscribe(func(Change) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.SetOnline(i%2 == 0)
			s.Notify(NoticeInfo, "ping")
			_ = s.IsOnline()
			_ = s.Notices()
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, seen, 20)
	assert.Len(t, s.Notices(), 20)
}
