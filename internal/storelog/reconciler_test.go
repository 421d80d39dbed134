package storelog

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admintime/internal/ledger"
)

// fakeChannel is an in-memory ChannelLog. Messages are kept newest-first,
// like the real channel returns them.
type fakeChannel struct {
	mu       sync.Mutex
	messages []Message
	pinned   map[string]bool
	pageSize int
	listErr  error
	editErr  error
	creates  int
	edits    int
	nextID   int
}

func newFakeChannel(pageSize int, messages ...Message) *fakeChannel {
	return &fakeChannel{
		messages: messages,
		pinned:   make(map[string]bool),
		pageSize: pageSize,
		nextID:   1000,
	}
}

func (f *fakeChannel) ListPage(beforeID string) ([]Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}
	start := 0
	if beforeID != "" {
		for i, m := range f.messages {
			if m.ID == beforeID {
				start = i + 1
				break
			}
		}
	}
	if start >= len(f.messages) {
		return nil, nil
	}
	end := start + f.pageSize
	if end > len(f.messages) {
		end = len(f.messages)
	}
	page := make([]Message, end-start)
	copy(page, f.messages[start:end])
	return page, nil
}

func (f *fakeChannel) Create(body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.creates++
	f.nextID++
	id := fmt.Sprintf("%d", f.nextID)
	f.messages = append([]Message{{ID: id, Body: body}}, f.messages...)
	return id, nil
}

func (f *fakeChannel) Edit(id, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.editErr != nil {
		return f.editErr
	}
	f.edits++
	for i := range f.messages {
		if f.messages[i].ID == id {
			f.messages[i].Body = body
			return nil
		}
	}
	return fmt.Errorf("message %s not found", id)
}

func (f *fakeChannel) Pin(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pinned[id] = true
	return nil
}

func (f *fakeChannel) body(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, m := range f.messages {
		if m.ID == id {
			return m.Body
		}
	}
	return ""
}

type fakeNames struct {
	names map[string]string
	err   error
}

func (f *fakeNames) ResolveName(adminID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.names[adminID], nil
}

var noon = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func TestLoadRehydratesAndSkipsMalformed(t *testing.T) {
	t.Parallel()

	ch := newFakeChannel(100,
		Message{ID: "3", Body: "User ID: 42\nTotal Time: 1h 30m\nName: Kara"},
		Message{ID: "2", Body: "just some chatter"},
	)
	l := ledger.New()
	r := New(ch, &fakeNames{}, l)

	require.NoError(t, r.Load())

	snaps := l.Snapshots()
	require.Len(t, snaps, 1)
	assert.Equal(t, "42", snaps[0].AdminID)
	assert.Equal(t, 90*time.Minute, snaps[0].Total)
	assert.Equal(t, "Kara", snaps[0].DisplayName)

	handle, ok := r.Handle("42")
	require.True(t, ok)
	assert.Equal(t, "3", handle)
}

func TestLoadPaginatesBackward(t *testing.T) {
	t.Parallel()

	var messages []Message
	for i := 0; i < 250; i++ {
		messages = append(messages, Message{
			ID:   fmt.Sprintf("%d", 500-i),
			Body: fmt.Sprintf("User ID: %d\nTotal Time: %dh 0m\nName: admin%d", i, i%10, i),
		})
	}
	ch := newFakeChannel(100, messages...)
	l := ledger.New()
	r := New(ch, &fakeNames{}, l)

	require.NoError(t, r.Load())
	assert.Len(t, l.Snapshots(), 250)
}

func TestLoadNewestRecordWinsAndIsIdempotent(t *testing.T) {
	t.Parallel()

	// Two records for the same admin; the newer (listed first) wins.
	ch := newFakeChannel(1,
		Message{ID: "9", Body: "User ID: 42\nTotal Time: 3h 0m\nName: Kara"},
		Message{ID: "5", Body: "User ID: 42\nTotal Time: 1h 0m\nName: OldKara"},
	)
	l := ledger.New()
	r := New(ch, &fakeNames{}, l)

	require.NoError(t, r.Load())
	snap, ok := l.Snapshot("42")
	require.True(t, ok)
	assert.Equal(t, 3*time.Hour, snap.Total)
	assert.Equal(t, "Kara", snap.DisplayName)

	handle, _ := r.Handle("42")
	assert.Equal(t, "9", handle)

	// A second scan over the unchanged log yields identical baselines.
	require.NoError(t, r.Load())
	again, _ := l.Snapshot("42")
	assert.Equal(t, snap.Total, again.Total)
	assert.Equal(t, snap.DisplayName, again.DisplayName)
	assert.Len(t, l.Snapshots(), 1)
}

func TestLoadAbortsOnTransportError(t *testing.T) {
	t.Parallel()

	ch := newFakeChannel(100)
	ch.listErr = errors.New("gateway down")
	r := New(ch, &fakeNames{}, ledger.New())

	err := r.Load()
	assert.ErrorContains(t, err, "gateway down")
}

func TestPersistCreatesThenEdits(t *testing.T) {
	t.Parallel()

	ch := newFakeChannel(100)
	l := ledger.New()
	r := New(ch, &fakeNames{names: map[string]string{"42": "Kara"}}, l)

	// First session: 90 minutes.
	l.Open("42", noon)
	_, ok := l.Close("42", noon.Add(90*time.Minute))
	require.True(t, ok)
	r.Persist("42")

	assert.Equal(t, 1, ch.creates)
	assert.Equal(t, 0, ch.edits)
	handle, ok := r.Handle("42")
	require.True(t, ok)
	assert.True(t, ch.pinned[handle], "first record must be pinned")
	assert.Equal(t, "User ID: 42\nTotal Time: 1h 30m\nName: Kara", ch.body(handle))

	// Second session: one more hour. The same message is edited.
	l.Open("42", noon.Add(3*time.Hour))
	_, ok = l.Close("42", noon.Add(4*time.Hour))
	require.True(t, ok)
	r.Persist("42")

	assert.Equal(t, 1, ch.creates)
	assert.Equal(t, 1, ch.edits)
	assert.Equal(t, "User ID: 42\nTotal Time: 2h 30m\nName: Kara", ch.body(handle))
}

func TestPersistFallsBackOnNameLookupFailure(t *testing.T) {
	t.Parallel()

	ch := newFakeChannel(100)
	l := ledger.New()
	r := New(ch, &fakeNames{err: errors.New("member not found")}, l)

	l.Open("42", noon)
	_, ok := l.Close("42", noon.Add(time.Hour))
	require.True(t, ok)
	r.Persist("42")

	handle, ok := r.Handle("42")
	require.True(t, ok)
	assert.Equal(t, "User ID: 42\nTotal Time: 1h 0m\nName: Unknown", ch.body(handle))
}

func TestPersistFailureLeavesLedgerIntact(t *testing.T) {
	t.Parallel()

	ch := newFakeChannel(100,
		Message{ID: "1", Body: "User ID: 42\nTotal Time: 1h 0m\nName: Kara"},
	)
	l := ledger.New()
	r := New(ch, &fakeNames{names: map[string]string{"42": "Kara"}}, l)
	require.NoError(t, r.Load())

	ch.editErr = errors.New("edit failed")

	l.Open("42", noon)
	_, ok := l.Close("42", noon.Add(time.Hour))
	require.True(t, ok)
	r.Persist("42")

	// The close survives in memory even though the mirror write failed.
	snap, _ := l.Snapshot("42")
	assert.Equal(t, 2*time.Hour, snap.Total)
	assert.Equal(t, "User ID: 42\nTotal Time: 1h 0m\nName: Kara", ch.body("1"))
}

func TestPersistUnknownAdminCreatesNothing(t *testing.T) {
	t.Parallel()

	ch := newFakeChannel(100)
	l := ledger.New()
	r := New(ch, &fakeNames{}, l)

	r.Persist("999")
	assert.Equal(t, 0, ch.creates)
	// No phantom record either: only a join or a reconciled parse may
	// create one.
	assert.Empty(t, l.Snapshots())
}

func TestConcurrentPersistsWriteFreshTotal(t *testing.T) {
	t.Parallel()

	ch := newFakeChannel(100)
	l := ledger.New()
	r := New(ch, &fakeNames{names: map[string]string{"42": "Kara"}}, l)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		at := noon.Add(time.Duration(i) * 2 * time.Hour)
		l.Open("42", at)
		_, ok := l.Close("42", at.Add(time.Hour))
		require.True(t, ok)

		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Persist("42")
		}()
	}
	wg.Wait()

	handle, ok := r.Handle("42")
	require.True(t, ok)
	assert.Equal(t, 1, ch.creates, "racing persists must share one handle")
	assert.Equal(t, "User ID: 42\nTotal Time: 4h 0m\nName: Kara", ch.body(handle))
}
