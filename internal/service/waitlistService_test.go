package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	repository "github.com/ds124wfegd/eventwaitlist/internal/database"
	"github.com/ds124wfegd/eventwaitlist/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spyStore counts calls and can be told to fail.
type spyStore struct {
	inner   repository.TableStore
	loads   int
	saves   int
	loadErr error
	saveErr error
}

func (s *spyStore) Load(ctx context.Context) (entity.WaitlistTable, error) {
	s.loads++
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.inner.Load(ctx)
}

func (s *spyStore) Save(ctx context.Context, table entity.WaitlistTable) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.inner.Save(ctx, table)
}

type brokenDocument struct{}

func (brokenDocument) Fetch(context.Context) (entity.WaitlistTable, error) {
	return nil, errors.New("503 service unavailable")
}

func (brokenDocument) Replace(context.Context, entity.WaitlistTable) error {
	return errors.New("503 service unavailable")
}

// flakyDocument fails the next len(fetchErrs) fetches, then serves its table.
type flakyDocument struct {
	mu        sync.Mutex
	table     entity.WaitlistTable
	fetchErrs []error
	replaces  int
}

func (d *flakyDocument) Fetch(context.Context) (entity.WaitlistTable, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.fetchErrs) > 0 {
		err := d.fetchErrs[0]
		d.fetchErrs = d.fetchErrs[1:]
		return nil, err
	}
	return d.table.Clone(), nil
}

func (d *flakyDocument) Replace(_ context.Context, table entity.WaitlistTable) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.replaces++
	d.table = table.Clone()
	return nil
}

func newTestWaitlistService(store repository.TableStore) *waitlistService {
	svc := NewWaitlistService(store).(*waitlistService)
	svc.now = func() time.Time { return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC) }
	return svc
}

func join(t *testing.T, svc WaitlistService, eventID, name, email string, groupSize int) *entity.JoinResult {
	t.Helper()
	result, err := svc.Join(context.Background(), &JoinWaitlistRequest{
		EventID:       eventID,
		AttendeeName:  name,
		AttendeeEmail: email,
		GroupSize:     groupSize,
	})
	require.NoError(t, err)
	return result
}

func TestWaitlistServiceScenario(t *testing.T) {
	ctx := context.Background()
	svc := newTestWaitlistService(repository.NewMemoryStore())

	assert.Equal(t, &entity.JoinResult{Position: 1, TotalWaiting: 1}, join(t, svc, "evt-1", "Ann", "ann@x.com", 1))
	assert.Equal(t, &entity.JoinResult{Position: 2, TotalWaiting: 2}, join(t, svc, "evt-1", "Bob", "bob@x.com", 2))
	assert.Equal(t, &entity.JoinResult{Position: 1, TotalWaiting: 2}, join(t, svc, "evt-1", "Ann", "ann@x.com", 3))

	left, err := svc.Leave(ctx, "evt-1", "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, &entity.LeaveResult{Success: true, TotalWaiting: 1}, left)

	status, err := svc.Status(ctx, "evt-1", "bob@x.com")
	require.NoError(t, err)
	assert.Equal(t, &entity.WaitlistStatus{IsOnWaitlist: true, Position: 1, TotalWaiting: 1}, status)
}

func TestWaitlistServiceRejoinUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := newTestWaitlistService(store)

	join(t, svc, "evt-1", "Ann", "ann@x.com", 1)
	join(t, svc, "evt-1", "Bob", "bob@x.com", 1)

	later := time.Date(2025, 3, 15, 10, 0, 0, 0, time.FixedZone("MSK", 3*60*60))
	svc.now = func() time.Time { return later }
	result := join(t, svc, "evt-1", "Ann Lee", "ann@x.com", 4)
	assert.Equal(t, 1, result.Position)
	assert.Equal(t, 2, result.TotalWaiting)

	table, err := svc.Dump(ctx)
	require.NoError(t, err)
	require.Len(t, table["evt-1"], 2)
	entry := table["evt-1"][0]
	assert.Equal(t, "Ann Lee", entry.AttendeeName)
	assert.Equal(t, 4, entry.GroupSize)
	assert.Equal(t, later.UTC(), entry.JoinedAt)
	assert.Equal(t, time.UTC, entry.JoinedAt.Location())
}

func TestWaitlistServiceEmailIsCaseSensitive(t *testing.T) {
	svc := newTestWaitlistService(repository.NewMemoryStore())

	join(t, svc, "evt-1", "Ann", "ann@x.com", 1)
	result := join(t, svc, "evt-1", "Ann", "Ann@x.com", 1)

	assert.Equal(t, 2, result.Position)
	assert.Equal(t, 2, result.TotalWaiting)
}

func TestWaitlistServicePositionsFollowInsertionOrder(t *testing.T) {
	ctx := context.Background()
	svc := newTestWaitlistService(repository.NewMemoryStore())

	emails := []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com", "e@x.com"}
	for i, email := range emails {
		result := join(t, svc, "evt-1", email, email, 1)
		assert.Equal(t, i+1, result.Position)
	}

	_, err := svc.Leave(ctx, "evt-1", "b@x.com")
	require.NoError(t, err)

	tests := []struct {
		email    string
		position int
	}{
		{email: "a@x.com", position: 1},
		{email: "c@x.com", position: 2},
		{email: "d@x.com", position: 3},
		{email: "e@x.com", position: 4},
		{email: "b@x.com", position: 0},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			status, err := svc.Status(ctx, "evt-1", tt.email)
			require.NoError(t, err)
			assert.Equal(t, tt.position != 0, status.IsOnWaitlist)
			assert.Equal(t, tt.position, status.Position)
			assert.Equal(t, 4, status.TotalWaiting)
		})
	}
}

func TestWaitlistServiceLeaveAbsentAttendee(t *testing.T) {
	ctx := context.Background()
	spy := &spyStore{inner: repository.NewMemoryStore()}
	svc := newTestWaitlistService(spy)

	join(t, svc, "evt-1", "Ann", "ann@x.com", 1)
	savesBefore := spy.saves

	result, err := svc.Leave(ctx, "evt-1", "bob@x.com")
	require.NoError(t, err)
	assert.Equal(t, &entity.LeaveResult{Success: false, TotalWaiting: 1}, result)

	result, err = svc.Leave(ctx, "evt-unknown", "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, &entity.LeaveResult{Success: false, TotalWaiting: 0}, result)
	assert.Equal(t, savesBefore, spy.saves, "nothing removed, nothing persisted")
}

func TestWaitlistServiceQueuesAreIndependent(t *testing.T) {
	ctx := context.Background()
	svc := newTestWaitlistService(repository.NewMemoryStore())

	join(t, svc, "evt-1", "Ann", "ann@x.com", 1)
	result := join(t, svc, "evt-2", "Ann", "ann@x.com", 1)
	assert.Equal(t, 1, result.Position)

	size, err := svc.Size(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, 1, size)

	size, err = svc.Size(ctx, "evt-404")
	require.NoError(t, err)
	assert.Equal(t, 0, size)

	status, err := svc.Status(ctx, "evt-404", "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, &entity.WaitlistStatus{}, status)
}

func TestWaitlistServiceValidation(t *testing.T) {
	tests := []struct {
		name string
		req  *JoinWaitlistRequest
	}{
		{name: "nil request", req: nil},
		{name: "missing event", req: &JoinWaitlistRequest{AttendeeName: "Ann", AttendeeEmail: "ann@x.com"}},
		{name: "blank name", req: &JoinWaitlistRequest{EventID: "evt-1", AttendeeName: "  ", AttendeeEmail: "ann@x.com"}},
		{name: "missing email", req: &JoinWaitlistRequest{EventID: "evt-1", AttendeeName: "Ann"}},
		{name: "negative group", req: &JoinWaitlistRequest{EventID: "evt-1", AttendeeName: "Ann", AttendeeEmail: "ann@x.com", GroupSize: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &spyStore{inner: repository.NewMemoryStore()}
			svc := newTestWaitlistService(spy)

			_, err := svc.Join(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, entity.ErrInvalidInput)
			assert.Zero(t, spy.loads, "validation happens before any storage access")
			assert.Zero(t, spy.saves)
		})
	}

	t.Run("other operations", func(t *testing.T) {
		ctx := context.Background()
		spy := &spyStore{inner: repository.NewMemoryStore()}
		svc := newTestWaitlistService(spy)

		_, err := svc.Leave(ctx, "evt-1", "")
		assert.ErrorIs(t, err, entity.ErrInvalidInput)
		_, err = svc.Status(ctx, "", "ann@x.com")
		assert.ErrorIs(t, err, entity.ErrInvalidInput)
		_, err = svc.Size(ctx, " ")
		assert.ErrorIs(t, err, entity.ErrInvalidInput)
		assert.Zero(t, spy.loads)
	})
}

func TestWaitlistServiceDefaultsGroupSize(t *testing.T) {
	ctx := context.Background()
	svc := newTestWaitlistService(repository.NewMemoryStore())

	join(t, svc, "evt-1", "Ann", "ann@x.com", 0)

	table, err := svc.Dump(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, table["evt-1"][0].GroupSize)
}

func TestWaitlistServiceStorageFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("reads absorb load errors", func(t *testing.T) {
		svc := newTestWaitlistService(&spyStore{inner: repository.NewMemoryStore(), loadErr: errors.New("disk on fire")})

		status, err := svc.Status(ctx, "evt-1", "ann@x.com")
		require.NoError(t, err)
		assert.False(t, status.IsOnWaitlist)

		table, err := svc.Dump(ctx)
		require.NoError(t, err)
		assert.Empty(t, table)
	})

	t.Run("writes refuse to run on a failed load", func(t *testing.T) {
		spy := &spyStore{inner: repository.NewMemoryStore(), loadErr: errors.New("disk on fire")}
		svc := newTestWaitlistService(spy)

		_, err := svc.Join(ctx, &JoinWaitlistRequest{EventID: "evt-1", AttendeeName: "Ann", AttendeeEmail: "ann@x.com"})
		assert.ErrorIs(t, err, entity.ErrPersistenceUnavailable)
		assert.Zero(t, spy.saves)
	})

	t.Run("failed save is persistence unavailable", func(t *testing.T) {
		svc := newTestWaitlistService(&spyStore{inner: repository.NewMemoryStore(), saveErr: errors.New("read-only file system")})

		_, err := svc.Join(ctx, &JoinWaitlistRequest{EventID: "evt-1", AttendeeName: "Ann", AttendeeEmail: "ann@x.com"})
		assert.ErrorIs(t, err, entity.ErrPersistenceUnavailable)
	})

	t.Run("failing remote backend stays deterministic", func(t *testing.T) {
		store := repository.NewRemoteStore("test", brokenDocument{}, repository.RemoteStoreConfig{})
		svc := newTestWaitlistService(store)

		for i := 0; i < 3; i++ {
			size, err := svc.Size(ctx, "evt-1")
			require.NoError(t, err)
			assert.Equal(t, 0, size)

			status, err := svc.Status(ctx, "evt-1", "ann@x.com")
			require.NoError(t, err)
			assert.Equal(t, &entity.WaitlistStatus{}, status)
		}

		_, err := svc.Join(ctx, &JoinWaitlistRequest{EventID: "evt-1", AttendeeName: "Ann", AttendeeEmail: "ann@x.com"})
		assert.ErrorIs(t, err, entity.ErrPersistenceUnavailable)
	})
}

func TestWaitlistServiceConcurrentJoins(t *testing.T) {
	ctx := context.Background()
	svc := newTestWaitlistService(repository.NewFileStore(t.TempDir() + "/waitlist.json"))

	const attendees = 40
	var wg sync.WaitGroup
	errs := make(chan error, attendees)
	for i := 0; i < attendees; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			eventID := "evt-1"
			if i%2 == 1 {
				eventID = "evt-2"
			}
			email := fmt.Sprintf("user%d@x.com", i)
			_, err := svc.Join(ctx, &JoinWaitlistRequest{EventID: eventID, AttendeeName: email, AttendeeEmail: email})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	for _, eventID := range []string{"evt-1", "evt-2"} {
		size, err := svc.Size(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, attendees/2, size)
	}
}

func TestWaitlistServicePruneEmpty(t *testing.T) {
	ctx := context.Background()
	spy := &spyStore{inner: repository.NewMemoryStore()}
	svc := newTestWaitlistService(spy)

	join(t, svc, "evt-1", "Ann", "ann@x.com", 1)
	join(t, svc, "evt-2", "Bob", "bob@x.com", 1)
	_, err := svc.Leave(ctx, "evt-2", "bob@x.com")
	require.NoError(t, err)

	table, err := svc.Dump(ctx)
	require.NoError(t, err)
	assert.Contains(t, table, "evt-2")

	removed, err := svc.PruneEmpty(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	table, err = svc.Dump(ctx)
	require.NoError(t, err)
	assert.NotContains(t, table, "evt-2")
	assert.Len(t, table["evt-1"], 1)

	saves := spy.saves
	removed, err = svc.PruneEmpty(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Equal(t, saves, spy.saves)
}

func TestWaitlistServiceFlakyRemoteNeverOverwrites(t *testing.T) {
	ctx := context.Background()
	stored := func() entity.WaitlistTable {
		return entity.WaitlistTable{
			"evt-1":     {{EventID: "evt-1", AttendeeName: "Bob", AttendeeEmail: "bob@x.com", GroupSize: 1}},
			"evt-2":     {{EventID: "evt-2", AttendeeName: "Cy", AttendeeEmail: "cy@x.com", GroupSize: 1}},
			"evt-empty": {},
		}
	}

	tests := []struct {
		name     string
		fetchErr error
		mutate   func(svc WaitlistService) error
	}{
		{
			name:     "join after bad gateway",
			fetchErr: errors.New("502 bad gateway"),
			mutate: func(svc WaitlistService) error {
				_, err := svc.Join(ctx, &JoinWaitlistRequest{EventID: "evt-1", AttendeeName: "Ann", AttendeeEmail: "ann@x.com"})
				return err
			},
		},
		{
			name:     "leave after rate limit",
			fetchErr: entity.ErrRateLimited,
			mutate: func(svc WaitlistService) error {
				_, err := svc.Leave(ctx, "evt-1", "bob@x.com")
				return err
			},
		},
		{
			name:     "prune after decode failure",
			fetchErr: entity.ErrUnexpectedBackend,
			mutate: func(svc WaitlistService) error {
				_, err := svc.PruneEmpty(ctx)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &flakyDocument{table: stored(), fetchErrs: []error{tt.fetchErr}}
			svc := newTestWaitlistService(repository.NewRemoteStore("test", doc, repository.RemoteStoreConfig{}))

			err := tt.mutate(svc)
			require.Error(t, err)
			assert.ErrorIs(t, err, entity.ErrPersistenceUnavailable)
			assert.Zero(t, doc.replaces, "nothing is written after a failed read")
			assert.Equal(t, stored(), doc.table)
		})
	}

	t.Run("join succeeds once the backend recovers", func(t *testing.T) {
		doc := &flakyDocument{table: stored(), fetchErrs: []error{errors.New("502 bad gateway")}}
		svc := newTestWaitlistService(repository.NewRemoteStore("test", doc, repository.RemoteStoreConfig{}))

		_, err := svc.Join(ctx, &JoinWaitlistRequest{EventID: "evt-1", AttendeeName: "Ann", AttendeeEmail: "ann@x.com"})
		require.ErrorIs(t, err, entity.ErrPersistenceUnavailable)

		result, err := svc.Join(ctx, &JoinWaitlistRequest{EventID: "evt-1", AttendeeName: "Ann", AttendeeEmail: "ann@x.com"})
		require.NoError(t, err)
		assert.Equal(t, &entity.JoinResult{Position: 2, TotalWaiting: 2}, result)

		require.Equal(t, 1, doc.replaces)
		assert.Len(t, doc.table["evt-1"], 2)
		assert.Equal(t, "bob@x.com", doc.table["evt-1"][0].AttendeeEmail)
		assert.Len(t, doc.table["evt-2"], 1)
	})

	t.Run("prune removes empty queues from the remote document", func(t *testing.T) {
		doc := &flakyDocument{table: stored()}
		svc := newTestWaitlistService(repository.NewRemoteStore("test", doc, repository.RemoteStoreConfig{}))

		removed, err := svc.PruneEmpty(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, removed)
		assert.NotContains(t, doc.table, "evt-empty")
		assert.Len(t, doc.table["evt-2"], 1)
	})
}
