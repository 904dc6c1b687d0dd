package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/slotbook/libs/cache"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/clock"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/memstore"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/service"
)

var (
	provider = model.Identity{ID: "provider-1", Role: model.RoleProvider}
	other    = model.Identity{ID: "provider-2", Role: model.RoleProvider}
	clientC  = model.Identity{ID: "client-c", Role: model.RoleClient}
	clientD  = model.Identity{ID: "client-d", Role: model.RoleClient}

	day = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []model.ReservationCreated
	err    error
}

func (n *recordingNotifier) ReservationCreated(_ context.Context, evt model.ReservationCreated) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, evt)
	return n.err
}

type fixture struct {
	clock    *clock.Manual
	slots    *service.SlotService
	bookings *service.BookingService
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	c := cache.NewMemory()
	clk := clock.NewManual(day.Add(-24 * time.Hour))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	n := &recordingNotifier{}
	return &fixture{
		clock:    clk,
		slots:    service.NewSlotService(store, c, clk, logger, 5*time.Minute),
		bookings: service.NewBookingService(store, c, n, clk, logger),
		notifier: n,
	}
}

func hour(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func TestPublishOverlapAndAdjacency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.slots.Publish(ctx, provider, hour(9, 0), hour(10, 0))
	require.NoError(t, err)

	_, err = f.slots.Publish(ctx, provider, hour(9, 30), hour(11, 0))
	assert.ErrorIs(t, err, model.ErrOverlap)

	_, err = f.slots.Publish(ctx, provider, hour(10, 0), hour(11, 0))
	assert.NoError(t, err)

	// another provider's calendar is independent
	_, err = f.slots.Publish(ctx, other, hour(9, 30), hour(11, 0))
	assert.NoError(t, err)
}

func TestPublishValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.slots.Publish(ctx, provider, hour(10, 0), hour(10, 0))
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = f.slots.Publish(ctx, provider, hour(11, 0), hour(10, 0))
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = f.slots.Publish(ctx, provider, f.clock.Now(), hour(10, 0))
	assert.ErrorIs(t, err, model.ErrValidation, "start equal to now is not future")

	_, err = f.slots.Publish(ctx, clientC, hour(9, 0), hour(10, 0))
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestBookScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w, err := f.slots.Publish(ctx, provider, hour(9, 0), hour(10, 0))
	require.NoError(t, err)

	d, err := f.bookings.Book(ctx, clientC, w.ID)
	require.NoError(t, err)
	assert.Equal(t, clientC.ID, d.Reservation.ClientID)
	assert.Equal(t, w.ID, d.Reservation.WindowID)
	assert.Equal(t, provider.ID, d.Window.ProviderID)

	_, err = f.bookings.Book(ctx, clientC, w.ID)
	assert.ErrorIs(t, err, model.ErrDuplicateClientBooking)

	_, err = f.bookings.Book(ctx, clientD, w.ID)
	assert.ErrorIs(t, err, model.ErrAlreadyReserved)

	_, err = f.bookings.Book(ctx, clientC, "no-such-window")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.bookings.Book(ctx, provider, w.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)

	require.Len(t, f.notifier.events, 1)
	evt := f.notifier.events[0]
	assert.Equal(t, d.Reservation.ID, evt.ReservationID)
	assert.Equal(t, provider.ID, evt.ProviderID)
	assert.True(t, evt.Start.Equal(hour(9, 0)))
}

func TestNotifierFailureDoesNotUndoBooking(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("broker down")
	ctx := context.Background()
	w, err := f.slots.Publish(ctx, provider, hour(9, 0), hour(10, 0))
	require.NoError(t, err)

	_, err = f.bookings.Book(ctx, clientC, w.ID)
	require.NoError(t, err)

	detail, err := f.slots.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.False(t, detail.IsAvailable())
}

func TestConcurrentBookingsHaveExactlyOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w, err := f.slots.Publish(ctx, provider, hour(9, 0), hour(10, 0))
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := model.Identity{ID: fmt.Sprintf("client-%d", i), Role: model.RoleClient}
			_, errs[i] = f.bookings.Book(ctx, actor, w.ID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, model.ErrAlreadyReserved)
	}
	assert.Equal(t, 1, wins)
}

func TestConcurrentOverlappingPublishes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := hour(9, i)
			_, errs[i] = f.slots.Publish(ctx, provider, start, start.Add(time.Hour))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, model.ErrOverlap)
	}
	assert.Equal(t, 1, wins)
}

func TestRescheduleAndRetire(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w, err := f.slots.Publish(ctx, provider, hour(9, 0), hour(10, 0))
	require.NoError(t, err)
	neighbour, err := f.slots.Publish(ctx, provider, hour(11, 0), hour(12, 0))
	require.NoError(t, err)

	// overlapping only itself is fine
	moved, err := f.slots.Reschedule(ctx, provider, w.ID, hour(9, 30), hour(10, 30))
	require.NoError(t, err)
	assert.True(t, moved.Start.Equal(hour(9, 30)))

	_, err = f.slots.Reschedule(ctx, provider, w.ID, hour(10, 30), hour(11, 30))
	assert.ErrorIs(t, err, model.ErrOverlap)

	_, err = f.slots.Reschedule(ctx, provider, w.ID, hour(13, 0), hour(12, 0))
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = f.slots.Reschedule(ctx, other, w.ID, hour(14, 0), hour(15, 0))
	assert.ErrorIs(t, err, model.ErrForbidden)

	moved, err = f.slots.Reschedule(ctx, provider, w.ID, hour(9, 0), hour(10, 0))
	require.NoError(t, err)
	assert.True(t, moved.End.Equal(hour(10, 0)))

	_, err = f.bookings.Book(ctx, clientC, neighbour.ID)
	require.NoError(t, err)
	_, err = f.slots.Reschedule(ctx, provider, neighbour.ID, hour(14, 0), hour(15, 0))
	assert.ErrorIs(t, err, model.ErrConflict)
	assert.ErrorIs(t, f.slots.Retire(ctx, provider, neighbour.ID), model.ErrConflict)

	assert.ErrorIs(t, f.slots.Retire(ctx, other, w.ID), model.ErrForbidden)
	require.NoError(t, f.slots.Retire(ctx, provider, w.ID))
	assert.ErrorIs(t, f.slots.Retire(ctx, provider, w.ID), model.ErrNotFound)
}

func TestPastWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w, err := f.slots.Publish(ctx, provider, hour(9, 0), hour(10, 0))
	require.NoError(t, err)
	booked, err := f.slots.Publish(ctx, provider, hour(12, 0), hour(13, 0))
	require.NoError(t, err)
	d, err := f.bookings.Book(ctx, clientC, booked.ID)
	require.NoError(t, err)

	f.clock.Set(hour(12, 30))

	_, err = f.bookings.Book(ctx, clientD, w.ID)
	assert.ErrorIs(t, err, model.ErrPastWindow)

	assert.ErrorIs(t, f.bookings.Cancel(ctx, clientC, d.Reservation.ID), model.ErrPastWindow)

	// provider-side mutation of a past unreserved window is allowed
	_, err = f.slots.Reschedule(ctx, provider, w.ID, hour(15, 0), hour(16, 0))
	require.NoError(t, err)
	require.NoError(t, f.slots.Retire(ctx, provider, w.ID))
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w, err := f.slots.Publish(ctx, provider, hour(9, 0), hour(10, 0))
	require.NoError(t, err)
	d, err := f.bookings.Book(ctx, clientC, w.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.bookings.Cancel(ctx, clientD, d.Reservation.ID), model.ErrForbidden)
	assert.ErrorIs(t, f.bookings.Cancel(ctx, provider, d.Reservation.ID), model.ErrForbidden)
	require.NoError(t, f.bookings.Cancel(ctx, clientC, d.Reservation.ID))
	assert.ErrorIs(t, f.bookings.Cancel(ctx, clientC, d.Reservation.ID), model.ErrNotFound)

	_, err = f.bookings.Book(ctx, clientD, w.ID)
	assert.NoError(t, err)
}

func TestListAvailableTracksWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	late, err := f.slots.Publish(ctx, provider, hour(14, 0), hour(15, 0))
	require.NoError(t, err)
	early, err := f.slots.Publish(ctx, provider, hour(9, 0), hour(10, 0))
	require.NoError(t, err)

	avail, err := f.slots.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, avail, 2)
	assert.Equal(t, early.ID, avail[0].ID)
	assert.Equal(t, late.ID, avail[1].ID)

	d, err := f.bookings.Book(ctx, clientC, late.ID)
	require.NoError(t, err)
	avail, err = f.slots.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, early.ID, avail[0].ID)

	require.NoError(t, f.bookings.Cancel(ctx, clientC, d.Reservation.ID))
	avail, err = f.slots.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Len(t, avail, 2)

	// a cached entry whose start has passed is not served
	f.clock.Set(hour(9, 30))
	avail, err = f.slots.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, late.ID, avail[0].ID)
}

func TestReservationQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w1, err := f.slots.Publish(ctx, provider, hour(9, 0), hour(10, 0))
	require.NoError(t, err)
	w2, err := f.slots.Publish(ctx, other, hour(11, 0), hour(12, 0))
	require.NoError(t, err)

	first, err := f.bookings.Book(ctx, clientC, w1.ID)
	require.NoError(t, err)
	second, err := f.bookings.Book(ctx, clientC, w2.ID)
	require.NoError(t, err)

	mine, err := f.bookings.ListForClient(ctx, clientC)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.Reservation.ID, mine[0].Reservation.ID)

	f.clock.Set(hour(10, 0))
	future, err := f.bookings.ListFutureForClient(ctx, clientC)
	require.NoError(t, err)
	require.Len(t, future, 1)
	assert.Equal(t, second.Reservation.ID, future[0].Reservation.ID)

	forProvider, err := f.bookings.ListForProvider(ctx, provider)
	require.NoError(t, err)
	require.Len(t, forProvider, 1)
	assert.Equal(t, first.Reservation.ID, forProvider[0].Reservation.ID)

	_, err = f.bookings.ListForProvider(ctx, clientC)
	assert.ErrorIs(t, err, model.ErrForbidden)
	_, err = f.bookings.ListForClient(ctx, provider)
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = f.bookings.Get(ctx, clientC, first.Reservation.ID)
	assert.NoError(t, err)
	_, err = f.bookings.Get(ctx, provider, first.Reservation.ID)
	assert.NoError(t, err)
	_, err = f.bookings.Get(ctx, other, first.Reservation.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)
	_, err = f.bookings.Get(ctx, clientD, first.Reservation.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)

	own, err := f.slots.ListOwn(ctx, provider)
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.NotNil(t, own[0].Reservation)
	assert.Equal(t, clientC.ID, own[0].Reservation.ClientID)
}

// pausingStore holds ListAvailable after it has read the store until the
// test releases it.
type pausingStore struct {
	*memstore.Store
	read    chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *pausingStore) ListAvailable(ctx context.Context, now time.Time) ([]model.TimeWindow, error) {
	out, err := p.Store.ListAvailable(ctx, now)
	p.once.Do(func() {
		close(p.read)
		<-p.release
	})
	return out, err
}

func TestListAvailableFillOverlappingBookIsNotCached(t *testing.T) {
	ctx := context.Background()
	store := &pausingStore{Store: memstore.New(), read: make(chan struct{}), release: make(chan struct{})}
	c := cache.NewMemory()
	clk := clock.NewManual(day.Add(-24 * time.Hour))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	slots := service.NewSlotService(store, c, clk, logger, 5*time.Minute)
	bookings := service.NewBookingService(store, c, &recordingNotifier{}, clk, logger)

	w, err := slots.Publish(ctx, provider, hour(9, 0), hour(10, 0))
	require.NoError(t, err)

	type result struct {
		windows []model.TimeWindow
		err     error
	}
	first := make(chan result, 1)
	go func() {
		ws, err := slots.ListAvailable(ctx)
		first <- result{ws, err}
	}()

	<-store.read
	_, err = bookings.Book(ctx, clientC, w.ID)
	require.NoError(t, err)
	close(store.release)

	r := <-first
	require.NoError(t, r.err)
	assert.Len(t, r.windows, 1, "the overlapping read saw the store before the booking")

	avail, err := slots.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Empty(t, avail)
}
