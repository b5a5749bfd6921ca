package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgconn"

	"github.com/crossbag/backend/internal/db"
	"github.com/crossbag/backend/internal/repository"
)

// In-memory repo fakes with copy-on-read/write semantics, so engine code that
// mutates a fetched struct and forgets to call Update is caught by tests.
// Tx-variant writes are staged on the fake transaction and only applied on
// Commit, so a rolled-back transition leaves no partial state behind.

type fakeDB struct {
	mu        sync.Mutex
	beginErr  error
	commits   int
	rollbacks int
}

func (f *fakeDB) BeginTx(ctx context.Context) (db.Tx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return &fakeTx{db: f}, nil
}

type fakeTx struct {
	db        *fakeDB
	staged    []func()
	committed bool
}

func (t *fakeTx) stage(apply func()) {
	t.staged = append(t.staged, apply)
}

func (t *fakeTx) Commit(ctx context.Context) error {
	for _, apply := range t.staged {
		apply()
	}
	t.committed = true
	t.db.mu.Lock()
	t.db.commits++
	t.db.mu.Unlock()
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.db.mu.Lock()
		t.db.rollbacks++
		t.db.mu.Unlock()
	}
	return nil
}

func (t *fakeTx) Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag(""), nil
}

func (t *fakeTx) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}

func (t *fakeTx) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[string]repository.ShopperRequest
	items    map[string][]*repository.BagItem

	failUpdateFor map[string]error
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{
		requests:      make(map[string]repository.ShopperRequest),
		items:         make(map[string][]*repository.BagItem),
		failUpdateFor: make(map[string]error),
	}
}

func (f *fakeRequestRepo) Create(ctx context.Context, req *repository.ShopperRequest, items []*repository.BagItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[req.ID] = *req
	f.items[req.ID] = items
	return nil
}

func (f *fakeRequestRepo) GetByID(ctx context.Context, id string) (*repository.ShopperRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, repository.ErrObjectNotFound
	}
	cp := req
	return &cp, nil
}

func (f *fakeRequestRepo) GetItems(ctx context.Context, requestID string) ([]*repository.BagItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[requestID], nil
}

func (f *fakeRequestRepo) Update(ctx context.Context, req *repository.ShopperRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failUpdateFor[req.ID]; ok {
		return err
	}
	if _, ok := f.requests[req.ID]; !ok {
		return repository.ErrObjectNotFound
	}
	f.requests[req.ID] = *req
	return nil
}

func (f *fakeRequestRepo) UpdateTx(ctx context.Context, tx db.Tx, req *repository.ShopperRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failUpdateFor[req.ID]; ok {
		return err
	}
	if _, ok := f.requests[req.ID]; !ok {
		return repository.ErrObjectNotFound
	}
	cp := *req
	tx.(*fakeTx).stage(func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.requests[cp.ID] = cp
	})
	return nil
}

func (f *fakeRequestRepo) GetExpiredCooldowns(ctx context.Context, now time.Time) ([]*repository.ShopperRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*repository.ShopperRequest
	for _, req := range f.requests {
		if req.Status == repository.RequestStatusOnHold &&
			!req.CooldownProcessed &&
			req.CooldownEndsAt != nil && !req.CooldownEndsAt.After(now) {
			cp := req
			out = append(out, &cp)
		}
	}
	sortRequests(out)
	return out, nil
}

func (f *fakeRequestRepo) GetMissedPurchaseDeadlines(ctx context.Context, now time.Time) ([]*repository.ShopperRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*repository.ShopperRequest
	for _, req := range f.requests {
		if req.Status == repository.RequestStatusPurchasePending &&
			req.PurchaseDeadline != nil && !req.PurchaseDeadline.After(now) {
			cp := req
			out = append(out, &cp)
		}
	}
	sortRequests(out)
	return out, nil
}

func sortRequests(reqs []*repository.ShopperRequest) {
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].ID < reqs[j].ID })
}

type fakeTripRepo struct {
	mu    sync.Mutex
	trips map[string]repository.Trip

	conflictNextUpdate bool
}

func newFakeTripRepo() *fakeTripRepo {
	return &fakeTripRepo{trips: make(map[string]repository.Trip)}
}

func (f *fakeTripRepo) Create(ctx context.Context, trip *repository.Trip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trips[trip.ID] = *trip
	return nil
}

func (f *fakeTripRepo) GetByID(ctx context.Context, id string) (*repository.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	trip, ok := f.trips[id]
	if !ok {
		return nil, repository.ErrObjectNotFound
	}
	cp := trip
	return &cp, nil
}

func (f *fakeTripRepo) GetByRoute(ctx context.Context, origin, dest string) ([]*repository.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*repository.Trip
	for _, trip := range f.trips {
		if trip.OriginCountry != origin || trip.DestCountry != dest {
			continue
		}
		if trip.Status != repository.TripStatusPending && trip.Status != repository.TripStatusActive {
			continue
		}
		cp := trip
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartureAt.Before(out[j].DepartureAt) })
	return out, nil
}

// UpdateCapacity mimics the conditional version-checked UPDATE.
func (f *fakeTripRepo) UpdateCapacity(ctx context.Context, trip *repository.Trip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.trips[trip.ID]
	if !ok {
		return repository.ErrObjectNotFound
	}
	if f.conflictNextUpdate {
		f.conflictNextUpdate = false
		return repository.ErrVersionConflict
	}
	if stored.Version != trip.Version {
		return repository.ErrVersionConflict
	}
	trip.Version++
	f.trips[trip.ID] = *trip
	return nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	matches map[string]repository.Match

	failUpdateFor map[string]error
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{
		matches:       make(map[string]repository.Match),
		failUpdateFor: make(map[string]error),
	}
}

func (f *fakeMatchRepo) Create(ctx context.Context, m *repository.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matches[m.ID] = *m
	return nil
}

func (f *fakeMatchRepo) GetByID(ctx context.Context, id string) (*repository.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[id]
	if !ok {
		return nil, repository.ErrObjectNotFound
	}
	cp := m
	return &cp, nil
}

func (f *fakeMatchRepo) GetByRequestID(ctx context.Context, requestID string) ([]*repository.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*repository.Match
	for _, m := range f.matches {
		if m.RequestID == requestID {
			cp := m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMatchRepo) GetByTripID(ctx context.Context, tripID string) ([]*repository.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*repository.Match
	for _, m := range f.matches {
		if m.TripID == tripID {
			cp := m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMatchRepo) Update(ctx context.Context, m *repository.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failUpdateFor[m.ID]; ok {
		return err
	}
	if _, ok := f.matches[m.ID]; !ok {
		return repository.ErrObjectNotFound
	}
	f.matches[m.ID] = *m
	return nil
}

func (f *fakeMatchRepo) UpdateTx(ctx context.Context, tx db.Tx, m *repository.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failUpdateFor[m.ID]; ok {
		return err
	}
	if _, ok := f.matches[m.ID]; !ok {
		return repository.ErrObjectNotFound
	}
	cp := *m
	tx.(*fakeTx).stage(func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.matches[cp.ID] = cp
	})
	return nil
}

type fakeRatings struct {
	mu    sync.Mutex
	added map[string][]float64
}

func newFakeRatings() *fakeRatings {
	return &fakeRatings{added: make(map[string][]float64)}
}

func (f *fakeRatings) Add(ctx context.Context, travelerID string, rating float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added[travelerID] = append(f.added[travelerID], rating)
	return nil
}

type fakeReputation struct {
	mu          sync.Mutex
	ratings     map[string]float64
	invalidated []string
	err         error
}

func newFakeReputation() *fakeReputation {
	return &fakeReputation{ratings: make(map[string]float64)}
}

func (f *fakeReputation) TravelerRating(ctx context.Context, travelerID string) (float64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, false, f.err
	}
	rating, ok := f.ratings[travelerID]
	return rating, ok, nil
}

func (f *fakeReputation) Invalidate(ctx context.Context, travelerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, travelerID)
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []repository.NotificationPayload
	err  error
}

func (f *fakeNotifier) Notify(ctx context.Context, tx db.Tx, n repository.NotificationPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	tx.(*fakeTx).stage(func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.sent = append(f.sent, n)
	})
	return nil
}

func (f *fakeNotifier) templates() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, n := range f.sent {
		out = append(out, n.Template)
	}
	return out
}
