package billing

import (
	"context"
	"errors"
	"sync"
	"time"

	"subscription-app/internal/domain/plans"
	"subscription-app/internal/domain/subscriptions"
	"subscription-app/internal/domain/users"

	"github.com/stretchr/testify/mock"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CheckoutSession), args.Error(1)
}

func (m *mockProvider) Subscription(ctx context.Context, id string) (*ProviderSubscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ProviderSubscription), args.Error(1)
}

type recordingNotifier struct {
	changes []PlanChange
	err     error
}

func (n *recordingNotifier) NotifyPlanChanged(_ context.Context, change PlanChange) error {
	n.changes = append(n.changes, change)
	return n.err
}

// memoryState is the committed content of memoryRepository.
type memoryState struct {
	users         map[uint]users.User
	subscriptions map[uint]subscriptions.Subscription // keyed by user id
	events        map[string]string
	nextSubID     uint
}

func (s memoryState) clone() memoryState {
	c := memoryState{
		users:         make(map[uint]users.User, len(s.users)),
		subscriptions: make(map[uint]subscriptions.Subscription, len(s.subscriptions)),
		events:        make(map[string]string, len(s.events)),
		nextSubID:     s.nextSubID,
	}
	for k, v := range s.users {
		if v.CustomerID != nil {
			id := *v.CustomerID
			v.CustomerID = &id
		}
		c.users[k] = v
	}
	for k, v := range s.subscriptions {
		c.subscriptions[k] = v
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	return c
}

// memoryRepository applies a transaction to a copy of the state and swaps it in on success.
type memoryRepository struct {
	mu      sync.Mutex
	state   memoryState
	commits int
	writes  int

	failOn string
}

func newMemoryRepository(seed ...users.User) *memoryRepository {
	r := &memoryRepository{state: memoryState{
		users:         map[uint]users.User{},
		subscriptions: map[uint]subscriptions.Subscription{},
		events:        map[string]string{},
		nextSubID:     1,
	}}
	for _, u := range seed {
		if u.Plan == "" {
			u.Plan = plans.Free
		}
		r.state.users[u.ID] = u
	}
	return r
}

func (r *memoryRepository) Processed(_ context.Context, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.state.events[eventID]
	return ok, nil
}

func (r *memoryRepository) WithinTx(_ context.Context, fn func(tx Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &memoryTx{state: r.state.clone(), failOn: r.failOn}
	if err := fn(tx); err != nil {
		return err
	}
	r.state = tx.state
	r.commits++
	r.writes += tx.writes
	return nil
}

func (r *memoryRepository) user(id uint) users.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.users[id]
}

func (r *memoryRepository) subscription(userID uint) (subscriptions.Subscription, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.state.subscriptions[userID]
	return s, ok
}

func (r *memoryRepository) subscriptionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.state.subscriptions)
}

var errInjected = errors.New("injected store failure")

type memoryTx struct {
	state  memoryState
	writes int
	failOn string
}

func (t *memoryTx) fail(op string) error {
	if t.failOn == op {
		return errInjected
	}
	return nil
}

func (t *memoryTx) MarkProcessed(_ context.Context, eventID, eventType string, _ time.Time) (bool, error) {
	if err := t.fail("MarkProcessed"); err != nil {
		return false, err
	}
	if _, ok := t.state.events[eventID]; ok {
		return false, nil
	}
	t.state.events[eventID] = eventType
	return true, nil
}

func (t *memoryTx) UserByEmail(_ context.Context, email string) (*users.User, error) {
	for _, u := range t.state.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (t *memoryTx) UserByCustomerID(_ context.Context, customerID string) (*users.User, error) {
	for _, u := range t.state.users {
		if u.CustomerID != nil && *u.CustomerID == customerID {
			u := u
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (t *memoryTx) SetCustomerID(_ context.Context, userID uint, customerID string) error {
	if err := t.fail("SetCustomerID"); err != nil {
		return err
	}
	u := t.state.users[userID]
	u.CustomerID = &customerID
	t.state.users[userID] = u
	t.writes++
	return nil
}

func (t *memoryTx) UpsertSubscription(_ context.Context, sub *subscriptions.Subscription) error {
	if err := t.fail("UpsertSubscription"); err != nil {
		return err
	}
	existing, ok := t.state.subscriptions[sub.UserID]
	if ok {
		existing.StartDate = sub.StartDate
		existing.EndDate = sub.EndDate
		existing.Plan = sub.Plan
		existing.Period = sub.Period
		t.state.subscriptions[sub.UserID] = existing
	} else {
		created := *sub
		created.ID = t.state.nextSubID
		t.state.nextSubID++
		t.state.subscriptions[sub.UserID] = created
	}
	t.writes++
	return nil
}

func (t *memoryTx) SetPlan(_ context.Context, userID uint, plan plans.Plan) error {
	if err := t.fail("SetPlan"); err != nil {
		return err
	}
	u := t.state.users[userID]
	u.Plan = plan
	t.state.users[userID] = u
	t.writes++
	return nil
}
