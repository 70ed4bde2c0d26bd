package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"collection-service/models"
)

func newTestArgs() models.CreateCollectionArgs {
	return models.CreateCollectionArgs{
		RequesterID:  "u1",
		MaterialType: "plastic",
		PhotoURI:     "file:///photos/bottle.jpg",
		Address:      "Rua X, 10",
		Coordinates:  &models.Coordinates{Latitude: -23.5505, Longitude: -46.6333},
	}
}

func TestCreateCollection(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	req, err := s.Create(ctx, newTestArgs())
	if err != nil {
		t.Fatalf("Create: unexpected error %v", err)
	}

	if req.ID == "" {
		t.Error("Create: expected a non-empty id")
	}
	if req.Status != models.StatusRequested {
		t.Errorf("Create: expected status %s, got %s", models.StatusRequested, req.Status)
	}
	if req.CollectorID != "" {
		t.Errorf("Create: expected no collector, got %s", req.CollectorID)
	}
	if req.MaterialName != "Plastic" {
		t.Errorf("Create: expected catalog material name Plastic, got %s", req.MaterialName)
	}
	if req.UpdatedAt.Before(req.CreatedAt) {
		t.Error("Create: updatedAt precedes createdAt")
	}

	got, err := s.GetByID(req.ID)
	if err != nil {
		t.Fatalf("GetByID: unexpected error %v", err)
	}
	if got.ID != req.ID {
		t.Errorf("GetByID: expected %s, got %s", req.ID, got.ID)
	}
}

func TestCreateCollectionValidation(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	testCases := []struct {
		name   string
		mutate func(*models.CreateCollectionArgs)
	}{
		{"missing requester", func(a *models.CreateCollectionArgs) { a.RequesterID = "" }},
		{"unknown material", func(a *models.CreateCollectionArgs) { a.MaterialType = "wood" }},
		{"missing photo", func(a *models.CreateCollectionArgs) { a.PhotoURI = "" }},
		{"missing address", func(a *models.CreateCollectionArgs) { a.Address = "" }},
	}

	for _, testCase := range testCases {
		args := newTestArgs()
		testCase.mutate(&args)

		_, err := s.Create(ctx, args)
		var validationErr *models.ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("%s: expected validation error, got %v", testCase.name, err)
		}
	}
}

func TestCollectionLifecycle(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	req, err := s.Create(ctx, newTestArgs())
	if err != nil {
		t.Fatalf("Create: unexpected error %v", err)
	}

	// Accept by collector c1.
	assigned, err := s.ApplyTransition(ctx, req.ID, models.Transition{
		Kind:          models.TransitionAssign,
		CollectorID:   "c1",
		CollectorName: "Ana",
		EstimatedTime: "30 minutes",
	})
	if err != nil {
		t.Fatalf("Assign: unexpected error %v", err)
	}
	if assigned.Status != models.StatusInProgress {
		t.Errorf("Assign: expected status %s, got %s", models.StatusInProgress, assigned.Status)
	}
	if assigned.CollectorID != "c1" || assigned.CollectorName != "Ana" {
		t.Errorf("Assign: collector not recorded, got %s/%s", assigned.CollectorID, assigned.CollectorName)
	}
	if assigned.EstimatedTime != "30 minutes" {
		t.Errorf("Assign: expected estimated time, got %q", assigned.EstimatedTime)
	}
	if !assigned.UpdatedAt.After(req.UpdatedAt) {
		t.Error("Assign: updatedAt did not advance")
	}

	// A second collector must be rejected.
	_, err = s.ApplyTransition(ctx, req.ID, models.Transition{
		Kind:          models.TransitionAssign,
		CollectorID:   "c2",
		CollectorName: "Bruno",
	})
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("Second assign: expected ErrInvalidTransition, got %v", err)
	}

	// Same collector retry is a no-op.
	retried, err := s.ApplyTransition(ctx, req.ID, models.Transition{
		Kind:          models.TransitionAssign,
		CollectorID:   "c1",
		CollectorName: "Ana",
	})
	if err != nil {
		t.Fatalf("Retry assign: unexpected error %v", err)
	}
	if !retried.UpdatedAt.Equal(assigned.UpdatedAt) {
		t.Error("Retry assign: no-op must not touch updatedAt")
	}

	// Complete.
	completed, err := s.ApplyTransition(ctx, req.ID, models.Transition{
		Kind:  models.TransitionComplete,
		Notes: "done",
	})
	if err != nil {
		t.Fatalf("Complete: unexpected error %v", err)
	}
	if completed.Status != models.StatusCompleted {
		t.Errorf("Complete: expected status %s, got %s", models.StatusCompleted, completed.Status)
	}
	if completed.Notes != "done" {
		t.Errorf("Complete: expected notes to be recorded, got %q", completed.Notes)
	}
	if !completed.UpdatedAt.After(assigned.UpdatedAt) {
		t.Error("Complete: updatedAt did not advance")
	}

	// No transition leaves a terminal state.
	_, err = s.ApplyTransition(ctx, req.ID, models.Transition{Kind: models.TransitionCancel})
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("Cancel after complete: expected ErrInvalidTransition, got %v", err)
	}
	_, err = s.ApplyTransition(ctx, req.ID, models.Transition{Kind: models.TransitionComplete})
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("Complete after complete: expected ErrInvalidTransition, got %v", err)
	}
}

func TestCancelRequestedCollection(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	req, _ := s.Create(ctx, newTestArgs())
	cancelled, err := s.ApplyTransition(ctx, req.ID, models.Transition{
		Kind:  models.TransitionCancel,
		Notes: "moved away",
	})
	if err != nil {
		t.Fatalf("Cancel: unexpected error %v", err)
	}
	if cancelled.Status != models.StatusCancelled {
		t.Errorf("Cancel: expected status %s, got %s", models.StatusCancelled, cancelled.Status)
	}
	if cancelled.Notes != "moved away" {
		t.Errorf("Cancel: expected reason in notes, got %q", cancelled.Notes)
	}
}

func TestTransitionUnknownID(t *testing.T) {
	s := NewStore(nil)

	_, err := s.ApplyTransition(context.Background(), "no-such-id", models.Transition{
		Kind:          models.TransitionAssign,
		CollectorID:   "c1",
		CollectorName: "Ana",
	})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	_, err = s.GetByID("no-such-id")
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("GetByID: expected ErrNotFound, got %v", err)
	}
}

func TestListIndexes(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	first, _ := s.Create(ctx, newTestArgs())
	second, _ := s.Create(ctx, newTestArgs())

	other := newTestArgs()
	other.RequesterID = "u2"
	other.MaterialType = "glass"
	third, _ := s.Create(ctx, other)

	if _, err := s.ApplyTransition(ctx, second.ID, models.Transition{
		Kind:          models.TransitionAssign,
		CollectorID:   "c1",
		CollectorName: "Ana",
	}); err != nil {
		t.Fatalf("Assign: unexpected error %v", err)
	}

	if got := len(s.ListByRequester("u1")); got != 2 {
		t.Errorf("ListByRequester(u1): expected 2, got %d", got)
	}
	if got := len(s.ListByRequester("u2")); got != 1 {
		t.Errorf("ListByRequester(u2): expected 1, got %d", got)
	}
	if got := len(s.ListByCollector("c1")); got != 1 {
		t.Errorf("ListByCollector(c1): expected 1, got %d", got)
	}

	pending := s.ListPending()
	if len(pending) != 2 {
		t.Fatalf("ListPending: expected 2, got %d", len(pending))
	}
	for _, p := range pending {
		if p.ID != first.ID && p.ID != third.ID {
			t.Errorf("ListPending: unexpected id %s", p.ID)
		}
		// status == requested iff collector unset
		if p.CollectorID != "" {
			t.Errorf("ListPending: request %s has a collector", p.ID)
		}
	}

	if got := len(s.ListByStatus(models.StatusInProgress)); got != 1 {
		t.Errorf("ListByStatus(in_progress): expected 1, got %d", got)
	}
}

func TestListReturnsCopies(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	req, _ := s.Create(ctx, newTestArgs())

	list := s.ListPending()
	list[0].Status = models.StatusCompleted
	list[0].Coordinates.Latitude = 0

	got, _ := s.GetByID(req.ID)
	if got.Status != models.StatusRequested {
		t.Error("mutating a listed copy changed stored status")
	}
	if got.Coordinates.Latitude != -23.5505 {
		t.Error("mutating a listed copy changed stored coordinates")
	}
}

func TestConcurrentAcceptOneWinner(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	const collectors = 8
	for round := 0; round < 50; round++ {
		req, err := s.Create(ctx, newTestArgs())
		if err != nil {
			t.Fatalf("Create: unexpected error %v", err)
		}

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			winners  []string
			rejected int
		)
		for i := 0; i < collectors; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				id := string(rune('a' + n))
				_, err := s.ApplyTransition(ctx, req.ID, models.Transition{
					Kind:          models.TransitionAssign,
					CollectorID:   "collector_" + id,
					CollectorName: "Collector " + id,
				})
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					winners = append(winners, "collector_"+id)
				} else if errors.Is(err, models.ErrInvalidTransition) {
					rejected++
				} else {
					t.Errorf("unexpected error: %v", err)
				}
			}(i)
		}
		wg.Wait()

		if len(winners) != 1 {
			t.Fatalf("round %d: expected exactly 1 winner, got %d", round, len(winners))
		}
		if rejected != collectors-1 {
			t.Fatalf("round %d: expected %d rejections, got %d", round, collectors-1, rejected)
		}

		got, _ := s.GetByID(req.ID)
		if got.CollectorID != winners[0] {
			t.Fatalf("round %d: stored collector %s does not match winner %s", round, got.CollectorID, winners[0])
		}
		if got.Status != models.StatusInProgress {
			t.Fatalf("round %d: expected in_progress, got %s", round, got.Status)
		}
	}
}

type failingPersistence struct {
	saves int
}

func (p *failingPersistence) SaveCollection(ctx context.Context, req *models.CollectionRequest) error {
	p.saves++
	return errors.New("connection refused")
}

func (p *failingPersistence) LoadCollections(ctx context.Context) ([]models.CollectionRequest, error) {
	return nil, nil
}

func TestFailedWriteThroughKeepsRegistryAuthoritative(t *testing.T) {
	persist := &failingPersistence{}
	s := NewStore(persist)
	ctx := context.Background()

	var events []models.CollectionStatus
	s.Subscribe(func(prev models.CollectionStatus, req models.CollectionRequest, tr models.Transition) {
		events = append(events, req.Status)
	})

	req, err := s.Create(ctx, newTestArgs())
	if err != nil {
		t.Fatalf("Create: unexpected error %v", err)
	}
	if _, err := s.GetByID(req.ID); err != nil {
		t.Errorf("created request must stay readable, got %v", err)
	}
	if got := len(s.ListByRequester("u1")); got != 1 {
		t.Errorf("expected exactly 1 request for u1, got %d", got)
	}

	assigned, err := s.ApplyTransition(ctx, req.ID, models.Transition{
		Kind:          models.TransitionAssign,
		CollectorID:   "c1",
		CollectorName: "Ana",
	})
	if err != nil {
		t.Fatalf("Assign: unexpected error %v", err)
	}
	if assigned.Status != models.StatusInProgress {
		t.Errorf("Assign: expected status %s, got %s", models.StatusInProgress, assigned.Status)
	}

	// The committed transition still reaches listeners.
	if len(events) != 1 || events[0] != models.StatusInProgress {
		t.Errorf("listener must fire for a committed transition, got %v", events)
	}

	if persist.saves != 2 {
		t.Errorf("expected 2 write-through attempts, got %d", persist.saves)
	}
}

func TestTransitionListeners(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	var events []models.CollectionStatus
	s.Subscribe(func(prev models.CollectionStatus, req models.CollectionRequest, tr models.Transition) {
		events = append(events, req.Status)
	})

	req, _ := s.Create(ctx, newTestArgs())
	s.ApplyTransition(ctx, req.ID, models.Transition{
		Kind:          models.TransitionAssign,
		CollectorID:   "c1",
		CollectorName: "Ana",
	})
	// No-op retry must not fire listeners.
	s.ApplyTransition(ctx, req.ID, models.Transition{
		Kind:          models.TransitionAssign,
		CollectorID:   "c1",
		CollectorName: "Ana",
	})
	s.ApplyTransition(ctx, req.ID, models.Transition{Kind: models.TransitionComplete})

	want := []models.CollectionStatus{models.StatusInProgress, models.StatusCompleted}
	if len(events) != len(want) {
		t.Fatalf("expected %d listener events, got %d", len(want), len(events))
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], events[i])
		}
	}
}
