// Package store is the authoritative in-memory registry of collection
// requests. It is the sole writer of request state; all other components
// read copies or request mutations through ApplyTransition.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"collection-service/materials"
	"collection-service/models"
)

// Persistence is the optional durable backend behind the store. Every
// successful create or transition is written through; Load restores the
// full registry at startup. Terminal requests are retained for audit.
type Persistence interface {
	SaveCollection(ctx context.Context, req *models.CollectionRequest) error
	LoadCollections(ctx context.Context) ([]models.CollectionRequest, error)
}

// TransitionListener observes successful transitions. Listeners run
// synchronously after the mutation is committed; they receive a copy.
type TransitionListener func(prev models.CollectionStatus, req models.CollectionRequest, tr models.Transition)

// Store holds all collection requests, indexed by id, requester,
// collector and status. A single mutex serializes transitions so that
// two concurrent assigns on the same request cannot both win.
type Store struct {
	mu          sync.RWMutex
	byID        map[string]*models.CollectionRequest
	byRequester map[string]map[string]struct{}
	byCollector map[string]map[string]struct{}
	byStatus    map[models.CollectionStatus]map[string]struct{}

	persist   Persistence
	listeners []TransitionListener

	now   func() time.Time
	newID func() string
}

// NewStore creates an empty store. persist may be nil for a purely
// in-memory registry.
func NewStore(persist Persistence) *Store {
	return &Store{
		byID:        make(map[string]*models.CollectionRequest),
		byRequester: make(map[string]map[string]struct{}),
		byCollector: make(map[string]map[string]struct{}),
		byStatus:    make(map[models.CollectionStatus]map[string]struct{}),
		persist:     persist,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Subscribe registers a listener for successful transitions. Not safe to
// call after the store started serving requests.
func (s *Store) Subscribe(l TransitionListener) {
	s.listeners = append(s.listeners, l)
}

// Load restores the registry from the persistence backend.
func (s *Store) Load(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	reqs, err := s.persist.LoadCollections(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range reqs {
		r := reqs[i]
		s.byID[r.ID] = &r
		s.index(&r)
	}
	log.Infof("Loaded %d collection requests from database", len(reqs))
	return nil
}

// Create registers a new collection request with status requested.
func (s *Store) Create(ctx context.Context, args models.CreateCollectionArgs) (models.CollectionRequest, error) {
	if args.RequesterID == "" {
		return models.CollectionRequest{}, models.NewValidationError("requester_id", "must not be empty")
	}
	if !materials.Known(args.MaterialType) {
		return models.CollectionRequest{}, models.NewValidationError("material_type", "unknown material type")
	}
	if args.PhotoURI == "" {
		return models.CollectionRequest{}, models.NewValidationError("photo_uri", "must not be empty")
	}
	if args.Address == "" {
		return models.CollectionRequest{}, models.NewValidationError("address", "must not be empty")
	}

	name := args.MaterialName
	if name == "" {
		name = materials.Lookup(args.MaterialType).Name
	}

	now := s.now()
	req := models.CollectionRequest{
		ID:           s.newID(),
		RequesterID:  args.RequesterID,
		MaterialType: args.MaterialType,
		MaterialName: name,
		PhotoURI:     args.PhotoURI,
		Address:      args.Address,
		Status:       models.StatusRequested,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if args.Coordinates != nil {
		c := *args.Coordinates
		req.Coordinates = &c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[req.ID] = &req
	s.index(&req)
	s.save(ctx, &req)

	log.Infof("Created collection request %s (%s) for requester %s", req.ID, req.MaterialType, req.RequesterID)
	return copyOf(&req), nil
}

// GetByID returns a copy of one request.
func (s *Store) GetByID(id string) (models.CollectionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.byID[id]
	if !ok {
		return models.CollectionRequest{}, models.ErrNotFound
	}
	return copyOf(req), nil
}

// ListByRequester returns copies of all requests created by requesterID,
// in no particular order.
func (s *Store) ListByRequester(requesterID string) []models.CollectionRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byRequester[requesterID])
}

// ListByCollector returns copies of all requests assigned to collectorID.
func (s *Store) ListByCollector(collectorID string) []models.CollectionRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byCollector[collectorID])
}

// ListByStatus returns copies of all requests with the given status.
func (s *Store) ListByStatus(status models.CollectionStatus) []models.CollectionRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byStatus[status])
}

// ListPending returns the pool collectors browse.
func (s *Store) ListPending() []models.CollectionRequest {
	return s.ListByStatus(models.StatusRequested)
}

// ApplyTransition validates and applies one state machine operation,
// returning the updated request. The status check and the mutation
// happen under the same lock, so for two racing assigns exactly one
// caller wins and the other gets ErrInvalidTransition.
func (s *Store) ApplyTransition(ctx context.Context, id string, tr models.Transition) (models.CollectionRequest, error) {
	s.mu.Lock()
	req, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return models.CollectionRequest{}, models.ErrNotFound
	}

	res, err := ValidateTransition(*req, tr)
	if err != nil {
		s.mu.Unlock()
		return models.CollectionRequest{}, err
	}
	if res.NoOp {
		out := copyOf(req)
		s.mu.Unlock()
		return out, nil
	}

	prev := req.Status
	s.unindexStatus(req)
	req.Status = res.Status
	if tr.Kind == models.TransitionAssign {
		req.CollectorID = tr.CollectorID
		req.CollectorName = tr.CollectorName
		s.indexCollector(req)
	}
	// Descriptive metadata may ride along on any transition.
	if tr.EstimatedTime != "" {
		req.EstimatedTime = tr.EstimatedTime
	}
	if tr.Notes != "" {
		req.Notes = tr.Notes
	}
	req.UpdatedAt = s.tick(req.UpdatedAt)
	s.indexStatus(req)
	s.save(ctx, req)

	out := copyOf(req)
	s.mu.Unlock()

	log.Infof("Collection %s: %s -> %s (%s)", out.ID, prev, out.Status, tr.Kind)
	for _, l := range s.listeners {
		l(prev, out, tr)
	}
	return out, nil
}

// tick produces an updatedAt strictly after the previous one even when
// the wall clock has not advanced between transitions.
func (s *Store) tick(previous time.Time) time.Time {
	ts := s.now()
	if !ts.After(previous) {
		ts = previous.Add(time.Nanosecond)
	}
	return ts
}

// save writes the mutation through to the durable backend. The registry
// is authoritative, so a failed write is logged and never undoes a
// committed mutation; the backend catches up on the next write.
func (s *Store) save(ctx context.Context, req *models.CollectionRequest) {
	if s.persist == nil {
		return
	}
	if err := s.persist.SaveCollection(ctx, req); err != nil {
		log.Errorf("Failed to persist collection %s: %v", req.ID, err)
	}
}

func (s *Store) collect(ids map[string]struct{}) []models.CollectionRequest {
	out := make([]models.CollectionRequest, 0, len(ids))
	for id := range ids {
		out = append(out, copyOf(s.byID[id]))
	}
	return out
}

func (s *Store) index(req *models.CollectionRequest) {
	addIndex(s.byRequester, req.RequesterID, req.ID)
	s.indexStatus(req)
	s.indexCollector(req)
}

func (s *Store) indexStatus(req *models.CollectionRequest) {
	addIndex(s.byStatus, req.Status, req.ID)
}

func (s *Store) unindexStatus(req *models.CollectionRequest) {
	if ids, ok := s.byStatus[req.Status]; ok {
		delete(ids, req.ID)
	}
}

func (s *Store) indexCollector(req *models.CollectionRequest) {
	if req.CollectorID != "" {
		addIndex(s.byCollector, req.CollectorID, req.ID)
	}
}

func addIndex[K comparable](m map[K]map[string]struct{}, key K, id string) {
	ids, ok := m[key]
	if !ok {
		ids = make(map[string]struct{})
		m[key] = ids
	}
	ids[id] = struct{}{}
}

func copyOf(req *models.CollectionRequest) models.CollectionRequest {
	out := *req
	if req.Coordinates != nil {
		c := *req.Coordinates
		out.Coordinates = &c
	}
	return out
}
