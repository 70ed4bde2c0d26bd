package services

import (
	"context"
	"sync"
	"time"

	"github.com/apex/log"

	"collection-service/models"
	"collection-service/store"
)

// RatingPersistence is the durable backend for ratings. May be nil.
type RatingPersistence interface {
	SaveRating(ctx context.Context, r *models.CollectionRating) error
	LoadRatings(ctx context.Context) ([]models.CollectionRating, error)
}

// RatingService records the requester's post-completion rating of a
// pickup, at most one per collection.
type RatingService struct {
	mu           sync.RWMutex
	byCollection map[string]*models.CollectionRating
	store        *store.Store
	persist      RatingPersistence
}

func NewRatingService(s *store.Store, persist RatingPersistence) *RatingService {
	return &RatingService{
		byCollection: make(map[string]*models.CollectionRating),
		store:        s,
		persist:      persist,
	}
}

// Load restores recorded ratings from persistence.
func (s *RatingService) Load(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	ratings, err := s.persist.LoadRatings(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range ratings {
		r := ratings[i]
		s.byCollection[r.CollectionID] = &r
	}
	log.Infof("Loaded %d collection ratings from database", len(ratings))
	return nil
}

// Rate records userID's rating of a completed collection. The collection
// must exist, be completed, belong to the user and not be rated yet.
func (s *RatingService) Rate(ctx context.Context, collectionID, userID string, args models.RateCollectionArgs) (models.CollectionRating, error) {
	if args.Rating < 1 || args.Rating > 5 {
		return models.CollectionRating{}, models.NewValidationError("rating", "must be between 1 and 5")
	}

	req, err := s.store.GetByID(collectionID)
	if err != nil {
		return models.CollectionRating{}, err
	}
	if req.RequesterID != userID {
		return models.CollectionRating{}, models.ErrNotFound
	}
	if req.Status != models.StatusCompleted {
		return models.CollectionRating{}, models.NewValidationError("status", "collection is not completed")
	}

	rating := models.CollectionRating{
		CollectionID: collectionID,
		UserID:       userID,
		CollectorID:  req.CollectorID,
		Rating:       args.Rating,
		Comment:      args.Comment,
		CreatedAt:    time.Now(),
	}

	s.mu.Lock()
	if _, exists := s.byCollection[collectionID]; exists {
		s.mu.Unlock()
		return models.CollectionRating{}, models.NewValidationError("collection_id", "collection already rated")
	}
	s.byCollection[collectionID] = &rating
	s.mu.Unlock()

	// The in-memory record is authoritative; a failed write-through is
	// logged, not surfaced as a caller error.
	if s.persist != nil {
		if err := s.persist.SaveRating(ctx, &rating); err != nil {
			log.Errorf("Failed to persist rating for collection %s: %v", collectionID, err)
		}
	}

	log.Infof("Recorded rating %d for collection %s", rating.Rating, collectionID)
	return rating, nil
}

// Get returns the rating for one collection, if any.
func (s *RatingService) Get(collectionID string) (models.CollectionRating, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byCollection[collectionID]
	if !ok {
		return models.CollectionRating{}, false
	}
	return *r, true
}
