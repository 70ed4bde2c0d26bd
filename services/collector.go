package services

import (
	"context"
	"sort"

	"collection-service/geo"
	"collection-service/materials"
	"collection-service/models"
	"collection-service/store"
)

// Browse filters accepted by CollectorService.BrowsePending.
const (
	BrowseFilterAll        = "all"
	BrowseFilterPending    = "pending"
	BrowseFilterInProgress = "in_progress"
)

// CollectorService is the collector-facing query layer on top of the
// store. It never mutates requests directly; accept and complete go
// through the store's transition path.
type CollectorService struct {
	store *store.Store
}

func NewCollectorService(s *store.Store) *CollectorService {
	return &CollectorService{store: s}
}

// BrowsePending returns the requests a collector can see, enriched with
// catalog data, point values and the distance from collectorLocation.
// Results are sorted nearest first when a location is available,
// otherwise oldest first.
func (s *CollectorService) BrowsePending(collectorLocation *models.Coordinates, filter string) []models.CollectorView {
	var reqs []models.CollectionRequest
	switch filter {
	case BrowseFilterInProgress:
		reqs = s.store.ListByStatus(models.StatusInProgress)
	case BrowseFilterAll:
		reqs = append(s.store.ListPending(), s.store.ListByStatus(models.StatusInProgress)...)
	default: // pending
		reqs = s.store.ListPending()
	}

	views := make([]models.CollectorView, 0, len(reqs))
	for i := range reqs {
		views = append(views, toCollectorView(&reqs[i], collectorLocation))
	}

	sort.Slice(views, func(i, j int) bool {
		a, b := &views[i], &views[j]
		if collectorLocation != nil && a.DistanceKm != b.DistanceKm {
			return a.DistanceKm < b.DistanceKm
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return views
}

// Accept assigns the request to the collector.
func (s *CollectorService) Accept(ctx context.Context, requestID string, args models.AcceptCollectionArgs) (models.CollectionRequest, error) {
	return s.store.ApplyTransition(ctx, requestID, models.Transition{
		Kind:          models.TransitionAssign,
		CollectorID:   args.CollectorID,
		CollectorName: args.CollectorName,
		EstimatedTime: args.EstimatedTime,
	})
}

// Complete marks an assigned request as picked up.
func (s *CollectorService) Complete(ctx context.Context, requestID string, notes string) (models.CollectionRequest, error) {
	return s.store.ApplyTransition(ctx, requestID, models.Transition{
		Kind:  models.TransitionComplete,
		Notes: notes,
	})
}

// Cancel moves a non-terminal request to cancelled.
func (s *CollectorService) Cancel(ctx context.Context, requestID string, reason string) (models.CollectionRequest, error) {
	return s.store.ApplyTransition(ctx, requestID, models.Transition{
		Kind:  models.TransitionCancel,
		Notes: reason,
	})
}

func toCollectorView(req *models.CollectionRequest, collectorLocation *models.Coordinates) models.CollectorView {
	m := materials.Lookup(req.MaterialType)
	view := models.CollectorView{
		ID:            req.ID,
		MaterialType:  req.MaterialType,
		MaterialName:  req.MaterialName,
		MaterialColor: m.Color,
		MaterialIcon:  m.Icon,
		Address:       req.Address,
		PhotoURI:      req.PhotoURI,
		Points:        m.Points,
		Status:        req.Status,
		CreatedAt:     req.CreatedAt,
	}
	if req.Coordinates != nil {
		c := *req.Coordinates
		view.Coordinates = &c
		if collectorLocation != nil {
			view.DistanceKm = geo.DistanceKm(*collectorLocation, c)
		}
	}
	return view
}
