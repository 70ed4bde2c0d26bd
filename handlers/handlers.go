package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"collection-service/middleware"
	"collection-service/models"
	"collection-service/services"
	"collection-service/store"
)

// CollectionHandler exposes the collection lifecycle over HTTP.
type CollectionHandler struct {
	store     *store.Store
	collector *services.CollectorService
	notifier  *services.Notifier
	ratings   *services.RatingService
}

func NewCollectionHandler(s *store.Store, collector *services.CollectorService, notifier *services.Notifier, ratings *services.RatingService) *CollectionHandler {
	return &CollectionHandler{
		store:     s,
		collector: collector,
		notifier:  notifier,
		ratings:   ratings,
	}
}

// HealthCheck returns a simple health status.
func (h *CollectionHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "collection-service",
	})
}

// CreateCollection handles POST /collections.
func (h *CollectionHandler) CreateCollection(c *gin.Context) {
	args := &models.CreateCollectionArgs{}
	if err := c.BindJSON(args); err != nil {
		log.Errorf("Failed to get the argument in /collections call: %v", err)
		return
	}

	// The authenticated user owns the request; the body may not claim
	// another requester.
	if userID := middleware.GetUserIDFromContext(c); userID != "" {
		args.RequesterID = userID
	}

	req, err := h.store.Create(c.Request.Context(), *args)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, req)
}

// ListCollections handles GET /collections with requester_id,
// collector_id or status query filters, newest first.
func (h *CollectionHandler) ListCollections(c *gin.Context) {
	var reqs []models.CollectionRequest

	switch {
	case c.Query("requester_id") != "":
		reqs = h.store.ListByRequester(c.Query("requester_id"))
	case c.Query("collector_id") != "":
		reqs = h.store.ListByCollector(c.Query("collector_id"))
	case c.Query("status") != "":
		status := models.CollectionStatus(c.Query("status"))
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return
		}
		reqs = h.store.ListByStatus(status)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "requester_id, collector_id or status parameter is required"})
		return
	}

	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
	})

	c.JSON(http.StatusOK, models.CollectionsResponse{
		Collections: reqs,
		Count:       len(reqs),
	})
}

// GetCollection handles GET /collections/:id.
func (h *CollectionHandler) GetCollection(c *gin.Context) {
	req, err := h.store.GetByID(c.Param("id"))
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// BrowseCollections handles GET /collections/browse for collectors.
// Optional lat/lon give the collector position for distance sorting;
// filter narrows by status subset (all, pending, in_progress).
func (h *CollectionHandler) BrowseCollections(c *gin.Context) {
	var location *models.Coordinates
	latStr, hasLat := c.GetQuery("lat")
	lonStr, hasLon := c.GetQuery("lon")
	if hasLat && hasLon {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "lat must be a valid number"})
			return
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "lon must be a valid number"})
			return
		}
		location = &models.Coordinates{Latitude: lat, Longitude: lon}
	}

	filter := c.DefaultQuery("filter", services.BrowseFilterPending)
	switch filter {
	case services.BrowseFilterAll, services.BrowseFilterPending, services.BrowseFilterInProgress:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "filter must be one of all, pending, in_progress"})
		return
	}

	views := h.collector.BrowsePending(location, filter)
	c.JSON(http.StatusOK, models.BrowseResponse{
		Collections: views,
		Count:       len(views),
	})
}

// AcceptCollection handles POST /collections/:id/accept.
func (h *CollectionHandler) AcceptCollection(c *gin.Context) {
	args := &models.AcceptCollectionArgs{}
	if err := c.BindJSON(args); err != nil {
		log.Errorf("Failed to get the argument in /accept call: %v", err)
		return
	}

	req, err := h.collector.Accept(c.Request.Context(), c.Param("id"), *args)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// CompleteCollection handles POST /collections/:id/complete.
func (h *CollectionHandler) CompleteCollection(c *gin.Context) {
	args := &models.CompleteCollectionArgs{}
	if err := c.BindJSON(args); err != nil {
		log.Errorf("Failed to get the argument in /complete call: %v", err)
		return
	}

	req, err := h.collector.Complete(c.Request.Context(), c.Param("id"), args.Notes)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// CancelCollection handles POST /collections/:id/cancel.
func (h *CollectionHandler) CancelCollection(c *gin.Context) {
	args := &models.CancelCollectionArgs{}
	if err := c.BindJSON(args); err != nil {
		log.Errorf("Failed to get the argument in /cancel call: %v", err)
		return
	}

	req, err := h.collector.Cancel(c.Request.Context(), c.Param("id"), args.Reason)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// RateCollection handles POST /collections/:id/rating.
func (h *CollectionHandler) RateCollection(c *gin.Context) {
	args := &models.RateCollectionArgs{}
	if err := c.BindJSON(args); err != nil {
		log.Errorf("Failed to get the argument in /rating call: %v", err)
		return
	}

	userID := middleware.GetUserIDFromContext(c)
	rating, err := h.ratings.Rate(c.Request.Context(), c.Param("id"), userID, *args)
	if err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rating)
}

// ListNotifications handles GET /notifications for the authenticated
// user.
func (h *CollectionHandler) ListNotifications(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == "" {
		userID = c.Query("user_id")
	}
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id parameter is required"})
		return
	}

	notifications := h.notifier.ListByUser(userID)
	c.JSON(http.StatusOK, models.NotificationsResponse{
		Notifications: notifications,
		Count:         len(notifications),
	})
}

// MarkNotificationRead handles POST /notifications/:id/read.
func (h *CollectionHandler) MarkNotificationRead(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == "" {
		userID = c.Query("user_id")
	}

	if err := h.notifier.MarkRead(c.Request.Context(), c.Param("id"), userID); err != nil {
		abortWithDomainError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// abortWithDomainError maps domain errors to HTTP status codes:
// validation 400, unknown id 404, rejected transition 409.
func abortWithDomainError(c *gin.Context, err error) {
	var validationErr *models.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Errorf("Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
