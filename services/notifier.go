package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"collection-service/models"
)

// NotificationPersistence is the durable backend for the notification
// feed. May be nil.
type NotificationPersistence interface {
	SaveNotification(ctx context.Context, n *models.CollectionNotification) error
	LoadNotifications(ctx context.Context) ([]models.CollectionNotification, error)
}

// Notifier records a per-user notification for every collection
// transition and pushes live updates over the websocket hub. This is the
// hook point where an external push-notification dispatcher would plug
// in.
type Notifier struct {
	mu      sync.RWMutex
	byID    map[string]*models.CollectionNotification
	byUser  map[string][]*models.CollectionNotification
	persist NotificationPersistence
	hub     *WebSocketHub
}

func NewNotifier(persist NotificationPersistence, hub *WebSocketHub) *Notifier {
	return &Notifier{
		byID:    make(map[string]*models.CollectionNotification),
		byUser:  make(map[string][]*models.CollectionNotification),
		persist: persist,
		hub:     hub,
	}
}

// Load restores the notification feed from persistence.
func (n *Notifier) Load(ctx context.Context) error {
	if n.persist == nil {
		return nil
	}
	items, err := n.persist.LoadNotifications(ctx)
	if err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	for i := range items {
		item := items[i]
		n.byID[item.ID] = &item
		n.byUser[item.UserID] = append(n.byUser[item.UserID], &item)
	}
	log.Infof("Loaded %d collection notifications from database", len(items))
	return nil
}

// OnTransition is subscribed to the store; it records the requester's
// notification and broadcasts the updated request.
func (n *Notifier) OnTransition(prev models.CollectionStatus, req models.CollectionRequest, tr models.Transition) {
	var (
		typ     models.NotificationType
		title   string
		message string
	)
	switch req.Status {
	case models.StatusInProgress:
		typ = models.NotificationCollectorAssigned
		title = "Collector on the way"
		message = fmt.Sprintf("%s accepted your %s collection", req.CollectorName, req.MaterialName)
		if req.EstimatedTime != "" {
			message += fmt.Sprintf(" (ETA %s)", req.EstimatedTime)
		}
	case models.StatusCompleted:
		typ = models.NotificationCollectionCompleted
		title = "Collection completed"
		message = fmt.Sprintf("Your %s collection was picked up", req.MaterialName)
	default:
		typ = models.NotificationStatusUpdate
		title = "Collection update"
		message = fmt.Sprintf("Your %s collection is now %s", req.MaterialName, req.Status)
	}

	notification := models.CollectionNotification{
		ID:           uuid.NewString(),
		CollectionID: req.ID,
		UserID:       req.RequesterID,
		Type:         typ,
		Title:        title,
		Message:      message,
		CreatedAt:    time.Now(),
	}

	n.mu.Lock()
	n.byID[notification.ID] = &notification
	n.byUser[notification.UserID] = append(n.byUser[notification.UserID], &notification)
	n.mu.Unlock()

	if n.persist != nil {
		if err := n.persist.SaveNotification(context.Background(), &notification); err != nil {
			log.Errorf("Failed to persist notification for collection %s: %v", req.ID, err)
		}
	}

	if n.hub != nil {
		n.hub.BroadcastStatusUpdate(req)
	}
}

// ListByUser returns copies of the user's notifications, newest first.
func (n *Notifier) ListByUser(userID string) []models.CollectionNotification {
	n.mu.RLock()
	defer n.mu.RUnlock()
	items := n.byUser[userID]
	out := make([]models.CollectionNotification, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		out = append(out, *items[i])
	}
	return out
}

// MarkRead marks one notification as read. The caller must own it.
func (n *Notifier) MarkRead(ctx context.Context, id, userID string) error {
	n.mu.Lock()
	notification, ok := n.byID[id]
	if !ok || notification.UserID != userID {
		n.mu.Unlock()
		return models.ErrNotFound
	}
	notification.IsRead = true
	saved := *notification
	n.mu.Unlock()

	if n.persist != nil {
		if err := n.persist.SaveNotification(ctx, &saved); err != nil {
			log.Errorf("Failed to persist notification %s: %v", saved.ID, err)
		}
	}
	return nil
}
