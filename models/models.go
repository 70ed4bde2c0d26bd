package models

import (
	"time"
)

// CollectionStatus is the lifecycle state of a collection request.
type CollectionStatus string

const (
	StatusRequested  CollectionStatus = "requested"
	StatusInProgress CollectionStatus = "in_progress"
	StatusCompleted  CollectionStatus = "completed"
	StatusCancelled  CollectionStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s CollectionStatus) Valid() bool {
	switch s {
	case StatusRequested, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s CollectionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CollectionRequest is one batch of recyclable material awaiting pickup.
// The store is the only writer; everything else gets copies.
type CollectionRequest struct {
	ID            string           `json:"id"`
	RequesterID   string           `json:"requester_id"`
	MaterialType  string           `json:"material_type"`
	MaterialName  string           `json:"material_name"`
	PhotoURI      string           `json:"photo_uri"`
	Address       string           `json:"address"`
	Coordinates   *Coordinates     `json:"coordinates,omitempty"`
	Status        CollectionStatus `json:"status"`
	CollectorID   string           `json:"collector_id,omitempty"`
	CollectorName string           `json:"collector_name,omitempty"`
	EstimatedTime string           `json:"estimated_time,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// TransitionKind names a state machine operation.
type TransitionKind string

const (
	TransitionAssign   TransitionKind = "assign"
	TransitionComplete TransitionKind = "complete"
	TransitionCancel   TransitionKind = "cancel"
)

// Transition is a proposed state machine operation against one request.
type Transition struct {
	Kind          TransitionKind
	CollectorID   string // assign only
	CollectorName string // assign only
	EstimatedTime string // assign only, optional
	Notes         string // complete notes or cancel reason, optional
}

// CollectorView is the collector-facing projection of a pending request,
// enriched with catalog and distance data.
type CollectorView struct {
	ID            string           `json:"id"`
	MaterialType  string           `json:"material_type"`
	MaterialName  string           `json:"material_name"`
	MaterialColor string           `json:"material_color"`
	MaterialIcon  string           `json:"material_icon"`
	Address       string           `json:"address"`
	PhotoURI      string           `json:"photo_uri"`
	DistanceKm    float64          `json:"distance_km"`
	Points        int              `json:"points"`
	Status        CollectionStatus `json:"status"`
	Coordinates   *Coordinates     `json:"coordinates,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// NotificationType classifies a collection notification.
type NotificationType string

const (
	NotificationStatusUpdate        NotificationType = "status_update"
	NotificationCollectorAssigned   NotificationType = "collector_assigned"
	NotificationCollectionCompleted NotificationType = "collection_completed"
)

// CollectionNotification is a per-user feed entry recorded on every transition.
type CollectionNotification struct {
	ID           string           `json:"id"`
	CollectionID string           `json:"collection_id"`
	UserID       string           `json:"user_id"`
	Type         NotificationType `json:"type"`
	Title        string           `json:"title"`
	Message      string           `json:"message"`
	IsRead       bool             `json:"is_read"`
	CreatedAt    time.Time        `json:"created_at"`
}

// CollectionRating is the requester's post-completion rating of a pickup.
type CollectionRating struct {
	CollectionID string    `json:"collection_id"`
	UserID       string    `json:"user_id"`
	CollectorID  string    `json:"collector_id"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CompletedEvent is published for the ranking/points accumulator when a
// collection reaches the completed status.
type CompletedEvent struct {
	CollectionID string    `json:"collection_id"`
	RequesterID  string    `json:"requester_id"`
	CollectorID  string    `json:"collector_id"`
	MaterialType string    `json:"material_type"`
	Points       int       `json:"points"`
	CompletedAt  time.Time `json:"completed_at"`
}
