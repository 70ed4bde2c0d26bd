package models

// CreateCollectionArgs is the body of POST /collections.
type CreateCollectionArgs struct {
	RequesterID  string       `json:"requester_id"`
	MaterialType string       `json:"material_type" binding:"required"`
	MaterialName string       `json:"material_name"`
	PhotoURI     string       `json:"photo_uri" binding:"required"`
	Address      string       `json:"address" binding:"required"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
}

// AcceptCollectionArgs is the body of POST /collections/:id/accept.
type AcceptCollectionArgs struct {
	CollectorID   string `json:"collector_id" binding:"required"`
	CollectorName string `json:"collector_name" binding:"required"`
	EstimatedTime string `json:"estimated_time"`
}

// CompleteCollectionArgs is the body of POST /collections/:id/complete.
type CompleteCollectionArgs struct {
	Notes string `json:"notes"`
}

// CancelCollectionArgs is the body of POST /collections/:id/cancel.
type CancelCollectionArgs struct {
	Reason string `json:"reason"`
}

// RateCollectionArgs is the body of POST /collections/:id/rating.
type RateCollectionArgs struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// CollectionsResponse wraps list query results.
type CollectionsResponse struct {
	Collections []CollectionRequest `json:"collections"`
	Count       int                 `json:"count"`
}

// BrowseResponse wraps collector browse results.
type BrowseResponse struct {
	Collections []CollectorView `json:"collections"`
	Count       int             `json:"count"`
}

// NotificationsResponse wraps a user's notification feed.
type NotificationsResponse struct {
	Notifications []CollectionNotification `json:"notifications"`
	Count         int                      `json:"count"`
}
