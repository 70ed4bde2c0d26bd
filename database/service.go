// Package database persists collection requests, notifications and
// ratings in MySQL. The in-memory store stays authoritative at runtime;
// this layer writes every mutation through and restores state at boot.
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"

	"collection-service/models"
)

type CollectionDB struct {
	db *sql.DB
}

func NewCollectionDB(db *sql.DB) *CollectionDB {
	return &CollectionDB{db: db}
}

// SaveCollection inserts or overwrites one collection request row.
func (s *CollectionDB) SaveCollection(ctx context.Context, req *models.CollectionRequest) error {
	var lat, lon sql.NullFloat64
	if req.Coordinates != nil {
		lat = sql.NullFloat64{Float64: req.Coordinates.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: req.Coordinates.Longitude, Valid: true}
	}

	result, err := s.db.ExecContext(ctx, `INSERT INTO collections
		(id, requester_id, material_type, material_name, photo_uri, address,
		 latitude, longitude, status, collector_id, collector_name,
		 estimated_time, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
		 status=VALUES(status), collector_id=VALUES(collector_id),
		 collector_name=VALUES(collector_name), estimated_time=VALUES(estimated_time),
		 notes=VALUES(notes), updated_at=VALUES(updated_at)`,
		req.ID, req.RequesterID, req.MaterialType, req.MaterialName,
		req.PhotoURI, req.Address, lat, lon, string(req.Status),
		nullable(req.CollectorID), nullable(req.CollectorName),
		nullable(req.EstimatedTime), nullable(req.Notes),
		req.CreatedAt, req.UpdatedAt)

	return validateResult(result, err, false)
}

// LoadCollections reads the full collections table, terminal rows
// included.
func (s *CollectionDB) LoadCollections(ctx context.Context) ([]models.CollectionRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, requester_id, material_type, material_name, photo_uri,
		       address, latitude, longitude, status, collector_id,
		       collector_name, estimated_time, notes, created_at, updated_at
		FROM collections
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query collections: %w", err)
	}
	defer rows.Close()

	var out []models.CollectionRequest
	for rows.Next() {
		var (
			req                 models.CollectionRequest
			lat, lon            sql.NullFloat64
			collectorID         sql.NullString
			collectorName       sql.NullString
			estimatedTime       sql.NullString
			notes               sql.NullString
			status              string
		)
		if err := rows.Scan(&req.ID, &req.RequesterID, &req.MaterialType,
			&req.MaterialName, &req.PhotoURI, &req.Address, &lat, &lon,
			&status, &collectorID, &collectorName, &estimatedTime, &notes,
			&req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		req.Status = models.CollectionStatus(status)
		if lat.Valid && lon.Valid {
			req.Coordinates = &models.Coordinates{Latitude: lat.Float64, Longitude: lon.Float64}
		}
		req.CollectorID = collectorID.String
		req.CollectorName = collectorName.String
		req.EstimatedTime = estimatedTime.String
		req.Notes = notes.String
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collections: %w", err)
	}
	return out, nil
}

// SaveNotification inserts or updates one notification feed entry.
func (s *CollectionDB) SaveNotification(ctx context.Context, n *models.CollectionNotification) error {
	result, err := s.db.ExecContext(ctx, `INSERT INTO collection_notifications
		(id, collection_id, user_id, type, title, message, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE is_read=VALUES(is_read)`,
		n.ID, n.CollectionID, n.UserID, string(n.Type), n.Title, n.Message,
		n.IsRead, n.CreatedAt)

	return validateResult(result, err, false)
}

// LoadNotifications reads the full notification feed.
func (s *CollectionDB) LoadNotifications(ctx context.Context) ([]models.CollectionNotification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, collection_id, user_id, type, title, message, is_read, created_at
		FROM collection_notifications
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var out []models.CollectionNotification
	for rows.Next() {
		var (
			n   models.CollectionNotification
			typ string
		)
		if err := rows.Scan(&n.ID, &n.CollectionID, &n.UserID, &typ,
			&n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Type = models.NotificationType(typ)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return out, nil
}

// SaveRating inserts one post-completion rating. One rating per
// collection, enforced by the primary key.
func (s *CollectionDB) SaveRating(ctx context.Context, r *models.CollectionRating) error {
	result, err := s.db.ExecContext(ctx, `INSERT INTO collection_ratings
		(collection_id, user_id, collector_id, rating, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.CollectionID, r.UserID, r.CollectorID, r.Rating,
		nullable(r.Comment), r.CreatedAt)

	return validateResult(result, err, true)
}

// LoadRatings reads all recorded ratings.
func (s *CollectionDB) LoadRatings(ctx context.Context) ([]models.CollectionRating, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT collection_id, user_id, collector_id, rating, comment, created_at
		FROM collection_ratings
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	var out []models.CollectionRating
	for rows.Next() {
		var (
			r       models.CollectionRating
			comment sql.NullString
		)
		if err := rows.Scan(&r.CollectionID, &r.UserID, &r.CollectorID,
			&r.Rating, &comment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		r.Comment = comment.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}
	return out, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func validateResult(r sql.Result, e error, checkRowsAffected bool) error {
	if e != nil {
		log.Errorf("Query failed: %v", e)
		return e
	}
	rows, err := r.RowsAffected()
	if err != nil {
		log.Errorf("Failed to get status of db op: %v", err)
		return err
	}
	if checkRowsAffected && rows != 1 {
		err := fmt.Errorf("expected to affect 1 row, affected %d", rows)
		log.Warnf("%v", err)
		return err
	}
	return nil
}
