package database

import (
	"database/sql"
	"fmt"

	"github.com/apex/log"
)

// InitSchema creates the necessary database tables if they don't exist.
func InitSchema(db *sql.DB) error {
	log.Info("Initializing collection-service database schema...")

	collectionsTableSQL := `
	CREATE TABLE IF NOT EXISTS collections(
		id VARCHAR(36) NOT NULL,
		requester_id VARCHAR(255) NOT NULL,
		material_type VARCHAR(32) NOT NULL,
		material_name VARCHAR(255) NOT NULL,
		photo_uri TEXT NOT NULL,
		address VARCHAR(512) NOT NULL,
		latitude DOUBLE,
		longitude DOUBLE,
		status ENUM('requested', 'in_progress', 'completed', 'cancelled') NOT NULL DEFAULT 'requested',
		collector_id VARCHAR(255),
		collector_name VARCHAR(255),
		estimated_time VARCHAR(255),
		notes TEXT,
		created_at TIMESTAMP(6) NOT NULL,
		updated_at TIMESTAMP(6) NOT NULL,
		PRIMARY KEY (id),
		INDEX requester_id_index (requester_id),
		INDEX collector_id_index (collector_id),
		INDEX status_index (status)
	)`

	if _, err := db.Exec(collectionsTableSQL); err != nil {
		return fmt.Errorf("failed to create collections table: %w", err)
	}
	log.Info("Collections table created/verified")

	notificationsTableSQL := `
	CREATE TABLE IF NOT EXISTS collection_notifications(
		id VARCHAR(36) NOT NULL,
		collection_id VARCHAR(36) NOT NULL,
		user_id VARCHAR(255) NOT NULL,
		type VARCHAR(32) NOT NULL,
		title VARCHAR(255) NOT NULL,
		message TEXT NOT NULL,
		is_read BOOL NOT NULL DEFAULT false,
		created_at TIMESTAMP(6) NOT NULL,
		PRIMARY KEY (id),
		INDEX user_id_index (user_id),
		INDEX collection_id_index (collection_id)
	)`

	if _, err := db.Exec(notificationsTableSQL); err != nil {
		return fmt.Errorf("failed to create collection_notifications table: %w", err)
	}
	log.Info("Collection_notifications table created/verified")

	ratingsTableSQL := `
	CREATE TABLE IF NOT EXISTS collection_ratings(
		collection_id VARCHAR(36) NOT NULL,
		user_id VARCHAR(255) NOT NULL,
		collector_id VARCHAR(255) NOT NULL,
		rating INT NOT NULL,
		comment TEXT,
		created_at TIMESTAMP(6) NOT NULL,
		PRIMARY KEY (collection_id),
		INDEX collector_id_index (collector_id)
	)`

	if _, err := db.Exec(ratingsTableSQL); err != nil {
		return fmt.Errorf("failed to create collection_ratings table: %w", err)
	}
	log.Info("Collection_ratings table created/verified")

	log.Info("Collection-service database schema initialization completed")
	return nil
}
