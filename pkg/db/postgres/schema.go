package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements only use types and syntax shared by PostgreSQL and SQLite.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS video_download_tasks (
		id VARCHAR(36) PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		status VARCHAR(20) NOT NULL,
		priority INTEGER NOT NULL DEFAULT 0,
		retry_count INTEGER NOT NULL DEFAULT 0,
		max_retries INTEGER NOT NULL DEFAULT 3,
		error_message VARCHAR(1000),
		metadata TEXT,
		source_url VARCHAR(1000) NOT NULL,
		source_type VARCHAR(20) NOT NULL,
		destination_type VARCHAR(20) NOT NULL,
		destination_config TEXT,
		user_id VARCHAR(100) NOT NULL DEFAULT '',
		chat_id VARCHAR(100) NOT NULL DEFAULT '',
		requested_format VARCHAR(50) NOT NULL,
		requested_quality VARCHAR(50) NOT NULL,
		requested_resolution VARCHAR(50) NOT NULL,
		download_started_at TIMESTAMP,
		download_completed_at TIMESTAMP,
		estimated_duration_seconds BIGINT,
		file_size_bytes BIGINT,
		temp_file_path VARCHAR(500)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_status_priority ON video_download_tasks (status, priority, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_status_updated ON video_download_tasks (status, updated_at)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user ON video_download_tasks (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_chat ON video_download_tasks (chat_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_source_url ON video_download_tasks (source_url)`,
	`CREATE TABLE IF NOT EXISTS video_download_task_results (
		id VARCHAR(36) PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		status VARCHAR(20) NOT NULL,
		priority INTEGER NOT NULL DEFAULT 0,
		retry_count INTEGER NOT NULL DEFAULT 0,
		max_retries INTEGER NOT NULL DEFAULT 3,
		error_message VARCHAR(1000),
		metadata TEXT,
		task_id VARCHAR(36) REFERENCES video_download_tasks (id) ON DELETE SET NULL,
		source_url VARCHAR(1000) NOT NULL,
		destination_type VARCHAR(20) NOT NULL,
		destination_id VARCHAR(500),
		file_name VARCHAR(500),
		file_size_bytes BIGINT,
		file_format VARCHAR(50),
		duration_seconds BIGINT,
		resolution VARCHAR(50),
		bitrate BIGINT,
		fps DOUBLE PRECISION,
		codec VARCHAR(100),
		thumbnail_url VARCHAR(1000),
		download_url VARCHAR(1000),
		upload_started_at TIMESTAMP,
		upload_completed_at TIMESTAMP,
		processing_time_ms BIGINT,
		upload_time_ms BIGINT,
		destination_metadata TEXT,
		is_primary_result BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_results_reuse ON video_download_task_results (source_url, destination_type, status, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_results_task ON video_download_task_results (task_id)`,
	`CREATE INDEX IF NOT EXISTS idx_results_destination_id ON video_download_task_results (destination_id)`,
}

// EnsureSchema creates the task and result tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
