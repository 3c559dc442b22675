package repository

const (
	resultColumns = `id, created_at, updated_at, status, priority, retry_count, max_retries, error_message, metadata,
		task_id, source_url, destination_type, destination_id, file_name, file_size_bytes, file_format,
		duration_seconds, resolution, bitrate, fps, codec, thumbnail_url, download_url,
		upload_started_at, upload_completed_at, processing_time_ms, upload_time_ms, destination_metadata,
		is_primary_result`

	createResultQuery = `INSERT INTO video_download_task_results (` + resultColumns + `)
		VALUES (:id, :created_at, :updated_at, :status, :priority, :retry_count, :max_retries, :error_message, :metadata,
		:task_id, :source_url, :destination_type, :destination_id, :file_name, :file_size_bytes, :file_format,
		:duration_seconds, :resolution, :bitrate, :fps, :codec, :thumbnail_url, :download_url,
		:upload_started_at, :upload_completed_at, :processing_time_ms, :upload_time_ms, :destination_metadata,
		:is_primary_result)`

	// A completed result keeps the destination id it was completed with.
	updateResultQuery = `UPDATE video_download_task_results SET
		updated_at = :updated_at, status = :status, priority = :priority, retry_count = :retry_count,
		max_retries = :max_retries, error_message = :error_message, metadata = :metadata,
		destination_id = CASE WHEN status = 'COMPLETED' AND destination_id IS NOT NULL
			THEN destination_id ELSE :destination_id END,
		file_name = :file_name, file_size_bytes = :file_size_bytes, file_format = :file_format,
		duration_seconds = :duration_seconds, resolution = :resolution, bitrate = :bitrate, fps = :fps,
		codec = :codec, thumbnail_url = :thumbnail_url, download_url = :download_url,
		upload_started_at = :upload_started_at, upload_completed_at = :upload_completed_at,
		processing_time_ms = :processing_time_ms, upload_time_ms = :upload_time_ms,
		destination_metadata = :destination_metadata, is_primary_result = :is_primary_result
		WHERE id = :id`

	clearPrimaryQuery = `UPDATE video_download_task_results SET is_primary_result = ?, updated_at = ?
		WHERE task_id = ? AND id <> ? AND is_primary_result = ?`
	setPrimaryQuery = `UPDATE video_download_task_results SET is_primary_result = ?, updated_at = ?
		WHERE task_id = ? AND id = ?`

	deleteResultQuery        = `DELETE FROM video_download_task_results WHERE id = ?`
	deleteResultsByTaskQuery = `DELETE FROM video_download_task_results WHERE task_id = ?`

	getResultByIDQuery        = `SELECT ` + resultColumns + ` FROM video_download_task_results WHERE id = ?`
	getResultsByTaskQuery     = `SELECT ` + resultColumns + ` FROM video_download_task_results WHERE task_id = ? ORDER BY created_at, id`
	getPrimaryResultQuery     = `SELECT ` + resultColumns + ` FROM video_download_task_results WHERE task_id = ? AND is_primary_result = ?`
	getResultsByDestinationID = `SELECT ` + resultColumns + ` FROM video_download_task_results WHERE destination_id = ? ORDER BY created_at DESC`
	searchResultsQuery        = `SELECT ` + resultColumns + ` FROM video_download_task_results%s ORDER BY %s LIMIT ? OFFSET ?`
	countResultsQuery         = `SELECT COUNT(id) FROM video_download_task_results%s`

	completedForSourceQuery = `SELECT ` + resultColumns + ` FROM video_download_task_results
		WHERE source_url = ? AND destination_type = ? AND status = ? AND destination_id IS NOT NULL
		ORDER BY created_at DESC`
	resultsForCleanupQuery = `SELECT ` + resultColumns + ` FROM video_download_task_results
		WHERE created_at < ?%s ORDER BY created_at`

	countAllResultsQuery      = `SELECT COUNT(id) FROM video_download_task_results`
	countResultsByStatusQuery = `SELECT status AS group_key, COUNT(id) AS group_count FROM video_download_task_results GROUP BY status`
	totalCompletedSizeQuery   = `SELECT CAST(COALESCE(SUM(file_size_bytes), 0) AS BIGINT) FROM video_download_task_results WHERE status = ?`
	completedAveragesQuery    = `SELECT CAST(AVG(file_size_bytes) AS DOUBLE PRECISION) AS avg_size,
		CAST(AVG(processing_time_ms) AS DOUBLE PRECISION) AS avg_processing
		FROM video_download_task_results WHERE status = ?`
	avgSizeByDestinationQuery = `SELECT destination_type AS group_key, CAST(AVG(file_size_bytes) AS DOUBLE PRECISION) AS group_avg
		FROM video_download_task_results WHERE status = ? AND file_size_bytes IS NOT NULL GROUP BY destination_type`
	avgProcessingByDestinationQuery = `SELECT destination_type AS group_key, CAST(AVG(processing_time_ms) AS DOUBLE PRECISION) AS group_avg
		FROM video_download_task_results WHERE status = ? AND processing_time_ms IS NOT NULL GROUP BY destination_type`
)

// defaultResultOrder is the Search order when the request names none.
const defaultResultOrder = "created_at DESC, id DESC"
