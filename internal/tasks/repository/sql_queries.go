package repository

const (
	taskColumns = `id, created_at, updated_at, status, priority, retry_count, max_retries, error_message, metadata,
		source_url, source_type, destination_type, destination_config, user_id, chat_id,
		requested_format, requested_quality, requested_resolution, download_started_at, download_completed_at,
		estimated_duration_seconds, file_size_bytes, temp_file_path`

	createTaskQuery = `INSERT INTO video_download_tasks (` + taskColumns + `)
		VALUES (:id, :created_at, :updated_at, :status, :priority, :retry_count, :max_retries, :error_message, :metadata,
		:source_url, :source_type, :destination_type, :destination_config, :user_id, :chat_id,
		:requested_format, :requested_quality, :requested_resolution, :download_started_at, :download_completed_at,
		:estimated_duration_seconds, :file_size_bytes, :temp_file_path)`

	updateTaskQuery = `UPDATE video_download_tasks SET
		updated_at = :updated_at, status = :status, priority = :priority, retry_count = :retry_count,
		max_retries = :max_retries, error_message = :error_message, metadata = :metadata,
		destination_config = :destination_config, requested_format = :requested_format,
		requested_quality = :requested_quality, requested_resolution = :requested_resolution,
		download_started_at = :download_started_at, download_completed_at = :download_completed_at,
		estimated_duration_seconds = :estimated_duration_seconds, file_size_bytes = :file_size_bytes,
		temp_file_path = :temp_file_path
		WHERE id = :id AND status = :expected_status`

	getTaskByIDQuery        = `SELECT ` + taskColumns + ` FROM video_download_tasks WHERE id = ?`
	taskExistsQuery         = `SELECT COUNT(id) FROM video_download_tasks WHERE id = ?`
	getTasksByStatusQuery   = `SELECT ` + taskColumns + ` FROM video_download_tasks WHERE status = ? ORDER BY created_at`
	getTasksByUserQuery     = `SELECT ` + taskColumns + ` FROM video_download_tasks WHERE user_id = ? ORDER BY created_at DESC`
	getTasksByChatQuery     = `SELECT ` + taskColumns + ` FROM video_download_tasks WHERE chat_id = ? ORDER BY created_at DESC`
	getTasksBySourceURL     = `SELECT ` + taskColumns + ` FROM video_download_tasks WHERE source_url = ? ORDER BY created_at DESC`
	getPendingOrderedQuery  = `SELECT ` + taskColumns + ` FROM video_download_tasks WHERE status = ? ORDER BY priority DESC, created_at ASC`
	getRetryableTasksQuery  = `SELECT ` + taskColumns + ` FROM video_download_tasks WHERE status IN (%s) AND retry_count < max_retries ORDER BY priority DESC, updated_at ASC`
	getStuckProcessingQuery = `SELECT ` + taskColumns + ` FROM video_download_tasks WHERE status = ? AND updated_at < ? ORDER BY updated_at`
	searchTasksQuery        = `SELECT ` + taskColumns + ` FROM video_download_tasks%s ORDER BY %s LIMIT ? OFFSET ?`
	countTasksQuery         = `SELECT COUNT(id) FROM video_download_tasks%s`

	deleteTaskResultsQuery = `DELETE FROM video_download_task_results WHERE task_id = ?`
	deleteTaskQuery        = `DELETE FROM video_download_tasks WHERE id = ?`

	oldCompletedTasksFilter = `status = ? AND created_at < ?`
	oldFailedTasksFilter    = `status = ? AND retry_count >= max_retries AND created_at < ?`

	detachResultsQuery = `UPDATE video_download_task_results SET task_id = NULL, updated_at = ?
		WHERE status = ? AND destination_type IN (%s)
		AND task_id IN (SELECT id FROM video_download_tasks WHERE %s)`
	deleteResultsOfTasksQuery = `DELETE FROM video_download_task_results
		WHERE task_id IN (SELECT id FROM video_download_tasks WHERE %s)`
	deleteTasksWhereQuery = `DELETE FROM video_download_tasks WHERE %s`

	countAllTasksQuery           = `SELECT COUNT(id) FROM video_download_tasks`
	countTasksByStatusQuery      = `SELECT status AS group_key, COUNT(id) AS group_count FROM video_download_tasks GROUP BY status`
	countTasksBySourceQuery      = `SELECT source_type AS group_key, COUNT(id) AS group_count FROM video_download_tasks GROUP BY source_type`
	countTasksByDestinationQuery = `SELECT destination_type AS group_key, COUNT(id) AS group_count FROM video_download_tasks GROUP BY destination_type`
	countRetryableTasksQuery     = `SELECT COUNT(id) FROM video_download_tasks WHERE status IN (?, ?) AND retry_count < max_retries`
)

// defaultTaskOrder is the Search order when the request names none.
const defaultTaskOrder = "created_at DESC, id DESC"
