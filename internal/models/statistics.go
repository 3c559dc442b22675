package models

type TaskStatistics struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	Cancelled  int64 `json:"cancelled"`
	Retryable  int64 `json:"retryable"`

	BySourceType      map[SourceType]int64      `json:"by_source_type"`
	ByDestinationType map[DestinationType]int64 `json:"by_destination_type"`
}

type ResultStatistics struct {
	Total                 int64   `json:"total"`
	Completed             int64   `json:"completed"`
	Failed                int64   `json:"failed"`
	TotalFileSizeBytes    int64   `json:"total_file_size_bytes"`
	AverageFileSizeBytes  float64 `json:"average_file_size_bytes"`
	AverageProcessingTime float64 `json:"average_processing_time_ms"`

	AverageFileSizeByDestination       map[DestinationType]float64 `json:"average_file_size_by_destination"`
	AverageProcessingTimeByDestination map[DestinationType]float64 `json:"average_processing_time_by_destination"`
}

// TaskExecutionStatistics is the executor view surfaced on the stats endpoint.
type TaskExecutionStatistics struct {
	TotalTasks          int64   `json:"total_tasks"`
	PendingTasks        int64   `json:"pending_tasks"`
	ProcessingTasks     int64   `json:"processing_tasks"`
	CompletedTasks      int64   `json:"completed_tasks"`
	FailedTasks         int64   `json:"failed_tasks"`
	RetryableTasks      int64   `json:"retryable_tasks"`
	MaxConcurrentTasks  int     `json:"max_concurrent_tasks"`
	AvailableSlots      int     `json:"available_slots"`
	CurrentlyProcessing int     `json:"currently_processing"`
	MemoryPressure      string  `json:"memory_pressure"`
	MemoryUsedPercent   float64 `json:"memory_used_percent"`
	FreeMemoryMB        int64   `json:"free_memory_mb"`
}

type ProcessingStatus struct {
	MaxConcurrentTasks  int      `json:"max_concurrent_tasks"`
	AvailableSlots      int      `json:"available_slots"`
	CurrentlyProcessing int      `json:"currently_processing"`
	ProcessingTaskIDs   []string `json:"processing_task_ids"`
	MemoryPressure      string   `json:"memory_pressure"`
	HasEnoughMemory     bool     `json:"has_enough_memory"`
}

// TaskProgress is the last download progress reported for a task.
type TaskProgress struct {
	TaskID     string  `json:"task_id" redis:"task_id"`
	Percent    float64 `json:"percent" redis:"percent"`
	ETASeconds int64   `json:"eta_seconds" redis:"eta_seconds"`
	Stage      string  `json:"stage" redis:"stage"`
}
