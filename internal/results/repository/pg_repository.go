package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/internal/results"
	"github.com/amankumarsingh77/tg-video-relay/pkg/apperrors"
	"github.com/amankumarsingh77/tg-video-relay/pkg/utils"
	"github.com/jmoiron/sqlx"
)

type resultRepo struct {
	db *sqlx.DB
}

func NewResultRepo(db *sqlx.DB) results.Repository {
	return &resultRepo{
		db: db,
	}
}

type groupCount struct {
	Key   string `db:"group_key"`
	Count int64  `db:"group_count"`
}

type groupAverage struct {
	Key     string          `db:"group_key"`
	Average sql.NullFloat64 `db:"group_avg"`
}

func (r *resultRepo) Create(ctx context.Context, result *models.Result) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, createResultQuery, result); err != nil {
			return fmt.Errorf("failed to create result: %w", err)
		}
		if result.IsPrimaryResult && result.TaskID != nil {
			return clearOtherPrimaries(ctx, tx, *result.TaskID, result.ID)
		}
		return nil
	})
}

func (r *resultRepo) Update(ctx context.Context, result *models.Result) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, updateResultQuery, result)
		if err != nil {
			return fmt.Errorf("failed to update result: %w", err)
		}
		if count, _ := res.RowsAffected(); count == 0 {
			return apperrors.Newf(apperrors.KindNotFound, "result not found: %s", result.ID)
		}
		if result.IsPrimaryResult && result.TaskID != nil {
			return clearOtherPrimaries(ctx, tx, *result.TaskID, result.ID)
		}
		return nil
	})
}

func (r *resultRepo) MarkPrimary(ctx context.Context, taskID, resultID string) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(setPrimaryQuery), true, models.Now(), taskID, resultID)
		if err != nil {
			return fmt.Errorf("failed to mark primary result: %w", err)
		}
		if count, _ := res.RowsAffected(); count == 0 {
			return apperrors.Newf(apperrors.KindNotFound, "result %s not found for task %s", resultID, taskID)
		}
		return clearOtherPrimaries(ctx, tx, taskID, resultID)
	})
}

func (r *resultRepo) Delete(ctx context.Context, resultID string) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(deleteResultQuery), resultID)
		if err != nil {
			return fmt.Errorf("failed to delete result: %w", err)
		}
		if count, _ := res.RowsAffected(); count == 0 {
			return apperrors.Newf(apperrors.KindNotFound, "result not found: %s", resultID)
		}
		return nil
	})
}

func (r *resultRepo) DeleteByTask(ctx context.Context, taskID string) (int64, error) {
	var deleted int64
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(deleteResultsByTaskQuery), taskID)
		if err != nil {
			return fmt.Errorf("failed to delete task results: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}

func (r *resultRepo) GetByID(ctx context.Context, resultID string) (*models.Result, error) {
	return r.getResult(ctx, getResultByIDQuery, resultID)
}

func (r *resultRepo) ListByTask(ctx context.Context, taskID string) ([]*models.Result, error) {
	return r.selectResults(ctx, getResultsByTaskQuery, taskID)
}

func (r *resultRepo) GetPrimaryByTask(ctx context.Context, taskID string) (*models.Result, error) {
	return r.getResult(ctx, getPrimaryResultQuery, taskID, true)
}

func (r *resultRepo) ListByDestinationID(ctx context.Context, destinationID string) ([]*models.Result, error) {
	return r.selectResults(ctx, getResultsByDestinationID, destinationID)
}

var resultOrderColumns = []string{"created_at", "updated_at", "file_size_bytes", "processing_time_ms", "upload_time_ms"}

func (r *resultRepo) Search(ctx context.Context, criteria *models.ResultCriteria, pq *utils.Pagination) (*models.ResultList, error) {
	where, args := resultCriteriaFilter(criteria)
	order, err := pq.GetOrderBy(resultOrderColumns, defaultResultOrder)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "invalid orderBy")
	}

	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, r.db.Rebind(fmt.Sprintf(countResultsQuery, where)), args...); err != nil {
		return nil, fmt.Errorf("failed to get total results count: %w", err)
	}
	if totalCount == 0 {
		return &models.ResultList{
			Results:  make([]*models.Result, 0),
			Page:     pq.GetPage(),
			PageSize: pq.GetLimit(),
		}, nil
	}

	pageArgs := append(args, pq.GetLimit(), pq.GetOffset())
	list, err := r.selectResults(ctx, fmt.Sprintf(searchResultsQuery, where, order), pageArgs...)
	if err != nil {
		return nil, err
	}
	return &models.ResultList{
		Results:    list,
		TotalCount: totalCount,
		TotalPages: utils.GetTotalPages(totalCount, pq.GetLimit()),
		Page:       pq.GetPage(),
		PageSize:   pq.GetLimit(),
		HasMore:    utils.GetHasMore(pq.GetPage(), totalCount, pq.GetLimit()),
	}, nil
}

func (r *resultRepo) MostRecentCompleted(ctx context.Context, sourceURL string, destination models.DestinationType) (*models.Result, error) {
	return r.getResult(ctx, completedForSourceQuery+" LIMIT 1", sourceURL, destination, models.TaskStatusCompleted)
}

func (r *resultRepo) ListExisting(ctx context.Context, sourceURL string, destination models.DestinationType) ([]*models.Result, error) {
	return r.selectResults(ctx, completedForSourceQuery, sourceURL, destination, models.TaskStatusCompleted)
}

func (r *resultRepo) ListForCleanup(ctx context.Context, cutoff time.Time, keep []models.DestinationType) ([]*models.Result, error) {
	args := []interface{}{cutoff.UTC()}
	filter := ""
	if len(keep) > 0 {
		filter = fmt.Sprintf(" AND destination_type NOT IN (%s)", placeholders(len(keep)))
		for _, d := range keep {
			args = append(args, d)
		}
	}
	return r.selectResults(ctx, fmt.Sprintf(resultsForCleanupQuery, filter), args...)
}

func (r *resultRepo) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, countAllResultsQuery); err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}
	return count, nil
}

func (r *resultRepo) CountByStatus(ctx context.Context) (map[models.TaskStatus]int64, error) {
	var groups []groupCount
	if err := r.db.SelectContext(ctx, &groups, countResultsByStatusQuery); err != nil {
		return nil, fmt.Errorf("failed to count results by status: %w", err)
	}
	counts := make(map[models.TaskStatus]int64, len(groups))
	for _, g := range groups {
		counts[models.TaskStatus(g.Key)] = g.Count
	}
	return counts, nil
}

func (r *resultRepo) TotalCompletedFileSize(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(totalCompletedSizeQuery), models.TaskStatusCompleted); err != nil {
		return 0, fmt.Errorf("failed to sum result file sizes: %w", err)
	}
	return total, nil
}

func (r *resultRepo) CompletedAverages(ctx context.Context) (float64, float64, error) {
	var averages struct {
		Size       sql.NullFloat64 `db:"avg_size"`
		Processing sql.NullFloat64 `db:"avg_processing"`
	}
	if err := r.db.GetContext(ctx, &averages, r.db.Rebind(completedAveragesQuery), models.TaskStatusCompleted); err != nil {
		return 0, 0, fmt.Errorf("failed to average results: %w", err)
	}
	return averages.Size.Float64, averages.Processing.Float64, nil
}

func (r *resultRepo) AverageFileSizeByDestination(ctx context.Context) (map[models.DestinationType]float64, error) {
	return r.groupAverages(ctx, avgSizeByDestinationQuery)
}

func (r *resultRepo) AverageProcessingTimeByDestination(ctx context.Context) (map[models.DestinationType]float64, error) {
	return r.groupAverages(ctx, avgProcessingByDestinationQuery)
}

func (r *resultRepo) groupAverages(ctx context.Context, query string) (map[models.DestinationType]float64, error) {
	var groups []groupAverage
	if err := r.db.SelectContext(ctx, &groups, r.db.Rebind(query), models.TaskStatusCompleted); err != nil {
		return nil, fmt.Errorf("failed to average results by destination: %w", err)
	}
	averages := make(map[models.DestinationType]float64, len(groups))
	for _, g := range groups {
		if g.Average.Valid {
			averages[models.DestinationType(g.Key)] = g.Average.Float64
		}
	}
	return averages, nil
}

func (r *resultRepo) getResult(ctx context.Context, query string, args ...interface{}) (*models.Result, error) {
	result := &models.Result{}
	if err := r.db.QueryRowxContext(ctx, r.db.Rebind(query), args...).StructScan(result); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.New(apperrors.KindNotFound, "result not found")
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return result, nil
}

func (r *resultRepo) selectResults(ctx context.Context, query string, args ...interface{}) ([]*models.Result, error) {
	rows, err := r.db.QueryxContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()
	list := make([]*models.Result, 0)
	for rows.Next() {
		var result models.Result
		if err = rows.StructScan(&result); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		list = append(list, &result)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan results: %w", err)
	}
	return list, nil
}

func (r *resultRepo) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func clearOtherPrimaries(ctx context.Context, tx *sqlx.Tx, taskID, keepID string) error {
	if _, err := tx.ExecContext(ctx, tx.Rebind(clearPrimaryQuery), false, models.Now(), taskID, keepID, true); err != nil {
		return fmt.Errorf("failed to clear primary results: %w", err)
	}
	return nil
}

func resultCriteriaFilter(criteria *models.ResultCriteria) (string, []interface{}) {
	if criteria == nil {
		return "", nil
	}
	var conditions []string
	var args []interface{}
	if criteria.TaskID != nil {
		conditions = append(conditions, "task_id = ?")
		args = append(args, *criteria.TaskID)
	}
	if criteria.DestinationType != nil {
		conditions = append(conditions, "destination_type = ?")
		args = append(args, *criteria.DestinationType)
	}
	if criteria.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *criteria.Status)
	}
	if criteria.FileFormat != nil {
		conditions = append(conditions, "file_format = ?")
		args = append(args, *criteria.FileFormat)
	}
	if criteria.IsPrimary != nil {
		conditions = append(conditions, "is_primary_result = ?")
		args = append(args, *criteria.IsPrimary)
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
