package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/internal/tasks"
	"github.com/amankumarsingh77/tg-video-relay/pkg/apperrors"
	"github.com/amankumarsingh77/tg-video-relay/pkg/utils"
	"github.com/jmoiron/sqlx"
)

type taskRepo struct {
	db *sqlx.DB
}

func NewTaskRepo(db *sqlx.DB) tasks.Repository {
	return &taskRepo{
		db: db,
	}
}

type taskUpdate struct {
	models.Task
	ExpectedStatus models.TaskStatus `db:"expected_status"`
}

type groupCount struct {
	Key   string `db:"group_key"`
	Count int64  `db:"group_count"`
}

func (r *taskRepo) Create(ctx context.Context, task *models.Task) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, createTaskQuery, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		return nil
	})
}

func (r *taskRepo) Update(ctx context.Context, task *models.Task, expected models.TaskStatus) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, updateTaskQuery, &taskUpdate{Task: *task, ExpectedStatus: expected})
		if err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		count, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		if count > 0 {
			return nil
		}
		var exists int
		if err = tx.GetContext(ctx, &exists, tx.Rebind(taskExistsQuery), task.ID); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		if exists == 0 {
			return apperrors.Newf(apperrors.KindNotFound, "task not found: %s", task.ID)
		}
		return apperrors.Newf(apperrors.KindConflict, "task %s is no longer %s", task.ID, expected)
	})
}

func (r *taskRepo) Delete(ctx context.Context, taskID string) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(deleteTaskResultsQuery), taskID); err != nil {
			return fmt.Errorf("failed to delete task results: %w", err)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(deleteTaskQuery), taskID)
		if err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		count, _ := res.RowsAffected()
		if count == 0 {
			return apperrors.Newf(apperrors.KindNotFound, "task not found: %s", taskID)
		}
		return nil
	})
}

func (r *taskRepo) GetByID(ctx context.Context, taskID string) (*models.Task, error) {
	task := &models.Task{}
	if err := r.db.QueryRowxContext(ctx, r.db.Rebind(getTaskByIDQuery), taskID).StructScan(task); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.Newf(apperrors.KindNotFound, "task not found: %s", taskID)
		}
		return nil, fmt.Errorf("failed to get task by id: %w", err)
	}
	return task, nil
}

func (r *taskRepo) ListByStatus(ctx context.Context, status models.TaskStatus) ([]*models.Task, error) {
	return r.selectTasks(ctx, getTasksByStatusQuery, status)
}

func (r *taskRepo) ListByUser(ctx context.Context, userID string) ([]*models.Task, error) {
	return r.selectTasks(ctx, getTasksByUserQuery, userID)
}

func (r *taskRepo) ListByChat(ctx context.Context, chatID string) ([]*models.Task, error) {
	return r.selectTasks(ctx, getTasksByChatQuery, chatID)
}

func (r *taskRepo) ListBySourceURL(ctx context.Context, sourceURL string) ([]*models.Task, error) {
	return r.selectTasks(ctx, getTasksBySourceURL, sourceURL)
}

func (r *taskRepo) ListPendingOrdered(ctx context.Context, limit int) ([]*models.Task, error) {
	if limit <= 0 {
		return r.selectTasks(ctx, getPendingOrderedQuery, models.TaskStatusPending)
	}
	return r.selectTasks(ctx, getPendingOrderedQuery+" LIMIT ?", models.TaskStatusPending, limit)
}

func (r *taskRepo) ListRetryable(ctx context.Context, statuses []models.TaskStatus) ([]*models.Task, error) {
	if len(statuses) == 0 {
		return []*models.Task{}, nil
	}
	args := make([]interface{}, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, status)
	}
	return r.selectTasks(ctx, fmt.Sprintf(getRetryableTasksQuery, placeholders(len(statuses))), args...)
}

func (r *taskRepo) ListStuckProcessing(ctx context.Context, cutoff time.Time) ([]*models.Task, error) {
	return r.selectTasks(ctx, getStuckProcessingQuery, models.TaskStatusProcessing, cutoff.UTC())
}

var taskOrderColumns = []string{"created_at", "updated_at", "priority", "status", "retry_count"}

func (r *taskRepo) Search(ctx context.Context, criteria *models.TaskCriteria, pq *utils.Pagination) (*models.TaskList, error) {
	where, args := taskCriteriaFilter(criteria)
	order, err := pq.GetOrderBy(taskOrderColumns, defaultTaskOrder)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "invalid orderBy")
	}

	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, r.db.Rebind(fmt.Sprintf(countTasksQuery, where)), args...); err != nil {
		return nil, fmt.Errorf("failed to get total tasks count: %w", err)
	}
	if totalCount == 0 {
		return &models.TaskList{
			Tasks:    make([]*models.Task, 0),
			Page:     pq.GetPage(),
			PageSize: pq.GetLimit(),
		}, nil
	}

	pageArgs := append(args, pq.GetLimit(), pq.GetOffset())
	list, err := r.selectTasks(ctx, fmt.Sprintf(searchTasksQuery, where, order), pageArgs...)
	if err != nil {
		return nil, err
	}
	return &models.TaskList{
		Tasks:      list,
		TotalCount: totalCount,
		TotalPages: utils.GetTotalPages(totalCount, pq.GetLimit()),
		Page:       pq.GetPage(),
		PageSize:   pq.GetLimit(),
		HasMore:    utils.GetHasMore(pq.GetPage(), totalCount, pq.GetLimit()),
	}, nil
}

func (r *taskRepo) DeleteOldCompleted(ctx context.Context, cutoff time.Time, keep []models.DestinationType) (int64, error) {
	return r.deleteTasksWhere(ctx, oldCompletedTasksFilter, keep, models.TaskStatusCompleted, cutoff.UTC())
}

func (r *taskRepo) DeleteOldFailedTerminal(ctx context.Context, cutoff time.Time, keep []models.DestinationType) (int64, error) {
	return r.deleteTasksWhere(ctx, oldFailedTasksFilter, keep, models.TaskStatusFailed, cutoff.UTC())
}

// deleteTasksWhere removes the matching tasks with their results, except
// completed results of the keep destinations, which are detached instead.
func (r *taskRepo) deleteTasksWhere(ctx context.Context, filter string, keep []models.DestinationType, filterArgs ...interface{}) (int64, error) {
	var deleted int64
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		if len(keep) > 0 {
			args := []interface{}{models.Now(), models.TaskStatusCompleted}
			for _, d := range keep {
				args = append(args, d)
			}
			args = append(args, filterArgs...)
			query := fmt.Sprintf(detachResultsQuery, placeholders(len(keep)), filter)
			if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
				return fmt.Errorf("failed to detach reusable results: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(fmt.Sprintf(deleteResultsOfTasksQuery, filter)), filterArgs...); err != nil {
			return fmt.Errorf("failed to delete results of old tasks: %w", err)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(fmt.Sprintf(deleteTasksWhereQuery, filter)), filterArgs...)
		if err != nil {
			return fmt.Errorf("failed to delete old tasks: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}

func (r *taskRepo) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, countAllTasksQuery); err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}

func (r *taskRepo) CountByStatus(ctx context.Context) (map[models.TaskStatus]int64, error) {
	groups, err := r.groupCounts(ctx, countTasksByStatusQuery)
	if err != nil {
		return nil, err
	}
	counts := make(map[models.TaskStatus]int64, len(groups))
	for _, g := range groups {
		counts[models.TaskStatus(g.Key)] = g.Count
	}
	return counts, nil
}

func (r *taskRepo) CountBySourceType(ctx context.Context) (map[models.SourceType]int64, error) {
	groups, err := r.groupCounts(ctx, countTasksBySourceQuery)
	if err != nil {
		return nil, err
	}
	counts := make(map[models.SourceType]int64, len(groups))
	for _, g := range groups {
		counts[models.SourceType(g.Key)] = g.Count
	}
	return counts, nil
}

func (r *taskRepo) CountByDestinationType(ctx context.Context) (map[models.DestinationType]int64, error) {
	groups, err := r.groupCounts(ctx, countTasksByDestinationQuery)
	if err != nil {
		return nil, err
	}
	counts := make(map[models.DestinationType]int64, len(groups))
	for _, g := range groups {
		counts[models.DestinationType(g.Key)] = g.Count
	}
	return counts, nil
}

func (r *taskRepo) CountRetryable(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(countRetryableTasksQuery), models.TaskStatusFailed, models.TaskStatusCancelled); err != nil {
		return 0, fmt.Errorf("failed to count retryable tasks: %w", err)
	}
	return count, nil
}

func (r *taskRepo) groupCounts(ctx context.Context, query string) ([]groupCount, error) {
	var groups []groupCount
	if err := r.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	return groups, nil
}

func (r *taskRepo) selectTasks(ctx context.Context, query string, args ...interface{}) ([]*models.Task, error) {
	rows, err := r.db.QueryxContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()
	list := make([]*models.Task, 0)
	for rows.Next() {
		var task models.Task
		if err = rows.StructScan(&task); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		list = append(list, &task)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan tasks: %w", err)
	}
	return list, nil
}

func (r *taskRepo) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
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

func taskCriteriaFilter(criteria *models.TaskCriteria) (string, []interface{}) {
	if criteria == nil {
		return "", nil
	}
	var conditions []string
	var args []interface{}
	if criteria.UserID != nil {
		conditions = append(conditions, "user_id = ?")
		args = append(args, *criteria.UserID)
	}
	if criteria.ChatID != nil {
		conditions = append(conditions, "chat_id = ?")
		args = append(args, *criteria.ChatID)
	}
	if criteria.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *criteria.Status)
	}
	if criteria.SourceType != nil {
		conditions = append(conditions, "source_type = ?")
		args = append(args, *criteria.SourceType)
	}
	if criteria.DestinationType != nil {
		conditions = append(conditions, "destination_type = ?")
		args = append(args, *criteria.DestinationType)
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
