package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrAllocateTaskNumber is returned when the task sequence cannot be advanced.
	ErrAllocateTaskNumber = errors.New("task repository: allocate task number failed")
	// ErrSequenceMissing is returned when the sequence row was never seeded.
	ErrSequenceMissing = errors.New("task repository: sequence not initialised")
)

// likeEscaper escapes LIKE wildcards using '!' which every supported dialect accepts
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// FormatTaskNumber renders a sequence value as TASK-001, TASK-002, ...
func FormatTaskNumber(n int64) string {
	return fmt.Sprintf("%s%0*d", constants.TaskNumberPrefix, constants.TaskNumberDigits, n)
}

// Create allocates the next task number and inserts the task in one transaction.
// The sequence row is locked by the UPDATE until commit, so concurrent
// creators are serialised and never observe the same value.
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := nextSequenceValue(tx, constants.TaskSequenceName)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrAllocateTaskNumber, err)
		}

		task.TaskNumber = FormatTaskNumber(n)
		return tx.Omit(clause.Associations).Create(task).Error
	})
}

func nextSequenceValue(tx *gorm.DB, name string) (int64, error) {
	res := tx.Model(&models.Sequence{}).
		Where("name = ?", name).
		UpdateColumn("last_value", gorm.Expr("last_value + ?", 1))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrSequenceMissing
	}

	var seq models.Sequence
	if err := tx.Where("name = ?", name).Take(&seq).Error; err != nil {
		return 0, err
	}
	return seq.LastValue, nil
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks visible to filter.ViewerID
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Task{}).
		Where(r.db.Where("tasks.user_id = ?", filter.ViewerID).
			Or("tasks.assigned_to_id = ?", filter.ViewerID))

	if filter.Category != "" {
		query = query.Where("tasks.category = ?", filter.Category)
	}
	if filter.Status != "" {
		query = query.Where("tasks.status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("tasks.priority = ?", filter.Priority)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		query = query.Where(r.db.Where("tasks.title_key LIKE ? ESCAPE '!'", pattern).
			Or("LOWER(tasks.task_number) LIKE ? ESCAPE '!'", pattern))
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "tasks.created_at DESC, tasks.id DESC"
	if filter.OldestFirst {
		order = "tasks.created_at ASC, tasks.id ASC"
	}

	tasks := []models.Task{}
	if err := query.
		Order(order).
		Scopes(database.Paginate(filter.Pagination)).
		Preload("AssignedTo").
		Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update persists the task's own columns; associations are never touched
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(task).Error
}

// Delete soft deletes a task
func (r *GormTaskRepository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&models.Task{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
