package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/policy"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrNotTaskCreator   = errors.New("only the task creator can perform this action")
	ErrAssigneeNotFound = errors.New("assigned user not found")
	ErrTitleRequired    = errors.New("title is required")
	ErrInvalidPriority  = errors.New("priority must be one of High, Medium, Low")
	ErrInvalidStatus    = errors.New("status must be one of Pending, Completed")
)

// SortOldest selects ascending creation order when listing tasks
const SortOldest = "oldest"

// taskRelations are preloaded on every task returned to callers
var taskRelations = []string{"AssignedTo"}

// TaskService handles task business logic
type TaskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
	policy   policy.TaskPolicy
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, taskPolicy policy.TaskPolicy) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		policy:   taskPolicy,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	UserID     uint64
	Category   string
	Status     models.TaskStatus
	Priority   models.TaskPriority
	Search     string
	Sort       string
	Pagination utils.PaginationParams
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	CreatorID    uint64
	Title        string
	Description  string
	Category     string
	Priority     models.TaskPriority
	DueDate      *time.Time
	AssignedToID uint64
}

// UpdateTaskInput represents input for updating a task. Zero values leave
// the stored value untouched, so fields cannot be cleared through an update.
type UpdateTaskInput struct {
	Title        string
	Description  string
	Category     string
	Priority     models.TaskPriority
	Status       models.TaskStatus
	DueDate      *time.Time
	AssignedToID uint64
}

// ListTasks returns tasks the user created or is assigned to
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		ViewerID:    input.UserID,
		Category:    input.Category,
		Status:      input.Status,
		Priority:    input.Priority,
		Search:      input.Search,
		OldestFirst: input.Sort == SortOldest,
		Pagination:  input.Pagination,
	}

	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task visible to the actor. Tasks the actor may not see
// are reported as missing.
func (s *TaskService) GetTask(ctx context.Context, taskID, actorID uint64) (*models.Task, error) {
	task, err := s.findTask(ctx, taskID, taskRelations...)
	if err != nil {
		return nil, err
	}

	if !s.policy.CanView(actorID, task) {
		return nil, ErrTaskNotFound
	}

	return task, nil
}

// CreateTask validates input, allocates a task number and stores the task
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	priority := input.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}
	if !priority.Valid() {
		return nil, ErrInvalidPriority
	}

	var assignedTo *uint64
	if input.AssignedToID != 0 {
		if err := s.ensureUserExists(ctx, input.AssignedToID); err != nil {
			return nil, err
		}
		id := input.AssignedToID
		assignedTo = &id
	}

	task := &models.Task{
		UserID:       input.CreatorID,
		AssignedToID: assignedTo,
		Title:        title,
		Description:  input.Description,
		Category:     strings.TrimSpace(input.Category),
		Priority:     priority,
		Status:       models.TaskStatusPending,
		DueDate:      input.DueDate,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.taskRepo.FindByID(ctx, task.ID, taskRelations...)
}

// UpdateTask applies a partial update. Only the creator may update a task.
func (s *TaskService) UpdateTask(ctx context.Context, taskID, actorID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if !s.policy.CanModify(actorID, task) {
		return nil, ErrNotTaskCreator
	}

	if input.AssignedToID != 0 {
		if err := s.ensureUserExists(ctx, input.AssignedToID); err != nil {
			return nil, err
		}
	}
	if input.Priority != "" && !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}
	if input.Status != "" && !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		task.Title = title
	}
	if input.Description != "" {
		task.Description = input.Description
	}
	if category := strings.TrimSpace(input.Category); category != "" {
		task.Category = category
	}
	if input.Priority != "" {
		task.Priority = input.Priority
	}
	if input.Status != "" {
		task.Status = input.Status
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.AssignedToID != 0 {
		id := input.AssignedToID
		task.AssignedToID = &id
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.taskRepo.FindByID(ctx, task.ID, taskRelations...)
}

// DeleteTask deletes a task if the actor is the creator
func (s *TaskService) DeleteTask(ctx context.Context, taskID, actorID uint64) error {
	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return err
	}

	if !s.policy.CanDelete(actorID, task) {
		return ErrNotTaskCreator
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

func (s *TaskService) findTask(ctx context.Context, taskID uint64, preload ...string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// ensureUserExists verifies that an assignee refers to a registered user
func (s *TaskService) ensureUserExists(ctx context.Context, userID uint64) error {
	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to verify assignee: %w", err)
	}
	if !exists {
		return ErrAssigneeNotFound
	}
	return nil
}
