package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/yukikurage/task-tracker-api/internal/models"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID           uint64              `json:"id"`
	TaskNumber   string              `json:"task_number"`
	User         uint64              `json:"user"`
	AssignedToID *uint64             `json:"assigned_to_id"`
	AssignedTo   *UserDTO            `json:"assigned_to"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Category     string              `json:"category"`
	Priority     models.TaskPriority `json:"priority"`
	Status       models.TaskStatus   `json:"status"`
	DueDate      *time.Time          `json:"due_date"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:           task.ID,
		TaskNumber:   task.TaskNumber,
		User:         task.UserID,
		AssignedToID: task.AssignedToID,
		Title:        task.Title,
		Description:  task.Description,
		Category:     task.Category,
		Priority:     task.Priority,
		Status:       task.Status,
		DueDate:      task.DueDate,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}

	// Include assignee if preloaded
	if task.AssignedTo != nil {
		assignee := ToUserDTO(*task.AssignedTo)
		dto.AssignedTo = &assignee
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks, never returning nil
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	result := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		result[i] = ToTaskDTO(task)
	}
	return result
}

// FlexibleID accepts a user id as a JSON number, a numeric string, an empty
// string or null. The last two decode to zero, meaning "not provided".
type FlexibleID uint64

// UnmarshalJSON implements json.Unmarshaler
func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		raw = s
	}

	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", raw)
	}
	*id = FlexibleID(v)
	return nil
}

// Date accepts RFC 3339 timestamps or plain YYYY-MM-DD dates. Empty strings
// and null decode to an unset date.
type Date struct {
	Time  time.Time
	Valid bool
}

const dateOnlyLayout = "2006-01-02"

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Date{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}

	for _, layout := range []string{time.RFC3339Nano, dateOnlyLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			*d = Date{Time: t, Valid: true}
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

// Ptr returns the date as a pointer, nil when unset
func (d Date) Ptr() *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}

// CreateTaskRequest is the body of POST /tasks
type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Priority    string     `json:"priority"`
	DueDate     Date       `json:"due_date"`
	AssignedTo  FlexibleID `json:"assigned_to"`
}

// UpdateTaskRequest is the body of PUT /tasks/:id. Omitted or empty fields
// keep their current value.
type UpdateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueDate     Date       `json:"due_date"`
	AssignedTo  FlexibleID `json:"assigned_to"`
}

// SuggestTasksRequest is the body of POST /tasks/suggest
type SuggestTasksRequest struct {
	Text string `json:"text" binding:"required"`
}
