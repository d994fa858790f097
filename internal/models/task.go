package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type TaskPriority string

const (
	TaskPriorityHigh   TaskPriority = "High"
	TaskPriorityMedium TaskPriority = "Medium"
	TaskPriorityLow    TaskPriority = "Low"
)

// Valid reports whether p is one of the known priorities
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityHigh, TaskPriorityMedium, TaskPriorityLow:
		return true
	}
	return false
}

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "Pending"
	TaskStatusCompleted TaskStatus = "Completed"
)

// Valid reports whether s is one of the known statuses
func (s TaskStatus) Valid() bool {
	return s == TaskStatusPending || s == TaskStatusCompleted
}

type Task struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	TaskNumber   string         `gorm:"type:varchar(32);uniqueIndex;not null" json:"task_number"`
	UserID       uint64         `gorm:"not null;index" json:"user"`
	AssignedToID *uint64        `gorm:"index" json:"assigned_to_id"`
	Title        string         `gorm:"type:varchar(255);not null" json:"title"`
	TitleKey     string         `gorm:"type:varchar(255);not null;default:''" json:"-"`
	Description  string         `gorm:"type:text" json:"description"`
	Category     string         `gorm:"type:varchar(100);index" json:"category"`
	Priority     TaskPriority   `gorm:"type:varchar(10);not null;default:'Medium'" json:"priority"`
	Status       TaskStatus     `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`
	DueDate      *time.Time     `json:"due_date"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Creator    User  `gorm:"foreignKey:UserID" json:"-"`
	AssignedTo *User `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
}

// BeforeSave keeps TitleKey in sync with Title. Case folding happens in Go
// because SQLite's LOWER only folds ASCII.
func (t *Task) BeforeSave(*gorm.DB) error {
	t.TitleKey = strings.ToLower(t.Title)
	return nil
}

// IsAssignedTo reports whether userID is the task's assignee
func (t *Task) IsAssignedTo(userID uint64) bool {
	return t.AssignedToID != nil && *t.AssignedToID == userID
}
