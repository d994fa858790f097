// Package policy decides who may act on which task.
package policy

import "github.com/yukikurage/task-tracker-api/internal/models"

// TaskPolicy encodes the ownership rules for tasks: the creator has full
// control, an assignee may only read.
type TaskPolicy struct{}

// NewTaskPolicy creates a TaskPolicy
func NewTaskPolicy() TaskPolicy {
	return TaskPolicy{}
}

// CanView reports whether the actor may read the task
func (TaskPolicy) CanView(actorID uint64, task *models.Task) bool {
	return task.UserID == actorID || task.IsAssignedTo(actorID)
}

// CanModify reports whether the actor may change the task
func (TaskPolicy) CanModify(actorID uint64, task *models.Task) bool {
	return task.UserID == actorID
}

// CanDelete reports whether the actor may delete the task
func (TaskPolicy) CanDelete(actorID uint64, task *models.Task) bool {
	return task.UserID == actorID
}
