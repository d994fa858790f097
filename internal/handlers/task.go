package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/metrics"
	"github.com/yukikurage/task-tracker-api/internal/middleware"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/services"
	"github.com/yukikurage/task-tracker-api/internal/utils"
	"go.uber.org/zap"
)

// TaskHandler serves the task endpoints
type TaskHandler struct {
	taskService *services.TaskService
	suggestions *services.SuggestionService
	logger      *zap.Logger
}

// NewTaskHandler creates a TaskHandler. suggestions may be nil when no
// OpenAI key is configured.
func NewTaskHandler(taskService *services.TaskService, suggestions *services.SuggestionService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		suggestions: suggestions,
		logger:      logger,
	}
}

// ListTasks returns tasks the current user created or is assigned to
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	input := services.ListTasksInput{
		UserID:   userID,
		Category: c.Query("category"),
		Status:   models.TaskStatus(c.Query("status")),
		Priority: models.TaskPriority(c.Query("priority")),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
	}
	if params, ok := utils.GetPaginationParams(c); ok {
		input.Pagination = params
	}

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), input)
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.Header(constants.HeaderTotalCount, strconv.FormatInt(total, 10))
	c.JSON(http.StatusOK, dto.ToTaskDTOs(tasks))
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, taskID, ok := h.identify(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), taskID, userID)
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task owned by the current user
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		CreatorID:    userID,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Priority:     models.TaskPriority(req.Priority),
		DueDate:      req.DueDate.Ptr(),
		AssignedToID: uint64(req.AssignedTo),
	})
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	metrics.TasksCreatedTotal.Inc()
	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask applies a partial update; empty fields keep their value
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, taskID, ok := h.identify(c)
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), taskID, userID, services.UpdateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Priority:     models.TaskPriority(req.Priority),
		Status:       models.TaskStatus(req.Status),
		DueDate:      req.DueDate.Ptr(),
		AssignedToID: uint64(req.AssignedTo),
	})
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task created by the current user
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, taskID, ok := h.identify(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), taskID, userID); err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

// SuggestTasks extracts task drafts from free text without storing them
func (h *TaskHandler) SuggestTasks(c *gin.Context) {
	if h.suggestions == nil {
		apierrors.ServiceUnavailable(c, "Task suggestions are not configured")
		return
	}

	var req dto.SuggestTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	drafts, err := h.suggestions.Suggest(c.Request.Context(), req.Text)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"tasks": drafts})
	case errors.Is(err, services.ErrNoSuggestions):
		c.JSON(http.StatusOK, gin.H{"tasks": []services.TaskDraft{}})
	case errors.Is(err, services.ErrSuggestionTextRequired):
		apierrors.BadRequest(c, err.Error())
	default:
		h.logger.Error("task suggestion failed",
			zap.Error(err),
			zap.String("request_id", middleware.GetRequestID(c)))
		apierrors.InternalError(c, "Failed to generate suggestions")
	}
}

// identify reads the caller and the task id set by the auth middlewares
func (h *TaskHandler) identify(c *gin.Context) (userID, taskID uint64, ok bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return 0, 0, false
	}

	taskID, exists = middleware.GetTaskID(c)
	if !exists {
		apierrors.BadRequest(c, "Invalid task ID")
		return 0, 0, false
	}

	return userID, taskID, true
}

func (h *TaskHandler) respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrNotTaskCreator):
		apierrors.Forbidden(c, "Not authorized")
	case errors.Is(err, services.ErrAssigneeNotFound):
		apierrors.BadRequest(c, "Assigned user not found")
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrInvalidStatus):
		apierrors.BadRequest(c, err.Error())
	default:
		h.logger.Error("task request failed",
			zap.Error(err),
			zap.String("request_id", middleware.GetRequestID(c)))
		apierrors.InternalError(c, "")
	}
}
