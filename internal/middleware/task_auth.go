package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
)

// RequireTaskID parses the :id path parameter. Ownership is checked by the
// task service, which returns 404 for tasks the caller cannot see.
func RequireTaskID() gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || taskID == 0 {
			apierrors.BadRequest(c, "Invalid task ID")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTaskID, taskID)
		c.Next()
	}
}

// GetTaskID retrieves the task ID stored by RequireTaskID
func GetTaskID(c *gin.Context) (uint64, bool) {
	v, exists := c.Get(constants.ContextKeyTaskID)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}
