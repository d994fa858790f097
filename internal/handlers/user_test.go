package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-tracker-api/internal/dto"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/services"
	"github.com/yukikurage/task-tracker-api/internal/testutil"
	"go.uber.org/zap"
)

func TestUserHandler_ListUsers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewTestDB(t)
	testutil.CreateUser(t, db, "Zoe", "zoe@example.com")
	testutil.CreateUser(t, db, "Adam", "adam@example.com")

	handler := NewUserHandler(services.NewUserService(repository.NewUserRepository(db)), zap.NewNop())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/users", nil)

	handler.ListUsers(c)

	require.Equal(t, http.StatusOK, w.Code)
	var users []dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 2)
	assert.Equal(t, "Adam", users[0].Name)
	assert.Equal(t, "Zoe", users[1].Name)
}
