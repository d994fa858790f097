package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-tracker-api/internal/models"
)

func TestFlexibleID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input   string
		want    FlexibleID
		wantErr bool
	}{
		{`7`, 7, false},
		{`"12"`, 12, false},
		{`""`, 0, false},
		{`null`, 0, false},
		{`"abc"`, 0, true},
		{`-3`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var id FlexibleID
			err := json.Unmarshal([]byte(tt.input), &id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestDate_UnmarshalJSON(t *testing.T) {
	var req UpdateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"due_date": "2025-03-10"}`), &req))
	require.True(t, req.DueDate.Valid)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), req.DueDate.Time)

	require.NoError(t, json.Unmarshal([]byte(`{"due_date": "2025-03-10T15:04:05+02:00"}`), &req))
	assert.Equal(t, 13, req.DueDate.Time.UTC().Hour())

	req = UpdateTaskRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"due_date": null}`), &req))
	assert.Nil(t, req.DueDate.Ptr())

	assert.Error(t, json.Unmarshal([]byte(`{"due_date": "next tuesday"}`), &req))
}

func TestToTaskDTO(t *testing.T) {
	assignee := uint64(2)
	task := models.Task{
		ID:           1,
		TaskNumber:   "TASK-001",
		UserID:       1,
		AssignedToID: &assignee,
		AssignedTo:   &models.User{ID: 2, Name: "Bob", Email: "bob@example.com"},
		Title:        "Write tests",
	}

	got := ToTaskDTO(task)
	assert.Equal(t, uint64(1), got.User)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, "Bob", got.AssignedTo.Name)

	assert.NotNil(t, ToTaskDTOs(nil))
}
