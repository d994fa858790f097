package database_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-tracker-api/internal/config"
	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/testutil"
	"github.com/yukikurage/task-tracker-api/internal/utils"
)

func TestDialector(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			d, err := database.Dialector(&config.Config{DBDriver: driver, DBPath: "x.db"})
			require.NoError(t, err)
			assert.Equal(t, driver, d.Name())
		})
	}

	_, err := database.Dialector(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestMigrate_SeedsSequenceAfterExistingTasks(t *testing.T) {
	db := testutil.NewTestDB(t)
	user := testutil.CreateUser(t, db, "Alice", "alice@example.com")

	// Simulate rows that predate the sequence table
	require.NoError(t, db.Where("name = ?", constants.TaskSequenceName).Delete(&models.Sequence{}).Error)
	for i := 0; i < 3; i++ {
		task := models.Task{
			TaskNumber: fmt.Sprintf("LEGACY-%d", i+1),
			UserID:     user.ID,
			Title:      "legacy",
			Priority:   models.TaskPriorityMedium,
			Status:     models.TaskStatusPending,
		}
		require.NoError(t, db.Create(&task).Error)
	}

	require.NoError(t, database.Migrate(db))

	var seq models.Sequence
	require.NoError(t, db.Where("name = ?", constants.TaskSequenceName).Take(&seq).Error)
	assert.Equal(t, int64(3), seq.LastValue)

	// Running again leaves the counter alone
	require.NoError(t, db.Model(&seq).Update("last_value", 10).Error)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, db.Where("name = ?", constants.TaskSequenceName).Take(&seq).Error)
	assert.Equal(t, int64(10), seq.LastValue)
}

func TestMigrate_BackfillsTitleKeys(t *testing.T) {
	db := testutil.NewTestDB(t)
	user := testutil.CreateUser(t, db, "Alice", "alice@example.com")

	task := models.Task{
		TaskNumber: "LEGACY-1",
		UserID:     user.ID,
		Title:      "ÉCOLE trip",
		Priority:   models.TaskPriorityMedium,
		Status:     models.TaskStatusPending,
	}
	require.NoError(t, db.Create(&task).Error)
	// rows written before the column existed have an empty key
	require.NoError(t, db.Model(&task).UpdateColumn("title_key", "").Error)

	require.NoError(t, database.Migrate(db))

	var got models.Task
	require.NoError(t, db.First(&got, task.ID).Error)
	assert.Equal(t, "école trip", got.TitleKey)
}

func TestPaginate(t *testing.T) {
	db := testutil.NewTestDB(t)
	for _, name := range []string{"a", "b", "c"} {
		testutil.CreateUser(t, db, name, name+"@example.com")
	}

	var users []models.User
	require.NoError(t, db.Scopes(database.Paginate(utils.PaginationParams{})).Find(&users).Error)
	assert.Len(t, users, 3)

	require.NoError(t, db.Order("id").Scopes(database.Paginate(utils.NewPaginationParams(2, 2))).Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "c", users[0].Name)
}
