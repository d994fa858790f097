package repository

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/testutil"
	"github.com/yukikurage/task-tracker-api/internal/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newTask(title string, creatorID uint64) *models.Task {
	return &models.Task{
		Title:    title,
		UserID:   creatorID,
		Priority: models.TaskPriorityMedium,
		Status:   models.TaskStatusPending,
	}
}

func TestFormatTaskNumber(t *testing.T) {
	assert.Equal(t, "TASK-001", FormatTaskNumber(1))
	assert.Equal(t, "TASK-042", FormatTaskNumber(42))
	assert.Equal(t, "TASK-1234", FormatTaskNumber(1234))
}

func TestTaskRepository_CreateAssignsSequentialNumbers(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTaskRepository(db)
	user := testutil.CreateUser(t, db, "Alice", "alice@example.com")
	ctx := context.Background()

	first := newTask("first", user.ID)
	second := newTask("second", user.ID)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	assert.Equal(t, "TASK-001", first.TaskNumber)
	assert.Equal(t, "TASK-002", second.TaskNumber)
}

func TestTaskRepository_NumbersAreNotReusedAfterDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTaskRepository(db)
	user := testutil.CreateUser(t, db, "Alice", "alice@example.com")
	ctx := context.Background()

	first := newTask("first", user.ID)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Delete(ctx, first.ID))

	second := newTask("second", user.ID)
	require.NoError(t, repo.Create(ctx, second))
	assert.Equal(t, "TASK-002", second.TaskNumber)
}

// Regression: counting existing rows to derive the next number produced
// duplicates when two requests raced.
func TestTaskRepository_ConcurrentCreateYieldsUniqueNumbers(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTaskRepository(db)
	user := testutil.CreateUser(t, db, "Alice", "alice@example.com")

	const workers = 25
	var wg sync.WaitGroup
	numbers := make(chan string, workers)
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			task := newTask("parallel", user.ID)
			if err := repo.Create(context.Background(), task); err != nil {
				errs <- err
				return
			}
			numbers <- task.TaskNumber
		}()
	}
	wg.Wait()
	close(numbers)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	seen := make(map[string]struct{}, workers)
	for n := range numbers {
		_, dup := seen[n]
		assert.False(t, dup, "duplicate task number %s", n)
		seen[n] = struct{}{}
	}
	assert.Len(t, seen, workers)
}

func TestTaskRepository_SearchFoldsUnicodeCase(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "Alice", "alice@example.com")

	trip := newTask("ÉCOLE trip", user.ID)
	require.NoError(t, repo.Create(ctx, trip))
	require.NoError(t, repo.Create(ctx, newTask("Groceries", user.ID)))

	tasks, _, err := repo.List(ctx, TaskFilter{ViewerID: user.ID, Search: "école"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, trip.ID, tasks[0].ID)

	// renaming through Update refreshes the folded title
	trip.Title = "Über meeting"
	require.NoError(t, repo.Update(ctx, trip))

	tasks, _, err = repo.List(ctx, TaskFilter{ViewerID: user.ID, Search: "ÜBER"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Über meeting", tasks[0].Title)

	tasks, _, err = repo.List(ctx, TaskFilter{ViewerID: user.ID, Search: "école"})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTaskRepository_ListVisibilityAndFilters(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "Alice", "alice@example.com")
	bob := testutil.CreateUser(t, db, "Bob", "bob@example.com")
	carol := testutil.CreateUser(t, db, "Carol", "carol@example.com")

	own := newTask("Write report", alice.ID)
	own.Category = "work"
	own.Priority = models.TaskPriorityHigh
	require.NoError(t, repo.Create(ctx, own))

	assigned := newTask("Review budget", bob.ID)
	assigned.AssignedToID = &alice.ID
	assigned.Category = "finance"
	require.NoError(t, repo.Create(ctx, assigned))

	foreign := newTask("Write report for Carol", carol.ID)
	require.NoError(t, repo.Create(ctx, foreign))

	t.Run("creator or assignee only", func(t *testing.T) {
		tasks, total, err := repo.List(ctx, TaskFilter{ViewerID: alice.ID})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, tasks, 2)
		// newest first by default
		assert.Equal(t, assigned.ID, tasks[0].ID)
		require.NotNil(t, tasks[0].AssignedTo)
		assert.Equal(t, "Alice", tasks[0].AssignedTo.Name)
	})

	t.Run("oldest first", func(t *testing.T) {
		tasks, _, err := repo.List(ctx, TaskFilter{ViewerID: alice.ID, OldestFirst: true})
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, own.ID, tasks[0].ID)
	})

	t.Run("search stays within visible tasks", func(t *testing.T) {
		tasks, _, err := repo.List(ctx, TaskFilter{ViewerID: alice.ID, Search: "WRITE"})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, own.ID, tasks[0].ID)
	})

	t.Run("search on task number", func(t *testing.T) {
		tasks, _, err := repo.List(ctx, TaskFilter{ViewerID: alice.ID, Search: "task-002"})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, assigned.ID, tasks[0].ID)
	})

	t.Run("search treats wildcards literally", func(t *testing.T) {
		tasks, _, err := repo.List(ctx, TaskFilter{ViewerID: alice.ID, Search: "%"})
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("equality filters", func(t *testing.T) {
		tasks, _, err := repo.List(ctx, TaskFilter{ViewerID: alice.ID, Category: "finance"})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, assigned.ID, tasks[0].ID)

		tasks, _, err = repo.List(ctx, TaskFilter{ViewerID: alice.ID, Priority: models.TaskPriorityHigh})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, own.ID, tasks[0].ID)

		tasks, _, err = repo.List(ctx, TaskFilter{ViewerID: alice.ID, Status: models.TaskStatusCompleted})
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("pagination keeps total", func(t *testing.T) {
		tasks, total, err := repo.List(ctx, TaskFilter{
			ViewerID:   alice.ID,
			Pagination: utils.NewPaginationParams(2, 1),
		})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, tasks, 1)
		assert.Equal(t, own.ID, tasks[0].ID)
	})
}

func TestTaskRepository_UpdateKeepsCreator(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "Alice", "alice@example.com")
	bob := testutil.CreateUser(t, db, "Bob", "bob@example.com")

	task := newTask("draft", alice.ID)
	require.NoError(t, repo.Create(ctx, task))

	loaded, err := repo.FindByID(ctx, task.ID, "AssignedTo")
	require.NoError(t, err)
	due := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	loaded.AssignedToID = &bob.ID
	loaded.DueDate = &due
	require.NoError(t, repo.Update(ctx, loaded))

	reloaded, err := repo.FindByID(ctx, task.ID, "AssignedTo")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, reloaded.UserID)
	require.NotNil(t, reloaded.AssignedTo)
	assert.Equal(t, bob.ID, reloaded.AssignedTo.ID)
	require.NotNil(t, reloaded.DueDate)
	assert.True(t, due.Equal(*reloaded.DueDate))
}

func TestTaskRepository_DeleteMissing(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewTaskRepository(db)

	err := repo.Delete(context.Background(), 404)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTaskRepository_CreateFailsWhenSequenceUnavailable(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "sequences"`)).
		WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback()

	repo := NewTaskRepository(db)
	err = repo.Create(context.Background(), newTask("doomed", 1))

	assert.ErrorIs(t, err, ErrAllocateTaskNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}
