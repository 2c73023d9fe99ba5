package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	identitydomain "ticktask-backend/internal/identity/domain"
	"ticktask-backend/internal/task/domain"
	"ticktask-backend/internal/testutil"
	"ticktask-backend/internal/visibility"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newTask(title, assigneeID string, deadline *time.Time, priority domain.Priority) *domain.Task {
	return &domain.Task{
		Title:      title,
		CreatorID:  assigneeID,
		AssigneeID: assigneeID,
		OwnerID:    assigneeID,
		Deadline:   deadline,
		Priority:   priority,
	}
}

func TestCreate_DerivesStatus(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormTaskRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "alice", identitydomain.RoleMember)

	past := time.Now().UTC().Add(-72 * time.Hour)
	task := newTask("late", u.ID, &past, domain.PriorityHigh)
	task.Status = domain.TaskStatusUpcoming
	require.NoError(t, repo.Create(ctx, task))

	got, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusOverdue, got.Status)

	got.IsCompleted = true
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, got.Status)
}

func TestFindByID_Missing(t *testing.T) {
	repo := NewGormTaskRepository(testutil.NewDB(t))
	got, err := repo.FindByID(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestList_ScopeAndFilters(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormTaskRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "alice", identitydomain.RoleMember)
	b := testutil.CreateUser(t, db, "bob", identitydomain.RoleMember)

	future := time.Now().UTC().Add(96 * time.Hour)
	require.NoError(t, repo.Create(ctx, newTask("a1", a.ID, &future, domain.PriorityHigh)))
	require.NoError(t, repo.Create(ctx, newTask("a2", a.ID, nil, domain.PriorityLow)))
	require.NoError(t, repo.Create(ctx, newTask("b1", b.ID, nil, domain.PriorityMedium)))

	tasks, total, err := repo.List(ctx, visibility.Only(a.ID), ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, task := range tasks {
		assert.Equal(t, a.ID, task.AssigneeID)
	}

	tasks, total, err = repo.List(ctx, visibility.Only(), ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, tasks)

	high := domain.PriorityHigh
	tasks, _, err = repo.List(ctx, visibility.Everything(), ListFilter{Priority: &high})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "a1", tasks[0].Title)

	upcoming := domain.TaskStatusUpcoming
	tasks, _, err = repo.List(ctx, visibility.Everything(), ListFilter{Status: &upcoming})
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	tasks, total, err = repo.List(ctx, visibility.Everything(), ListFilter{Ordering: "priority", Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, tasks, 2)
	assert.Equal(t, domain.PriorityHigh, tasks[0].Priority)
	assert.Equal(t, domain.PriorityMedium, tasks[1].Priority)
}

func TestDelete_RemovesComments(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormTaskRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "alice", identitydomain.RoleMember)

	task := newTask("t", u.ID, nil, domain.PriorityLow)
	require.NoError(t, repo.Create(ctx, task))
	require.NoError(t, repo.CreateComment(ctx, &domain.Comment{TaskID: task.ID, AuthorID: u.ID, Content: "hi"}))

	require.NoError(t, repo.Delete(ctx, task.ID))

	var count int64
	require.NoError(t, db.Model(&domain.Comment{}).Where("task_id = ?", task.ID).Count(&count).Error)
	assert.Zero(t, count)
	got, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMarkOverdue(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormTaskRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "alice", identitydomain.RoleMember)

	soon := time.Now().UTC().Add(time.Hour)
	task := newTask("t", u.ID, &soon, domain.PriorityLow)
	require.NoError(t, repo.Create(ctx, task))

	n, err := repo.MarkOverdue(ctx, u.ID, time.Now().UTC().Add(2*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusOverdue, got.Status)
}

func TestCountByStatus(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormTaskRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "alice", identitydomain.RoleMember)

	require.NoError(t, repo.Create(ctx, newTask("a", u.ID, nil, domain.PriorityHigh)))
	require.NoError(t, repo.Create(ctx, newTask("b", u.ID, nil, domain.PriorityHigh)))
	done := newTask("c", u.ID, nil, domain.PriorityLow)
	done.IsCompleted = true
	require.NoError(t, repo.Create(ctx, done))

	rows, err := repo.CountByStatus(ctx, []string{u.ID})
	require.NoError(t, err)
	counts := map[domain.TaskStatus]int{}
	for _, r := range rows {
		assert.Equal(t, u.ID, r.AssigneeID)
		counts[r.Status] += r.Count
	}
	assert.Equal(t, 2, counts[domain.TaskStatusInProgress])
	assert.Equal(t, 1, counts[domain.TaskStatusCompleted])
}

func TestFindDueBetween(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormTaskRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "alice", identitydomain.RoleMember)

	day := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 2)
	inside := day.Add(10 * time.Hour)
	outside := day.Add(30 * time.Hour)
	require.NoError(t, repo.Create(ctx, newTask("due", u.ID, &inside, domain.PriorityHigh)))
	require.NoError(t, repo.Create(ctx, newTask("later", u.ID, &outside, domain.PriorityHigh)))
	done := newTask("done", u.ID, &inside, domain.PriorityHigh)
	done.IsCompleted = true
	require.NoError(t, repo.Create(ctx, done))

	tasks, err := repo.FindDueBetween(ctx, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "due", tasks[0].Title)
}

func TestRecentComments(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormTaskRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "alice", identitydomain.RoleMember)

	task := newTask("t", u.ID, nil, domain.PriorityLow)
	require.NoError(t, repo.Create(ctx, task))
	base := time.Now().UTC().Add(-time.Hour)
	for i, text := range []string{"first", "second", "third"} {
		c := &domain.Comment{ID: text, TaskID: task.ID, AuthorID: u.ID, Content: text}
		require.NoError(t, db.Create(c).Error)
		require.NoError(t, db.Model(c).Update("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}

	recent, err := repo.RecentComments(ctx, []string{task.ID}, 2)
	require.NoError(t, err)
	require.Len(t, recent[task.ID], 2)
	assert.Equal(t, "third", recent[task.ID][0].Content)
	assert.Equal(t, "second", recent[task.ID][1].Content)

	all, err := repo.ListComments(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "first", all[0].Content)
}

func TestFindByID_DatabaseError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "tasks"`)).WillReturnError(assert.AnError)

	got, err := NewGormTaskRepository(db).FindByID(context.Background(), "t1")
	assert.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidOrdering(t *testing.T) {
	assert.True(t, ValidOrdering("-deadline"))
	assert.False(t, ValidOrdering("title; DROP TABLE tasks"))
}
