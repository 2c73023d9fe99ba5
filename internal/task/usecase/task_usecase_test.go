package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	activitydomain "ticktask-backend/internal/activity/domain"
	activityrepo "ticktask-backend/internal/activity/repository"
	activityuc "ticktask-backend/internal/activity/usecase"
	authdomain "ticktask-backend/internal/auth/domain"
	authrepo "ticktask-backend/internal/auth/repository"
	identitydomain "ticktask-backend/internal/identity/domain"
	identityrepo "ticktask-backend/internal/identity/repository"
	identityuc "ticktask-backend/internal/identity/usecase"
	"ticktask-backend/internal/task/domain"
	"ticktask-backend/internal/task/repository"
	"ticktask-backend/internal/testutil"
	"ticktask-backend/internal/visibility"
	"ticktask-backend/pkg/apperror"
	"ticktask-backend/pkg/fcm"
	"ticktask-backend/pkg/mailer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeNotifier struct {
	emails []mailer.Message
	pushes int
}

func (f *fakeNotifier) Email(_ context.Context, msg mailer.Message) { f.emails = append(f.emails, msg) }

func (f *fakeNotifier) Push(context.Context, string, fcm.Notification) { f.pushes++ }

func (f *fakeNotifier) recipients() []string {
	var to []string
	for _, m := range f.emails {
		to = append(to, m.To...)
	}
	return to
}

type fakeStore struct {
	objects   map[string]string
	calls     int
	deleteErr error
	existsErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]string{}}
}

func (s *fakeStore) Put(_ context.Context, key string, body io.Reader, _ string) error {
	s.calls++
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.objects[key] = string(b)
	return nil
}

func (s *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	s.calls++
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.objects[key]
	return ok, nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.calls++
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key)
	return nil
}

type fixture struct {
	db       *gorm.DB
	uc       TaskUsecase
	notifier *fakeNotifier
	store    *fakeStore
	admin    *authdomain.User
	leader   *authdomain.User
	alice    *authdomain.User
	bob      *authdomain.User
	outsider *authdomain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newClockedFixture(t, nil)
}

func newClockedFixture(t *testing.T, clock Clock) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	log := testutil.Logger()

	f := &fixture{db: db, notifier: &fakeNotifier{}, store: newFakeStore()}
	f.admin = testutil.CreateUser(t, db, "admin", identitydomain.RoleAdmin)
	f.leader = testutil.CreateUser(t, db, "leader", identitydomain.RoleLeader)
	f.alice = testutil.CreateUser(t, db, "alice", identitydomain.RoleMember)
	f.bob = testutil.CreateUser(t, db, "bob", identitydomain.RoleMember)
	f.outsider = testutil.CreateUser(t, db, "outsider", identitydomain.RoleMember)
	testutil.CreateGroup(t, db, "team", f.leader, f.alice, f.bob)

	users := authrepo.NewUserRepository(db)
	identity := identityuc.NewIdentityUsecase(identityrepo.NewGormGroupRepository(db), users, nil, log)
	resolver := visibility.NewResolver(identity)
	activities := activityuc.NewActivityUsecase(activityrepo.NewGormActivityRepository(db), resolver, nil, f.notifier, log)

	f.uc = NewTaskUsecase(Deps{
		Tasks:         repository.NewGormTaskRepository(db),
		Users:         users,
		Access:        resolver,
		Activities:    activities,
		Notifier:      f.notifier,
		Storage:       f.store,
		StoragePrefix: "tasks/",
		Clock:         clock,
		Logger:        log,
	})
	return f
}

func (f *fixture) activities(t *testing.T) []activitydomain.Activity {
	t.Helper()
	var rows []activitydomain.Activity
	require.NoError(t, f.db.Order("rowid ASC").Find(&rows).Error)
	return rows
}

func (f *fixture) create(t *testing.T, actor *authdomain.User, input CreateTaskInput) *TaskView {
	t.Helper()
	res, err := f.uc.Create(context.Background(), actor, input)
	require.NoError(t, err)
	require.NotEmpty(t, res.Tasks)
	return res.Tasks[0]
}

func deadlineIn(d time.Duration) *string {
	s := time.Now().UTC().Add(d).Format(time.RFC3339)
	return &s
}

func strPtr(s string) *string { return &s }

func TestCreate_DerivesStatus(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		deadline *string
		want     domain.TaskStatus
	}{
		{"no deadline", nil, domain.TaskStatusInProgress},
		{"future deadline", deadlineIn(72 * time.Hour), domain.TaskStatusUpcoming},
		{"past deadline", deadlineIn(-72 * time.Hour), domain.TaskStatusOverdue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := f.create(t, f.alice, CreateTaskInput{Title: "Write report", Deadline: tt.deadline})
			assert.Equal(t, tt.want, task.Status)
			assert.Equal(t, domain.PriorityMedium, task.Priority)
		})
	}
}

func TestCreate_EmptyAssigneesCreatesOneTask(t *testing.T) {
	tests := []struct {
		name  string
		actor func(f *fixture) *authdomain.User
	}{
		{"leader", func(f *fixture) *authdomain.User { return f.leader }},
		{"member", func(f *fixture) *authdomain.User { return f.alice }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			actor := tt.actor(f)

			res, err := f.uc.Create(context.Background(), actor, CreateTaskInput{Title: "Plan sprint", AssigneeIDs: []string{}})
			require.NoError(t, err)
			require.Len(t, res.Tasks, 1)
			assert.Equal(t, actor.ID, res.Tasks[0].AssigneeID)
			assert.Equal(t, actor.ID, res.Tasks[0].CreatorID)
			assert.Equal(t, actor.ID, res.Tasks[0].OwnerID)

			acts := f.activities(t)
			require.Len(t, acts, 1)
			assert.Equal(t, "Created task: Plan sprint", acts[0].Action)
			assert.Empty(t, f.notifier.emails)
		})
	}
}

func TestStatus_UsesUsecaseClock(t *testing.T) {
	later := time.Now().UTC().Add(72 * time.Hour)
	f := newClockedFixture(t, func() time.Time { return later })
	ctx := context.Background()

	task := f.create(t, f.alice, CreateTaskInput{Title: "Clocked", Deadline: deadlineIn(48 * time.Hour)})
	assert.Equal(t, domain.TaskStatusOverdue, task.Status)

	updated, err := f.uc.Update(ctx, f.alice, task.ID, UpdateTaskInput{Deadline: deadlineIn(96 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusUpcoming, updated.Status)

	var stored domain.Task
	require.NoError(t, f.db.First(&stored, "id = ?", task.ID).Error)
	assert.Equal(t, domain.TaskStatusUpcoming, stored.Status)
}

func TestCreate_MultipleAssignees(t *testing.T) {
	f := newFixture(t)

	res, err := f.uc.Create(context.Background(), f.leader, CreateTaskInput{
		Title:       "Review PR",
		Priority:    "High",
		AssigneeIDs: []string{f.alice.ID, f.bob.ID, f.alice.ID},
	})
	require.NoError(t, err)
	require.Len(t, res.Tasks, 2)
	assert.Empty(t, res.Failures)
	for _, task := range res.Tasks {
		assert.Equal(t, f.leader.ID, task.CreatorID)
		assert.Equal(t, f.leader.ID, task.OwnerID)
		assert.Equal(t, "leader", task.CreatorUsername)
		assert.Equal(t, domain.PriorityHigh, task.Priority)
	}

	acts := f.activities(t)
	require.Len(t, acts, 4)
	var received int
	for _, a := range acts {
		if a.UserID == f.leader.ID {
			assert.True(t, strings.HasPrefix(a.Action, "Assigned task 'Review PR' to "))
			assert.Nil(t, a.SourceUserID)
			continue
		}
		received++
		assert.Equal(t, "You were assigned a new task: Review PR", a.Action)
		require.NotNil(t, a.SourceUserID)
		assert.Equal(t, f.leader.ID, *a.SourceUserID)
	}
	assert.Equal(t, 2, received)
	assert.ElementsMatch(t, []string{f.alice.Email, f.bob.Email}, f.notifier.recipients())
}

func TestCreate_MemberIsForcedToSelf(t *testing.T) {
	f := newFixture(t)

	res, err := f.uc.Create(context.Background(), f.alice, CreateTaskInput{
		Title:       "Sneaky",
		AssigneeIDs: []string{f.bob.ID},
	})
	require.NoError(t, err)
	require.Len(t, res.Tasks, 1)
	assert.Equal(t, f.alice.ID, res.Tasks[0].AssigneeID)

	acts := f.activities(t)
	require.Len(t, acts, 1)
	assert.Equal(t, f.alice.ID, acts[0].UserID)
	assert.Equal(t, []string{f.alice.Email}, f.notifier.recipients())
}

func TestCreate_UnknownAssigneeFailsOnlyThatEntry(t *testing.T) {
	f := newFixture(t)

	res, err := f.uc.Create(context.Background(), f.admin, CreateTaskInput{
		Title:       "Partial",
		AssigneeIDs: []string{f.alice.ID, "missing"},
	})
	require.NoError(t, err)
	require.Len(t, res.Tasks, 1)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "missing", res.Failures[0].AssigneeID)

	_, err = f.uc.Create(context.Background(), f.admin, CreateTaskInput{Title: "None", AssigneeIDs: []string{"missing"}})
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Create(ctx, f.alice, CreateTaskInput{Title: "  "})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	_, err = f.uc.Create(ctx, f.alice, CreateTaskInput{Title: "x", Priority: "Urgent"})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	_, err = f.uc.Create(ctx, f.alice, CreateTaskInput{Title: "x", Deadline: strPtr("tomorrow")})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestList_Scope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, f.alice, CreateTaskInput{Title: "alice task"})
	f.create(t, f.bob, CreateTaskInput{Title: "bob task"})
	f.create(t, f.outsider, CreateTaskInput{Title: "outsider task"})

	titles := func(actor *authdomain.User) []string {
		views, total, err := f.uc.List(ctx, actor, ListFilter{})
		require.NoError(t, err)
		assert.EqualValues(t, len(views), total)
		var out []string
		for _, v := range views {
			out = append(out, v.Title)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"alice task"}, titles(f.alice))
	assert.ElementsMatch(t, []string{"alice task", "bob task"}, titles(f.leader))
	assert.ElementsMatch(t, []string{"alice task", "bob task", "outsider task"}, titles(f.admin))
}

func TestList_FiltersAndPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, f.alice, CreateTaskInput{Title: "a", Priority: "High"})
	f.create(t, f.alice, CreateTaskInput{Title: "b", Priority: "Low"})
	f.create(t, f.alice, CreateTaskInput{Title: "c", Priority: "High", Deadline: deadlineIn(48 * time.Hour)})

	views, total, err := f.uc.List(ctx, f.alice, ListFilter{Priority: "High"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, views, 2)

	views, total, err = f.uc.List(ctx, f.alice, ListFilter{Status: "upcoming"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "c", views[0].Title)

	views, total, err = f.uc.List(ctx, f.alice, ListFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, views, 1)

	_, _, err = f.uc.List(ctx, f.alice, ListFilter{Status: "all"})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
	_, _, err = f.uc.List(ctx, f.alice, ListFilter{Ordering: "title"})
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
}

func TestGet_Visibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, f.alice, CreateTaskInput{Title: "private"})

	_, err := f.uc.Get(ctx, f.outsider, task.ID)
	assert.True(t, apperror.Is(err, apperror.CodeForbidden))

	view, err := f.uc.Get(ctx, f.leader, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", view.AssigneeUsername)

	_, err = f.uc.Get(ctx, f.alice, "missing")
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestUpdate_DescriptionOnly(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, f.alice, CreateTaskInput{Title: "Docs", Deadline: deadlineIn(72 * time.Hour)})
	f.notifier.emails = nil
	before := len(f.activities(t))

	_, err := f.uc.Update(context.Background(), f.alice, task.ID, UpdateTaskInput{Description: strPtr("new text")})
	require.NoError(t, err)

	acts := f.activities(t)[before:]
	require.Len(t, acts, 1)
	assert.Equal(t, "Task 'Docs' – changed description", acts[0].Action)
	assert.Empty(t, f.notifier.emails)
}

func TestUpdate_NoChangesLogsNothing(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, f.alice, CreateTaskInput{Title: "Same"})
	before := len(f.activities(t))

	_, err := f.uc.Update(context.Background(), f.alice, task.ID, UpdateTaskInput{Title: strPtr("Same")})
	require.NoError(t, err)
	assert.Len(t, f.activities(t), before)
}

func TestUpdate_StatusChangeNotifiesCounterpart(t *testing.T) {
	f := newFixture(t)
	res, err := f.uc.Create(context.Background(), f.leader, CreateTaskInput{
		Title:       "Ship",
		Deadline:    deadlineIn(72 * time.Hour),
		AssigneeIDs: []string{f.alice.ID},
	})
	require.NoError(t, err)
	task := res.Tasks[0]
	require.Equal(t, domain.TaskStatusUpcoming, task.Status)
	f.notifier.emails = nil
	before := len(f.activities(t))

	view, err := f.uc.Update(context.Background(), f.alice, task.ID, UpdateTaskInput{Status: strPtr("completed")})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, view.Status)
	assert.True(t, view.IsCompleted)

	assert.Equal(t, []string{f.leader.Email}, f.notifier.recipients())
	acts := f.activities(t)[before:]
	require.Len(t, acts, 1)
	assert.Equal(t, "Task 'Ship' – changed status from upcoming to completed", acts[0].Action)
}

func TestUpdate_ByLeaderLogsForAssignee(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, f.alice, CreateTaskInput{Title: "Draft"})
	before := len(f.activities(t))

	_, err := f.uc.Update(context.Background(), f.leader, task.ID, UpdateTaskInput{Priority: strPtr("Low")})
	require.NoError(t, err)

	acts := f.activities(t)[before:]
	require.Len(t, acts, 2)
	byUser := map[string]activitydomain.Activity{}
	for _, a := range acts {
		byUser[a.UserID] = a
	}
	assert.Equal(t, "Task 'Draft' – changed priority from Medium to Low", byUser[f.leader.ID].Action)
	assert.Equal(t, "Task 'Draft' was modified – changed priority from Medium to Low", byUser[f.alice.ID].Action)
	require.NotNil(t, byUser[f.alice.ID].SourceUserID)
	assert.Equal(t, f.leader.ID, *byUser[f.alice.ID].SourceUserID)
}

func TestUpdate_Forbidden(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, f.alice, CreateTaskInput{Title: "Mine"})

	_, err := f.uc.Update(context.Background(), f.outsider, task.ID, UpdateTaskInput{Title: strPtr("Theirs")})
	assert.True(t, apperror.Is(err, apperror.CodeForbidden))
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, f.alice, CreateTaskInput{Title: "Temp"})
	before := len(f.activities(t))

	require.NoError(t, f.uc.Delete(ctx, f.alice, task.ID))

	acts := f.activities(t)[before:]
	require.Len(t, acts, 1)
	assert.Equal(t, "Deleted task: 'Temp'", acts[0].Action)

	_, err := f.uc.Get(ctx, f.alice, task.ID)
	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
}

func TestAttachments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, f.alice, CreateTaskInput{Title: "With file"})

	view, err := f.uc.UploadAttachment(ctx, f.alice, task.ID, "notes.txt", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(view.Attachment, "tasks/"+task.ID+"/"))
	assert.Equal(t, "hello", f.store.objects[view.Attachment])

	view, err = f.uc.RemoveAttachment(ctx, f.alice, task.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Attachment)
	assert.Empty(t, f.store.objects)
}

func TestRemoveAttachment_NoneSkipsStorage(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, f.alice, CreateTaskInput{Title: "Bare"})

	view, err := f.uc.RemoveAttachment(context.Background(), f.alice, task.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Attachment)
	assert.Zero(t, f.store.calls)
}

func TestRemoveAttachment_StorageErrorsAreSwallowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, f.alice, CreateTaskInput{Title: "Flaky"})
	_, err := f.uc.UploadAttachment(ctx, f.alice, task.ID, "a.pdf", "application/pdf", strings.NewReader("pdf"))
	require.NoError(t, err)

	f.store.deleteErr = errors.New("backend down")
	view, err := f.uc.RemoveAttachment(ctx, f.alice, task.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Attachment)

	stored, err := repository.NewGormTaskRepository(f.db).FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Attachment)
}

func TestComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.uc.Create(ctx, f.leader, CreateTaskInput{Title: "Talk", AssigneeIDs: []string{f.alice.ID}})
	require.NoError(t, err)
	task := res.Tasks[0]
	f.notifier.emails = nil

	_, err = f.uc.AddComment(ctx, f.alice, task.ID, "first")
	require.NoError(t, err)
	_, err = f.uc.AddComment(ctx, f.leader, task.ID, "second")
	require.NoError(t, err)
	_, err = f.uc.AddComment(ctx, f.leader, task.ID, "third")
	require.NoError(t, err)

	assert.Equal(t, []string{f.leader.Email, f.alice.Email, f.alice.Email}, f.notifier.recipients())

	comments, err := f.uc.ListComments(ctx, f.alice, task.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "first", comments[0].Content)

	view, err := f.uc.Get(ctx, f.alice, task.ID)
	require.NoError(t, err)
	assert.Len(t, view.RecentComments, recentCommentCount)

	_, err = f.uc.AddComment(ctx, f.alice, task.ID, "  ")
	assert.True(t, apperror.Is(err, apperror.CodeValidation))
	_, err = f.uc.ListComments(ctx, f.outsider, task.ID)
	assert.True(t, apperror.Is(err, apperror.CodeForbidden))
}

func TestStats_MarksOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.create(t, f.alice, CreateTaskInput{Title: "Late", Priority: "High", Deadline: deadlineIn(72 * time.Hour)})
	f.create(t, f.alice, CreateTaskInput{Title: "Open"})
	f.create(t, f.alice, CreateTaskInput{Title: "Done"})

	// Move the deadline into the past behind the hook's back.
	past := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, f.db.Model(&domain.Task{}).Where("id = ?", task.ID).UpdateColumn("deadline", past).Error)
	require.NoError(t, f.db.Model(&domain.Task{}).Where("title = ?", "Done").
		UpdateColumns(map[string]interface{}{"is_completed": true, "status": domain.TaskStatusCompleted}).Error)

	stats, err := f.uc.Stats(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Overdue)
	assert.Equal(t, 1, stats.InProgress)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.PriorityStats[domain.PriorityHigh])
	assert.Equal(t, 2, stats.PriorityStats[domain.PriorityMedium])
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, f.alice, CreateTaskInput{Title: "a1", Priority: "High"})
	done := f.create(t, f.alice, CreateTaskInput{Title: "a2", Priority: "High"})
	_, err := f.uc.Update(ctx, f.alice, done.ID, UpdateTaskInput{IsCompleted: boolPtr(true)})
	require.NoError(t, err)
	f.create(t, f.outsider, CreateTaskInput{Title: "o1"})

	summaries, err := f.uc.Summary(ctx, f.leader, "")
	require.NoError(t, err)
	byName := map[string]*UserSummary{}
	for _, s := range summaries {
		byName[s.Username] = s
	}
	assert.NotContains(t, byName, "outsider")
	require.Contains(t, byName, "alice")
	assert.Equal(t, 2, byName["alice"].Total)
	assert.Equal(t, 1, byName["alice"].Completed)
	assert.Equal(t, 1, byName["alice"].PriorityStats[domain.PriorityHigh])
	assert.Equal(t, 0, byName["bob"].Total)

	_, err = f.uc.Summary(ctx, f.leader, f.outsider.ID)
	assert.True(t, apperror.Is(err, apperror.CodeForbidden))

	summaries, err = f.uc.Summary(ctx, f.alice, "")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, f.alice.ID, summaries[0].ID)
}

func boolPtr(b bool) *bool { return &b }
