package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentscout/backend/internal/repository/dao"
)

type fakeJobs struct {
	rows     map[string]dao.JobPost
	created  []dao.JobPost
	updates  []dao.JobUpdate
	listArgs []any
	err      error
}

func (f *fakeJobs) FindByID(_ context.Context, id string) (dao.JobPost, error) {
	j, ok := f.rows[id]
	if !ok {
		return dao.JobPost{}, dao.ErrNotFound
	}
	return j, nil
}

func (f *fakeJobs) FindWithChat(ctx context.Context, id string) (dao.JobPost, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeJobs) Create(_ context.Context, j *dao.JobPost) error {
	if f.err != nil {
		return f.err
	}
	j.ID = "job-new"
	f.created = append(f.created, *j)
	return nil
}

func (f *fakeJobs) Update(_ context.Context, id, ownerID string, u dao.JobUpdate) error {
	if j, ok := f.rows[id]; !ok || j.Owner() != ownerID {
		return dao.ErrNotFound
	}
	f.updates = append(f.updates, u)
	return nil
}

func (f *fakeJobs) ListByOwner(_ context.Context, ownerID string, limit int) ([]dao.JobPost, error) {
	f.listArgs = []any{ownerID, limit}
	var out []dao.JobPost
	for _, j := range f.rows {
		if j.Owner() == ownerID {
			out = append(out, j)
		}
	}
	return out, f.err
}

type fakeEmbedder struct {
	texts []string
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.texts = append(f.texts, text)
	return []float32{0.1, 0.2}, nil
}

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(rows map[string]dao.JobPost) (*Service, *fakeJobs, *fakeEmbedder) {
	jobs := &fakeJobs{rows: rows}
	emb := &fakeEmbedder{}
	s := NewService(jobs, emb)
	s.now = func() time.Time { return testNow }
	return s, jobs, emb
}

func TestCreate(t *testing.T) {
	s, jobs, emb := newTestService(nil)

	job, err := s.Create(context.Background(), "user-1", Draft{
		Title:       "Go Engineer",
		Description: "Build the realtime bridge",
		Location:    "Remote",
		TechStack:   []string{"go", "postgres"},
	})
	require.NoError(t, err)

	assert.Equal(t, "job-new", job.ID)
	assert.Equal(t, []string{"Go Engineer Build the realtime bridge"}, emb.texts)
	require.Len(t, jobs.created, 1)
	created := jobs.created[0]
	assert.Equal(t, "user-1", created.OwnerID)
	assert.Equal(t, "user-1", created.UserID)
	assert.Equal(t, StatusDraft, created.Status)
	assert.Equal(t, dao.Vector{0.1, 0.2}, created.Vector)
	assert.Equal(t, []string{"go", "postgres"}, created.TechStack)
	assert.Equal(t, testNow, created.CreatedAt)
}

func TestCreateKeepsGivenStatus(t *testing.T) {
	s, jobs, _ := newTestService(nil)

	_, err := s.Create(context.Background(), "user-1", Draft{Title: "SRE", Description: "Keep it up", Status: "published"})
	require.NoError(t, err)
	assert.Equal(t, "published", jobs.created[0].Status)
}

func TestCreateErrors(t *testing.T) {
	tests := []struct {
		name    string
		draft   Draft
		embErr  error
		daoErr  error
		wantErr error
		wantMsg string
	}{
		{name: "missing title", draft: Draft{Description: "x"}, wantErr: ErrInvalid},
		{name: "blank description", draft: Draft{Title: "x", Description: "  "}, wantErr: ErrInvalid},
		{name: "embedding fails", draft: Draft{Title: "x", Description: "y"}, embErr: errors.New("quota"), wantMsg: "embed job post"},
		{name: "insert fails", draft: Draft{Title: "x", Description: "y"}, daoErr: errors.New("db down"), wantMsg: "insert job post"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, jobs, emb := newTestService(nil)
			emb.err = tt.embErr
			jobs.err = tt.daoErr

			_, err := s.Create(context.Background(), "user-1", tt.draft)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.ErrorContains(t, err, tt.wantMsg)
			}
			assert.Empty(t, jobs.created)
		})
	}
}

func TestUpdate(t *testing.T) {
	rows := map[string]dao.JobPost{
		"job-1": {ID: "job-1", OwnerID: "user-1", Title: "Old", Description: "Old", Location: "Berlin"},
		"job-2": {ID: "job-2", UserID: "user-2", Title: "Theirs"},
	}
	s, jobs, emb := newTestService(rows)

	job, err := s.Update(context.Background(), "user-1", "job-1", "New", "Fresh text")
	require.NoError(t, err)
	assert.Equal(t, "New", job.Title)
	assert.Equal(t, "Fresh text", job.Description)
	assert.Equal(t, "Berlin", job.Location)
	assert.Equal(t, []string{"New Fresh text"}, emb.texts)
	require.Len(t, jobs.updates, 1)
	assert.Equal(t, dao.JobUpdate{Title: "New", Description: "Fresh text", Vector: dao.Vector{0.1, 0.2}, UpdatedAt: testNow}, jobs.updates[0])

	_, err = s.Update(context.Background(), "user-1", "job-2", "Mine", "now")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = s.Update(context.Background(), "user-1", "missing", "a", "b")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Update(context.Background(), "user-1", "job-1", "", "b")
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Len(t, jobs.updates, 1)
}

func TestList(t *testing.T) {
	s, jobs, _ := newTestService(map[string]dao.JobPost{
		"job-1": {ID: "job-1", OwnerID: "user-1"},
		"job-2": {ID: "job-2", OwnerID: "user-2"},
	})

	got, err := s.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "job-1", got[0].ID)
	assert.Equal(t, []any{"user-1", ListLimit}, jobs.listArgs)

	got, err = s.List(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
