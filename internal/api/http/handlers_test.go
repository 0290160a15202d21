package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/talentscout/backend/internal/api/http/mocks"
	"github.com/talentscout/backend/internal/api/middleware"
	"github.com/talentscout/backend/internal/domain/candidate"
	"github.com/talentscout/backend/internal/domain/chat"
	"github.com/talentscout/backend/internal/domain/job"
	"github.com/talentscout/backend/internal/realtime"
	"github.com/talentscout/backend/internal/repository/dao"
	"github.com/talentscout/backend/internal/shared/id"
	"github.com/talentscout/backend/internal/shared/types"
)

type testDeps struct {
	chat       *mocks.MockChatService
	candidates *mocks.MockCandidateService
	posts      *mocks.MockJobService
	jobs       *mocks.MockJobFinder
	registry   *mocks.MockConnectionRegistry
	router     *gin.Engine
}

// fakeAuth authenticates every request as user-1 unless the test sends
// X-Anonymous.
func fakeAuth(c *gin.Context) {
	if c.GetHeader("X-Anonymous") != "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.Set(middleware.UserIDKey, "user-1")
	c.Next()
}

func setup(t *testing.T) testDeps {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)

	d := testDeps{
		chat:       mocks.NewMockChatService(ctrl),
		candidates: mocks.NewMockCandidateService(ctrl),
		posts:      mocks.NewMockJobService(ctrl),
		jobs:       mocks.NewMockJobFinder(ctrl),
		registry:   mocks.NewMockConnectionRegistry(ctrl),
		router:     gin.New(),
	}
	NewHandlers(d.chat, d.candidates, d.posts, d.jobs, d.registry, nil).Register(d.router, fakeAuth)
	return d
}

func (d testDeps) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	d := setup(t)
	d.registry.EXPECT().Count().Return(3)

	w := d.do("GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"talentscout","connections":3}`, w.Body.String())
}

func TestUnauthenticated(t *testing.T) {
	d := setup(t)
	req := httptest.NewRequest("POST", "/api/jobs/job-1/chat", strings.NewReader(`{}`))
	req.Header.Set("X-Anonymous", "1")
	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSendChat(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		want     chat.SendRequest
		reply    chat.Reply
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "object message",
			body:     `{"message":{"id":"msg-1","content":"find go engineers"}}`,
			want:     chat.SendRequest{UserID: "user-1", JobID: "job-1", MessageID: "msg-1", Content: "find go engineers"},
			reply:    chat.Reply{MessageID: "msg-1", Text: "Here they are."},
			wantCode: http.StatusOK,
			wantBody: `{"message":"Job found","data":"Here they are."}`,
		},
		{
			name:     "string message",
			body:     `{"message":"hello"}`,
			want:     chat.SendRequest{UserID: "user-1", JobID: "job-1", Content: "hello"},
			reply:    chat.Reply{Text: "hi"},
			wantCode: http.StatusOK,
			wantBody: `{"message":"Job found","data":"hi"}`,
		},
		{
			name:     "job not found",
			body:     `{"message":"hello"}`,
			want:     chat.SendRequest{UserID: "user-1", JobID: "job-1", Content: "hello"},
			err:      chat.ErrJobNotFound,
			wantCode: http.StatusNotFound,
			wantBody: `{"error":"Job not found"}`,
		},
		{
			name:     "not owner",
			body:     `{"message":"hello"}`,
			want:     chat.SendRequest{UserID: "user-1", JobID: "job-1", Content: "hello"},
			err:      chat.ErrForbidden,
			wantCode: http.StatusForbidden,
			wantBody: `{"error":"Forbidden"}`,
		},
		{
			name:     "empty message",
			body:     `{}`,
			want:     chat.SendRequest{UserID: "user-1", JobID: "job-1"},
			err:      chat.ErrEmptyMessage,
			wantCode: http.StatusBadRequest,
			wantBody: `{"error":"Message is required"}`,
		},
		{
			name:     "store failure",
			body:     `{"message":"hello"}`,
			want:     chat.SendRequest{UserID: "user-1", JobID: "job-1", Content: "hello"},
			err:      errors.New("db down"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"Internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setup(t)
			d.chat.EXPECT().Send(gomock.Any(), tt.want).Return(tt.reply, tt.err)

			w := d.do("POST", "/api/jobs/job-1/chat", tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestSendChatInvalidBody(t *testing.T) {
	d := setup(t)
	w := d.do("POST", "/api/jobs/job-1/chat", `{"message":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatHistoryAndDelete(t *testing.T) {
	d := setup(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	d.chat.EXPECT().Messages(gomock.Any(), "user-1", "job-1").Return([]dao.ChatMessage{
		{ID: "m1", Role: dao.RoleUser, Content: "hi", CreatedAt: created},
		{ID: "m2", Role: dao.RoleAssistant, Content: "hello", CreatedAt: created, ToolCalls: []dao.ToolCall{
			{ID: "t1", Name: "search-linkedin", Args: map[string]any{"query": "go"}, Result: "ok", CreatedAt: created},
		}},
	}, nil)

	w := d.do("GET", "/api/jobs/job-1/chat", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[
		{"id":"m1","role":"user","content":"hi","createdAt":"2024-05-01T12:00:00Z"},
		{"id":"m2","role":"assistant","content":"hello","createdAt":"2024-05-01T12:00:00Z","toolCalls":[
			{"id":"t1","name":"search-linkedin","args":{"query":"go"},"result":"ok","createdAt":"2024-05-01T12:00:00Z"}
		]}
	]}`, w.Body.String())

	d.chat.EXPECT().Delete(gomock.Any(), "user-1", "job-1").Return(nil)
	w = d.do("POST", "/api/jobs/job-1/chat/delete", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Chat deleted"}`, w.Body.String())

	d.chat.EXPECT().Delete(gomock.Any(), "user-1", "job-2").Return(chat.ErrForbidden)
	w = d.do("POST", "/api/jobs/job-2/chat/delete", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSearchCandidates(t *testing.T) {
	d := setup(t)
	d.candidates.EXPECT().Search(gomock.Any(), "go berlin", pageSearchK).Return([]candidate.Match{
		{ProfileID: "p1", Handle: "jane", Similarity: 0.8},
	}, nil)

	w := d.do("POST", "/api/candidate/search", `{"query":"go berlin"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"handle":"jane"`)

	w = d.do("POST", "/api/candidate/search", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	d.candidates.EXPECT().Search(gomock.Any(), "none", pageSearchK).Return(nil, nil)
	w = d.do("POST", "/api/candidate/search", `{"query":"none"}`)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}

func TestAddCandidate(t *testing.T) {
	score := 90
	profile := &dao.LinkedInProfile{ID: "p1", Handle: "jane", Data: types.Person{PublicIdentifier: "jane", FullName: "Jane Doe"}}

	t.Run("created", func(t *testing.T) {
		d := setup(t)
		d.jobs.EXPECT().FindByID(gomock.Any(), "job-1").Return(dao.JobPost{ID: "job-1", OwnerID: "user-1"}, nil)
		d.candidates.EXPECT().Add(gomock.Any(), candidate.AddRequest{
			JobID: "job-1", Handle: "jane", MatchScore: &score, Reasoning: "strong", EagerlyAdded: true,
		}).Return(dao.Candidate{ID: "c1", JobPostID: "job-1", LinkedInProfileID: "p1", MatchScore: &score, EagerlyAdded: true, LinkedInProfile: profile}, true, nil)

		w := d.do("POST", "/api/candidate/add", `{"handle":"jane","jobId":"job-1","matchScore":90,"reasoning":"strong"}`)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"message":"Candidate added"`)
		assert.Contains(t, w.Body.String(), `"full_name":"Jane Doe"`)
	})

	t.Run("existing", func(t *testing.T) {
		d := setup(t)
		d.jobs.EXPECT().FindByID(gomock.Any(), "job-1").Return(dao.JobPost{ID: "job-1", UserID: "user-1"}, nil)
		d.candidates.EXPECT().Add(gomock.Any(), gomock.Any()).Return(dao.Candidate{ID: "c1"}, false, nil)

		w := d.do("POST", "/api/candidate/add", `{"handle":"jane","jobId":"job-1"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Candidate already added")
	})

	t.Run("foreign job", func(t *testing.T) {
		d := setup(t)
		d.jobs.EXPECT().FindByID(gomock.Any(), "job-1").Return(dao.JobPost{ID: "job-1", OwnerID: "someone"}, nil)

		w := d.do("POST", "/api/candidate/add", `{"handle":"jane","jobId":"job-1"}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unknown profile", func(t *testing.T) {
		d := setup(t)
		d.jobs.EXPECT().FindByID(gomock.Any(), "job-1").Return(dao.JobPost{ID: "job-1", OwnerID: "user-1"}, nil)
		d.candidates.EXPECT().Add(gomock.Any(), gomock.Any()).Return(dao.Candidate{}, false, candidate.ErrProfileNotFound)

		w := d.do("POST", "/api/candidate/add", `{"handle":"ghost","jobId":"job-1"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing job", func(t *testing.T) {
		d := setup(t)
		d.jobs.EXPECT().FindByID(gomock.Any(), "nope").Return(dao.JobPost{}, dao.ErrNotFound)

		w := d.do("POST", "/api/candidate/add", `{"handle":"jane","jobId":"nope"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad body", func(t *testing.T) {
		d := setup(t)
		w := d.do("POST", "/api/candidate/add", `{"handle":"jane"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListCandidates(t *testing.T) {
	d := setup(t)
	d.jobs.EXPECT().FindByID(gomock.Any(), "job-1").Return(dao.JobPost{ID: "job-1", OwnerID: "user-1"}, nil)
	d.candidates.EXPECT().List(gomock.Any(), "job-1").Return([]dao.Candidate{
		{ID: "c1", JobPostID: "job-1", LinkedInProfileID: "p1"},
	}, nil)

	w := d.do("GET", "/api/jobs/job-1/candidates", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"c1"`)
}

func TestScanCandidates(t *testing.T) {
	tests := []struct {
		name     string
		res      candidate.ScanResult
		err      error
		wantCode int
		wantBody string
	}{
		{
			name: "found",
			res: candidate.ScanResult{
				Handles:  []string{"jane", "ghost"},
				Profiles: []dao.LinkedInProfile{{ID: "p1", Handle: "jane", Data: types.Person{FullName: "Jane Doe"}}},
				Failed:   []string{"ghost"},
			},
			wantCode: http.StatusOK,
		},
		{
			name:     "nothing found",
			wantCode: http.StatusOK,
			wantBody: `{"data":{"handles":[],"profiles":[],"failed":[]}}`,
		},
		{"no search backend", candidate.ScanResult{}, candidate.ErrScanUnavailable, http.StatusServiceUnavailable, ""},
		{"failure", candidate.ScanResult{}, errors.New("boom"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setup(t)
			d.candidates.EXPECT().Scan(gomock.Any(), "go berlin").Return(tt.res, tt.err)

			w := d.do("POST", "/api/candidate/scan", `{"query":"go berlin"}`)
			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
			if tt.name == "found" {
				assert.Contains(t, w.Body.String(), `"handle":"jane"`)
				assert.Contains(t, w.Body.String(), `"failed":["ghost"]`)
			}
		})
	}

	d := setup(t)
	w := d.do("POST", "/api/candidate/scan", `{"query":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateJob(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		d := setup(t)
		d.posts.EXPECT().Create(gomock.Any(), "user-1", job.Draft{
			Title:       "Go Engineer",
			Description: "Build services",
			Location:    "Berlin",
			Salary:      &types.Salary{Min: 70000, Max: 90000, Currency: "EUR", Period: "year"},
			TechStack:   []string{"go", "postgres"},
		}).Return(dao.JobPost{
			ID: "job-1", Title: "Go Engineer", Description: "Build services", Location: "Berlin", Status: job.StatusDraft,
		}, nil)

		w := d.do("POST", "/api/jobs/create", `{"title":"Go Engineer","description":"Build services","location":"Berlin",`+
			`"salary":{"min":70000,"max":90000,"currency":"EUR","period":"year"},"tech_stack":["go","postgres"]}`)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"message":"Job created"`)
		assert.Contains(t, w.Body.String(), `"id":"job-1"`)
		assert.Contains(t, w.Body.String(), `"status":"draft"`)
	})

	t.Run("missing description", func(t *testing.T) {
		d := setup(t)
		w := d.do("POST", "/api/jobs/create", `{"title":"Go Engineer"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		d := setup(t)
		d.posts.EXPECT().Create(gomock.Any(), "user-1", gomock.Any()).Return(dao.JobPost{}, errors.New("boom"))

		w := d.do("POST", "/api/jobs/create", `{"title":"a","description":"b"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestUpdateJob(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"updated", nil, http.StatusOK},
		{"missing", job.ErrNotFound, http.StatusNotFound},
		{"foreign", job.ErrForbidden, http.StatusForbidden},
		{"invalid", job.ErrInvalid, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setup(t)
			d.posts.EXPECT().Update(gomock.Any(), "user-1", "job-1", "New title", "New text").
				Return(dao.JobPost{ID: "job-1", Title: "New title", Description: "New text"}, tt.err)

			w := d.do("PATCH", "/api/jobs/create", `{"id":"job-1","title":"New title","description":"New text"}`)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.err == nil {
				assert.Contains(t, w.Body.String(), `"title":"New title"`)
			}
		})
	}

	d := setup(t)
	w := d.do("PATCH", "/api/jobs/create", `{"title":"a","description":"b"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = d.do("PATCH", "/api/jobs/create", `{"id":"job/1","title":"a","description":"b"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListJobs(t *testing.T) {
	d := setup(t)
	d.posts.EXPECT().List(gomock.Any(), "user-1").Return([]dao.JobPost{
		{ID: "job-2", Title: "Newer"},
		{ID: "job-1", Title: "Older"},
	}, nil)

	w := d.do("GET", "/api/jobs", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Less(t, strings.Index(body, `"id":"job-2"`), strings.Index(body, `"id":"job-1"`))

	d = setup(t)
	d.posts.EXPECT().List(gomock.Any(), "user-1").Return([]dao.JobPost{}, nil)
	w = d.do("GET", "/api/jobs", "")
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}

func TestClaimConnection(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"claimed", nil, http.StatusOK},
		{"unknown", realtime.ErrConnectionNotFound, http.StatusNotFound},
		{"taken", realtime.ErrAlreadyTagged, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setup(t)
			d.registry.EXPECT().Tag(id.ConnectionID("conn_1"), "user-1").Return(tt.err)

			w := d.do("POST", "/api/realtime/claim", `{"connectionId":"conn_1"}`)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}

	d := setup(t)
	w := d.do("POST", "/api/realtime/claim", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConnections(t *testing.T) {
	d := setup(t)
	d.registry.EXPECT().ConnectionInfo("user-1").Return(nil)

	w := d.do("GET", "/api/realtime/connections", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}

func TestRejectsMalformedInput(t *testing.T) {
	d := setup(t)

	w := d.do("GET", "/api/jobs/job.1/chat", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = d.do("POST", "/api/jobs/job-1/chat", `{"message":{"id":"a/b","content":"hi"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = d.do("POST", "/api/candidate/search", `{"query":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = d.do("POST", "/api/realtime/claim", `{"connectionId":"conn 1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
