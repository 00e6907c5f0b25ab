package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/activity-scheduler/backend/internal/domain"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 1
	cfg.Scheduler = config.SchedulerConfig{
		PopulationSize: 500,
		MaxGenerations: 100,
		MutationRate:   0.01,
		Seed:           0,
		Timeout:        60,
	}

	h, err := NewHandler(cfg, nil, nil, nil)
	require.NoError(t, err)
	return h
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func TestRequiredRole(t *testing.T) {
	h := newTestHandler(t)
	mw := h.RequiredRole([]domain.Role{domain.RoleAdmin})(http.HandlerFunc(okHandler))

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/rooms", nil)
		req = req.WithContext(context.WithValue(req.Context(), RoleCtxKey, string(domain.RoleAdmin)))
		rec := httptest.NewRecorder()

		mw.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("viewer is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/rooms", nil)
		req = req.WithContext(context.WithValue(req.Context(), RoleCtxKey, string(domain.RoleViewer)))
		rec := httptest.NewRecorder()

		mw.ServeHTTP(rec, req)

		resp := decodeResponse(t, rec)
		assert.False(t, resp.Success)
		assert.Equal(t, "权限不足", resp.Message)
	})

	t.Run("missing role is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rooms", nil))

		assert.False(t, decodeResponse(t, rec).Success)
	})
}

func TestRecovererTurnsPanicIntoInternalServerError(t *testing.T) {
	h := newTestHandler(t)
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	h.recoverer(panicking).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "服务器内部错误", resp.Message)
}

func TestAuth(t *testing.T) {
	h := newTestHandler(t)

	var gotRole, gotSub string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRole, _ = r.Context().Value(RoleCtxKey).(string)
		gotSub, _ = r.Context().Value(SubCtxKey).(string)
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("no cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.auth(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/my-info", nil))

		assert.Equal(t, "用户未登录", decodeResponse(t, rec).Message)
	})

	t.Run("valid token", func(t *testing.T) {
		now := time.Now()
		token, err := h.signToken(string(domain.RoleAdmin), "42", now, now.Add(time.Hour))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/my-info", nil)
		req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: token})
		rec := httptest.NewRecorder()

		h.auth(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, string(domain.RoleAdmin), gotRole)
		assert.Equal(t, "42", gotSub)
	})

	t.Run("expired token", func(t *testing.T) {
		past := time.Now().Add(-2 * time.Hour)
		token, err := h.signToken(string(domain.RoleAdmin), "42", past, past.Add(time.Hour))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/my-info", nil)
		req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: token})
		rec := httptest.NewRecorder()

		h.auth(next).ServeHTTP(rec, req)

		assert.Equal(t, "无效的令牌", decodeResponse(t, rec).Message)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := newTestHandler(t)
		other.config.JWT.Secret = "another-secret"
		now := time.Now()
		token, err := other.signToken(string(domain.RoleAdmin), "42", now, now.Add(time.Hour))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/my-info", nil)
		req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: token})
		rec := httptest.NewRecorder()

		h.auth(next).ServeHTTP(rec, req)

		assert.Equal(t, "无效的令牌", decodeResponse(t, rec).Message)
	})
}

func TestLogoutExpiresCookie(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()

	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, tokenCookieName, cookies[0].Name)
	assert.True(t, cookies[0].Expires.Before(time.Now()))
	assert.True(t, decodeResponse(t, rec).Success)
}

func TestBadRequestTranslatesValidationErrors(t *testing.T) {
	h := newTestHandler(t)

	var req struct {
		Name string `json:"name" validate:"required"`
	}
	err := h.validate.Struct(req)
	require.Error(t, err)

	rec := httptest.NewRecorder()
	h.badRequest(rec, httptest.NewRequest(http.MethodPost, "/", nil), err)

	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "Name")
	assert.Contains(t, resp.Message, "必填")

	rec = httptest.NewRecorder()
	h.badRequest(rec, httptest.NewRequest(http.MethodPost, "/", nil), errors.New("首选负责人 3 不存在"))
	assert.Equal(t, "首选负责人 3 不存在", decodeResponse(t, rec).Message)
}

func TestPathID(t *testing.T) {
	withID := func(id string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		req := httptest.NewRequest(http.MethodGet, "/rooms/"+id, nil)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	id, err := pathID(withID("12"))
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	for _, bad := range []string{"abc", "0", "-3", ""} {
		_, err := pathID(withID(bad))
		assert.Error(t, err, "id=%q", bad)
	}
}

func TestGenerateSchedulingResultRequestParameters(t *testing.T) {
	defaults := &config.SchedulerConfig{PopulationSize: 500, MaxGenerations: 100, MutationRate: 0.01, Seed: 7}

	t.Run("defaults", func(t *testing.T) {
		var req generateSchedulingResultRequest
		params, seed := req.parameters(defaults)

		assert.Equal(t, int32(500), params.PopulationSize)
		assert.Equal(t, int32(100), params.MaxGenerations)
		assert.Equal(t, 0.01, params.MutationRate)
		assert.Equal(t, int64(7), seed)
	})

	t.Run("overrides", func(t *testing.T) {
		population, generations, rate, s := int32(50), int32(20), 0.2, int64(99)
		req := generateSchedulingResultRequest{
			PopulationSize: &population,
			MaxGenerations: &generations,
			MutationRate:   &rate,
			Seed:           &s,
		}
		params, seed := req.parameters(defaults)

		assert.Equal(t, int32(50), params.PopulationSize)
		assert.Equal(t, int32(20), params.MaxGenerations)
		assert.Equal(t, 0.2, params.MutationRate)
		assert.Equal(t, int64(99), seed)
	})

	t.Run("zero seed uses the clock", func(t *testing.T) {
		zero := int64(0)
		req := generateSchedulingResultRequest{Seed: &zero}
		_, seed := req.parameters(defaults)

		assert.NotZero(t, seed)
	})
}

func TestGenerateSchedulingResultRejectsBadInput(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"mutation rate above one", `{"mutationRate": 2}`},
		{"negative mutation rate", `{"mutationRate": -0.5}`},
		{"zero population", `{"populationSize": 0}`},
		{"unknown field", `{"elitism": true}`},
		{"malformed json", `{"populationSize":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/scheduling-results/generate", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.GenerateSchedulingResult(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.False(t, decodeResponse(t, rec).Success)
		})
	}
}

func TestBuildScheduleNotifications(t *testing.T) {
	catalog := &domain.Catalog{
		Activities: []domain.Activity{
			{ID: 1, Name: "SLA100"},
			{ID: 2, Name: "SLA191"},
			{ID: 3, Name: "SLA303"},
		},
		Rooms:     []domain.Room{{ID: 1, Name: "Beach 201"}},
		TimeSlots: []domain.TimeSlot{{ID: 1, Label: "10 AM"}, {ID: 2, Label: "11 AM"}},
		Facilitators: []domain.Facilitator{
			{ID: 1, Name: "Lock", Email: "lock@example.com"},
			{ID: 2, Name: "Glen", Email: "glen@example.com"},
			{ID: 3, Name: "Banks"},
		},
	}
	result := &domain.SchedulingResult{
		ID: 5,
		Assignments: []domain.Assignment{
			{ActivityID: 1, RoomID: 1, TimeSlotID: 1, FacilitatorID: 2},
			{ActivityID: 2, RoomID: 1, TimeSlotID: 2, FacilitatorID: 1},
			{ActivityID: 3, RoomID: 1, TimeSlotID: 2, FacilitatorID: 2},
		},
	}

	messages, err := buildScheduleNotifications(result, catalog)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, "glen@example.com", messages[0].To)
	assert.Equal(t, schedulePublishedMailType, messages[0].Type)
	data := messages[0].Data.(domain.SchedulePublishedMailData)
	assert.Equal(t, "Glen", data.FullName)
	assert.Equal(t, int64(5), data.SchedulingResultID)
	assert.Equal(t, []domain.SchedulePublishedMailItem{
		{Activity: "SLA100", Room: "Beach 201", TimeSlot: "10 AM"},
		{Activity: "SLA303", Room: "Beach 201", TimeSlot: "11 AM"},
	}, data.Items)

	assert.Equal(t, "lock@example.com", messages[1].To)

	result.Assignments[0].FacilitatorID = 9
	_, err = buildScheduleNotifications(result, catalog)
	assert.Error(t, err)
}

func TestPublishScheduleNotificationsWithoutChannel(t *testing.T) {
	h := newTestHandler(t)
	err := h.publishScheduleNotifications(&domain.SchedulingResult{}, &domain.Catalog{})
	assert.Error(t, err)
}


func TestLoggerSetsRequestID(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.logger(http.HandlerFunc(okHandler)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	req.Header.Set(requestIDHeader, "upstream-id")
	rec = httptest.NewRecorder()
	h.logger(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)
	assert.Equal(t, "upstream-id", rec.Header().Get(requestIDHeader))
}

func TestReferencedByResult(t *testing.T) {
	for _, name := range []string{
		"scheduling_result_assignments_activity_id_fkey",
		"scheduling_result_assignments_room_id_fkey",
		"scheduling_result_assignments_time_slot_id_fkey",
		"scheduling_result_assignments_facilitator_id_fkey",
	} {
		err := fmt.Errorf("删除失败: %w", &pgconn.PgError{Code: "23503", ConstraintName: name})
		assert.True(t, referencedByResult(err), name)
	}

	assert.False(t, referencedByResult(&pgconn.PgError{Code: "23503", ConstraintName: "activity_facilitators_facilitator_id_fkey"}))
	assert.False(t, referencedByResult(errors.New("connection reset")))
	assert.False(t, referencedByResult(nil))
}
