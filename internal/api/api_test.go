package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-courses/internal/api"
	"github.com/p-n-ai/pai-courses/internal/course"
	"github.com/p-n-ai/pai-courses/internal/quality"
)

const goodBody = `{
	"title": "Go for Beginners",
	"description": "Hands-on course with real projects.",
	"price": 19,
	"curriculum": [
		{"title": "Basics", "lectures": [{}, {}, {}]},
		{"title": "Projects", "lectures": [{}, {}]}
	],
	"thumbnailUrl": "https://cdn.example.com/thumb.png",
	"promoVideoUrl": "https://cdn.example.com/promo.mp4",
	"instructor_id": "inst-1"
}`

const shortBody = `{
	"title": "Go in a Hurry",
	"description": "One section only.",
	"curriculum": [{"lectures": [{}]}],
	"thumbnailUrl": null,
	"promoVideoUrl": "https://cdn.example.com/promo.mp4",
	"instructor_id": "inst-1"
}`

type fakeChecker struct{ err error }

func (f fakeChecker) HealthCheck(context.Context) error { return f.err }

func newMux(t *testing.T, lookup quality.Lookup, token string, checks map[string]api.Checker) (*http.ServeMux, *course.MemoryStore) {
	t.Helper()
	store := course.NewMemoryStore()
	if lookup == nil {
		lookup = store
	}
	pub := course.NewPublisher(course.PublisherConfig{
		Store: store,
		Gate:  quality.NewGate(lookup, quality.DefaultRules()),
	})
	return api.NewMux(api.Config{Publisher: pub, Checks: checks, AdminToken: token}), store
}

func do(t *testing.T, mux http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthEndpoints(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		checks     map[string]api.Checker
		wantStatus int
		wantBody   string
	}{
		{
			name:       "healthz returns 200",
			path:       "/healthz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
		{
			name:       "readyz returns 200",
			path:       "/readyz",
			checks:     map[string]api.Checker{"database": fakeChecker{}},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ready"}`,
		},
		{
			name:       "readyz reports failing check",
			path:       "/readyz",
			checks:     map[string]api.Checker{"cache": fakeChecker{err: errors.New("connection refused")}},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"status":"unavailable","checks":{"cache":"connection refused"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, _ := newMux(t, nil, "", tt.checks)
			rec := do(t, mux, http.MethodGet, tt.path, "")

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestPublish_Created(t *testing.T) {
	mux, _ := newMux(t, nil, "", nil)

	rec := do(t, mux, http.MethodPost, "/api/courses", goodBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body = %s", rec.Code, rec.Body.String())
	}

	c := decode[course.Course](t, rec)
	if c.Status != course.StatusReview {
		t.Errorf("status = %q, want Review", c.Status)
	}
	if c.QualityScore != 60 {
		t.Errorf("quality_score = %d, want 60", c.QualityScore)
	}
	if !reflect.DeepEqual(c.AdminFlags, []string{quality.FlagProfileIncomplete}) {
		t.Errorf("admin_flags = %v", c.AdminFlags)
	}
	if c.ID == "" {
		t.Error("created course has no id")
	}
}

func TestPublish_QualityFailure(t *testing.T) {
	mux, store := newMux(t, nil, "", nil)

	rec := do(t, mux, http.MethodPost, "/api/courses", shortBody)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422; body = %s", rec.Code, rec.Body.String())
	}

	got := decode[struct {
		Error   string   `json:"error"`
		Details []string `json:"details"`
	}](t, rec)
	if got.Error != "Automated Quality Check Failed" {
		t.Errorf("error = %q", got.Error)
	}
	want := []string{
		"Course too short (needs 2+ sections)",
		"Not enough lectures (needs 5+)",
		"Missing visual assets",
		"Instructor profile incomplete",
	}
	if !reflect.DeepEqual(got.Details, want) {
		t.Errorf("details = %v, want %v", got.Details, want)
	}

	queued, _ := store.ListByStatus(context.Background(), course.StatusReview)
	if len(queued) != 0 {
		t.Errorf("stored %d courses, want 0", len(queued))
	}
}

func TestPublish_InvalidBody(t *testing.T) {
	mux, _ := newMux(t, nil, "", nil)

	rec := do(t, mux, http.MethodPost, "/api/courses", `{"title":"","price":-1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	got := decode[struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}](t, rec)
	if got.Error != "Invalid course submission" {
		t.Errorf("error = %q", got.Error)
	}
	for _, field := range []string{"title", "price", "curriculum", "instructor_id"} {
		if _, ok := got.Fields[field]; !ok {
			t.Errorf("fields missing %q: %v", field, got.Fields)
		}
	}
}

func TestPublish_LookupFailure(t *testing.T) {
	mux, _ := newMux(t, &quality.MockLookup{ProfileErr: errors.New("timeout")}, "", nil)

	rec := do(t, mux, http.MethodPost, "/api/courses", goodBody)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503; body = %s", rec.Code, rec.Body.String())
	}
}

func TestSaveProfile_RaisesScore(t *testing.T) {
	mux, _ := newMux(t, nil, "", nil)

	rec := do(t, mux, http.MethodPut, "/api/instructors/inst-1/profile",
		`{"avatar_url":"https://cdn.example.com/a.png","full_name":"Ada Lovelace"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("profile status = %d, want 204", rec.Code)
	}

	rec = do(t, mux, http.MethodPost, "/api/courses", goodBody)
	c := decode[course.Course](t, rec)
	if c.QualityScore != 80 || len(c.AdminFlags) != 0 {
		t.Errorf("score = %d flags = %v, want 80 and none", c.QualityScore, c.AdminFlags)
	}
}

func TestSaveProfile_BadRequest(t *testing.T) {
	mux, _ := newMux(t, nil, "", nil)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"malformed body", "/api/instructors/inst-1/profile", `{`},
		{"blank instructor id", "/api/instructors/%20/profile", `{"full_name":"Ada"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, http.MethodPut, tt.path, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestReviewQueueAndDecision(t *testing.T) {
	mux, _ := newMux(t, nil, "", nil)
	created := decode[course.Course](t, do(t, mux, http.MethodPost, "/api/courses", goodBody))

	rec := do(t, mux, http.MethodGet, "/api/admin/review-queue", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("queue status = %d", rec.Code)
	}
	queue := decode[[]course.Course](t, rec)
	if len(queue) != 1 || queue[0].ID != created.ID {
		t.Fatalf("queue = %+v, want the created course", queue)
	}

	path := "/api/admin/courses/" + created.ID + "/decision"
	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{"invalid decision", path, `{"status":"Draft"}`, http.StatusBadRequest},
		{"malformed body", path, `not json`, http.StatusBadRequest},
		{"unknown course", "/api/admin/courses/8d1f4c7e-1c1b-4c8e-9a55-1f0e0b1f2a3c/decision", `{"status":"Published"}`, http.StatusNotFound},
		{"publish", path, `{"status":"Published","note":"looks good"}`, http.StatusOK},
		{"already reviewed", path, `{"status":"Rejected"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}

	queue = decode[[]course.Course](t, do(t, mux, http.MethodGet, "/api/admin/review-queue", ""))
	if len(queue) != 0 {
		t.Errorf("queue = %d courses after decision, want 0", len(queue))
	}
}

func TestReviewQueue_EmptyIsArray(t *testing.T) {
	mux, _ := newMux(t, nil, "", nil)

	rec := do(t, mux, http.MethodGet, "/api/admin/review-queue", "")
	if rec.Body.String() != `[]` {
		t.Errorf("body = %q, want []", rec.Body.String())
	}
}

func TestReviewQueueExport(t *testing.T) {
	mux, _ := newMux(t, nil, "", nil)
	do(t, mux, http.MethodPost, "/api/courses", goodBody)

	rec := do(t, mux, http.MethodGet, "/api/admin/review-queue.xlsx", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q", ct)
	}

	f, err := excelize.OpenReader(rec.Body)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Review Queue")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 2 || rows[1][1] != "Go for Beginners" {
		t.Errorf("rows = %v, want header plus the queued course", rows)
	}
}

func TestAdminToken(t *testing.T) {
	mux, _ := newMux(t, nil, "s3cret", nil)

	tests := []struct {
		name       string
		header     []string
		wantStatus int
	}{
		{"missing", nil, http.StatusUnauthorized},
		{"wrong", []string{"Authorization", "Bearer nope"}, http.StatusUnauthorized},
		{"not bearer", []string{"Authorization", "s3cret"}, http.StatusUnauthorized},
		{"valid", []string{"Authorization", "Bearer s3cret"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, http.MethodGet, "/api/admin/review-queue", "", tt.header...)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	if rec := do(t, mux, http.MethodPost, "/api/courses", goodBody); rec.Code != http.StatusCreated {
		t.Errorf("publish should not require the admin token, status = %d", rec.Code)
	}
}
