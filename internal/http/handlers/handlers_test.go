package handlers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MJbae/novel-craft/internal/domain"
)

type errorResp struct {
	Error errorBody `json:"error"`
}

func (f *fixture) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture()
	rr := f.do(t, http.MethodGet, "/v1/healthz", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	f.app.ping = func(context.Context) error { return errors.New("db down") }
	rr = f.do(t, http.MethodGet, "/v1/healthz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status with failing ping = %d", rr.Code)
	}
	if got := decodeBody[errorResp](t, rr); got.Error.Code != codeUnavailable {
		t.Fatalf("code = %q", got.Error.Code)
	}
}

func TestCreateProject(t *testing.T) {
	f := newFixture()
	rr := f.do(t, http.MethodPost, "/v1/projects", `{"name":"  붉은 달 ","genre":"무협","protagonist_keywords":"복수, 검객","banned_elements":"회귀"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	got := decodeBody[projectDTO](t, rr)
	if got.Name != "붉은 달" || got.Genre != "무협" {
		t.Fatalf("unexpected project %+v", got)
	}
	stored, ok := f.projects.items[got.ID]
	if !ok {
		t.Fatalf("project %s not stored", got.ID)
	}
	if stored.Settings.ProtagonistKeywords != "복수, 검객" || stored.Settings.BannedElements != "회귀" {
		t.Fatalf("settings not stored: %+v", stored.Settings)
	}
}

func TestCreateProjectValidation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		headers    []string
		wantCode   string
		wantMsg    string
		wantDetail string
	}{
		{
			name:       "missing genre",
			body:       `{"name":"붉은 달","protagonist_keywords":"복수"}`,
			wantCode:   codeInvalidInput,
			wantMsg:    "입력값이 올바르지 않습니다.",
			wantDetail: "genre is required",
		},
		{
			name:     "english message",
			body:     `{"name":"","genre":"무협","protagonist_keywords":"복수"}`,
			headers:  []string{"X-Locale", "en-US"},
			wantCode: codeInvalidInput,
			wantMsg:  "The request is invalid.",
		},
		{
			name:       "name too long",
			body:       `{"name":"` + strings.Repeat("가", 201) + `","genre":"무협","protagonist_keywords":"복수"}`,
			wantCode:   codeInvalidInput,
			wantDetail: "name must satisfy max=200",
		},
		{
			name:     "malformed json",
			body:     `{"name":`,
			wantCode: codeBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			rr := f.do(t, http.MethodPost, "/v1/projects", tt.body, tt.headers...)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rr.Code)
			}
			got := decodeBody[errorResp](t, rr)
			if got.Error.Code != tt.wantCode {
				t.Fatalf("code = %q, want %q", got.Error.Code, tt.wantCode)
			}
			if tt.wantMsg != "" && got.Error.Message != tt.wantMsg {
				t.Fatalf("message = %q, want %q", got.Error.Message, tt.wantMsg)
			}
			if tt.wantDetail != "" && !strings.Contains(got.Error.Detail, tt.wantDetail) {
				t.Fatalf("detail = %q, want %q", got.Error.Detail, tt.wantDetail)
			}
		})
	}
}

func TestGetProject(t *testing.T) {
	f := newFixture()
	rr := f.do(t, http.MethodGet, "/v1/projects/"+testProjectID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := decodeBody[projectDTO](t, rr); got.Name != "검은 탑" {
		t.Fatalf("name = %q", got.Name)
	}

	for _, id := range []string{missingID, "not-a-uuid"} {
		if rr := f.do(t, http.MethodGet, "/v1/projects/"+id, ""); rr.Code != http.StatusNotFound {
			t.Fatalf("%s: status = %d", id, rr.Code)
		}
	}
}

func TestListProjectsStorageFailure(t *testing.T) {
	f := newFixture()
	f.projects.err = errors.New("connection reset")
	rr := f.do(t, http.MethodGet, "/v1/projects", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "connection reset") {
		t.Fatalf("internal error leaked: %s", rr.Body.String())
	}
}

func TestCreateCharacterDefaults(t *testing.T) {
	f := newFixture()
	rr := f.do(t, http.MethodPost, "/v1/projects/"+testProjectID+"/characters", `{"name":"한서진","personality":"냉정함"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	got := decodeBody[characterDTO](t, rr)
	if got.Role != domain.RoleMain {
		t.Fatalf("role = %q, want main", got.Role)
	}
	if got.SpeechStyle.Formality != "반말_기본" || got.SpeechStyle.Endings == nil {
		t.Fatalf("speech style defaults not applied: %+v", got.SpeechStyle)
	}

	rr = f.do(t, http.MethodGet, "/v1/projects/"+testProjectID+"/characters", "")
	list := decodeBody[struct {
		Items []characterDTO `json:"items"`
	}](t, rr)
	if len(list.Items) != 1 || list.Items[0].Name != "한서진" {
		t.Fatalf("characters = %+v", list.Items)
	}
}

func TestCreateCharacterRejectsUnknownRoleAndProject(t *testing.T) {
	f := newFixture()
	rr := f.do(t, http.MethodPost, "/v1/projects/"+testProjectID+"/characters", `{"name":"류","role":"villain"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad role status = %d", rr.Code)
	}
	rr = f.do(t, http.MethodPost, "/v1/projects/"+missingID+"/characters", `{"name":"류"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing project status = %d", rr.Code)
	}
	if len(f.characters.items) != 0 {
		t.Fatalf("characters stored: %+v", f.characters.items)
	}
}

func TestEpisodes(t *testing.T) {
	f := newFixture()
	rr := f.do(t, http.MethodGet, "/v1/projects/"+testProjectID+"/episodes", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	var list struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Items) != 1 {
		t.Fatalf("items = %d", len(list.Items))
	}
	if _, ok := list.Items[0]["content"]; ok {
		t.Fatalf("list should not carry content")
	}
	if list.Items[0]["outline"] != nil {
		t.Fatalf("empty outline should be null, got %v", list.Items[0]["outline"])
	}

	rr = f.do(t, http.MethodGet, "/v1/episodes/"+testEpisodeID, "")
	if got := decodeBody[episodeDTO](t, rr); got.Content != "<p>문이 열렸다.</p>" {
		t.Fatalf("content = %q", got.Content)
	}
	if rr := f.do(t, http.MethodGet, "/v1/episodes/"+missingID, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("missing episode status = %d", rr.Code)
	}
}

func TestGenerateEnqueuesJob(t *testing.T) {
	tests := []struct {
		kind     string
		body     string
		jobType  domain.JobType
		duration string
	}{
		{"bootstrap", `{"project_id":"` + testProjectID + `"}`, domain.JobTypeBootstrap, "60~120초"},
		{"outline", `{"project_id":"` + testProjectID + `","episode_number":2}`, domain.JobTypeOutline, "30~60초"},
		{"episode", `{"project_id":"` + testProjectID + `","episode_number":2}`, domain.JobTypeEpisodePass1, "120~240초"},
		{"revise", `{"project_id":"` + testProjectID + `","episode_id":"` + testEpisodeID + `","revision_instruction":"대사를 줄여"}`, domain.JobTypeRevise, "60~180초"},
		{"summary", `{"project_id":"` + testProjectID + `","episode_id":"` + testEpisodeID + `"}`, domain.JobTypeSummary, "30~60초"},
		{"events", `{"project_id":"` + testProjectID + `","episode_id":"` + testEpisodeID + `"}`, domain.JobTypeEventExtract, "30~60초"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			f := newFixture()
			rr := f.do(t, http.MethodPost, "/v1/generate/"+tt.kind, tt.body)
			if rr.Code != http.StatusCreated {
				t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
			}
			got := decodeBody[enqueueResp](t, rr)
			if got.Status != domain.JobStatusQueued || got.EstimatedDuration != tt.duration {
				t.Fatalf("response = %+v", got)
			}
			job := f.jobs.Get(got.JobID)
			if job == nil {
				t.Fatalf("job %s not stored", got.JobID)
			}
			if job.Type != tt.jobType || job.ProjectID != testProjectID {
				t.Fatalf("job = %s/%s", job.Type, job.ProjectID)
			}
			if bytes.Contains(job.Input, []byte("project_id")) {
				t.Fatalf("project_id leaked into input: %s", job.Input)
			}
		})
	}
}

func TestGenerateRejections(t *testing.T) {
	episodeBody := `{"project_id":"` + testProjectID + `","episode_number":4}`
	tests := []struct {
		name       string
		kind       string
		body       string
		seed       bool
		wantStatus int
		wantCode   string
	}{
		{"unknown kind", "poem", episodeBody, false, http.StatusNotFound, codeUnknownJobType},
		{"bad project id", "episode", `{"project_id":"p1","episode_number":4}`, false, http.StatusBadRequest, codeInvalidInput},
		{"missing project", "episode", `{"project_id":"` + missingID + `","episode_number":4}`, false, http.StatusNotFound, codeNotFound},
		{"invalid input", "episode", `{"project_id":"` + testProjectID + `","episode_number":0}`, false, http.StatusBadRequest, codeInvalidInput},
		{"malformed body", "episode", `{"project_id":`, false, http.StatusBadRequest, codeBadRequest},
		{"busy episode", "episode", episodeBody, true, http.StatusConflict, codeEpisodeBusy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.seed {
				if rr := f.do(t, http.MethodPost, "/v1/generate/outline", episodeBody); rr.Code != http.StatusCreated {
					t.Fatalf("seed status = %d", rr.Code)
				}
			}
			rr := f.do(t, http.MethodPost, "/v1/generate/"+tt.kind, tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d body=%s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if got := decodeBody[errorResp](t, rr); got.Error.Code != tt.wantCode {
				t.Fatalf("code = %q, want %q", got.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestGenerateChecksNamedEpisode(t *testing.T) {
	const otherProjectID = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
	const foreignEpisodeID = "7a6b5c4d-3e2f-4a1b-9c8d-7e6f5a4b3c2d"
	tests := []struct {
		name       string
		episodeID  string
		wantStatus int
		wantCode   string
	}{
		{"missing episode", missingID, http.StatusNotFound, codeNotFound},
		{"episode of another project", foreignEpisodeID, http.StatusBadRequest, codeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.episodes.items = append(f.episodes.items, domain.Episode{ID: foreignEpisodeID, ProjectID: otherProjectID, EpisodeNumber: 1})
			body := `{"project_id":"` + testProjectID + `","episode_id":"` + tt.episodeID + `","revision_instruction":"대사를 줄여"}`
			rr := f.do(t, http.MethodPost, "/v1/generate/revise", body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d body=%s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if got := decodeBody[errorResp](t, rr); got.Error.Code != tt.wantCode {
				t.Fatalf("code = %q, want %q", got.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestGenerateBusyAcrossEpisodeKeys(t *testing.T) {
	f := newFixture()
	revise := `{"project_id":"` + testProjectID + `","episode_id":"` + testEpisodeID + `","revision_instruction":"대사를 줄여"}`
	if rr := f.do(t, http.MethodPost, "/v1/generate/revise", revise); rr.Code != http.StatusCreated {
		t.Fatalf("revise status = %d body=%s", rr.Code, rr.Body.String())
	}
	// testEpisodeID is episode 1, so a request by number collides with it.
	rr := f.do(t, http.MethodPost, "/v1/generate/episode", `{"project_id":"`+testProjectID+`","episode_number":1}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 body=%s", rr.Code, rr.Body.String())
	}

	f = newFixture()
	if rr := f.do(t, http.MethodPost, "/v1/generate/outline", `{"project_id":"`+testProjectID+`","episode_number":1}`); rr.Code != http.StatusCreated {
		t.Fatalf("outline status = %d body=%s", rr.Code, rr.Body.String())
	}
	rr = f.do(t, http.MethodPost, "/v1/generate/summary", `{"project_id":"`+testProjectID+`","episode_id":"`+testEpisodeID+`"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 body=%s", rr.Code, rr.Body.String())
	}
}

func TestGetJob(t *testing.T) {
	f := newFixture()
	output := `{"summary":"요약"}`
	failure := "[step: summarizing] boom"
	step := domain.StepSummarizing
	f.jobs.Put(domain.Job{ID: "00000000-0000-4000-8000-000000000101", ProjectID: testProjectID, Type: domain.JobTypeSummary, Status: domain.JobStatusCompleted, Progress: 100, Output: &output, Error: &failure})
	f.jobs.Put(domain.Job{ID: "00000000-0000-4000-8000-000000000102", ProjectID: testProjectID, Type: domain.JobTypeSummary, Status: domain.JobStatusFailed, Step: &step, Output: &output, Error: &failure})

	rr := f.do(t, http.MethodGet, "/v1/jobs/00000000-0000-4000-8000-000000000101", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var completed map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&completed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result, ok := completed["result"].(map[string]any); !ok || result["summary"] != "요약" {
		t.Fatalf("result = %#v", completed["result"])
	}
	if _, ok := completed["error"]; ok {
		t.Fatalf("completed job should not expose error")
	}
	if completed["job_type"] != "summary" || completed["progress"] != float64(100) {
		t.Fatalf("job = %#v", completed)
	}

	rr = f.do(t, http.MethodGet, "/v1/jobs/00000000-0000-4000-8000-000000000102", "")
	var failed map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&failed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := failed["result"]; ok {
		t.Fatalf("failed job should not expose result")
	}
	if failed["error"] != failure || failed["step"] != "summarizing" {
		t.Fatalf("failed job = %#v", failed)
	}

	for _, id := range []string{missingID, "nope"} {
		if rr := f.do(t, http.MethodGet, "/v1/jobs/"+id, ""); rr.Code != http.StatusNotFound {
			t.Fatalf("%s: status = %d", id, rr.Code)
		}
	}
}

func TestCancelJob(t *testing.T) {
	f := newFixture()
	rr := f.do(t, http.MethodPost, "/v1/generate/bootstrap", `{"project_id":"`+testProjectID+`"}`)
	id := decodeBody[enqueueResp](t, rr).JobID

	for i := 0; i < 2; i++ {
		rr = f.do(t, http.MethodDelete, "/v1/jobs/"+id, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("cancel #%d status = %d", i+1, rr.Code)
		}
		if got := decodeBody[map[string]bool](t, rr); !got["cancelled"] {
			t.Fatalf("cancel #%d body = %v", i+1, got)
		}
	}
	job := f.jobs.Get(id)
	if job.Status != domain.JobStatusFailed || job.Error == nil || *job.Error != domain.CancelledMessage {
		t.Fatalf("job after cancel = %s/%v", job.Status, job.Error)
	}

	if rr := f.do(t, http.MethodDelete, "/v1/jobs/"+missingID, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown job status = %d", rr.Code)
	}
}

func TestExportProject(t *testing.T) {
	f := newFixture()
	f.characters.items = []domain.Character{{ID: "c1", ProjectID: testProjectID, Name: "한서진", Role: domain.RoleMain}}

	rr := f.do(t, http.MethodGet, "/v1/projects/"+testProjectID+"/export", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("content type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "UTF-8''") || !strings.HasSuffix(cd, ".zip") {
		t.Fatalf("content disposition = %q", cd)
	}
	data := rr.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	files := map[string]string{}
	for _, zf := range zr.File {
		rc, err := zf.Open()
		if err != nil {
			t.Fatalf("open %s: %v", zf.Name, err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		files[zf.Name] = string(b)
	}
	if !strings.Contains(files["episodes.txt"], "1화: 시작\n---\n문이 열렸다.") {
		t.Fatalf("episodes.txt = %q", files["episodes.txt"])
	}
	if !strings.Contains(files["settings.txt"], "한서진 (주연)") {
		t.Fatalf("settings.txt = %q", files["settings.txt"])
	}

	rr = f.do(t, http.MethodGet, "/v1/projects/"+testProjectID+"/export?format=md&type=settings", "")
	if ct := rr.Header().Get("Content-Type"); ct != "text/markdown; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.HasPrefix(rr.Body.String(), "# 검은 탑 — 프로젝트 설정") {
		t.Fatalf("settings markdown = %q", rr.Body.String())
	}

	if rr := f.do(t, http.MethodGet, "/v1/projects/"+missingID+"/export", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("missing project status = %d", rr.Code)
	}
}

func TestMessageFallsBackToKorean(t *testing.T) {
	if got := message("ja", codeNotFound); got != messages["ko"][codeNotFound] {
		t.Fatalf("message = %q", got)
	}
	if got := message("en", "mystery"); got != "mystery" {
		t.Fatalf("unknown code = %q", got)
	}
}
