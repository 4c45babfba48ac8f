package controller

import (
	"bytes"
	"cbme_survey_backend/internal/config"
	"cbme_survey_backend/internal/middleware"
	"cbme_survey_backend/internal/model"
	"cbme_survey_backend/internal/service"
	"cbme_survey_backend/internal/util"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "controller-test-secret-with-enough-length"

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStore struct {
	mu        sync.Mutex
	responses []model.SurveyResponse
	err       error
}

func (s *fakeStore) Create(ctx context.Context, resp *model.SurveyResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	resp.ID = uint(len(s.responses) + 1)
	resp.CreatedAt = time.Date(2025, 3, 1, 2, 30, 0, 0, time.UTC)
	s.responses = append(s.responses, *resp)
	return nil
}

func (s *fakeStore) List(ctx context.Context, filter model.SurveyResponseFilter) ([]model.SurveyResponse, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, 0, s.err
	}
	var out []model.SurveyResponse
	for i := len(s.responses) - 1; i >= 0; i-- {
		if filter.Profession != "" && s.responses[i].Profession != filter.Profession {
			continue
		}
		out = append(out, s.responses[i])
	}
	return out, int64(len(out)), nil
}

func (s *fakeStore) FindByID(ctx context.Context, id uint) (*model.SurveyResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, r := range s.responses {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, util.ErrResponseNotFound
}

func (s *fakeStore) SummaryByProfession(ctx context.Context, filter model.SurveyResponseFilter) ([]model.ProfessionSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []model.ProfessionSummary{{Profession: model.ProfessionNurse, Count: int64(len(s.responses))}}, nil
}

func (s *fakeStore) OverallSummary(ctx context.Context, filter model.SurveyResponseFilter) (*model.OverallSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.OverallSummary{TotalResponses: int64(len(s.responses))}, nil
}

func newTestRouter(t *testing.T, store service.SurveyStore) *gin.Engine {
	t.Helper()
	surveySvc := service.NewSurveyService(store, service.NewSurveyValidator(config.OptionPolicyStrict), nil, nil)
	exportSvc := service.NewExportService(store, &service.LocalStorageProvider{Root: t.TempDir()}, time.UTC)
	survey := NewSurveyController(surveySvc, exportSvc, time.UTC)

	router := gin.New()
	router.POST("/api/submit", survey.Submit)
	router.GET("/api/survey/options", survey.Options)

	admin := router.Group("/api/admin/survey")
	admin.Use(
		middleware.AuthMiddleware(func() string { return testSecret }),
		middleware.RoleMiddleware(util.RoleAdmin),
	)
	admin.GET("/responses", survey.ListResponses)
	admin.GET("/responses/export", survey.ExportCSV)
	admin.POST("/responses/archive", survey.ArchiveCSV)
	admin.GET("/responses/:id", survey.GetResponse)
	admin.GET("/summary", survey.OverallSummary)
	admin.GET("/summary/professions", survey.SummaryByProfession)
	return router
}

func loadSubmission(t *testing.T) []byte {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("..", "service", "testdata", "complete_submission.json"))
	require.NoError(t, err)
	return body
}

func submissionWith(t *testing.T, overrides map[string]any) []byte {
	t.Helper()
	var raw map[string]any
	require.NoError(t, json.Unmarshal(loadSubmission(t), &raw))
	for k, v := range overrides {
		if v == nil {
			delete(raw, k)
			continue
		}
		raw[k] = v
	}
	body, err := json.Marshal(raw)
	require.NoError(t, err)
	return body
}

func adminToken(t *testing.T, role string) string {
	t.Helper()
	token, err := util.GenerateJWT("1", "admin@hospital.com", role, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func doRequest(router *gin.Engine, method, path string, body []byte, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestSurveyController_SubmitAccepted(t *testing.T) {
	store := &fakeStore{}
	router := newTestRouter(t, store)

	w := doRequest(router, http.MethodPost, "/api/submit", loadSubmission(t), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["id"])

	require.Len(t, store.responses, 1)
	assert.Equal(t, 3.75, store.responses[0].OverallAvg)
}

func TestSurveyController_SubmitMissingIdentity(t *testing.T) {
	store := &fakeStore{}
	router := newTestRouter(t, store)

	w := doRequest(router, http.MethodPost, "/api/submit", submissionWith(t, map[string]any{"email": nil}), "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decode(t, w)
	assert.Equal(t, util.MsgMissingRequired, body["message"])
	assert.Empty(t, store.responses)
}

func TestSurveyController_SubmitValidationErrors(t *testing.T) {
	store := &fakeStore{}
	router := newTestRouter(t, store)

	w := doRequest(router, http.MethodPost, "/api/submit", submissionWith(t, map[string]any{
		"epaDesignCompletion": 9,
		"toolMinicex":         nil,
	}), "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decode(t, w)
	assert.Equal(t, util.MsgValidationFailed, body["message"])
	errs, ok := body["errors"].([]any)
	require.True(t, ok)

	var fields []string
	for _, e := range errs {
		fields = append(fields, e.(map[string]any)["field"].(string))
	}
	assert.Equal(t, []string{"epaDesignCompletion", "toolMinicex"}, fields)
	assert.Empty(t, store.responses)
}

func TestSurveyController_SubmitMalformedBody(t *testing.T) {
	router := newTestRouter(t, &fakeStore{})

	w := doRequest(router, http.MethodPost, "/api/submit", []byte(`[1,2,3]`), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSurveyController_SubmitStorageFailures(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"unavailable", fmt.Errorf("%w: dial tcp: refused", util.ErrStorageUnavailable), http.StatusServiceUnavailable},
		{"rejected", fmt.Errorf("%w: constraint", util.ErrStorageError), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(t, &fakeStore{err: tc.err})

			w := doRequest(router, http.MethodPost, "/api/submit", loadSubmission(t), "")
			require.Equal(t, tc.code, w.Code)
			assert.Equal(t, util.MsgSubmitFailedRetry, decode(t, w)["message"])
		})
	}
}

func TestSurveyController_Options(t *testing.T) {
	router := newTestRouter(t, &fakeStore{})

	w := doRequest(router, http.MethodGet, "/api/survey/options", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"NUR"`)
	assert.Contains(t, w.Body.String(), "護理師")
}

func TestSurveyController_AdminRequiresRole(t *testing.T) {
	router := newTestRouter(t, &fakeStore{})

	w := doRequest(router, http.MethodGet, "/api/admin/survey/responses", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodGet, "/api/admin/survey/responses", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodGet, "/api/admin/survey/responses", nil, adminToken(t, "viewer"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(router, http.MethodGet, "/api/admin/survey/responses", nil, adminToken(t, util.RoleAdmin))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSurveyController_ListAndGet(t *testing.T) {
	store := &fakeStore{}
	router := newTestRouter(t, store)
	require.Equal(t, http.StatusOK, doRequest(router, http.MethodPost, "/api/submit", loadSubmission(t), "").Code)
	require.Equal(t, http.StatusOK, doRequest(router, http.MethodPost, "/api/submit",
		submissionWith(t, map[string]any{"profession": "RAD"}), "").Code)
	token := adminToken(t, util.RoleAdmin)

	w := doRequest(router, http.MethodGet, "/api/admin/survey/responses?profession=RAD&limit=10", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Data struct {
			List  []model.SurveyResponse `json:"list"`
			Total int64                  `json:"total"`
			Page  int                    `json:"page"`
			Limit int                    `json:"limit"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(1), page.Data.Total)
	assert.Equal(t, 1, page.Data.Page)
	require.Len(t, page.Data.List, 1)
	assert.Equal(t, model.ProfessionRadiology, page.Data.List[0].Profession)

	w = doRequest(router, http.MethodGet, "/api/admin/survey/responses/1", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"overallAvg":3.75`)

	w = doRequest(router, http.MethodGet, "/api/admin/survey/responses/99", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodGet, "/api/admin/survey/responses/abc", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSurveyController_FilterValidation(t *testing.T) {
	router := newTestRouter(t, &fakeStore{})
	token := adminToken(t, util.RoleAdmin)

	for _, query := range []string{
		"profession=XYZ",
		"startDate=yesterday",
		"startDate=2025-03-02&endDate=2025-03-01",
		"page=0",
		"limit=-5",
	} {
		w := doRequest(router, http.MethodGet, "/api/admin/survey/responses?"+query, nil, token)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}

	w := doRequest(router, http.MethodGet, "/api/admin/survey/summary?startDate=2025-03-01&endDate=2025-03-01", nil, token)
	assert.Equal(t, http.StatusOK, w.Code, "a single day is a valid range")
}

func TestSurveyController_Summaries(t *testing.T) {
	store := &fakeStore{}
	router := newTestRouter(t, store)
	require.Equal(t, http.StatusOK, doRequest(router, http.MethodPost, "/api/submit", loadSubmission(t), "").Code)
	token := adminToken(t, util.RoleAdmin)

	w := doRequest(router, http.MethodGet, "/api/admin/survey/summary", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalResponses":1`)

	w = doRequest(router, http.MethodGet, "/api/admin/survey/summary/professions", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"profession":"NUR"`)

	store.err = fmt.Errorf("%w: closed", util.ErrStorageUnavailable)
	w = doRequest(router, http.MethodGet, "/api/admin/survey/summary", nil, token)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	store.err = errors.New("syntax error")
	w = doRequest(router, http.MethodGet, "/api/admin/survey/summary/professions", nil, token)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSurveyController_ExportAndArchive(t *testing.T) {
	store := &fakeStore{}
	router := newTestRouter(t, store)
	require.Equal(t, http.StatusOK, doRequest(router, http.MethodPost, "/api/submit", loadSubmission(t), "").Code)
	token := adminToken(t, util.RoleAdmin)

	w := doRequest(router, http.MethodGet, "/api/admin/survey/responses/export", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), util.MimeCSV))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "survey-responses-")
	assert.True(t, strings.HasPrefix(w.Body.String(), "\uFEFFid,createdAt,campus"))

	w = doRequest(router, http.MethodPost, "/api/admin/survey/responses/archive", nil, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"rows":1`)
	assert.Contains(t, w.Body.String(), "/uploads/exports/")
}
