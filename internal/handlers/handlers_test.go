package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"vinivici/internal/catapi"
	"vinivici/internal/dto"
	"vinivici/internal/models"
	"vinivici/internal/repositories"
	"vinivici/internal/services"
	"vinivici/internal/validator"
	"vinivici/internal/web"
	"vinivici/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	batch []models.Candidate
	err   error
	calls atomic.Int32
}

func (s *stubSearcher) SearchImages(_ context.Context, _ int) ([]models.Candidate, error) {
	s.calls.Add(1)
	return s.batch, s.err
}

func abyssinian() models.Candidate {
	return models.Candidate{
		ID:  "abys1",
		URL: "https://cdn2.thecatapi.com/images/abys1.jpg",
		Breeds: []models.Breed{{
			Name:        "Abyssinian",
			Temperament: "Active, Energetic, Independent",
			Origin:      "Egypt",
		}},
	}
}

type errorBody struct {
	Error struct {
		Code    apperrors.ErrorCode `json:"code"`
		Message string              `json:"message"`
	} `json:"error"`
}

func setupRouter(t *testing.T, searcher catapi.Searcher) (*gin.Engine, services.DiscoveryService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	svc := services.NewDiscoveryService(ctx, searcher, repositories.NewBanRepository(), services.DefaultDiscoveryConfig())
	base := NewBaseHandler(validator.New())

	r := gin.New()
	r.SetHTMLTemplate(web.MustTemplates())
	NewPageHandler(base, svc).RegisterRoutes(r)
	NewDiscoveryHandler(base, svc).RegisterRoutes(r.Group("/api/v1"))
	r.GET("/healthz", NewHealthHandler(svc).Health)
	return r, svc
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doForm(r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ---------------------------------------------------------------------------
// JSON API
// ---------------------------------------------------------------------------

func TestGetState_Initial(t *testing.T) {
	r, _ := setupRouter(t, &stubSearcher{})

	w := doJSON(r, http.MethodGet, "/api/v1/state", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snap models.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, models.PhaseIdle, snap.State.Phase)
	assert.Nil(t, snap.State.Current)
	assert.Empty(t, snap.Bans)
	assert.Contains(t, w.Body.String(), `"bans":[]`)
}

func TestDiscover_ReturnsReadySnapshot(t *testing.T) {
	searcher := &stubSearcher{batch: []models.Candidate{abyssinian()}}
	r, _ := setupRouter(t, searcher)

	w := doJSON(r, http.MethodPost, "/api/v1/discover", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var snap models.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, models.PhaseReady, snap.State.Phase)
	require.NotNil(t, snap.State.Current)
	assert.Equal(t, "abys1", snap.State.Current.ID)
	assert.Equal(t, int32(1), searcher.calls.Load())
}

func TestDiscover_ExhaustedIsConflict(t *testing.T) {
	searcher := &stubSearcher{batch: []models.Candidate{abyssinian()}}
	r, svc := setupRouter(t, searcher)

	_, err := svc.ToggleBan(models.BanRule{Type: models.AttributeOrigin, Value: "Egypt"})
	require.NoError(t, err)

	w := doJSON(r, http.MethodPost, "/api/v1/discover", "")
	require.Equal(t, http.StatusConflict, w.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperrors.CodeDiscoveryExhausted, body.Error.Code)
	assert.Equal(t, apperrors.ErrDiscoveryExhausted.Message, body.Error.Message)
	assert.Equal(t, int32(1+services.DefaultMaxRetries), searcher.calls.Load())
	assert.Equal(t, models.PhaseFailed, svc.Snapshot().State.Phase)
}

func TestDiscover_UpstreamStatusIsBadGateway(t *testing.T) {
	searcher := &stubSearcher{err: &catapi.StatusError{StatusCode: http.StatusUnauthorized}}
	r, _ := setupRouter(t, searcher)

	w := doJSON(r, http.MethodPost, "/api/v1/discover", "")
	require.Equal(t, http.StatusBadGateway, w.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperrors.CodeUpstreamStatus, body.Error.Code)
	assert.Contains(t, body.Error.Message, "HTTP error! status: 401")
	assert.Equal(t, int32(1), searcher.calls.Load(), "fetch errors are not retried")
}

func TestToggleBan_AddsThenRemoves(t *testing.T) {
	r, svc := setupRouter(t, &stubSearcher{})
	payload := `{"type":"temperament","value":"Active"}`

	w := doJSON(r, http.MethodPost, "/api/v1/bans/toggle", payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var list dto.BanListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, []models.BanRule{{Type: models.AttributeTemperament, Value: "Active"}}, list.Bans)

	w = doJSON(r, http.MethodPost, "/api/v1/bans/toggle", payload)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 0, list.Count)
	assert.Empty(t, svc.Bans())
}

func TestToggleBan_Rejected(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown type", `{"type":"color","value":"Orange"}`},
		{"missing value", `{"type":"origin"}`},
		{"malformed json", `{"type":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, svc := setupRouter(t, &stubSearcher{})

			w := doJSON(r, http.MethodPost, "/api/v1/bans/toggle", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var body errorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, apperrors.CodeValidationFailed, body.Error.Code)
			assert.Empty(t, svc.Bans())
		})
	}
}

func TestListAndClearBans(t *testing.T) {
	r, svc := setupRouter(t, &stubSearcher{})
	_, _ = svc.ToggleBan(models.BanRule{Type: models.AttributeBreedName, Value: "Persian"})
	_, _ = svc.ToggleBan(models.BanRule{Type: models.AttributeOrigin, Value: "Egypt"})

	w := doJSON(r, http.MethodGet, "/api/v1/bans", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list dto.BanListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, models.AttributeBreedName, list.Bans[0].Type, "insertion order")

	w = doJSON(r, http.MethodDelete, "/api/v1/bans", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, svc.Bans())
}

func TestHealth(t *testing.T) {
	r, _ := setupRouter(t, &stubSearcher{})

	w := doJSON(r, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body dto.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, string(models.PhaseIdle), body.Phase)
}

// ---------------------------------------------------------------------------
// HTML page
// ---------------------------------------------------------------------------

func TestIndex_StartsFirstDiscovery(t *testing.T) {
	searcher := &stubSearcher{batch: []models.Candidate{abyssinian()}}
	r, svc := setupRouter(t, searcher)

	w := doJSON(r, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Veni Vici!")
	assert.Contains(t, w.Body.String(), "No attributes banned yet")

	assert.Eventually(t, func() bool {
		return svc.Snapshot().State.Phase == models.PhaseReady
	}, 2*time.Second, 10*time.Millisecond)

	// the second visit renders the cat and does not fetch again
	w = doJSON(r, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "https://cdn2.thecatapi.com/images/abys1.jpg")
	assert.Contains(t, body, `value="Energetic"`)
	assert.Contains(t, body, `value="Egypt"`)
	assert.Equal(t, int32(1), searcher.calls.Load())
}

func TestIndex_ShowsFailure(t *testing.T) {
	searcher := &stubSearcher{err: &catapi.NetworkError{Op: "do request", Err: context.DeadlineExceeded}}
	r, svc := setupRouter(t, searcher)

	_, err := svc.Discover(context.Background())
	require.Error(t, err)

	w := doJSON(r, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to fetch cat:")
	assert.Contains(t, w.Body.String(), "Please check your API key or network connection.")
}

func TestPageDiscover_Redirects(t *testing.T) {
	searcher := &stubSearcher{batch: []models.Candidate{abyssinian()}}
	r, svc := setupRouter(t, searcher)

	w := doForm(r, "/discover", url.Values{})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	assert.Eventually(t, func() bool {
		return svc.Snapshot().State.Phase == models.PhaseReady
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPageToggleBan(t *testing.T) {
	r, svc := setupRouter(t, &stubSearcher{})

	w := doForm(r, "/bans/toggle", url.Values{"type": {"origin"}, "value": {"Egypt"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, []models.BanRule{{Type: models.AttributeOrigin, Value: "Egypt"}}, svc.Bans())

	w = doJSON(r, http.MethodGet, "/", "")
	assert.Contains(t, w.Body.String(), "origin: Egypt")
}

func TestPageToggleBan_InvalidRendersError(t *testing.T) {
	r, svc := setupRouter(t, &stubSearcher{})

	w := doForm(r, "/bans/toggle", url.Values{"type": {"color"}, "value": {"Orange"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Validation failed")
	assert.Empty(t, svc.Bans())
}
