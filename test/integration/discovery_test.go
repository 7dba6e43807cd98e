package integration_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"vinivici/internal/models"
	"vinivici/test/helpers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func persians(n int) []models.Candidate {
	batch := make([]models.Candidate, n)
	for i := range batch {
		batch[i] = helpers.Cat("pers", "Persian", "Affectionate, Loyal, Sedate, Quiet", "Iran (Persia)")
	}
	return batch
}

func abyssinian() models.Candidate {
	return helpers.Cat("abys", "Abyssinian", "Active, Energetic, Independent, Intelligent, Gentle", "Egypt")
}

// TestDiscovery walks the main flow: discover, ban, discover again.
func TestDiscovery(t *testing.T) {
	upstream := helpers.NewFakeCatAPI(t,
		[]models.Candidate{abyssinian()},
		append(persians(9), abyssinian()),
	)
	ts := helpers.NewTestServer(t, upstream)

	t.Run("POST /api/v1/discover - first cat", func(t *testing.T) {
		res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/discover", nil)
		require.Equal(t, http.StatusOK, res.StatusCode, body)

		var snap models.Snapshot
		require.NoError(t, json.Unmarshal([]byte(body), &snap))
		assert.Equal(t, models.PhaseReady, snap.State.Phase)
		assert.Equal(t, "abys", snap.State.Current.ID)

		reqs := upstream.Requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, "test-key", reqs[0].Header.Get("x-api-key"))
		assert.Equal(t, "1", reqs[0].URL.Query().Get("has_breeds"))
		assert.Equal(t, "10", reqs[0].URL.Query().Get("limit"))
	})

	t.Run("POST /api/v1/bans/toggle - ban Persian", func(t *testing.T) {
		res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/bans/toggle",
			gin.H{"type": "breedName", "value": "Persian"})
		require.Equal(t, http.StatusOK, res.StatusCode, body)
		assert.Contains(t, body, `"count":1`)
	})

	t.Run("POST /api/v1/discover - skips banned breed in batch", func(t *testing.T) {
		res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/discover", nil)
		require.Equal(t, http.StatusOK, res.StatusCode, body)

		var snap models.Snapshot
		require.NoError(t, json.Unmarshal([]byte(body), &snap))
		assert.Equal(t, "abys", snap.State.Current.ID)
		assert.Equal(t, 1, snap.State.Attempts)
		assert.Len(t, upstream.Requests(), 2)
	})

	t.Run("GET / - renders cat and ban list", func(t *testing.T) {
		res, body := ts.SendRequest(t, http.MethodGet, "/", nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, "https://cdn2.thecatapi.com/images/abys.jpg")
		assert.Contains(t, body, "breedName: Persian")
		assert.Contains(t, body, `value="Intelligent"`)
	})
}

func TestDiscovery_ExhaustsRetries(t *testing.T) {
	upstream := helpers.NewFakeCatAPI(t, persians(10))
	ts := helpers.NewTestServer(t, upstream)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/bans/toggle",
		gin.H{"type": "temperament", "value": "Loyal"})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	res, body = ts.SendRequest(t, http.MethodPost, "/api/v1/discover", nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Contains(t, body, "Could not find an unbanned cat after multiple attempts.")
	assert.Len(t, upstream.Requests(), 6, "one batch plus five retries")

	res, body = ts.SendRequest(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Try removing some items from the ban list.")
}

func TestDiscovery_UpstreamUnauthorized(t *testing.T) {
	upstream := helpers.NewFakeCatAPI(t, []models.Candidate{abyssinian()})
	upstream.FailWith(http.StatusUnauthorized)
	ts := helpers.NewTestServer(t, upstream)

	res, body := ts.SendRequest(t, http.MethodPost, "/api/v1/discover", nil)
	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
	assert.Contains(t, body, "Failed to fetch cat: HTTP error! status: 401. Please check your API key or network connection.")
	assert.Len(t, upstream.Requests(), 1)

	snap := ts.Discovery.Snapshot()
	assert.Equal(t, models.PhaseFailed, snap.State.Phase)
	assert.Nil(t, snap.State.Current)
}

func TestDiscovery_FormFlowWithWebSocket(t *testing.T) {
	upstream := helpers.NewFakeCatAPI(t, []models.Candidate{abyssinian()})
	ts := helpers.NewTestServer(t, upstream)
	conn := ts.DialWS(t)

	readPhase := func() models.Phase {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		var msg struct {
			Event string          `json:"event"`
			Data  models.Snapshot `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, "state", msg.Event)
		return msg.Data.State.Phase
	}
	assert.Equal(t, models.PhaseIdle, readPhase())

	res, _ := ts.SendRequest(t, http.MethodPost, "/discover", nil)
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/", res.Header.Get("Location"))

	assert.Equal(t, models.PhaseLoading, readPhase())
	assert.Equal(t, models.PhaseReady, readPhase())

	res, body := ts.SendRequest(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, strings.Contains(body, "Abyssinian"), "page shows the discovered breed")
}
