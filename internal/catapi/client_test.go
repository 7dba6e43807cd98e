package catapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBatch = `[
  {"id":"a1","url":"https://cdn2.thecatapi.com/images/a1.jpg","width":800,"height":600,
   "breeds":[{"id":"abys","name":"Abyssinian","temperament":"Active, Energetic, Independent","origin":"Egypt","life_span":"14 - 15"}]},
  {"id":"b2","url":"https://cdn2.thecatapi.com/images/b2.jpg","breeds":[]}
]`

func TestSearchImages_SendsQueryAndKey(t *testing.T) {
	var gotPath, gotKey, gotLimit, gotBreeds string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		gotLimit = r.URL.Query().Get("limit")
		gotBreeds = r.URL.Query().Get("has_breeds")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleBatch))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL + "/", APIKey: "secret"})
	batch, err := client.SearchImages(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, "/images/search", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "10", gotLimit)
	assert.Equal(t, "1", gotBreeds)

	require.Len(t, batch, 2)
	assert.Equal(t, "https://cdn2.thecatapi.com/images/a1.jpg", batch[0].URL)
	require.NotNil(t, batch[0].PrimaryBreed())
	assert.Equal(t, "Abyssinian", batch[0].PrimaryBreed().Name)
	assert.Equal(t, "Active, Energetic, Independent", batch[0].PrimaryBreed().Temperament)
	assert.Equal(t, "Egypt", batch[0].PrimaryBreed().Origin)
	assert.Nil(t, batch[1].PrimaryBreed())
}

func TestSearchImages_DefaultLimit(t *testing.T) {
	var gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}).SearchImages(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "10", gotLimit)
}

func TestSearchImages_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}).SearchImages(context.Background(), 10)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.True(t, statusErr.Unauthorized())
	assert.Equal(t, "HTTP error! status: 401", statusErr.Error())
}

func TestSearchImages_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"`))
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}).SearchImages(context.Background(), 10)

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, "decode response", netErr.Op)
}

func TestSearchImages_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(Config{BaseURL: url, Timeout: time.Second}).SearchImages(context.Background(), 10)

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, "do request", netErr.Op)
}

func TestSearchImages_SanitizesBreedText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"x","url":"https://example.com/x.jpg","breeds":[
			{"name":"<b>Bengal</b>","temperament":"Alert, <script>alert(1)</script>Agile","origin":"Côte d'Ivoire"}]}]`))
	}))
	defer srv.Close()

	batch, err := NewClient(Config{BaseURL: srv.URL}).SearchImages(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, batch, 1)

	breed := batch[0].PrimaryBreed()
	assert.Equal(t, "Bengal", breed.Name)
	assert.Equal(t, "Alert, Agile", breed.Temperament)
	assert.Equal(t, "Côte d'Ivoire", breed.Origin)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{})
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, defaultTimeout, c.httpClient.Timeout)
}
