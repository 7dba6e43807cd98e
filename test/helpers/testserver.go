package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vinivici/internal/app"
	"vinivici/internal/config"
	"vinivici/internal/services"

	"github.com/gorilla/websocket"
)

// TestServer is the full application in front of a fake image search.
type TestServer struct {
	Server    *httptest.Server
	Upstream  *FakeCatAPI
	Discovery services.DiscoveryService
}

// NewTestServer wires the real router and HTTP client against upstream.
func NewTestServer(t *testing.T, upstream *FakeCatAPI) *TestServer {
	t.Helper()

	cfg := config.Default()
	cfg.Server.Env = "test"
	cfg.CatAPI.BaseURL = upstream.Server.URL
	cfg.CatAPI.APIKey = "test-key"
	cfg.CORS.AllowedOrigins = nil

	ctx, cancel := context.WithCancel(context.Background())
	application := app.SetupRouter(ctx, cfg, nil)

	done := make(chan struct{})
	go func() {
		application.WSManager.Run(ctx)
		close(done)
	}()

	server := httptest.NewServer(application.Router)
	t.Cleanup(func() {
		cancel()
		<-done
		server.Close()
	})

	return &TestServer{
		Server:    server,
		Upstream:  upstream,
		Discovery: application.Services.DiscoveryService,
	}
}

// SendRequest sends body as JSON and returns the response with its body.
func (ts *TestServer) SendRequest(t *testing.T, method, path string, body interface{}) (*http.Response, string) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := ts.Server.Client()
	// keep redirects visible to the test
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("send request: %v", err)
	}
	defer res.Body.Close()

	resBodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return res, string(resBodyBytes)
}

// DialWS opens the state websocket.
func (ts *TestServer) DialWS(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.Server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}
