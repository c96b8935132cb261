package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/splitx/internal/metrics"
	"github.com/mmynk/splitx/pkg/api"
)

type stubAuth struct{}

func (stubAuth) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.AuthResponse], error) {
	return connect.NewResponse(&api.AuthResponse{User: api.User{Name: req.Msg.Name}, Token: "t"}), nil
}

func (stubAuth) Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.AuthResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("login disabled"))
}

func (stubAuth) GetCurrentUser(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.UserResponse], error) {
	return connect.NewResponse(&api.UserResponse{}), nil
}

func setupServer(t *testing.T, ping func(context.Context) error) (*httptest.Server, string) {
	t.Helper()

	staticDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<html>splitx</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(staticDir, "app.js"), []byte("console.log('hi')"), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	handler := New(Services{Auth: stubAuth{}}, Options{
		StaticPath:   staticDir,
		Interceptors: []connect.Interceptor{m.Interceptor()},
		Metrics:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Ping:         ping,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, staticDir
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestHealthz(t *testing.T) {
	server, _ := setupServer(t, func(context.Context) error { return nil })
	status, body := get(t, server.URL+"/healthz")
	if status != http.StatusOK || !strings.Contains(body, `"ok"`) {
		t.Errorf("healthz = %d %s", status, body)
	}

	down, _ := setupServer(t, func(context.Context) error { return errors.New("db gone") })
	status, body = get(t, down.URL+"/healthz")
	if status != http.StatusServiceUnavailable || !strings.Contains(body, "unavailable") {
		t.Errorf("healthz when down = %d %s", status, body)
	}
}

func TestRPCAndMetrics(t *testing.T) {
	server, _ := setupServer(t, nil)
	client := api.NewAuthServiceClient(http.DefaultClient, server.URL)

	resp, err := client.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{Name: "Alice"}))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if resp.Msg.User.Name != "Alice" {
		t.Errorf("unexpected response: %+v", resp.Msg)
	}

	_, err = client.Login(context.Background(), connect.NewRequest(&api.LoginRequest{}))
	if connect.CodeOf(err) != connect.CodeUnimplemented {
		t.Errorf("expected unimplemented, got %v", err)
	}

	status, body := get(t, server.URL+"/metrics")
	if status != http.StatusOK {
		t.Fatalf("metrics status %d", status)
	}
	for _, want := range []string{
		`splitx_rpc_requests_total{code="ok",procedure="/splitx.v1.AuthService/Register"} 1`,
		`splitx_rpc_requests_total{code="unimplemented",procedure="/splitx.v1.AuthService/Login"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestStaticFiles(t *testing.T) {
	server, _ := setupServer(t, nil)

	tests := []struct {
		path string
		want string
	}{
		{"/", "<html>splitx</html>"},
		{"/app.js", "console.log('hi')"},
		{"/groups/123", "<html>splitx</html>"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, body := get(t, server.URL+tt.path)
			if status != http.StatusOK || body != tt.want {
				t.Errorf("GET %s = %d %q, want %q", tt.path, status, body, tt.want)
			}
		})
	}

	status, _ := get(t, server.URL+"/splitx.v1.Unknown/Method")
	if status != http.StatusNotFound {
		t.Errorf("unknown RPC path: expected 404, got %d", status)
	}
}

func TestCORSPreflight(t *testing.T) {
	server, _ := setupServer(t, nil)

	req, _ := http.NewRequest(http.MethodOptions, server.URL+api.AuthServiceLoginProcedure, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if !strings.Contains(resp.Header.Get("Access-Control-Allow-Headers"), "Authorization") {
		t.Error("Authorization header not allowed")
	}
}
