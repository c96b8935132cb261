package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/splitx/internal/middleware"
	"github.com/mmynk/splitx/internal/models"
	"github.com/mmynk/splitx/internal/storage/sqlstore"
	"github.com/mmynk/splitx/pkg/api"
)

// testUserHeader carries the caller's user ID in tests instead of a JWT.
const testUserHeader = "X-Test-User"

func testAuthInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if userID := req.Header().Get(testUserHeader); userID != "" {
				ctx = middleware.WithUser(ctx, userID, "")
			}
			return next(ctx, req)
		}
	}
}

type testEnv struct {
	store       *sqlstore.Store
	groups      *api.GroupServiceClient
	expenses    *api.ExpenseServiceClient
	balances    *api.BalanceServiceClient
	settlements *api.SettlementServiceClient
}

// setupTestServer serves every data service over httptest backed by a temp
// SQLite database.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlstore.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := connect.WithInterceptors(testAuthInterceptor())

	mux := http.NewServeMux()
	mux.Handle(api.NewGroupServiceHandler(NewGroupService(store, logger), opts))
	mux.Handle(api.NewExpenseServiceHandler(NewExpenseService(store, logger), opts))
	mux.Handle(api.NewBalanceServiceHandler(NewBalanceService(store, nil, logger), opts))
	mux.Handle(api.NewSettlementServiceHandler(NewSettlementService(store, nil, logger), opts))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testEnv{
		store:       store,
		groups:      api.NewGroupServiceClient(http.DefaultClient, server.URL),
		expenses:    api.NewExpenseServiceClient(http.DefaultClient, server.URL),
		balances:    api.NewBalanceServiceClient(http.DefaultClient, server.URL),
		settlements: api.NewSettlementServiceClient(http.DefaultClient, server.URL),
	}
}

// seedUsers registers users directly in the store and returns their IDs.
func (e *testEnv) seedUsers(t *testing.T, names ...string) []string {
	t.Helper()

	ids := make([]string, len(names))
	for i, name := range names {
		user := models.NewUser(name+"@example.com", name, "hash")
		if err := e.store.CreateUser(context.Background(), user); err != nil {
			t.Fatalf("failed to seed user %s: %v", name, err)
		}
		ids[i] = user.ID
	}
	return ids
}

// createGroup creates a group owned by the first member.
func (e *testEnv) createGroup(t *testing.T, name string, members ...string) string {
	t.Helper()

	resp, err := e.groups.CreateGroup(context.Background(), as(members[0], &api.CreateGroupRequest{
		Name:    name,
		Members: members[1:],
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return resp.Msg.Group.ID
}

// addEqualExpense records an expense split equally across the group.
func (e *testEnv) addEqualExpense(t *testing.T, groupID, payer, title string, amount float64) string {
	t.Helper()

	resp, err := e.expenses.CreateExpense(context.Background(), as(payer, &api.CreateExpenseRequest{
		Title:     title,
		Amount:    amount,
		GroupID:   groupID,
		SplitType: string(models.SplitTypeEqual),
	}))
	if err != nil {
		t.Fatalf("CreateExpense(%s) failed: %v", title, err)
	}
	return resp.Msg.Expense.ID
}

// as builds a request made by userID.
func as[T any](userID string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if userID != "" {
		req.Header().Set(testUserHeader, userID)
	}
	return req
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Fatalf("expected connect.Error, got %T", err)
	}
	if connectErr.Code() != want {
		t.Errorf("expected %v, got %v (%s)", want, connectErr.Code(), connectErr.Message())
	}
}

func assertAmount(t *testing.T, name string, got, want float64) {
	t.Helper()

	if math.Abs(got-want) > 0.01 {
		t.Errorf("%s: expected %.2f, got %.2f", name, want, got)
	}
}
