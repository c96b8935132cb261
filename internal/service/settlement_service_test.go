package service

import (
	"context"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitx/pkg/api"
)

func TestCreateSettlement_Validation(t *testing.T) {
	env := setupTestServer(t)
	users := env.seedUsers(t, "Alice", "Bob", "Charlie", "Mallory")
	alice, bob, charlie, mallory := users[0], users[1], users[2], users[3]
	groupID := env.createGroup(t, "Trip", alice, bob, charlie)
	otherGroup := env.createGroup(t, "Other", alice, bob)
	otherExpense := env.addEqualExpense(t, otherGroup, alice, "Elsewhere", 10)

	tests := []struct {
		name string
		user string
		req  *api.CreateSettlementRequest
		code connect.Code
	}{
		{
			name: "missing fields",
			user: bob,
			req:  &api.CreateSettlementRequest{FromUser: bob, GroupID: groupID, Amount: 10},
			code: connect.CodeInvalidArgument,
		},
		{
			name: "negative amount",
			user: bob,
			req:  &api.CreateSettlementRequest{FromUser: bob, ToUser: alice, GroupID: groupID, Amount: -5},
			code: connect.CodeInvalidArgument,
		},
		{
			name: "self settlement",
			user: bob,
			req:  &api.CreateSettlementRequest{FromUser: bob, ToUser: bob, GroupID: groupID, Amount: 5},
			code: connect.CodeInvalidArgument,
		},
		{
			name: "unknown group",
			user: bob,
			req:  &api.CreateSettlementRequest{FromUser: bob, ToUser: alice, GroupID: "nope", Amount: 5},
			code: connect.CodeNotFound,
		},
		{
			name: "caller not a member",
			user: mallory,
			req:  &api.CreateSettlementRequest{FromUser: mallory, ToUser: alice, GroupID: groupID, Amount: 5},
			code: connect.CodePermissionDenied,
		},
		{
			name: "caller not involved",
			user: charlie,
			req:  &api.CreateSettlementRequest{FromUser: bob, ToUser: alice, GroupID: groupID, Amount: 5},
			code: connect.CodePermissionDenied,
		},
		{
			name: "counterparty not a member",
			user: bob,
			req:  &api.CreateSettlementRequest{FromUser: bob, ToUser: mallory, GroupID: groupID, Amount: 5},
			code: connect.CodeInvalidArgument,
		},
		{
			name: "expense from another group",
			user: bob,
			req:  &api.CreateSettlementRequest{FromUser: bob, ToUser: alice, GroupID: groupID, Amount: 5, ExpenseIDs: []string{otherExpense}},
			code: connect.CodeInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.settlements.CreateSettlement(context.Background(), as(tt.user, tt.req))
			assertCode(t, err, tt.code)
		})
	}
}

func TestSettlementLifecycle(t *testing.T) {
	env := setupTestServer(t)
	users := env.seedUsers(t, "Alice", "Bob", "Charlie")
	alice, bob, charlie := users[0], users[1], users[2]
	groupID := env.createGroup(t, "Trip", alice, bob)

	hotel := env.addEqualExpense(t, groupID, alice, "Hotel", 60)

	suggestions, err := env.settlements.GetSettlementSuggestions(context.Background(), as(bob, &api.GetSettlementSuggestionsRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("GetSettlementSuggestions failed: %v", err)
	}
	if len(suggestions.Msg.Suggestions) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(suggestions.Msg.Suggestions))
	}
	s := suggestions.Msg.Suggestions[0]
	if s.FromUser != bob || s.ToUser != alice || s.FromUserName != "Bob" {
		t.Errorf("unexpected suggestion: %+v", s)
	}
	assertAmount(t, "suggested amount", s.Amount, 30)

	created, err := env.settlements.CreateSettlement(context.Background(), as(bob, &api.CreateSettlementRequest{
		FromUser:   s.FromUser,
		ToUser:     s.ToUser,
		GroupID:    groupID,
		Amount:     s.Amount,
		ExpenseIDs: []string{hotel},
	}))
	if err != nil {
		t.Fatalf("CreateSettlement failed: %v", err)
	}
	settlement := created.Msg.Settlement
	if settlement.Status != "pending" {
		t.Errorf("Status = %q, want pending", settlement.Status)
	}
	if settlement.FromUser.Name != "Bob" || settlement.ToUser.Name != "Alice" {
		t.Errorf("parties not resolved: %+v", settlement)
	}
	if len(settlement.ExpenseIDs) != 1 || settlement.ExpenseIDs[0] != hotel {
		t.Errorf("ExpenseIDs = %v", settlement.ExpenseIDs)
	}

	t.Run("pending settlement does not change balances", func(t *testing.T) {
		resp, err := env.balances.GetGroupBalances(context.Background(), as(alice, &api.GetGroupBalancesRequest{GroupID: groupID}))
		if err != nil {
			t.Fatalf("GetGroupBalances failed: %v", err)
		}
		if len(resp.Msg.Settlements) != 1 {
			t.Errorf("expected 1 suggestion while pending, got %d", len(resp.Msg.Settlements))
		}
	})

	t.Run("outsider cannot update", func(t *testing.T) {
		_, err := env.settlements.UpdateSettlement(context.Background(), as(charlie, &api.UpdateSettlementRequest{
			SettlementID: settlement.ID,
			Status:       "paid",
		}))
		assertCode(t, err, connect.CodePermissionDenied)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := env.settlements.UpdateSettlement(context.Background(), as(alice, &api.UpdateSettlementRequest{
			SettlementID: settlement.ID,
			Status:       "refunded",
		}))
		assertCode(t, err, connect.CodeInvalidArgument)
	})

	t.Run("unknown settlement", func(t *testing.T) {
		_, err := env.settlements.UpdateSettlement(context.Background(), as(alice, &api.UpdateSettlementRequest{
			SettlementID: "nope",
			Status:       "paid",
		}))
		assertCode(t, err, connect.CodeNotFound)
	})

	t.Run("paid settles linked expenses", func(t *testing.T) {
		before := time.Now().Unix()
		resp, err := env.settlements.UpdateSettlement(context.Background(), as(alice, &api.UpdateSettlementRequest{
			SettlementID: settlement.ID,
			Status:       "paid",
			PaymentID:    "txn-42",
		}))
		if err != nil {
			t.Fatalf("UpdateSettlement failed: %v", err)
		}
		got := resp.Msg.Settlement
		if got.Status != "paid" || got.PaymentID != "txn-42" {
			t.Errorf("unexpected settlement: %+v", got)
		}
		if got.PaymentDate < before {
			t.Errorf("PaymentDate = %d, want >= %d", got.PaymentDate, before)
		}

		expense, err := env.expenses.GetExpense(context.Background(), as(bob, &api.GetExpenseRequest{ExpenseID: hotel}))
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if !expense.Msg.Expense.IsSettled {
			t.Error("expected linked expense to be settled")
		}

		balances, err := env.balances.GetGroupBalances(context.Background(), as(bob, &api.GetGroupBalancesRequest{GroupID: groupID}))
		if err != nil {
			t.Fatalf("GetGroupBalances failed: %v", err)
		}
		if len(balances.Msg.Balances) != 0 || len(balances.Msg.Settlements) != 0 {
			t.Errorf("expected settled group, got %+v", balances.Msg)
		}
	})

	t.Run("list", func(t *testing.T) {
		resp, err := env.settlements.ListSettlements(context.Background(), as(bob, &api.ListSettlementsRequest{GroupID: groupID}))
		if err != nil {
			t.Fatalf("ListSettlements failed: %v", err)
		}
		if len(resp.Msg.Settlements) != 1 || resp.Msg.Settlements[0].Status != "paid" {
			t.Errorf("unexpected settlements: %+v", resp.Msg.Settlements)
		}

		_, err = env.settlements.ListSettlements(context.Background(), as(charlie, &api.ListSettlementsRequest{GroupID: groupID}))
		assertCode(t, err, connect.CodePermissionDenied)
	})
}

func TestGetSettlementSuggestions(t *testing.T) {
	env := setupTestServer(t)
	users := env.seedUsers(t, "A", "B", "C", "D")
	a, b, c, d := users[0], users[1], users[2], users[3]
	groupID := env.createGroup(t, "Four", a, b, c, d)

	// A paid 100 for everyone, B paid 60 for everyone: A +60, B +20, C -40, D -40.
	env.addEqualExpense(t, groupID, a, "Cabin", 100)
	env.addEqualExpense(t, groupID, b, "Food", 60)

	resp, err := env.settlements.GetSettlementSuggestions(context.Background(), as(c, &api.GetSettlementSuggestionsRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("GetSettlementSuggestions failed: %v", err)
	}

	net := map[string]float64{a: 60, b: 20, c: -40, d: -40}
	got := resp.Msg.Suggestions
	if len(got) > 3 {
		t.Errorf("expected at most 3 suggestions, got %d", len(got))
	}
	for _, s := range got {
		if s.Amount <= 0 {
			t.Errorf("non-positive suggestion: %+v", s)
		}
		net[s.FromUser] += s.Amount
		net[s.ToUser] -= s.Amount
	}
	for id, balance := range net {
		assertAmount(t, "residual for "+id, balance, 0)
	}
}
