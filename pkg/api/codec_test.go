package api

import (
	"strings"
	"testing"

	"google.golang.org/protobuf/types/known/emptypb"
)

func TestCodec(t *testing.T) {
	codec := Codec()
	if codec.Name() != "json" {
		t.Fatalf("Name = %q, want json", codec.Name())
	}

	t.Run("plain struct", func(t *testing.T) {
		data, err := codec.Marshal(&GetGroupBalancesRequest{GroupID: "g1"})
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if string(data) != `{"groupId":"g1"}` {
			t.Errorf("Marshal = %s", data)
		}

		var req CreateExpenseRequest
		if err := codec.Unmarshal([]byte(`{"title":"Dinner","amount":60,"splits":[{"userId":"u1","amount":60}]}`), &req); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if req.Title != "Dinner" || req.Amount != 60 || len(req.Splits) != 1 || req.Splits[0].UserID != "u1" {
			t.Errorf("unexpected request: %+v", req)
		}
	})

	t.Run("proto message", func(t *testing.T) {
		data, err := codec.Marshal(&emptypb.Empty{})
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if strings.TrimSpace(string(data)) != "{}" {
			t.Errorf("Marshal = %s, want {}", data)
		}
		if err := codec.Unmarshal([]byte(`{"ignored":true}`), &emptypb.Empty{}); err != nil {
			t.Errorf("unknown fields should be discarded: %v", err)
		}
	})

	t.Run("empty payload", func(t *testing.T) {
		var req GetGroupRequest
		if err := codec.Unmarshal(nil, &req); err != nil {
			t.Errorf("Unmarshal(nil) failed: %v", err)
		}
		if err := codec.Unmarshal(nil, &emptypb.Empty{}); err != nil {
			t.Errorf("Unmarshal(nil) into Empty failed: %v", err)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		var req GetGroupRequest
		if err := codec.Unmarshal([]byte(`{`), &req); err == nil {
			t.Error("expected error")
		}
	})
}
