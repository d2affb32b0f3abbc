package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Zergity/splitter/internal/auth"
	"github.com/Zergity/splitter/internal/models"
	"github.com/Zergity/splitter/internal/service"
	"github.com/Zergity/splitter/internal/storage/sqlite"
)

type testEnv struct {
	server *httptest.Server
	group  *models.Group
	tokens map[string]string // member name -> bearer token
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	groups := service.NewGroupService(store, nil)
	ledger := service.NewLedgerService(store, nil)

	group, err := groups.Ensure(ctx, "Flat 4B", "USD")
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	jwtManager := auth.NewJWTManager("test-secret-key-32-bytes-long!!!", time.Hour)
	gate := auth.NewAccessGate("") // open deployment for tests

	srv := New(groups, ledger, store, jwtManager, gate, group.ID)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	env := &testEnv{server: ts, group: group, tokens: map[string]string{}}
	for _, name := range []string{"Alice", "Bob", "Carol"} {
		member, err := groups.AddMember(ctx, group.ID, name)
		if err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}
		token, err := jwtManager.Generate(member.ID, group.ID)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		env.tokens[name] = token
	}
	group, _ = groups.Get(ctx, group.ID)
	env.group = group
	return env
}

func (env *testEnv) memberID(name string) string {
	return env.group.MemberByName(name).ID
}

// do sends a JSON request as the given member and decodes the envelope.
func (env *testEnv) do(t *testing.T, method, path, as string, body interface{}) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, env.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+env.tokens[as])
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var env2 envelope
	if err := json.NewDecoder(resp.Body).Decode(&env2); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, env2
}

func (env *testEnv) createExpense(t *testing.T, as string, body map[string]interface{}) string {
	t.Helper()
	status, resp := env.do(t, http.MethodPost, "/api/expenses", as, body)
	if status != http.StatusCreated {
		t.Fatalf("create expense: status %d, error %q", status, resp.Error)
	}
	data := resp.Data.(map[string]interface{})
	return data["id"].(string)
}

func equalExpenseBody(env *testEnv, amount float64) map[string]interface{} {
	return map[string]interface{}{
		"description": "Dinner",
		"amount":      amount,
		"paidBy":      env.memberID("Alice"),
		"splitType":   "equal",
		"splits": []map[string]interface{}{
			{"memberId": env.memberID("Alice")},
			{"memberId": env.memberID("Bob")},
			{"memberId": env.memberID("Carol")},
		},
	}
}

func TestSessionIssuance(t *testing.T) {
	env := setupEnv(t)

	status, resp := env.do(t, http.MethodPost, "/api/session", "", map[string]string{
		"memberId": env.memberID("Alice"),
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d, error %q", status, resp.Error)
	}
	data := resp.Data.(map[string]interface{})
	if data["token"] == "" {
		t.Error("no token issued")
	}

	t.Run("unknown member refused", func(t *testing.T) {
		status, _ := env.do(t, http.MethodPost, "/api/session", "", map[string]string{
			"memberId": "nobody",
		})
		if status != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", status)
		}
	})

	t.Run("missing token rejected on protected routes", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/expenses", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", resp.StatusCode)
		}
	})
}

func TestExpenseEndpoints(t *testing.T) {
	env := setupEnv(t)

	t.Run("create and fetch", func(t *testing.T) {
		id := env.createExpense(t, "Alice", equalExpenseBody(env, 90))

		status, resp := env.do(t, http.MethodGet, "/api/expenses/"+id, "Bob", nil)
		if status != http.StatusOK {
			t.Fatalf("status = %d", status)
		}
		data := resp.Data.(map[string]interface{})
		if data["status"] != "pending" {
			t.Errorf("status = %v, want pending", data["status"])
		}
		if data["formatted"] != "$90.00" {
			t.Errorf("formatted = %v, want $90.00", data["formatted"])
		}
	})

	t.Run("invalid percentage rejected with 400", func(t *testing.T) {
		body := map[string]interface{}{
			"description": "Broken",
			"amount":      100,
			"paidBy":      env.memberID("Alice"),
			"splitType":   "percentage",
			"splits": []map[string]interface{}{
				{"memberId": env.memberID("Alice"), "value": 50},
				{"memberId": env.memberID("Bob"), "value": 30},
			},
		}
		status, _ := env.do(t, http.MethodPost, "/api/expenses", "Alice", body)
		if status != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", status)
		}
	})

	t.Run("non-payer edit rejected with 403", func(t *testing.T) {
		id := env.createExpense(t, "Alice", equalExpenseBody(env, 90))
		status, _ := env.do(t, http.MethodPut, "/api/expenses/"+id, "Bob", equalExpenseBody(env, 120))
		if status != http.StatusForbidden {
			t.Errorf("status = %d, want 403", status)
		}
	})

	t.Run("accept and force-accept flow", func(t *testing.T) {
		id := env.createExpense(t, "Alice", equalExpenseBody(env, 90))

		status, _ := env.do(t, http.MethodPost, "/api/expenses/"+id+"/accept", "Bob", nil)
		if status != http.StatusOK {
			t.Fatalf("accept status = %d", status)
		}

		// Inside the grace period the force is refused.
		status, _ = env.do(t, http.MethodPost, "/api/expenses/"+id+"/force-accept", "Alice",
			map[string]string{"memberId": env.memberID("Carol")})
		if status != http.StatusConflict {
			t.Errorf("force status = %d, want 409", status)
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		id := env.createExpense(t, "Alice", equalExpenseBody(env, 90))
		for i := 0; i < 2; i++ {
			status, _ := env.do(t, http.MethodDelete, "/api/expenses/"+id, "Alice", nil)
			if status != http.StatusOK {
				t.Errorf("delete %d status = %d, want 200", i+1, status)
			}
		}
	})

	t.Run("missing expense is 404", func(t *testing.T) {
		status, _ := env.do(t, http.MethodGet, "/api/expenses/nope", "Alice", nil)
		if status != http.StatusNotFound {
			t.Errorf("status = %d, want 404", status)
		}
	})
}

func TestItemClaimEndpoint(t *testing.T) {
	env := setupEnv(t)

	body := map[string]interface{}{
		"description": "Supermarket",
		"amount":      100,
		"paidBy":      env.memberID("Alice"),
		"items": []map[string]interface{}{
			{"id": "item-1", "description": "Milk", "amount": 40},
			{"id": "item-2", "description": "Bread", "amount": 20},
		},
	}
	id := env.createExpense(t, "Alice", body)

	status, resp := env.do(t, http.MethodPost,
		fmt.Sprintf("/api/expenses/%s/items/%s/claim", id, "item-1"), "Bob",
		map[string]string{"ownerId": env.memberID("Bob")})
	if status != http.StatusOK {
		t.Fatalf("claim status = %d, error %q", status, resp.Error)
	}

	data := resp.Data.(map[string]interface{})
	splits := data["splits"].([]interface{})
	found := false
	for _, s := range splits {
		split := s.(map[string]interface{})
		if split["memberId"] == env.memberID("Bob") && split["amount"].(float64) == 40 {
			found = true
		}
	}
	if !found {
		t.Errorf("bob's 40 split missing: %v", splits)
	}
	if data["status"] != "incomplete" {
		t.Errorf("status = %v, want incomplete (one item unclaimed)", data["status"])
	}
}

func TestBalancesAndPlanEndpoints(t *testing.T) {
	env := setupEnv(t)

	id := env.createExpense(t, "Alice", equalExpenseBody(env, 90))
	for _, name := range []string{"Bob", "Carol"} {
		if status, _ := env.do(t, http.MethodPost, "/api/expenses/"+id+"/accept", name, nil); status != http.StatusOK {
			t.Fatalf("accept as %s failed", name)
		}
	}

	status, resp := env.do(t, http.MethodGet, "/api/balances", "Alice", nil)
	if status != http.StatusOK {
		t.Fatalf("balances status = %d", status)
	}
	for _, b := range resp.Data.([]interface{}) {
		balance := b.(map[string]interface{})
		switch balance["memberName"] {
		case "Alice":
			if balance["confirmed"].(float64) != 60 {
				t.Errorf("alice confirmed = %v, want 60", balance["confirmed"])
			}
		case "Bob", "Carol":
			if balance["confirmed"].(float64) != -30 {
				t.Errorf("%s confirmed = %v, want -30", balance["memberName"], balance["confirmed"])
			}
		}
	}

	status, resp = env.do(t, http.MethodGet, "/api/settlements/plan", "Alice", nil)
	if status != http.StatusOK {
		t.Fatalf("plan status = %d", status)
	}
	plan := resp.Data.([]interface{})
	if len(plan) != 2 {
		t.Fatalf("plan has %d transfers, want 2", len(plan))
	}
	for _, p := range plan {
		transfer := p.(map[string]interface{})
		if transfer["toName"] != "Alice" || transfer["amount"].(float64) != 30 {
			t.Errorf("transfer = %v, want 30 to Alice", transfer)
		}
	}
}

func TestMemberEndpoints(t *testing.T) {
	env := setupEnv(t)

	t.Run("duplicate name is 409", func(t *testing.T) {
		status, _ := env.do(t, http.MethodPost, "/api/group/members", "Alice",
			map[string]string{"name": "ALICE"})
		if status != http.StatusConflict {
			t.Errorf("status = %d, want 409", status)
		}
	})

	t.Run("removal with outstanding balance is 409", func(t *testing.T) {
		env.createExpense(t, "Alice", equalExpenseBody(env, 90))
		status, _ := env.do(t, http.MethodDelete, "/api/group/members/"+env.memberID("Bob"), "Alice", nil)
		if status != http.StatusConflict {
			t.Errorf("status = %d, want 409", status)
		}
	})
}

func TestReceiptSeedEndpoint(t *testing.T) {
	env := setupEnv(t)

	body := map[string]interface{}{
		"merchant": "Luigi's",
		"date":     "2025-06-01",
		"paidBy":   env.memberID("Alice"),
		"items": []map[string]interface{}{
			{"description": "Pizza", "amount": 45},
			{"description": "Cola", "amount": 5},
		},
	}
	status, resp := env.do(t, http.MethodPost, "/api/receipts", "Alice", body)
	if status != http.StatusCreated {
		t.Fatalf("status = %d, error %q", status, resp.Error)
	}

	data := resp.Data.(map[string]interface{})
	if data["description"] != "Luigi's" {
		t.Errorf("description = %v, want Luigi's", data["description"])
	}
	if data["amount"].(float64) != 50 {
		t.Errorf("amount = %v, want 50", data["amount"])
	}
	if data["status"] != "incomplete" {
		t.Errorf("status = %v, want incomplete", data["status"])
	}
}
