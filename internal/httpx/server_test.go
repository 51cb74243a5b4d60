package httpx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-restaurant-pos/internal/auth"
	"github.com/ariefcatur/go-restaurant-pos/internal/catalog"
	"github.com/ariefcatur/go-restaurant-pos/internal/httpx"
	"github.com/ariefcatur/go-restaurant-pos/internal/inventory"
	"github.com/ariefcatur/go-restaurant-pos/internal/orders"
	"github.com/ariefcatur/go-restaurant-pos/internal/reports"
	"github.com/ariefcatur/go-restaurant-pos/internal/store/memory"
	"github.com/ariefcatur/go-restaurant-pos/internal/tables"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type memIdem struct {
	mu   sync.Mutex
	keys map[string]string // "" while in flight
}

func (m *memIdem) Begin(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.keys[key]; ok {
		return v, false, nil
	}
	m.keys[key] = ""
	return "", true, nil
}

func (m *memIdem) Complete(_ context.Context, key, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = id
	return nil
}

func (m *memIdem) Abort(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

const (
	clientToken  = "tok-client"
	otherToken   = "tok-other"
	serverToken  = "tok-server"
	managerToken = "tok-manager"
)

type testAPI struct {
	t      *testing.T
	h      http.Handler
	idem   *memIdem
	table  tables.Table
	pizza  catalog.MenuItem
	cheese inventory.Ingredient
}

func newAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	s := st.Stores()

	table, err := s.Tables().Create(ctx, tables.Table{Number: 3, Capacity: 4})
	if err != nil {
		t.Fatal(err)
	}
	cheese, err := s.Stock().Create(ctx, inventory.Ingredient{Name: "Cheese", Unit: "kg", StockQuantity: decimal.NewFromInt(5), MinStock: decimal.NewFromInt(1)})
	if err != nil {
		t.Fatal(err)
	}
	pizza, err := s.Menu().Create(ctx, catalog.MenuItem{
		Name: "Pizza", Price: decimal.NewFromInt(1000), Available: true,
		Ingredients: []catalog.Requirement{{IngredientID: cheese.ID, Quantity: decimal.NewFromInt(1)}},
	})
	if err != nil {
		t.Fatal(err)
	}

	log := zap.NewNop()
	fixed := func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }
	idem := &memIdem{keys: map[string]string{}}
	h := httpx.NewRouter(httpx.Deps{
		Engine:  orders.NewEngine(st, nil, log).WithClock(fixed),
		Store:   st,
		Reports: reports.NewService(st.Stores().Orders(), st.Snapshots(), log).WithLocation(time.UTC).WithClock(fixed),
		Auth: auth.Static{
			clientToken:  {UserID: "u-client", Name: "Awa", Role: auth.RoleClient},
			otherToken:   {UserID: "u-other", Name: "Ibou", Role: auth.RoleClient},
			serverToken:  {UserID: "u-server", Name: "Moussa", Role: auth.RoleServer},
			managerToken: {UserID: "u-manager", Name: "Fatou", Role: auth.RoleManager},
		},
		Log:  log,
		Idem: idem,
		Now:  fixed,
	})
	return &testAPI{t: t, h: h, idem: idem, table: table, pizza: pizza, cheese: cheese}
}

func (a *testAPI) do(method, path, token string, body any, headers ...string) (int, envelope) {
	a.t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			a.t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			a.t.Fatalf("%s %s: bad body %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return v
}

func (a *testAPI) createOrder(token string, qty int) orders.Order {
	a.t.Helper()
	code, env := a.do(http.MethodPost, "/api/orders", token, map[string]any{
		"table_id": a.table.ID,
		"items":    []map[string]any{{"menu_item_id": a.pizza.ID, "quantity": qty}},
	})
	if code != http.StatusCreated {
		a.t.Fatalf("create order: %d %+v", code, env)
	}
	return decodeData[orders.Order](a.t, env)
}

func TestHealthz(t *testing.T) {
	a := newAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestAuthentication(t *testing.T) {
	a := newAPI(t)
	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"unknown token", "nope", http.StatusUnauthorized},
		{"client", clientToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := a.do(http.MethodGet, "/api/me", tt.token, nil)
			if code != tt.want {
				t.Fatalf("status = %d, want %d", code, tt.want)
			}
			if code == http.StatusOK {
				p := decodeData[auth.Principal](t, env)
				if p.UserID != "u-client" || p.Role != auth.RoleClient {
					t.Errorf("me = %+v", p)
				}
			} else if env.Success {
				t.Error("error response marked success")
			}
		})
	}
}

func TestRoleChecks(t *testing.T) {
	a := newAPI(t)
	tests := []struct {
		method, path, token string
		want                int
	}{
		{http.MethodPost, "/api/menu", clientToken, http.StatusForbidden},
		{http.MethodPost, "/api/menu", serverToken, http.StatusForbidden},
		{http.MethodGet, "/api/ingredients", serverToken, http.StatusForbidden},
		{http.MethodGet, "/api/reports/daily", serverToken, http.StatusForbidden},
		{http.MethodGet, "/api/reservations", clientToken, http.StatusForbidden},
		{http.MethodPatch, "/api/orders/x/status", clientToken, http.StatusForbidden},
		{http.MethodGet, "/api/ingredients", managerToken, http.StatusOK},
		{http.MethodGet, "/api/reports/daily", managerToken, http.StatusOK},
		{http.MethodGet, "/api/menu", clientToken, http.StatusOK},
		{http.MethodGet, "/api/tables/available", clientToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path+" as "+tt.token, func(t *testing.T) {
			if code, env := a.do(tt.method, tt.path, tt.token, map[string]any{}); code != tt.want {
				t.Errorf("status = %d, want %d (%s)", code, tt.want, env.Message)
			}
		})
	}
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t)
	o := a.createOrder(clientToken, 2)
	if o.Status != orders.StatusPending || !o.Total.Equal(decimal.NewFromInt(2360)) {
		t.Fatalf("created = %s %s", o.Status, o.Total)
	}

	// a stranger may not look at it, staff may
	if code, _ := a.do(http.MethodGet, "/api/orders/"+o.ID, otherToken, nil); code != http.StatusForbidden {
		t.Errorf("stranger get = %d", code)
	}
	if code, _ := a.do(http.MethodGet, "/api/orders/"+o.ID, serverToken, nil); code != http.StatusOK {
		t.Errorf("server get = %d", code)
	}

	code, env := a.do(http.MethodPatch, "/api/orders/"+o.ID+"/status", serverToken, map[string]string{"status": "served"})
	if code != http.StatusBadRequest || env.Message == "" {
		t.Errorf("pending->served = %d %q", code, env.Message)
	}
	code, env = a.do(http.MethodPost, "/api/orders/"+o.ID+"/pay", serverToken, map[string]string{"payment_method": "cash"})
	if code != http.StatusBadRequest {
		t.Errorf("early pay = %d %q", code, env.Message)
	}

	for _, s := range []string{"confirmed", "preparing", "ready", "served", "completed"} {
		if code, env := a.do(http.MethodPatch, "/api/orders/"+o.ID+"/status", serverToken, map[string]string{"status": s}); code != http.StatusOK {
			t.Fatalf("-> %s = %d %q", s, code, env.Message)
		}
	}
	code, env = a.do(http.MethodPost, "/api/orders/"+o.ID+"/pay", serverToken, map[string]string{"payment_method": "cash"})
	if code != http.StatusOK {
		t.Fatalf("pay = %d %q", code, env.Message)
	}
	paid := decodeData[orders.Order](t, env)
	if paid.PaymentStatus != orders.PaymentPaid || paid.Status != orders.StatusCompleted {
		t.Errorf("paid = %s/%s", paid.Status, paid.PaymentStatus)
	}

	code, env = a.do(http.MethodGet, "/api/orders/"+o.ID+"/bill", serverToken, nil)
	if code != http.StatusOK {
		t.Fatalf("bill = %d", code)
	}
	if b := decodeData[orders.Bill](t, env); b.Server != "Awa" || b.TableNumber != 3 {
		t.Errorf("bill = %+v", b)
	}

	code, env = a.do(http.MethodGet, "/api/reports/daily?date=2026-03-14", managerToken, nil)
	if code != http.StatusOK {
		t.Fatalf("daily = %d", code)
	}
	if d := decodeData[reports.Daily](t, env); d.TotalOrders != 1 || !d.TotalRevenue.Equal(decimal.NewFromInt(2360)) {
		t.Errorf("daily = %+v", d)
	}
}

func TestInsufficientStockOverHTTP(t *testing.T) {
	a := newAPI(t)
	o := a.createOrder(clientToken, 6) // needs 6 cheese, 5 in stock

	code, env := a.do(http.MethodPatch, "/api/orders/"+o.ID+"/status", serverToken, map[string]string{"status": "confirmed"})
	if code != http.StatusBadRequest {
		t.Fatalf("confirm = %d %q", code, env.Message)
	}
	code, env = a.do(http.MethodGet, "/api/ingredients/"+a.cheese.ID, managerToken, nil)
	if code != http.StatusOK {
		t.Fatal(code)
	}
	if in := decodeData[inventory.Ingredient](t, env); !in.StockQuantity.Equal(decimal.NewFromInt(5)) {
		t.Errorf("stock = %s, want 5", in.StockQuantity)
	}
}

func TestClientsSeeOwnOrdersOnly(t *testing.T) {
	a := newAPI(t)
	a.createOrder(clientToken, 1)
	a.createOrder(otherToken, 1)

	_, env := a.do(http.MethodGet, "/api/orders", clientToken, nil)
	if list := decodeData[[]orders.Order](t, env); len(list) != 1 || list[0].CustomerID != "u-client" {
		t.Errorf("client list = %d orders", len(list))
	}
	_, env = a.do(http.MethodGet, "/api/orders?status=pending", serverToken, nil)
	if list := decodeData[[]orders.Order](t, env); len(list) != 2 {
		t.Errorf("server list = %d orders", len(list))
	}
	if code, _ := a.do(http.MethodGet, "/api/orders?status=eaten", serverToken, nil); code != http.StatusUnprocessableEntity {
		t.Errorf("bad status filter = %d", code)
	}
}

func TestErrorMapping(t *testing.T) {
	a := newAPI(t)
	tests := []struct {
		name        string
		method      string
		path, token string
		body        any
		want        int
		field       string
	}{
		{"bad json", http.MethodPost, "/api/orders", clientToken, "{", http.StatusBadRequest, ""},
		{"no items", http.MethodPost, "/api/orders", clientToken, map[string]any{"table_id": "x"}, http.StatusUnprocessableEntity, "items"},
		{"unknown table", http.MethodPost, "/api/orders", clientToken, map[string]any{
			"table_id": "nope", "items": []map[string]any{{"menu_item_id": "m", "quantity": 1}},
		}, http.StatusNotFound, ""},
		{"unknown order", http.MethodGet, "/api/orders/nope", serverToken, nil, http.StatusNotFound, ""},
		{"duplicate table", http.MethodPost, "/api/tables", managerToken, map[string]any{"number": 3, "capacity": 2}, http.StatusUnprocessableEntity, "number"},
		{"invalid menu item", http.MethodPost, "/api/menu", managerToken, map[string]any{"name": "", "price": "0"}, http.StatusUnprocessableEntity, "name"},
		{"unknown ingredient ref", http.MethodPost, "/api/menu", managerToken, map[string]any{
			"name": "Soup", "price": "800", "ingredients": []map[string]any{{"ingredient_id": "nope", "quantity_needed": "1"}},
		}, http.StatusUnprocessableEntity, "ingredients"},
		{"bad stock op", http.MethodPatch, "/api/ingredients/x/stock", managerToken, map[string]any{"operation": "add"}, http.StatusUnprocessableEntity, "quantity"},
		{"period too long", http.MethodGet, "/api/reports/period?from=2026-01-01&to=2027-06-01", managerToken, nil, http.StatusUnprocessableEntity, "to"},
		{"missing snapshot", http.MethodGet, "/api/reports/snapshots/2026-01-01", managerToken, nil, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := a.do(tt.method, tt.path, tt.token, tt.body)
			if code != tt.want {
				t.Fatalf("status = %d, want %d (%s %v)", code, tt.want, env.Message, env.Errors)
			}
			if env.Success {
				t.Error("error response marked success")
			}
			if tt.field != "" {
				if _, ok := env.Errors[tt.field]; !ok {
					t.Errorf("errors = %v, want field %s", env.Errors, tt.field)
				}
			}
		})
	}
}

func TestCreateOrderIdempotency(t *testing.T) {
	a := newAPI(t)
	body := map[string]any{
		"table_id": a.table.ID,
		"items":    []map[string]any{{"menu_item_id": a.pizza.ID, "quantity": 1}},
	}

	code, env := a.do(http.MethodPost, "/api/orders", clientToken, body, "Idempotency-Key", "k-1")
	if code != http.StatusCreated {
		t.Fatalf("first = %d", code)
	}
	first := decodeData[orders.Order](t, env)

	code, env = a.do(http.MethodPost, "/api/orders", clientToken, body, "Idempotency-Key", "k-1")
	if code != http.StatusOK {
		t.Fatalf("replay = %d", code)
	}
	if again := decodeData[orders.Order](t, env); again.ID != first.ID {
		t.Errorf("replay created %s, want %s", again.ID, first.ID)
	}

	_, env = a.do(http.MethodGet, "/api/orders", serverToken, nil)
	if list := decodeData[[]orders.Order](t, env); len(list) != 1 {
		t.Errorf("%d orders after replay", len(list))
	}

	a.idem.keys["u-client:k-2"] = ""
	if code, _ := a.do(http.MethodPost, "/api/orders", clientToken, body, "Idempotency-Key", "k-2"); code != http.StatusConflict {
		t.Errorf("in flight = %d, want 409", code)
	}

	// a failed create releases the key
	bad := map[string]any{"table_id": "nope", "items": body["items"]}
	a.do(http.MethodPost, "/api/orders", clientToken, bad, "Idempotency-Key", "k-3")
	if _, held := a.idem.keys["u-client:k-3"]; held {
		t.Error("key still held after a failed create")
	}
}

func TestIdempotencyKeysArePerCaller(t *testing.T) {
	a := newAPI(t)
	body := map[string]any{
		"table_id": a.table.ID,
		"notes":    "anniversary, no onions",
		"items":    []map[string]any{{"menu_item_id": a.pizza.ID, "quantity": 1}},
	}

	code, env := a.do(http.MethodPost, "/api/orders", clientToken, body, "Idempotency-Key", "shared")
	if code != http.StatusCreated {
		t.Fatalf("first client = %d", code)
	}
	mine := decodeData[orders.Order](t, env)

	code, env = a.do(http.MethodPost, "/api/orders", otherToken, body, "Idempotency-Key", "shared")
	if code != http.StatusCreated {
		t.Fatalf("other client with the same key = %d, want 201", code)
	}
	theirs := decodeData[orders.Order](t, env)
	if theirs.ID == mine.ID || theirs.CustomerID != "u-other" {
		t.Errorf("other client got order %s of %s", theirs.ID, theirs.CustomerID)
	}

	// a stored key pointing at someone else's order is never replayed
	a.idem.keys["u-other:stolen"] = mine.ID
	if code, _ := a.do(http.MethodPost, "/api/orders", otherToken, body, "Idempotency-Key", "stolen"); code != http.StatusForbidden {
		t.Errorf("replay of a foreign order = %d, want 403", code)
	}
}

func TestReservationsOverHTTP(t *testing.T) {
	a := newAPI(t)
	req := map[string]any{"table_id": a.table.ID, "date": "2026-03-20", "time": "20:00", "guests_count": 2}

	code, env := a.do(http.MethodPost, "/api/reservations", clientToken, req)
	if code != http.StatusCreated {
		t.Fatalf("book = %d %q %v", code, env.Message, env.Errors)
	}
	r := decodeData[tables.Reservation](t, env)

	if code, _ := a.do(http.MethodPost, "/api/reservations", otherToken, req); code != http.StatusBadRequest {
		t.Errorf("double booking = %d", code)
	}
	if code, _ := a.do(http.MethodGet, "/api/reservations/"+r.ID, otherToken, nil); code != http.StatusForbidden {
		t.Errorf("stranger view = %d", code)
	}
	if code, _ := a.do(http.MethodGet, "/api/reservations/"+r.ID, serverToken, nil); code != http.StatusOK {
		t.Errorf("staff view = %d", code)
	}
	_, env = a.do(http.MethodGet, "/api/reservations/mine", clientToken, nil)
	if mine := decodeData[[]tables.Reservation](t, env); len(mine) != 1 {
		t.Errorf("mine = %d", len(mine))
	}
	if code, _ := a.do(http.MethodPost, "/api/reservations/"+r.ID+"/cancel", clientToken, nil); code != http.StatusOK {
		t.Errorf("cancel = %d", code)
	}
	if code, _ := a.do(http.MethodPost, "/api/reservations/"+r.ID+"/cancel", clientToken, nil); code != http.StatusBadRequest {
		t.Errorf("second cancel = %d", code)
	}
}

func TestCatalogOverHTTP(t *testing.T) {
	a := newAPI(t)

	code, env := a.do(http.MethodPost, "/api/categories", managerToken, map[string]any{"name": "Mains"})
	if code != http.StatusCreated {
		t.Fatalf("category = %d", code)
	}
	cat := decodeData[catalog.Category](t, env)

	code, env = a.do(http.MethodPost, "/api/menu", managerToken, map[string]any{
		"name": "Yassa", "price": "2500", "category_id": cat.ID,
		"ingredients": []map[string]any{{"ingredient_id": a.cheese.ID, "quantity_needed": "0.2"}},
	})
	if code != http.StatusCreated {
		t.Fatalf("menu item = %d %v", code, env.Errors)
	}
	yassa := decodeData[catalog.MenuItem](t, env)
	if !yassa.Available {
		t.Error("new menu items default to available")
	}

	if code, _ := a.do(http.MethodPatch, "/api/menu/"+yassa.ID+"/availability", managerToken, map[string]any{"is_available": false}); code != http.StatusOK {
		t.Fatalf("availability = %d", code)
	}
	_, env = a.do(http.MethodGet, "/api/menu?available=true", clientToken, nil)
	if list := decodeData[[]catalog.MenuItem](t, env); len(list) != 1 || list[0].ID != a.pizza.ID {
		t.Errorf("available menu = %d items", len(list))
	}
	_, env = a.do(http.MethodGet, "/api/menu?category_id="+cat.ID, clientToken, nil)
	if list := decodeData[[]catalog.MenuItem](t, env); len(list) != 1 || list[0].Name != "Yassa" {
		t.Errorf("category menu = %d items", len(list))
	}

	code, env = a.do(http.MethodPost, "/api/orders", clientToken, map[string]any{
		"table_id": a.table.ID,
		"items":    []map[string]any{{"menu_item_id": yassa.ID, "quantity": 1}},
	})
	if code != http.StatusBadRequest {
		t.Errorf("order unavailable item = %d %q", code, env.Message)
	}
}

func TestLowStockOverHTTP(t *testing.T) {
	a := newAPI(t)
	code, env := a.do(http.MethodPatch, "/api/ingredients/"+a.cheese.ID+"/stock", managerToken, map[string]any{"operation": "subtract", "quantity": "4.5"})
	if code != http.StatusOK {
		t.Fatalf("adjust = %d %q", code, env.Message)
	}
	_, env = a.do(http.MethodGet, "/api/ingredients/low-stock", managerToken, nil)
	if low := decodeData[[]inventory.Ingredient](t, env); len(low) != 1 || low[0].Name != "Cheese" {
		t.Errorf("low stock = %+v", low)
	}
}

func TestCatalogMaintenanceOverHTTP(t *testing.T) {
	a := newAPI(t)

	code, env := a.do(http.MethodPost, "/api/categories", managerToken, map[string]any{"name": "Drinks"})
	if code != http.StatusCreated {
		t.Fatalf("category = %d", code)
	}
	cat := decodeData[catalog.Category](t, env)

	code, env = a.do(http.MethodPut, "/api/categories/"+cat.ID, managerToken, map[string]any{"name": "Beverages"})
	if code != http.StatusOK {
		t.Fatalf("rename = %d %v", code, env.Errors)
	}
	_, env = a.do(http.MethodGet, "/api/categories/"+cat.ID, clientToken, nil)
	if got := decodeData[catalog.Category](t, env); got.Name != "Beverages" {
		t.Errorf("category = %+v", got)
	}

	code, env = a.do(http.MethodPost, "/api/menu", managerToken, map[string]any{"name": "Bissap", "price": "300", "category_id": cat.ID})
	if code != http.StatusCreated {
		t.Fatalf("menu item = %d %v", code, env.Errors)
	}
	bissap := decodeData[catalog.MenuItem](t, env)

	if code, _ := a.do(http.MethodDelete, "/api/categories/"+cat.ID, managerToken, nil); code != http.StatusOK {
		t.Fatalf("delete category = %d", code)
	}
	_, env = a.do(http.MethodGet, "/api/menu/"+bissap.ID, clientToken, nil)
	if got := decodeData[catalog.MenuItem](t, env); got.CategoryID != "" {
		t.Errorf("menu item still in deleted category %s", got.CategoryID)
	}
	if code, _ := a.do(http.MethodGet, "/api/categories/"+cat.ID, clientToken, nil); code != http.StatusNotFound {
		t.Errorf("deleted category = %d", code)
	}

	if code, _ := a.do(http.MethodDelete, "/api/menu/"+bissap.ID, clientToken, nil); code != http.StatusForbidden {
		t.Errorf("client delete = %d", code)
	}
	if code, _ := a.do(http.MethodDelete, "/api/menu/"+bissap.ID, managerToken, nil); code != http.StatusOK {
		t.Fatalf("delete unused item = %d", code)
	}
	if code, _ := a.do(http.MethodGet, "/api/menu/"+bissap.ID, clientToken, nil); code != http.StatusNotFound {
		t.Errorf("deleted item = %d", code)
	}
}

func TestDeleteReferencedRowsConflicts(t *testing.T) {
	a := newAPI(t)
	a.createOrder(clientToken, 1)

	tests := []struct {
		name, path string
	}{
		{"menu item on an order", "/api/menu/" + a.pizza.ID},
		{"ingredient in a recipe", "/api/ingredients/" + a.cheese.ID},
		{"table with an order", "/api/tables/" + a.table.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _ := a.do(http.MethodDelete, tt.path, managerToken, nil); code != http.StatusConflict {
				t.Errorf("delete = %d, want 409", code)
			}
			if code, _ := a.do(http.MethodGet, tt.path, managerToken, nil); code != http.StatusOK {
				t.Errorf("row gone after a refused delete: %d", code)
			}
		})
	}

	code, env := a.do(http.MethodPost, "/api/tables", managerToken, map[string]any{"number": 9, "capacity": 2})
	if code != http.StatusCreated {
		t.Fatalf("table = %d", code)
	}
	spare := decodeData[tables.Table](t, env)
	if code, _ := a.do(http.MethodDelete, "/api/tables/"+spare.ID, managerToken, nil); code != http.StatusOK {
		t.Errorf("delete free table = %d", code)
	}
	if code, _ := a.do(http.MethodGet, "/api/tables/"+spare.ID, managerToken, nil); code != http.StatusNotFound {
		t.Errorf("deleted table = %d", code)
	}
}

func TestUpdateIngredientKeepsStock(t *testing.T) {
	a := newAPI(t)
	code, env := a.do(http.MethodPut, "/api/ingredients/"+a.cheese.ID, managerToken, map[string]any{
		"name": "Mozzarella", "unit": "kg", "min_stock": "2", "cost_per_unit": "4.5", "stock_quantity": "999",
	})
	if code != http.StatusOK {
		t.Fatalf("update = %d %v", code, env.Errors)
	}
	got := decodeData[inventory.Ingredient](t, env)
	if got.Name != "Mozzarella" || !got.MinStock.Equal(decimal.NewFromInt(2)) {
		t.Errorf("ingredient = %+v", got)
	}
	if !got.StockQuantity.Equal(decimal.NewFromInt(5)) {
		t.Errorf("stock = %s, want 5", got.StockQuantity)
	}
	if code, _ := a.do(http.MethodPut, "/api/ingredients/nope", managerToken, map[string]any{"name": "X", "unit": "g"}); code != http.StatusNotFound {
		t.Errorf("unknown ingredient = %d", code)
	}
}
