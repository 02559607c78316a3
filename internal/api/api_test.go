package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/erazemk/gudang/internal/apperr"
	"github.com/erazemk/gudang/internal/auth"
	"github.com/erazemk/gudang/internal/blob"
	"github.com/erazemk/gudang/internal/inventory"
	"github.com/erazemk/gudang/internal/memstore"
	"github.com/erazemk/gudang/internal/model"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	server *httptest.Server
	inv    *inventory.Controller
	blobs  blob.Store
}

func setupTestServer(t *testing.T) (*testEnv, string) {
	t.Helper()

	blobs, err := blob.NewFS(t.TempDir(), "/media")
	if err != nil {
		t.Fatal(err)
	}
	store, err := memstore.Open(context.Background(), blobs, memstore.DefaultKey)
	if err != nil {
		t.Fatal(err)
	}

	reg := prometheus.NewRegistry()
	inv := inventory.New(store, inventory.WithRetry(inventory.NoRetry), inventory.WithMetrics(inventory.NewMetrics(reg)))
	if _, err := inv.RefreshAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	router := NewRouter(Deps{
		Inventory: inv,
		Sessions:  auth.NewService(inv, testJWTSecret, 0),
		Blobs:     blobs,
		Gatherer:  reg,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	env := &testEnv{server: server, inv: inv, blobs: blobs}
	return env, env.login(t, "admin", "admin")
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(e.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var sess model.Session
	json.NewDecoder(resp.Body).Decode(&sess)
	if sess.Token == "" {
		t.Fatal("empty token from login")
	}
	return sess.Token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader io.Reader = http.NoBody
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do sends the request and decodes the JSON response into out when non-nil.
func do(t *testing.T, req *http.Request, out any) *http.Response {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
	return resp
}

func (e *testEnv) call(t *testing.T, method, path, token string, body, out any) *http.Response {
	t.Helper()
	req, _ := authRequest(method, e.server.URL+path, token, body)
	return do(t, req, out)
}

func TestLoginEndpoint(t *testing.T) {
	env, _ := setupTestServer(t)

	var errResp errorResponse
	resp := env.call(t, "POST", "/api/auth/login", "", map[string]string{"username": "admin", "password": "wrong"}, &errResp)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	if errResp.Code != apperr.ErrInvalidCredentials.Code {
		t.Errorf("unexpected error code %q", errResp.Code)
	}

	var sess model.Session
	resp = env.call(t, "POST", "/api/auth/login", "", map[string]string{"username": " ADMIN ", "password": "admin"}, &sess)
	if resp.StatusCode != http.StatusOK || sess.User == nil || sess.User.Role != model.RoleAdmin {
		t.Errorf("expected fallback admin login, got %d %+v", resp.StatusCode, sess)
	}
}

func TestPublicEndpoints(t *testing.T) {
	env, token := setupTestServer(t)

	var loc model.Location
	env.call(t, "POST", "/api/locations", token, map[string]string{"code": "wh-a1", "name": "Main"}, &loc)
	env.call(t, "POST", "/api/items", token, map[string]any{"sku": "BRG-001", "name": "Laptop", "location_id": loc.ID, "stock": 3}, nil)
	env.call(t, "POST", "/api/items", token, map[string]any{"sku": "BRG-002", "name": "Helmet", "stock": 30}, nil)

	var b model.Branding
	if resp := env.call(t, "GET", "/api/public/branding", "", nil, &b); resp.StatusCode != http.StatusOK || b != model.DefaultBranding() {
		t.Errorf("unexpected branding: %d %+v", resp.StatusCode, b)
	}

	var items []model.Item
	env.call(t, "GET", "/api/public/items?q=lap", "", nil, &items)
	if len(items) != 1 || items[0].SKU != "BRG-001" {
		t.Errorf("unexpected search result: %+v", items)
	}
	env.call(t, "GET", "/api/public/items?location="+loc.ID, "", nil, &items)
	if len(items) != 1 {
		t.Errorf("unexpected location filter result: %+v", items)
	}

	var locs []model.Location
	env.call(t, "GET", "/api/public/locations", "", nil, &locs)
	if len(locs) != 1 || locs[0].Code != "WH-A1" {
		t.Errorf("unexpected locations: %+v", locs)
	}

	var status inventory.Status
	env.call(t, "GET", "/api/status", "", nil, &status)
	if status.Driver != memstore.Driver || status.SchemaError {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	env, _ := setupTestServer(t)

	for _, path := range []string{"/api/items", "/api/users", "/api/stats"} {
		if resp := env.call(t, "GET", path, "", nil, nil); resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s: expected 401, got %d", path, resp.StatusCode)
		}
	}
	if resp := env.call(t, "GET", "/api/items", "garbage", nil, nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for invalid token, got %d", resp.StatusCode)
	}
}

func TestItemsAPIFlow(t *testing.T) {
	env, token := setupTestServer(t)

	var item model.Item
	resp := env.call(t, "POST", "/api/items", token, map[string]any{"name": "Laptop", "category": "Electronics", "stock": 15}, &item)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(item.SKU, "BRG-") {
		t.Errorf("expected generated SKU, got %q", item.SKU)
	}

	var updated model.Item
	resp = env.call(t, "PUT", "/api/items/"+item.ID, token, map[string]any{"stock": 4}, &updated)
	if resp.StatusCode != http.StatusOK || updated.Stock != 4 || updated.Name != "Laptop" {
		t.Fatalf("unexpected update: %d %+v", resp.StatusCode, updated)
	}

	var items []model.Item
	env.call(t, "GET", "/api/items", token, nil, &items)
	if len(items) != 1 || items[0].Stock != 4 {
		t.Errorf("expected refreshed snapshot, got %+v", items)
	}

	var stats inventory.Stats
	env.call(t, "GET", "/api/stats", token, nil, &stats)
	if stats.LowStock != 1 || stats.TotalStock != 4 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	if resp := env.call(t, "DELETE", "/api/items/"+item.ID, token, nil, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var errResp errorResponse
	resp = env.call(t, "DELETE", "/api/items/"+item.ID, token, nil, &errResp)
	if resp.StatusCode != http.StatusNotFound || errResp.Code != apperr.ErrNotFound.Code {
		t.Errorf("expected 404 not_found, got %d %+v", resp.StatusCode, errResp)
	}
}

func TestErrorStatuses(t *testing.T) {
	env, token := setupTestServer(t)

	var errResp errorResponse
	resp := env.call(t, "POST", "/api/items", token, map[string]any{"sku": "X"}, &errResp)
	if resp.StatusCode != http.StatusBadRequest || errResp.Code != apperr.ErrRequiredField.Code {
		t.Errorf("expected 400 required_field, got %d %+v", resp.StatusCode, errResp)
	}

	env.call(t, "POST", "/api/locations", token, map[string]string{"code": "WH-A1", "name": "One"}, nil)
	resp = env.call(t, "POST", "/api/locations", token, map[string]string{"code": "wh-a1", "name": "Two"}, &errResp)
	if resp.StatusCode != http.StatusConflict || errResp.Code != apperr.ErrWriteConflict.Code {
		t.Errorf("expected 409 write_conflict, got %d %+v", resp.StatusCode, errResp)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.ErrRequiredField, http.StatusBadRequest},
		{apperr.ErrInvalidCredentials, http.StatusUnauthorized},
		{apperr.ErrNotFound, http.StatusNotFound},
		{apperr.ErrWriteConflict, http.StatusConflict},
		{apperr.ErrAuthRejected, http.StatusBadGateway},
		{apperr.ErrSchemaMismatch, http.StatusServiceUnavailable},
		{apperr.ErrNetworkUnavailable, http.StatusServiceUnavailable},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(apperr.KindOf(tt.err)); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRoleBasedAccess(t *testing.T) {
	env, admin := setupTestServer(t)

	resp := env.call(t, "POST", "/api/users", admin, map[string]string{"username": "siti", "password": "rahasia", "role": model.RoleStaff}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	// The fallback admin disappears once a real user exists.
	if resp := env.call(t, "GET", "/api/users", admin, nil, nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected fallback admin session to end, got %d", resp.StatusCode)
	}

	staff := env.login(t, "SITI", "rahasia")

	if resp := env.call(t, "POST", "/api/items", staff, map[string]any{"name": "Helmet"}, nil); resp.StatusCode != http.StatusCreated {
		t.Errorf("expected staff to create items, got %d", resp.StatusCode)
	}
	if resp := env.call(t, "GET", "/api/users", staff, nil, nil); resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for staff listing users, got %d", resp.StatusCode)
	}
	if resp := env.call(t, "PUT", "/api/branding", staff, map[string]string{"title": "X"}, nil); resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for staff updating branding, got %d", resp.StatusCode)
	}
}

func TestUserManagement(t *testing.T) {
	env, fallback := setupTestServer(t)

	var boss model.User
	env.call(t, "POST", "/api/users", fallback, map[string]string{"username": "boss", "password": "rahasia", "role": model.RoleAdmin}, &boss)
	admin := env.login(t, "boss", "rahasia")

	var users []map[string]any
	env.call(t, "GET", "/api/users", admin, nil, &users)
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %+v", users)
	}
	if _, ok := users[0]["password"]; ok {
		t.Error("user list must not expose passwords")
	}

	var errResp errorResponse
	resp := env.call(t, "DELETE", "/api/users/"+boss.ID, admin, nil, &errResp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected self-delete to be refused, got %d", resp.StatusCode)
	}

	var staff model.User
	env.call(t, "POST", "/api/users", admin, map[string]string{"username": "siti", "password": "rahasia", "role": model.RoleStaff}, &staff)
	resp = env.call(t, "POST", "/api/users", admin, map[string]string{"username": "Siti", "password": "rahasia", "role": model.RoleStaff}, &errResp)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected duplicate username conflict, got %d", resp.StatusCode)
	}

	if resp := env.call(t, "PUT", "/api/users/"+staff.ID, admin, map[string]string{"password": "baru123"}, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("password reset failed: %d", resp.StatusCode)
	}
	env.login(t, "siti", "baru123")

	if resp := env.call(t, "DELETE", "/api/users/"+staff.ID, admin, nil, nil); resp.StatusCode != http.StatusOK {
		t.Errorf("expected delete to succeed, got %d", resp.StatusCode)
	}
}

func TestChangePasswordFlow(t *testing.T) {
	env, fallback := setupTestServer(t)
	env.call(t, "POST", "/api/users", fallback, map[string]string{"username": "siti", "password": "rahasia", "role": model.RoleStaff}, nil)
	token := env.login(t, "siti", "rahasia")

	tests := []struct {
		current, next, confirm string
		status                 int
		code                   string
	}{
		{"salah", "baru123", "baru123", http.StatusUnauthorized, apperr.ErrWrongCurrentPassword.Code},
		{"rahasia", "abc", "abc", http.StatusBadRequest, apperr.ErrPasswordTooShort.Code},
		{"rahasia", "baru123", "baru124", http.StatusBadRequest, apperr.ErrConfirmationMismatch.Code},
	}
	for _, tt := range tests {
		var errResp errorResponse
		resp := env.call(t, "PUT", "/api/auth/password", token, map[string]string{
			"current_password": tt.current, "new_password": tt.next, "confirm_password": tt.confirm,
		}, &errResp)
		if resp.StatusCode != tt.status || errResp.Code != tt.code {
			t.Errorf("expected %d %s, got %d %+v", tt.status, tt.code, resp.StatusCode, errResp)
		}
	}

	resp := env.call(t, "PUT", "/api/auth/password", token, map[string]string{
		"current_password": "rahasia", "new_password": "baru123", "confirm_password": "baru123",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	env.login(t, "siti", "baru123")
}

func TestLogout(t *testing.T) {
	env, token := setupTestServer(t)

	if resp := env.call(t, "GET", "/api/auth/me", token, nil, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp := env.call(t, "POST", "/api/auth/logout", token, nil, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if resp := env.call(t, "GET", "/api/auth/me", token, nil, nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

func TestBrandingUpdate(t *testing.T) {
	env, token := setupTestServer(t)

	var b model.Branding
	resp := env.call(t, "PUT", "/api/branding", token, map[string]string{"title": "Gudang Utama"}, &b)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	want := model.DefaultBranding()
	want.Title = "Gudang Utama"
	if b != want {
		t.Errorf("got %+v, want %+v", b, want)
	}

	env.call(t, "GET", "/api/public/branding", "", nil, &b)
	if b != want {
		t.Errorf("public branding not updated: %+v", b)
	}
}

func TestPhotoUpload(t *testing.T) {
	env, token := setupTestServer(t)

	var item model.Item
	env.call(t, "POST", "/api/items", token, map[string]any{"sku": "A", "name": "Alpha"}, &item)

	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	var pngData bytes.Buffer
	png.Encode(&pngData, img)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("photo", "photo.png")
	fw.Write(pngData.Bytes())
	mw.Close()

	req, _ := http.NewRequest("PUT", env.server.URL+"/api/items/"+item.ID+"/photo", &body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var updated model.Item
	if resp := do(t, req, &updated); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(updated.PhotoURL, "/media/photos/") {
		t.Fatalf("unexpected photo url %q", updated.PhotoURL)
	}

	resp, err := http.Get(env.server.URL + updated.PhotoURL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/jpeg" {
		t.Errorf("unexpected media response: %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
}

func TestMediaServesOnlyPhotos(t *testing.T) {
	env, _ := setupTestServer(t)

	for _, path := range []string{"/media/" + memstore.DefaultKey, "/media/photos/missing.jpg", "/media/../" + memstore.DefaultKey} {
		resp, err := http.Get(env.server.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s: expected 404, got %d", path, resp.StatusCode)
		}
	}
}

func TestImportAndExportCSV(t *testing.T) {
	env, token := setupTestServer(t)
	env.call(t, "POST", "/api/locations", token, map[string]string{"code": "WH-A1", "name": "Main"}, nil)

	csv := "SKU,Nama Barang,Kategori,Lokasi,Stok\nA,Alpha,X,wh-a1,5\nB,Beta,Y,,abc\n"
	req, _ := http.NewRequest("POST", env.server.URL+"/api/items/import", strings.NewReader(csv))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "text/csv")

	var rep struct {
		Items   int `json:"items"`
		Skipped []struct {
			Line int `json:"line"`
		} `json:"skipped"`
	}
	if resp := do(t, req, &rep); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if rep.Items != 1 || len(rep.Skipped) != 1 || rep.Skipped[0].Line != 3 {
		t.Errorf("unexpected report: %+v", rep)
	}

	req, _ = authRequest("GET", env.server.URL+"/api/items/export", token, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(data), "A,Alpha,X,WH-A1,5") {
		t.Errorf("unexpected export:\n%s", data)
	}
}

func TestBackupEndpoints(t *testing.T) {
	env, token := setupTestServer(t)
	env.call(t, "POST", "/api/locations", token, map[string]string{"code": "WH-A1", "name": "Main"}, nil)
	env.call(t, "POST", "/api/items", token, map[string]any{"sku": "A", "name": "Alpha"}, nil)

	req, _ := authRequest("GET", env.server.URL+"/api/backup", token, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	backup, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	req, _ = http.NewRequest("POST", env.server.URL+"/api/backup", bytes.NewReader(backup))
	req.Header.Set("Authorization", "Bearer "+token)
	var rep struct {
		Items     int `json:"items"`
		Locations int `json:"locations"`
	}
	if resp := do(t, req, &rep); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if rep.Items != 1 || rep.Locations != 0 {
		t.Errorf("unexpected restore report: %+v", rep)
	}
	if got := len(env.inv.Items()); got != 2 {
		t.Errorf("expected 2 items after restore, got %d", got)
	}
}

func TestRefreshAndMetrics(t *testing.T) {
	env, token := setupTestServer(t)

	if resp := env.call(t, "POST", "/api/refresh", token, nil, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, err := http.Get(env.server.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(data), "gudang_refreshes_total") {
		t.Errorf("expected refresh metrics, got:\n%s", data)
	}
}

func TestRecoverer(t *testing.T) {
	h := NewRouter(Deps{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/public/branding", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected recovered panic to yield 500, got %d", rec.Code)
	}
}
