package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"casaya/internal/app"
	"casaya/internal/ratelimit"
	"casaya/pkg/auth"
	"casaya/pkg/domain"
	"casaya/pkg/storage"
	"casaya/pkg/store"
)

type testEnv struct {
	server *httptest.Server
	store  *store.MemoryStore
	root   string
	token  string
	userID uint
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithRoot(t, filepath.Join(t.TempDir(), "media"))
}

func newTestEnvWithRoot(t *testing.T, root string) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	sessions, err := store.NewRedisSessionStore(mr.Addr(), "", time.Hour)
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	tokens, err := auth.NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new token issuer: %v", err)
	}
	images, err := storage.NewLocalStore(root, "uploads")
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	memStore := store.NewMemoryStore()

	a, err := app.New(app.Config{
		Store:    memStore,
		Images:   images,
		Sessions: sessions,
		Tokens:   tokens,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	srv, err := New(Config{App: a})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	user := domain.User{Name: "Ana Torres", Email: "ana@example.com", Role: domain.RoleClient}
	userID, err := memStore.SaveUser(user)
	if err != nil {
		t.Fatalf("save user: %v", err)
	}
	user.ID = userID
	token, err := tokens.Issue(user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if err := sessions.Save(context.Background(), token, userID); err != nil {
		t.Fatalf("save session: %v", err)
	}

	return &testEnv{server: ts, store: memStore, root: root, token: token, userID: userID}
}

func multipartBody(t *testing.T, fields map[string]string, images map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			t.Fatalf("write field %q: %v", name, err)
		}
	}
	for name, content := range images {
		part, err := w.CreateFormFile("imagenes", name)
		if err != nil {
			t.Fatalf("create file %q: %v", name, err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write file %q: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func (e *testEnv) publish(t *testing.T, token string, fields map[string]string, images map[string]string) *http.Response {
	t.Helper()
	body, contentType := multipartBody(t, fields, images)
	req, err := http.NewRequest(http.MethodPost, e.server.URL+"/propiedades", body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func listingFields() map[string]string {
	return map[string]string{
		"titulo":             "Casa Centro",
		"precio":             "980000",
		"direccion_completa": "Av. Juárez 10",
	}
}

func TestPublishEndpointCreatesListing(t *testing.T) {
	env := newTestEnv(t)

	resp := env.publish(t, env.token, listingFields(), map[string]string{
		"frente.jpg": "imagen-1",
		"cocina.jpg": "imagen-2",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	payload := decodeJSON(t, resp)
	if payload["success"] != true {
		t.Fatalf("success = %v, want true", payload["success"])
	}
	if payload["imagenes"] != float64(2) {
		t.Fatalf("imagenes = %v, want 2", payload["imagenes"])
	}
	id, ok := payload["id_propiedad"].(float64)
	if !ok || id == 0 {
		t.Fatalf("id_propiedad missing in response: %v", payload)
	}

	property, _, found, err := env.store.GetProperty(uint(id))
	if err != nil || !found {
		t.Fatalf("published property not stored: found=%v err=%v", found, err)
	}
	if property.PublisherID != env.userID {
		t.Fatalf("publisherID = %d, want %d (from token)", property.PublisherID, env.userID)
	}
	entries, err := os.ReadDir(env.root)
	if err != nil {
		t.Fatalf("read storage root: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("stored files = %d, want 2", len(entries))
	}
}

func TestPublishEndpointIgnoresFormPublisherField(t *testing.T) {
	env := newTestEnv(t)

	fields := listingFields()
	fields["id_usuario_publica"] = "999"
	resp := env.publish(t, env.token, fields, map[string]string{"a.jpg": "x"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	payload := decodeJSON(t, resp)
	id := uint(payload["id_propiedad"].(float64))
	property, _, _, err := env.store.GetProperty(id)
	if err != nil {
		t.Fatalf("get property: %v", err)
	}
	if property.PublisherID != env.userID {
		t.Fatalf("publisherID = %d, want the session user %d", property.PublisherID, env.userID)
	}
}

func TestPublishEndpointRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	resp := env.publish(t, "", listingFields(), map[string]string{"a.jpg": "x"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	payload := decodeJSON(t, resp)
	if payload["code"] != "AUTH_INVALID_TOKEN" {
		t.Fatalf("code = %v, want AUTH_INVALID_TOKEN", payload["code"])
	}
}

func TestPublishEndpointRejectsRevokedSession(t *testing.T) {
	env := newTestEnv(t)

	// Logout first, then try to publish with the same token.
	req, _ := http.NewRequest(http.MethodPost, env.server.URL+"/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+env.token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d, want 200", resp.StatusCode)
	}

	resp = env.publish(t, env.token, listingFields(), map[string]string{"a.jpg": "x"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status after logout = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestPublishEndpointRejectsMissingFields(t *testing.T) {
	env := newTestEnv(t)

	resp := env.publish(t, env.token, map[string]string{"titulo": "Solo título"}, map[string]string{"a.jpg": "x"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	payload := decodeJSON(t, resp)
	if !strings.Contains(payload["mensaje"].(string), "obligatorios") {
		t.Fatalf("mensaje = %v", payload["mensaje"])
	}
}

func TestPublishEndpointRejectsMissingImages(t *testing.T) {
	env := newTestEnv(t)

	resp := env.publish(t, env.token, listingFields(), nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	decodeJSON(t, resp)
	if _, _, found, _ := env.store.GetProperty(1); found {
		t.Fatalf("no property may be stored without images")
	}
}

func TestPublishEndpointInternalErrorHidesDetail(t *testing.T) {
	env := newTestEnv(t)
	env.store.FailPropertyInsert = true

	resp := env.publish(t, env.token, listingFields(), map[string]string{"a.jpg": "x"})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	payload := decodeJSON(t, resp)
	msg := payload["mensaje"].(string)
	if msg != "Error interno del servidor." {
		t.Fatalf("mensaje = %q, internal detail must not leak", msg)
	}
	if payload["code"] != "SYSTEM_INTERNAL_ERROR" {
		t.Fatalf("code = %v", payload["code"])
	}
}

func TestPublishEndpointStorageFailureLeavesNoListing(t *testing.T) {
	// A regular file where the storage root should be makes every save fail.
	blocked := filepath.Join(t.TempDir(), "media")
	if err := os.WriteFile(blocked, []byte("not a dir"), 0o644); err != nil {
		t.Fatalf("prepare blocked root: %v", err)
	}
	env := newTestEnvWithRoot(t, blocked)

	resp := env.publish(t, env.token, listingFields(), map[string]string{"a.jpg": "x"})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	resp.Body.Close()

	listResp, err := http.Get(env.server.URL + "/propiedades")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	payload := decodeJSON(t, listResp)
	if data, _ := payload["data"].([]any); len(data) != 0 {
		t.Fatalf("failed publication must not appear in listings: %v", data)
	}
}

func TestPropertiesMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	req, _ := http.NewRequest(http.MethodDelete, env.server.URL+"/propiedades", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestListAndDetailRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	for i := 1; i <= 2; i++ {
		fields := listingFields()
		fields["titulo"] = fmt.Sprintf("Casa %d", i)
		resp := env.publish(t, env.token, fields, map[string]string{"a.jpg": "x"})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("publish %d: status %d", i, resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp, err := http.Get(env.server.URL + "/propiedades")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	payload := decodeJSON(t, resp)
	data, ok := payload["data"].([]any)
	if !ok || len(data) != 2 {
		t.Fatalf("data = %v, want 2 listings", payload["data"])
	}

	first := data[0].(map[string]any)
	id := uint(first["id_propiedad"].(float64))
	resp, err = http.Get(fmt.Sprintf("%s/propiedades/%d", env.server.URL, id))
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("detail status = %d", resp.StatusCode)
	}
	payload = decodeJSON(t, resp)
	prop := payload["propiedad"].(map[string]any)
	if prop["titulo"] == "" {
		t.Fatalf("detail missing titulo: %v", prop)
	}
	agente := payload["agente"].(map[string]any)
	if agente["correo_agente"] != "ana@example.com" {
		t.Fatalf("agente = %v, want publisher contact", agente)
	}
}

func TestDetailUnknownPropertyReturns404(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/propiedades/4242")
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	payload := decodeJSON(t, resp)
	if payload["code"] != "LISTING_NOT_FOUND" {
		t.Fatalf("code = %v", payload["code"])
	}
}

func TestRegisterLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	registerBody := `{"nombre":"Luis","correo":"luis@example.com","telefono":"5551234","contrasena":"secreta"}`
	resp, err := http.Post(env.server.URL+"/auth/registro", "application/json", strings.NewReader(registerBody))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, want 201", resp.StatusCode)
	}
	resp.Body.Close()

	// Duplicate email is a conflict.
	resp, err = http.Post(env.server.URL+"/auth/registro", "application/json", strings.NewReader(registerBody))
	if err != nil {
		t.Fatalf("register dup: %v", err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register status = %d, want 409", resp.StatusCode)
	}
	resp.Body.Close()

	loginBody := `{"correo":"luis@example.com","contrasena":"secreta"}`
	resp, err = http.Post(env.server.URL+"/auth/login", "application/json", strings.NewReader(loginBody))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
	payload := decodeJSON(t, resp)
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatalf("login response missing token: %v", payload)
	}

	// The fresh token can publish.
	pubResp := env.publish(t, token, listingFields(), map[string]string{"a.jpg": "x"})
	if pubResp.StatusCode != http.StatusCreated {
		t.Fatalf("publish with fresh token: status %d", pubResp.StatusCode)
	}
	pubResp.Body.Close()

	badLogin := `{"correo":"luis@example.com","contrasena":"equivocada"}`
	resp, err = http.Post(env.server.URL+"/auth/login", "application/json", strings.NewReader(badLogin))
	if err != nil {
		t.Fatalf("bad login: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLoginThrottledPerClient(t *testing.T) {
	mr := miniredis.RunT(t)
	sessions, err := store.NewRedisSessionStore(mr.Addr(), "", time.Hour)
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	tokens, err := auth.NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new token issuer: %v", err)
	}
	images, err := storage.NewLocalStore(t.TempDir(), "uploads")
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	a, err := app.New(app.Config{
		Store:    store.NewMemoryStore(),
		Images:   images,
		Sessions: sessions,
		Tokens:   tokens,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	limiter, err := ratelimit.NewFixedWindowLimiter(mr.Addr(), "", "test:ratelimit", 2, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	srv, err := New(Config{App: a, AuthLimiter: limiter})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	body := `{"correo":"x@example.com","contrasena":"mala"}`
	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := http.Post(ts.URL+"/auth/login", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("login %d: %v", i, err)
		}
		statuses = append(statuses, resp.StatusCode)
		resp.Body.Close()
	}
	if statuses[0] != http.StatusUnauthorized || statuses[1] != http.StatusUnauthorized {
		t.Fatalf("first two attempts = %v, want 401s", statuses[:2])
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Fatalf("third attempt = %d, want 429", statuses[2])
	}
}

func TestInquiryEndpointsRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	resp := env.publish(t, env.token, listingFields(), map[string]string{"a.jpg": "x"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("publish: status %d", resp.StatusCode)
	}
	propertyID := uint(decodeJSON(t, resp)["id_propiedad"].(float64))

	body := fmt.Sprintf(`{"id_propiedad":%d}`, propertyID)
	req, _ := http.NewRequest(http.MethodPost, env.server.URL+"/solicitudes", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+env.token)
	createResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("create inquiry: %v", err)
	}
	if createResp.StatusCode != http.StatusCreated {
		t.Fatalf("create inquiry status = %d, want 201", createResp.StatusCode)
	}
	payload := decodeJSON(t, createResp)
	inquiryID, ok := payload["id_solicitud"].(float64)
	if !ok || inquiryID == 0 {
		t.Fatalf("id_solicitud missing in response: %v", payload)
	}

	// A second inquiry for the same listing is a conflict.
	req, _ = http.NewRequest(http.MethodPost, env.server.URL+"/solicitudes", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+env.token)
	dupResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("duplicate inquiry: %v", err)
	}
	if dupResp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", dupResp.StatusCode)
	}
	if code := decodeJSON(t, dupResp)["code"]; code != "INQUIRY_DUPLICATE" {
		t.Fatalf("duplicate code = %v", code)
	}

	listResp, err := http.Get(fmt.Sprintf("%s/solicitudes?usuario=%d", env.server.URL, env.userID))
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if listResp.StatusCode != http.StatusOK {
		t.Fatalf("list by user status = %d", listResp.StatusCode)
	}
	data, _ := decodeJSON(t, listResp)["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("inquiries by user = %d, want 1", len(data))
	}
	entry := data[0].(map[string]any)
	if entry["titulo"] != "Casa Centro" {
		t.Fatalf("inquiry view titulo = %v", entry["titulo"])
	}
	if entry["propietario_correo"] != "ana@example.com" {
		t.Fatalf("inquiry view owner contact = %v", entry["propietario_correo"])
	}

	listResp, err = http.Get(fmt.Sprintf("%s/solicitudes?propiedad=%d", env.server.URL, propertyID))
	if err != nil {
		t.Fatalf("list by property: %v", err)
	}
	data, _ = decodeJSON(t, listResp)["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("inquiries by property = %d, want 1", len(data))
	}
	entry = data[0].(map[string]any)
	if entry["solicitante_correo"] != "ana@example.com" {
		t.Fatalf("inquiry view requester contact = %v", entry["solicitante_correo"])
	}

	req, _ = http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/solicitudes/%d", env.server.URL, int(inquiryID)), nil)
	req.Header.Set("Authorization", "Bearer "+env.token)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete inquiry: %v", err)
	}
	if delResp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", delResp.StatusCode)
	}
	delResp.Body.Close()

	listResp, err = http.Get(fmt.Sprintf("%s/solicitudes?usuario=%d", env.server.URL, env.userID))
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	data, _ = decodeJSON(t, listResp)["data"].([]any)
	if len(data) != 0 {
		t.Fatalf("inquiries after delete = %d, want 0", len(data))
	}
}

func TestInquiryEndpointRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Post(env.server.URL+"/solicitudes", "application/json", strings.NewReader(`{"id_propiedad":1}`))
	if err != nil {
		t.Fatalf("create inquiry: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodDelete, env.server.URL+"/solicitudes/1", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete inquiry: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("delete status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestInquiryEndpointUnknownProperty(t *testing.T) {
	env := newTestEnv(t)

	req, _ := http.NewRequest(http.MethodPost, env.server.URL+"/solicitudes", strings.NewReader(`{"id_propiedad":4242}`))
	req.Header.Set("Authorization", "Bearer "+env.token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("create inquiry: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestInquiryListRequiresFilter(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/solicitudes")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestProfileEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(fmt.Sprintf("%s/usuarios/%d", env.server.URL, env.userID))
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile status = %d", resp.StatusCode)
	}
	payload := decodeJSON(t, resp)
	perfil := payload["perfil"].(map[string]any)
	if perfil["nombre"] != "Ana Torres" {
		t.Fatalf("perfil = %v", perfil)
	}
	if _, exposed := perfil["contrasena"]; exposed {
		t.Fatalf("password hash must not be serialized")
	}
}
