package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/erazemk/compendium/internal/auth"
	"github.com/erazemk/compendium/internal/db"
	"github.com/erazemk/compendium/internal/export"
	"github.com/erazemk/compendium/internal/metrics"
	"github.com/erazemk/compendium/internal/model"
	"github.com/erazemk/compendium/internal/notify"
	"github.com/erazemk/compendium/internal/review"
	"github.com/erazemk/compendium/internal/store"
)

const (
	testJWTSecret   = "test-secret"
	testAdminSecret = "correct-horse-battery"
)

type recordingTransport struct {
	sent []notify.Message
}

func (r *recordingTransport) Send(_ context.Context, msg notify.Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

type stubExporter struct {
	count int
	err   error
}

func (s *stubExporter) Export(_ context.Context, analyses []model.Analysis) (*export.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.count = len(analyses)
	return &export.Result{Bucket: "catalog", Key: "catalog-test.json", Count: len(analyses)}, nil
}

type testEnv struct {
	server    *httptest.Server
	db        *db.DB
	transport *recordingTransport
	token     string
}

func setupTestServer(t *testing.T, exporter Exporter) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)

	gate, err := auth.NewGate(testAdminSecret)
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	transport := &recordingTransport{}

	router := NewRouter(Services{
		DB:        database,
		JWTSecret: testJWTSecret,
		Gate:      gate,
		Manager:   review.NewManager(store.Catalog{DB: database}, store.Suggestions{DB: database}),
		Notifier:  notify.New("", "from@example.be", []string{"ops@example.be"}, transport),
		Exporter:  exporter,
		Metrics:   metrics.New(),
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// Get token.
	body, _ := json.Marshal(map[string]string{"secret": testAdminSecret})
	resp, err := http.Post(server.URL+"/api/admin/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]any
	json.NewDecoder(resp.Body).Decode(&loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatal("empty token from login")
	}

	return &testEnv{server: server, db: database, transport: transport, token: token}
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var data []byte
	if body != nil {
		data, _ = json.Marshal(body)
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func do(t *testing.T, method, url, token string, body any, out any) int {
	t.Helper()
	req, err := authRequest(method, url, token, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func seed(t *testing.T, database *db.DB, analyses ...model.Analysis) []int64 {
	t.Helper()
	var ids []int64
	for _, a := range analyses {
		id, err := store.CreateAnalysis(context.Background(), database, a)
		if err != nil {
			t.Fatalf("CreateAnalysis: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func suggestionBody(typ string, a model.Analysis) map[string]any {
	return map[string]any{
		"type":         typ,
		"analysis":     a,
		"author_name":  "Jan",
		"author_lab":   "LabX",
		"author_email": "jan@example.be",
		"captcha":      "BELGIQUE",
	}
}

func TestLoginEndpoint(t *testing.T) {
	env := setupTestServer(t, nil)

	body, _ := json.Marshal(map[string]string{"secret": "a"})
	resp, _ := http.Post(env.server.URL+"/api/admin/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong secret, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnauthenticatedAccess(t *testing.T) {
	env := setupTestServer(t, nil)

	for _, path := range []string{"/api/admin/suggestions", "/api/admin/contacts", "/api/admin/analyses/search?q=x"} {
		resp, _ := http.Get(env.server.URL + path)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s: expected 401, got %d", path, resp.StatusCode)
		}
		resp.Body.Close()
	}

	forged, _ := auth.GenerateToken("some-other-secret", model.RoleAdmin)
	if code := do(t, "GET", env.server.URL+"/api/admin/suggestions", forged, nil, nil); code != http.StatusUnauthorized {
		t.Errorf("expected 401 for forged token, got %d", code)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	env := setupTestServer(t, nil)
	url := env.server.URL

	if code := do(t, "POST", url+"/api/admin/logout", env.token, nil, nil); code != http.StatusOK {
		t.Fatalf("expected 200 from logout, got %d", code)
	}
	if code := do(t, "GET", url+"/api/admin/suggestions", env.token, nil, nil); code != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", code)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	env := setupTestServer(t, nil)
	url := env.server.URL
	ids := seed(t, env.db,
		model.Analysis{Name: "Glucose", Laboratory: "LabX", Sector: "Chemistry"},
		model.Analysis{Name: "Urine glucose", Laboratory: "LabY", Sector: "Chemistry"},
		model.Analysis{Name: "Ferritin", Laboratory: "LabX", Sector: "Hematology"},
	)

	var all []model.Analysis
	if code := do(t, "GET", url+"/api/analyses", "", nil, &all); code != http.StatusOK || len(all) != 3 {
		t.Fatalf("expected 3 analyses, got %d (status %d)", len(all), code)
	}

	var one model.Analysis
	if code := do(t, "GET", url+"/api/analyses/"+itoa(ids[2]), "", nil, &one); code != http.StatusOK || one.Name != "Ferritin" {
		t.Errorf("expected Ferritin, got %+v (status %d)", one, code)
	}
	if code := do(t, "GET", url+"/api/analyses/999", "", nil, nil); code != http.StatusNotFound {
		t.Errorf("expected 404 for missing analysis, got %d", code)
	}

	var found []model.Analysis
	do(t, "GET", url+"/api/analyses/search?q=GLUCOSE&laboratory=LabX", "", nil, &found)
	if len(found) != 1 || found[0].Name != "Glucose" {
		t.Errorf("unexpected search result: %+v", found)
	}

	var spaced []model.Analysis
	do(t, "GET", url+"/api/analyses/search?q=%20glu", "", nil, &spaced)
	if len(spaced) != 1 || spaced[0].Name != "Urine glucose" {
		t.Errorf("expected query to be matched as typed, got %+v", spaced)
	}

	var none []model.Analysis
	do(t, "GET", url+"/api/analyses/search", "", nil, &none)
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty array for empty criteria, got %v", none)
	}

	var facets facetsResponse
	do(t, "GET", url+"/api/analyses/facets", "", nil, &facets)
	if strings.Join(facets.Sectors, ",") != "Chemistry,Hematology" {
		t.Errorf("unexpected sectors: %v", facets.Sectors)
	}
	if strings.Join(facets.Laboratories, ",") != "LabX,LabY" {
		t.Errorf("unexpected laboratories: %v", facets.Laboratories)
	}

	var lookup []model.Analysis
	do(t, "GET", url+"/api/analyses/lookup?q=glucose", "", nil, &lookup)
	if len(lookup) != 2 || lookup[0].Name != "Glucose" {
		t.Errorf("unexpected lookup result: %+v", lookup)
	}
}

func TestSuggestionLifecycle(t *testing.T) {
	env := setupTestServer(t, nil)
	url := env.server.URL
	ids := seed(t, env.db, model.Analysis{Name: "Glucose", Laboratory: "LabX", Units: "mg/dL"})

	// Submit an add and an edit.
	var added submitSuggestionResponse
	code := do(t, "POST", url+"/api/suggestions", "", suggestionBody("add", model.Analysis{Name: "Ferritin", Laboratory: "LabY"}), &added)
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if !added.Notified || len(env.transport.sent) != 1 {
		t.Errorf("expected one notice to be sent, got %d", len(env.transport.sent))
	}

	var edited submitSuggestionResponse
	code = do(t, "POST", url+"/api/suggestions", "", suggestionBody("edit", model.Analysis{ID: ids[0], Name: "Glucose", Laboratory: "LabZ"}), &edited)
	if code != http.StatusCreated {
		t.Fatalf("expected 201 for edit, got %d", code)
	}

	// Admin lists newest first.
	var list []model.Suggestion
	do(t, "GET", url+"/api/admin/suggestions", env.token, nil, &list)
	if len(list) != 2 || list[0].ID != edited.Suggestion.ID {
		t.Fatalf("unexpected suggestion list: %+v", list)
	}

	// Approve the add.
	var approved map[string]any
	code = do(t, "POST", url+"/api/admin/suggestions/"+itoa(added.Suggestion.ID)+"/approve", env.token, nil, &approved)
	if code != http.StatusOK {
		t.Fatalf("expected 200 from approve, got %d", code)
	}
	if code := do(t, "POST", url+"/api/admin/suggestions/"+itoa(added.Suggestion.ID)+"/approve", env.token, nil, nil); code != http.StatusConflict {
		t.Errorf("expected 409 approving twice, got %d", code)
	}

	// Approve the edit.
	do(t, "POST", url+"/api/admin/suggestions/"+itoa(edited.Suggestion.ID)+"/approve", env.token, nil, nil)
	got, _ := store.GetAnalysis(context.Background(), env.db, ids[0])
	if got.Laboratory != "LabZ" || got.Units != "" {
		t.Errorf("expected edit to be merged, got %+v", got)
	}

	all, _ := store.ListAnalyses(context.Background(), env.db)
	if len(all) != 2 {
		t.Errorf("expected 2 analyses after approvals, got %d", len(all))
	}

	// Delete removes it regardless of status.
	if code := do(t, "DELETE", url+"/api/admin/suggestions/"+itoa(added.Suggestion.ID), env.token, nil, nil); code != http.StatusNoContent {
		t.Errorf("expected 204 from delete, got %d", code)
	}
	if code := do(t, "GET", url+"/api/admin/suggestions/"+itoa(added.Suggestion.ID), env.token, nil, nil); code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", code)
	}
}

func TestSubmitValidationAndCaptcha(t *testing.T) {
	env := setupTestServer(t, nil)
	url := env.server.URL

	body := suggestionBody("add", model.Analysis{Name: "Ferritin", Laboratory: "LabY"})
	body["captcha"] = "belgique"
	if code := do(t, "POST", url+"/api/suggestions", "", body, nil); code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad captcha, got %d", code)
	}

	body = suggestionBody("add", model.Analysis{Name: "", Laboratory: "LabY"})
	body["author_email"] = "  "
	var resp struct {
		Fields []string `json:"fields"`
	}
	if code := do(t, "POST", url+"/api/suggestions", "", body, &resp); code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing fields, got %d", code)
	}
	if strings.Join(resp.Fields, ",") != "name,author_email" {
		t.Errorf("unexpected fields: %v", resp.Fields)
	}

	list, _ := store.ListSuggestions(context.Background(), env.db)
	if len(list) != 0 {
		t.Errorf("expected nothing stored, got %d", len(list))
	}
	if len(env.transport.sent) != 0 {
		t.Errorf("expected no notices, got %d", len(env.transport.sent))
	}
}

func TestRejectAndAmend(t *testing.T) {
	env := setupTestServer(t, nil)
	url := env.server.URL

	var created submitSuggestionResponse
	do(t, "POST", url+"/api/suggestions", "", suggestionBody("add", model.Analysis{Name: "Ferritn", Laboratory: "LabY"}), &created)
	id := itoa(created.Suggestion.ID)

	var amended model.Suggestion
	code := do(t, "PUT", url+"/api/admin/suggestions/"+id, env.token, model.Analysis{Name: "Ferritin", Laboratory: "LabY"}, &amended)
	if code != http.StatusOK || amended.Analysis.Name != "Ferritin" {
		t.Errorf("expected amended payload, got %+v (status %d)", amended.Analysis, code)
	}

	if code := do(t, "POST", url+"/api/admin/suggestions/"+id+"/reject", env.token, nil, nil); code != http.StatusOK {
		t.Errorf("expected 200 from reject, got %d", code)
	}
	if code := do(t, "POST", url+"/api/admin/suggestions/"+id+"/reject", env.token, nil, nil); code != http.StatusConflict {
		t.Errorf("expected 409 rejecting twice, got %d", code)
	}

	all, _ := store.ListAnalyses(context.Background(), env.db)
	if len(all) != 0 {
		t.Errorf("expected catalog untouched by reject, got %d analyses", len(all))
	}
}

func TestContactFlow(t *testing.T) {
	env := setupTestServer(t, nil)
	url := env.server.URL

	body := map[string]string{"name": "Jan", "email": "jan@example.be", "message": "Hello\nthere", "captcha": "BELGIQUE"}
	if code := do(t, "POST", url+"/api/contact", "", body, nil); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if len(env.transport.sent) != 1 || !strings.Contains(env.transport.sent[0].HTML, "Hello<br/>there") {
		t.Errorf("expected contact notice, got %+v", env.transport.sent)
	}

	body["captcha"] = "nope"
	if code := do(t, "POST", url+"/api/contact", "", body, nil); code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad captcha, got %d", code)
	}

	var contacts []model.ContactMessage
	do(t, "GET", url+"/api/admin/contacts", env.token, nil, &contacts)
	if len(contacts) != 1 {
		t.Fatalf("expected 1 contact, got %d", len(contacts))
	}

	if code := do(t, "DELETE", url+"/api/admin/contacts/"+itoa(contacts[0].ID), env.token, nil, nil); code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", code)
	}
	if code := do(t, "DELETE", url+"/api/admin/contacts/"+itoa(contacts[0].ID), env.token, nil, nil); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestExportEndpoint(t *testing.T) {
	env := setupTestServer(t, nil)
	if code := do(t, "POST", env.server.URL+"/api/admin/export", env.token, nil, nil); code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without exporter, got %d", code)
	}

	exporter := &stubExporter{}
	env = setupTestServer(t, exporter)
	seed(t, env.db, model.Analysis{Name: "Glucose", Laboratory: "LabX"})

	var res export.Result
	if code := do(t, "POST", env.server.URL+"/api/admin/export", env.token, nil, &res); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if exporter.count != 1 || res.Count != 1 {
		t.Errorf("expected 1 exported analysis, got %d", exporter.count)
	}

	exporter.err = errors.New("bucket gone")
	if code := do(t, "POST", env.server.URL+"/api/admin/export", env.token, nil, nil); code != http.StatusBadGateway {
		t.Errorf("expected 502 on export failure, got %d", code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := setupTestServer(t, nil)

	if code := do(t, "GET", env.server.URL+"/healthz", "", nil, nil); code != http.StatusOK {
		t.Errorf("expected 200 from healthz, got %d", code)
	}

	resp, err := http.Get(env.server.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), `compendium_http_requests_total{code="200",route="POST /api/admin/login"}`) {
		t.Errorf("expected login to be counted, got:\n%s", buf.String())
	}
}

func TestReviewErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{&review.ValidationError{Fields: []string{"name"}}, http.StatusBadRequest},
		{review.ErrNotFound, http.StatusNotFound},
		{review.ErrAnalysisNotFound, http.StatusNotFound},
		{review.ErrNotPending, http.StatusConflict},
		{&review.PartialApprovalError{SuggestionID: 1, AnalysisID: 2, Err: errors.New("x")}, http.StatusInternalServerError},
		{&review.StoreError{Op: "list", Err: errors.New("x")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		reviewError(rec, tt.err)
		if rec.Code != tt.status {
			t.Errorf("reviewError(%v) = %d, want %d", tt.err, rec.Code, tt.status)
		}
	}

	rec := httptest.NewRecorder()
	reviewError(rec, &review.PartialApprovalError{SuggestionID: 1, AnalysisID: 2, Err: errors.New("x")})
	var body map[string]any
	json.NewDecoder(rec.Body).Decode(&body)
	if body["inconsistent"] != true {
		t.Errorf("expected inconsistent flag, got %v", body)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
