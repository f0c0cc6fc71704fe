package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"zelador/internal/config"
	"zelador/internal/db"
	"zelador/internal/engine"
	"zelador/internal/migrate"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	cfg := config.Default("condo-1")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, cfg)
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	e.Now = func() time.Time { return time.Date(2025, 7, 10, 9, 0, 0, 0, loc) }
	if _, err := e.InitCondominium(context.Background(), "condo-1", "Edifício Teste", "", "tester"); err != nil {
		t.Fatalf("init condominium: %v", err)
	}
	handler, err := New(Config{Engine: e, BasePath: "/v1"})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func TestActivityLifecycle(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	base := srv.URL + "/v1/condominiums/condo-1"

	res, data := doJSON(t, client, http.MethodPost, base+"/activities", map[string]any{
		"name":          "Teste de bombas de incêndio",
		"frequency":     "A cada semana",
		"expected_date": "2025-07-10",
		"location":      "Casa de máquinas",
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("create activity status %d: %s", res.StatusCode, string(data))
	}
	var created ActivityResponse
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal activity: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected activity id")
	}

	doneRes, doneBody := doJSON(t, client, http.MethodPatch,
		base+"/activities/"+created.ID+"/occurrences/2025-07-10",
		map[string]any{"status": "FEITO"}, map[string]string{"X-Actor-Id": "sindico"})
	if doneRes.StatusCode != http.StatusOK {
		t.Fatalf("complete status %d: %s", doneRes.StatusCode, string(doneBody))
	}
	var occ OccurrenceResponse
	if err := json.Unmarshal(doneBody, &occ); err != nil {
		t.Fatalf("unmarshal occurrence: %v", err)
	}
	if occ.Status != "FEITO" || occ.CompletedAt == nil {
		t.Fatalf("unexpected occurrence: %+v", occ)
	}

	listRes, listBody := doJSON(t, client, http.MethodGet,
		base+"/activities/"+created.ID+"/occurrences", nil, nil)
	if listRes.StatusCode != http.StatusOK {
		t.Fatalf("list occurrences status %d: %s", listRes.StatusCode, string(listBody))
	}
	var occs []OccurrenceResponse
	if err := json.Unmarshal(listBody, &occs); err != nil {
		t.Fatalf("unmarshal occurrences: %v", err)
	}
	if len(occs) != 2 {
		t.Fatalf("expected completed + advanced occurrence, got %d", len(occs))
	}
	if occs[1].ReferenceDate != "2025-07-17" || occs[1].Status != "PENDENTE" {
		t.Fatalf("unexpected successor: %+v", occs[1])
	}

	boardRes, boardBody := doJSON(t, client, http.MethodGet, base+"/board", nil, nil)
	if boardRes.StatusCode != http.StatusOK {
		t.Fatalf("board status %d: %s", boardRes.StatusCode, string(boardBody))
	}
	var board map[string][]ActivityStatusResponse
	if err := json.Unmarshal(boardBody, &board); err != nil {
		t.Fatalf("unmarshal board: %v", err)
	}
	found := false
	for _, s := range board["HISTORICO"] {
		if s.Activity.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected completed activity in HISTORICO column: %s", string(boardBody))
	}
}

func TestNotificationsEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	base := srv.URL + "/v1/condominiums/condo-1"

	for _, a := range []map[string]any{
		{"name": "vencida", "frequency": "Não se repete", "expected_date": "2025-07-01"},
		{"name": "vence logo", "frequency": "Não se repete", "expected_date": "2025-07-12"},
	} {
		res, body := doJSON(t, client, http.MethodPost, base+"/activities", a, nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("create activity status %d: %s", res.StatusCode, string(body))
		}
	}

	res, data := doJSON(t, client, http.MethodGet, base+"/notifications?lead_days=3", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("notifications status %d: %s", res.StatusCode, string(data))
	}
	var feed []NotificationResponse
	if err := json.Unmarshal(data, &feed); err != nil {
		t.Fatalf("unmarshal feed: %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("expected 2 notices, got %d: %s", len(feed), string(data))
	}
	if feed[0].When != "overdue" || feed[1].When != "pre" {
		t.Fatalf("unexpected ordering: %s", string(data))
	}
}

func TestInvalidOccurrenceStatusRejected(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	base := srv.URL + "/v1/condominiums/condo-1"

	res, data := doJSON(t, client, http.MethodPost, base+"/activities", map[string]any{
		"name": "x", "frequency": "Todos os dias", "expected_date": "2025-07-10",
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("create activity status %d: %s", res.StatusCode, string(data))
	}
	var created ActivityResponse
	_ = json.Unmarshal(data, &created)

	badRes, badBody := doJSON(t, client, http.MethodPatch,
		base+"/activities/"+created.ID+"/occurrences/2025-07-10",
		map[string]any{"status": "CONCLUIDO"}, nil)
	if badRes.StatusCode != http.StatusBadRequest && badRes.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected rejection, got %d: %s", badRes.StatusCode, string(badBody))
	}
}

func TestActivityNotFound(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodGet,
		srv.URL+"/v1/condominiums/condo-1/activities/nope", nil, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", res.StatusCode, string(data))
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if envelope.Error.Code != "not_found" {
		t.Fatalf("expected not_found, got %q", envelope.Error.Code)
	}
}
