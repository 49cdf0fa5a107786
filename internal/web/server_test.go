package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/conorfennell/langdrill/internal/content"
	"github.com/conorfennell/langdrill/internal/decks"
	"github.com/conorfennell/langdrill/internal/domain"
	"github.com/conorfennell/langdrill/internal/fsrs"
	"github.com/conorfennell/langdrill/internal/metrics"
	"github.com/conorfennell/langdrill/internal/storage"
	"github.com/conorfennell/langdrill/internal/study"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

var testContent = content.Static{
	domain.Vocabulary: {
		{ID: "dom", Level: "A1", Fields: map[string]string{"term": "dom", "translation": "house"}},
		{ID: "kot", Level: "A2", Fields: map[string]string{"term": "kot", "translation": "cat"}},
	},
	domain.Declension: {
		{ID: "dom-gen-sg", Fields: map[string]string{"lemma": "dom", "case": "genitive", "number": "singular", "form": "domu"}},
	},
	domain.Aspect: {
		{ID: "robic", Fields: map[string]string{"imperfective": "robić", "perfective": "zrobić"}},
	},
}

type testServer struct {
	*httptest.Server
	registry *decks.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	clock := func() time.Time { return testNow }
	db, err := storage.Open(filepath.Join(t.TempDir(), "web.db"), storage.Options{
		Clock:    clock,
		Defaults: domain.Settings{NewCardsPerDay: 15},
	})
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}

	sched, err := fsrs.NewScheduler(fsrs.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	registry, err := decks.NewRegistry(testContent, db, sched, study.Options{
		Clock:    clock,
		Log:      log,
		Recorder: collector,
	})
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(NewServer(registry, collector, reg, log))
	t.Cleanup(func() {
		srv.Close()
		registry.Wait()
		db.Close()
	})
	return &testServer{Server: srv, registry: registry}
}

func (s *testServer) do(t *testing.T, method, path, body string, out any) int {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := s.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

type cardJSON struct {
	Record struct {
		ItemID string `json:"item_id"`
		Card   struct {
			State string `json:"state"`
		} `json:"card"`
	} `json:"record"`
	IsNew bool `json:"is_new"`
}

type sessionJSON struct {
	Status  string            `json:"status"`
	Mode    string            `json:"mode"`
	Card    *cardJSON         `json:"card"`
	Preview map[string]string `json:"preview"`
}

func TestGetDue(t *testing.T) {
	s := newTestServer(t)
	var got struct {
		Total int `json:"total"`
		Decks []struct {
			Key   domain.Key `json:"key"`
			Total int        `json:"total"`
		} `json:"decks"`
	}
	if code := s.do(t, http.MethodGet, "/api/due", "", &got); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	// two vocabulary directions, one declension, two aspect directions
	if got.Total != 7 {
		t.Errorf("total = %d, want 7", got.Total)
	}
	if len(got.Decks) != len(domain.AllKeys()) {
		t.Errorf("got %d badges, want %d", len(got.Decks), len(domain.AllKeys()))
	}
}

func TestListDecks(t *testing.T) {
	s := newTestServer(t)
	var got []struct {
		Deck       string   `json:"deck"`
		Directions []string `json:"directions"`
	}
	if code := s.do(t, http.MethodGet, "/api/decks", "", &got); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(got) != 5 {
		t.Fatalf("got %d decks, want 5", len(got))
	}
	if got[0].Deck != "vocabulary" || len(got[0].Directions) != 2 {
		t.Errorf("first deck = %+v", got[0])
	}
}

func TestGradeFlow(t *testing.T) {
	s := newTestServer(t)
	const base = "/api/decks/vocabulary/recognition"

	var view sessionJSON
	if code := s.do(t, http.MethodGet, base+"/session", "", &view); code != http.StatusOK {
		t.Fatalf("session status = %d", code)
	}
	if view.Status != "active" || view.Card == nil || view.Card.Record.ItemID != "dom" || !view.Card.IsNew {
		t.Fatalf("unexpected session %+v", view)
	}
	if len(view.Preview) != 4 || view.Preview["good"] == "" {
		t.Errorf("preview = %v", view.Preview)
	}

	var graded struct {
		Graded  cardJSON    `json:"graded"`
		Session sessionJSON `json:"session"`
	}
	if code := s.do(t, http.MethodPost, base+"/grade", `{"rating":"good"}`, &graded); code != http.StatusOK {
		t.Fatalf("grade status = %d", code)
	}
	if graded.Graded.Record.ItemID != "dom" || graded.Graded.Record.Card.State != "learning" {
		t.Errorf("graded = %+v", graded.Graded)
	}
	if graded.Session.Card == nil || graded.Session.Card.Record.ItemID != "kot" {
		t.Errorf("next card = %+v", graded.Session.Card)
	}

	if code := s.do(t, http.MethodPost, base+"/grade", `{"rating":3}`, nil); code != http.StatusOK {
		t.Errorf("numeric rating status = %d", code)
	}
	s.registry.Wait()

	resp, err := s.Client().Get(s.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `langdrill_grades_total{deck="vocabulary",direction="recognition",rating="good"} 2`) {
		t.Errorf("grade counter missing from metrics:\n%s", body)
	}
}

func TestErrorStatuses(t *testing.T) {
	s := newTestServer(t)
	testCases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown deck", http.MethodGet, "/api/decks/verbs/default/session", "", http.StatusNotFound},
		{"unsupported direction", http.MethodGet, "/api/decks/declension/production/session", "", http.StatusNotFound},
		{"invalid rating", http.MethodPost, "/api/decks/vocabulary/production/grade", `{"rating":"meh"}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/decks/vocabulary/production/grade", `{`, http.StatusBadRequest},
		{"empty deck", http.MethodPost, "/api/decks/sentences/recognition/grade", `{"rating":"good"}`, http.StatusConflict},
		{"zero count", http.MethodPost, "/api/decks/aspect/perfective/extra-new", `{"count":0}`, http.StatusBadRequest},
		{"negative allowance", http.MethodPut, "/api/decks/aspect/perfective/settings", `{"new_cards_per_day":-1}`, http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var got errorResponse
			if code := s.do(t, tc.method, tc.path, tc.body, &got); code != tc.want {
				t.Errorf("status = %d, want %d (%s)", code, tc.want, got.Error)
			}
			if got.Error == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestSettingsRebuildSession(t *testing.T) {
	s := newTestServer(t)
	const base = "/api/decks/vocabulary/production"

	var settings domain.Settings
	if code := s.do(t, http.MethodGet, base+"/settings", "", &settings); code != http.StatusOK || settings.NewCardsPerDay != 15 {
		t.Fatalf("settings = %+v (status %d)", settings, code)
	}

	var view sessionJSON
	if code := s.do(t, http.MethodPut, base+"/settings", `{"new_cards_per_day":0}`, &view); code != http.StatusOK {
		t.Fatalf("put status = %d", code)
	}
	if view.Status != "empty" || view.Card != nil {
		t.Errorf("session after zero allowance = %+v", view)
	}

	var replaced struct {
		Cards   int         `json:"cards"`
		Session sessionJSON `json:"session"`
	}
	if code := s.do(t, http.MethodPost, base+"/extra-new", `{"count":1}`, &replaced); code != http.StatusOK {
		t.Fatalf("extra-new status = %d", code)
	}
	if replaced.Cards != 1 || replaced.Session.Mode != "extra_new" || replaced.Session.Card == nil {
		t.Errorf("extra-new session = %+v", replaced)
	}

	if code := s.do(t, http.MethodPost, base+"/session", "", &view); code != http.StatusOK || view.Mode != "scheduled" {
		t.Errorf("restart = %+v (status %d)", view, code)
	}
}

func TestClearProgress(t *testing.T) {
	s := newTestServer(t)
	const base = "/api/decks/aspect/imperfective"
	if code := s.do(t, http.MethodPost, base+"/grade", `{"rating":"easy"}`, nil); code != http.StatusOK {
		t.Fatalf("grade status = %d", code)
	}
	s.registry.Wait()

	var view sessionJSON
	if code := s.do(t, http.MethodDelete, base+"/progress", "", &view); code != http.StatusOK {
		t.Fatalf("clear status = %d", code)
	}
	if view.Status != "active" || view.Card == nil || !view.Card.IsNew {
		t.Errorf("session after clear = %+v", view)
	}
}
