package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"carsearch_frontend/internal/search/controller"
	"carsearch_frontend/internal/search/transport"
	"carsearch_frontend/platform/apperr"
	"carsearch_frontend/platform/httpkit"
	"carsearch_frontend/platform/logger"
	"carsearch_frontend/platform/validator"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testSessionConfig struct{}

func (testSessionConfig) GetSessionCookieName() string  { return "sid" }
func (testSessionConfig) GetSessionTTL() time.Duration  { return time.Hour }
func (testSessionConfig) GetSessionCookieSecure() bool { return false }

type testSearcher struct {
	mu    sync.Mutex
	rows  map[string][]transport.Vehicle
	err   error
	calls []transport.Request
}

func (s *testSearcher) Execute(_ context.Context, req transport.Request) ([]transport.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.rows[req.Endpoint], nil
}

func noLimit(c *gin.Context) { c.Next() }

func newTestEngine(searcher controller.Searcher) *gin.Engine {
	engine, _ := newTestEngineWithStore(searcher, noLimit)
	return engine
}

func newTestEngineWithStore(searcher controller.Searcher, pageLimit gin.HandlerFunc) (*gin.Engine, *controller.Store) {
	store := controller.NewStore(searcher, time.Hour)
	h := New(store, validator.New(), testSessionConfig{}, logger.Discard())

	engine := gin.New()
	h.RegisterPages(engine.Group(""), pageLimit)
	h.RegisterAPI(engine.Group("/api/v1/search"), noLimit)
	return engine, store
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "sid" {
			return ck
		}
	}
	return nil
}

type browser struct {
	t      *testing.T
	engine *gin.Engine
	cookie *http.Cookie
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	w := httptest.NewRecorder()
	b.engine.ServeHTTP(w, req)
	if ck := sessionCookie(w); ck != nil {
		b.cookie = ck
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) postForm(path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) sendJSON(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return b.do(req)
}

func vehicle(reg string) transport.Vehicle {
	return transport.Vehicle{
		RegistrationNumber: reg,
		ManufacturedTime:   transport.ManufacturedDate{Time: time.Date(2019, 3, 4, 0, 0, 0, 0, time.UTC), Raw: "2019-03-04", Valid: true},
		Price:              1234.5,
		NumberOfKilometers: 1000,
		Make:               "Audi",
		Model:              "A4",
	}
}

func TestPage_RendersEmptyTableWithoutSession(t *testing.T) {
	engine, store := newTestEngineWithStore(&testSearcher{}, noLimit)
	b := &browser{t: t, engine: engine}

	w := b.get("/")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if b.cookie != nil {
		t.Fatalf("expected no session cookie for a read-only visit")
	}
	if store.Len() != 0 {
		t.Fatalf("expected no session stored, got %d", store.Len())
	}
	body := w.Body.String()
	if !strings.Contains(body, `action="/search/form"`) {
		t.Fatalf("expected form tab rendered by default")
	}
	if strings.Count(body, "<th>") != 6 {
		t.Fatalf("expected 6 header cells, got %d", strings.Count(body, "<th>"))
	}
	if strings.Contains(body, "data-row=") {
		t.Fatalf("expected no body rows")
	}
}

func TestPostForm_SubmitsAndRedirects(t *testing.T) {
	searcher := &testSearcher{rows: map[string][]transport.Vehicle{
		transport.EndpointFormSearch: {vehicle("ZG-1234-AB")},
	}}
	b := &browser{t: t, engine: newTestEngine(searcher)}
	b.get("/")

	w := b.postForm("/search/form", url.Values{
		"carTypeMake":          {"Audi"},
		"manufacturedTimeFrom": {"2018-01-01"},
	})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/?tab=form" {
		t.Fatalf("expected redirect to form tab, got %s", loc)
	}

	if len(searcher.calls) != 1 || searcher.calls[0].Endpoint != transport.EndpointFormSearch {
		t.Fatalf("expected one form search, got %+v", searcher.calls)
	}
	var payload transport.FormSearchPayload
	if err := json.Unmarshal(searcher.calls[0].Body, &payload); err != nil {
		t.Fatalf("expected JSON payload, got %v", err)
	}
	if payload.CarTypeMake != "Audi" || payload.ManufacturedTimeFrom == nil || *payload.ManufacturedTimeFrom != "2018-01-01T00:00:00.000Z" {
		t.Fatalf("unexpected payload %+v", payload)
	}

	body := b.get("/?tab=form").Body.String()
	for _, want := range []string{"ZG-1234-AB", "04/03/2019", "€1,234.50", `value="Audi"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected page to contain %q", want)
		}
	}
}

func TestTabSwitchKeepsResultsAcrossRequests(t *testing.T) {
	searcher := &testSearcher{rows: map[string][]transport.Vehicle{
		transport.EndpointFormSearch:   {vehicle("FORM-ROW")},
		transport.EndpointStringSearch: {vehicle("TEXT-ROW")},
	}}
	b := &browser{t: t, engine: newTestEngine(searcher)}

	b.postForm("/search/form", url.Values{"carTypeMake": {"Audi"}})
	b.postForm("/search/text", url.Values{"search": {"Audi"}})

	text := b.get("/?tab=text").Body.String()
	if !strings.Contains(text, "TEXT-ROW") || strings.Contains(text, "FORM-ROW") {
		t.Fatalf("expected only text results on text tab")
	}

	form := b.get("/?tab=form").Body.String()
	if !strings.Contains(form, "FORM-ROW") {
		t.Fatalf("expected form results kept after tab switch")
	}
	if len(searcher.calls) != 2 {
		t.Fatalf("expected tab switches not to search, got %d calls", len(searcher.calls))
	}
}

func TestPostText_FailureKeepsPageQuiet(t *testing.T) {
	searcher := &testSearcher{err: apperr.Upstream("search backend unavailable", errors.New("refused"))}
	b := &browser{t: t, engine: newTestEngine(searcher)}

	w := b.postForm("/search/text", url.Values{"search": {"x"}})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 even on failure, got %d", w.Code)
	}

	page := b.get("/")
	if page.Code != http.StatusOK {
		t.Fatalf("expected page to render, got %d", page.Code)
	}
	if !strings.Contains(page.Body.String(), `value="x"`) {
		t.Fatalf("expected query kept in the input")
	}
}

func TestAPI_SubmitText(t *testing.T) {
	searcher := &testSearcher{rows: map[string][]transport.Vehicle{
		transport.EndpointStringSearch: {vehicle("A"), vehicle("B")},
	}}
	b := &browser{t: t, engine: newTestEngine(searcher)}

	w := b.sendJSON(http.MethodPost, "/api/v1/search/text", `{"search":"Audi"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Tab   string `json:"tab"`
		Count int    `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("expected JSON, got %v", err)
	}
	if resp.Tab != "text" || resp.Count != 2 {
		t.Fatalf("expected 2 text results, got %+v", resp)
	}
}

func TestAPI_UpstreamFailureIs502(t *testing.T) {
	searcher := &testSearcher{err: apperr.Upstream("search backend unavailable", errors.New("refused"))}
	b := &browser{t: t, engine: newTestEngine(searcher)}

	w := b.sendJSON(http.MethodPost, "/api/v1/search/text", `{"search":"Audi"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestAPI_SetFieldAndState(t *testing.T) {
	b := &browser{t: t, engine: newTestEngine(&testSearcher{})}

	w := b.sendJSON(http.MethodPatch, "/api/v1/search/form/fields", `{"name":"carTypeModel","value":"A4"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = b.sendJSON(http.MethodPatch, "/api/v1/search/form/fields", `{"name":"colour","value":"red"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", w.Code)
	}

	w = b.get("/api/v1/search/state")
	var state struct {
		ActiveTab string                 `json:"activeTab"`
		Form      transport.FormCriteria `json:"form"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatalf("expected JSON state, got %v", err)
	}
	if state.ActiveTab != "form" {
		t.Fatalf("expected form tab, got %s", state.ActiveTab)
	}
	if state.Form != (transport.FormCriteria{CarTypeModel: "A4"}) {
		t.Fatalf("expected only model set, got %+v", state.Form)
	}
}

func TestAPI_SelectTab(t *testing.T) {
	b := &browser{t: t, engine: newTestEngine(&testSearcher{})}

	if w := b.sendJSON(http.MethodPost, "/api/v1/search/tab", `{"tab":"text"}`); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := b.sendJSON(http.MethodPost, "/api/v1/search/tab", `{"tab":"advanced"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	if body := b.get("/").Body.String(); !strings.Contains(body, `action="/search/text"`) {
		t.Fatalf("expected text tab to stay selected")
	}
}

func TestAPI_SubmitFormValidatesCriteria(t *testing.T) {
	searcher := &testSearcher{}
	b := &browser{t: t, engine: newTestEngine(searcher)}

	w := b.sendJSON(http.MethodPost, "/api/v1/search/form", `{"manufacturedTimeFrom":"15/01/2023","priceTo":"cheap"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var resp struct {
		Details map[string]string `json:"details"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Details["manufacturedTimeFrom"] != "isodate" || resp.Details["priceTo"] != "numeric" {
		t.Fatalf("expected field errors, got %+v", resp.Details)
	}
	if len(searcher.calls) != 0 {
		t.Fatalf("expected no backend call")
	}
}

func TestReadOnlyRequestsDoNotCreateSessions(t *testing.T) {
	engine, store := newTestEngineWithStore(&testSearcher{}, noLimit)

	for i := 0; i < 5; i++ {
		for _, path := range []string{"/", "/?tab=bogus", "/api/v1/search/state"} {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200 for %s, got %d", path, w.Code)
			}
			if sessionCookie(w) != nil {
				t.Fatalf("expected no cookie for %s", path)
			}
		}
	}
	if store.Len() != 0 {
		t.Fatalf("expected no sessions, got %d", store.Len())
	}
}

func TestPage_TabSelectionStartsSession(t *testing.T) {
	engine, store := newTestEngineWithStore(&testSearcher{}, noLimit)
	b := &browser{t: t, engine: engine}

	b.get("/?tab=text")
	if b.cookie == nil || b.cookie.Value == "" {
		t.Fatalf("expected session cookie after selecting a tab")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Len())
	}
	if body := b.get("/").Body.String(); !strings.Contains(body, `action="/search/text"`) {
		t.Fatalf("expected selected tab remembered")
	}
}

func TestSession_RefreshesCookieOnEveryRequest(t *testing.T) {
	b := &browser{t: t, engine: newTestEngine(&testSearcher{})}

	first := b.get("/?tab=form")
	issued := sessionCookie(first)
	if issued == nil {
		t.Fatalf("expected session cookie on first state change")
	}

	for _, path := range []string{"/", "/api/v1/search/state"} {
		w := b.get(path)
		refreshed := sessionCookie(w)
		if refreshed == nil {
			t.Fatalf("expected %s to refresh the session cookie", path)
		}
		if refreshed.Value != issued.Value {
			t.Fatalf("expected same session id, got %q then %q", issued.Value, refreshed.Value)
		}
		if refreshed.MaxAge != int(time.Hour.Seconds()) {
			t.Fatalf("expected Max-Age reset to the TTL, got %d", refreshed.MaxAge)
		}
	}
}

func TestPostText_RateLimitedRedirectsToTab(t *testing.T) {
	searcher := &testSearcher{rows: map[string][]transport.Vehicle{
		transport.EndpointStringSearch: {vehicle("A")},
	}}
	limiter := httpkit.NewPerMinuteLimiter(0, 1, logger.Discard())
	engine, _ := newTestEngineWithStore(searcher, limiter.RateLimitWith(RedirectWhenLimited))
	b := &browser{t: t, engine: engine}

	b.postForm("/search/text", url.Values{"search": {"a"}})
	w := b.postForm("/search/text", url.Values{"search": {"b"}})

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 when limited, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/?tab=text" {
		t.Fatalf("expected redirect to text tab, got %s", loc)
	}
	if len(searcher.calls) != 1 {
		t.Fatalf("expected limited post not to search, got %d calls", len(searcher.calls))
	}
}

func TestAPI_MalformedBodyIsBadRequest(t *testing.T) {
	b := &browser{t: t, engine: newTestEngine(&testSearcher{})}

	w := b.sendJSON(http.MethodPost, "/api/v1/search/text", `{"search":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error != msgInvalidRequest {
		t.Fatalf("expected %q, got %q", msgInvalidRequest, resp.Error)
	}
}
