package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"cashly/internal/auth"
	"cashly/internal/core"
	"cashly/internal/log"
	"cashly/internal/storage/memory"
)

const (
	aliceEmail = "alice@example.com"
	bobEmail   = "bob@example.com"
	password   = "correct horse"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []core.ChangeEvent
}

func (p *recordingPublisher) PublishChange(_ context.Context, ev core.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		keys = append(keys, ev.RoutingKey())
	}
	return keys
}

type testCategory struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color"`
}

type testExpense struct {
	ID              uuid.UUID     `json:"id"`
	Amount          json.Number   `json:"amount"`
	RealisedDate    string        `json:"realised_date"`
	ExpenseCategory *testCategory `json:"expense_category"`
}

type ServerTestSuite struct {
	suite.Suite
	srv    *Server
	events *recordingPublisher
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) SetupTest() {
	store := memory.New()
	ctx := context.Background()
	for _, email := range []string{aliceEmail, bobEmail} {
		_, err := auth.CreateUser(ctx, store, email, password)
		s.Require().NoError(err)
	}

	s.events = &recordingPublisher{}
	logger := log.New(log.Config{Output: io.Discard, Component: log.ComponentApp})
	s.srv = NewServer(Config{Addr: ":0", RateLimitPerMinute: 1000, AuthCacheTTL: time.Minute}, store, s.events, logger)
}

func (s *ServerTestSuite) TearDownTest() {
	s.srv.StopBackground()
}

func (s *ServerTestSuite) do(method, path, email, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if email != "" {
		req.SetBasicAuth(email, password)
	}
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func (s *ServerTestSuite) decode(rr *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func (s *ServerTestSuite) message(rr *httptest.ResponseRecorder) string {
	var m messageResponse
	s.decode(rr, &m)
	return m.Message
}

func (s *ServerTestSuite) createCategory(email, name string) testCategory {
	rr := s.do(http.MethodPost, "/expense-categories/", email, `{"name":"`+name+`","color":"#ff0000"}`)
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	var c testCategory
	s.decode(rr, &c)
	return c
}

func (s *ServerTestSuite) createExpense(email, body string) testExpense {
	rr := s.do(http.MethodPost, "/expenses/", email, body)
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	var e testExpense
	s.decode(rr, &e)
	return e
}

func (s *ServerTestSuite) assertAmount(expected int64, got json.Number) {
	d, err := decimal.NewFromString(got.String())
	s.Require().NoError(err)
	s.True(d.Equal(decimal.NewFromInt(expected)), "amount %s", got)
}

func (s *ServerTestSuite) TestHealthAndReady() {
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := s.do(http.MethodGet, path, "", "")
		s.Equal(http.StatusOK, rr.Code, path)
	}
}

func (s *ServerTestSuite) TestAuthentication() {
	rr := s.do(http.MethodGet, "/expenses/", "", "")
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.Contains(rr.Header().Get("WWW-Authenticate"), "Basic")
	s.Equal("authentication required", s.message(rr))

	req := httptest.NewRequest(http.MethodGet, "/expenses/", nil)
	req.SetBasicAuth(aliceEmail, "wrong password")
	rr = httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rr, req)
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.Equal("invalid credentials", s.message(rr))

	rr = s.do(http.MethodGet, "/expenses/", aliceEmail, "")
	s.Equal(http.StatusOK, rr.Code)
	s.JSONEq(`[]`, rr.Body.String())
}

func (s *ServerTestSuite) TestMiddlewareHeaders() {
	rr := s.do(http.MethodGet, "/healthz", "", "")
	s.NotEmpty(rr.Header().Get("X-Request-ID"))
	s.Equal("nosniff", rr.Header().Get("X-Content-Type-Options"))
	s.Equal("application/json", rr.Header().Get("Content-Type"))
}

func (s *ServerTestSuite) TestCategoryLifecycle() {
	created := s.createCategory(aliceEmail, "Food")
	s.Equal("Food", created.Name)
	s.Equal("#ff0000", created.Color)

	rr := s.do(http.MethodPost, "/expense-categories/", aliceEmail, `{"name":"Food","color":"#00ff00"}`)
	s.Equal(StatusDomainError, rr.Code)
	s.Equal("You have tried create expense category name but name is already used", s.message(rr))

	rr = s.do(http.MethodGet, "/expense-categories/"+created.ID.String()+"/", aliceEmail, "")
	s.Require().Equal(http.StatusOK, rr.Code)
	var got testCategory
	s.decode(rr, &got)
	s.Equal(created, got)

	s.createCategory(aliceEmail, "Bills")
	rr = s.do(http.MethodGet, "/expense-categories/", aliceEmail, "")
	s.Require().Equal(http.StatusOK, rr.Code)
	var list []testCategory
	s.decode(rr, &list)
	s.Require().Len(list, 2)
	s.Equal("Bills", list[0].Name)

	rr = s.do(http.MethodPut, "/expense-categories/"+created.ID.String()+"/", aliceEmail, `{"name":"Bills","color":"#000"}`)
	s.Equal(StatusDomainError, rr.Code)
	s.Equal("You have tried update expense category name but name is already used", s.message(rr))

	rr = s.do(http.MethodPut, "/expense-categories/"+created.ID.String()+"/", aliceEmail, `{"name":"Groceries","color":"#000"}`)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.decode(rr, &got)
	s.Equal("Groceries", got.Name)

	rr = s.do(http.MethodDelete, "/expense-categories/"+created.ID.String()+"/", aliceEmail, "")
	s.Require().Equal(http.StatusOK, rr.Code)
	s.decode(rr, &got)
	s.Equal(created.ID, got.ID)

	rr = s.do(http.MethodGet, "/expense-categories/"+created.ID.String()+"/", aliceEmail, "")
	s.Equal(StatusDomainError, rr.Code)
	s.Equal("You have tried get expense category but is not found", s.message(rr))

	s.Equal([]string{
		"expense_category.created",
		"expense_category.created",
		"expense_category.updated",
		"expense_category.deleted",
	}, s.events.keys())
}

func (s *ServerTestSuite) TestCategoryNotFoundMessages() {
	missing := uuid.NewString()

	rr := s.do(http.MethodPut, "/expense-categories/"+missing+"/", aliceEmail, `{"name":"X","color":"#fff"}`)
	s.Equal(StatusDomainError, rr.Code)
	s.Equal("Próbujesz edytować kategorię wydatku, która nie istnieje", s.message(rr))

	rr = s.do(http.MethodDelete, "/expense-categories/not-a-uuid/", aliceEmail, "")
	s.Equal(StatusDomainError, rr.Code)
	s.Equal("You have tried delete expense category but is not found", s.message(rr))
}

func (s *ServerTestSuite) TestCategoryValidation() {
	rr := s.do(http.MethodPost, "/expense-categories/", aliceEmail, `{"name":"  ","color":"#fff"}`)
	s.Equal(http.StatusUnprocessableEntity, rr.Code)

	rr = s.do(http.MethodPost, "/expense-categories/", aliceEmail, `{"name":"Food","color":"red"}`)
	s.Equal(http.StatusUnprocessableEntity, rr.Code)

	rr = s.do(http.MethodPost, "/expense-categories/", aliceEmail, `{"name":`)
	s.Equal(http.StatusBadRequest, rr.Code)

	rr = s.do(http.MethodPost, "/expense-categories/", aliceEmail, "")
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *ServerTestSuite) TestExpenseRoundTrip() {
	created := s.createExpense(aliceEmail, `{"amount":1000,"realised_date":"2021-11-19"}`)
	s.assertAmount(1000, created.Amount)
	s.Equal("2021-11-19", created.RealisedDate)
	s.Nil(created.ExpenseCategory)

	path := "/expenses/" + created.ID.String() + "/"
	rr := s.do(http.MethodGet, path, aliceEmail, "")
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), `"expense_category":null`)
	var got testExpense
	s.decode(rr, &got)
	s.assertAmount(1000, got.Amount)
	s.Equal("2021-11-19", got.RealisedDate)

	rr = s.do(http.MethodPut, path, aliceEmail, `{"amount":500,"realised_date":"2021-11-20"}`)
	s.Require().Equal(http.StatusOK, rr.Code)

	rr = s.do(http.MethodGet, path, aliceEmail, "")
	s.Require().Equal(http.StatusOK, rr.Code)
	s.decode(rr, &got)
	s.assertAmount(500, got.Amount)
	s.Equal("2021-11-20", got.RealisedDate)
}

func (s *ServerTestSuite) TestExpenseScientificAmount() {
	e := s.createExpense(aliceEmail, `{"amount":1e3,"realised_date":"2024-05-01"}`)
	s.assertAmount(1000, e.Amount)

	e = s.createExpense(aliceEmail, `{"amount":1.5E2,"realised_date":"2024-05-01"}`)
	s.assertAmount(150, e.Amount)

	rr := s.do(http.MethodPost, "/expenses/", aliceEmail, `{"amount":1e-5,"realised_date":"2024-05-01"}`)
	s.Equal(http.StatusUnprocessableEntity, rr.Code)
}

func (s *ServerTestSuite) TestExpenseWithCategory() {
	cat := s.createCategory(aliceEmail, "Food")

	e := s.createExpense(aliceEmail, `{"amount":"12.50","realised_date":"2024-03-01","expense_category_id":"`+cat.ID.String()+`"}`)
	s.Require().NotNil(e.ExpenseCategory)
	s.Equal(cat.ID, e.ExpenseCategory.ID)
	s.Equal("Food", e.ExpenseCategory.Name)

	rr := s.do(http.MethodPost, "/expenses/", aliceEmail, `{"amount":1,"realised_date":"2024-03-01","expense_category_id":"`+uuid.NewString()+`"}`)
	s.Equal(StatusDomainError, rr.Code)
	s.Equal("You have tried create expense but expense category id is not found", s.message(rr))

	rr = s.do(http.MethodPost, "/expenses/", aliceEmail, `{"amount":1,"realised_date":"2024-03-01","expense_category_id":"junk"}`)
	s.Equal(StatusDomainError, rr.Code)

	path := "/expenses/" + e.ID.String() + "/"
	rr = s.do(http.MethodPut, path, aliceEmail, `{"amount":1,"realised_date":"2024-03-01","expense_category_id":"`+uuid.NewString()+`"}`)
	s.Equal(StatusDomainError, rr.Code)
	s.Equal("Kategoria wydatku nie istnieje", s.message(rr))

	// Deleting the category leaves the expense uncategorised.
	rr = s.do(http.MethodDelete, "/expense-categories/"+cat.ID.String()+"/", aliceEmail, "")
	s.Require().Equal(http.StatusOK, rr.Code)
	rr = s.do(http.MethodGet, path, aliceEmail, "")
	s.Require().Equal(http.StatusOK, rr.Code)
	var got testExpense
	s.decode(rr, &got)
	s.Nil(got.ExpenseCategory)
}

func (s *ServerTestSuite) TestExpenseNotFoundMessages() {
	path := "/expenses/" + uuid.NewString() + "/"

	rr := s.do(http.MethodGet, path, aliceEmail, "")
	s.Equal(StatusDomainError, rr.Code)
	s.Equal("You have tried get expense but is not found", s.message(rr))

	rr = s.do(http.MethodPut, path, aliceEmail, `{"amount":1,"realised_date":"2024-03-01"}`)
	s.Equal(StatusDomainError, rr.Code)
	s.Equal("Próbujesz edytować wydatek, który nie istnieje", s.message(rr))

	rr = s.do(http.MethodDelete, path, aliceEmail, "")
	s.Equal(StatusDomainError, rr.Code)
	s.Equal("You have tried delete expense but is not found", s.message(rr))

	rr = s.do(http.MethodGet, "/expenses/42/", aliceEmail, "")
	s.Equal(StatusDomainError, rr.Code)
}

func (s *ServerTestSuite) TestExpenseValidation() {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"zero amount", `{"amount":0,"realised_date":"2024-01-01"}`, http.StatusUnprocessableEntity},
		{"negative amount", `{"amount":-5,"realised_date":"2024-01-01"}`, http.StatusUnprocessableEntity},
		{"missing amount", `{"realised_date":"2024-01-01"}`, http.StatusUnprocessableEntity},
		{"bad date", `{"amount":5,"realised_date":"01/01/2024"}`, http.StatusUnprocessableEntity},
		{"amount wrong type", `{"amount":true,"realised_date":"2024-01-01"}`, http.StatusBadRequest},
		{"not json", `amount=5`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		rr := s.do(http.MethodPost, "/expenses/", aliceEmail, tt.body)
		s.Equal(tt.code, rr.Code, tt.name)
	}
}

func (s *ServerTestSuite) TestDeleteExpenseReturnsRecord() {
	e := s.createExpense(aliceEmail, `{"amount":7.25,"realised_date":"2024-02-02"}`)
	path := "/expenses/" + e.ID.String() + "/"

	rr := s.do(http.MethodDelete, path, aliceEmail, "")
	s.Require().Equal(http.StatusOK, rr.Code)
	var got testExpense
	s.decode(rr, &got)
	s.Equal(e.ID, got.ID)

	rr = s.do(http.MethodGet, path, aliceEmail, "")
	s.Equal(StatusDomainError, rr.Code)

	s.Equal([]string{"expense.created", "expense.deleted"}, s.events.keys())
}

func (s *ServerTestSuite) TestUserScoping() {
	cat := s.createCategory(aliceEmail, "Food")
	e := s.createExpense(aliceEmail, `{"amount":3,"realised_date":"2024-02-02"}`)

	rr := s.do(http.MethodGet, "/expenses/", bobEmail, "")
	s.Require().Equal(http.StatusOK, rr.Code)
	s.JSONEq(`[]`, rr.Body.String())

	rr = s.do(http.MethodGet, "/expenses/"+e.ID.String()+"/", bobEmail, "")
	s.Equal(StatusDomainError, rr.Code)

	rr = s.do(http.MethodPost, "/expenses/", bobEmail, `{"amount":3,"realised_date":"2024-02-02","expense_category_id":"`+cat.ID.String()+`"}`)
	s.Equal(StatusDomainError, rr.Code)

	// Names are unique per user only.
	s.createCategory(bobEmail, "Food")
}

func (s *ServerTestSuite) TestExpenseListOrder() {
	s.createExpense(aliceEmail, `{"amount":1,"realised_date":"2024-01-01"}`)
	s.createExpense(aliceEmail, `{"amount":2,"realised_date":"2024-03-01"}`)

	rr := s.do(http.MethodGet, "/expenses/", aliceEmail, "")
	s.Require().Equal(http.StatusOK, rr.Code)
	var list []testExpense
	s.decode(rr, &list)
	s.Require().Len(list, 2)
	s.Equal("2024-03-01", list[0].RealisedDate)
}

func (s *ServerTestSuite) TestMethodNotAllowed() {
	rr := s.do(http.MethodPatch, "/expenses/", aliceEmail, `{}`)
	s.Equal(http.StatusMethodNotAllowed, rr.Code)

	rr = s.do("TRACE", "/healthz", "", "")
	s.Equal(http.StatusMethodNotAllowed, rr.Code)
}

func (s *ServerTestSuite) TestMetrics() {
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/expenses/", aliceEmail, "").Code)
	s.Require().Equal(http.StatusMethodNotAllowed, s.do("TRACE", "/healthz", "", "").Code)

	rr := s.do(http.MethodGet, "/metrics", "", "")
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Header().Get("Content-Type"), "text/plain")

	body := rr.Body.String()
	s.Contains(body, "# TYPE http_requests_total counter")
	s.Contains(body, "http_requests_total 3\n")
	s.Contains(body, "http_server_errors_total 0\n")
	s.Contains(body, "security_blocked_requests_total 1\n")
	s.Contains(body, "rate_limit_hits_total 0\n")
	s.Contains(body, "# TYPE auth_cache_entries gauge")
	s.Contains(body, "auth_cache_entries 1\n")
	s.Contains(body, "uptime_seconds ")
}

func TestRateLimitOnWrites(t *testing.T) {
	store := memory.New()
	_, err := auth.CreateUser(context.Background(), store, aliceEmail, password)
	require.NoError(t, err)

	logger := log.New(log.Config{Output: io.Discard})
	srv := NewServer(Config{Addr: ":0", RateLimitPerMinute: 1, AuthCacheTTL: time.Minute}, store, nil, logger)
	defer srv.StopBackground()

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/expense-categories/", strings.NewReader(`{"name":"A`+uuid.NewString()[:4]+`","color":"#fff"}`))
		req.SetBasicAuth(aliceEmail, password)
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusCreated, post().Code)
	rr := post()
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Contains(t, rr.Body.String(), "rate limit exceeded")

	// Reads are not limited.
	req := httptest.NewRequest(http.MethodGet, "/expense-categories/", nil)
	req.SetBasicAuth(aliceEmail, password)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTrustedProxyForwardedClients(t *testing.T) {
	store := memory.New()
	_, err := auth.CreateUser(context.Background(), store, aliceEmail, password)
	require.NoError(t, err)

	logger := log.New(log.Config{Output: io.Discard})
	srv := NewServer(Config{
		Addr:               ":0",
		RateLimitPerMinute: 1,
		AuthCacheTTL:       time.Minute,
		TrustedProxies:     []string{"192.0.2.0/24", "not-a-cidr"},
	}, store, nil, logger)
	defer srv.StopBackground()

	post := func(forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/expense-categories/", strings.NewReader(`{"name":"A`+uuid.NewString()[:4]+`","color":"#fff"}`))
		req.RemoteAddr = "192.0.2.10:4000"
		req.Header.Set("X-Forwarded-For", forwardedFor)
		req.SetBasicAuth(aliceEmail, password)
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusCreated, post("203.0.113.1"))
	assert.Equal(t, http.StatusCreated, post("203.0.113.2"))
	assert.Equal(t, http.StatusTooManyRequests, post("203.0.113.1"))
}

func TestDomainMessageFallback(t *testing.T) {
	msg, ok := domainMessage(opListExpenses, core.ErrExpenseNotFound)
	assert.True(t, ok)
	assert.Equal(t, core.ErrExpenseNotFound.Error(), msg)

	_, ok = domainMessage(opGetExpense, io.EOF)
	assert.False(t, ok)
}
