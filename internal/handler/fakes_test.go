package handler_test

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"laekning/internal/domain/model"
	infrasession "laekning/internal/infra/session"
	"laekning/internal/middleware"
	repo "laekning/internal/repository"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// =====================
// in-memory repositories
// =====================

type memProductRepo struct {
	mu       sync.Mutex
	products []model.Product
}

func newMemProductRepo(ps ...model.Product) *memProductRepo {
	return &memProductRepo{products: ps}
}

func (r *memProductRepo) ListByCategory(_ context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []model.Product
	for _, p := range r.products {
		if p.Category == q.Category {
			matched = append(matched, p)
		}
	}
	start := (q.Page - 1) * q.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return append([]model.Product{}, matched[start:end]...), int64(len(matched)), nil
}

func (r *memProductRepo) FindByID(_ context.Context, id int64) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Product{}, repo.ErrNotFound
}

func (r *memProductRepo) FindByIDs(_ context.Context, ids []int64) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := []model.Product{}
	for _, p := range r.products {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memProductRepo) Categories(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]struct{}{}
	var out []string
	for _, p := range r.products {
		if _, ok := seen[p.Category]; !ok {
			seen[p.Category] = struct{}{}
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *memProductRepo) ListNames(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p.Name)
	}
	return out, nil
}

func (r *memProductRepo) FindByNames(_ context.Context, names []string, limit int) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := map[string]struct{}{}
	for _, n := range names {
		want[strings.ToLower(n)] = struct{}{}
	}
	out := []model.Product{}
	for _, p := range r.products {
		if _, ok := want[strings.ToLower(p.Name)]; ok {
			out = append(out, p)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memProductRepo) ExistsLike(_ context.Context, term string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := strings.ToLower(term)
	for _, p := range r.products {
		if strings.Contains(strings.ToLower(p.Name), t) || strings.Contains(strings.ToLower(p.Description), t) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memProductRepo) RandomDescriptions(_ context.Context, n int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := rand.Perm(len(r.products))
	out := []string{}
	for _, i := range idx {
		if len(out) == n {
			break
		}
		out = append(out, r.products[i].Description)
	}
	return out, nil
}

func (r *memProductRepo) Create(_ context.Context, p model.Product) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = int64(len(r.products) + 1)
	r.products = append(r.products, p)
	return p, nil
}

func (r *memProductRepo) Update(_ context.Context, p model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.products {
		if r.products[i].ID == p.ID {
			r.products[i] = p
			return nil
		}
	}
	return repo.ErrNotFound
}

func (r *memProductRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.products {
		if r.products[i].ID == id {
			r.products = append(r.products[:i], r.products[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

type memOrderRepo struct {
	mu     sync.Mutex
	orders []model.Order
}

func (r *memOrderRepo) FindByID(_ context.Context, id int64) (model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return model.Order{}, repo.ErrNotFound
}

func (r *memOrderRepo) Save(_ context.Context, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == 0 {
		o.ID = int64(len(r.orders) + 1)
		r.orders = append(r.orders, *o)
		return nil
	}
	for i := range r.orders {
		if r.orders[i].ID == o.ID {
			r.orders[i] = *o
			return nil
		}
	}
	return repo.ErrNotFound
}

func (r *memOrderRepo) List(_ context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Order{}
	for i := len(r.orders) - 1; i >= 0; i-- {
		o := r.orders[i]
		if f.Shipped != nil && o.Shipped != *f.Shipped {
			continue
		}
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (r *memOrderRepo) MarkShipped(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.orders {
		if r.orders[i].ID == id {
			r.orders[i].Shipped = true
			return nil
		}
	}
	return repo.ErrNotFound
}

func (r *memOrderRepo) RecentProductDescriptions(_ context.Context, n int) ([]string, error) {
	return []string{}, nil
}

type memAuditRepo struct {
	mu   sync.Mutex
	logs []model.AuditLog
}

func (r *memAuditRepo) Create(_ context.Context, l model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.ID = int64(len(r.logs) + 1)
	r.logs = append(r.logs, l)
	return nil
}

func (r *memAuditRepo) List(_ context.Context, f repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.AuditLog{}
	for _, l := range r.logs {
		if f.Action != nil && l.Action != *f.Action {
			continue
		}
		if f.ResourceType != nil && l.ResourceType != *f.ResourceType {
			continue
		}
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

// Txはそのまま同じrepoで実行する
type memTx struct {
	orders   repo.OrderRepository
	products repo.ProductRepository
	audit    repo.AuditLogRepository
}

func (t *memTx) Orders() repo.OrderRepository       { return t.orders }
func (t *memTx) Products() repo.ProductRepository   { return t.products }
func (t *memTx) AuditLogs() repo.AuditLogRepository { return t.audit }

func (t *memTx) WithinTx(_ context.Context, fn func(r repo.TxRepos) error) error {
	return fn(t)
}

// =====================
// ports
// =====================

type stubChat struct {
	reply string
	err   error
}

func (s stubChat) Complete(context.Context, string, string) (string, error) {
	return s.reply, s.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, ev model.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

type stubBlobs struct {
	uploaded []string
	deleted  []string
}

func (b *stubBlobs) Upload(_ context.Context, name string, r io.Reader, _ int64, _ string) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	b.uploaded = append(b.uploaded, name)
	return "http://blob.local/prescriptions/" + name, nil
}

func (b *stubBlobs) Delete(_ context.Context, name string) error {
	b.deleted = append(b.deleted, name)
	return nil
}

type stubAnalyzer struct {
	fields map[string]string
	found  bool
}

func (a stubAnalyzer) Analyze(context.Context, string) (map[string]string, bool, error) {
	return a.fields, a.found, nil
}

type fixedClock struct{}

func (fixedClock) Now() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

type seqIDs struct{}

func (seqIDs) NewID() string { return "00000000-0000-4000-8000-000000000001" }

// =====================
// helpers
// =====================

func catalog() []model.Product {
	return []model.Product{
		{ID: 1, Name: "P1", Description: "Pain relief", Category: "Cat1", Price: decimal.NewFromInt(100)},
		{ID: 2, Name: "P2", Description: "Vitamins", Category: "Cat2", Price: decimal.NewFromInt(50)},
		{ID: 3, Name: "P3", Description: "Cold", Category: "Cat1", Price: decimal.NewFromInt(10)},
		{ID: 4, Name: "P4", Description: "Allergy", Category: "Cat1", Price: decimal.NewFromInt(20)},
		{ID: 5, Name: "P5", Description: "Sleep", Category: "Cat1", Price: decimal.NewFromInt(30)},
		{ID: 6, Name: "Aspirin", Description: "Pain relief tablets", Category: "Cat1", Price: decimal.RequireFromString("9.99")},
	}
}

// cookieセッション付きのecho
func newSessionEcho(t *testing.T) *echo.Echo {
	t.Helper()
	p, err := infrasession.NewCookieProvider("test-session-secret", 30*time.Minute, false)
	require.NoError(t, err)

	e := echo.New()
	e.Use(middleware.Session(p))
	return e
}

// cookieを引き継ぐクライアント
type client struct {
	t       *testing.T
	e       *echo.Echo
	cookies []*http.Cookie
}

func (cl *client) do(req *http.Request) *httptest.ResponseRecorder {
	cl.t.Helper()
	for _, c := range cl.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	cl.e.ServeHTTP(rec, req)
	if set := rec.Result().Cookies(); len(set) > 0 {
		cl.cookies = set
	}
	return rec
}

func (cl *client) get(path string) *httptest.ResponseRecorder {
	return cl.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (cl *client) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return cl.do(req)
}

func (cl *client) postForm(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return cl.do(req)
}
