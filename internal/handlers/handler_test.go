// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL is unavailable.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"golang.org/x/crypto/bcrypt"

	"pocketratings/internal/auth"
	"pocketratings/internal/cache"
	"pocketratings/internal/database"
	"pocketratings/internal/listcache"
	"pocketratings/internal/middleware"
	"pocketratings/internal/store"
)

const (
	testSecret    = "handler-test-secret-0123456789abcdef"
	testPassword  = "correct horse"
	testTTL       = 30 * 24 * time.Hour
	testThreshold = 7 * 24 * time.Hour
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "pocketratings")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "pocketratings")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	t      *testing.T
	DB     *sql.DB
	Tag    string
	Stores Stores
	Lists  *listcache.Cache
	Codec  *auth.Codec
	API    *API
	Router chi.Router

	// User is the default caller; Token authenticates as User.
	User  uuid.UUID
	Token string
}

// newTestEnv creates a complete test environment with a fresh user.
// Every row it creates carries the env's tag and is removed afterwards.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	stores := Stores{
		Categories: store.NewCategoryStore(db),
		Products:   store.NewProductStore(db),
		Locations:  store.NewLocationStore(db),
		Reviews:    store.NewReviewStore(db),
		Purchases:  store.NewPurchaseStore(db),
		Users:      store.NewUserStore(db),
	}
	lists := listcache.New()
	codec := auth.NewCodec([]byte(testSecret), testTTL)
	hasher := auth.NewHasher(bcrypt.MinCost)
	invalidator := cache.NewInvalidator(lists, store.NewCacheLogStore(db), nil)
	api := NewAPI(stores, lists, invalidator, codec, hasher, "test-version")

	env := &testEnv{
		t:      t,
		DB:     db,
		Tag:    uuid.NewString()[:8],
		Stores: stores,
		Lists:  lists,
		Codec:  codec,
		API:    api,
	}
	env.Router = env.routes(auth.NewGuard(codec, testThreshold))
	t.Cleanup(env.cleanup)

	env.User, env.Token = env.newUser("Tester")
	return env
}

// routes mirrors the production route table.
func (e *testEnv) routes(guard *auth.Guard) chi.Router {
	a := e.API
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", a.Login)
		r.Get("/version", a.Version)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireToken(guard))
			r.Get("/me", a.Me)
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", a.ListCategories)
				r.Post("/", a.CreateCategory)
				r.Get("/{id}", a.GetCategory)
				r.Patch("/{id}", a.UpdateCategory)
				r.Delete("/{id}", a.DeleteCategory)
			})
			r.Route("/products", func(r chi.Router) {
				r.Get("/", a.ListProducts)
				r.Post("/", a.CreateProduct)
				r.Get("/{id}", a.GetProduct)
				r.Patch("/{id}", a.UpdateProduct)
				r.Delete("/{id}", a.DeleteProduct)
			})
			r.Route("/locations", func(r chi.Router) {
				r.Get("/", a.ListLocations)
				r.Post("/", a.CreateLocation)
				r.Get("/{id}", a.GetLocation)
				r.Patch("/{id}", a.UpdateLocation)
				r.Delete("/{id}", a.DeleteLocation)
			})
			r.Route("/reviews", func(r chi.Router) {
				r.Get("/", a.ListReviews)
				r.Post("/", a.CreateReview)
				r.Get("/{id}", a.GetReview)
				r.Patch("/{id}", a.UpdateReview)
				r.Delete("/{id}", a.DeleteReview)
			})
			r.Route("/purchases", func(r chi.Router) {
				r.Get("/", a.ListPurchases)
				r.Post("/", a.CreatePurchase)
				r.Get("/{id}", a.GetPurchase)
				r.Patch("/{id}", a.UpdatePurchase)
				r.Delete("/{id}", a.DeletePurchase)
			})
		})
	})
	return r
}

func (e *testEnv) name(base string) string {
	return base + "-" + e.Tag
}

// newUser creates a user with testPassword and returns a token for it.
func (e *testEnv) newUser(base string) (uuid.UUID, string) {
	e.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		e.t.Fatalf("hash: %v", err)
	}
	u, err := e.Stores.Users.Create(e.t.Context(), e.name(base), e.email(base), string(hash))
	if err != nil {
		e.t.Fatalf("create user: %v", err)
	}
	token, _, err := e.Codec.Issue(u.ID, time.Now())
	if err != nil {
		e.t.Fatalf("issue: %v", err)
	}
	return u.ID, token
}

func (e *testEnv) email(base string) string {
	return e.name(base) + "@example.com"
}

func (e *testEnv) cleanup() {
	like := "%-" + e.Tag
	db := e.DB
	db.Exec(`DELETE FROM purchases WHERE user_id IN (SELECT id FROM users WHERE name LIKE $1)`, like)
	db.Exec(`DELETE FROM reviews WHERE user_id IN (SELECT id FROM users WHERE name LIKE $1)`, like)
	db.Exec(`DELETE FROM products WHERE name LIKE $1`, like)
	db.Exec(`DELETE FROM locations WHERE name LIKE $1`, like)
	db.Exec(`DELETE FROM users WHERE name LIKE $1`, like)
	for range 10 {
		res, _ := db.Exec(`
			DELETE FROM categories c WHERE c.name LIKE $1
			AND NOT EXISTS (SELECT 1 FROM categories k WHERE k.parent_id = c.id)`, like)
		if res == nil {
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return
		}
	}
}

// do sends a request through the router. body is JSON-encoded unless it
// is already a string.
func (e *testEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			e.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.Router.ServeHTTP(rr, req)
	return rr
}

// as sends a request as the default user.
func (e *testEnv) as(method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	return e.do(method, path, body, e.Token)
}

// decode unmarshals a response body, failing the test on bad status.
func decode[T any](t *testing.T, rr *httptest.ResponseRecorder, wantStatus int) T {
	t.Helper()
	var v T
	if rr.Code != wantStatus {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, wantStatus, rr.Body.String())
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return v
}

// expectError checks status and error code of an error envelope.
func expectError(t *testing.T, rr *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	body := decode[errorResponse](t, rr, wantStatus)
	if body.Error != wantCode {
		t.Errorf("error code: got %q, want %q (message %q)", body.Error, wantCode, body.Message)
	}
}

// Fixture helpers go through the API so they exercise invalidation too.

func (e *testEnv) category(name string, parent *uuid.UUID) categoryResponse {
	e.t.Helper()
	return decode[categoryResponse](e.t, e.as(http.MethodPost, "/api/v1/categories",
		map[string]any{"name": e.name(name), "parent_id": parent}), http.StatusCreated)
}

func (e *testEnv) product(categoryID uuid.UUID, brand, name string) productResponse {
	e.t.Helper()
	return decode[productResponse](e.t, e.as(http.MethodPost, "/api/v1/products",
		map[string]any{"category_id": categoryID, "brand": brand, "name": e.name(name)}), http.StatusCreated)
}

func (e *testEnv) location(name string) locationResponse {
	e.t.Helper()
	return decode[locationResponse](e.t, e.as(http.MethodPost, "/api/v1/locations",
		map[string]any{"name": e.name(name)}), http.StatusCreated)
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
