package middleware

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/AgusMolinaCode/CSE_Portfolio/internal/analytics"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/catalog"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/database"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/metrics"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/models"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/realtime"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/repository"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	svix "github.com/svix/svix-webhooks/go"
)

const (
	testAdminKey = "admin-key"
	testSecret   = "test-secret"
)

var testWebhookSecret = "whsec_" + base64.StdEncoding.EncodeToString([]byte("clerk-webhook-signing-key"))

type staticProvider struct {
	quotes []services.RawQuote
	err    error
}

func (p *staticProvider) Name() string { return "static" }

func (p *staticProvider) FetchQuotes(ctx context.Context) ([]services.RawQuote, error) {
	return p.quotes, p.err
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]models.Stock{
		{Symbol: "ATW", Name: "ATTIJARIWAFA BANK", Sector: "Banque"},
		{Symbol: "IAM", Name: "MAROC TELECOM", Sector: "Télécommunications"},
		{Symbol: "LHM", Name: "LAFARGEHOLCIM MAROC", Sector: "Matériaux de construction"},
	})
	require.NoError(t, err)
	return c
}

type testEnv struct {
	router   *gin.Engine
	db       *sqlx.DB
	provider *staticProvider
	metrics  *metrics.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect("sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	provider := &staticProvider{quotes: []services.RawQuote{
		{Symbol: "ATW", Price: decimal.NewFromInt(500)},
		{Symbol: "IAM", Price: decimal.NewFromInt(100)},
		{Symbol: "LHM", Price: decimal.NewFromInt(1800)},
	}}
	reg := metrics.New()
	hub := realtime.NewHub(reg)
	t.Cleanup(hub.Close)
	qs := services.NewQuoteService(services.QuoteServiceConfig{
		Catalog:   testCatalog(t),
		Providers: []services.Provider{provider},
		Store:     repository.NewQuoteSnapshotRepository(db),
		Hub:       hub,
		Metrics:   reg,
	})

	InitAuth(db, testSecret)
	InitClerk("", testWebhookSecret)
	InitAdmin(testAdminKey)
	InitPortfolios(db)
	InitQuotes(qs, hub, reg, 0.03)
	SetPriceUpdater(nil)

	router := gin.New()
	router.GET("/health", Health)
	router.GET("/", DashboardPage)
	router.POST("/dashboard", DashboardSubmit)
	router.POST("/signup", Signup)
	router.POST("/login", Login)
	router.POST("/webhooks/clerk", ClerkWebhookHandler)
	router.GET("/api/stocks", GetStocks)
	router.GET("/api/quotes", GetQuotes)
	router.GET("/api/quotes/:symbol", GetQuote)
	router.POST("/api/portfolio/analyze", AnalyzePortfolio)

	protected := router.Group("/")
	protected.Use(AuthMiddleware())
	protected.GET("/me", GetProfile)
	protected.PUT("/users", UpdateUser)
	protected.DELETE("/users", DeleteUser)
	protected.POST("/portfolios", CreatePortfolio)
	protected.GET("/portfolios", GetPortfolios)
	protected.GET("/portfolios/:id", GetPortfolio)
	protected.PUT("/portfolios/:id", UpdatePortfolio)
	protected.DELETE("/portfolios/:id", DeletePortfolio)
	protected.GET("/portfolios/:id/analysis", GetPortfolioAnalysis)
	protected.GET("/portfolios/:id/history", GetPortfolioHistory)

	admin := router.Group("/admin")
	admin.Use(AdminAuth())
	admin.GET("/users", GetUsers)
	admin.DELETE("/users/:id", DeleteUserByAdmin)
	admin.POST("/quotes/refresh", RefreshQuotes)

	return &testEnv{router: router, db: db, provider: provider, metrics: reg}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}

// signup registra un usuario y devuelve su token y su id.
func (e *testEnv) signup(t *testing.T, email string) (string, string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/signup", gin.H{"email": email, "password": "secret123", "name": "Test"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token, resp.User.ID
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestSignupAndLogin(t *testing.T) {
	env := newTestEnv(t)
	token, id := env.signup(t, "amina@example.com")

	w := env.do(t, http.MethodPost, "/signup", gin.H{"email": "Amina@example.com", "password": "secret123", "name": "Other"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/login", gin.H{"email": "amina@example.com", "password": "wrong-password"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/login", gin.H{"email": "nobody@example.com", "password": "secret123"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/login", gin.H{"email": "amina@example.com", "password": "secret123"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	w = env.do(t, http.MethodGet, "/me", nil, bearer(token))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id)
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/signup", gin.H{"email": "not-an-email", "password": "secret123", "name": "Test"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/signup", gin.H{"email": "a@example.com", "password": "123", "name": "Test"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/portfolios", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/portfolios", nil, bearer("garbage"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	jwtSecret = []byte("another-secret")
	forged, err := GenerateToken("someone")
	require.NoError(t, err)
	jwtSecret = []byte(testSecret)

	w = env.do(t, http.MethodGet, "/portfolios", nil, bearer(forged))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareFallsBackToClerk(t *testing.T) {
	env := newTestEnv(t)

	original := verifyClerkToken
	t.Cleanup(func() {
		verifyClerkToken = original
		clerkEnabled = false
	})
	clerkEnabled = true
	verifyClerkToken = func(ctx context.Context, token string) (string, error) {
		if token != "clerk-session" {
			return "", errors.New("bad session")
		}
		return "user_clerk", nil
	}

	w := env.do(t, http.MethodGet, "/portfolios", nil, bearer("clerk-session"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/portfolios", nil, bearer("other"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGenerateTokenWithoutSecret(t *testing.T) {
	newTestEnv(t)
	jwtSecret = nil
	t.Cleanup(func() { jwtSecret = []byte(testSecret) })

	_, err := GenerateToken("user")
	assert.ErrorIs(t, err, errNoSecret)
}

func TestUserSelfService(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "amina@example.com")

	w := env.do(t, http.MethodPut, "/users", gin.H{"name": "Amina B."}, bearer(token))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Amina B.")

	env.signup(t, "karim@example.com")
	w = env.do(t, http.MethodPut, "/users", gin.H{"email": "karim@example.com"}, bearer(token))
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	w = env.do(t, http.MethodDelete, "/users", nil, bearer(token))
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/me", nil, bearer(token))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	env := newTestEnv(t)
	_, id := env.signup(t, "amina@example.com")

	w := env.do(t, http.MethodGet, "/admin/users", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/admin/users", nil, http.Header{"Admin-Key": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	admin := http.Header{"Admin-Key": {testAdminKey}}
	w = env.do(t, http.MethodGet, "/admin/users", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "amina@example.com")

	w = env.do(t, http.MethodPost, "/admin/quotes/refresh", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"source":"static"`)
	assert.Contains(t, w.Body.String(), `"count":3`)

	w = env.do(t, http.MethodDelete, "/admin/users/"+id, nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodDelete, "/admin/users/"+id, nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminClosedWithoutKey(t *testing.T) {
	env := newTestEnv(t)
	InitAdmin("")

	w := env.do(t, http.MethodGet, "/admin/users", nil, http.Header{"Admin-Key": {""}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func signedWebhook(t *testing.T, payload interface{}) (*http.Request, []byte) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	wh, err := svix.NewWebhook(testWebhookSecret)
	require.NoError(t, err)
	now := time.Now()
	signature, err := wh.Sign("msg_1", now, body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(body))
	req.Header.Set("svix-id", "msg_1")
	req.Header.Set("svix-timestamp", strconv.FormatInt(now.Unix(), 10))
	req.Header.Set("svix-signature", signature)
	return req, body
}

func TestClerkWebhook(t *testing.T) {
	env := newTestEnv(t)
	users := repository.NewUserRepository(env.db)

	created := gin.H{
		"type": "user.created",
		"data": gin.H{
			"id":              "user_2abc",
			"first_name":      "Youssef",
			"last_name":       "Alaoui",
			"email_addresses": []gin.H{{"email_address": "youssef@example.com"}},
		},
	}
	req, _ := signedWebhook(t, created)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	u, err := users.GetUserById("user_2abc")
	require.NoError(t, err)
	assert.Equal(t, "youssef@example.com", u.Email)
	assert.Equal(t, "Youssef Alaoui", u.Name)

	req, _ = signedWebhook(t, gin.H{"type": "user.deleted", "data": gin.H{"id": "user_2abc"}})
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	_, err = users.GetUserById("user_2abc")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestClerkWebhookRejectsBadSignature(t *testing.T) {
	env := newTestEnv(t)

	req, _ := signedWebhook(t, gin.H{"type": "user.created", "data": gin.H{"id": "user_x"}})
	req.Header.Set("svix-signature", "v1,"+base64.StdEncoding.EncodeToString([]byte("forged")))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	InitClerk("", "")
	w = env.do(t, http.MethodPost, "/webhooks/clerk", gin.H{}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{repository.ErrNotFound, http.StatusNotFound},
		{errForbidden, http.StatusForbidden},
		{repository.ErrEmailTaken, http.StatusConflict},
		{models.ErrNoPositions, http.StatusBadRequest},
		{analytics.ErrDuplicatePosition, http.StatusBadRequest},
		{services.ErrUnknownStock, http.StatusBadRequest},
		{repository.ErrInvalidPeriod, http.StatusBadRequest},
		{services.ErrNoQuotes, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "quotes")

	env.do(t, http.MethodGet, "/api/quotes", nil, nil)
	w = env.do(t, http.MethodGet, "/health", nil, nil)
	assert.Contains(t, w.Body.String(), `"source":"static"`)
}
