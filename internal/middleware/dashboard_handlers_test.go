package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postForm(env *testEnv, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/dashboard", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestDashboardPage(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Choisir une action")
	assert.Contains(t, body, "ATW - ATTIJARIWAFA BANK")
	assert.NotContains(t, body, "Plotly.newPlot")
}

func TestDashboardSubmit(t *testing.T) {
	env := newTestEnv(t)

	w := postForm(env, url.Values{
		"symbol":    {"ATW", "IAM", ""},
		"quantity":  {"10", "20", "1"},
		"buy_price": {"400", "110,5", ""},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Contains(t, body, "7,000.00 MAD")
	assert.Contains(t, body, "+790.00 MAD")
	assert.Contains(t, body, "Plotly.newPlot")
	assert.Contains(t, body, "Analyse globale")
	assert.Contains(t, body, `<option value="IAM" selected>`)
}

func TestDashboardSubmitErrors(t *testing.T) {
	env := newTestEnv(t)

	w := postForm(env, url.Values{"symbol": {""}, "quantity": {"1"}, "buy_price": {""}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "veuillez ajouter au moins une action")

	w = postForm(env, url.Values{"symbol": {"ATW"}, "quantity": {"dix"}, "buy_price": {"400"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "quantité invalide")

	w = postForm(env, url.Values{"symbol": {"ATW"}, "quantity": {"0"}, "buy_price": {"400"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "quantity must be at least 1")
}

func TestReadPositionFormKeepsRows(t *testing.T) {
	env := newTestEnv(t)

	w := postForm(env, url.Values{"symbol": {"LHM"}, "quantity": {"3"}, "buy_price": {"abc"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<option value="LHM" selected>`)
	assert.Contains(t, body, `value="abc"`)
}
