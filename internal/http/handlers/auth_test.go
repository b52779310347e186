package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"shopcatalog/internal/repos"
	"shopcatalog/internal/serializers"
)

func TestPasswordsSeededAreHashed(t *testing.T) {
	e := newTestEnv(t)
	var hashes []string
	require.NoError(t, e.db.Select(&hashes, `SELECT password_hash FROM users`))
	require.NotEmpty(t, hashes)
	for _, h := range hashes {
		assert.NotContains(t, h, repos.SeedPassword)
		assert.True(t, strings.HasPrefix(h, "$2"), "unexpected hash format: %s", h)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte(repos.SeedPassword)))
	}
}

func loginRequest(e *testEnv, email, password string) *http.Request {
	form := url.Values{"csrf": {e.csrf}, "email": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: e.csrf})
	return req
}

func TestLoginSuccessFailAndThrottle(t *testing.T) {
	e := newTestEnv(t)

	resp, err := e.app.Test(loginRequest(e, "admin@shopcatalog.test", "wrongpass!"), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "Invalid email or password")

	resp, err = e.app.Test(loginRequest(e, "admin@shopcatalog.test", repos.SeedPassword), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/admin", resp.Header.Get("Location"))
	sid := cookie(resp, "sid")
	require.NotEmpty(t, sid)

	resp = e.request(t, http.MethodGet, "/admin", "", sid)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// five attempts per window; two used above
	for i := 0; i < 3; i++ {
		resp, err = e.app.Test(loginRequest(e, "alice@shopcatalog.test", "wrongpass!"), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	resp, err = e.app.Test(loginRequest(e, "alice@shopcatalog.test", repos.SeedPassword), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestLogoutEndsSession(t *testing.T) {
	e := newTestEnv(t)

	resp := e.request(t, http.MethodPost, "/logout", "csrf="+e.csrf, sidAdmin)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp = e.request(t, http.MethodGet, "/admin", "", sidAdmin)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRegister(t *testing.T) {
	e := newTestEnv(t)
	const path = "/api/v1/auth/register"

	resp := e.request(t, http.MethodPost, path, `{"username":"carol","email":"carol@shopcatalog.test",
		"first_name":"Carol","last_name":"Danvers","password":"Tangerine-Vessel-42","password2":"Tangerine-Vessel-43"}`, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var vb validationBody
	decode(t, resp, &vb)
	assert.Equal(t, []string{serializers.MsgPasswordMismatch}, vb.Fields["password"])

	resp = e.request(t, http.MethodPost, path, `{"username":"carol","email":"alice@shopcatalog.test",
		"first_name":"Carol","last_name":"Danvers","password":"Tangerine-Vessel-42","password2":"Tangerine-Vessel-43"}`, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	vb = validationBody{}
	decode(t, resp, &vb)
	assert.Equal(t, []string{serializers.MsgEmailTaken}, vb.Fields["email"])
	// field errors come first; the confirmation is not compared yet
	assert.NotContains(t, vb.Fields, "password")

	resp = e.request(t, http.MethodPost, path, `{"username":"carol","email":"carol@shopcatalog.test",
		"first_name":"Carol","last_name":"Danvers","password":"12345678","password2":"12345678"}`, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	vb = validationBody{}
	decode(t, resp, &vb)
	assert.Contains(t, vb.Fields["password"], "This password is entirely numeric.")

	resp = e.request(t, http.MethodPost, path, `{"username":"carol","email":"carol@shopcatalog.test",
		"first_name":"Carol","last_name":"Danvers","password":"Tangerine-Vessel-42","password2":"Tangerine-Vessel-42"}`, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var u serializers.UserRepresentation
	decode(t, resp, &u)
	assert.Equal(t, "carol", u.Username)
	assert.Equal(t, "carol@shopcatalog.test", u.Email)

	resp = e.request(t, http.MethodPost, path, `{"username":"carol","email":"carol2@shopcatalog.test",
		"first_name":"Carol","last_name":"Danvers","password":"Tangerine-Vessel-42","password2":"Tangerine-Vessel-42"}`, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	vb = validationBody{}
	decode(t, resp, &vb)
	assert.Equal(t, []string{serializers.MsgUsernameTaken}, vb.Fields["username"])
}

func TestMe(t *testing.T) {
	e := newTestEnv(t)

	resp := e.request(t, http.MethodGet, "/api/v1/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = e.request(t, http.MethodGet, "/api/v1/auth/me", "", sidAdmin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		User    serializers.UserRepresentation `json:"user"`
		IsAdmin bool                           `json:"is_admin"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "admin", body.User.Username)
	assert.True(t, body.IsAdmin)
}
