package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trimsdesk/internal/auth"
	"trimsdesk/internal/cache"
	"trimsdesk/internal/docstore"
	"trimsdesk/internal/handler"
	"trimsdesk/internal/metrics"
	"trimsdesk/internal/model"
	"trimsdesk/internal/module"
	"trimsdesk/internal/navigation"
	"trimsdesk/internal/records"
	"trimsdesk/internal/repository"
	"trimsdesk/internal/service"
	"trimsdesk/internal/session"
	"trimsdesk/internal/tenancy"
)

type app struct {
	e     *echo.Echo
	users repository.UserRepository
}

func viewFS() fstest.MapFS {
	fsys := fstest.MapFS{module.HomeView: {Data: []byte("<h2>Welcome</h2>")}}
	for _, p := range module.Pages() {
		fsys[p.View] = &fstest.MapFile{Data: []byte("<h2>" + p.Label + "</h2>")}
	}
	return fsys
}

func newApp(t *testing.T) *app {
	t.Helper()
	log, _ := test.NewNullLogger()
	mr := miniredis.RunT(t)
	cacheClient := cache.New(mr.Addr(), "", 0, log)
	t.Cleanup(func() { cacheClient.Close() })

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)

	store := docstore.NewMemory()
	users := repository.NewUserRepository(store)
	mgr := session.NewManager(users, session.NewRedisPersister(cacheClient, time.Hour), nil, m, log)
	t.Cleanup(mgr.Close)

	layer := records.NewLayer(store, tenancy.NewResolver(log), m, log)
	views, err := navigation.NewViewLoader(viewFS(), 0, m)
	require.NoError(t, err)
	nav := navigation.NewRegistry(views, layer, m, log)
	t.Cleanup(nav.Close)

	jwtService := auth.NewJWTService("router-test-secret")
	tokens := auth.NewTokenStore(cacheClient)

	h := Handlers{
		Auth:     handler.NewAuthHandler(service.NewAuthService(mgr, jwtService, tokens, log, nav)),
		Nav:      handler.NewNavHandler(nav),
		Bookings: handler.NewBookingHandler(service.NewBookingService(layer)),
		Buyers:   handler.NewBuyerHandler(service.NewBuyerService(layer)),
		Notes:    handler.NewNoteHandler(service.NewNoteService(layer)),
		Emb:      handler.NewEmbHandler(service.NewEmbService(layer)),
		Merch:    handler.NewMerchHandler(service.NewMerchService(layer)),
		Personal: handler.NewPersonalHandler(service.NewTaskService(layer), service.NewDiaryService(layer)),
		System: handler.NewSystemHandler(
			service.NewProfileService(store, users, layer, log),
			service.NewSettingsService(store, cacheClient, log),
			service.NewNoticeService(store, layer),
		),
		Admin: handler.NewAdminHandler(service.NewAdminService(users, log, []service.Revoker{mgr, tokens}, mgr, nav)),
	}

	e := echo.New()
	Register(e, h, handler.NewGuard(jwtService, tokens, mgr, m, log), m, registry, log)

	hash, err := session.HashPassword("rootpw")
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), &model.User{
		Username: "root", PasswordHash: hash, Role: "admin", IsApproved: true,
	}))
	return &app{e: e, users: users}
}

func (a *app) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *app) login(t *testing.T, username, password string) handler.AuthResponse {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp handler.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = a.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "trimsdesk_http_requests_total")
}

func TestSecuredRoutesRequireToken(t *testing.T) {
	a := newApp(t)

	for _, path := range []string{"/api/session", "/api/bookings", "/api/nav/sidebar"} {
		rec := a.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
	rec := a.do(t, http.MethodGet, "/api/bookings", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterLoginAndSession(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"username": "alice", "password": "pw12", "fullName": "Alice"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view := decodeBody[model.UserView](t, rec)
	assert.Equal(t, "user", view.Role)
	assert.False(t, view.IsApproved)

	rec = a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"username": "alice", "password": "pw12"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	resp := a.login(t, "alice", "pw12")
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	require.NotNil(t, resp.Session)
	assert.Empty(t, resp.Session.AllowedModules)
	assert.Equal(t, module.Dashboard, resp.Session.Landing)

	rec = a.do(t, http.MethodGet, "/api/session", resp.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice", decodeBody[handler.SessionResponse](t, rec).FullName)

	rec = a.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": resp.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeBody[handler.AuthResponse](t, rec).AccessToken)
}

func TestPageGuardsFollowGrants(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	hash, err := session.HashPassword("pw")
	require.NoError(t, err)
	require.NoError(t, a.users.Create(ctx, &model.User{Username: "alice", PasswordHash: hash, Role: "user", AllowedModules: []module.Page{}}))

	alice := a.login(t, "alice", "pw").AccessToken
	root := a.login(t, "root", "rootpw").AccessToken

	rec := a.do(t, http.MethodGet, "/api/bookings", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(t, http.MethodGet, "/api/admin/users", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Always-allowed pages need no grant.
	rec = a.do(t, http.MethodGet, "/api/tasks", alice, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodPut, "/api/admin/users/alice", root, map[string]any{"allowedModules": []string{"bookingPage"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Eventually(t, func() bool {
		rec := a.do(t, http.MethodGet, "/api/session", alice, nil)
		if rec.Code != http.StatusOK {
			return false
		}
		var s handler.SessionResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
			return false
		}
		return slices.Contains(s.AllowedModules, module.Booking)
	}, 2*time.Second, 10*time.Millisecond)

	rec = a.do(t, http.MethodGet, "/api/bookings", alice, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, http.MethodPost, "/api/buyers", alice, map[string]string{"name": "Zara"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBookingLifecycle(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	hash, err := session.HashPassword("pw")
	require.NoError(t, err)
	require.NoError(t, a.users.Create(ctx, &model.User{Username: "alice", PasswordHash: hash, Role: "user", AllowedModules: []module.Page{module.Booking}}))

	root := a.login(t, "root", "rootpw").AccessToken
	alice := a.login(t, "alice", "pw").AccessToken

	rec := a.do(t, http.MethodPost, "/api/buyers", root, map[string]string{"name": "H&M"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/api/bookings", alice, map[string]string{"buyer": "Nike", "bookingNo": "B-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/bookings", alice, map[string]string{"buyer": "h&m", "bookingNo": "B-1", "checkStatus": "Verified"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[model.Booking](t, rec)
	assert.Equal(t, "H&M", created.Buyer)
	assert.Equal(t, "alice", created.CreatedBy)
	assert.NotEmpty(t, created.CheckDate)

	rec = a.do(t, http.MethodGet, "/api/bookings", root, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]model.Booking](t, rec), 1)

	rec = a.do(t, http.MethodPut, "/api/bookings/"+created.ID, alice, map[string]string{"buyer": "H&M", "bookingNo": "B-2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "B-2", decodeBody[model.Booking](t, rec).BookingNo)

	rec = a.do(t, http.MethodDelete, "/api/bookings/"+created.ID, alice, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do(t, http.MethodGet, "/api/bookings/"+created.ID, alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNavigation(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	hash, err := session.HashPassword("pw")
	require.NoError(t, err)
	require.NoError(t, a.users.Create(ctx, &model.User{Username: "alice", PasswordHash: hash, Role: "user", AllowedModules: []module.Page{module.Booking}}))
	alice := a.login(t, "alice", "pw").AccessToken

	rec := a.do(t, http.MethodGet, "/api/nav/sidebar", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sidebar := decodeBody[struct {
		Items []struct {
			Page    module.Page `json:"page"`
			Visible bool        `json:"visible"`
		} `json:"items"`
		Groups map[string]bool `json:"groups"`
	}](t, rec)
	visible := map[module.Page]bool{}
	for _, it := range sidebar.Items {
		visible[it.Page] = it.Visible
	}
	assert.True(t, visible[module.Booking])
	assert.False(t, visible[module.Settings])
	assert.True(t, sidebar.Groups["trims"])
	assert.False(t, sidebar.Groups["emb"])

	rec = a.do(t, http.MethodPost, "/api/nav/bookingPage", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st := decodeBody[navigation.State](t, rec)
	assert.Equal(t, "Booking Operations", st.View.Title)
	assert.Equal(t, 1, st.Initialized)

	rec = a.do(t, http.MethodPost, "/api/nav/bookingPage?preserve=true", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeBody[navigation.State](t, rec).Initialized)

	rec = a.do(t, http.MethodPost, "/api/nav/settingsPage", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(t, http.MethodPost, "/api/nav/nowhere", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/nav/current", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, module.Booking, decodeBody[navigation.State](t, rec).View.Page)
}

func TestLogoutRevokesToken(t *testing.T) {
	a := newApp(t)
	resp := a.login(t, "root", "rootpw")

	rec := a.do(t, http.MethodPost, "/api/auth/logout", resp.AccessToken, map[string]string{"refresh_token": resp.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/api/session", resp.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": resp.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeletedUserLosesAccess(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	hash, err := session.HashPassword("pw")
	require.NoError(t, err)
	require.NoError(t, a.users.Create(ctx, &model.User{
		Username: "bob", PasswordHash: hash, Role: "user", IsApproved: true,
		AllowedModules: []module.Page{module.Booking},
	}))
	bob := a.login(t, "bob", "pw")
	root := a.login(t, "root", "rootpw").AccessToken

	rec := a.do(t, http.MethodGet, "/api/bookings", bob.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodDelete, "/api/admin/users/bob", root, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	for _, path := range []string{"/api/bookings", "/api/session"} {
		rec = a.do(t, http.MethodGet, path, bob.AccessToken, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
	rec = a.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": bob.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A new account under the same name does not revive the old tokens.
	rec = a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"username": "bob", "password": "pw2"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = a.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": bob.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	fresh := a.login(t, "bob", "pw2")
	rec = a.do(t, http.MethodGet, "/api/session", fresh.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[handler.SessionResponse](t, rec).AllowedModules)
}
