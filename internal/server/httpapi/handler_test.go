package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/filex"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/services"
	"github.com/dmitrijs2005/filekeeper/internal/server/users"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// alice: password "correct", 10 MiB quota. bob: password "hunter2", unlimited.
const testDB = `{"users": [
  {"name": "alice", "salt": "000102030405060708090a0b0c0d0e0f",
   "password": "0702ecde4c0c8644dceb03b89d039f0ff06269ab904583d78515ecff76fd3d88",
   "key": "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f",
   "quota": "10"},
  {"name": "bob", "salt": "101112131415161718191a1b1c1d1e1f",
   "password": "540a79255672b40409ba0c24a0c42fb6601e7d3863bcf02bc8107a3400ffcd62",
   "key": "202122232425262728292a2b2c2d2e2f303132333435363738393a3b3c3d3e3f"}
]}`

type fixture struct {
	base    string
	auth    *services.AuthService
	handler http.Handler
}

func newFixture(t *testing.T, maxUpload int64) *fixture {
	t.Helper()
	return newFixtureWithDB(t, testDB, maxUpload)
}

func newFixtureWithDB(t *testing.T, db string, maxUpload int64) *fixture {
	t.Helper()

	base := t.TempDir()
	for _, d := range []string{common.UserDirName, common.PublicDirName} {
		require.NoError(t, os.Mkdir(filepath.Join(base, d), 0o700))
	}
	dbPath := filepath.Join(base, common.DatabaseFileName)
	require.NoError(t, os.WriteFile(dbPath, []byte(db), 0o600))

	l := logging.Nop()
	as := services.NewAuthService(users.NewFileRepository(dbPath), base, l)
	qs := services.NewQuotaService(as, filex.NewWalker(l), base)
	fsvc := services.NewFileService(base, t.TempDir(), l)

	return &fixture{
		base:    base,
		auth:    as,
		handler: NewHandler(as, qs, fsvc, l, maxUpload),
	}
}

func (f *fixture) token(t *testing.T, user, password string) string {
	t.Helper()
	res, err := f.auth.Login(context.Background(), user, password)
	require.NoError(t, err)
	require.Equal(t, services.StatusAccepted, res.Status)
	return res.Token
}

func (f *fixture) home(user string) string {
	return filepath.Join(f.base, common.UserDirName, user)
}

func (f *fixture) put(t *testing.T, user, rel, contents string) {
	t.Helper()
	full := filepath.Join(f.home(user), filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o700))
	require.NoError(t, os.WriteFile(full, []byte(contents), 0o600))
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, 0)

	apitest.New().
		Handler(f.handler).
		Get("/healthz").
		Expect(t).
		Status(http.StatusOK).
		Body(`{"status":"OK"}`).
		HeaderPresent("X-Request-Id").
		End()
}

func TestLogin(t *testing.T) {
	f := newFixture(t, 0)

	apitest.New().
		Handler(f.handler).
		Post("/login").
		FormData("username", "alice").
		FormData("password", "correct").
		Expect(t).
		Status(http.StatusSeeOther).
		Header("Location", "/user/").
		CookiePresent("alice").
		End()
}

func TestLogin_Rejected(t *testing.T) {
	f := newFixture(t, 0)

	tests := []struct {
		name, user, password string
	}{
		{"wrong password", "alice", "wrong"},
		{"unknown user", "ghost", "x"},
		{"missing password", "alice", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apitest.New().
				Handler(f.handler).
				Post("/login").
				FormData("username", tt.user).
				FormData("password", tt.password).
				Expect(t).
				Status(http.StatusUnauthorized).
				CookieNotPresent(tt.user).
				End()
		})
	}
}

func TestLogin_NameNotUsableAsCookie(t *testing.T) {
	for _, name := range []string{"alice smith", "bob@example.com"} {
		t.Run(name, func(t *testing.T) {
			db := fmt.Sprintf(`{"users": [
  {"name": %q, "salt": "000102030405060708090a0b0c0d0e0f",
   "password": "0702ecde4c0c8644dceb03b89d039f0ff06269ab904583d78515ecff76fd3d88",
   "key": "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"}
]}`, name)
			f := newFixtureWithDB(t, db, 0)

			res, err := f.auth.Login(context.Background(), name, "correct")
			require.NoError(t, err)
			require.Equal(t, services.StatusAccepted, res.Status)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/login",
				strings.NewReader("username="+url.QueryEscape(name)+"&password=correct"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			f.handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Empty(t, rec.Result().Cookies())
			assert.Empty(t, rec.Header().Get("Location"))
		})
	}
}

func TestLogout(t *testing.T) {
	f := newFixture(t, 0)
	tok := f.token(t, "alice", "correct")

	apitest.New().
		Handler(f.handler).
		Post("/logout").
		Cookie("alice", tok).
		Expect(t).
		Status(http.StatusSeeOther).
		Header("Location", "/").
		CookiePresent("alice").
		End()

	apitest.New().
		Handler(f.handler).
		Post("/logout").
		Expect(t).
		Status(http.StatusForbidden).
		End()
}

func TestRequireAuth(t *testing.T) {
	f := newFixture(t, 0)
	bobTok := f.token(t, "bob", "hunter2")

	tests := []struct {
		name     string
		identity string
		token    string
	}{
		{"no cookie", "", ""},
		{"other user's token", "alice", bobTok},
		{"garbage token", "alice", "garbage"},
		{"tampered token", "bob", bobTok[:len(bobTok)-4] + "AAA="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := apitest.New().Handler(f.handler).Get("/user/")
			if tt.identity != "" {
				req = req.Cookie(tt.identity, tt.token)
			}
			req.Expect(t).
				Status(http.StatusForbidden).
				End()
		})
	}
}

func TestGetNode_Listing(t *testing.T) {
	f := newFixture(t, 0)
	tok := f.token(t, "alice", "correct")
	f.put(t, "alice", "hello.txt", "hello")
	f.put(t, "alice", "docs/a.txt", "abc")

	apitest.New().
		Handler(f.handler).
		Get("/user/").
		Cookie("alice", tok).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal(`$.path`, "/")).
		Assert(jsonpath.Len(`$.entries`, 2)).
		Assert(jsonpath.Equal(`$.entries[0].name`, "docs")).
		Assert(jsonpath.Equal(`$.entries[0].is_dir`, true)).
		Assert(jsonpath.Equal(`$.entries[1].name`, "hello.txt")).
		Assert(jsonpath.Equal(`$.entries[1].size`, float64(5))).
		Assert(jsonpath.Equal(`$.quota.limited`, true)).
		Assert(jsonpath.Equal(`$.quota.current`, float64(8))).
		Assert(jsonpath.Equal(`$.quota.limit`, float64(10*common.MiB))).
		End()
}

func TestGetNode_UnlimitedUser(t *testing.T) {
	f := newFixture(t, 0)
	tok := f.token(t, "bob", "hunter2")

	apitest.New().
		Handler(f.handler).
		Get("/user/").
		Cookie("bob", tok).
		Expect(t).
		Status(http.StatusOK).
		Body(`{"path":"/","entries":[],"quota":{"limited":false}}`).
		End()

	fi, err := os.Stat(f.home("bob"))
	require.NoError(t, err, "home is created on first authenticated request")
	assert.True(t, fi.IsDir())
}

func TestGetNode_File(t *testing.T) {
	f := newFixture(t, 0)
	tok := f.token(t, "alice", "correct")
	f.put(t, "alice", "docs/a.txt", "abc")

	apitest.New().
		Handler(f.handler).
		Get("/user/docs/a.txt").
		Cookie("alice", tok).
		Expect(t).
		Status(http.StatusOK).
		Body("abc").
		End()

	apitest.New().
		Handler(f.handler).
		Get("/user/missing").
		Cookie("alice", tok).
		Expect(t).
		Status(http.StatusNotFound).
		End()
}

func TestUpload(t *testing.T) {
	f := newFixture(t, 0)
	tok := f.token(t, "alice", "correct")

	apitest.New().
		Handler(f.handler).
		Put("/upload/notes.txt").
		Cookie("alice", tok).
		Body("some notes").
		Expect(t).
		Status(http.StatusCreated).
		Body(`{"path":"/notes.txt","size":10}`).
		End()

	b, err := os.ReadFile(filepath.Join(f.home("alice"), "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "some notes", string(b))

	apitest.New().
		Handler(f.handler).
		Put("/upload/").
		Cookie("alice", tok).
		Body("x").
		Expect(t).
		Status(http.StatusBadRequest).
		End()

	apitest.New().
		Handler(f.handler).
		Put("/upload/missing/dir.txt").
		Cookie("alice", tok).
		Body("x").
		Expect(t).
		Status(http.StatusNotFound).
		End()
}

func TestUpload_QuotaExceeded(t *testing.T) {
	f := newFixture(t, 0)
	tok := f.token(t, "alice", "correct")

	require.NoError(t, os.MkdirAll(f.home("alice"), 0o700))
	big := filepath.Join(f.home("alice"), "big")
	fh, err := os.Create(big)
	require.NoError(t, err)
	require.NoError(t, fh.Truncate(10*common.MiB-4))
	require.NoError(t, fh.Close())

	apitest.New().
		Handler(f.handler).
		Put("/upload/fits").
		Cookie("alice", tok).
		Body("1234").
		Expect(t).
		Status(http.StatusCreated).
		End()

	apitest.New().
		Handler(f.handler).
		Put("/upload/overflow").
		Cookie("alice", tok).
		Body("1").
		Expect(t).
		Status(http.StatusRequestEntityTooLarge).
		Body(fmt.Sprintf(`{"limited":true,"current":%d,"limit":%d}`, 10*common.MiB, 10*common.MiB)).
		End()

	_, err = os.Stat(filepath.Join(f.home("alice"), "overflow"))
	assert.True(t, os.IsNotExist(err))
}

func TestUpload_LengthRequired(t *testing.T) {
	f := newFixture(t, 0)

	send := func(user, password string) int {
		req := httptest.NewRequest(http.MethodPut, "/upload/x", io.NopCloser(strings.NewReader("data")))
		req.ContentLength = -1
		req.AddCookie(&http.Cookie{Name: user, Value: f.token(t, user, password)})
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusLengthRequired, send("alice", "correct"))
	assert.Equal(t, http.StatusCreated, send("bob", "hunter2"), "unlimited users may stream")
}

func TestUpload_MaxUploadSize(t *testing.T) {
	f := newFixture(t, 4)
	tok := f.token(t, "bob", "hunter2")

	apitest.New().
		Handler(f.handler).
		Put("/upload/small").
		Cookie("bob", tok).
		Body("1234").
		Expect(t).
		Status(http.StatusCreated).
		End()

	apitest.New().
		Handler(f.handler).
		Put("/upload/large").
		Cookie("bob", tok).
		Body("12345").
		Expect(t).
		Status(http.StatusRequestEntityTooLarge).
		End()
}

func TestMkdir(t *testing.T) {
	f := newFixture(t, 0)
	tok := f.token(t, "alice", "correct")

	apitest.New().
		Handler(f.handler).
		Post("/mkdir").
		Cookie("alice", tok).
		FormData("dir", "/").
		FormData("name", "photos").
		Expect(t).
		Status(http.StatusSeeOther).
		Header("Location", "/user/photos/").
		End()

	apitest.New().
		Handler(f.handler).
		Post("/mkdir").
		Cookie("alice", tok).
		FormData("dir", "/").
		FormData("name", "photos").
		Expect(t).
		Status(http.StatusBadRequest).
		Body(`{"error":"already exists"}`).
		End()

	apitest.New().
		Handler(f.handler).
		Post("/mkdir").
		Cookie("alice", tok).
		FormData("dir", "/../bob").
		FormData("name", "x").
		Expect(t).
		Status(http.StatusBadRequest).
		Body(`{"error":"invalid path"}`).
		End()
}

func TestShareAndPublic(t *testing.T) {
	f := newFixture(t, 0)
	tok := f.token(t, "alice", "correct")
	f.put(t, "alice", "report.txt", "quarterly")

	apitest.New().
		Handler(f.handler).
		Post("/share").
		Cookie("alice", tok).
		FormData("path", "/report.txt").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Matches(`$.url`, `^/public/[0-9a-f]{32}$`)).
		End()

	links, err := os.ReadDir(filepath.Join(f.base, common.PublicDirName))
	require.NoError(t, err)
	require.Len(t, links, 1)

	apitest.New().
		Handler(f.handler).
		Get("/public/" + links[0].Name()).
		Expect(t).
		Status(http.StatusOK).
		Body("quarterly").
		End()

	apitest.New().
		Handler(f.handler).
		Get("/public/" + strings.Repeat("ab", 16)).
		Expect(t).
		Status(http.StatusNotFound).
		End()

	apitest.New().
		Handler(f.handler).
		Post("/share").
		Cookie("alice", tok).
		FormData("path", "/missing").
		Expect(t).
		Status(http.StatusNotFound).
		End()
}
