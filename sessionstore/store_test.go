package sessionstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const cookieName = "taskly-session"

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// captureArg matches any string argument and remembers it.
type captureArg struct{ value string }

func (c *captureArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if ok {
		c.value = s
	}
	return ok
}

func newStoreWithMock(t *testing.T) (*Store, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	store := New(db, sessions.Options{Path: "/", MaxAge: 3600, HttpOnly: true, SameSite: http.SameSiteLaxMode},
		[]byte("0123456789abcdef0123456789abcdef"))
	store.now = func() time.Time { return fixedNow }
	store.newID = func() string { return "sid-1" }
	return store, mock, db
}

func withCookie(c *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/todo", nil)
	req.AddCookie(c)
	return req
}

func TestNew_NoCookieIsFresh(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	session, err := store.Get(httptest.NewRequest(http.MethodGet, "/", nil), cookieName)

	require.NoError(t, err)
	assert.True(t, session.IsNew)
	assert.Empty(t, session.ID)
	assert.Equal(t, 3600, session.Options.MaxAge)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveThenLoad(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	session, err := store.Get(httptest.NewRequest(http.MethodGet, "/", nil), cookieName)
	require.NoError(t, err)
	session.Values["user_id"] = "alice"
	session.AddFlash("You have successfully logged in.", "success")

	data := &captureArg{}
	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs("sid-1", data, fixedNow, fixedNow.Add(time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(httptest.NewRequest(http.MethodPost, "/auth/login", nil), rec, session))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.NotContains(t, cookies[0].Value, "alice")
	assert.NotEmpty(t, data.value)

	mock.ExpectQuery(`SELECT data FROM sessions WHERE id = \$1 AND expires_at > \$2`).
		WithArgs("sid-1", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow(data.value))

	loaded, err := store.Get(withCookie(cookies[0]), cookieName)
	require.NoError(t, err)
	assert.False(t, loaded.IsNew)
	assert.Equal(t, "sid-1", loaded.ID)
	assert.Equal(t, "alice", loaded.Values["user_id"])
	assert.Equal(t, []interface{}{"You have successfully logged in."}, loaded.Flashes("success"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNew_ExpiredRowStartsOver(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO sessions`).WillReturnResult(sqlmock.NewResult(0, 1))
	session, _ := store.Get(httptest.NewRequest(http.MethodGet, "/", nil), cookieName)
	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(httptest.NewRequest(http.MethodGet, "/", nil), rec, session))

	mock.ExpectQuery(`SELECT data FROM sessions`).
		WithArgs("sid-1", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"data"}))

	loaded, err := store.Get(withCookie(rec.Result().Cookies()[0]), cookieName)
	require.NoError(t, err)
	assert.True(t, loaded.IsNew)
	assert.Empty(t, loaded.ID)
	assert.Empty(t, loaded.Values)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNew_TamperedCookie(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	session, err := store.Get(withCookie(&http.Cookie{Name: cookieName, Value: "forged"}), cookieName)

	require.Error(t, err)
	require.NotNil(t, session)
	assert.True(t, session.IsNew)
	assert.Empty(t, session.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNew_LoadFailure(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO sessions`).WillReturnResult(sqlmock.NewResult(0, 1))
	session, _ := store.Get(httptest.NewRequest(http.MethodGet, "/", nil), cookieName)
	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(httptest.NewRequest(http.MethodGet, "/", nil), rec, session))

	mock.ExpectQuery(`SELECT data FROM sessions`).WillReturnError(errors.New("conn reset"))

	_, err := store.Get(withCookie(rec.Result().Cookies()[0]), cookieName)
	require.ErrorContains(t, err, "db error")
}

func TestSave_NegativeMaxAgeDeletes(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	session, _ := store.Get(httptest.NewRequest(http.MethodGet, "/", nil), cookieName)
	session.ID = "sid-1"
	session.Options.MaxAge = -1

	mock.ExpectExec(`DELETE FROM sessions WHERE id = \$1`).
		WithArgs("sid-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(httptest.NewRequest(http.MethodGet, "/auth/logout", nil), rec, session))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_DBError(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	session, _ := store.Get(httptest.NewRequest(http.MethodGet, "/", nil), cookieName)
	mock.ExpectExec(`INSERT INTO sessions`).WillReturnError(errors.New("disk full"))

	rec := httptest.NewRecorder()
	err := store.Save(httptest.NewRequest(http.MethodGet, "/", nil), rec, session)

	require.ErrorContains(t, err, "disk full")
	assert.Empty(t, rec.Result().Cookies())
}

func TestDeleteExpired(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM sessions WHERE expires_at <= \$1`).
		WithArgs(fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.DeleteExpired(context.Background())

	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCleanup_StopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM sessions WHERE expires_at`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Cleanup(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return mock.ExpectationsWereMet() == nil
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup worker did not stop")
	}
}

func TestCleanup_NonPositiveIntervalReturns(t *testing.T) {
	defer goleak.VerifyNone(t)

	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	for _, interval := range []time.Duration{0, -time.Minute} {
		done := make(chan struct{})
		go func() {
			store.Cleanup(context.Background(), interval)
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("cleanup with interval %v did not return", interval)
		}
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegenerate_IssuesNewID(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	session, _ := store.Get(httptest.NewRequest(http.MethodGet, "/", nil), cookieName)
	session.ID = "sid-1"
	session.Values["user_id"] = "alice"
	store.newID = func() string { return "sid-2" }

	mock.ExpectExec(`DELETE FROM sessions WHERE id = \$1`).
		WithArgs("sid-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs("sid-2", sqlmock.AnyArg(), fixedNow, fixedNow.Add(time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	require.NoError(t, store.Regenerate(req, session))
	assert.Empty(t, session.ID)
	assert.Equal(t, "alice", session.Values["user_id"])

	require.NoError(t, store.Save(req, httptest.NewRecorder(), session))
	assert.Equal(t, "sid-2", session.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegenerate_DeleteFailure(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	session, _ := store.Get(httptest.NewRequest(http.MethodGet, "/", nil), cookieName)
	session.ID = "sid-1"
	mock.ExpectExec(`DELETE FROM sessions`).WillReturnError(errors.New("conn reset"))

	err := store.Regenerate(httptest.NewRequest(http.MethodPost, "/auth/login", nil), session)

	require.ErrorContains(t, err, "db error")
	assert.Equal(t, "sid-1", session.ID)
}
