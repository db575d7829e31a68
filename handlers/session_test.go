package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore keeps session values server side, keyed by the cookie value.
type memoryStore struct {
	mu   sync.Mutex
	rows map[string]map[interface{}]interface{}
	next int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rows: map[string]map[interface{}]interface{}{}}
}

func (m *memoryStore) options() *sessions.Options {
	return &sessions.Options{Path: "/", MaxAge: 86400, HttpOnly: true, SameSite: http.SameSiteLaxMode}
}

func (m *memoryStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(m, name)
}

func (m *memoryStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(m, name)
	session.Options = m.options()
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	values, ok := m.rows[c.Value]
	if !ok {
		return session, nil
	}
	session.ID = c.Value
	for k, v := range values {
		session.Values[k] = v
	}
	session.IsNew = false
	return session, nil
}

func (m *memoryStore) Save(_ *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session.Options.MaxAge < 0 {
		delete(m.rows, session.ID)
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}
	if session.ID == "" {
		m.next++
		session.ID = fmt.Sprintf("sid%d", m.next)
	}
	values := make(map[interface{}]interface{}, len(session.Values))
	for k, v := range session.Values {
		values[k] = v
	}
	m.rows[session.ID] = values
	http.SetCookie(w, sessions.NewCookie(session.Name(), session.ID, session.Options))
	return nil
}

func (m *memoryStore) Regenerate(_ *http.Request, session *sessions.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, session.ID)
	session.ID = ""
	return nil
}

func sessionCookieValue(t *testing.T, c *http.Client, rawURL string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	for _, cookie := range c.Jar.Cookies(u) {
		if cookie.Name == DefaultSessionName {
			return cookie.Value
		}
	}
	return ""
}

func TestLogin_RenewsSessionID(t *testing.T) {
	app := newTestAppWithStore(t, Options{}, newMemoryStore())
	require.True(t, app.auth.Register(context.Background(), "alice", "pw123", false).OK())
	victim := app.client(t)

	// a failed login stores a session carrying the error flash
	path, _ := app.post(t, victim, "/auth/login", url.Values{"username": {"alice"}, "password": {"nope"}})
	require.Equal(t, "/auth", path)
	before := sessionCookieValue(t, victim, app.srv.URL)
	require.NotEmpty(t, before)

	other := app.client(t)
	u, err := url.Parse(app.srv.URL)
	require.NoError(t, err)
	other.Jar.SetCookies(u, []*http.Cookie{{Name: DefaultSessionName, Value: before, Path: "/"}})

	path, _ = app.post(t, victim, "/auth/login", url.Values{"username": {"alice"}, "password": {"pw123"}})
	require.Equal(t, "/todo", path)
	after := sessionCookieValue(t, victim, app.srv.URL)
	assert.NotEmpty(t, after)
	assert.NotEqual(t, before, after)

	path, _ = app.get(t, other, "/todo")
	assert.Equal(t, "/auth", path)

	path, _ = app.get(t, victim, "/todo")
	assert.Equal(t, "/todo", path)
}
