// Package sessionstore keeps gorilla sessions in the PostgreSQL sessions
// table. The cookie only carries the signed session id; values live in the
// data column, encoded with the same codecs.
package sessionstore

import (
	"context"
	"database/sql"
	"encoding/base32"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"Taskly/database"
	"Taskly/logger"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

func init() {
	// flashes are stored as []interface{}
	gob.Register([]interface{}{})
}

type Store struct {
	db      database.DBTX
	Codecs  []securecookie.Codec
	Options *sessions.Options

	now   func() time.Time
	newID func() string
}

// New returns a store signing ids with keyPairs (see securecookie.CodecsFromPairs).
func New(db database.DBTX, opts sessions.Options, keyPairs ...[]byte) *Store {
	return &Store{
		db:      db,
		Codecs:  securecookie.CodecsFromPairs(keyPairs...),
		Options: &opts,
		now:     time.Now,
		newID:   generateID,
	}
}

func generateID() string {
	return strings.TrimRight(
		base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)), "=")
}

// Get returns a cached session for the request, loading it on first use.
func (s *Store) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New always returns a usable session. A cookie that fails verification is
// reported through the error; a missing or expired row simply yields a fresh
// session.
func (s *Store) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}

	if err := securecookie.DecodeMulti(name, c.Value, &session.ID, s.Codecs...); err != nil {
		session.ID = ""
		return session, fmt.Errorf("invalid session cookie: %w", err)
	}

	found, err := s.load(r.Context(), session)
	if err != nil {
		session.ID = ""
		return session, err
	}
	if !found {
		session.ID = ""
		return session, nil
	}

	session.IsNew = false
	return session, nil
}

// Save persists the values and refreshes the cookie. A negative MaxAge
// deletes the row and expires the cookie.
func (s *Store) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.erase(r.Context(), session.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = s.newID()
	}

	data, err := securecookie.EncodeMulti(session.Name(), session.Values, s.Codecs...)
	if err != nil {
		return fmt.Errorf("failed to encode session values: %w", err)
	}

	now := s.now().UTC()
	expiresAt := now.Add(time.Duration(session.Options.MaxAge) * time.Second)

	_, err = s.db.ExecContext(r.Context(),
		`INSERT INTO sessions (id, data, created_at, expires_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at`,
		session.ID, data, now, expiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return fmt.Errorf("failed to encode session cookie: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// Regenerate drops the stored row and clears the id, so the next Save issues
// a new one. Values stay on the session.
func (s *Store) Regenerate(r *http.Request, session *sessions.Session) error {
	if session.ID != "" {
		if err := s.erase(r.Context(), session.ID); err != nil {
			return err
		}
	}
	session.ID = ""
	return nil
}

func (s *Store) load(ctx context.Context, session *sessions.Session) (bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM sessions WHERE id = $1 AND expires_at > $2`,
		session.ID, s.now().UTC()).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", err)
	}

	if err := securecookie.DecodeMulti(session.Name(), data, &session.Values, s.Codecs...); err != nil {
		return false, fmt.Errorf("failed to decode session values: %w", err)
	}
	return true, nil
}

func (s *Store) erase(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExpired removes every session whose expiry has passed.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}

// Cleanup deletes expired sessions every interval until ctx is cancelled.
// A non-positive interval disables the worker.
func (s *Store) Cleanup(ctx context.Context, interval time.Duration) {
	log := logger.With("component", "session_cleanup")
	if interval <= 0 {
		log.Warn("Session cleanup disabled", "interval", interval)
		return
	}
	log.Info("Starting session cleanup worker", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Session cleanup worker stopped")
			return
		case <-ticker.C:
			n, err := s.DeleteExpired(ctx)
			if err != nil {
				log.Error("Failed to delete expired sessions", "error", err)
				continue
			}
			if n > 0 {
				log.Debug("Deleted expired sessions", "count", n)
			}
		}
	}
}

var _ sessions.Store = (*Store)(nil)
