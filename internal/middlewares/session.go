package middlewares

import (
	"encoding/gob"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const (
	SessionName = "grognon_session"
	sessionKey  = "session"
	errorsFlash = "errors"
)

func init() {
	gob.Register(map[string]string{})
}

func NewSessionStore(key string) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(key))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
	}
	return store
}

// Session loads the cookie session into the gin context.
func Session(store sessions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := store.Get(c.Request, SessionName)
		if err != nil {
			// an undecodable cookie yields a fresh session
			slog.Debug("Discarding invalid session", slog.Any("error", err))
		}
		c.Set(sessionKey, session)
		c.Next()
	}
}

func getSession(c *gin.Context) *sessions.Session {
	value, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	session, _ := value.(*sessions.Session)
	return session
}

// FlashErrors stores validation errors to be read back by the next request.
func FlashErrors(c *gin.Context, errs map[string]string) {
	session := getSession(c)
	if session == nil || len(errs) == 0 {
		return
	}

	session.AddFlash(errs, errorsFlash)
	if err := session.Save(c.Request, c.Writer); err != nil {
		slog.Error("Failed to save session", slog.Any("error", err))
	}
}

// PopFlashErrors returns and clears the flashed validation errors.
func PopFlashErrors(c *gin.Context) map[string]string {
	merged := map[string]string{}

	session := getSession(c)
	if session == nil {
		return merged
	}

	flashes := session.Flashes(errorsFlash)
	if len(flashes) == 0 {
		return merged
	}
	for _, flash := range flashes {
		if errs, ok := flash.(map[string]string); ok {
			for field, msg := range errs {
				merged[field] = msg
			}
		}
	}

	if err := session.Save(c.Request, c.Writer); err != nil {
		slog.Error("Failed to save session", slog.Any("error", err))
	}
	return merged
}
