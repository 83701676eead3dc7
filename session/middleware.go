package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/praxxy/backoffice/utils"
)

const contextKey = "backoffice.session"

// Options configures the session cookie.
type Options struct {
	CookieName string
	Secret     string
	Lifetime   time.Duration
	Secure     bool
}

// Middleware loads the session named by the cookie, or starts a new one, and saves it after the handler ran.
func Middleware(store Store, opts Options, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sess := resume(c, store, opts, log)

		setCookie := func(id string) {
			token, err := utils.SignSessionID(id, opts.Secret, opts.Lifetime)
			if err != nil {
				log.Error("sign session cookie failed", zap.Error(err))
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(opts.CookieName, token, int(opts.Lifetime.Seconds()), "/", "", opts.Secure, true)
		}
		sess.onRegenerate = setCookie
		// refreshed on every response so the expiry slides with activity
		setCookie(sess.id)

		c.Set(contextKey, sess)
		c.Next()

		for _, old := range sess.previousIDs {
			if err := store.Destroy(ctx, old); err != nil {
				log.Warn("destroy old session failed", zap.String("session_id", old), zap.Error(err))
			}
		}
		if err := store.Save(ctx, sess.id, sess.values, opts.Lifetime); err != nil {
			log.Error("save session failed", zap.String("session_id", sess.id), zap.Error(err))
		}
	}
}

func resume(c *gin.Context, store Store, opts Options, log *zap.Logger) *Session {
	raw, err := c.Cookie(opts.CookieName)
	if err != nil || raw == "" {
		return newSession(newID(), nil)
	}
	id, err := utils.ParseSessionID(raw, opts.Secret)
	if err != nil {
		log.Debug("rejected session cookie", zap.Error(err))
		return newSession(newID(), nil)
	}
	values, err := store.Load(c.Request.Context(), id)
	if err != nil {
		log.Error("load session failed", zap.String("session_id", id), zap.Error(err))
		return newSession(newID(), nil)
	}
	return newSession(id, values)
}

// Default returns the request's session. It panics if Middleware is not installed.
func Default(c *gin.Context) *Session {
	return c.MustGet(contextKey).(*Session)
}
