// Package web serves the portfolio over HTTP, for users signed in with
// their Google account.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/etnz/folio"
	"github.com/etnz/folio/renderer"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	sessionCookie = "folio_session"
	stateCookie   = "folio_state"
	// ShutdownTimeout bounds the graceful shutdown, write queue drain included.
	ShutdownTimeout = 30 * time.Second
)

// Tracker is the portfolio service behind the handlers.
type Tracker interface {
	View(ctx context.Context, user string, creds *oauth2.Token) folio.Valuation
	Add(ctx context.Context, user string, creds *oauth2.Token, ticker string, qty folio.Quantity) (folio.Valuation, error)
	Edit(ctx context.Context, user string, creds *oauth2.Token, ticker string, qty folio.Quantity) error
	Delete(ctx context.Context, user string, creds *oauth2.Token, ticker string) error
	Close(ctx context.Context) error
}

// Server is the HTTP surface of a Tracker.
type Server struct {
	tracker  Tracker
	identity Identity
	sessions *Sessions
	log      zerolog.Logger
	engine   *gin.Engine
}

// New returns a Server with its routes registered.
func New(tracker Tracker, identity Identity, sessions *Sessions, log zerolog.Logger) *Server {
	s := &Server{tracker: tracker, identity: identity, sessions: sessions, log: log}

	tmpl := template.Must(template.New("").
		Funcs(template.FuncMap{"yield": renderer.DividendYield}).
		ParseFS(templatesFS, "templates/*.html"))

	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests)
	r.SetHTMLTemplate(tmpl)

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/login", s.login)
	r.GET("/oauth2callback", s.callback)
	r.GET("/logout", s.logout)

	pages := r.Group("/", s.requireSession(func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/login")
	}))
	pages.GET("/", s.index)
	pages.GET("/report", s.report)

	api := r.Group("/", s.requireSession(func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": ErrUnauthenticated.Error()})
	}))
	api.POST("/add", s.add)
	api.PUT("/edit/:ticker", s.edit)
	api.DELETE("/delete/:ticker", s.delete)

	s.engine = r
	return s
}

// Handler returns the http.Handler of the server.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully and drains the tracker's pending writes.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info().Str("addr", addr).Msg("listening")

	var serveErr error
	select {
	case serveErr = <-errc:
	case <-ctx.Done():
		s.log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error().Err(err).Msg("shutdown failed")
	}
	if err := s.tracker.Close(shutdownCtx); err != nil {
		s.log.Error().Err(err).Msg("pending writes lost")
	}
	if errors.Is(serveErr, http.ErrServerClosed) {
		return nil
	}
	return serveErr
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.log.Debug().
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", c.Writer.Status()).
		Dur("latency", time.Since(start)).
		Msg("request")
}

// requireSession loads the session from its cookie, or calls deny.
func (s *Server) requireSession(deny gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(sessionCookie)
		if err != nil {
			deny(c)
			c.Abort()
			return
		}
		sess, err := s.sessions.Parse(cookie)
		if err != nil {
			s.log.Debug().Err(err).Msg("rejected session")
			deny(c)
			c.Abort()
			return
		}
		c.Set("session", sess)
		c.Next()
	}
}

func session(c *gin.Context) Session { return c.MustGet("session").(Session) }

func (s *Server) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", c.Request.TLS != nil, true)
}

func (s *Server) login(c *gin.Context) {
	state := uuid.NewString()
	s.setCookie(c, stateCookie, state, 600)
	c.Redirect(http.StatusFound, s.identity.AuthCodeURL(state))
}

func (s *Server) callback(c *gin.Context) {
	state, err := c.Cookie(stateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		c.String(http.StatusBadRequest, "invalid state")
		return
	}
	s.setCookie(c, stateCookie, "", -1)

	sess, err := s.identity.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		s.log.Warn().Err(err).Msg("sign in failed")
		c.String(http.StatusUnauthorized, "sign in failed")
		return
	}
	token, err := s.sessions.Issue(sess)
	if err != nil {
		s.log.Error().Err(err).Msg("cannot issue session")
		c.String(http.StatusInternalServerError, "cannot sign in")
		return
	}
	s.setCookie(c, sessionCookie, token, int(s.sessions.ttl.Seconds()))
	s.log.Info().Str("user", sess.Email).Msg("signed in")
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) logout(c *gin.Context) {
	s.setCookie(c, sessionCookie, "", -1)
	c.Redirect(http.StatusFound, "/")
}

// index renders the portfolio read from the user's drive.
func (s *Server) index(c *gin.Context) {
	sess := session(c)
	v := s.tracker.View(c.Request.Context(), sess.Email, sess.Token)
	c.HTML(http.StatusOK, "index", gin.H{"Email": sess.Email, "Valuation": v})
}

// report renders the portfolio as a printable markdown report.
func (s *Server) report(c *gin.Context) {
	sess := session(c)
	v := s.tracker.View(c.Request.Context(), sess.Email, sess.Token)
	body, err := renderer.HTML(renderer.ValuationMarkdown(v))
	if err != nil {
		c.String(http.StatusInternalServerError, "cannot render report")
		return
	}
	c.HTML(http.StatusOK, "report", template.HTML(body))
}

// add returns the portfolio fragment, valued from the caches.
func (s *Server) add(c *gin.Context) {
	sess := session(c)
	qty, err := folio.ParseQuantity(c.PostForm("quantity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	v, err := s.tracker.Add(c.Request.Context(), sess.Email, sess.Token, c.PostForm("ticker"), qty)
	if errors.Is(err, folio.ErrEmptyTicker) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.fail(c, sess, err)
		return
	}
	c.HTML(http.StatusOK, "portfolio", v)
}

// edit returns the new quantity.
func (s *Server) edit(c *gin.Context) {
	sess := session(c)
	qty, err := folio.ParseQuantity(c.PostForm("quantity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.tracker.Edit(c.Request.Context(), sess.Email, sess.Token, c.Param("ticker"), qty); err != nil {
		s.fail(c, sess, err)
		return
	}
	c.String(http.StatusOK, qty.String())
}

func (s *Server) delete(c *gin.Context) {
	sess := session(c)
	if err := s.tracker.Delete(c.Request.Context(), sess.Email, sess.Token, c.Param("ticker")); err != nil {
		s.fail(c, sess, err)
		return
	}
	c.Status(http.StatusOK)
}

// fail reports a portfolio that could not be loaded.
func (s *Server) fail(c *gin.Context, sess Session, err error) {
	s.log.Error().Err(err).Str("user", sess.Email).Str("path", c.Request.URL.Path).Msg("cannot update portfolio")
	c.JSON(http.StatusBadGateway, gin.H{"error": "portfolio unavailable"})
}
