package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/anvil/pkg/catalog"
	"github.com/dmitrymomot/anvil/pkg/cookie"
	"github.com/dmitrymomot/anvil/pkg/event"
	"github.com/dmitrymomot/anvil/pkg/session"
)

// Context provides request/response access and helper methods.
// It also implements context.Context by delegating to the request context.
type Context interface {
	context.Context

	// Request returns the underlying *http.Request.
	Request() *http.Request

	// Response returns the wrapped http.ResponseWriter.
	Response() http.ResponseWriter

	// Context returns the request's context.Context.
	Context() context.Context

	// Param returns the URL parameter value by name, or "".
	Param(name string) string

	// Query returns the query parameter value by name, or "".
	Query(name string) string

	// QueryDefault returns the query parameter value or a default.
	QueryDefault(name, defaultValue string) string

	// Form returns the form value by name, parsing the body on first access.
	Form(name string) string

	// FormFile returns the first file for the given form key.
	FormFile(name string) (multipart.File, *multipart.FileHeader, error)

	// BindJSON decodes the JSON request body into v.
	// Malformed bodies yield a 400 HTTPError.
	BindJSON(v any) error

	Header(name string) string
	SetHeader(name, value string)

	// JSON writes a JSON response with the given status code.
	JSON(code int, v any) error

	// String writes a plain text response with the given status code.
	String(code int, s string) error

	// NoContent writes a response with no body.
	NoContent(code int) error

	// Redirect redirects to url with the given status code.
	Redirect(code int, url string) error

	// Error creates an HTTPError without writing a response.
	// Return it from the handler to trigger the error handler.
	Error(code int, message string, opts ...HTTPErrorOption) *HTTPError

	// Written returns true if a response has already been written.
	Written() bool

	// Route returns the catalog route that matched the request.
	// Routes resolved by a module's AutoRoute are named "module:controller/action".
	Route() (catalog.Route, bool)

	// URL builds the path of the route serving action of controller.
	// Params fill the path placeholders; the rest become the query string.
	URL(controller, action string, params map[string]string) (string, error)

	// Dispatch publishes an event. Async events go through the event queue
	// when one is configured; others run their listeners before Dispatch returns.
	Dispatch(name string, payload any) error

	// DispatchTx enqueues an event inside tx; it is delivered only if tx commits.
	// Returns ErrEventQueueNotConfigured without a River event queue.
	DispatchTx(tx pgx.Tx, name string, payload any) error

	// Logger returns the request logger.
	Logger() *slog.Logger

	LogDebug(msg string, attrs ...any)
	LogInfo(msg string, attrs ...any)
	LogWarn(msg string, attrs ...any)
	LogError(msg string, attrs ...any)

	// Set stores a value in the request context.
	Set(key any, value any)

	// Get retrieves a value from the request context, or nil.
	Get(key any) any

	Cookie(name string) (string, error)
	SetCookie(name, value string, maxAge int)
	DeleteCookie(name string)

	// CookieSigned returns a signed cookie value.
	// Returns cookie.ErrNoSecret if no secret is configured.
	CookieSigned(name string) (string, error)
	SetCookieSigned(name, value string, maxAge int) error

	// CookieEncrypted returns an encrypted cookie value.
	// Returns cookie.ErrNoSecret if no secret is configured.
	CookieEncrypted(name string) (string, error)
	SetCookieEncrypted(name, value string, maxAge int) error

	// Flash reads and deletes a flash message.
	Flash(key string, dest any) error
	SetFlash(key string, value any) error

	// Session returns the current session, or nil, nil if the request has none.
	// Returns session.ErrNotConfigured if WithSession was not used.
	Session() (*session.Session, error)

	// InitSession creates a new session for this request.
	InitSession() error

	// AuthenticateSession attaches a user to the session and rotates its token,
	// creating the session if needed.
	AuthenticateSession(userID string) error

	// SessionValue returns a session value, or nil if it is not set.
	// Returns session.ErrNotFound if there is no session.
	SessionValue(key string) (any, error)
	SetSessionValue(key string, val any) error
	DeleteSessionValue(key string) error

	// DestroySession deletes the session and clears its cookie.
	DestroySession() error

	// UserID returns the user attached to the session, or "".
	UserID() string
	IsAuthenticated() bool
	IsCurrentUser(id string) bool

	// ResponseWriter returns the response wrapper.
	ResponseWriter() *ResponseWriter
}

// requestState is shared by every Context created for the same request,
// so middleware and actions see one session and one matched route.
type requestState struct {
	session               *session.Session
	route                 *catalog.Route
	sessionLoaded         bool
	sessionHookRegistered bool
}

type requestStateKey struct{}

// requestContext implements the Context interface.
type requestContext struct {
	request  *http.Request
	response *ResponseWriter
	state    *requestState
	app      *App
}

func newContext(w http.ResponseWriter, r *http.Request, app *App) *requestContext {
	state, ok := r.Context().Value(requestStateKey{}).(*requestState)
	if !ok {
		state = &requestState{}
		r = r.WithContext(context.WithValue(r.Context(), requestStateKey{}, state))
	}
	return &requestContext{
		request:  r,
		response: NewResponseWriter(w),
		state:    state,
		app:      app,
	}
}

func (c *requestContext) Request() *http.Request        { return c.request }
func (c *requestContext) Response() http.ResponseWriter { return c.response }
func (c *requestContext) Context() context.Context      { return c.request.Context() }

func (c *requestContext) Deadline() (time.Time, bool) { return c.request.Context().Deadline() }
func (c *requestContext) Done() <-chan struct{}       { return c.request.Context().Done() }
func (c *requestContext) Err() error                  { return c.request.Context().Err() }
func (c *requestContext) Value(key any) any           { return c.request.Context().Value(key) }

func (c *requestContext) Param(name string) string {
	return chi.URLParam(c.request, name)
}

func (c *requestContext) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

func (c *requestContext) QueryDefault(name, defaultValue string) string {
	if v := c.request.URL.Query().Get(name); v != "" {
		return v
	}
	return defaultValue
}

func (c *requestContext) Form(name string) string {
	return c.request.FormValue(name)
}

func (c *requestContext) FormFile(name string) (multipart.File, *multipart.FileHeader, error) {
	return c.request.FormFile(name)
}

func (c *requestContext) BindJSON(v any) error {
	dec := json.NewDecoder(c.request.Body)
	if err := dec.Decode(v); err != nil {
		return ErrBadRequest("invalid JSON body", WithError(err))
	}
	return nil
}

func (c *requestContext) Header(name string) string {
	return c.request.Header.Get(name)
}

func (c *requestContext) SetHeader(name, value string) {
	c.response.Header().Set(name, value)
}

func (c *requestContext) JSON(code int, v any) error {
	c.response.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.response.WriteHeader(code)
	return json.NewEncoder(c.response).Encode(v)
}

func (c *requestContext) String(code int, s string) error {
	c.response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.response.WriteHeader(code)
	_, err := c.response.Write([]byte(s))
	return err
}

func (c *requestContext) NoContent(code int) error {
	c.response.WriteHeader(code)
	return nil
}

func (c *requestContext) Redirect(code int, url string) error {
	http.Redirect(c.response, c.request, url, code)
	return nil
}

func (c *requestContext) Error(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(code, message, opts...)
}

func (c *requestContext) Written() bool {
	return c.response.Written()
}

func (c *requestContext) Route() (catalog.Route, bool) {
	if c.state.route == nil {
		return catalog.Route{}, false
	}
	return *c.state.route, true
}

func (c *requestContext) setRoute(r catalog.Route) {
	c.state.route = &r
}

func (c *requestContext) URL(controller, action string, params map[string]string) (string, error) {
	return c.app.routes.URL(c.Context(), controller, action, params)
}

func (c *requestContext) Dispatch(name string, payload any) error {
	return c.app.Dispatch(c.Context(), name, payload)
}

func (c *requestContext) DispatchTx(tx pgx.Tx, name string, payload any) error {
	if c.app.queue == nil {
		return ErrEventQueueNotConfigured
	}
	e, err := event.New(name, payload)
	if err != nil {
		return err
	}
	return c.app.queue.EnqueueTx(c.Context(), tx, e)
}

func (c *requestContext) Logger() *slog.Logger {
	return c.app.logger
}

func (c *requestContext) LogDebug(msg string, attrs ...any) {
	c.app.logger.DebugContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogInfo(msg string, attrs ...any) {
	c.app.logger.InfoContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogWarn(msg string, attrs ...any) {
	c.app.logger.WarnContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogError(msg string, attrs ...any) {
	c.app.logger.ErrorContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) Set(key, value any) {
	c.request = c.request.WithContext(context.WithValue(c.request.Context(), key, value))
}

func (c *requestContext) Get(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) cookies() *cookie.Manager {
	return c.app.cookieManager
}

func (c *requestContext) Cookie(name string) (string, error) {
	return c.cookies().Get(c.request, name)
}

func (c *requestContext) SetCookie(name, value string, maxAge int) {
	c.cookies().Set(c.response, name, value, maxAge)
}

func (c *requestContext) DeleteCookie(name string) {
	c.cookies().Delete(c.response, name)
}

func (c *requestContext) CookieSigned(name string) (string, error) {
	return c.cookies().GetSigned(c.request, name)
}

func (c *requestContext) SetCookieSigned(name, value string, maxAge int) error {
	return c.cookies().SetSigned(c.response, name, value, maxAge)
}

func (c *requestContext) CookieEncrypted(name string) (string, error) {
	return c.cookies().GetEncrypted(c.request, name)
}

func (c *requestContext) SetCookieEncrypted(name, value string, maxAge int) error {
	return c.cookies().SetEncrypted(c.response, name, value, maxAge)
}

func (c *requestContext) Flash(key string, dest any) error {
	return c.cookies().Flash(c.response, c.request, key, dest)
}

func (c *requestContext) SetFlash(key string, value any) error {
	return c.cookies().SetFlash(c.response, key, value)
}

// registerSessionHook saves a dirty session right before the response starts.
func (c *requestContext) registerSessionHook() {
	sm := c.app.sessionManager
	if c.state.sessionHookRegistered || sm == nil {
		return
	}
	c.state.sessionHookRegistered = true

	ctx := c.Context()
	c.response.OnBeforeWrite(func() {
		sess := c.state.session
		if sess == nil || !sess.IsDirty() {
			return
		}
		// Best effort: the response is already being rendered.
		if err := sm.Store().Update(ctx, sess); err != nil {
			c.app.logger.ErrorContext(ctx, "failed to save session",
				slog.String("session_id", sess.ID),
				slog.Any("error", err),
			)
			return
		}
		sess.ClearDirty()
	})
}

func (c *requestContext) Session() (*session.Session, error) {
	sm := c.app.sessionManager
	if sm == nil {
		return nil, session.ErrNotConfigured
	}
	c.registerSessionHook()

	if c.state.sessionLoaded {
		return c.state.session, nil
	}

	sess, err := sm.LoadSession(c.Context(), c.request)
	if err != nil {
		return nil, err
	}
	c.state.session = sess
	c.state.sessionLoaded = true
	return sess, nil
}

func (c *requestContext) InitSession() error {
	sm := c.app.sessionManager
	if sm == nil {
		return session.ErrNotConfigured
	}
	c.registerSessionHook()

	sess, err := sm.CreateSession(c.Context(), c.request)
	if err != nil {
		return err
	}
	c.state.session = sess
	c.state.sessionLoaded = true
	sm.SaveSession(c.response, sess)
	return nil
}

func (c *requestContext) AuthenticateSession(userID string) error {
	sm := c.app.sessionManager
	if sm == nil {
		return session.ErrNotConfigured
	}

	sess, err := c.Session()
	if err != nil {
		c.LogWarn("failed to load session", slog.Any("error", err))
	}
	if sess == nil {
		if err := c.InitSession(); err != nil {
			return err
		}
		sess = c.state.session
	}

	sess.SetUser(userID)
	if err := sm.RotateToken(c.Context(), sess); err != nil {
		return fmt.Errorf("rotate session token: %w", err)
	}
	sm.SaveSession(c.response, sess)
	return nil
}

func (c *requestContext) currentSession() (*session.Session, error) {
	sess, err := c.Session()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, session.ErrNotFound
	}
	return sess, nil
}

func (c *requestContext) SessionValue(key string) (any, error) {
	sess, err := c.currentSession()
	if err != nil {
		return nil, err
	}
	val, _ := sess.GetValue(key)
	return val, nil
}

func (c *requestContext) SetSessionValue(key string, val any) error {
	sess, err := c.currentSession()
	if err != nil {
		return err
	}
	sess.SetValue(key, val)
	return nil
}

func (c *requestContext) DeleteSessionValue(key string) error {
	sess, err := c.currentSession()
	if err != nil {
		return err
	}
	sess.DeleteValue(key)
	return nil
}

func (c *requestContext) DestroySession() error {
	sm := c.app.sessionManager
	if sm == nil {
		return session.ErrNotConfigured
	}

	sess, err := c.Session()
	if err != nil {
		return err
	}
	if sess != nil {
		if err := sm.Store().Delete(c.Context(), sess.ID); err != nil {
			return err
		}
	}
	sm.DeleteSession(c.response)

	c.state.session = nil
	c.state.sessionLoaded = true
	return nil
}

func (c *requestContext) UserID() string {
	sess, err := c.Session()
	if err != nil || sess == nil || sess.UserID == nil {
		return ""
	}
	return *sess.UserID
}

func (c *requestContext) IsAuthenticated() bool {
	return c.UserID() != ""
}

func (c *requestContext) IsCurrentUser(id string) bool {
	uid := c.UserID()
	return uid != "" && uid == id
}

func (c *requestContext) ResponseWriter() *ResponseWriter {
	return c.response
}
