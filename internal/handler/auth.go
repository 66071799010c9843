package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/conductor/internal/apperr"
	"github.com/iliyamo/conductor/internal/middleware"
	"github.com/iliyamo/conductor/internal/model"
	"github.com/iliyamo/conductor/internal/service"
)

// RefreshCookie is the name of the HttpOnly cookie carrying the refresh token.
const RefreshCookie = "refresh_token"

// CookieConfig controls the refresh cookie attributes.
type CookieConfig struct {
	Secure   bool
	SameSite http.SameSite
	Path     string
	TTL      time.Duration
}

// AuthObserver counts session outcomes; the prometheus metrics implement it.
type AuthObserver interface {
	ObserveAuth(op, outcome string)
}

type nopObserver struct{}

func (nopObserver) ObserveAuth(string, string) {}

// AuthHandler bundles dependencies for the session endpoints.
type AuthHandler struct {
	sessions *service.SessionService
	users    *service.UserService
	cookie   CookieConfig
	observer AuthObserver
	log      *zap.Logger
}

func NewAuthHandler(sessions *service.SessionService, users *service.UserService, cookie CookieConfig, observer AuthObserver, log *zap.Logger) *AuthHandler {
	if observer == nil {
		observer = nopObserver{}
	}
	if cookie.Path == "" {
		cookie.Path = "/api/v1"
	}
	return &AuthHandler{sessions: sessions, users: users, cookie: cookie, observer: observer, log: log.Named("auth")}
}

// ----- DTOs -----

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	User credentials `json:"user"`
}

type signupUser struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
}

type signupReq struct {
	User signupUser `json:"user"`
}

type loginData struct {
	UserID    uint64     `json:"user_id"`
	UserEmail string     `json:"user_email"`
	UserName  string     `json:"user_name"`
	UserType  model.Role `json:"user_type"`
	Token     string     `json:"token"`
}

type sessionUser struct {
	ID    uint64     `json:"id"`
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Role  model.Role `json:"role"`
}

func toSessionUser(u model.User) sessionUser {
	return sessionUser{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, raw string, exp time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookie,
		Value:    raw,
		Path:     h.cookie.Path,
		Expires:  exp,
		MaxAge:   int(h.cookie.TTL / time.Second),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.SameSite,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookie,
		Value:    "",
		Path:     h.cookie.Path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.SameSite,
	})
}

func refreshFromCookie(c echo.Context) string {
	ck, err := c.Cookie(RefreshCookie)
	if err != nil {
		return ""
	}
	return ck.Value
}

// Login verifies the credentials, returns an access token and sets the
// refresh cookie. Failures answer 401 inside the status envelope.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequestMsg("Invalid request body")
	}
	sess, err := h.sessions.Login(c.Request().Context(), req.User.Email, req.User.Password, c.RealIP())
	if err != nil {
		if e, ok := apperr.From(err); ok && e.Kind == apperr.Authentication {
			h.observer.ObserveAuth("login", "rejected")
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"status": status{Code: http.StatusUnauthorized, Message: e.Message},
			})
		}
		h.observer.ObserveAuth("login", "error")
		return err
	}
	h.observer.ObserveAuth("login", "ok")
	h.setRefreshCookie(c, sess.Refresh.Raw, sess.Refresh.Exp)
	return c.JSON(http.StatusOK, echo.Map{
		"status": status{Code: http.StatusOK, Message: "Logged in successfully."},
		"data": loginData{
			UserID:    sess.User.ID,
			UserEmail: sess.User.Email,
			UserName:  sess.User.Name,
			UserType:  sess.User.Role,
			Token:     sess.Access.Token,
		},
	})
}

// Logout ends the session of the refresh cookie, or of the bearer token's
// user when the cookie is gone. It always answers 204 and clears the cookie.
// Access tokens already issued stay valid until they expire.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	var userID uint64
	if raw, ok := middleware.BearerToken(c); ok {
		if u, _, err := h.sessions.Authenticate(ctx, raw); err == nil {
			userID = u.ID
		}
	}
	if err := h.sessions.Logout(ctx, refreshFromCookie(c), userID); err != nil {
		return err
	}
	h.observer.ObserveAuth("logout", "ok")
	h.clearRefreshCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// Refresh mints a new access token from the refresh cookie. The cookie is
// cleared when it is rejected.
func (h *AuthHandler) Refresh(c echo.Context) error {
	u, access, err := h.sessions.Refresh(c.Request().Context(), refreshFromCookie(c))
	if err != nil {
		if apperr.KindOf(err) == apperr.Authentication {
			h.observer.ObserveAuth("refresh", "rejected")
			h.clearRefreshCookie(c)
		}
		return err
	}
	h.observer.ObserveAuth("refresh", "ok")
	return c.JSON(http.StatusOK, echo.Map{"token": access.Token, "user": toSessionUser(u)})
}

// Verify reports the user of a valid access token. JWTAuth has already
// rejected anything else.
func (h *AuthHandler) Verify(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	return c.JSON(http.StatusOK, echo.Map{"authenticated": true, "user": toSessionUser(u)})
}

// Signup registers a standard user.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := bind(c, &req); err != nil {
		return err
	}
	u, err := h.users.Signup(c.Request().Context(), service.UserInput{
		Email:    req.User.Email,
		Password: req.User.Password,
		Name:     req.User.Name,
	})
	if err != nil {
		return err
	}
	h.log.Info("signup", zap.Uint64("user_id", u.ID))
	return c.JSON(http.StatusCreated, echo.Map{
		"status": status{Code: http.StatusCreated, Message: "Signed up successfully."},
		"data": echo.Map{
			"id":         u.ID,
			"email":      u.Email,
			"name":       u.Name,
			"created_at": u.CreatedAt,
		},
	})
}

// Me returns the authenticated user in the status envelope.
func (h *AuthHandler) Me(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	return c.JSON(http.StatusOK, echo.Map{
		"status": status{Code: http.StatusOK, Message: "User retrieved successfully."},
		"data": echo.Map{
			"user": echo.Map{"id": u.ID, "email": u.Email, "role": u.Role},
		},
	})
}
