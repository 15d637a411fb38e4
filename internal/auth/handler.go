package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/user-auth-service/internal/logging"
	"github.com/ayush/user-auth-service/internal/models"
	"github.com/ayush/user-auth-service/internal/session"
)

// TokenHeader carries the session token for clients that do not keep cookies.
const TokenHeader = "X-Session-Token"

// SessionManager issues and revokes login sessions.
type SessionManager interface {
	Issue(ctx context.Context, username string) (session.Session, error)
	Revoke(ctx context.Context, s session.Session) error
	TTL() time.Duration
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	service      *Service
	sessions     SessionManager
	logger       logging.Logger
	cookieSecure bool
}

func NewHandler(service *Service, sessions SessionManager, logger logging.Logger, cookieSecure bool) *Handler {
	return &Handler{
		service:      service,
		sessions:     sessions,
		logger:       logger.With("module", "auth_handler"),
		cookieSecure: cookieSecure,
	}
}

// Routes returns the auth routes, meant to be mounted under /api/auth behind
// a middleware that loads the caller's session into the request context.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.handle(h.Register))
	r.Post("/login", h.handle(h.Login))
	r.Post("/logout", h.handle(h.Logout))
	r.Get("/status", h.handle(h.Status))
	r.Get("/users", h.handle(h.ListUsers))
	return r
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

var errBadBody = errors.New("invalid request body")

// handle writes the error response for any error fn returns.
func (h *Handler) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			h.writeError(w, r, err)
		}
	}
}

// Register creates a new user.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) error {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errBadBody
	}
	if err := req.Validate(); err != nil {
		return NewValidationError(err.Error())
	}

	user, err := h.service.Register(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, models.APIResponse{
		Success: true,
		Message: "user registered successfully",
		Data:    user.Username,
	})
	return nil
}

// Login authenticates a user and starts a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) error {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errBadBody
	}
	if err := req.Validate(); err != nil {
		return NewValidationError(err.Error())
	}

	user, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	s, err := h.sessions.Issue(r.Context(), user.Username)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    s.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessions.TTL() / time.Second),
	})
	w.Header().Set(TokenHeader, s.Token)

	h.logger.Info(r.Context(), "user logged in", "user_id", user.ID, "username", user.Username)
	writeJSON(w, http.StatusOK, models.APIResponse{
		Success: true,
		Message: "login successful",
		Data:    user.Username,
	})
	return nil
}

// Logout ends the caller's session and marks the user inactive.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) error {
	s, ok := session.FromContext(r.Context())
	if !ok {
		return ErrNoActiveSession
	}

	// the session must stay live until the user write succeeds
	if err := h.service.Logout(r.Context(), s.Username); err != nil {
		return err
	}

	if err := h.sessions.Revoke(r.Context(), s); err != nil {
		h.logger.Error(r.Context(), "revoke session after logout", "username", s.Username, "error", err)
		return err
	}
	h.clearCookie(w)

	writeJSON(w, http.StatusOK, models.APIResponse{
		Success: true,
		Message: "logout successful",
	})
	return nil
}

// Status reports the user behind the caller's session.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) error {
	s, ok := session.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.APIResponse{
			Message: ErrNoActiveSession.Message,
		})
		return nil
	}

	writeJSON(w, http.StatusOK, models.APIResponse{
		Success: true,
		Message: "session active",
		Data:    s.Username,
	})
	return nil
}

// ListUsers returns the public view of every registered user.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) error {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		return err
	}

	infos := make([]models.UserInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, models.NewUserInfo(u))
	}

	msg := "users retrieved successfully"
	if len(infos) == 0 {
		msg = "no users registered"
	}

	writeJSON(w, http.StatusOK, models.APIResponse{
		Success: true,
		Message: msg,
		Data:    infos,
	})
	return nil
}

func (h *Handler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errBadBody) {
		writeJSON(w, http.StatusBadRequest, models.APIResponse{Message: errBadBody.Error()})
		return
	}

	var ae *Error
	if !errors.As(err, &ae) {
		h.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, models.APIResponse{Message: "internal server error"})
		return
	}

	writeJSON(w, statusFor(ae.Kind), models.APIResponse{Message: ae.Message})
}

func statusFor(k Kind) int {
	switch k {
	case KindValidation, KindNoActiveSession:
		return http.StatusBadRequest
	case KindDuplicateUsername, KindDuplicateEmail:
		return http.StatusConflict
	case KindUserNotFound:
		return http.StatusNotFound
	case KindInvalidCredentials, KindUserInactive:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
