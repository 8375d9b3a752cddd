package transport

import (
	"net/http"

	"fusionic/internal/middleware"
	"fusionic/internal/repository"
	"fusionic/internal/service"
	"fusionic/internal/session"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterForm carries the registration form fields
type RegisterForm struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

// LoginForm carries the login form fields
type LoginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// UserHandler serves registration, login, and logout
type UserHandler struct {
	users    service.UserService
	sessions *session.Manager
	logger   *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users service.UserService, sessions *session.Manager, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

// RegisterRoutes registers the auth routes; the POST endpoints run behind the
// rate limiter.
func (h *UserHandler) RegisterRoutes(r chi.Router, rateLimit func(http.Handler) http.Handler) {
	r.Get("/register", h.RegisterForm)
	r.Get("/login", h.LoginForm)
	r.Get("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(rateLimit)
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})
}

// RegisterForm serves the (empty) registration form data
func (h *UserHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{})
}

// LoginForm serves the (empty) login form data
func (h *UserHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{})
}

// Register handles the registration form submission
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	form := RegisterForm{
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}

	if err := middleware.ValidateRequest(&form); err != nil {
		h.logger.Debug("Registration validation failed", zap.Error(err))
		middleware.RespondWithValidationErrors(w, middleware.FormatValidationErrors(err))
		return
	}

	user, err := h.users.Register(r.Context(), form.Name, form.Email, form.Password)
	if err != nil {
		if err == repository.ErrUserAlreadyExists {
			middleware.RespondWithError(w, http.StatusConflict, "user with this email already exists")
			return
		}
		h.logger.Error("Registration failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	h.logger.Info("User registered", zap.String("user_id", user.ID.String()))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Login handles the login form submission. Unknown email and wrong password
// produce the identical response on purpose.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	form := LoginForm{
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}

	if err := middleware.ValidateRequest(&form); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "Invalid email or password.")
		return
	}

	user, err := h.users.Login(r.Context(), form.Email, form.Password)
	if err != nil {
		if err == service.ErrInvalidCredentials {
			middleware.RespondWithError(w, http.StatusBadRequest, "Invalid email or password.")
			return
		}
		h.logger.Error("Login failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	sid, ok := middleware.GetSessionID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusInternalServerError, "no session")
		return
	}

	sessionUser := session.SessionUser{
		ID:    user.ID.String(),
		Email: user.Email,
		Roles: user.Roles,
	}
	if err := h.sessions.SetUser(r.Context(), sid, sessionUser); err != nil {
		h.logger.Error("Failed to store session user", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	h.logger.Info("User logged in", zap.String("user_id", user.ID.String()))

	target := "/"
	if user.HasRole("admin") {
		target = "/admin"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Logout destroys the session and clears the cookie
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sid, ok := middleware.GetSessionID(r.Context()); ok {
		if err := h.sessions.Destroy(r.Context(), sid); err != nil {
			h.logger.Error("Failed to destroy session", zap.Error(err))
		}
	}

	h.sessions.Expire(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
