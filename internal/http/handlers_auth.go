package http

import (
	"errors"
	"net/http"

	"finview/internal/identity"
	"finview/internal/log"
	"finview/internal/store"

	"golang.org/x/crypto/bcrypt"
)

// providerCookie holds the raw provider access token so logout can revoke
// the remote session. The app's own session lives in identity.SessionCookie.
const providerCookie = "provider_token"

type authPage struct {
	Title string
	Error string
	Email string
	Info  string
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, err := s.tokens.FromRequest(r); err == nil {
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}
		s.render(w, r, "login.html", authPage{Title: "Sign in"})
	case http.MethodPost:
		s.handleLoginSubmit(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid request.")
		return
	}
	email := sanitizeInput(r.Form.Get("email"))
	password := r.Form.Get("password")
	if email == "" || password == "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "login.html", authPage{Title: "Sign in", Error: "Email and password are required.", Email: email})
		return
	}

	session, err := s.provider.SignIn(r.Context(), email, password)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		logger.WarnContext(r.Context(), "Login rejected", log.FieldOperation, log.OpLogin, "email", email)
		w.WriteHeader(http.StatusUnauthorized)
		s.render(w, r, "login.html", authPage{Title: "Sign in", Error: "Invalid email or password.", Email: email})
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "Identity provider sign in failed",
			log.FieldError, err.Error(), log.FieldOperation, log.OpLogin)
		s.renderError(w, r, http.StatusBadGateway, "Sign in is temporarily unavailable. Please try again.")
		return
	}

	// Provision the local profile lazily for accounts that only exist at
	// the provider.
	if _, err := s.store.GetUserByEmail(r.Context(), session.Email); errors.Is(err, store.ErrNotFound) {
		if err := s.createLocalUser(r, session.Email, password, session.FullName); err != nil && !errors.Is(err, store.ErrDuplicateEmail) {
			s.renderError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again.")
			return
		}
	} else if err != nil {
		logger.ErrorContext(r.Context(), "User lookup failed", log.FieldError, err.Error())
		s.renderError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	if err := s.establishSession(w, r, session); err != nil {
		s.renderError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}
	logger.InfoContext(r.Context(), "User signed in", log.FieldOperation, log.OpLogin, "email", session.Email)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "register.html", authPage{Title: "Create account"})
	case http.MethodPost:
		s.handleRegisterSubmit(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRegisterSubmit(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid request.")
		return
	}
	email := sanitizeInput(r.Form.Get("email"))
	password := r.Form.Get("password")
	fullName := sanitizeInput(r.Form.Get("full_name"))
	if email == "" || password == "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "register.html", authPage{Title: "Create account", Error: "Email and password are required.", Email: email})
		return
	}
	if len(password) < 8 {
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "register.html", authPage{Title: "Create account", Error: "Password must be at least 8 characters.", Email: email})
		return
	}

	session, err := s.provider.SignUp(r.Context(), email, password, fullName)
	if errors.Is(err, identity.ErrEmailTaken) {
		w.WriteHeader(http.StatusConflict)
		s.render(w, r, "register.html", authPage{Title: "Create account", Error: "This email is already registered.", Email: email})
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "Identity provider sign up failed",
			log.FieldError, err.Error(), log.FieldOperation, log.OpRegister)
		s.renderError(w, r, http.StatusBadGateway, "Registration is temporarily unavailable. Please try again.")
		return
	}

	if err := s.createLocalUser(r, session.Email, password, fullName); err != nil && !errors.Is(err, store.ErrDuplicateEmail) {
		s.renderError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	if err := s.establishSession(w, r, session); err != nil {
		s.renderError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}
	logger.InfoContext(r.Context(), "User registered", log.FieldOperation, log.OpRegister, "email", session.Email)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Revoke the provider session if we still hold its token.
	if c, err := r.Cookie(providerCookie); err == nil && c.Value != "" {
		if err := s.provider.SignOut(r.Context(), c.Value); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Provider sign out failed",
				log.FieldError, err.Error(), log.FieldOperation, log.OpLogout)
		}
	}

	s.tokens.ClearCookie(w)
	http.SetCookie(w, &http.Cookie{Name: providerCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	http.Redirect(w, r, "/auth/login", http.StatusFound)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "reset_password.html", authPage{Title: "Reset password"})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			s.renderError(w, r, http.StatusBadRequest, "Invalid request.")
			return
		}
		email := sanitizeInput(r.Form.Get("email"))
		if email == "" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			s.render(w, r, "reset_password.html", authPage{Title: "Reset password", Error: "Email is required."})
			return
		}
		if err := s.provider.SendPasswordReset(r.Context(), email); err != nil {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Password reset failed",
				log.FieldError, err.Error())
		}
		// Same response whether or not the account exists.
		s.render(w, r, "reset_password.html", authPage{
			Title: "Reset password",
			Info:  "If that email is registered, a reset link is on its way.",
		})
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) createLocalUser(r *http.Request, email, password, fullName string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Password hash failed",
			log.FieldError, err.Error())
		return err
	}
	if _, err := s.store.CreateUser(r.Context(), email, string(hashed), fullName); err != nil {
		if !errors.Is(err, store.ErrDuplicateEmail) {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Create local user failed",
				log.FieldError, err.Error())
		}
		return err
	}
	return nil
}

func (s *Server) establishSession(w http.ResponseWriter, r *http.Request, session *identity.Session) error {
	token, err := s.tokens.Mint(session.Email, timeNow())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Session token mint failed",
			log.FieldError, err.Error())
		return err
	}
	s.tokens.SetCookie(w, token)
	if session.AccessToken != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     providerCookie,
			Value:    session.AccessToken,
			Path:     "/",
			HttpOnly: true,
			Secure:   s.cfg.IsProduction(),
			SameSite: http.SameSiteLaxMode,
		})
	}
	return nil
}
