package http

import (
	"errors"
	"net/http"
	"strings"

	"finboard/internal/auth"
	"finboard/internal/log"
)

type authPage struct {
	Title    string
	Error    string
	Username string
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "login.html", authPage{Title: "Log in"})
	case http.MethodPost:
		s.doLogin(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) doLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	ok, err := s.creds.Verify(r.Context(), username, password)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Credential check failed",
			log.FieldError, err.Error(), log.FieldOperation, log.OpVerify)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !ok {
		// Same reply for unknown user and wrong password.
		s.renderStatus(w, r, http.StatusUnauthorized, "login.html", authPage{
			Title:    "Log in",
			Error:    "Invalid username or password.",
			Username: username,
		})
		return
	}

	s.openSession(w, username)
	log.FromContext(r.Context()).InfoContext(r.Context(), "Login", log.FieldUser, username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "register.html", authPage{Title: "Create account"})
	case http.MethodPost:
		s.doRegister(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) doRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	confirm := r.PostFormValue("confirm")

	fail := func(msg string) {
		s.renderStatus(w, r, http.StatusUnprocessableEntity, "register.html", authPage{
			Title:    "Create account",
			Error:    msg,
			Username: username,
		})
	}

	if password != confirm {
		fail("Passwords do not match.")
		return
	}

	err := s.creds.CreateAccount(r.Context(), username, password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrUserExists):
		fail("That username is already taken.")
		return
	case errors.Is(err, auth.ErrInvalidUsername):
		fail("Usernames are 3-32 characters: letters, digits, underscore or hyphen.")
		return
	case errors.Is(err, auth.ErrWeakPassword):
		fail("Passwords must be at least 6 characters.")
		return
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Account creation failed",
			log.FieldError, err.Error(), log.FieldUser, username, log.FieldOperation, log.OpCreate)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// New accounts go straight to the dashboard.
	s.openSession(w, username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		s.sessions.Destroy(cookie.Value)
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) openSession(w http.ResponseWriter, username string) {
	token := s.sessions.Create(username)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
