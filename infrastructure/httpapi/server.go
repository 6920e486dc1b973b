// Package httpapi exposes the account endpoints and the websocket entry
// point. It is presentation glue: no chat policy lives here.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/samber/lo"

	"pairchat/auth"
	"pairchat/contract"
	"pairchat/domain"
	apperrors "pairchat/errors"
	"pairchat/repositories"
	"pairchat/services"
)

type Server struct {
	log      *slog.Logger
	auth     services.IAuthService
	users    repositories.IUserRepository
	presence contract.IPresence
	tokens   *auth.TokenIssuer
	ws       http.Handler
}

func NewServer(log *slog.Logger, authService services.IAuthService,
	users repositories.IUserRepository, presence contract.IPresence,
	tokens *auth.TokenIssuer, ws http.Handler) *Server {
	return &Server{
		log:      log,
		auth:     authService,
		users:    users,
		presence: presence,
		tokens:   tokens,
		ws:       ws,
	}
}

// Routes builds the service mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("GET /api/contacts", s.handleContacts)
	mux.Handle("GET /ws", s.ws)
	return mux
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type contactResponse struct {
	Username string `json:"username"`
	IsOnline bool   `json:"is_online"`
	LastSeen string `json:"last_seen"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	token, err := s.auth.Register(req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		http.Error(w, "username already taken", http.StatusConflict)
		return
	case errors.Is(err, apperrors.ErrInvalidPassword):
		http.Error(w, "invalid username or password shape", http.StatusBadRequest)
		return
	default:
		s.log.Error("register failed", "username", req.Username, "error", err)
		http.Error(w, "registration failed", http.StatusInternalServerError)
		return
	}

	s.log.Info("new user registered", "username", req.Username)
	s.writeSession(w, token)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	token, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		s.log.Warn("failed login attempt", "username", req.Username)
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	s.log.Info("user logged in", "username", req.Username)
	s.writeSession(w, token)
}

// handleContacts returns every other account with its live presence, the
// roster a client renders next to the conversation pane.
func (s *Server) handleContacts(w http.ResponseWriter, r *http.Request) {
	identity := s.tokens.IdentityFromRequest(r)
	if identity == "" {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	users, err := s.users.List()
	if err != nil {
		s.log.Error("listing users failed", "error", err)
		http.Error(w, "contact listing failed", http.StatusInternalServerError)
		return
	}

	contacts := lo.FilterMap(users, func(u domain.User, _ int) (contactResponse, bool) {
		if u.Username == identity {
			return contactResponse{}, false
		}
		return s.toContact(u), true
	})
	writeJSON(w, http.StatusOK, contacts)
}

// toContact merges the durable account record with live presence. The
// in-process tracker wins while the user is online or was seen during this
// process lifetime; otherwise the persisted last-seen is used.
func (s *Server) toContact(u domain.User) contactResponse {
	if s.presence.IsOnline(u.Username) {
		return contactResponse{Username: u.Username, IsOnline: true}
	}
	lastSeen := u.LastSeen
	if at, ok := s.presence.LastSeen(u.Username); ok {
		lastSeen = at
	}
	contact := contactResponse{Username: u.Username}
	if !lastSeen.IsZero() {
		contact.LastSeen = lastSeen.Format(domain.LastSeenLayout)
	}
	return contact
}

func (s *Server) writeSession(w http.ResponseWriter, token services.Token) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    string(token),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, tokenResponse{Token: string(token)})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
