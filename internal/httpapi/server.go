// Package httpapi serves the moderation API: Telegram-login authentication,
// listing review queues and the approve/decline operations.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yonasy/telegram-house-bot/internal/listing"
	"github.com/yonasy/telegram-house-bot/internal/moderation"
)

// Config holds the HTTP server settings.
type Config struct {
	Listen      string `yaml:"listen" envconfig:"HTTP_LISTEN"`
	TokenSecret string `yaml:"token_secret" envconfig:"HTTP_TOKEN_SECRET"`
}

// Store is the relational surface the API reads from.
type Store interface {
	GetUserByID(ctx context.Context, id int64) (*listing.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*listing.User, error)
	GetListingsByStatus(ctx context.Context, statuses ...listing.ApprovalStatus) ([]listing.Listing, error)
}

// Moderator performs the review transitions.
type Moderator interface {
	Approve(ctx context.Context, id int64) error
	Decline(ctx context.Context, id int64) error
}

// Server is the moderation HTTP API.
type Server struct {
	store     Store
	moderator Moderator
	botToken  string
	secret    []byte
	srv       *http.Server
	now       func() time.Time
}

// NewServer builds the API server. botToken keys the Telegram-login check and
// cfg.TokenSecret keys issued bearer tokens.
func NewServer(cfg Config, botToken string, store Store, moderator Moderator) *Server {
	s := &Server{
		store:     store,
		moderator: moderator,
		botToken:  botToken,
		secret:    []byte(cfg.TokenSecret),
		now:       time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/telegram-login", s.handleTelegramLogin)
	mux.Handle("GET /api/me", s.authenticated(http.HandlerFunc(s.handleMe)))
	mux.Handle("GET /api/pending-listings", s.adminOnly(http.HandlerFunc(s.handlePendingListings)))
	mux.Handle("PATCH /api/listings/{id}/approve", s.adminOnly(s.handleTransition(Moderator.Approve)))
	mux.Handle("PATCH /api/listings/{id}/decline", s.adminOnly(s.handleTransition(Moderator.Decline)))

	s.srv = &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.srv.Addr).Msg("http api listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

type userResponse struct {
	ID        int64   `json:"id"`
	Username  *string `json:"username,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Role      string  `json:"role"`
}

func toUserResponse(u listing.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.TelegramUserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}

// handleTelegramLogin exchanges a verified Telegram Login Widget payload for a
// bearer token. Only users already known to the bot can log in.
func (s *Server) handleTelegramLogin(w http.ResponseWriter, r *http.Request) {
	var data LoginData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, "malformed login payload")
		return
	}
	if err := verifyTelegramLogin(s.botToken, data, s.now()); err != nil {
		log.Warn().Err(err).Int64("telegramUserId", data.ID).Msg("rejected telegram login")
		writeError(w, http.StatusUnauthorized, "login verification failed")
		return
	}

	user, err := s.store.GetUserByTelegramID(r.Context(), data.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if user == nil {
		writeError(w, http.StatusForbidden, "unknown user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": issueToken(s.secret, user.ID, s.now()),
		"user":  toUserResponse(*user),
	})
}

type contextKey struct{}

var userContextKey contextKey

// authenticated resolves the bearer token into a user and puts it on the
// request context.
func (s *Server) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "Bearer "
		header := r.Header.Get("Authorization")
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		userID, err := parseToken(s.secret, header[len(prefix):], s.now())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		user, err := s.store.GetUserByID(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "lookup failed")
			return
		}
		if user == nil {
			writeError(w, http.StatusUnauthorized, "unknown user")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, user)))
	})
}

func (s *Server) adminOnly(next http.Handler) http.Handler {
	return s.authenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := requestUser(r)
		if user == nil || user.Role != listing.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func requestUser(r *http.Request) *listing.User {
	user, _ := r.Context().Value(userContextKey).(*listing.User)
	return user
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	writeJSON(w, http.StatusOK, toUserResponse(*user))
}

func (s *Server) handlePendingListings(w http.ResponseWriter, r *http.Request) {
	listings, err := s.store.GetListingsByStatus(r.Context(), listing.StatusPending)
	if err != nil {
		log.Error().Err(err).Msg("failed to load pending listings")
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if listings == nil {
		listings = []listing.Listing{}
	}
	writeJSON(w, http.StatusOK, listings)
}

// handleTransition adapts one of the moderator's transition methods into a
// handler. A listing past review answers 409 so a stale admin page cannot
// double-apply an outcome.
func (s *Server) handleTransition(op func(Moderator, context.Context, int64) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad listing id")
			return
		}
		if err := op(s.moderator, r.Context(), id); err != nil {
			if errors.Is(err, moderation.ErrNotPending) {
				writeError(w, http.StatusConflict, "listing is not pending review")
				return
			}
			log.Error().Err(err).Int64("listingId", id).Msg("listing transition failed")
			writeError(w, http.StatusInternalServerError, "transition failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
