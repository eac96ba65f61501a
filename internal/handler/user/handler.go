package user

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/riseai/rise-chat/internal/model/user"
	"github.com/riseai/rise-chat/pkg/utils"
)

// Handler serves account endpoints.
type Handler struct {
	users user.Store
	now   func() time.Time
}

// New creates a user handler.
func New(users user.Store) *Handler {
	return &Handler{
		users: users,
		now:   time.Now,
	}
}

// RegisterRoutes mounts the login route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
}

type loginPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin checks credentials and returns the account and a session token.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		if errors.Is(err, utils.ErrEmptyBody) {
			utils.RespondError(w, http.StatusBadRequest, "No data provided")
			return
		}
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	login := strings.TrimSpace(payload.Username)
	if login == "" {
		login = strings.TrimSpace(payload.Email)
	}
	if login == "" || payload.Password == "" {
		utils.RespondError(w, http.StatusBadRequest, "Username or email and password are required")
		return
	}

	u, ok := h.users.FindByLogin(login)
	if !ok || !u.CheckPassword(payload.Password) {
		log.Printf("[login] rejected login=%s", login)
		utils.RespondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	log.Printf("[login] success user=%s role=%s", u.Username, u.Role)
	utils.RespondOK(w, map[string]any{
		"message": "Login successful",
		"user":    u,
		"token":   h.issueToken(u),
	})
}

// issueToken derives an opaque session token from the account and the login instant.
func (h *Handler) issueToken(u user.User) string {
	seed := u.Email + strconv.FormatInt(h.now().UnixNano(), 10)
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}
