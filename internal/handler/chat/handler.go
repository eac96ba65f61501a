package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/riseai/rise-chat/internal/model/chat"
	"github.com/riseai/rise-chat/internal/model/user"
	"github.com/riseai/rise-chat/internal/service/ai"
	"github.com/riseai/rise-chat/internal/service/history"
	"github.com/riseai/rise-chat/pkg/utils"
)

const (
	unknownUserReply = "I'm sorry, I couldn't find your user information. Please try logging in again."
	failedReply      = "I apologize, but I encountered an error processing your request. Please try again."
)

// Handler serves the chat endpoints.
type Handler struct {
	history   *history.Service
	users     user.Store
	responder ai.Responder
}

// New creates a chat handler.
func New(historySvc *history.Service, users user.Store, responder ai.Responder) *Handler {
	return &Handler{
		history:   historySvc,
		users:     users,
		responder: responder,
	}
}

// RegisterRoutes mounts the /chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/chat", func(r chi.Router) {
		r.Post("/", h.handleChat)
		r.Get("/status", h.handleStatus)
		r.Post("/quick-actions", h.handleQuickAction)
		r.Get("/history/{username}", h.handleHistory)
		r.Delete("/history/{username}", h.handleClearHistory)
	})
}

// handleChat answers one user message.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username  string  `json:"username"`
		Message   string  `json:"message"`
		Timestamp *string `json:"timestamp"`
	}
	if !decode(w, r, &payload) {
		return
	}

	if strings.TrimSpace(payload.Username) == "" || strings.TrimSpace(payload.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "Username and message are required")
		return
	}

	log.Printf("[chat] message from user=%s len=%d", payload.Username, len(payload.Message))
	reply := h.reply(r.Context(), payload.Username, payload.Message)

	utils.RespondOK(w, map[string]any{
		"response":  reply,
		"timestamp": payload.Timestamp,
	})
}

// handleQuickAction answers the canned prompt for a quick action key.
func (h *Handler) handleQuickAction(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string           `json:"username"`
		Action   chat.QuickAction `json:"action"`
	}
	if !decode(w, r, &payload) {
		return
	}

	if strings.TrimSpace(payload.Username) == "" {
		utils.RespondError(w, http.StatusBadRequest, "Username is required")
		return
	}
	prompt, ok := payload.Action.Prompt()
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, fmt.Sprintf("unknown action %q", payload.Action))
		return
	}

	utils.RespondOK(w, map[string]any{
		"response": h.reply(r.Context(), payload.Username, prompt),
	})
}

// handleHistory returns recent exchanges, newest first.
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	limit := history.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}

	records, err := h.history.Recent(r.Context(), username, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondOK(w, map[string]any{"history": records})
}

// handleClearHistory deletes every exchange for the user.
func (h *Handler) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	removed, err := h.history.Clear(r.Context(), username)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("[chat] cleared history user=%s removed=%d", username, removed)
	utils.RespondOK(w, map[string]any{"message": fmt.Sprintf("Deleted %d messages", removed)})
}

// handleStatus is the health check.
func (h *Handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	utils.RespondOK(w, map[string]any{
		"status":        "Chat service is running",
		"ai_simulation": h.responder.Simulated(),
	})
}

// reply runs the responder for one message and records the exchange. Failures become an
// apology rather than an HTTP error.
func (h *Handler) reply(ctx context.Context, username, message string) string {
	u, ok := h.users.FindByLogin(username)
	if !ok {
		log.Printf("[chat] unknown user=%s", username)
		return unknownUserReply
	}

	past, err := h.history.Recent(ctx, u.Username, history.DefaultLimit)
	if err != nil {
		log.Printf("[chat] load history for user=%s: %v", u.Username, err)
	}

	answer, err := h.responder.Respond(ctx, ai.Request{User: u, Message: message, History: past})
	if err != nil {
		log.Printf("[chat] responder failed for user=%s: %v", u.Username, err)
		return failedReply
	}

	if _, err := h.history.Record(ctx, u.Username, message, answer); err != nil {
		log.Printf("[chat] save exchange for user=%s: %v", u.Username, err)
	}
	return answer
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := utils.DecodeJSON(w, r, dst); err != nil {
		if errors.Is(err, utils.ErrEmptyBody) {
			utils.RespondError(w, http.StatusBadRequest, "No data provided")
		} else {
			utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		}
		return false
	}
	return true
}

func respondServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, history.ErrUserRequired) {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.RespondError(w, http.StatusInternalServerError, err.Error())
}
