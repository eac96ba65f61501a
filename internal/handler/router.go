package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/riseai/rise-chat/internal/handler/chat"
	"github.com/riseai/rise-chat/internal/handler/user"
	userModel "github.com/riseai/rise-chat/internal/model/user"
	aiService "github.com/riseai/rise-chat/internal/service/ai"
	historyService "github.com/riseai/rise-chat/internal/service/history"
	"github.com/riseai/rise-chat/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(users userModel.Store, historySvc *historyService.Service, responder aiService.Responder, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	userHandler := user.New(users)
	chatHandler := chat.New(historySvc, users, responder)

	userHandler.RegisterRoutes(r)
	chatHandler.RegisterRoutes(r)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondOK(w, map[string]any{"message": "Rise AI development backend"})
	})

	return r
}
