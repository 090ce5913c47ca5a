// Package api exposes the JSON REST surface: recipes, resolution, aliases,
// pantry, shopping lists and the event stream.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/mealprep/internal/config"
	"git.home.luguber.info/inful/mealprep/internal/eventlog"
	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
	"git.home.luguber.info/inful/mealprep/internal/provider/llm"
	"git.home.luguber.info/inful/mealprep/internal/resolve"
	"git.home.luguber.info/inful/mealprep/internal/shopping"
	"git.home.luguber.info/inful/mealprep/internal/store"
)

// InstructionGenerator produces markdown cooking instructions for a recipe.
type InstructionGenerator interface {
	GenerateInstructions(ctx context.Context, in llm.RecipeInput) (string, error)
}

// Deps are the collaborators the server needs. Resolver and Store are
// required; the rest are optional and their routes degrade gracefully.
type Deps struct {
	Store        store.Store
	Resolver     *resolve.Resolver
	Pusher       *shopping.Pusher
	Instructions InstructionGenerator
	Events       *eventlog.Log
	Metrics      http.Handler
}

// Server represents the API server.
type Server struct {
	Addr   string
	router *chi.Mux
	server *http.Server
	deps   Deps
}

// requestTimeout bounds regular API requests. The event stream is exempt.
var requestTimeout = 60 * time.Second

// NewServer creates a new API server.
func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	s := &Server{
		Addr:   cfg.Addr,
		router: chi.NewRouter(),
		deps:   deps,
	}

	s.setupRoutes()

	readTimeout := cfg.ReadTimeout.Std()
	if readTimeout <= 0 {
		readTimeout = 15 * time.Second
	}
	writeTimeout := cfg.WriteTimeout.Std()
	if writeTimeout <= 0 {
		writeTimeout = 60 * time.Second // resolution fans out to several providers
	}

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(UserMiddleware)

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/health", s.handleHealth)
		if s.deps.Metrics != nil {
			r.Method(http.MethodGet, "/metrics", s.deps.Metrics)
		}

		r.Post("/recipes", s.handleCreateRecipe)
		r.Get("/recipes", s.handleListRecipes)
		r.Get("/recipes/{id}", s.handleGetRecipe)
		r.Put("/recipes/{id}", s.handleUpdateRecipe)
		r.Delete("/recipes/{id}", s.handleDeleteRecipe)
		r.Post("/recipes/{id}/instructions", s.handleGenerateInstructions)
		r.Get("/recipes/{id}/macros", s.handleRecipeMacros)

		r.Post("/resolve", s.handleResolve)
		r.Post("/ingredients/{id}/resolve", s.handleResolveIngredient)

		r.Post("/aliases", s.handleSetAlias)
		r.Get("/aliases", s.handleListAliases)
		r.Delete("/aliases", s.handleDeleteAlias)

		r.Post("/pantry", s.handleAddPantryStaple)
		r.Get("/pantry", s.handleListPantryStaples)
		r.Delete("/pantry", s.handleDeletePantryStaple)

		r.Post("/shopping-lists", s.handleCreateShoppingList)
		r.Get("/shopping-lists/{id}", s.handleGetShoppingList)
		r.Post("/shopping-lists/{id}/push", s.handlePushShoppingList)
	})

	// The event stream outlives any request timeout.
	s.router.Get("/events", s.handleEvents)
}

// Start starts the API server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Response represents a standard API response.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Success writes a success response.
func (s *Server) Success(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Response{Success: true, Data: data})
}

// Error writes an error response with an explicit status.
func (s *Server) Error(w http.ResponseWriter, r *http.Request, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Response{Success: false, Error: message})
}

// Fail maps a domain error to an HTTP status and writes the envelope.
// Unresolved ingredients are reported as 404 with the attempt list attached.
func (s *Server) Fail(w http.ResponseWriter, r *http.Request, err error) {
	var unresolved *resolve.UnresolvedError
	if errors.As(err, &unresolved) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(Response{
			Success: false,
			Error:   unresolved.Error(),
			Data:    map[string]any{"attempts": unresolved.Attempts},
		})
		return
	}

	code := apperrors.HTTPStatusFor(err)
	if code >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	s.Error(w, r, code, err.Error())
}

// decode reads a JSON request body into dst.
func decode(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
