package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"fitserver/internal/domain"
	"fitserver/internal/infra"
	"fitserver/internal/queue"
)

// GenerationQueue is the job submission and status surface the handlers
// depend on.
type GenerationQueue interface {
	Enqueue(ctx context.Context, userID string, category domain.Category, payload domain.Payload) (string, error)
	Status(ctx context.Context, jobID string) (*queue.Status, error)
}

// QuotaView is the quota surface the handlers depend on. Admit returns
// domain.ErrQuotaExceeded when the user has no capacity left.
type QuotaView interface {
	Admit(ctx context.Context, userID string, category domain.Category) error
	Stats(ctx context.Context, userID string) (map[domain.Category]domain.QuotaStat, error)
}

type App struct {
	Queue  GenerationQueue
	Quota  QuotaView
	Logger infra.Logger
}

func NewApp(q GenerationQueue, quota QuotaView, logger infra.Logger) *App {
	return &App{Queue: q, Quota: quota, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"error": code, "message": message})
}
