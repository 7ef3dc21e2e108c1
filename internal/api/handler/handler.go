package handler

import (
	"veilmatch/backend/internal/engine"

	"go.uber.org/zap"
)

// Handler містить посилання на Engine та секрет для JWT.
type Handler struct {
	Engine    *engine.Engine
	JWTSecret []byte
	Log       *zap.Logger
}

func NewHandler(e *engine.Engine, jwtSecret string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Engine: e, JWTSecret: []byte(jwtSecret), Log: log}
}
