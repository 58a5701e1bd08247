package http

import (
	"go.uber.org/zap"

	"github.com/quantumcode/quantumcode-backend/internal/projects/service"
)

// Handler bundles the dependencies for projects HTTP endpoints.
type Handler struct {
	svc *service.ProjectService
	log *zap.Logger
}

func New(svc *service.ProjectService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

type createReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Template    string `json:"template"`
	IsTemporary bool   `json:"is_temporary"`
}

type updateReq struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type addFileReq struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type saveFileReq struct {
	Content *string `json:"content"`
}

type renameFileReq struct {
	Path string `json:"path"`
}
