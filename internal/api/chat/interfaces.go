package chat

import (
	"context"

	"github.com/theakash04/termify/internal/entity"
)

type ChatUsecase interface {
	StartSession(ctx context.Context) string
	EndSession(ctx context.Context, sessionID string) error
	UploadDocument(ctx context.Context, sessionID, sourceRef, label string) (entity.UploadDocumentResponse, error)
	Query(ctx context.Context, sessionID, question string, useTenant bool) (string, error)
}
