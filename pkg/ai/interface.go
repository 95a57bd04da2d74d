package ai

import (
	"context"

	syncdomain "jobtrack-backend/internal/sync/domain"
)

// ClassifierService is the interface for AI message classification.
// Implement this interface to add new AI providers (Gemini, Ollama, OpenAI, etc.).
// Implementations are plain request/response calls: retry, backoff and the
// confidence threshold are the caller's policy, not the provider's.
type ClassifierService interface {
	ClassifyMessage(ctx context.Context, msg *syncdomain.MailMessage) (*syncdomain.ClassificationResult, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
