package ai

import (
	"context"
	"log"
	"net"
	"strings"

	syncdomain "jobtrack-backend/internal/sync/domain"
)

// FallbackService routes classification to a primary provider and falls back
// to the secondary when the primary is unreachable or out of quota.
type FallbackService struct {
	primary   ClassifierService
	secondary ClassifierService
}

// NewFallbackService creates a new fallback service with both providers
func NewFallbackService(primary, secondary ClassifierService) *FallbackService {
	return &FallbackService{
		primary:   primary,
		secondary: secondary,
	}
}

// ClassifyMessage implements ClassifierService
func (f *FallbackService) ClassifyMessage(ctx context.Context, msg *syncdomain.MailMessage) (*syncdomain.ClassificationResult, error) {
	result, err := f.primary.ClassifyMessage(ctx, msg)
	if err == nil {
		return result, nil
	}

	if !isConnectionError(err) && !isQuotaError(err) {
		return nil, err
	}

	log.Printf("[AI] Primary classifier unavailable (%v), falling back", err)
	return f.secondary.ClassifyMessage(ctx, msg)
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	if _, ok := err.(net.Error); ok {
		return true
	}

	errStr := strings.ToLower(err.Error())
	connectionIndicators := []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"eof",
	}
	for _, indicator := range connectionIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	quotaIndicators := []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
	}
	for _, indicator := range quotaIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}
