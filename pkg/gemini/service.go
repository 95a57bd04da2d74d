package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	appdomain "jobtrack-backend/internal/application/domain"
	syncdomain "jobtrack-backend/internal/sync/domain"
)

type GeminiService struct {
	ApiKey string
}

func NewGeminiService(apiKey string) *GeminiService {
	return &GeminiService{ApiKey: apiKey}
}

// ClassifyMessage asks Gemini whether an email carries a job-application
// status signal and extracts the company, title and proposed status.
func (g *GeminiService) ClassifyMessage(ctx context.Context, msg *syncdomain.MailMessage) (*syncdomain.ClassificationResult, error) {
	// Use gemini-2.5-flash for fast classification
	url := "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent?key=" + g.ApiKey

	prompt := buildClassificationPrompt(msg)

	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Gemini API error: %s", string(respBody))
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, err
	}

	// Dig the generated text out of the candidates structure
	if c, ok := result["candidates"].([]interface{}); ok && len(c) > 0 {
		if cand, ok := c[0].(map[string]interface{}); ok {
			if content, ok := cand["content"].(map[string]interface{}); ok {
				if parts, ok := content["parts"].([]interface{}); ok && len(parts) > 0 {
					if part, ok := parts[0].(map[string]interface{}); ok {
						if text, ok := part["text"].(string); ok {
							return parseClassificationResponse(text)
						}
					}
				}
			}
		}
	}
	return nil, fmt.Errorf("no classification returned")
}

// buildClassificationPrompt renders the shared classification prompt.
// Keep this in sync with the Ollama provider so both return the same shape.
func buildClassificationPrompt(msg *syncdomain.MailMessage) string {
	return fmt.Sprintf(`You are an assistant that reads job-application emails and decides whether they signal a change in application status.

INSTRUCTIONS:
1. Read the email below and decide if it is about the status of a job application the recipient submitted (interview invite, rejection, offer, on hold, etc.).
2. Return ONLY a JSON object, no other text, with these fields:
   - "has_signal": true if the email signals a status change, false otherwise
   - "confidence": number between 0 and 1
   - "company": the hiring company's name, or ""
   - "job_title": the job title mentioned, or ""
   - "proposed_status": one of "applied", "screening", "interview", "offer", "hired", "rejected", "on_hold", or ""
3. Newsletters, job ads, marketing and unrelated mail have no signal.

EXAMPLE OUTPUT:
{"has_signal": true, "confidence": 0.9, "company": "Globex", "job_title": "Backend Engineer", "proposed_status": "interview"}

EMAIL:
From: %s
Subject: %s

%s

JSON OUTPUT:`, msg.Sender, msg.Subject, msg.BodyText)
}

// parseClassificationResponse extracts the JSON object from the model output
// and validates the proposed status.
func parseClassificationResponse(text string) (*syncdomain.ClassificationResult, error) {
	responseText := strings.TrimSpace(text)
	jsonStart := strings.Index(responseText, "{")
	jsonEnd := strings.LastIndex(responseText, "}")
	if jsonStart == -1 || jsonEnd == -1 || jsonEnd <= jsonStart {
		return nil, fmt.Errorf("no JSON object in classifier response")
	}
	responseText = responseText[jsonStart : jsonEnd+1]

	var raw struct {
		HasSignal      bool    `json:"has_signal"`
		Confidence     float64 `json:"confidence"`
		Company        string  `json:"company"`
		JobTitle       string  `json:"job_title"`
		ProposedStatus string  `json:"proposed_status"`
	}
	if err := json.Unmarshal([]byte(responseText), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse classification JSON: %v", err)
	}

	result := &syncdomain.ClassificationResult{
		HasSignal:  raw.HasSignal,
		Confidence: raw.Confidence,
		Company:    strings.TrimSpace(raw.Company),
		JobTitle:   strings.TrimSpace(raw.JobTitle),
	}

	if raw.ProposedStatus != "" {
		status, ok := appdomain.ParseStatus(raw.ProposedStatus)
		if !ok {
			// Unknown status string means the model hallucinated; treat as no signal
			result.HasSignal = false
			return result, nil
		}
		result.ProposedStatus = status
	} else if result.HasSignal {
		// A signal without a target status is not actionable
		result.HasSignal = false
	}

	return result, nil
}
