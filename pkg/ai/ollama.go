package ai

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

// OllamaService implements ClassifierService using Ollama local LLM
type OllamaService struct {
	getBaseURL func() string // Dynamic getter for BaseURL
	getModel   func() string // Dynamic getter for Model
}

// NewOllamaService creates a new Ollama service
func NewOllamaService(baseURL, model string) *OllamaService {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}
	return &OllamaService{
		getBaseURL: func() string { return baseURL },
		getModel:   func() string { return model },
	}
}

// ClassifyMessage implements ClassifierService
func (o *OllamaService) ClassifyMessage(ctx context.Context, msg *syncdomain.MailMessage) (*syncdomain.ClassificationResult, error) {
	url := o.getBaseURL() + "/api/generate"

	// Same prompt as the Gemini provider for consistency across providers
	prompt := fmt.Sprintf(`You are an assistant that reads job-application emails and decides whether they signal a change in application status.

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

	payload := map[string]interface{}{
		"model":  o.getModel(),
		"prompt": prompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": 0.2,
			"num_predict": 200,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// Extract JSON object from response
	responseText := strings.TrimSpace(result.Response)
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

	classification := &syncdomain.ClassificationResult{
		HasSignal:  raw.HasSignal,
		Confidence: raw.Confidence,
		Company:    strings.TrimSpace(raw.Company),
		JobTitle:   strings.TrimSpace(raw.JobTitle),
	}

	if raw.ProposedStatus != "" {
		status, ok := appdomain.ParseStatus(raw.ProposedStatus)
		if !ok {
			classification.HasSignal = false
			return classification, nil
		}
		classification.ProposedStatus = status
	} else if classification.HasSignal {
		classification.HasSignal = false
	}

	return classification, nil
}
