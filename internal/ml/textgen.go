package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/confradar/confradar/internal/config"
)

// TextGenService turns a ranked table and the extracted intent into a
// prose answer. It sits downstream of the ranking core: any failure
// here means the caller falls back to the deterministic report, never
// a failed request.
type TextGenService struct {
	httpClient *http.Client
	logger     *logrus.Logger
	config     config.TextGenConfig
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const answerSystemPrompt = "You are an assistant that recommends academic conferences. " +
	"Given a ranked table of candidate conferences and the user's parsed intent, " +
	"write a short, concrete recommendation. Do not invent conferences that are " +
	"not in the table."

func NewTextGenService(cfg config.TextGenConfig, logger *logrus.Logger) *TextGenService {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &TextGenService{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		config:     cfg,
	}
}

func (s *TextGenService) Available() bool {
	return s.config.BaseURL != "" && s.config.APIKey != ""
}

// GenerateAnswer produces a natural-language answer from the ranked
// table. Errors are returned so the caller can fall back.
func (s *TextGenService) GenerateAnswer(ctx context.Context, intentSummary, table string) (string, error) {
	if !s.Available() {
		return "", fmt.Errorf("text generation service not configured")
	}

	prompt := fmt.Sprintf("Parsed intent:\n%s\n\nRanked candidates:\n%s", intentSummary, table)

	body, err := json.Marshal(chatRequest{
		Model: s.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: answerSystemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("text generation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("text generation returned status %d", resp.StatusCode)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode generation response: %w", err)
	}

	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("text generation returned no content")
	}

	s.logger.Debug("Generated answer from ranked table")
	return decoded.Choices[0].Message.Content, nil
}
