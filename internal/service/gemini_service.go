package service

import (
	"context"
	"fmt"
	"strings"

	"restaurantai/pkg/config"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiService talks to the Gemini API through the genai SDK and asks for
// JSON output.
type GeminiService struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

func NewGeminiService(ctx context.Context, cfg *config.GeminiConfig, temperature float32, logger *zap.Logger) (*GeminiService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	logger.Info("Using Gemini model", zap.String("model", cfg.Model))
	return &GeminiService{
		client:      client,
		model:       cfg.Model,
		temperature: temperature,
		logger:      logger,
	}, nil
}

func (s *GeminiService) Name() string {
	return "gemini:" + s.model
}

func (s *GeminiService) Generate(ctx context.Context, system, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(s.temperature),
		ResponseMIMEType: "application/json",
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (s *GeminiService) Close() error {
	return nil
}
