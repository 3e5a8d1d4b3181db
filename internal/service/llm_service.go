package service

import (
	"context"
	"fmt"
	"strings"

	"restaurantai/pkg/config"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
)

// LLMClient is a text-in, text-out model endpoint.
type LLMClient interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
	Name() string
	Close() error
}

// LLMService talks to GigaChat through gigago.
type LLMService struct {
	client    *gigago.Client
	modelName string
	logger    *zap.Logger
}

func NewLLMService(cfg *config.GigaChatConfig, logger *zap.Logger) (*LLMService, error) {
	ctx := context.Background()

	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "GigaChat"
	}
	logger.Info("Using GigaChat model", zap.String("model", modelName))

	return &LLMService{
		client:    client,
		modelName: modelName,
		logger:    logger,
	}, nil
}

func (s *LLMService) Name() string {
	return "gigachat:" + s.modelName
}

// Generate sends one user message. A fresh model handle is built per call so
// concurrent callers can use different system instructions.
func (s *LLMService) Generate(ctx context.Context, system, prompt string) (string, error) {
	model := s.client.GenerativeModel(s.modelName)
	model.SystemInstruction = system
	model.Temperature = 0.1

	messages := []gigago.Message{
		{Role: gigago.RoleUser, Content: prompt},
	}

	resp, err := model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

func (s *LLMService) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}
