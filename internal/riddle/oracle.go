// ABOUTME: LLM-backed riddle generator using the OpenAI chat completions API
// ABOUTME: Production replacement for the phased placeholder generator

package riddle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/ManishRShetty/atlast-gateway/internal/store"
)

const oracleSystemPrompt = `You write geography riddles. Respond with a single JSON object:
{"question": "<riddle describing a real city without naming it>",
 "latitude": <city latitude>, "longitude": <city longitude>,
 "difficulty": "easy"|"medium"|"hard"}
No prose outside the JSON.`

// OracleConfig configures the LLM oracle.
type OracleConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// OracleGenerator produces riddles by asking a chat-completion model. Each
// call publishes milestones so stream subscribers see activity while the
// oracle thinks.
type OracleGenerator struct {
	client     *openai.Client
	model      string
	maxRetries int
	publisher  Publisher
	logger     *slog.Logger
}

// NewOracleGenerator creates an oracle generator from config.
func NewOracleGenerator(cfg OracleConfig, publisher Publisher, logger *slog.Logger) *OracleGenerator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &OracleGenerator{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		maxRetries: maxRetries,
		publisher:  publisher,
		logger:     logger.With("component", "oracle"),
	}
}

// oracleReply is the JSON shape the model is asked to produce.
type oracleReply struct {
	Question   string  `json:"question"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Difficulty string  `json:"difficulty"`
}

// Generate asks the model for one riddle, retrying transient failures.
func (g *OracleGenerator) Generate(ctx context.Context, sessionID string) (*store.Riddle, error) {
	g.publisher.Publish(sessionID, "consulting the oracle")

	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		reply, err := g.ask(ctx, sessionID)
		if err == nil {
			g.publisher.Publish(sessionID, "riddle received")
			return reply, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		g.logger.Warn("oracle request failed",
			"session_id", sessionID,
			"attempt", attempt,
			"error", err,
		)
	}

	return nil, fmt.Errorf("oracle exhausted %d attempts: %w", g.maxRetries, lastErr)
}

// ask performs a single chat completion round trip and parses the reply.
func (g *OracleGenerator) ask(ctx context.Context, sessionID string) (*store.Riddle, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: oracleSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "One riddle, please."},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	// Some models wrap JSON in a code fence despite instructions
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var reply oracleReply
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &reply); err != nil {
		return nil, fmt.Errorf("parsing oracle reply: %w", err)
	}
	if reply.Question == "" {
		return nil, fmt.Errorf("oracle reply missing question")
	}

	return &store.Riddle{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		Question:   reply.Question,
		Latitude:   reply.Latitude,
		Longitude:  reply.Longitude,
		Difficulty: normalizeDifficulty(reply.Difficulty),
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// normalizeDifficulty clamps model output to the known difficulty tags.
func normalizeDifficulty(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "easy", "medium", "hard":
		return strings.ToLower(strings.TrimSpace(d))
	default:
		return "medium"
	}
}
