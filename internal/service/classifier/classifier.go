package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"routedesk/internal/model"
	"routedesk/pkg/config"
	"routedesk/pkg/metrics"
)

var (
	ErrEmptyMessage   = errors.New("message content is empty")
	ErrClassification = errors.New("classification failed")
)

const defaultModel = "gemini-2.5-flash"

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Classifier turns free text into a Verdict with one LLM call. No retry.
type Classifier struct {
	models  contentGenerator
	model   string
	timeout time.Duration
	logger  *zap.Logger
	config  *genai.GenerateContentConfig
}

// New creates a Gemini-backed classifier.
func New(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (*Classifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newWithGenerator(client.Models, cfg, logger), nil
}

func newWithGenerator(models contentGenerator, cfg config.LLMConfig, logger *zap.Logger) *Classifier {
	name := cfg.Model
	if name == "" {
		name = defaultModel
	}
	var timeout time.Duration
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Classifier{
		models:  models,
		model:   name,
		timeout: timeout,
		logger:  logger,
		config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(buildSystemPrompt(), genai.RoleUser),
			Temperature:       genai.Ptr[float32](0),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    verdictSchema(),
		},
	}
}

// Classify returns the verdict for content. Every failure wraps ErrClassification
// except ErrEmptyMessage.
func (c *Classifier) Classify(ctx context.Context, content string) (*model.Verdict, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(content), c.config)
	if err != nil {
		metrics.RecordClassifierLatency(c.model, "error", time.Since(start))
		return nil, fmt.Errorf("%w: llm call: %v", ErrClassification, err)
	}

	v, err := parseVerdict(resp)
	if err != nil {
		metrics.RecordClassifierLatency(c.model, "invalid", time.Since(start))
		c.logger.Warn("LLM returned an unusable verdict",
			zap.String("model", c.model),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.RecordClassifierLatency(c.model, "success", time.Since(start))
	return v, nil
}

func parseVerdict(resp *genai.GenerateContentResponse) (*model.Verdict, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", ErrClassification)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrClassification)
	}

	var v model.Verdict
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("%w: decode verdict: %v", ErrClassification, err)
	}
	if err := validate(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// validate re-checks the enums locally.
func validate(v *model.Verdict) error {
	switch {
	case !model.IsCategory(v.Category):
		return fmt.Errorf("%w: unknown category %q", ErrClassification, v.Category)
	case !model.IsUrgency(v.Urgency):
		return fmt.Errorf("%w: unknown urgency %q", ErrClassification, v.Urgency)
	case !model.IsTeam(v.AssignedTeam):
		return fmt.Errorf("%w: unknown team %q", ErrClassification, v.AssignedTeam)
	}
	return nil
}
