package nlu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bankbot/internal/metrics"

	openai "github.com/sashabaranov/go-openai"
)

const outOfScope = "out_of_scope"

// OpenAIConfig configures the chat-completion classifier.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Labels  []string
}

// OpenAIClassifier asks a chat model to pick one of a fixed label set.
type OpenAIClassifier struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	labels  []string
	allowed map[string]struct{}
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewOpenAIClassifier creates the classifier. Labels must be non-empty.
func NewOpenAIClassifier(cfg OpenAIConfig, metrics *metrics.Metrics, logger *slog.Logger) (*OpenAIClassifier, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if len(cfg.Labels) == 0 {
		return nil, errors.New("openai classifier needs a label set")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	allowed := make(map[string]struct{}, len(cfg.Labels)+1)
	for _, l := range cfg.Labels {
		allowed[l] = struct{}{}
	}
	allowed[outOfScope] = struct{}{}

	return &OpenAIClassifier{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		timeout: timeout,
		labels:  cfg.Labels,
		allowed: allowed,
		metrics: metrics,
		logger:  logger.With("component", "nlu", "backend", "openai"),
	}, nil
}

type llmIntent struct {
	Intent       string             `json:"intent"`
	Confidence   float64            `json:"confidence"`
	Distribution map[string]float64 `json:"distribution"`
}

// Predict classifies text with one chat completion call.
func (c *OpenAIClassifier) Predict(ctx context.Context, text string) (Prediction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildIntentPrompt(c.labels)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return Prediction{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Prediction{}, errors.New("chat completion returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	var out llmIntent
	if err := json.Unmarshal([]byte(normaliseJSON(raw)), &out); err != nil {
		c.metrics.Errors.WithLabelValues("openai_parse").Inc()
		c.logger.Warn("model returned malformed json, using fallback parser", "error", err)
		parsed, ferr := fallbackParseIntent(raw)
		if ferr != nil {
			return Prediction{}, fmt.Errorf("parse model output: %w", ferr)
		}
		out = *parsed
	}
	return c.toPrediction(out), nil
}

func (c *OpenAIClassifier) toPrediction(out llmIntent) Prediction {
	label := strings.TrimSpace(out.Intent)
	if _, ok := c.allowed[label]; !ok {
		label = outOfScope
	}
	conf := clamp01(out.Confidence)

	probs := make(map[string]float64, len(out.Distribution)+1)
	for l, p := range out.Distribution {
		if _, ok := c.allowed[l]; ok {
			probs[l] = clamp01(p)
		}
	}
	if p, ok := probs[label]; ok && p > conf {
		conf = p
	}
	probs[label] = conf
	return Prediction{Label: label, Confidence: conf, Probabilities: probs}
}

func buildIntentPrompt(labels []string) string {
	var b strings.Builder
	b.WriteString("You classify customer messages sent to a retail banking assistant.\n")
	b.WriteString("Pick exactly one intent from this list, or \"out_of_scope\" if none fits:\n")
	for _, l := range labels {
		b.WriteString("- ")
		b.WriteString(l)
		b.WriteString("\n")
	}
	b.WriteString("Respond ONLY with JSON of the form ")
	b.WriteString(`{"intent":"<label>","confidence":0.0,"distribution":{"<label>":0.0}}`)
	b.WriteString(". Confidence is your probability for the chosen intent between 0 and 1.")
	return b.String()
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func normaliseJSON(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "```"))
		if strings.HasPrefix(strings.ToLower(s), "json") {
			if idx := strings.IndexByte(s, '\n'); idx >= 0 {
				s = s[idx+1:]
			} else {
				s = ""
			}
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	if start := strings.Index(s, "{"); start > 0 {
		s = s[start:]
	}
	if end := strings.LastIndex(s, "}"); end >= 0 && end < len(s)-1 {
		s = s[:end+1]
	}
	// Truncated output such as {"intent":"faq","confidence":0.8
	if open, closed := strings.Count(s, "{"), strings.Count(s, "}"); open > closed {
		s += strings.Repeat("}", open-closed)
	}
	return strings.TrimSpace(s)
}

var (
	intentFieldRegex     = regexp.MustCompile(`"intent"\s*:\s*"([^"]+)"`)
	confidenceFieldRegex = regexp.MustCompile(`"confidence"\s*:\s*([0-9.]+)`)
)

// fallbackParseIntent recovers intent and confidence from output that is not
// valid JSON.
func fallbackParseIntent(raw string) (*llmIntent, error) {
	out := &llmIntent{}
	if m := intentFieldRegex.FindStringSubmatch(raw); m != nil {
		out.Intent = strings.TrimSpace(m[1])
	}
	if m := confidenceFieldRegex.FindStringSubmatch(raw); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			out.Confidence = v
		}
	}
	if out.Intent == "" {
		return nil, errors.New("fallback parse: intent not found")
	}
	return out, nil
}
