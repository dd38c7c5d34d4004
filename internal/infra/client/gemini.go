// Package client holds outbound HTTP adapters. The only external
// dependency of the loan assistant is the Gemini generateContent API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/loanease/loanease-go/internal/domain"
	"github.com/loanease/loanease-go/internal/infra/observability"
	"github.com/loanease/loanease-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("client")

// GeminiClient calls the Gemini generateContent REST API with a circuit
// breaker, bounded retries, a bulkhead and a per-call timeout. Generate
// surfaces failures; ExtractLoanDetails and ClassifyIntent degrade to
// zero values so a flaky model never blocks the conversation.
type GeminiClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	cfg        resilience.Config
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// GeminiConfig wires a GeminiClient.
type GeminiConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewGeminiClient creates a GeminiClient. metrics may be nil.
func NewGeminiClient(httpClient *http.Client, gc GeminiConfig, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger, metrics *observability.Metrics) *GeminiClient {
	maxConc := cfg.MaxConcurrency
	if maxConc <= 0 {
		maxConc = 1
	}
	return &GeminiClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(gc.BaseURL, "/"),
		apiKey:     gc.APIKey,
		model:      gc.Model,
		timeout:    gc.Timeout,
		cb:         cb,
		bulkhead:   resilience.NewBulkhead(maxConc),
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
	}
}

// Request/response shapes for POST /v1beta/models/{model}:generateContent.

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate produces the persona-voiced reply for a conversation turn.
func (c *GeminiClient) Generate(ctx context.Context, persona domain.AgentType, userMessage string, snapshot *domain.AgentContext, extra string) (string, error) {
	ctx, span := tracer.Start(ctx, "GeminiClient.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.persona", string(persona)))

	return c.generateContent(ctx, "generate", buildGeneratePrompt(persona, userMessage, snapshot, extra), false)
}

// ExtractLoanDetails pulls amount/tenure out of free text. Provider or
// parse failures degrade to an empty result.
func (c *GeminiClient) ExtractLoanDetails(ctx context.Context, message string) (*domain.LoanDetails, error) {
	ctx, span := tracer.Start(ctx, "GeminiClient.ExtractLoanDetails")
	defer span.End()

	text, err := c.generateContent(ctx, "extract", buildExtractionPrompt(message), true)
	if err != nil {
		c.logger.Warn("loan detail extraction degraded", zap.Error(err))
		return &domain.LoanDetails{}, nil
	}

	// Null fields decode to zero values, which already mean "not mentioned".
	var parsed struct {
		Amount *float64 `json:"amount"`
		Tenure *float64 `json:"tenure"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &parsed); err != nil {
		c.logger.Warn("loan detail extraction returned malformed JSON", zap.Error(err))
		return &domain.LoanDetails{}, nil
	}
	details := &domain.LoanDetails{}
	if parsed.Amount != nil {
		details.Amount = int64(*parsed.Amount)
	}
	if parsed.Tenure != nil {
		details.TenureMonths = int(*parsed.Tenure)
	}
	return details, nil
}

// ClassifyIntent maps free text onto the closed intent set, degrading to
// IntentOther on any failure.
func (c *GeminiClient) ClassifyIntent(ctx context.Context, message string, step domain.Step) (domain.Intent, error) {
	ctx, span := tracer.Start(ctx, "GeminiClient.ClassifyIntent")
	defer span.End()

	text, err := c.generateContent(ctx, "classify", buildIntentPrompt(message, step), false)
	if err != nil {
		c.logger.Warn("intent classification degraded", zap.Error(err))
		return domain.IntentOther, nil
	}
	return domain.ParseIntent(strings.ToLower(strings.Trim(strings.TrimSpace(text), `"`))), nil
}

// generateContent runs one guarded model call and returns the first
// candidate's text.
func (c *GeminiClient) generateContent(ctx context.Context, call, prompt string, jsonMode bool) (string, error) {
	start := time.Now()
	text, err := c.doGenerate(ctx, prompt, jsonMode)
	if c.metrics != nil {
		c.metrics.RecordLLMCall(call, time.Since(start), err)
	}
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", &domain.ErrCircuitOpen{Service: "gemini"}
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &domain.ErrTimeout{Operation: "gemini." + call}
		}
		return "", &domain.ErrExternalService{Service: "gemini", Err: err}
	}
	return text, nil
}

func (c *GeminiClient) doGenerate(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return "", err
	}
	defer c.bulkhead.Release()

	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}
	if jsonMode {
		reqBody.GenerationConfig = &geminiGenerationConfig{ResponseMIMEType: "application/json"}
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, c.model, url.QueryEscape(c.apiKey))

	var text string
	_, err = c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
			if err != nil {
				return resilience.Permanent(err)
			}
			httpReq.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusOK:
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				return fmt.Errorf("gemini API returned status %d", resp.StatusCode)
			default:
				// Client errors (bad key, bad model) will not heal on retry.
				return resilience.Permanent(fmt.Errorf("gemini API returned status %d", resp.StatusCode))
			}

			var decoded geminiResponse
			if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
				return err
			}
			if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
				return resilience.Permanent(errors.New("gemini response has no candidates"))
			}
			text = decoded.Candidates[0].Content.Parts[0].Text
			return nil
		})
	})
	if err != nil {
		return "", err
	}
	return text, nil
}
