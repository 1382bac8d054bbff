package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nix-humanity/ask-nix/internal/domain"
	"github.com/nix-humanity/ask-nix/internal/ports"
)

// OllamaFallback consults a local Ollama endpoint for queries the pattern
// table could not classify. It is an optional capability enabled once at
// startup via config; when the endpoint is unreachable the query stays
// unknown rather than failing.
type OllamaFallback struct {
	primary    ports.IntentRecognizer
	endpoint   string
	model      string
	httpClient *http.Client
	logger     ports.Logger
}

// NewOllamaFallback wraps primary with a semantic fallback.
func NewOllamaFallback(primary ports.IntentRecognizer, settings domain.RecognizerSettings, logger ports.Logger) *OllamaFallback {
	endpoint := settings.OllamaEndpoint
	if endpoint == "" {
		endpoint = "http://localhost:11434/api/generate"
	}
	model := settings.OllamaModel
	if model == "" {
		model = "llama3.2:3b"
	}
	return &OllamaFallback{
		primary:    primary,
		endpoint:   endpoint,
		model:      model,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaIntent struct {
	Intent     string            `json:"intent"`
	Entities   map[string]string `json:"entities"`
	Confidence float64           `json:"confidence"`
}

// Recognize runs the pattern table first and falls back to Ollama only for
// unknown intents.
func (o *OllamaFallback) Recognize(text string) domain.Intent {
	recognized := o.primary.Recognize(text)
	if recognized.Type != domain.IntentUnknown {
		return recognized
	}

	fallback, err := o.classify(context.Background(), text)
	if err != nil {
		o.logger.Debug("ollama fallback failed", map[string]interface{}{"error": err.Error()})
		return recognized
	}
	return fallback
}

func (o *OllamaFallback) classify(ctx context.Context, text string) (domain.Intent, error) {
	payload := ollamaRequest{
		Model:  o.model,
		Prompt: buildClassifyPrompt(text),
		Stream: false,
		Format: "json",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Intent{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Intent{}, err
	}
	httpReq.Header.Set("content-type", "application/json")

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return domain.Intent{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return domain.Intent{}, fmt.Errorf("ollama: %s", resp.Status)
	}

	var decoded ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Intent{}, err
	}

	var parsed ollamaIntent
	if err := json.Unmarshal([]byte(decoded.Response), &parsed); err != nil {
		return domain.Intent{}, fmt.Errorf("ollama: invalid intent JSON: %w", err)
	}

	intentType := parseIntentType(parsed.Intent)
	if intentType == domain.IntentUnknown || parsed.Confidence < 0.5 {
		return domain.Intent{}, fmt.Errorf("ollama: unusable classification %q (%.2f)", parsed.Intent, parsed.Confidence)
	}

	entities := parsed.Entities
	if entities == nil {
		entities = map[string]string{}
	}
	if pkg, ok := entities[domain.EntityPackage]; ok {
		entities[domain.EntityPackage] = ResolveAlias(pkg)
	}
	return domain.Intent{
		Type:       intentType,
		Entities:   entities,
		Confidence: parsed.Confidence,
		RawText:    text,
	}, nil
}

func buildClassifyPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Classify this NixOS request into one intent. Respond with JSON ")
	b.WriteString(`{"intent":"...","entities":{},"confidence":0.0}.` + "\n")
	b.WriteString("Valid intents: ")
	for i, t := range domain.AllIntentTypes {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(string(t))
	}
	b.WriteString("\nEntity keys: package, query, service, generation.\n")
	b.WriteString("Request: " + text)
	return b.String()
}

func parseIntentType(value string) domain.IntentType {
	candidate := domain.IntentType(strings.ToLower(strings.TrimSpace(value)))
	for _, t := range domain.AllIntentTypes {
		if candidate == t {
			return t
		}
	}
	return domain.IntentUnknown
}

var _ ports.IntentRecognizer = (*OllamaFallback)(nil)
