package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/camden-git/portfoliobackend/database"
)

const (
	defaultOpenAIBaseURL    = "https://api.openai.com/v1"
	defaultOpenAIModel      = "gpt-4o-mini"
	defaultWorkersAIBaseURL = "https://api.cloudflare.com/client/v4"
	workersAIModel          = "@cf/meta/m2m100-1.2b"
	// DefaultSourceLanguage is the language the portfolio content is authored in.
	DefaultSourceLanguage       = "it"
	responseBodyReadLimit int64 = 1024
)

var (
	ErrTranslationNotConfigured = errors.New("translation service not configured")
	ErrUnsupportedLanguage      = errors.New("unsupported language")
	errAPIKeyRequired           = errors.New("api key is required")
	errAccountIDRequired        = errors.New("account id is required")
	errEmptyTranslation         = errors.New("translation engine returned no text")
)

var languageNames = map[string]string{
	"it":    "Italian",
	"en":    "English",
	"es":    "Spanish",
	"fr":    "French",
	"ja":    "Japanese",
	"zh":    "Simplified Chinese",
	"zh-tw": "Traditional Chinese",
}

// LanguageName returns the English name of a supported language code.
func LanguageName(code string) (string, bool) {
	lang, ok := database.NormalizeLanguage(code)
	if !ok {
		return "", false
	}
	return languageNames[lang], true
}

type TranslateRequest struct {
	Text           string
	SourceLanguage string
	TargetLanguage string
}

// TranslationEngine turns text from one supported language into another.
type TranslationEngine interface {
	Translate(ctx context.Context, req TranslateRequest) (string, error)
	Name() string
}

// Option configures optional engine behavior.
type Option func(*engineOptions)

type engineOptions struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *engineOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithBaseURL overrides the upstream API base URL.
func WithBaseURL(baseURL string) Option {
	return func(o *engineOptions) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			o.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

// WithModel overrides the chat model used by the OpenAI engine.
func WithModel(model string) Option {
	return func(o *engineOptions) {
		trimmed := strings.TrimSpace(model)
		if trimmed != "" {
			o.model = trimmed
		}
	}
}

func buildOptions(baseURL string, opts []Option) engineOptions {
	o := engineOptions{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// OpenAIEngine calls the chat-completions API of an OpenAI-compatible provider.
type OpenAIEngine struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
}

func NewOpenAIEngine(apiKey string, opts ...Option) (*OpenAIEngine, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}
	o := buildOptions(defaultOpenAIBaseURL, opts)
	if o.model == "" {
		o.model = defaultOpenAIModel
	}
	return &OpenAIEngine{
		httpClient: o.httpClient,
		baseURL:    o.baseURL,
		model:      o.model,
		apiKey:     trimmedKey,
	}, nil
}

func (e *OpenAIEngine) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (e *OpenAIEngine) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	source, ok := LanguageName(req.SourceLanguage)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, req.SourceLanguage)
	}
	target, ok := LanguageName(req.TargetLanguage)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, req.TargetLanguage)
	}

	payload, err := json.Marshal(map[string]any{
		"model":       e.model,
		"temperature": 0.2,
		"messages": []chatMessage{
			{
				Role: "system",
				Content: fmt.Sprintf("You are a professional translator for an art portfolio. Translate the user's text from %s to %s. "+
					"Preserve line breaks, names and titles of works. Reply with the translation only.", source, target),
			},
			{Role: "user", Content: req.Text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)

	var apiResp struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := doJSON(e.httpClient, httpReq, &apiResp); err != nil {
		return "", fmt.Errorf("openai translation failed: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return "", errEmptyTranslation
	}
	text := strings.TrimSpace(apiResp.Choices[0].Message.Content)
	if text == "" {
		return "", errEmptyTranslation
	}
	return text, nil
}

// WorkersAIEngine runs the m2m100 translation model through the Cloudflare REST API.
type WorkersAIEngine struct {
	httpClient *http.Client
	baseURL    string
	accountID  string
	apiToken   string
}

func NewWorkersAIEngine(accountID, apiToken string, opts ...Option) (*WorkersAIEngine, error) {
	trimmedAccount := strings.TrimSpace(accountID)
	if trimmedAccount == "" {
		return nil, errAccountIDRequired
	}
	trimmedToken := strings.TrimSpace(apiToken)
	if trimmedToken == "" {
		return nil, errAPIKeyRequired
	}
	o := buildOptions(defaultWorkersAIBaseURL, opts)
	return &WorkersAIEngine{
		httpClient: o.httpClient,
		baseURL:    o.baseURL,
		accountID:  trimmedAccount,
		apiToken:   trimmedToken,
	}, nil
}

func (e *WorkersAIEngine) Name() string { return "workers-ai" }

// m2m100 has no separate traditional Chinese model, so zh and zh-tw share a code.
func m2mLanguage(code string) (string, bool) {
	lang, ok := database.NormalizeLanguage(code)
	if !ok {
		return "", false
	}
	if lang == "zh-tw" {
		return "zh", true
	}
	return lang, true
}

func (e *WorkersAIEngine) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	source, ok := m2mLanguage(req.SourceLanguage)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, req.SourceLanguage)
	}
	target, ok := m2mLanguage(req.TargetLanguage)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, req.TargetLanguage)
	}
	if source == target {
		return "", fmt.Errorf("%w: %s to %s is not distinguished by %s", ErrUnsupportedLanguage, req.SourceLanguage, req.TargetLanguage, workersAIModel)
	}

	payload, err := json.Marshal(map[string]string{
		"text":        req.Text,
		"source_lang": source,
		"target_lang": target,
	})
	if err != nil {
		return "", fmt.Errorf("marshal workers ai request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/accounts/%s/ai/run/%s", e.baseURL, url.PathEscape(e.accountID), workersAIModel)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build workers ai request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+e.apiToken)

	var apiResp struct {
		Success bool `json:"success"`
		Result  struct {
			TranslatedText string `json:"translated_text"`
		} `json:"result"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := doJSON(e.httpClient, httpReq, &apiResp); err != nil {
		return "", fmt.Errorf("workers ai translation failed: %w", err)
	}
	if len(apiResp.Errors) > 0 {
		return "", fmt.Errorf("workers ai translation failed: %s", apiResp.Errors[0].Message)
	}
	text := strings.TrimSpace(apiResp.Result.TranslatedText)
	if text == "" {
		return "", errEmptyTranslation
	}
	return text, nil
}

func doJSON(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
