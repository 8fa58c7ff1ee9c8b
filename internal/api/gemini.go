package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/geminitutor/internal/errors"
	"github.com/diogo/geminitutor/internal/models"
)

const (
	geminiRoleUser  = "user"
	geminiRoleModel = "model"

	// maxSSELine bounds a single server-sent event line
	maxSSELine = 1 << 20
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

// GeminiGateway talks to the Generative Language streaming endpoint
type GeminiGateway struct {
	httpClient tls_client.HttpClient
	apiKey     string
	model      models.Model
	baseURL    string
	timeout    time.Duration
	logger     *slog.Logger
}

// GeminiOption configures a GeminiGateway
type GeminiOption func(*GeminiGateway)

// WithModel sets the model used for every session
func WithModel(model models.Model) GeminiOption {
	return func(g *GeminiGateway) {
		g.model = model
	}
}

// WithBaseURL overrides the API endpoint
func WithBaseURL(baseURL string) GeminiOption {
	return func(g *GeminiGateway) {
		if baseURL != "" {
			g.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient injects the HTTP client, mainly for tests
func WithHTTPClient(client tls_client.HttpClient) GeminiOption {
	return func(g *GeminiGateway) {
		g.httpClient = client
	}
}

// WithRequestTimeout sets the overall timeout of one streaming request
func WithRequestTimeout(d time.Duration) GeminiOption {
	return func(g *GeminiGateway) {
		g.timeout = d
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) GeminiOption {
	return func(g *GeminiGateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGeminiGateway creates a gateway for the given API key
func NewGeminiGateway(apiKey string, opts ...GeminiOption) (*GeminiGateway, error) {
	if apiKey == "" {
		return nil, apierrors.NewConfigError("API_KEY", apierrors.ErrMissingAPIKey)
	}

	g := &GeminiGateway{
		apiKey:  apiKey,
		model:   models.DefaultModel,
		baseURL: models.EndpointGeminiBase,
		timeout: 300 * time.Second,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.httpClient == nil {
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(int(g.timeout.Seconds())),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithNotFollowRedirects(),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		g.httpClient = httpClient
	}

	return g, nil
}

// Name implements Gateway
func (g *GeminiGateway) Name() string {
	return models.ProviderGemini + "/" + g.model.Name
}

// Model returns the configured model
func (g *GeminiGateway) Model() models.Model {
	return g.model
}

// Endpoint returns the streaming URL for the configured model
func (g *GeminiGateway) Endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse", g.baseURL, g.model.Name)
}

// Open implements Gateway. No request is made until the first Send.
func (g *GeminiGateway) Open(ctx context.Context, systemInstruction string) (Session, error) {
	if strings.TrimSpace(systemInstruction) == "" {
		return nil, apierrors.NewAPIError(0, g.Endpoint(), "system instruction cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.logger.Debug("gemini session opened", "model", g.model.Name)

	return &geminiSession{
		gateway: g,
		system:  systemInstruction,
	}, nil
}

// geminiSession keeps the conversation client-side
type geminiSession struct {
	gateway *GeminiGateway
	system  string

	mu      sync.Mutex
	history []geminiContent
}

// History returns a copy of the completed turns
func (s *geminiSession) History() []geminiContent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]geminiContent, len(s.history))
	copy(out, s.history)
	return out
}

func (s *geminiSession) buildRequest(text string) ([]byte, error) {
	s.mu.Lock()
	contents := make([]geminiContent, 0, len(s.history)+1)
	contents = append(contents, s.history...)
	s.mu.Unlock()

	contents = append(contents, geminiContent{
		Role:  geminiRoleUser,
		Parts: []geminiPart{{Text: text}},
	})

	return json.Marshal(geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: s.system}}},
		Contents:          contents,
	})
}

func (s *geminiSession) commit(userText, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history,
		geminiContent{Role: geminiRoleUser, Parts: []geminiPart{{Text: userText}}},
		geminiContent{Role: geminiRoleModel, Parts: []geminiPart{{Text: reply}}},
	)
}

// Send implements Session
func (s *geminiSession) Send(ctx context.Context, text string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		g := s.gateway
		endpoint := g.Endpoint()

		if text == "" {
			yield("", fmt.Errorf("message cannot be empty"))
			return
		}

		payload, err := s.buildRequest(text)
		if err != nil {
			yield("", fmt.Errorf("failed to build payload: %w", err))
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			yield("", fmt.Errorf("failed to create request: %w", err))
			return
		}

		for key, value := range models.DefaultHeaders() {
			req.Header.Set(key, value)
		}
		req.Header.Set("x-goog-api-key", g.apiKey)

		started := time.Now()
		resp, err := g.httpClient.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				yield("", ctxErr)
				return
			}
			yield("", apierrors.NewNetworkError(endpoint, err))
			return
		}
		defer func() {
			if resp != nil && resp.Body != nil {
				_ = resp.Body.Close()
			}
		}()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			err := statusError(resp.StatusCode, endpoint, body)
			g.logger.Warn("gemini request rejected", "status", resp.StatusCode, "error", err)
			yield("", err)
			return
		}

		var reply strings.Builder
		fragments := 0
		stopped := false

		err = readSSE(resp.Body, func(data []byte) bool {
			texts, err := parseStreamChunk(data, endpoint)
			if err != nil {
				yield("", err)
				stopped = true
				return false
			}
			for _, t := range texts {
				if fragments == 0 {
					g.logger.Debug("gemini first fragment", "latency", time.Since(started))
				}
				fragments++
				reply.WriteString(t)
				if !yield(t, nil) {
					stopped = true
					return false
				}
			}
			return true
		})
		if stopped {
			return
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				yield("", ctxErr)
				return
			}
			yield("", apierrors.NewNetworkError(endpoint, err))
			return
		}

		s.commit(text, reply.String())
		g.logger.Debug("gemini turn complete", "fragments", fragments, "chars", reply.Len(), "elapsed", time.Since(started))
	}
}

// readSSE calls fn with the payload of every data line until fn returns false
func readSSE(r io.Reader, fn func(data []byte) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELine)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if !bytes.HasPrefix(line, []byte("data:")) {
			continue
		}
		data := bytes.TrimSpace(line[len("data:"):])
		if len(data) == 0 || bytes.Equal(data, []byte("[DONE]")) {
			continue
		}
		if !fn(data) {
			return nil
		}
	}
	return scanner.Err()
}

// parseStreamChunk extracts the visible text parts of one streamed response
func parseStreamChunk(data []byte, endpoint string) ([]string, error) {
	if !gjson.ValidBytes(data) {
		return nil, apierrors.NewParseError("invalid JSON in stream event", endpoint)
	}

	if e := gjson.GetBytes(data, "error"); e.Exists() {
		return nil, payloadError(e, endpoint)
	}

	if reason := gjson.GetBytes(data, "promptFeedback.blockReason"); reason.Exists() {
		return nil, apierrors.NewBlockedError(reason.String())
	}

	var texts []string
	gjson.GetBytes(data, "candidates.0.content.parts").ForEach(func(_, part gjson.Result) bool {
		if part.Get("thought").Bool() {
			return true
		}
		if t := part.Get("text").String(); t != "" {
			texts = append(texts, t)
		}
		return true
	})

	if len(texts) == 0 {
		switch reason := gjson.GetBytes(data, "candidates.0.finishReason").String(); reason {
		case "SAFETY", "PROHIBITED_CONTENT", "BLOCKLIST", "SPII":
			return nil, apierrors.NewBlockedError(reason)
		}
	}

	return texts, nil
}

// payloadError maps an {"error": {...}} object to a typed error
func payloadError(e gjson.Result, endpoint string) error {
	code := int(e.Get("code").Int())
	message := e.Get("message").String()
	if message == "" {
		message = e.Get("status").String()
	}

	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apierrors.NewAuthError(message)
	case http.StatusTooManyRequests:
		return apierrors.NewUsageLimitError(message)
	}
	return apierrors.NewAPIError(code, endpoint, message)
}

// statusError maps a non-200 response to a typed error
func statusError(status int, endpoint string, body []byte) error {
	message := gjson.GetBytes(body, "error.message").String()
	if message == "" {
		message = http.StatusText(status)
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apierrors.NewAuthError(message)
	case http.StatusTooManyRequests:
		return apierrors.NewUsageLimitError(message)
	}
	return apierrors.NewAPIErrorWithBody(status, endpoint, message, string(body))
}
