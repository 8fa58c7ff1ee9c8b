package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	apierrors "github.com/diogo/geminitutor/internal/errors"
	"github.com/diogo/geminitutor/internal/models"
)

// ArkConfig holds the settings for the Volcengine Ark provider
type ArkConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Region  string
	Timeout time.Duration
}

// ArkGateway streams chat completions through an Eino chat model
type ArkGateway struct {
	chatModel model.BaseChatModel
	modelName string
	logger    *slog.Logger
}

// NewArkGateway creates an Ark-backed gateway
func NewArkGateway(ctx context.Context, cfg ArkConfig, logger *slog.Logger) (*ArkGateway, error) {
	if cfg.APIKey == "" {
		return nil, apierrors.NewConfigError("ARK_API_KEY", apierrors.ErrMissingAPIKey)
	}
	if cfg.Model == "" {
		return nil, apierrors.NewConfigError("ARK_MODEL", errors.New("ark provider requires a model endpoint ID"))
	}

	arkCfg := &ark.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		Region:  cfg.Region,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	}
	if cfg.Timeout > 0 {
		timeout := cfg.Timeout
		arkCfg.Timeout = &timeout
	}

	chatModel, err := ark.NewChatModel(ctx, arkCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	return NewArkGatewayWithModel(chatModel, cfg.Model, logger), nil
}

// NewArkGatewayWithModel wraps an existing chat model
func NewArkGatewayWithModel(chatModel model.BaseChatModel, modelName string, logger *slog.Logger) *ArkGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArkGateway{
		chatModel: chatModel,
		modelName: modelName,
		logger:    logger,
	}
}

// Name implements Gateway
func (g *ArkGateway) Name() string {
	return models.ProviderArk + "/" + g.modelName
}

// Open implements Gateway
func (g *ArkGateway) Open(ctx context.Context, systemInstruction string) (Session, error) {
	if strings.TrimSpace(systemInstruction) == "" {
		return nil, apierrors.NewAPIError(0, g.Name(), "system instruction cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.logger.Debug("ark session opened", "model", g.modelName)

	return &arkSession{
		gateway: g,
		history: []*schema.Message{schema.SystemMessage(systemInstruction)},
	}, nil
}

type arkSession struct {
	gateway *ArkGateway

	mu      sync.Mutex
	history []*schema.Message
}

func (s *arkSession) snapshot(text string) []*schema.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]*schema.Message, 0, len(s.history)+1)
	msgs = append(msgs, s.history...)
	return append(msgs, schema.UserMessage(text))
}

// Send implements Session
func (s *arkSession) Send(ctx context.Context, text string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		g := s.gateway

		stream, err := g.chatModel.Stream(ctx, s.snapshot(text))
		if err != nil {
			yield("", apierrors.NewAPIError(0, g.Name(), err.Error()))
			return
		}
		defer stream.Close()

		var reply strings.Builder
		for {
			chunk, recvErr := stream.Recv()
			if errors.Is(recvErr, io.EOF) {
				break
			}
			if recvErr != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					yield("", ctxErr)
					return
				}
				yield("", apierrors.NewAPIError(0, g.Name(), recvErr.Error()))
				return
			}
			if chunk == nil || chunk.Content == "" {
				continue
			}

			reply.WriteString(chunk.Content)
			if !yield(chunk.Content, nil) {
				return
			}
		}

		s.mu.Lock()
		s.history = append(s.history, schema.UserMessage(text), schema.AssistantMessage(reply.String(), nil))
		s.mu.Unlock()

		g.logger.Debug("ark turn complete", "chars", reply.Len())
	}
}
