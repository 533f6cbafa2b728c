package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/rowandev/apilot/internal/agent"
	"go.uber.org/zap"
)

// Gateway manages platform adapters and routes their messages to the
// assistant. Cache ownership follows the platform identity: each platform
// user gets their own cache scope.
type Gateway struct {
	adapters  map[string]Adapter
	assistant *agent.Assistant
	mu        sync.RWMutex
	logger    *zap.Logger
}

// New creates a gateway manager over the assistant.
func New(assistant *agent.Assistant, logger *zap.Logger) *Gateway {
	return &Gateway{
		adapters:  make(map[string]Adapter),
		assistant: assistant,
		logger:    logger,
	}
}

// Register adds an adapter and wires its messages to the assistant.
func (g *Gateway) Register(adapter Adapter) {
	g.mu.Lock()
	defer g.mu.Unlock()

	platform := adapter.Platform()
	g.adapters[platform] = adapter
	adapter.OnMessage(func(msg *InboundMessage) {
		go g.handleInbound(msg)
	})
	g.logger.Info("registered gateway adapter", zap.String("platform", platform))
}

// handleInbound answers one platform message and replies in place.
func (g *Gateway) handleInbound(msg *InboundMessage) {
	ctx := context.Background()

	result, err := g.assistant.Ask(ctx, agent.AskRequest{
		Text:    msg.Content,
		OwnerID: ownerID(msg),
		Context: map[string]string{"platform": msg.Platform},
	})

	reply := &OutboundMessage{
		Platform:  msg.Platform,
		ChannelID: msg.ChannelID,
		ReplyTo:   msg.ReplyTo,
	}
	if err != nil {
		g.logger.Error("assistant failed for gateway message",
			zap.String("platform", msg.Platform),
			zap.String("user", msg.UserID), zap.Error(err))
		reply.Content = "Sorry, I could not process that request."
	} else {
		reply.Content = result.Content
	}

	if err := g.Send(ctx, reply); err != nil {
		g.logger.Error("gateway reply failed",
			zap.String("platform", msg.Platform), zap.Error(err))
	}
}

// ownerID scopes cache entries to one platform user.
func ownerID(msg *InboundMessage) string {
	return msg.Platform + ":" + msg.UserID
}

// ConnectAll starts all registered adapters.
func (g *Gateway) ConnectAll(ctx context.Context) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for platform, adapter := range g.adapters {
		if err := adapter.Connect(ctx); err != nil {
			g.logger.Error("adapter connect failed",
				zap.String("platform", platform), zap.Error(err))
			return fmt.Errorf("connect %s: %w", platform, err)
		}
		g.logger.Info("adapter connected", zap.String("platform", platform))
	}
	return nil
}

// Send sends a message to a specific platform channel.
func (g *Gateway) Send(ctx context.Context, msg *OutboundMessage) error {
	g.mu.RLock()
	adapter, ok := g.adapters[msg.Platform]
	g.mu.RUnlock()

	if !ok {
		return fmt.Errorf("no adapter for platform: %s", msg.Platform)
	}
	return adapter.Send(ctx, msg)
}

// Close shuts down all adapters.
func (g *Gateway) Close() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for platform, adapter := range g.adapters {
		if err := adapter.Close(); err != nil {
			g.logger.Error("adapter close failed",
				zap.String("platform", platform), zap.Error(err))
		}
	}
	return nil
}

// Adapters returns the registered platform names.
func (g *Gateway) Adapters() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, 0, len(g.adapters))
	for p := range g.adapters {
		names = append(names, p)
	}
	return names
}
