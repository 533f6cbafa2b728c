// Package agent implements the API assistant: cache-first answering with an
// LLM fallback that can invoke catalog operations under a review gate.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rowandev/apilot/internal/cache"
	"github.com/rowandev/apilot/internal/catalog"
	"github.com/rowandev/apilot/internal/provider"
	"go.uber.org/zap"
)

const defaultSystemPrompt = `You are an API assistant. You help users work with REST APIs:
answering questions about the available operations and invoking them on the
user's behalf when asked. Prefer invoking an operation over guessing its
result. Answer concisely.`

// Options configures the assistant.
type Options struct {
	Model         string
	Temperature   float64
	MaxTokens     int
	MaxToolRounds int
	SystemPrompt  string
}

// DefaultOptions returns the assistant defaults.
func DefaultOptions() Options {
	return Options{
		Temperature:   0.2,
		MaxTokens:     2048,
		MaxToolRounds: 5,
		SystemPrompt:  defaultSystemPrompt,
	}
}

// AskRequest is one user question.
type AskRequest struct {
	Text    string            `json:"text"`
	OwnerID string            `json:"owner_id"`
	Context map[string]string `json:"context,omitempty"`
	Bypass  bool              `json:"bypass,omitempty"`
}

// AskResult is the assistant's answer.
type AskResult struct {
	Content     string         `json:"content"`
	Cached      bool           `json:"cached"`
	Invocations []Invocation   `json:"invocations,omitempty"`
	Usage       provider.Usage `json:"usage"`
	Elapsed     time.Duration  `json:"elapsed"`
}

// Invocation records one operation call made while answering.
type Invocation struct {
	Operation string `json:"operation"`
	Arguments string `json:"arguments"`
	Approved  bool   `json:"approved"`
	Result    string `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Assistant answers API questions, consulting the response cache before the
// LLM and writing fresh answers back through it.
type Assistant struct {
	router   *provider.Router
	cache    *cache.ResponseCache
	catalog  *catalog.Catalog
	invoker  *catalog.Invoker
	reviewer Reviewer
	opts     Options
	logger   *zap.Logger
}

// NewAssistant wires the assistant. A nil reviewer defaults to AutoApprove.
func NewAssistant(router *provider.Router, rc *cache.ResponseCache, cat *catalog.Catalog,
	inv *catalog.Invoker, reviewer Reviewer, opts Options, logger *zap.Logger) *Assistant {
	if reviewer == nil {
		reviewer = AutoApprove{}
	}
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = DefaultOptions().MaxToolRounds
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = defaultSystemPrompt
	}
	return &Assistant{
		router:   router,
		cache:    rc,
		catalog:  cat,
		invoker:  inv,
		reviewer: reviewer,
		opts:     opts,
		logger:   logger,
	}
}

// Ask answers one question. The cache is consulted first; on a miss the
// question goes to the LLM with the catalog's tools attached. Answers that
// involved no invocations are written back to the cache best-effort.
func (a *Assistant) Ask(ctx context.Context, req AskRequest) (*AskResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("empty question")
	}
	start := time.Now()

	entry, err := a.cache.Get(ctx, req.Text, req.Context, req.OwnerID, req.Bypass)
	if err == nil {
		a.logger.Info("answered from cache",
			zap.String("owner", req.OwnerID), zap.String("entry", entry.ID))
		return &AskResult{
			Content: entry.Response,
			Cached:  true,
			Elapsed: time.Since(start),
		}, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		// A broken cache backend degrades to LLM-only answering.
		a.logger.Warn("cache lookup failed, falling through to provider",
			zap.String("owner", req.OwnerID), zap.Error(err))
	}

	result, err := a.complete(ctx, req)
	if err != nil {
		return nil, err
	}
	result.Elapsed = time.Since(start)

	// Answers that ran operations reflect live state; only pure answers are
	// safe to replay.
	if len(result.Invocations) == 0 && !req.Bypass {
		if _, err := a.cache.Set(ctx, req.Text, req.Context, req.OwnerID, result.Content); err != nil {
			a.logger.Warn("cache write failed",
				zap.String("owner", req.OwnerID), zap.Error(err))
		}
	}
	return result, nil
}

// complete runs the LLM conversation with bounded tool rounds.
func (a *Assistant) complete(ctx context.Context, req AskRequest) (*AskResult, error) {
	messages := []provider.Message{
		{Role: "system", Content: a.systemPrompt(req)},
		{Role: "user", Content: req.Text},
	}

	result := &AskResult{}
	var tools []provider.Tool
	if a.catalog != nil {
		tools = a.catalog.ToolDefinitions()
	}

	for round := 0; round <= a.opts.MaxToolRounds; round++ {
		resp, err := a.router.Route(ctx, &provider.ChatRequest{
			Model:       a.opts.Model,
			Messages:    messages,
			Temperature: a.opts.Temperature,
			MaxTokens:   a.opts.MaxTokens,
			Tools:       tools,
		})
		if err != nil {
			return nil, fmt.Errorf("provider: %w", err)
		}
		result.Usage.PromptTokens += resp.Usage.PromptTokens
		result.Usage.CompletionTokens += resp.Usage.CompletionTokens
		result.Usage.TotalTokens += resp.Usage.TotalTokens

		if len(resp.ToolCalls) == 0 {
			result.Content = resp.Content
			return result, nil
		}
		if round == a.opts.MaxToolRounds {
			break
		}

		messages = append(messages, provider.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, tc := range resp.ToolCalls {
			inv := a.runTool(ctx, tc)
			result.Invocations = append(result.Invocations, inv)

			content := inv.Result
			if inv.Error != "" {
				content = "error: " + inv.Error
			}
			messages = append(messages, provider.Message{
				Role:       "tool",
				Content:    content,
				ToolCallID: tc.ID,
			})
		}
	}
	return nil, fmt.Errorf("no final answer after %d tool rounds", a.opts.MaxToolRounds)
}

// runTool gates one tool call through the reviewer and executes it.
func (a *Assistant) runTool(ctx context.Context, tc provider.ToolCall) Invocation {
	inv := Invocation{
		Operation: tc.Function.Name,
		Arguments: tc.Function.Arguments,
	}

	decision, err := a.reviewer.Review(ctx, tc.Function.Name, tc.Function.Arguments)
	if err != nil {
		inv.Error = fmt.Sprintf("review failed: %v", err)
		return inv
	}
	if !decision.Approved {
		inv.Error = "denied by reviewer: " + decision.Reason
		a.logger.Info("invocation denied",
			zap.String("operation", tc.Function.Name),
			zap.String("reason", decision.Reason))
		return inv
	}
	inv.Approved = true

	out, err := a.invoker.Invoke(ctx, tc.Function.Name, tc.Function.Arguments)
	if err != nil {
		inv.Error = err.Error()
		return inv
	}
	inv.Result = out
	return inv
}

// AskStream answers without the cache or tools, streaming the raw model
// output. Used by the chat CLI.
func (a *Assistant) AskStream(ctx context.Context, req AskRequest) (<-chan *provider.StreamChunk, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("empty question")
	}
	return a.router.RouteStream(ctx, &provider.ChatRequest{
		Model: a.opts.Model,
		Messages: []provider.Message{
			{Role: "system", Content: a.systemPrompt(req)},
			{Role: "user", Content: req.Text},
		},
		Temperature: a.opts.Temperature,
		MaxTokens:   a.opts.MaxTokens,
	})
}

func (a *Assistant) systemPrompt(req AskRequest) string {
	prompt := a.opts.SystemPrompt
	if len(req.Context) == 0 {
		return prompt
	}
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\nRequest context:")
	for k, v := range req.Context {
		fmt.Fprintf(&b, "\n- %s: %s", k, v)
	}
	return b.String()
}
