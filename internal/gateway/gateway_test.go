package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/rowandev/apilot/internal/agent"
	"github.com/rowandev/apilot/internal/cache"
	"github.com/rowandev/apilot/internal/catalog"
	"github.com/rowandev/apilot/internal/lexicon"
	"github.com/rowandev/apilot/internal/provider"
	"github.com/rowandev/apilot/internal/similarity"
	"go.uber.org/zap"
)

type fakeProvider struct{ answer string }

func (f fakeProvider) ID() string   { return "fake" }
func (f fakeProvider) Name() string { return "Fake" }

func (f fakeProvider) Chat(context.Context, *provider.ChatRequest) (*provider.ChatResponse, error) {
	return &provider.ChatResponse{Content: f.answer, FinishReason: "stop"}, nil
}

func (f fakeProvider) ChatStream(context.Context, *provider.ChatRequest) (<-chan *provider.StreamChunk, error) {
	ch := make(chan *provider.StreamChunk)
	close(ch)
	return ch, nil
}

func (f fakeProvider) ListModels(context.Context) ([]provider.Model, error) { return nil, nil }
func (f fakeProvider) HealthCheck(context.Context) error                    { return nil }

// fakeAdapter captures outbound messages and lets the test inject inbound ones.
type fakeAdapter struct {
	handler MessageHandler
	sent    chan *OutboundMessage
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{sent: make(chan *OutboundMessage, 4)}
}

func (f *fakeAdapter) Platform() string              { return "fake" }
func (f *fakeAdapter) Connect(context.Context) error { return nil }
func (f *fakeAdapter) OnMessage(h MessageHandler)    { f.handler = h }
func (f *fakeAdapter) Close() error                  { return nil }

func (f *fakeAdapter) Send(_ context.Context, msg *OutboundMessage) error {
	f.sent <- msg
	return nil
}

func newTestGateway(t *testing.T) (*Gateway, *fakeAdapter) {
	t.Helper()
	logger := zap.NewNop()

	router := provider.NewRouter(logger)
	router.Register(fakeProvider{answer: "the answer"})

	matcher := similarity.NewMatcher(lexicon.Builtin(), similarity.DefaultOptions(), logger)
	rc := cache.New(cache.NewMemoryStore(), matcher, logger)
	cat := catalog.New()
	inv := catalog.NewInvoker(cat, 0, logger)
	assistant := agent.NewAssistant(router, rc, cat, inv, nil, agent.DefaultOptions(), logger)

	g := New(assistant, logger)
	adapter := newFakeAdapter()
	g.Register(adapter)
	return g, adapter
}

func TestInboundMessageGetsReply(t *testing.T) {
	_, adapter := newTestGateway(t)

	adapter.handler(&InboundMessage{
		Platform:  "fake",
		ChannelID: "C1",
		UserID:    "U1",
		Content:   "list users",
		ReplyTo:   "T1",
	})

	select {
	case reply := <-adapter.sent:
		if reply.Content != "the answer" {
			t.Errorf("reply = %q", reply.Content)
		}
		if reply.ChannelID != "C1" || reply.ReplyTo != "T1" {
			t.Errorf("reply routing = %+v", reply)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reply sent")
	}
}

func TestSendToUnknownPlatform(t *testing.T) {
	g, _ := newTestGateway(t)
	err := g.Send(context.Background(), &OutboundMessage{Platform: "nope"})
	if err == nil {
		t.Error("expected error for unknown platform")
	}
}

func TestOwnerIDScoping(t *testing.T) {
	id := ownerID(&InboundMessage{Platform: "slack", UserID: "U42"})
	if id != "slack:U42" {
		t.Errorf("ownerID = %q", id)
	}
}
