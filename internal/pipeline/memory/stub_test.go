package memory

import (
	"context"
	"errors"
	"time"

	"chatbot-platform/internal/model/llm"
)

// stubClient 可编程的 LLM 客户端桩
type stubClient struct {
	model    string
	reply    string
	usage    llm.Usage
	err      error
	delay    time.Duration
	lastMsgs []llm.Message
	lastOpts llm.GenerateOptions
	calls    int
}

func newStubClient(reply string) *stubClient {
	return &stubClient{model: "stub-model", reply: reply}
}

func (c *stubClient) Generate(prompt string, options llm.GenerateOptions) (string, error) {
	return c.GenerateWithContext(context.Background(), prompt, options)
}

func (c *stubClient) GenerateWithContext(ctx context.Context, prompt string, options llm.GenerateOptions) (string, error) {
	return c.ChatWithContext(ctx, []llm.Message{{Role: "user", Content: prompt}}, options)
}

func (c *stubClient) Chat(messages []llm.Message, options llm.GenerateOptions) (string, error) {
	return c.ChatWithContext(context.Background(), messages, options)
}

func (c *stubClient) ChatWithContext(ctx context.Context, messages []llm.Message, options llm.GenerateOptions) (string, error) {
	result, err := c.ChatWithUsage(ctx, messages, options)
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

func (c *stubClient) ChatWithUsage(ctx context.Context, messages []llm.Message, options llm.GenerateOptions) (*llm.ChatResult, error) {
	c.calls++
	c.lastMsgs = messages
	c.lastOpts = options
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	return &llm.ChatResult{Content: c.reply, Usage: c.usage}, nil
}

func (c *stubClient) Model() string           { return c.model }
func (c *stubClient) Provider() string        { return "stub" }
func (c *stubClient) SetModel(model string)   { c.model = model }
func (c *stubClient) SetAPIKey(apiKey string) {}

var errStubUpstream = errors.New("upstream unavailable")
