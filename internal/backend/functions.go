package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// DefaultFunction is the edge function that proxies LLM completions.
const DefaultFunction = "ai-recommendations"

type functionRequest struct {
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
}

type functionResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Function invokes a named edge function that accepts {prompt, system} and
// returns {response}.
type Function struct {
	client *Client
	name   string
}

func (c *Client) Function(name string) *Function {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultFunction
	}
	return &Function{client: c, name: name}
}

func (f *Function) Name() string {
	return f.name
}

// GenerateContent sends the prompt to the edge function and returns the model text.
func (f *Function) GenerateContent(ctx context.Context, system, prompt string) (string, error) {
	endpoint := f.client.BaseURL + functionsPath + "/" + f.name

	var resp functionResponse
	if err := f.client.postJSON(ctx, endpoint, functionRequest{Prompt: prompt, System: system}, http.StatusOK, &resp); err != nil {
		return "", fmt.Errorf("function %s: %w", f.name, err)
	}

	if resp.Error != "" {
		return "", fmt.Errorf("function %s: %s", f.name, resp.Error)
	}

	text := strings.TrimSpace(resp.Response)
	if text == "" {
		return "", fmt.Errorf("function %s returned an empty response", f.name)
	}

	f.client.logger.Debug("edge function responded", zap.String("function", f.name), zap.Int("length", len(text)))

	return text, nil
}
