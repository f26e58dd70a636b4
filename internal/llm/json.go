package llm

import (
	"context"
	"errors"
	"strings"
)

// ErrNoJSONObject reports a completion that contained no object literal.
var ErrNoJSONObject = errors.New("llm: no JSON object in completion")

// ExtractObject asks the provider to answer with a JSON object and returns
// the first {...} span of the reply. Providers often wrap JSON in prose or
// code fences, so the span is cut out rather than parsed wholesale.
func ExtractObject(ctx context.Context, client Client, instruction, text string) (string, error) {
	reply, err := client.Complete(ctx, Request{
		System:      instruction,
		Messages:    []Message{{Role: RoleUser, Content: text}},
		MaxTokens:   300,
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}

	content := strings.TrimSpace(reply)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSONObject
	}
	return content[start : end+1], nil
}
