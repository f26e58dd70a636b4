package llm

import "context"

// StaticClient returns a canned reply or error. Used in tests and as the
// offline placeholder before a provider key is configured.
type StaticClient struct {
	Reply string
	Err   error
}

// Complete returns the configured reply.
func (c StaticClient) Complete(ctx context.Context, req Request) (string, error) {
	if c.Err != nil {
		return "", c.Err
	}
	return c.Reply, nil
}

var _ Client = StaticClient{}
