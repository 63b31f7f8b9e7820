package ai

import "context"

type Client interface {
	Interpret(ctx context.Context, name, resultJSON string) (string, error)
}
