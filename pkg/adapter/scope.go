package adapter

import "context"

// WithClient runs fn inside a scoped client lifetime: Connect on entry,
// Disconnect on every exit path. A Connect failure aborts before fn runs.
// The error returned by fn wins over a secondary Disconnect error.
func WithClient(ctx context.Context, client Client, fn func(ctx context.Context, client Client) error) (err error) {
	if err = client.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		if derr := client.Disconnect(ctx); derr != nil && err == nil {
			err = derr
		}
	}()

	return fn(ctx, client)
}
