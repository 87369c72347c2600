package application

import "context"

// Worker represents a background loop such as the feed synchronizer.
// Implementations must run until the context is canceled.
type Worker interface {
	Start(ctx context.Context)
}
