package modules

import (
	"context"
	"sync"
)

// Module is a long-running part of the application.
type Module interface {
	// Run blocks until ctx is cancelled and calls wg.Done on return.
	Run(ctx context.Context, wg *sync.WaitGroup)
	Close() error
}
