package modules

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type FakeModule struct {
	name   string
	log    *[]string
	mu     *sync.Mutex
	ran    chan struct{}
	closer error
}

func (f *FakeModule) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	close(f.ran)
	<-ctx.Done()
}

func (f *FakeModule) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	*f.log = append(*f.log, f.name)
	return f.closer
}

func TestRegistry(t *testing.T) {
	var (
		mu  sync.Mutex
		log []string
	)
	newModule := func(name string, err error) *FakeModule {
		return &FakeModule{name: name, log: &log, mu: &mu, ran: make(chan struct{}), closer: err}
	}

	first := newModule("user", nil)
	second := newModule("wallet", errors.New("pool closed"))
	third := newModule("game", nil)

	r := NewRegistry()
	r.Add("user", first)
	r.Add("wallet", second)
	r.Add("game", third)
	assert.Equal(t, []string{"user", "wallet", "game"}, r.Names())

	ctx, cancel := context.WithCancel(context.Background())
	r.RunAll(ctx)
	for _, m := range []*FakeModule{first, second, third} {
		select {
		case <-m.ran:
		case <-time.After(time.Second):
			t.Fatalf("%s did not start", m.name)
		}
	}

	cancel()
	r.Wait()

	err := r.CloseAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wallet: pool closed")
	assert.Equal(t, []string{"game", "wallet", "user"}, log)
}
