package promoservice

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	promodb "github.com/Black-And-White-Club/dingleup/app/modules/promo/infrastructure/repositories"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Promo Repo
// ------------------------

type FakePromoRepo struct {
	mu    sync.Mutex
	trace []string

	shown map[uuid.UUID][]time.Time

	ListErr error
}

func NewFakePromoRepo() *FakePromoRepo {
	return &FakePromoRepo{trace: []string{}, shown: map[uuid.UUID][]time.Time{}}
}

func (f *FakePromoRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakePromoRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.trace...)
}

func (f *FakePromoRepo) ListShownSince(_ context.Context, _ bun.IDB, userUUID uuid.UUID, since time.Time) ([]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListShownSince")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	var out []time.Time
	for _, t := range f.shown[userUUID] {
		if t.After(since) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (f *FakePromoRepo) InsertImpression(_ context.Context, _ bun.IDB, userUUID uuid.UUID, shownAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InsertImpression")
	f.shown[userUUID] = append(f.shown[userUUID], shownAt)
	return nil
}

func (f *FakePromoRepo) LockUser(context.Context, bun.IDB, uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("LockUser")
	return nil
}

func (f *FakePromoRepo) DeleteBefore(_ context.Context, _ bun.IDB, before time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteBefore")
	n := 0
	for id, times := range f.shown {
		kept := times[:0]
		for _, t := range times {
			if t.Before(before) {
				n++
				continue
			}
			kept = append(kept, t)
		}
		f.shown[id] = kept
	}
	return n, nil
}

var _ promodb.Repository = (*FakePromoRepo)(nil)

// ------------------------
// Fake Publisher
// ------------------------

type FakePublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte

	Err error
}

func (p *FakePublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	for _, msg := range msgs {
		p.topics = append(p.topics, topic)
		p.payloads = append(p.payloads, msg.Payload)
	}
	return nil
}

func (p *FakePublisher) Close() error { return nil }

func (p *FakePublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

func (p *FakePublisher) Decode(i int, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return json.Unmarshal(p.payloads[i], v)
}

var errBroker = errors.New("broker down")
