package orders

import (
	"context"
	"fmt"
	"sync"

	"github.com/ayush/partners-api/internal/models"
)

type fakeGuard struct {
	mu       sync.Mutex
	claimed  map[string]bool
	err      error
	released int
}

func newFakeGuard() *fakeGuard { return &fakeGuard{claimed: map[string]bool{}} }

func (g *fakeGuard) Claim(_ context.Context, storeID, orderID int64) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	k := fmt.Sprintf("%d:%d", storeID, orderID)
	if g.claimed[k] {
		return false, nil
	}
	g.claimed[k] = true
	return true, nil
}

func (g *fakeGuard) Release(_ context.Context, storeID, orderID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.claimed, fmt.Sprintf("%d:%d", storeID, orderID))
	g.released++
	return nil
}

type fakeJournal struct {
	mu     sync.Mutex
	events []models.WebhookEvent
	err    error
}

func (j *fakeJournal) Record(_ context.Context, ev *models.WebhookEvent) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return "", j.err
	}
	j.events = append(j.events, *ev)
	return fmt.Sprintf("ev-%d", len(j.events)), nil
}

func (j *fakeJournal) ListByOrder(_ context.Context, storeID, orderID int64) ([]models.WebhookEvent, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return nil, j.err
	}
	var out []models.WebhookEvent
	for _, ev := range j.events {
		if ev.StoreID == storeID && ev.OrderID == orderID {
			out = append(out, ev)
		}
	}
	return out, nil
}

type fakeArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newFakeArchive() *fakeArchive { return &fakeArchive{objects: map[string][]byte{}} }

func (a *fakeArchive) Upload(_ context.Context, key string, data []byte, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.objects[key] = append([]byte(nil), data...)
	return nil
}

func (a *fakeArchive) Remove(_ context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.objects, key)
	return nil
}
