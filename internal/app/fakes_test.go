package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"dune_notification_bot/internal/domain/notification"
	"dune_notification_bot/internal/domain/query"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// queryScript describes how the fake service behaves for one query ID:
// which statuses successive polls report and which result pages exist.
type queryScript struct {
	submitErr error
	statuses  []query.Status
	detail    string
	pages     [][]query.Row

	pollIdx int
}

type fakeQueryService struct {
	mu        sync.Mutex
	scripts   map[int64]*queryScript
	execs     map[string]*queryScript
	cancelled []string

	fetchCalls int
	latestRows []query.Row
	latestErr  error
}

func newFakeQueryService() *fakeQueryService {
	return &fakeQueryService{
		scripts: map[int64]*queryScript{},
		execs:   map[string]*queryScript{},
	}
}

func (f *fakeQueryService) script(queryID int64, s *queryScript) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[queryID] = s
}

func (f *fakeQueryService) Submit(ctx context.Context, queryID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sc, ok := f.scripts[queryID]
	if !ok {
		return "", fmt.Errorf("no script for query %d", queryID)
	}
	if sc.submitErr != nil {
		return "", sc.submitErr
	}
	execID := fmt.Sprintf("exec-%d", queryID)
	f.execs[execID] = sc
	return execID, nil
}

func (f *fakeQueryService) Poll(ctx context.Context, executionID string) (query.Status, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sc, ok := f.execs[executionID]
	if !ok {
		return "", "", fmt.Errorf("unknown execution %s", executionID)
	}
	idx := sc.pollIdx
	if idx >= len(sc.statuses) {
		idx = len(sc.statuses) - 1
	} else {
		sc.pollIdx++
	}
	return sc.statuses[idx], sc.detail, nil
}

func (f *fakeQueryService) FetchResults(ctx context.Context, executionID string, page int) ([]query.Row, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sc, ok := f.execs[executionID]
	if !ok {
		return nil, false, fmt.Errorf("unknown execution %s", executionID)
	}
	f.fetchCalls++
	if page >= len(sc.pages) {
		return nil, false, nil
	}
	return sc.pages[page], page < len(sc.pages)-1, nil
}

func (f *fakeQueryService) Cancel(ctx context.Context, executionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, executionID)
	return nil
}

func (f *fakeQueryService) LatestResults(ctx context.Context, queryID int64) ([]query.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latestRows, f.latestErr
}

func (f *fakeQueryService) cancelledIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cancelled...)
}

type sentUnit struct {
	chatID int64
	unit   notification.Unit
	at     time.Time
}

// fakeChatClient records delivered units and can fail sends via errFor,
// which receives the unit and the 1-based attempt count for that unit.
type fakeChatClient struct {
	mu       sync.Mutex
	sent     []sentUnit
	texts    []string
	attempts map[string]int
	errFor   func(unit notification.Unit, attempt int) error
}

func newFakeChatClient() *fakeChatClient {
	return &fakeChatClient{attempts: map[string]int{}}
}

func (f *fakeChatClient) SendUnit(ctx context.Context, chatID int64, unit notification.Unit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := unit.Title + "|" + unit.Footer
	f.attempts[key]++
	if f.errFor != nil {
		if err := f.errFor(unit, f.attempts[key]); err != nil {
			return err
		}
	}
	f.sent = append(f.sent, sentUnit{chatID: chatID, unit: unit, at: time.Now()})
	return nil
}

func (f *fakeChatClient) SendText(ctx context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeChatClient) sentUnits() []sentUnit {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentUnit(nil), f.sent...)
}

func (f *fakeChatClient) attemptCount(unit notification.Unit) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[unit.Title+"|"+unit.Footer]
}
