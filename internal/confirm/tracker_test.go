package confirm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	clientconfig "github.com/LumeraProtocol/testnet-seeder/client/config"
	"github.com/LumeraProtocol/testnet-seeder/types"
)

type lookupStep struct {
	events []types.EventRecord
	err    error
}

type stubLookup struct {
	mu     sync.Mutex
	steps  []lookupStep
	calls  int
	hashes []types.TxHandle
}

func (s *stubLookup) Lookup(ctx context.Context, txHash types.TxHandle) ([]types.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	if idx >= len(s.steps) {
		idx = len(s.steps) - 1
	}
	s.calls++
	s.hashes = append(s.hashes, txHash)
	return s.steps[idx].events, s.steps[idx].err
}

func (s *stubLookup) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type sleepRecorder struct {
	delays []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

const (
	testSettle  = 45 * time.Second
	testBackoff = 30 * time.Second
)

func newTestTracker(l Lookup, maxRetries int, rec *sleepRecorder) *Tracker {
	return &Tracker{
		lookup:      l,
		backoff:     NewBackoff(testBackoff),
		settleDelay: testSettle,
		maxRetries:  maxRetries,
		logger:      zap.NewNop(),
		sleep:       rec.sleep,
	}
}

func event(module, name string, attrs map[string]string) types.EventRecord {
	return types.EventRecord{Receipt: types.Receipt{Module: module, Event: name}, Attributes: attrs}
}

func TestConfirmSucceedsAfterAbsentLookups(t *testing.T) {
	success := []types.EventRecord{event("System", "ExtrinsicSuccess", map[string]string{})}
	l := &stubLookup{steps: []lookupStep{
		{err: ErrAbsent},
		{err: ErrAbsent},
		{events: success},
	}}
	rec := &sleepRecorder{}

	events, err := newTestTracker(l, 3, rec).Confirm(context.Background(), "0xabc", types.PlainTxSpec)
	require.NoError(t, err)
	require.Equal(t, success, events)
	require.Equal(t, 3, l.callCount())
	require.Equal(t, []time.Duration{testSettle, testBackoff, 2 * testBackoff}, rec.delays)
	require.Equal(t, []types.TxHandle{"0xabc", "0xabc", "0xabc"}, l.hashes)
}

func TestConfirmStopsAfterMaxRetries(t *testing.T) {
	for _, maxRetries := range []int{1, 3, 6} {
		l := &stubLookup{steps: []lookupStep{{err: ErrAbsent}}}
		rec := &sleepRecorder{}

		_, err := newTestTracker(l, maxRetries, rec).Confirm(context.Background(), "hash", types.PlainTxSpec)
		require.ErrorIs(t, err, types.ErrConfirmationExhausted)
		require.Equal(t, maxRetries, l.callCount())

		var txErr *types.TxError
		require.ErrorAs(t, err, &txErr)
		require.Equal(t, types.TxHandle("hash"), txErr.TxHash)
		require.Equal(t, maxRetries, txErr.Attempts)

		// settle delay plus one backoff between consecutive lookups
		require.Len(t, rec.delays, maxRetries)
		for k := 1; k < maxRetries; k++ {
			require.Equal(t, testBackoff*time.Duration(1<<(k-1)), rec.delays[k], "retry %d", k)
		}
	}
}

func TestConfirmTreatsEmptyEventSetAsAbsent(t *testing.T) {
	l := &stubLookup{steps: []lookupStep{
		{events: []types.EventRecord{}},
		{events: []types.EventRecord{event("Utility", "BatchCompleted", nil)}},
	}}
	rec := &sleepRecorder{}

	events, err := newTestTracker(l, 3, rec).Confirm(context.Background(), "hash", types.BatchTxSpec)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, 2, l.callCount())
}

func TestConfirmFailsFastOnMismatch(t *testing.T) {
	l := &stubLookup{steps: []lookupStep{
		{events: []types.EventRecord{event("System", "ExtrinsicFailed", map[string]string{"reason": "BadOrigin"})}},
		{events: []types.EventRecord{event("System", "ExtrinsicSuccess", nil)}},
	}}
	rec := &sleepRecorder{}

	_, err := newTestTracker(l, 3, rec).Confirm(context.Background(), "hash", types.PlainTxSpec)
	require.ErrorIs(t, err, types.ErrEventNotFound)
	require.NotErrorIs(t, err, types.ErrConfirmationExhausted)
	require.Equal(t, 1, l.callCount())
	require.Equal(t, []time.Duration{testSettle}, rec.delays)
}

func TestConfirmReturnsFullEventSet(t *testing.T) {
	all := []types.EventRecord{
		event("Balances", "Withdraw", nil),
		event("Balances", "Transfer", map[string]string{"amount": "10"}),
		event("Utility", "ItemCompleted", nil),
		event("Utility", "BatchCompleted", nil),
		event("TransactionPayment", "TransactionFeePaid", nil),
	}
	l := &stubLookup{steps: []lookupStep{{events: all}}}

	events, err := newTestTracker(l, 3, &sleepRecorder{}).Confirm(context.Background(), "hash", types.BatchTxSpec)
	require.NoError(t, err)
	require.Equal(t, all, events)
}

func TestConfirmDoesNotRetryLookupFailures(t *testing.T) {
	boom := errors.New("connection refused")
	l := &stubLookup{steps: []lookupStep{{err: boom}}}

	_, err := newTestTracker(l, 3, &sleepRecorder{}).Confirm(context.Background(), "hash", types.PlainTxSpec)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, l.callCount())
}

func TestConfirmStopsWhenContextCancelled(t *testing.T) {
	l := &stubLookup{steps: []lookupStep{{err: ErrAbsent}}}
	tr := &Tracker{
		lookup:      l,
		backoff:     NewBackoff(time.Hour),
		settleDelay: time.Millisecond,
		maxRetries:  5,
		logger:      zap.NewNop(),
		sleep:       sleepCtx,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := tr.Confirm(ctx, "hash", types.PlainTxSpec)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 5*time.Second)
	require.Equal(t, 1, l.callCount())
}

func TestNewAppliesDefaults(t *testing.T) {
	_, err := New(nil, clientconfig.ConfirmTxConfig{}, nil)
	require.Error(t, err)

	tr, err := New(&stubLookup{}, clientconfig.ConfirmTxConfig{MaxRetries: 4, SettleDelay: time.Second}, nil)
	require.NoError(t, err)
	require.Equal(t, 4, tr.maxRetries)
	require.Equal(t, time.Second, tr.settleDelay)
	require.Equal(t, clientconfig.DefaultConfirmTxConfig().InitialBackoff, tr.backoff.Next(1))
	require.NotNil(t, tr.logger)
}
