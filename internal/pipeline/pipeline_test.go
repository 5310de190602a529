package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	clientconfig "github.com/LumeraProtocol/testnet-seeder/client/config"
	"github.com/LumeraProtocol/testnet-seeder/internal/confirm"
	"github.com/LumeraProtocol/testnet-seeder/types"
)

type stubDispatcher struct {
	hash  types.TxHandle
	err   error
	calls atomic.Int32
}

func (d *stubDispatcher) Dispatch(ctx context.Context, signer types.Signer, tx types.Tx) (types.TxHandle, error) {
	n := d.calls.Add(1)
	if d.err != nil {
		return "", d.err
	}
	if d.hash != "" {
		return d.hash, nil
	}
	return types.TxHandle(fmt.Sprintf("tx-%d", n)), nil
}

type stubConfirmer struct {
	events []types.EventRecord
	err    error
	block  bool
	calls  atomic.Int32
	done   chan struct{}
}

func (c *stubConfirmer) Confirm(ctx context.Context, txHash types.TxHandle, spec types.ConfirmationSpec) ([]types.EventRecord, error) {
	c.calls.Add(1)
	if c.done != nil {
		defer close(c.done)
	}
	if c.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return c.events, c.err
}

// eventsByHash answers lookups with a success event tagged with the looked-up hash.
type eventsByHash struct {
	absentFirst int
	mu          sync.Mutex
	seen        map[types.TxHandle]int
}

func (l *eventsByHash) Lookup(ctx context.Context, txHash types.TxHandle) ([]types.EventRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen == nil {
		l.seen = make(map[types.TxHandle]int)
	}
	l.seen[txHash]++
	if l.seen[txHash] <= l.absentFirst {
		return nil, confirm.ErrAbsent
	}
	return []types.EventRecord{{
		Receipt:    types.Receipt{Module: "System", Event: "ExtrinsicSuccess"},
		Attributes: map[string]string{"tx": string(txHash)},
	}}, nil
}

func fastConfig() clientconfig.ConfirmTxConfig {
	return clientconfig.ConfirmTxConfig{
		SettleDelay:    time.Millisecond,
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxWait:        5 * time.Second,
	}
}

func TestSubmitReturnsConfirmedEvents(t *testing.T) {
	events := []types.EventRecord{{Receipt: types.Receipt{Module: "System", Event: "ExtrinsicSuccess"}}}
	d := &stubDispatcher{hash: "0x01"}
	c := &stubConfirmer{events: events}
	p, err := New(d, c, fastConfig(), nil)
	require.NoError(t, err)

	res, err := p.Submit(context.Background(), types.Signer{}, types.Tx{}, types.PlainTxSpec)
	require.NoError(t, err)
	require.Equal(t, types.TxHandle("0x01"), res.TxHash)
	require.Equal(t, events, res.Events)
}

func TestSubmitDispatchRejectedSkipsConfirmation(t *testing.T) {
	cause := errors.New("account sequence mismatch")
	d := &stubDispatcher{err: cause}
	c := &stubConfirmer{}
	p, err := New(d, c, fastConfig(), nil)
	require.NoError(t, err)

	_, err = p.Submit(context.Background(), types.Signer{}, types.Tx{}, types.PlainTxSpec)
	require.ErrorIs(t, err, types.ErrDispatchRejected)
	require.ErrorIs(t, err, cause)
	require.EqualValues(t, 1, d.calls.Load())
	require.Zero(t, c.calls.Load())
}

func TestSubmitPropagatesConfirmationFailure(t *testing.T) {
	failure := &types.TxError{Kind: types.ErrEventNotFound, TxHash: "0x02", Spec: types.PlainTxSpec}
	p, err := New(&stubDispatcher{hash: "0x02"}, &stubConfirmer{err: failure}, fastConfig(), nil)
	require.NoError(t, err)

	_, err = p.Submit(context.Background(), types.Signer{}, types.Tx{}, types.PlainTxSpec)
	require.ErrorIs(t, err, types.ErrEventNotFound)
	require.NotErrorIs(t, err, types.ErrSubmissionTimeout)
}

func TestSubmitTimesOutAndStopsConfirmation(t *testing.T) {
	c := &stubConfirmer{block: true, done: make(chan struct{})}
	cfg := fastConfig()
	cfg.MaxWait = 20 * time.Millisecond
	p, err := New(&stubDispatcher{hash: "0x03"}, c, cfg, nil)
	require.NoError(t, err)

	_, err = p.Submit(context.Background(), types.Signer{}, types.Tx{}, types.PlainTxSpec)
	require.ErrorIs(t, err, types.ErrSubmissionTimeout)

	var txErr *types.TxError
	require.ErrorAs(t, err, &txErr)
	require.Equal(t, types.TxHandle("0x03"), txErr.TxHash)

	select {
	case <-c.done:
	case <-time.After(time.Second):
		t.Fatal("confirmation kept running after timeout")
	}
}

func TestSubmitCallerCancellationIsNotTimeout(t *testing.T) {
	c := &stubConfirmer{block: true}
	p, err := New(&stubDispatcher{hash: "0x04"}, c, fastConfig(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	_, err = p.Submit(ctx, types.Signer{}, types.Tx{}, types.PlainTxSpec)
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, types.ErrSubmissionTimeout)
}

func TestSubmitWithTrackerTimesOutBeforeSettle(t *testing.T) {
	lookup := &eventsByHash{}
	cfg := fastConfig()
	cfg.SettleDelay = time.Hour
	cfg.MaxWait = 20 * time.Millisecond

	tracker, err := confirm.New(lookup, cfg, nil)
	require.NoError(t, err)
	p, err := New(&stubDispatcher{hash: "0x05"}, tracker, cfg, nil)
	require.NoError(t, err)

	_, err = p.Submit(context.Background(), types.Signer{}, types.Tx{}, types.PlainTxSpec)
	require.ErrorIs(t, err, types.ErrSubmissionTimeout)

	var txErr *types.TxError
	require.ErrorAs(t, err, &txErr)
	require.Equal(t, types.TxHandle("0x05"), txErr.TxHash)

	lookup.mu.Lock()
	defer lookup.mu.Unlock()
	require.Zero(t, lookup.seen["0x05"])
}

func TestConcurrentSubmissionsAreIndependent(t *testing.T) {
	lookup := &eventsByHash{absentFirst: 2}
	cfg := fastConfig()
	tracker, err := confirm.New(lookup, cfg, nil)
	require.NoError(t, err)
	p, err := New(&stubDispatcher{}, tracker, cfg, nil)
	require.NoError(t, err)

	const n = 16
	var wg sync.WaitGroup
	results := make([]types.TxResult, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = p.Submit(context.Background(), types.Signer{}, types.Tx{}, types.PlainTxSpec)
		}(i)
	}
	wg.Wait()

	seen := make(map[types.TxHandle]bool)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.False(t, seen[results[i].TxHash], "hash reused: %s", results[i].TxHash)
		seen[results[i].TxHash] = true
		require.Len(t, results[i].Events, 1)
		require.Equal(t, string(results[i].TxHash), results[i].Events[0].Attributes["tx"])
	}

	lookup.mu.Lock()
	defer lookup.mu.Unlock()
	for hash, calls := range lookup.seen {
		require.Equal(t, 3, calls, "lookups for %s", hash)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(nil, &stubConfirmer{}, fastConfig(), nil)
	require.Error(t, err)
	_, err = New(&stubDispatcher{}, nil, fastConfig(), nil)
	require.Error(t, err)
}
