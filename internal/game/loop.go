package game

import (
	"context"
	"time"

	"github.com/seekerror/logw"
)

// clockTick is how often the loop re-publishes remaining time and checks
// for a timeout while a clocked game is in progress (§4.5).
const clockTick = 100 * time.Millisecond

// runLoop is the per-game supervisor of §4.5: it waits on shutdown,
// move-notify, and a clock ticker, starting at most one engine search at a
// time and ending the game on timeout or on an engine task failure. It
// returns once the controller's shutdown channel is closed, whether that
// happened because the game ended on the move-apply path or because the
// loop itself ended it (timeout, abandonment).
func runLoop(ctx context.Context, c *Controller) {
	defer c.ShutdownEngines(ctx)

	var ticker *time.Ticker
	var tickCh <-chan time.Time
	if hasClock(c) {
		ticker = time.NewTicker(clockTick)
		defer ticker.Stop()
		tickCh = ticker.C
	}

	engineDone := make(chan error, 1)
	searching := false

	startSearchIfIdle := func() {
		if searching {
			return
		}
		if !c.TryStartEngineSearch() {
			return
		}
		searching = true
		go func() {
			engineDone <- c.RunEngineSearch(ctx)
		}()
	}

	// A move may already be pending (e.g. the game started with the
	// engine to move) before the loop's first iteration.
	startSearchIfIdle()

	for {
		// Shutdown always takes priority over a same-tick engine result or
		// clock tick: Go's select has no case ordering, so check first.
		select {
		case <-c.ShutdownCh():
			return
		default:
		}

		// The remaining cases have no relative priority among themselves —
		// Go's select can't express the biased ordering the original models
		// here, but each case leaves state consistent before the next
		// select, so an arbitrary pick among them is safe.
		select {
		case <-c.ShutdownCh():
			return

		case err := <-engineDone:
			searching = false
			if err != nil {
				logw.Errorf(ctx, "engine search failed for game %v: %v", c.ID(), err)
				c.EndAbandonment()
				continue
			}
			startSearchIfIdle()

		case <-c.MoveNotifyCh():
			startSearchIfIdle()

		case <-tickCh:
			if c.CheckTimeout() {
				continue
			}
			if !c.PublishClockUpdate() {
				return
			}
		}
	}
}

func hasClock(c *Controller) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clk != nil
}
