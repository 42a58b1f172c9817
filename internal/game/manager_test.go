package game

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/franciscoBSalgueiro/chess-workbench/internal/engine"
	"github.com/franciscoBSalgueiro/chess-workbench/internal/events"
)

// writeFakeEngine writes a minimal shell-script UCI-like engine that
// answers uci/isready immediately and replies to any "go ..." with
// "bestmove <bestmove>".
func writeFakeEngine(t *testing.T, bestmove string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "fake-engine.sh")
	script := fmt.Sprintf(`#!/bin/sh
while IFS= read -r line; do
  case "$line" in
    uci) echo uciok ;;
    isready) echo readyok ;;
    go*) echo "bestmove %s" ;;
    quit) exit 0 ;;
    *) ;;
  esac
done
`, bestmove)

	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func drainUntil(t *testing.T, ch <-chan events.Event, want events.Type, timeout time.Duration) events.Event {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-ch:
			if ev.Type == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event %v", want)
		}
	}
}

// Scenario 5: timeout.
func TestManagerTimeout(t *testing.T) {
	mgr := NewManager()
	ctx := context.Background()

	ms := uint64(200)
	_, err := mgr.StartGame(ctx, "timeout-game", GameConfig{
		White:   Human("Alice"),
		Black:   Human("Bob"),
		WhiteTC: &TimeControl{InitialMS: ms},
		BlackTC: &TimeControl{InitialMS: 60_000},
	})
	require.NoError(t, err)

	_, _, ch, err := mgr.Subscribe("timeout-game")
	require.NoError(t, err)

	drainUntil(t, ch, events.TypeGameStarted, time.Second)
	over := drainUntil(t, ch, events.TypeGameOver, 2*time.Second)

	require.Equal(t, "black", over.GameOver.Result.Winner)
	require.Equal(t, "timeout", over.GameOver.Result.Reason)

	st, err := mgr.GetState("timeout-game")
	require.NoError(t, err)
	require.Equal(t, StatusFinished, st.Status.Kind)
}

// Scenario 6: engine turn after a human move.
func TestManagerEngineRepliesAfterHumanMove(t *testing.T) {
	mgr := NewManager()
	ctx := context.Background()

	path := writeFakeEngine(t, "e7e5")
	depth1 := engine.DepthMode(1)

	_, err := mgr.StartGame(ctx, "engine-game", GameConfig{
		White: Human("Alice"),
		Black: EnginePlayer("FakeFish", path, nil, &depth1),
	})
	require.NoError(t, err)

	_, _, ch, err := mgr.Subscribe("engine-game")
	require.NoError(t, err)
	drainUntil(t, ch, events.TypeGameStarted, time.Second)

	_, err = mgr.MakeMove("engine-game", "e2e4")
	require.NoError(t, err)

	ev := drainUntil(t, ch, events.TypeMovePlayed, 2*time.Second)
	for len(ev.MovePlayed.Moves) < 2 {
		ev = drainUntil(t, ch, events.TypeMovePlayed, 2*time.Second)
	}

	require.Len(t, ev.MovePlayed.Moves, 2)
	require.Equal(t, "e2e4", ev.MovePlayed.Moves[0].UCI)
	require.Equal(t, "e7e5", ev.MovePlayed.Moves[1].UCI)

	st, err := mgr.GetState("engine-game")
	require.NoError(t, err)
	require.Equal(t, StatusPlaying, st.Status.Kind)
	require.Equal(t, 2, st.Ply)

	require.NoError(t, mgr.Abort("engine-game"))
}

func TestManagerGetStateUnknownGame(t *testing.T) {
	mgr := NewManager()
	_, err := mgr.GetState("nope")
	require.Error(t, err)

	var ge *Error
	require.ErrorAs(t, err, &ge)
	require.Equal(t, ErrGameNotFound, ge.Kind)
}

func TestManagerAbortRemovesGame(t *testing.T) {
	mgr := NewManager()
	ctx := context.Background()

	_, err := mgr.StartGame(ctx, "abort-game", GameConfig{
		White: Human("Alice"),
		Black: Human("Bob"),
	})
	require.NoError(t, err)

	require.NoError(t, mgr.Abort("abort-game"))

	_, err = mgr.GetState("abort-game")
	require.Error(t, err)
}

func TestManagerTakeBackAndResign(t *testing.T) {
	mgr := NewManager()
	ctx := context.Background()

	_, err := mgr.StartGame(ctx, "tb-game", GameConfig{
		White: Human("Alice"),
		Black: Human("Bob"),
	})
	require.NoError(t, err)

	_, err = mgr.MakeMove("tb-game", "e2e4")
	require.NoError(t, err)

	st, err := mgr.TakeBack("tb-game")
	require.NoError(t, err)
	require.Len(t, st.Moves, 0)

	st, err = mgr.Resign("tb-game", Black)
	require.NoError(t, err)
	require.Equal(t, ResultWhiteWins, st.Status.Result.Kind)

	require.NoError(t, mgr.Abort("tb-game"))
}
