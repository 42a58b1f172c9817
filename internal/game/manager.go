package game

import (
	"context"
	"sync"

	"github.com/seekerror/logw"

	"github.com/franciscoBSalgueiro/chess-workbench/internal/engine"
	"github.com/franciscoBSalgueiro/chess-workbench/internal/events"
)

// entry is what the Manager keeps per active game: the controller plus a
// cancel func for the engine I/O context the loop and searches run under.
type entry struct {
	controller *Controller
	cancel     context.CancelFunc
}

// Manager owns every live game (§4.6): it spawns and initializes engine
// sessions, starts each game's loop goroutine, and routes API calls to the
// right Controller by ID. A sync.Map stands in for the original's
// concurrent hash map — reads (GetState, MakeMove, ...) vastly outnumber
// the inserts/deletes done by StartGame/Abort.
type Manager struct {
	games sync.Map // ID -> *entry
}

// NewManager creates an empty game manager.
func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) load(id ID) (*entry, bool) {
	v, ok := m.games.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

func spawnPlayerEngine(ctx context.Context, p PlayerConfig) (*engine.Session, error) {
	if p.Kind != PlayerEngine {
		return nil, nil
	}

	sess, err := engine.Spawn(ctx, p.Path)
	if err != nil {
		return nil, err
	}
	if err := sess.Init(ctx); err != nil {
		sess.Close()
		return nil, err
	}
	for _, opt := range p.Options {
		if err := sess.SetOption(ctx, opt.Name, opt.Value); err != nil {
			sess.Close()
			return nil, err
		}
	}
	return sess, nil
}

// StartGame creates a new game under id, spawning and initializing any
// engine players, then starts its loop goroutine (§4.6.1). If a game
// already exists under id, it is aborted and replaced.
func (m *Manager) StartGame(ctx context.Context, id ID, cfg GameConfig) (*State, error) {
	if prev, ok := m.load(id); ok {
		m.games.Delete(id)
		prev.cancel()
		prev.controller.Abort(context.Background())
	}

	controller, err := NewController(id, cfg)
	if err != nil {
		return nil, err
	}

	white, err := spawnPlayerEngine(ctx, cfg.White)
	if err != nil {
		return nil, wrapEngineErr(err)
	}
	black, err := spawnPlayerEngine(ctx, cfg.Black)
	if err != nil {
		if white != nil {
			white.Close()
		}
		return nil, wrapEngineErr(err)
	}
	controller.setEngines(white, black)

	controller.ResetClockTick()
	controller.PublishGameStarted()

	loopCtx, cancel := context.WithCancel(context.Background())
	m.games.Store(id, &entry{controller: controller, cancel: cancel})

	go func() {
		runLoop(loopCtx, controller)
		logw.Infof(loopCtx, "game %v loop exited", id)
	}()

	st := controller.GetState()
	return &st, nil
}

func wrapEngineErr(err error) error {
	var ee *engine.Error
	if as, ok := err.(*engine.Error); ok {
		ee = as
	}
	if ee == nil {
		return newError(ErrInternal, err)
	}
	switch ee.Kind {
	case engine.ErrSpawnFailed:
		return newError(ErrSpawnFailed, ee)
	case engine.ErrNoStdio:
		return newError(ErrNoStdio, ee)
	case engine.ErrEngineDisconnected:
		return newError(ErrEngineDisconnected, ee)
	default:
		return newError(ErrInternal, ee)
	}
}

// GetState returns the current state of game id.
func (m *Manager) GetState(id ID) (*State, error) {
	e, ok := m.load(id)
	if !ok {
		return nil, newError(ErrGameNotFound, nil)
	}
	st := e.controller.GetState()
	return &st, nil
}

// MakeMove applies a human move to game id (§4.4.2).
func (m *Manager) MakeMove(id ID, uci string) (*State, error) {
	e, ok := m.load(id)
	if !ok {
		return nil, newError(ErrGameNotFound, nil)
	}
	return e.controller.ApplyMove(uci)
}

// TakeBack undoes the last ply (or two) of game id (§4.4.3).
func (m *Manager) TakeBack(id ID) (*State, error) {
	e, ok := m.load(id)
	if !ok {
		return nil, newError(ErrGameNotFound, nil)
	}
	return e.controller.TakeBack()
}

// Resign ends game id with the named color resigning (§4.4.4).
func (m *Manager) Resign(id ID, color Color) (*State, error) {
	e, ok := m.load(id)
	if !ok {
		return nil, newError(ErrGameNotFound, nil)
	}
	return e.controller.Resign(color), nil
}

// Abort removes game id and tears down its engines without recording a
// result (§4.4.5).
func (m *Manager) Abort(id ID) error {
	e, ok := m.load(id)
	if !ok {
		return newError(ErrGameNotFound, nil)
	}
	m.games.Delete(id)
	e.cancel()
	e.controller.Abort(context.Background())
	return nil
}

// Subscribe returns a live event stream for game id, for the WebSocket
// gateway.
func (m *Manager) Subscribe(id ID) (*events.Bus, int, <-chan events.Event, error) {
	e, ok := m.load(id)
	if !ok {
		return nil, 0, nil, newError(ErrGameNotFound, nil)
	}
	subID, ch := e.controller.Subscribe()
	return e.controller.Bus(), subID, ch, nil
}
