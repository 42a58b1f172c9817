package game

import (
	"context"
	"errors"
	"sync"

	"github.com/franciscoBSalgueiro/chess-workbench/internal/clock"
	"github.com/franciscoBSalgueiro/chess-workbench/internal/engine"
	"github.com/franciscoBSalgueiro/chess-workbench/internal/events"
	"github.com/franciscoBSalgueiro/chess-workbench/internal/rules"
)

var (
	errSnapshotNotPlaying  = errors.New("game: not playing")
	errSnapshotNotEngine   = errors.New("game: not an engine turn")
)

// Controller is the per-game state machine of §4.4: it holds
// configuration, the current position, the move list, the clock,
// repetition history, and the two optional engine sessions, and serves
// apply-move, take-back, resign, and abort while emitting events.
//
// Controller state is guarded by mu: readers (GetState, search snapshots)
// take RLock; every mutation takes Lock. Engine I/O is never performed
// while mu is held (§5).
type Controller struct {
	mu sync.RWMutex

	id         ID
	config     GameConfig
	initialFEN string

	moves      []GameMove
	position   *rules.Position
	repHistory map[string]int
	status     Status

	clk *clock.Clock

	whiteEngine *engine.Session
	blackEngine *engine.Session

	engineThinking bool

	shutdown       chan struct{}
	shutdownClosed bool
	moveNotify     chan struct{}

	bus          *events.Bus
	startedEvent *events.Event
}

// NewController parses cfg's initial position, seeds repetition history,
// and builds the clock if either side has a TimeControl (§4.4.1). Engine
// sessions are NOT spawned here — the Manager spawns and attaches them
// before starting the game loop.
func NewController(id ID, cfg GameConfig) (*Controller, error) {
	initialFEN := cfg.InitialPosition
	if initialFEN == "" {
		initialFEN = rules.StartFEN
	}

	pos, err := rules.Parse(initialFEN)
	if err != nil {
		return nil, wrapRulesErr(err)
	}

	return &Controller{
		id:         id,
		config:     cfg,
		initialFEN: initialFEN,
		position:   pos,
		repHistory: map[string]int{pos.RepetitionKey(): 1},
		status:     playing(),
		clk:        clock.New(cfg.WhiteTC, cfg.BlackTC),
		shutdown:   make(chan struct{}),
		moveNotify: make(chan struct{}, 1),
		bus:        events.NewBus(),
	}, nil
}

func wrapRulesErr(err error) error {
	var re *rules.Error
	if errors.As(err, &re) {
		switch re.Kind {
		case rules.ErrIllegalMove:
			return newError(ErrIllegalMove, re)
		default:
			return newError(ErrParse, re)
		}
	}
	return newError(ErrInternal, err)
}

// ID returns the game's identifier.
func (c *Controller) ID() ID { return c.id }

// Bus returns the controller's event bus (fixed for the controller's
// lifetime; safe to read without locking).
func (c *Controller) Bus() *events.Bus { return c.bus }

// ShutdownCh signals (by being closed) that the game loop should stop.
func (c *Controller) ShutdownCh() <-chan struct{} { return c.shutdown }

// MoveNotifyCh signals that it may be time to start an engine search.
func (c *Controller) MoveNotifyCh() <-chan struct{} { return c.moveNotify }

func (c *Controller) signalShutdownLocked() {
	if !c.shutdownClosed {
		c.shutdownClosed = true
		close(c.shutdown)
	}
}

// setEngines attaches spawned, initialized engine sessions. Called once by
// the Manager during StartGame, before the controller is shared with the
// game loop.
func (c *Controller) setEngines(white, black *engine.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.whiteEngine = white
	c.blackEngine = black
}

func (c *Controller) engines() (*engine.Session, *engine.Session) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.whiteEngine, c.blackEngine
}

// ResetClockTick sets the clock's last-tick to now without charging either
// side, used right after setup completes (§4.4.1).
func (c *Controller) ResetClockTick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clk.ResetTick()
}

// PublishGameStarted emits the GameStarted event. Called once by the
// Manager right after setup.
func (c *Controller) PublishGameStarted() {
	c.mu.Lock()
	defer c.mu.Unlock()

	white, black := c.currentTimesLocked()
	ev := events.Event{
		Type: events.TypeGameStarted,
		GameStarted: &events.GameStarted{
			GameID:      c.id,
			InitialFEN:  c.initialFEN,
			WhitePlayer: c.config.White.Name,
			BlackPlayer: c.config.Black.Name,
			WhiteTimeMS: white,
			BlackTimeMS: black,
		},
	}
	c.startedEvent = &ev
	c.bus.Publish(ev)
}

// Subscribe registers a new event subscriber and, if the game has already
// started, immediately replays the GameStarted event so a UI connecting
// after StartGame (inherent in a request/response start-game then
// WebSocket-connect flow) still observes it (§4.7).
func (c *Controller) Subscribe() (int, <-chan events.Event) {
	c.mu.RLock()
	started := c.startedEvent
	c.mu.RUnlock()

	id, ch := c.bus.Subscribe()
	if started == nil {
		return id, ch
	}

	// The bus hands out a receive-only channel, so the replayed event goes
	// into a forwarding channel that then relays everything the bus
	// delivers, and is closed when the bus side is unsubscribed.
	out := make(chan events.Event, cap(ch)+1)
	out <- *started
	go func() {
		defer close(out)
		for ev := range ch {
			out <- ev
		}
	}()
	return id, out
}

func (c *Controller) currentTimesLocked() (white, black *uint64) {
	if c.clk == nil {
		return nil, nil
	}
	return c.clk.CurrentTimes(toClockColor(c.position.SideToMove()))
}

func (c *Controller) playerLocked(color Color) PlayerConfig {
	if color == White {
		return c.config.White
	}
	return c.config.Black
}

func (c *Controller) isEngineTurnLocked() bool {
	return c.playerLocked(c.position.SideToMove()).Kind == PlayerEngine
}

func (c *Controller) toEventMovesLocked() []events.Move {
	out := make([]events.Move, len(c.moves))
	for i, m := range c.moves {
		out[i] = events.Move{
			UCI:            m.UCI,
			SAN:            m.SAN,
			FENAfter:       m.FENAfter,
			ClockMSBefore:  m.ClockMSBeforeMove,
			WhiteTimeAfter: m.WhiteTimeAfter,
			BlackTimeAfter: m.BlackTimeAfter,
		}
	}
	return out
}

func toEventResult(r Result) events.Result {
	switch r.Kind {
	case ResultWhiteWins:
		return events.Result{Winner: "white", Reason: r.WinReason.String()}
	case ResultBlackWins:
		return events.Result{Winner: "black", Reason: r.WinReason.String()}
	default:
		return events.Result{Reason: r.DrawReason.String()}
	}
}

func (c *Controller) publishMovePlayedLocked(fen string) {
	white, black := c.currentTimesLocked()
	c.bus.Publish(events.Event{
		Type: events.TypeMovePlayed,
		MovePlayed: &events.MovePlayed{
			GameID:      c.id,
			Moves:       c.toEventMovesLocked(),
			FEN:         fen,
			WhiteTimeMS: white,
			BlackTimeMS: black,
		},
	})
}

func (c *Controller) publishGameOverLocked() {
	c.bus.Publish(events.Event{
		Type: events.TypeGameOver,
		GameOver: &events.GameOver{
			GameID: c.id,
			Result: toEventResult(*c.status.Result),
			Moves:  c.toEventMovesLocked(),
		},
	})
}

func (c *Controller) maybeNotifyEngineLocked() {
	if c.status.Kind == StatusPlaying && c.isEngineTurnLocked() && !c.engineThinking {
		select {
		case c.moveNotify <- struct{}{}:
		default:
		}
	}
}

func (c *Controller) checkGameEndLocked() {
	if c.status.Kind != StatusPlaying {
		return
	}
	pos := c.position

	switch {
	case pos.IsCheckmate():
		loser := pos.SideToMove()
		c.status = finished(winsFor(other(loser), ReasonCheckmate))
	case pos.IsStalemate():
		c.status = finished(Draw(DrawStalemate))
	case pos.IsInsufficientMaterial():
		c.status = finished(Draw(DrawInsufficientMaterial))
	case pos.HalfmoveClock() >= 100:
		c.status = finished(Draw(DrawFiftyMoveRule))
	case c.repHistory[pos.RepetitionKey()] >= 3:
		c.status = finished(Draw(DrawThreefoldRepetition))
	}
}

func (c *Controller) stateLocked() State {
	white, black := c.currentTimesLocked()
	return State{
		GameID:      c.id,
		Status:      c.status,
		InitialFEN:  c.initialFEN,
		Moves:       append([]GameMove(nil), c.moves...),
		CurrentFEN:  c.position.FEN(),
		Ply:         len(c.moves),
		Turn:        c.position.SideToMove(),
		WhiteTimeMS: white,
		BlackTimeMS: black,
		WhitePlayer: c.config.White.Name,
		BlackPlayer: c.config.Black.Name,
	}
}

// GetState returns a read-only snapshot of the game.
func (c *Controller) GetState() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stateLocked()
}

// commitMoveLocked is the common core of human and engine move application
// (§4.4.2): record the pre-move clock reading, apply the move, update
// repetition history and the clock, append the GameMove, check for
// terminal conditions, and publish events. Caller must hold c.mu.
func (c *Controller) commitMoveLocked(uci string) (*State, error) {
	mover := c.position.SideToMove()

	clockBefore := c.clk.StoredMS(toClockColor(mover))

	res, err := c.position.ApplyUCI(uci)
	if err != nil {
		return nil, wrapRulesErr(err)
	}

	c.repHistory[c.position.RepetitionKey()]++

	if c.clk != nil {
		c.clk.OnMoveCommit(toClockColor(mover))
	}

	whiteAfter, blackAfter := c.currentTimesLocked()

	c.moves = append(c.moves, GameMove{
		UCI:               uci,
		SAN:               res.SAN,
		FENAfter:          res.FENAfter,
		ClockMSBeforeMove: clockBefore,
		WhiteTimeAfter:    whiteAfter,
		BlackTimeAfter:    blackAfter,
	})

	c.checkGameEndLocked()
	c.publishMovePlayedLocked(res.FENAfter)

	if c.status.Kind == StatusFinished {
		c.publishGameOverLocked()
		c.signalShutdownLocked()
	} else {
		c.maybeNotifyEngineLocked()
	}

	st := c.stateLocked()
	return &st, nil
}

// ApplyMove is the human-move path of §4.4.2.
func (c *Controller) ApplyMove(uci string) (*State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status.Kind != StatusPlaying {
		return nil, newError(ErrGameNotInProgress, nil)
	}
	if c.isEngineTurnLocked() {
		return nil, newError(ErrNotHumanTurn, nil)
	}
	return c.commitMoveLocked(uci)
}

func (c *Controller) humanVsEngineColor() (color Color, mixed bool) {
	whiteHuman := c.config.White.Kind == PlayerHuman
	blackHuman := c.config.Black.Kind == PlayerHuman
	switch {
	case whiteHuman && !blackHuman:
		return White, true
	case !whiteHuman && blackHuman:
		return Black, true
	default:
		return White, false
	}
}

func lastMove(moves []GameMove) *GameMove {
	if len(moves) == 0 {
		return nil
	}
	return &moves[len(moves)-1]
}

func (c *Controller) rebuildLocked() error {
	pos, err := rules.Parse(c.initialFEN)
	if err != nil {
		return wrapRulesErr(err)
	}

	repHistory := map[string]int{pos.RepetitionKey(): 1}
	for _, m := range c.moves {
		if _, err := pos.ApplyUCI(m.UCI); err != nil {
			return wrapRulesErr(err)
		}
		repHistory[pos.RepetitionKey()]++
	}

	c.position = pos
	c.repHistory = repHistory

	if c.clk != nil {
		var whiteMS, blackMS *uint64
		if c.config.WhiteTC != nil {
			v := c.config.WhiteTC.InitialMS
			whiteMS = &v
		}
		if c.config.BlackTC != nil {
			v := c.config.BlackTC.InitialMS
			blackMS = &v
		}
		if last := lastMove(c.moves); last != nil && (last.WhiteTimeAfter != nil || last.BlackTimeAfter != nil) {
			whiteMS, blackMS = last.WhiteTimeAfter, last.BlackTimeAfter
		}
		c.clk.Restore(whiteMS, blackMS)
	}
	return nil
}

// TakeBack implements §4.4.3.
func (c *Controller) TakeBack() (*State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.moves) == 0 {
		return nil, newError(ErrNoMovesFound, nil)
	}

	humanColor, mixed := c.humanVsEngineColor()
	shouldPopTwo := mixed && c.position.SideToMove() == humanColor

	c.moves = c.moves[:len(c.moves)-1]
	if shouldPopTwo && len(c.moves) > 0 {
		c.moves = c.moves[:len(c.moves)-1]
	}

	c.status = playing()
	c.engineThinking = false

	if err := c.rebuildLocked(); err != nil {
		return nil, err
	}
	c.checkGameEndLocked()

	c.publishMovePlayedLocked(c.position.FEN())

	if c.status.Kind == StatusFinished {
		c.publishGameOverLocked()
		c.signalShutdownLocked()
	} else if c.isEngineTurnLocked() {
		c.maybeNotifyEngineLocked()
	}

	st := c.stateLocked()
	return &st, nil
}

// Resign implements §4.4.4. If the game is already finished, resigning is
// a no-op that returns the existing state (a second GameOver would break
// the "exactly one GameOver, always last" ordering guarantee of §5/§8).
func (c *Controller) Resign(color Color) *State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status.Kind == StatusPlaying {
		result := winsFor(other(color), ReasonResignation)
		c.status = finished(result)
		c.publishGameOverLocked()
		c.signalShutdownLocked()
	}

	st := c.stateLocked()
	return &st
}

// ShutdownEngines quits and then force-closes both engine sessions (I7).
func (c *Controller) ShutdownEngines(ctx context.Context) {
	white, black := c.engines()
	for _, s := range []*engine.Session{white, black} {
		if s == nil {
			continue
		}
		s.Quit(ctx)
		s.Close()
	}
}

// Abort implements §4.4.5: signal shutdown and tear down engines. No
// GameOver is emitted. The Manager is responsible for removing the
// controller from its map before calling this.
func (c *Controller) Abort(ctx context.Context) {
	c.mu.Lock()
	c.signalShutdownLocked()
	c.mu.Unlock()

	c.ShutdownEngines(ctx)
}

// CheckTimeout ends the game with Timeout against the side to move if its
// clock has expired (§4.2, §4.5).
func (c *Controller) CheckTimeout() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status.Kind != StatusPlaying || c.clk == nil {
		return false
	}
	turn := c.position.SideToMove()
	if !c.clk.Expired(toClockColor(turn)) {
		return false
	}

	c.status = finished(winsFor(other(turn), ReasonTimeout))
	c.publishGameOverLocked()
	c.signalShutdownLocked()
	return true
}

// PublishClockUpdate emits a ClockUpdate event and reports whether the
// game is no longer playing (in which case the loop should stop ticking).
func (c *Controller) PublishClockUpdate() (stillPlaying bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status.Kind != StatusPlaying {
		return false
	}
	white, black := c.currentTimesLocked()
	c.bus.Publish(events.Event{
		Type: events.TypeClockUpdate,
		ClockUpdate: &events.ClockUpdate{
			GameID:      c.id,
			WhiteTimeMS: white,
			BlackTimeMS: black,
		},
	})
	return true
}

// EndAbandonment ends the game against the side to move when its engine
// task fails (§4.5, §7).
func (c *Controller) EndAbandonment() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.engineThinking = false
	if c.status.Kind != StatusPlaying {
		return
	}
	owner := c.position.SideToMove()
	c.status = finished(winsFor(other(owner), ReasonAbandonment))
	c.publishGameOverLocked()
	c.signalShutdownLocked()
}

// TryStartEngineSearch reports whether a new engine search should be
// spawned for the side to move, and if so, marks engineThinking so no
// second search can start concurrently (I3).
func (c *Controller) TryStartEngineSearch() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status.Kind == StatusPlaying && c.isEngineTurnLocked() && !c.engineThinking {
		c.engineThinking = true
		return true
	}
	return false
}

// searchSnapshot is the read-locked data needed to drive an engine search
// without holding the controller lock during I/O (§4.4.6, §5).
type searchSnapshot struct {
	session    *engine.Session
	mode       engine.GoMode
	initialFEN string
	moves      []string
	turn       Color
}

func (c *Controller) snapshotForSearch() (*searchSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.status.Kind != StatusPlaying {
		return nil, errSnapshotNotPlaying
	}

	turn := c.position.SideToMove()
	player := c.playerLocked(turn)
	if player.Kind != PlayerEngine {
		return nil, errSnapshotNotEngine
	}

	var sess *engine.Session
	if turn == White {
		sess = c.whiteEngine
	} else {
		sess = c.blackEngine
	}
	if sess == nil {
		return nil, errSnapshotNotEngine
	}

	uciMoves := make([]string, len(c.moves))
	for i, m := range c.moves {
		uciMoves[i] = m.UCI
	}

	white, black := c.currentTimesLocked()
	var mode engine.GoMode
	switch {
	case white != nil && black != nil:
		var winc, binc uint32
		if c.config.WhiteTC != nil {
			winc = uint32(c.config.WhiteTC.IncrementMS)
		}
		if c.config.BlackTC != nil {
			binc = uint32(c.config.BlackTC.IncrementMS)
		}
		mode = engine.PlayersTimeMode(uint32(*white), uint32(*black), winc, binc)
	case player.GoMode != nil:
		mode = *player.GoMode
	default:
		mode = engine.DepthMode(20)
	}

	return &searchSnapshot{
		session:    sess,
		mode:       mode,
		initialFEN: c.initialFEN,
		moves:      uciMoves,
		turn:       turn,
	}, nil
}

// RunEngineSearch drives one full engine search-and-apply cycle (§4.4.6):
// snapshot under read-lock, release it, exchange position/go/bestmove with
// the engine (no controller lock held), then reacquire the write lock and
// apply the move via the same path as a human move — unless the game has
// moved on (status changed, or take-back flipped the turn), in which case
// the move is discarded silently.
func (c *Controller) RunEngineSearch(ctx context.Context) error {
	snap, err := c.snapshotForSearch()
	if err != nil {
		if errors.Is(err, errSnapshotNotPlaying) || errors.Is(err, errSnapshotNotEngine) {
			return nil
		}
		return err
	}

	if err := snap.session.SetPosition(ctx, snap.initialFEN, snap.moves); err != nil {
		return err
	}
	if err := snap.session.Go(ctx, snap.mode); err != nil {
		return err
	}
	best, err := snap.session.WaitForBestMove(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.engineThinking = false

	if c.status.Kind != StatusPlaying {
		return nil
	}
	if c.position.SideToMove() != snap.turn {
		return nil
	}

	_, err = c.commitMoveLocked(best)
	return err
}
