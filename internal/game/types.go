// Package game implements the Game Controller, Game Loop, and Game
// Manager of §4.4–§4.6: the per-game chess state machine that drives a
// position forward under two players (human or engine subprocess),
// manages clocks, enforces terminal conditions, and publishes events.
package game

import (
	"github.com/franciscoBSalgueiro/chess-workbench/internal/clock"
	"github.com/franciscoBSalgueiro/chess-workbench/internal/engine"
	"github.com/franciscoBSalgueiro/chess-workbench/internal/rules"
)

// ID is an opaque game identifier; uniqueness is enforced by the Manager.
type ID = string

// Color mirrors rules.Color so callers of this package don't need to
// import internal/rules for PlayerConfig/Resign.
type Color = rules.Color

const (
	White = rules.White
	Black = rules.Black
)

func toClockColor(c Color) clock.Color {
	if c == White {
		return clock.White
	}
	return clock.Black
}

func other(c Color) Color {
	if c == White {
		return Black
	}
	return White
}

// PlayerKind distinguishes a human-operated seat from an engine subprocess.
type PlayerKind int

const (
	PlayerHuman PlayerKind = iota
	PlayerEngine
)

// PlayerConfig is the tagged union {Human{name}, Engine{name, path,
// options[], go_mode?}} of §3.
type PlayerConfig struct {
	Kind PlayerKind
	Name string

	// Engine-only fields.
	Path    string
	Options []engine.Option
	GoMode  *engine.GoMode
}

// Human builds a human PlayerConfig.
func Human(name string) PlayerConfig {
	return PlayerConfig{Kind: PlayerHuman, Name: name}
}

// EnginePlayer builds an engine PlayerConfig. goMode may be nil, meaning
// "use PlayersTime when both clocks are live, else Depth(20)" per §4.4.6.
func EnginePlayer(name, path string, options []engine.Option, goMode *engine.GoMode) PlayerConfig {
	return PlayerConfig{Kind: PlayerEngine, Name: name, Path: path, Options: options, GoMode: goMode}
}

// TimeControl is a side's starting allowance and increment.
type TimeControl = clock.TimeControl

// GameConfig configures a new game (§3).
type GameConfig struct {
	White   PlayerConfig
	Black   PlayerConfig
	WhiteTC *TimeControl
	BlackTC *TimeControl

	// InitialPosition is the standard position-text; empty defaults to the
	// canonical start position.
	InitialPosition string
}

// GameMove is a single recorded ply (§3).
type GameMove struct {
	UCI      string
	SAN      string
	FENAfter string

	ClockMSBeforeMove *uint64
	WhiteTimeAfter    *uint64
	BlackTimeAfter    *uint64
}

// StatusKind distinguishes an in-progress game from a finished one.
type StatusKind int

const (
	StatusPlaying StatusKind = iota
	StatusFinished
)

// Status is {Playing | Finished{result}} (§3).
type Status struct {
	Kind   StatusKind
	Result *Result
}

func playing() Status { return Status{Kind: StatusPlaying} }

func finished(r Result) Status { return Status{Kind: StatusFinished, Result: &r} }

// ResultKind distinguishes which side won, or a draw.
type ResultKind int

const (
	ResultWhiteWins ResultKind = iota
	ResultBlackWins
	ResultDraw
)

// WinReason enumerates why a decisive game ended.
type WinReason int

const (
	ReasonCheckmate WinReason = iota
	ReasonTimeout
	ReasonResignation
	ReasonAbandonment
)

func (r WinReason) String() string {
	switch r {
	case ReasonCheckmate:
		return "checkmate"
	case ReasonTimeout:
		return "timeout"
	case ReasonResignation:
		return "resignation"
	case ReasonAbandonment:
		return "abandonment"
	default:
		return "unknown"
	}
}

// DrawReason enumerates why a drawn game ended.
type DrawReason int

const (
	DrawStalemate DrawReason = iota
	DrawInsufficientMaterial
	DrawThreefoldRepetition
	DrawFiftyMoveRule
	DrawAgreement
)

func (r DrawReason) String() string {
	switch r {
	case DrawStalemate:
		return "stalemate"
	case DrawInsufficientMaterial:
		return "insufficient_material"
	case DrawThreefoldRepetition:
		return "threefold_repetition"
	case DrawFiftyMoveRule:
		return "fifty_move_rule"
	case DrawAgreement:
		return "agreement"
	default:
		return "unknown"
	}
}

// Result is the tagged union WhiteWins{reason} | BlackWins{reason} |
// Draw{reason} (§3).
type Result struct {
	Kind       ResultKind
	WinReason  WinReason
	DrawReason DrawReason
}

func WhiteWins(reason WinReason) Result { return Result{Kind: ResultWhiteWins, WinReason: reason} }
func BlackWins(reason WinReason) Result { return Result{Kind: ResultBlackWins, WinReason: reason} }
func Draw(reason DrawReason) Result     { return Result{Kind: ResultDraw, DrawReason: reason} }

// winsFor maps a decisive winner color to the Result constructor.
func winsFor(winner Color, reason WinReason) Result {
	if winner == White {
		return WhiteWins(reason)
	}
	return BlackWins(reason)
}

// State is the read-only projection returned by every operation (§6.3 /
// the expanded GameState).
type State struct {
	GameID     ID
	Status     Status
	InitialFEN string
	Moves      []GameMove
	CurrentFEN string
	Ply        int
	Turn       Color

	WhiteTimeMS *uint64
	BlackTimeMS *uint64

	WhitePlayer string
	BlackPlayer string
}
