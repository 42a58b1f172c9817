// Package rules adapts github.com/notnil/chess to the narrow surface the
// Game Controller needs (§4.3): parsing, move application producing SAN
// and post-move FEN, the terminal-condition predicates, and the
// repetition key used for threefold-repetition detection.
//
// notnil/chess auto-scores its own draws by fivefold repetition and the
// 75-move rule at higher thresholds than this package cares about (5 and
// 150 vs. this package's 3 and 100); those two are deliberately never
// consulted here — HalfmoveClock and a caller-maintained repetition-key
// count implement §4.4.2's fifty-move/threefold checks instead.
package rules

import (
	"strconv"
	"strings"

	"github.com/notnil/chess"
)

// Color mirrors chess.Color without leaking the notnil/chess type into
// callers that only need White/Black.
type Color int

const (
	White Color = iota
	Black
)

const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// MoveResult is the outcome of successfully applying a UCI move.
type MoveResult struct {
	SAN      string
	FENAfter string
}

// Position wraps a single, incrementally-mutable chess game position.
type Position struct {
	game *chess.Game
}

// Parse builds a Position from a FEN string (the "standard position-text"
// of the glossary). Defaults to the canonical start position when fen is
// empty.
func Parse(fen string) (*Position, error) {
	if fen == "" {
		fen = StartFEN
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, &Error{Kind: ErrParse, Err: err}
	}
	return &Position{game: chess.NewGame(opt)}, nil
}

// ParseAndApply parses fen and replays each UCI move on top of it,
// returning the resulting Position or the first parse/move error.
func ParseAndApply(fen string, moves []string) (*Position, error) {
	pos, err := Parse(fen)
	if err != nil {
		return nil, err
	}
	for _, m := range moves {
		if _, err := pos.ApplyUCI(m); err != nil {
			return nil, err
		}
	}
	return pos, nil
}

// SideToMove returns the color on move.
func (p *Position) SideToMove() Color {
	if p.game.Position().Turn() == chess.White {
		return White
	}
	return Black
}

// FEN returns the position's full standard position-text.
func (p *Position) FEN() string {
	return p.game.FEN()
}

// RepetitionKey returns the first four whitespace-separated fields of the
// position's FEN: piece placement, side to move, castling rights, and
// en-passant target. Two positions share a key iff they are equivalent
// for threefold-repetition purposes (glossary).
func (p *Position) RepetitionKey() string {
	return repetitionKey(p.FEN())
}

func repetitionKey(fen string) string {
	fields := strings.Fields(fen)
	n := 4
	if len(fields) < n {
		n = len(fields)
	}
	return strings.Join(fields[:n], " ")
}

// HalfmoveClock returns the number of half-moves since the last capture or
// pawn move, read from the FEN's fifth field.
func (p *Position) HalfmoveClock() int {
	fields := strings.Fields(p.FEN())
	if len(fields) < 5 {
		return 0
	}
	n, err := strconv.Atoi(fields[4])
	if err != nil {
		return 0
	}
	return n
}

// ApplyUCI validates and applies a UCI move string against the current
// position, returning the move's SAN and the resulting FEN.
func (p *Position) ApplyUCI(uci string) (*MoveResult, error) {
	cur := p.game.Position()

	move, err := chess.UCINotation{}.Decode(cur, uci)
	if err != nil {
		return nil, &Error{Kind: ErrIllegalMove, Err: err}
	}

	san := chess.AlgebraicNotation{}.Encode(cur, move)

	if err := p.game.Move(move); err != nil {
		return nil, &Error{Kind: ErrIllegalMove, Err: err}
	}

	return &MoveResult{SAN: san, FENAfter: p.FEN()}, nil
}

// IsCheckmate reports whether the current position is checkmate.
func (p *Position) IsCheckmate() bool {
	return p.game.Method() == chess.Checkmate
}

// IsStalemate reports whether the current position is stalemate.
func (p *Position) IsStalemate() bool {
	return p.game.Method() == chess.Stalemate
}

// IsInsufficientMaterial reports whether neither side has enough material
// to deliver checkmate.
func (p *Position) IsInsufficientMaterial() bool {
	return p.game.Method() == chess.InsufficientMaterial
}
