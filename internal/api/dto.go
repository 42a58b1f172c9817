package api

import (
	"github.com/franciscoBSalgueiro/chess-workbench/internal/engine"
	"github.com/franciscoBSalgueiro/chess-workbench/internal/game"
)

// optionDTO is one UCI engine option in a start-game request.
type optionDTO struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value" binding:"required"`
}

// goModeDTO is the wire shape of an engine player's fallback search mode;
// PlayersTime is never accepted here since the controller derives it
// itself whenever both clocks are live (§4.4.6).
type goModeDTO struct {
	Kind     string `json:"kind" binding:"required,oneof=depth movetime nodes infinite"`
	Depth    uint32 `json:"depth"`
	MoveTime uint32 `json:"moveTime"`
	Nodes    uint32 `json:"nodes"`
}

func (d goModeDTO) toEngine() engine.GoMode {
	switch d.Kind {
	case "depth":
		return engine.DepthMode(d.Depth)
	case "movetime":
		return engine.MoveTimeMode(d.MoveTime)
	case "nodes":
		return engine.NodesMode(d.Nodes)
	default:
		return engine.InfiniteMode()
	}
}

// playerDTO is the wire shape of PlayerConfig (§3).
type playerDTO struct {
	Kind    string      `json:"kind" binding:"required,oneof=human engine"`
	Name    string      `json:"name"`
	Path    string      `json:"path"`
	Options []optionDTO `json:"options"`
	GoMode  *goModeDTO  `json:"goMode"`
}

func (d playerDTO) toConfig() game.PlayerConfig {
	if d.Kind != "engine" {
		return game.Human(d.Name)
	}

	var mode *engine.GoMode
	if d.GoMode != nil {
		m := d.GoMode.toEngine()
		mode = &m
	}
	return game.EnginePlayer(d.Name, d.Path, engineOptionsFrom(d.Options), mode)
}

// timeControlDTO is the wire shape of clock.TimeControl.
type timeControlDTO struct {
	InitialMS   uint64 `json:"initialMs"`
	IncrementMS uint64 `json:"incrementMs"`
}

func (d *timeControlDTO) toTimeControl() *game.TimeControl {
	if d == nil {
		return nil
	}
	return &game.TimeControl{InitialMS: d.InitialMS, IncrementMS: d.IncrementMS}
}

// startGameRequest is the body of POST /games/:id (§3's GameConfig).
type startGameRequest struct {
	White            playerDTO      `json:"white" binding:"required"`
	Black            playerDTO      `json:"black" binding:"required"`
	WhiteTimeControl *timeControlDTO `json:"whiteTimeControl"`
	BlackTimeControl *timeControlDTO `json:"blackTimeControl"`
	InitialPosition  string         `json:"initialPosition"`
}

func (r startGameRequest) toConfig() game.GameConfig {
	return game.GameConfig{
		White:           r.White.toConfig(),
		Black:           r.Black.toConfig(),
		WhiteTC:         r.WhiteTimeControl.toTimeControl(),
		BlackTC:         r.BlackTimeControl.toTimeControl(),
		InitialPosition: r.InitialPosition,
	}
}

// moveRequest is the body of POST /games/:id/move.
type moveRequest struct {
	UCI string `json:"uci" binding:"required"`
}

// resignRequest is the body of POST /games/:id/resign.
type resignRequest struct {
	Color string `json:"color" binding:"required,oneof=white black"`
}

func colorFromString(s string) (game.Color, bool) {
	switch s {
	case "white":
		return game.White, true
	case "black":
		return game.Black, true
	default:
		return game.White, false
	}
}

// moveDTO is the wire shape of a recorded GameMove.
type moveDTO struct {
	UCI               string  `json:"uci"`
	SAN               string  `json:"san"`
	FENAfter          string  `json:"fenAfter"`
	ClockMSBeforeMove *uint64 `json:"clockMsBeforeMove,omitempty"`
	WhiteTimeAfter    *uint64 `json:"whiteTimeAfter,omitempty"`
	BlackTimeAfter    *uint64 `json:"blackTimeAfter,omitempty"`
}

// statusDTO is the wire shape of Status{Playing | Finished{Result}}.
type statusDTO struct {
	Kind   string     `json:"kind"`
	Result *resultDTO `json:"result,omitempty"`
}

// resultDTO is the wire shape of Result.
type resultDTO struct {
	Kind   string `json:"kind"`
	Winner string `json:"winner,omitempty"`
	Reason string `json:"reason"`
}

func toResultDTO(r game.Result) resultDTO {
	switch r.Kind {
	case game.ResultWhiteWins:
		return resultDTO{Kind: "white_wins", Winner: "white", Reason: r.WinReason.String()}
	case game.ResultBlackWins:
		return resultDTO{Kind: "black_wins", Winner: "black", Reason: r.WinReason.String()}
	default:
		return resultDTO{Kind: "draw", Reason: r.DrawReason.String()}
	}
}

// stateDTO is the wire shape of game.State (§6.3's GameState).
type stateDTO struct {
	GameID      string    `json:"gameId"`
	Status      statusDTO `json:"status"`
	InitialFEN  string    `json:"initialFen"`
	Moves       []moveDTO `json:"moves"`
	CurrentFEN  string    `json:"currentFen"`
	Ply         int       `json:"ply"`
	Turn        string    `json:"turn"`
	WhiteTimeMS *uint64   `json:"whiteTimeMs,omitempty"`
	BlackTimeMS *uint64   `json:"blackTimeMs,omitempty"`
	WhitePlayer string    `json:"whitePlayer"`
	BlackPlayer string    `json:"blackPlayer"`
}

func colorString(c game.Color) string {
	if c == game.White {
		return "white"
	}
	return "black"
}

func toStateDTO(st *game.State) stateDTO {
	moves := make([]moveDTO, len(st.Moves))
	for i, m := range st.Moves {
		moves[i] = moveDTO{
			UCI:               m.UCI,
			SAN:               m.SAN,
			FENAfter:          m.FENAfter,
			ClockMSBeforeMove: m.ClockMSBeforeMove,
			WhiteTimeAfter:    m.WhiteTimeAfter,
			BlackTimeAfter:    m.BlackTimeAfter,
		}
	}

	status := statusDTO{Kind: "playing"}
	if st.Status.Kind == game.StatusFinished {
		status.Kind = "finished"
		r := toResultDTO(*st.Status.Result)
		status.Result = &r
	}

	return stateDTO{
		GameID:      st.GameID,
		Status:      status,
		InitialFEN:  st.InitialFEN,
		Moves:       moves,
		CurrentFEN:  st.CurrentFEN,
		Ply:         st.Ply,
		Turn:        colorString(st.Turn),
		WhiteTimeMS: st.WhiteTimeMS,
		BlackTimeMS: st.BlackTimeMS,
		WhitePlayer: st.WhitePlayer,
		BlackPlayer: st.BlackPlayer,
	}
}
