package engine

import "fmt"

// GoModeKind selects which "go" variant a GoMode encodes.
type GoModeKind int

const (
	GoDepth GoModeKind = iota
	GoMoveTime
	GoNodes
	GoInfinite
	GoPlayersTime
)

// GoMode is the tagged union of search-start modes the protocol supports
// (§6.1: "go depth N" | "go movetime MS" | "go nodes N" | "go infinite" |
// "go wtime W btime B winc WI binc BI").
type GoMode struct {
	Kind GoModeKind

	Depth    uint32
	MoveTime uint32
	Nodes    uint32

	WhiteTimeMS uint32
	BlackTimeMS uint32
	WhiteIncMS  uint32
	BlackIncMS  uint32
}

func DepthMode(n uint32) GoMode { return GoMode{Kind: GoDepth, Depth: n} }

func MoveTimeMode(ms uint32) GoMode { return GoMode{Kind: GoMoveTime, MoveTime: ms} }

func NodesMode(n uint32) GoMode { return GoMode{Kind: GoNodes, Nodes: n} }

func InfiniteMode() GoMode { return GoMode{Kind: GoInfinite} }

func PlayersTimeMode(whiteMS, blackMS, whiteIncMS, blackIncMS uint32) GoMode {
	return GoMode{
		Kind:        GoPlayersTime,
		WhiteTimeMS: whiteMS,
		BlackTimeMS: blackMS,
		WhiteIncMS:  whiteIncMS,
		BlackIncMS:  blackIncMS,
	}
}

// UCIString renders the exact "go ..." line for the wire, per §6.1.
func (m GoMode) UCIString() string {
	switch m.Kind {
	case GoDepth:
		return fmt.Sprintf("go depth %d", m.Depth)
	case GoMoveTime:
		return fmt.Sprintf("go movetime %d", m.MoveTime)
	case GoNodes:
		return fmt.Sprintf("go nodes %d", m.Nodes)
	case GoInfinite:
		return "go infinite"
	case GoPlayersTime:
		return fmt.Sprintf("go wtime %d btime %d winc %d binc %d",
			m.WhiteTimeMS, m.BlackTimeMS, m.WhiteIncMS, m.BlackIncMS)
	default:
		return "go infinite"
	}
}

// Option is a single UCI engine option to apply during setup, applied in
// list order (§3 / game.rs's options loop).
type Option struct {
	Name  string
	Value string
}
