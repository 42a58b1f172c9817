package rules

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToStartPosition(t *testing.T) {
	p, err := Parse("")
	require.NoError(t, err)
	require.Equal(t, White, p.SideToMove())
	require.Equal(t, StartFEN, p.FEN())
}

func TestParseInvalidFEN(t *testing.T) {
	_, err := Parse("not a fen")
	require.Error(t, err)

	var re *Error
	require.ErrorAs(t, err, &re)
	require.Equal(t, ErrParse, re.Kind)
}

func TestApplyUCIProducesSANAndFlipsTurn(t *testing.T) {
	p, err := Parse("")
	require.NoError(t, err)

	res, err := p.ApplyUCI("e2e4")
	require.NoError(t, err)
	require.Equal(t, "e4", res.SAN)
	require.Equal(t, Black, p.SideToMove())
}

func TestApplyUCIIllegalMove(t *testing.T) {
	p, err := Parse("")
	require.NoError(t, err)

	_, err = p.ApplyUCI("e2e5")
	require.Error(t, err)

	var re *Error
	require.ErrorAs(t, err, &re)
	require.Equal(t, ErrIllegalMove, re.Kind)
}

func TestFoolsMateIsCheckmate(t *testing.T) {
	p, err := Parse("")
	require.NoError(t, err)

	for _, m := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		_, err := p.ApplyUCI(m)
		require.NoError(t, err)
	}
	require.True(t, p.IsCheckmate())
	require.Equal(t, White, p.SideToMove())
}

func TestStalemateFromCustomPosition(t *testing.T) {
	p, err := Parse("7k/5Q2/6K1/8/8/8/8/8 w - - 0 1")
	require.NoError(t, err)

	_, err = p.ApplyUCI("f7e6")
	require.NoError(t, err)
	require.True(t, p.IsStalemate())
}

func TestRepetitionKeyIgnoresClocksAndFullmove(t *testing.T) {
	p, err := Parse("")
	require.NoError(t, err)
	key1 := p.RepetitionKey()

	_, err = p.ApplyUCI("g1f3")
	require.NoError(t, err)
	_, err = p.ApplyUCI("g8f6")
	require.NoError(t, err)
	_, err = p.ApplyUCI("f3g1")
	require.NoError(t, err)
	_, err = p.ApplyUCI("f6g8")
	require.NoError(t, err)

	require.Equal(t, key1, p.RepetitionKey())
}

func TestHalfmoveClockResetsOnPawnMove(t *testing.T) {
	p, err := Parse("")
	require.NoError(t, err)

	_, err = p.ApplyUCI("g1f3")
	require.NoError(t, err)
	require.Equal(t, 1, p.HalfmoveClock())

	_, err = p.ApplyUCI("e7e5")
	require.NoError(t, err)
	require.Equal(t, 0, p.HalfmoveClock())
}

func TestParseAndApplyReplaysMoves(t *testing.T) {
	p, err := ParseAndApply("", []string{"e2e4", "e7e5"})
	require.NoError(t, err)
	require.Equal(t, White, p.SideToMove())
	require.Contains(t, p.FEN(), "rnbqkbnr/pppp1ppp")
}
