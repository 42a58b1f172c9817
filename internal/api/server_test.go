package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/franciscoBSalgueiro/chess-workbench/internal/game"
)

func TestStatusForMapping(t *testing.T) {
	cases := []struct {
		kind game.Kind
		want int
	}{
		{game.ErrGameNotFound, http.StatusNotFound},
		{game.ErrNotHumanTurn, http.StatusConflict},
		{game.ErrGameNotInProgress, http.StatusConflict},
		{game.ErrNoMovesFound, http.StatusConflict},
		{game.ErrInvalidColor, http.StatusConflict},
		{game.ErrIllegalMove, http.StatusBadRequest},
		{game.ErrParse, http.StatusBadRequest},
		{game.ErrSpawnFailed, http.StatusBadGateway},
		{game.ErrNoStdio, http.StatusBadGateway},
		{game.ErrInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		err := &game.Error{Kind: tc.kind}
		require.Equal(t, tc.want, statusFor(err))
	}
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGameLifecycleOverHTTP(t *testing.T) {
	mgr := game.NewManager()
	router := NewRouter(mgr)

	start := doJSON(t, router, http.MethodPost, "/games/g1", startGameRequest{
		White: playerDTO{Kind: "human", Name: "Alice"},
		Black: playerDTO{Kind: "human", Name: "Bob"},
	})
	require.Equal(t, http.StatusOK, start.Code)

	var st stateDTO
	require.NoError(t, json.Unmarshal(start.Body.Bytes(), &st))
	require.Equal(t, "playing", st.Status.Kind)

	move := doJSON(t, router, http.MethodPost, "/games/g1/move", moveRequest{UCI: "e2e4"})
	require.Equal(t, http.StatusOK, move.Code)

	get := doJSON(t, router, http.MethodGet, "/games/g1", nil)
	require.Equal(t, http.StatusOK, get.Code)

	var after stateDTO
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &after))
	require.Equal(t, 1, after.Ply)
	require.Equal(t, "black", after.Turn)

	resign := doJSON(t, router, http.MethodPost, "/games/g1/resign", resignRequest{Color: "white"})
	require.Equal(t, http.StatusOK, resign.Code)

	del := doJSON(t, router, http.MethodDelete, "/games/g1", nil)
	require.Equal(t, http.StatusNoContent, del.Code)

	missing := doJSON(t, router, http.MethodGet, "/games/g1", nil)
	require.Equal(t, http.StatusNotFound, missing.Code)
}

func TestMakeMoveIllegalReturns400(t *testing.T) {
	mgr := game.NewManager()
	router := NewRouter(mgr)

	doJSON(t, router, http.MethodPost, "/games/g2", startGameRequest{
		White: playerDTO{Kind: "human", Name: "Alice"},
		Black: playerDTO{Kind: "human", Name: "Bob"},
	})

	rec := doJSON(t, router, http.MethodPost, "/games/g2/move", moveRequest{UCI: "e2e5"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
