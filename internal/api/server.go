// Package api exposes the Game Manager over HTTP and WebSocket, a
// substitute for the original's in-process IPC surface (§4.7): one Gin
// router, CORS wide open for a local desktop UI, and a WebSocket endpoint
// per game that streams its event bus.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/franciscoBSalgueiro/chess-workbench/internal/engine"
	"github.com/franciscoBSalgueiro/chess-workbench/internal/game"
)

// NewRouter builds the Gin engine that serves the Game Manager's
// operations, mirroring the teacher's router.Use(cors.Default()) setup.
func NewRouter(mgr *game.Manager) *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())

	h := &handlers{mgr: mgr}

	games := router.Group("/games/:id")
	games.POST("", h.startGame)
	games.GET("", h.getState)
	games.POST("/move", h.makeMove)
	games.POST("/takeback", h.takeBack)
	games.POST("/resign", h.resign)
	games.DELETE("", h.abort)
	games.GET("/ws", h.stream)

	return router
}

// statusFor maps a *game.Error's Kind to the HTTP status of §4.7. Errors
// that aren't a *game.Error (unexpected internal failures) map to 500.
func statusFor(err error) int {
	var ge *game.Error
	if !errors.As(err, &ge) {
		return http.StatusInternalServerError
	}

	switch ge.Kind {
	case game.ErrGameNotFound:
		return http.StatusNotFound
	case game.ErrNotHumanTurn, game.ErrGameNotInProgress, game.ErrNoMovesFound, game.ErrInvalidColor:
		return http.StatusConflict
	case game.ErrIllegalMove, game.ErrParse:
		return http.StatusBadRequest
	case game.ErrSpawnFailed, game.ErrNoStdio, game.ErrEngineDisconnected:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// engineOptionsFrom converts the wire options list to engine.Option.
func engineOptionsFrom(opts []optionDTO) []engine.Option {
	out := make([]engine.Option, len(opts))
	for i, o := range opts {
		out[i] = engine.Option{Name: o.Name, Value: o.Value}
	}
	return out
}
