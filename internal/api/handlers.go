package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/franciscoBSalgueiro/chess-workbench/internal/game"
)

type handlers struct {
	mgr *game.Manager
}

func (h *handlers) startGame(c *gin.Context) {
	id := c.Param("id")

	var req startGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := h.mgr.StartGame(c.Request.Context(), id, req.toConfig())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStateDTO(st))
}

func (h *handlers) getState(c *gin.Context) {
	st, err := h.mgr.GetState(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStateDTO(st))
}

func (h *handlers) makeMove(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := h.mgr.MakeMove(c.Param("id"), req.UCI)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStateDTO(st))
}

func (h *handlers) takeBack(c *gin.Context) {
	st, err := h.mgr.TakeBack(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStateDTO(st))
}

func (h *handlers) resign(c *gin.Context) {
	var req resignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	color, ok := colorFromString(req.Color)
	if !ok {
		writeError(c, game.NewInvalidColorError())
		return
	}

	st, err := h.mgr.Resign(c.Param("id"), color)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStateDTO(st))
}

func (h *handlers) abort(c *gin.Context) {
	if err := h.mgr.Abort(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
