package api

import (
	"net/http"

	"cltlab/domain/game"
	apperrors "cltlab/internal/errors"

	"github.com/gin-gonic/gin"
)

type startGameRequest struct {
	Mode string `json:"mode"`
}

type sampleSizeRequest struct {
	N *int `json:"n"`
}

type guessRequest struct {
	Family string `json:"family"`
}

func (s *Server) handleStartGame(c *gin.Context) {
	var req startGameRequest
	// an empty body starts a game in the default mode
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.respondError(c, apperrors.InvalidInput("invalid request body: "+err.Error()))
			return
		}
	}
	sess, err := s.game.Start(c.Request.Context(), game.Mode(req.Mode))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, game.NewView(sess))
}

func (s *Server) handleGetGame(c *gin.Context) {
	id, err := sessionParam(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	sess, err := s.game.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, game.NewView(sess))
}

func (s *Server) handleSampleSize(c *gin.Context) {
	id, err := sessionParam(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	var req sampleSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.InvalidInput("invalid request body: "+err.Error()))
		return
	}
	if req.N == nil {
		s.respondError(c, apperrors.InvalidInput("n is required"))
		return
	}
	sess, err := s.game.SubmitSampleSize(c.Request.Context(), id, *req.N)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, game.NewView(sess))
}

func (s *Server) handleGuess(c *gin.Context) {
	id, err := sessionParam(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	var req guessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.InvalidInput("invalid request body: "+err.Error()))
		return
	}
	sess, err := s.game.SubmitGuess(c.Request.Context(), id, req.Family)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, game.NewView(sess))
}

func (s *Server) handleNewRound(c *gin.Context) {
	id, err := sessionParam(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	sess, err := s.game.NewRound(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, game.NewView(sess))
}

func (s *Server) handleEndGame(c *gin.Context) {
	id, err := sessionParam(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.game.End(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
