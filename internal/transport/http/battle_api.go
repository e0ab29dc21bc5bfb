package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"trivia-battle-service/internal/app"
	"trivia-battle-service/internal/domain"
)

// BattleAPI serves read-only battle history and stats.
type BattleAPI struct {
	service *app.BattleService
}

func NewBattleAPI(service *app.BattleService) *BattleAPI {
	return &BattleAPI{service: service}
}

func (a *BattleAPI) GetBattle(c *gin.Context) {
	details, err := a.service.Battle(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (a *BattleAPI) ListBattles(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a number"})
			return
		}
		limit = n
	}
	battles, err := a.service.History(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if battles == nil {
		battles = []domain.BattleRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"battles": battles})
}

func (a *BattleAPI) GetStats(c *gin.Context) {
	stats, err := a.service.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrRecordNotFound), errors.Is(err, domain.ErrBattleNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
