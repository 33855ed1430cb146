package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"voyager.com/solitaire/game"
	"voyager.com/solitaire/klondike"
)

var restLogger = log.With().Str("logger_name", "rest::rest").Logger()
var sessionManager *game.Manager

//
// APP error definition
//
type appError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func RunRestServer(manager *game.Manager) {
	sessionManager = manager
	r := gin.Default()

	r.POST("/sessions", createSession)
	r.GET("/sessions/:sessionID", getSession)
	r.GET("/session-by-code/:sessionCode", getSessionByCode)
	r.GET("/sessions/:sessionID/reward", getReward)
	r.POST("/sessions/:sessionID/moves", applyMove)
	r.POST("/sessions/:sessionID/draw", draw)
	r.POST("/sessions/:sessionID/undo", undo)
	r.POST("/sessions/:sessionID/complete", complete)
	r.POST("/sessions/:sessionID/abandon", abandon)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Run(":8080")
}

// httpStatus maps the error taxonomy onto HTTP codes: rule violations are
// 400, unknown sessions 404, state guards and reward duplicates 409,
// unverified stakes 422.
func httpStatus(err error) int {
	switch err.(type) {
	case klondike.RuleError, game.InvalidStakeError:
		return http.StatusBadRequest
	case game.SessionNotFoundError:
		return http.StatusNotFound
	case game.SessionNotActiveError:
		return http.StatusConflict
	case game.StakeUnverifiedError:
		return http.StatusUnprocessableEntity
	}
	if err == klondike.ErrNothingToUndo {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	c.IndentedJSON(httpStatus(err), appError{
		Code:    httpStatus(err),
		Message: err.Error(),
	})
	c.Error(err)
}

func createSession(c *gin.Context) {
	type Payload struct {
		Player      string `json:"playerIdentity"`
		StakeAmount uint64 `json:"stakeAmount"`
		StakeProof  string `json:"stakeProof"`
	}
	var payload Payload
	if err := c.BindJSON(&payload); err != nil {
		restLogger.Error().Msgf("Failed to parse create-session payload. Error: %v", err)
		abortWithError(c, err)
		return
	}

	session, err := sessionManager.CreateSession(c.Request.Context(), payload.Player, payload.StakeAmount, payload.StakeProof)
	if err != nil {
		restLogger.Error().Msgf("Unable to create session for player [%s]. Error: %v", payload.Player, err)
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func getSession(c *gin.Context) {
	session, err := sessionManager.GetSession(c.Param("sessionID"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func getSessionByCode(c *gin.Context) {
	session, err := sessionManager.GetSessionByCode(c.Param("sessionCode"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func getReward(c *gin.Context) {
	reward, err := sessionManager.Reward(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if reward == nil {
		abortWithError(c, game.SessionNotFoundError{SessionID: c.Param("sessionID")})
		return
	}
	c.JSON(http.StatusOK, reward)
}

func applyMove(c *gin.Context) {
	type Payload struct {
		FromPileID string `json:"fromPileId"`
		FromIndex  int    `json:"fromIndex"`
		ToPileID   string `json:"toPileId"`
	}
	var payload Payload
	if err := c.BindJSON(&payload); err != nil {
		restLogger.Error().Msgf("Failed to parse move payload. Error: %v", err)
		abortWithError(c, err)
		return
	}

	session, err := sessionManager.ApplyMove(c.Request.Context(), c.Param("sessionID"),
		payload.FromPileID, payload.FromIndex, payload.ToPileID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func draw(c *gin.Context) {
	session, err := sessionManager.Draw(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func undo(c *gin.Context) {
	session, err := sessionManager.Undo(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func complete(c *gin.Context) {
	type Payload struct {
		Result string `json:"result"`
		Score  int64  `json:"score"`
	}
	var payload Payload
	if err := c.BindJSON(&payload); err != nil {
		restLogger.Error().Msgf("Failed to parse complete payload. Error: %v", err)
		abortWithError(c, err)
		return
	}
	result, ok := game.ParseResult(payload.Result)
	if !ok {
		c.IndentedJSON(http.StatusBadRequest, appError{
			Code:    http.StatusBadRequest,
			Message: "Unknown result " + payload.Result,
		})
		return
	}

	session, err := sessionManager.Complete(c.Request.Context(), c.Param("sessionID"), result)
	if err != nil {
		abortWithError(c, err)
		return
	}
	// The score is recomputed server-side from pile state; the client
	// value is only checked for drift.
	if payload.Score != session.Score {
		restLogger.Warn().
			Str("sessionID", session.ID).
			Msgf("Client-reported score %d differs from server score %d", payload.Score, session.Score)
	}
	c.JSON(http.StatusOK, session)
}

func abandon(c *gin.Context) {
	session, err := sessionManager.Abandon(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}
