package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/futarchy-engine/internal/common"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	// Kind and Details are set for planning failures.
	Kind    string         `json:"kind,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func Error(c *gin.Context, status int, err string) {
	c.JSON(status, Response{
		Success: false,
		Error:   err,
	})
}

func BadRequest(c *gin.Context, err string) {
	Error(c, http.StatusBadRequest, err)
}

func NotFound(c *gin.Context, err string) {
	Error(c, http.StatusNotFound, err)
}

// PlanError writes err with the status of its kind. Server-side failures
// are logged at error level, rejections at debug.
func PlanError(c *gin.Context, err error) {
	he := common.HTTPErrorFromPlan(err)
	if he.StatusCode >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	} else {
		log.Debug().Err(err).Str("path", c.FullPath()).Msg("request rejected")
	}
	c.JSON(he.StatusCode, Response{
		Success: false,
		Error:   he.Message,
		Kind:    he.Code,
		Details: he.Details,
	})
}

// Aliases for compatibility
func HandleSuccess(c *gin.Context, data interface{}) {
	Success(c, data)
}

func HandleBadRequest(c *gin.Context, err string) {
	BadRequest(c, err)
}

func HandleNotFound(c *gin.Context, err string) {
	NotFound(c, err)
}

func HandlePlanError(c *gin.Context, err error) {
	PlanError(c, err)
}
