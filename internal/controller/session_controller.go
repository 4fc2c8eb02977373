package controller

import (
	"net/http"
	"time"

	"gitee.com/czyczk/medivault-sdk/internal/service"
	"gitee.com/czyczk/medivault-sdk/pkg/errorcode"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// A SessionController contains a group name and a `SessionService` instance. It also implements the interface `Controller`.
type SessionController struct {
	GroupName  string
	SessionSvc service.SessionServiceInterface
}

// GetGroupName returns the group name.
func (sc *SessionController) GetGroupName() string {
	return sc.GroupName
}

// GetEndpointMap implements part of the interface `Controller`. It returns the API endpoints and handlers which are defined and managed by SessionController.
func (sc *SessionController) GetEndpointMap() EndpointMap {
	return EndpointMap{
		urlMethodPair{"", "POST"}: []gin.HandlerFunc{sc.handleCreateCredential},
	}
}

func (sc *SessionController) handleCreateCredential(c *gin.Context) {
	ttlSecondsStr := c.PostForm("ttlSeconds")

	// Validity check
	pel := &ParameterErrorList{}
	ttlSecondsStr = pel.AppendIfEmptyOrBlankSpaces(ttlSecondsStr, "有效期不能为空。")
	ttlSeconds := pel.AppendIfNotPositiveInt(ttlSecondsStr, "有效期应为正整数秒数。")

	// Early return if there's parameter error
	if len(*pel) != 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, *pel)
		return
	}

	credential, err := sc.SessionSvc.CreateCredential(time.Duration(ttlSeconds) * time.Second)
	if err == nil {
		c.JSON(http.StatusOK, credential)
	} else if errors.Cause(err) == errorcode.ErrorInvalidTTL {
		c.String(http.StatusBadRequest, err.Error())
	} else {
		c.String(http.StatusInternalServerError, err.Error())
	}
}
