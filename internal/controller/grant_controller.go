package controller

import (
	"encoding/json"
	"net/http"

	"gitee.com/czyczk/medivault-sdk/internal/service"
	"gitee.com/czyczk/medivault-sdk/pkg/errorcode"
	"gitee.com/czyczk/medivault-sdk/pkg/models/grant"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// A GrantController contains a group name and a `GrantService` instance. It also implements the interface `Controller`.
type GrantController struct {
	GroupName string
	GrantSvc  service.GrantServiceInterface
}

// GetGroupName returns the group name.
func (gc *GrantController) GetGroupName() string {
	return gc.GroupName
}

// GetEndpointMap implements part of the interface `Controller`. It returns the API endpoints and handlers which are defined and managed by GrantController.
func (gc *GrantController) GetEndpointMap() EndpointMap {
	return EndpointMap{
		urlMethodPair{"", "POST"}:      []gin.HandlerFunc{gc.handleCreateGrant},
		urlMethodPair{"", "GET"}:       []gin.HandlerFunc{gc.handleListGrantIDs},
		urlMethodPair{":id", "GET"}:    []gin.HandlerFunc{gc.handleGetGrant},
		urlMethodPair{":id", "DELETE"}: []gin.HandlerFunc{gc.handleRevokeGrant},
	}
}

func (gc *GrantController) handleCreateGrant(c *gin.Context) {
	grantee := c.PostForm("grantee")
	scopeTypeStr := c.PostForm("scopeType")
	permissionStr := c.PostForm("permission")
	expiresAtStr := c.PostForm("expiresAt")
	reason := c.PostForm("reason")

	// Validity check
	pel := &ParameterErrorList{}

	grantee = pel.AppendIfEmptyOrBlankSpaces(grantee, "被授权方地址不能为空。")

	scopeTypeStr = pel.AppendIfEmptyOrBlankSpaces(scopeTypeStr, "作用范围类别不能为空。")
	scopeType, err := grant.NewScopeTypeFromString(scopeTypeStr)
	if err != nil {
		*pel = append(*pel, "作用范围类别不合法。")
	}

	permissionStr = pel.AppendIfEmptyOrBlankSpaces(permissionStr, "权限级别不能为空。")
	permission, err := grant.NewPermissionFromString(permissionStr)
	if err != nil {
		*pel = append(*pel, "权限级别不合法。")
	}

	expiresAtStr = pel.AppendIfEmptyOrBlankSpaces(expiresAtStr, "过期时间不能为空。")
	expiresAt := pel.AppendIfNotTimeInRFC3339(expiresAtStr, "过期时间应为 RFC 3339 格式。")

	// Record IDs are required for a `RecordSet` scope and must be a JSON array if provided.
	recordIDsBytes := []byte(c.PostForm("recordIDs"))
	var recordIDs []string
	if len(recordIDsBytes) != 0 {
		err = json.Unmarshal(recordIDsBytes, &recordIDs)
		if err != nil {
			*pel = append(*pel, "记录 ID 列表不合法。")
		}
	}

	// Early return if the error list is not empty
	if len(*pel) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, pel)
		return
	}

	grantID, err := gc.GrantSvc.CreateGrant(grantee, scopeType, recordIDs, permission, expiresAt, reason)

	// Check error type and generate the corresponding response
	if err == nil {
		info := GrantCreationInfo{
			GrantID: grantID,
		}
		c.JSON(http.StatusOK, info)
	} else if errors.Cause(err) == errorcode.ErrorNotImplemented {
		c.Writer.WriteHeader(http.StatusNotImplemented)
	} else {
		c.String(http.StatusInternalServerError, err.Error())
	}
}

func (gc *GrantController) handleListGrantIDs(c *gin.Context) {
	grantee := c.Query("grantee")
	owner := c.Query("owner")
	pageSizeStr := c.Query("pageSize")
	bookmark := processBase64FromURLQuery(c.Query("bookmark"))

	// Validity check
	pel := &ParameterErrorList{}

	if (grantee == "") == (owner == "") {
		*pel = append(*pel, "被授权方地址与属主地址应恰好指定其一。")
	}

	pageSize := 10
	if pageSizeStr != "" {
		pageSize = pel.AppendIfNotPositiveInt(pageSizeStr, "分页大小应为正整数。")
	}

	// Early return if there's parameter error
	if len(*pel) != 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, *pel)
		return
	}

	var ids interface{}
	var err error
	if grantee != "" {
		ids, err = gc.GrantSvc.ListGrantIDsByGrantee(grantee, pageSize, bookmark)
	} else {
		ids, err = gc.GrantSvc.ListGrantIDsByOwner(owner, pageSize, bookmark)
	}

	if err == nil {
		c.JSON(http.StatusOK, ids)
	} else {
		c.String(http.StatusInternalServerError, err.Error())
	}
}

func (gc *GrantController) handleGetGrant(c *gin.Context) {
	id := c.Param("id")

	// Validity check
	pel := &ParameterErrorList{}
	id = pel.AppendIfEmptyOrBlankSpaces(id, "授权凭证 ID 不能为空。")

	// Early return if there's parameter error
	if len(*pel) != 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, *pel)
		return
	}

	g, err := gc.GrantSvc.GetGrant(id)
	if err == nil {
		c.JSON(http.StatusOK, g)
	} else if errors.Cause(err) == errorcode.ErrorNotFound {
		c.Writer.WriteHeader(http.StatusNotFound)
	} else {
		c.String(http.StatusInternalServerError, err.Error())
	}
}

func (gc *GrantController) handleRevokeGrant(c *gin.Context) {
	id := c.Param("id")

	// Validity check
	pel := &ParameterErrorList{}
	id = pel.AppendIfEmptyOrBlankSpaces(id, "授权凭证 ID 不能为空。")

	// Early return if there's parameter error
	if len(*pel) != 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, *pel)
		return
	}

	txID, err := gc.GrantSvc.RevokeGrant(id)
	if err == nil {
		info := GrantRevocationInfo{
			TransactionID: txID,
		}
		c.JSON(http.StatusOK, info)
	} else if errors.Cause(err) == errorcode.ErrorNotFound {
		c.Writer.WriteHeader(http.StatusNotFound)
	} else if errors.Cause(err) == errorcode.ErrorForbidden {
		c.Writer.WriteHeader(http.StatusForbidden)
	} else {
		c.String(http.StatusInternalServerError, err.Error())
	}
}
