package controller

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"gitee.com/czyczk/medivault-sdk/internal/service"
	"gitee.com/czyczk/medivault-sdk/pkg/errorcode"
	"gitee.com/czyczk/medivault-sdk/pkg/models/record"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// defaultCredentialTTL 是经由 HTTP 端点解密记录时，代请求方签发的会话凭证的有效期
const defaultCredentialTTL = 10 * time.Minute

// A RecordController contains a group name and the service instances it dispatches to. It also implements the interface `Controller`.
type RecordController struct {
	GroupName  string
	VaultSvc   service.VaultServiceInterface
	SessionSvc service.SessionServiceInterface
}

// GetGroupName returns the group name.
func (rc *RecordController) GetGroupName() string {
	return rc.GroupName
}

// GetEndpointMap implements part of the interface `Controller`. It returns the API endpoints and handlers which are defined and managed by RecordController.
func (rc *RecordController) GetEndpointMap() EndpointMap {
	return EndpointMap{
		urlMethodPair{"", "POST"}:            []gin.HandlerFunc{rc.handleCreateRecord},
		urlMethodPair{"", "GET"}:             []gin.HandlerFunc{rc.handleListRecordIDs},
		urlMethodPair{":id", "GET"}:          []gin.HandlerFunc{rc.handleGetRecord},
		urlMethodPair{":id/metadata", "GET"}: []gin.HandlerFunc{rc.handleGetRecordMetadata},
		urlMethodPair{":id/recovery", "POST"}: []gin.HandlerFunc{
			rc.handleRecoverRecord,
		},
	}
}

func (rc *RecordController) handleCreateRecord(c *gin.Context) {
	kindStr := c.PostForm("kind")

	// Validity check
	pel := &ParameterErrorList{}

	kindStr = pel.AppendIfEmptyOrBlankSpaces(kindStr, "记录类别不能为空。")
	kind := record.Kind(kindStr)
	if kindStr != "" && !kind.IsValid() {
		*pel = append(*pel, "记录类别不合法。")
	}

	body := []byte(c.PostForm("body"))
	if len(body) == 0 {
		*pel = append(*pel, "记录内容不能为空。")
	}

	// Extensions are optional, but they must be valid (can be unmarshaled to a map) if provided.
	extensionsBytes := []byte(c.PostForm("extensions"))
	extensions := make(map[string]interface{})
	if len(extensionsBytes) != 0 {
		err := json.Unmarshal(extensionsBytes, &extensions)
		if err != nil {
			*pel = append(*pel, "扩展字段不合法。")
		}
	}

	// Early return if the error list is not empty
	if len(*pel) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, pel)
		return
	}

	payload, err := record.NewPayload(kind, body)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	result, err := rc.VaultSvc.CreateRecord(c.Request.Context(), payload, extensions)

	// Check error type and generate the corresponding response.
	// The backup key appears in the response once and is persisted nowhere.
	if err == nil {
		info := RecordCreationInfo{
			RecordID:      result.RecordID,
			StorageRef:    result.StorageRef,
			TransactionID: result.TransactionID,
			BackupKey:     base64.StdEncoding.EncodeToString(result.BackupKey),
		}
		c.JSON(http.StatusOK, info)
	} else if errors.Cause(err) == errorcode.ErrorNotImplemented {
		c.Writer.WriteHeader(http.StatusNotImplemented)
	} else {
		c.String(http.StatusInternalServerError, err.Error())
	}
}

func (rc *RecordController) handleListRecordIDs(c *gin.Context) {
	pageSizeStr := c.Query("pageSize")
	bookmark := processBase64FromURLQuery(c.Query("bookmark"))

	// Validity check
	pel := &ParameterErrorList{}

	pageSize := 10
	if pageSizeStr != "" {
		pageSize = pel.AppendIfNotPositiveInt(pageSizeStr, "分页大小应为正整数。")
	}

	// Early return if there's parameter error
	if len(*pel) != 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, *pel)
		return
	}

	ids, err := rc.VaultSvc.ListRecordIDs(pageSize, bookmark)
	if err == nil {
		c.JSON(http.StatusOK, ids)
	} else if errors.Cause(err) == errorcode.ErrorNotImplemented {
		c.Writer.WriteHeader(http.StatusNotImplemented)
	} else {
		c.String(http.StatusInternalServerError, err.Error())
	}
}

func (rc *RecordController) handleGetRecordMetadata(c *gin.Context) {
	id := c.Param("id")

	// Validity check
	pel := &ParameterErrorList{}
	id = pel.AppendIfEmptyOrBlankSpaces(id, "记录 ID 不能为空。")

	// Early return if there's parameter error
	if len(*pel) != 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, *pel)
		return
	}

	metadata, err := rc.VaultSvc.GetRecordMetadata(id)
	if err == nil {
		c.JSON(http.StatusOK, metadata)
	} else if errors.Cause(err) == errorcode.ErrorNotFound {
		c.Writer.WriteHeader(http.StatusNotFound)
	} else {
		c.String(http.StatusInternalServerError, err.Error())
	}
}

func (rc *RecordController) handleGetRecord(c *gin.Context) {
	id := c.Param("id")

	// Validity check
	pel := &ParameterErrorList{}
	id = pel.AppendIfEmptyOrBlankSpaces(id, "记录 ID 不能为空。")

	// Early return if there's parameter error
	if len(*pel) != 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, *pel)
		return
	}

	// 代请求方签发一个短时效的会话凭证。托管方会独立校验其签名与时效。
	credential, err := rc.SessionSvc.CreateCredential(defaultCredentialTTL)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	payload, err := rc.VaultSvc.GetRecord(c.Request.Context(), id, credential, nil)

	// Check error type and generate the corresponding response
	if err == nil {
		c.JSON(http.StatusOK, payload)
	} else if errors.Cause(err) == errorcode.ErrorNotFound {
		c.Writer.WriteHeader(http.StatusNotFound)
	} else if errors.Cause(err) == errorcode.ErrorNotAuthorized || errors.Cause(err) == errorcode.ErrorForbidden {
		c.Writer.WriteHeader(http.StatusForbidden)
	} else if errors.Cause(err) == errorcode.ErrorCredentialExpired || errors.Cause(err) == errorcode.ErrorUnsignedCredential {
		c.Writer.WriteHeader(http.StatusUnauthorized)
	} else if errors.Cause(err) == errorcode.ErrorInsufficientShares {
		c.Writer.WriteHeader(http.StatusServiceUnavailable)
	} else if errors.Cause(err) == errorcode.ErrorEnvelopeCorrupt || errors.Cause(err) == errorcode.ErrorThresholdMismatch || errors.Cause(err) == errorcode.ErrorDecryptFailed {
		c.String(http.StatusUnprocessableEntity, err.Error())
	} else {
		c.String(http.StatusInternalServerError, err.Error())
	}
}

func (rc *RecordController) handleRecoverRecord(c *gin.Context) {
	id := c.Param("id")
	backupKeyStr := c.PostForm("backupKey")

	// Validity check
	pel := &ParameterErrorList{}
	id = pel.AppendIfEmptyOrBlankSpaces(id, "记录 ID 不能为空。")
	backupKeyStr = pel.AppendIfEmptyOrBlankSpaces(backupKeyStr, "备份密钥不能为空。")

	backupKey, err := base64.StdEncoding.DecodeString(backupKeyStr)
	if backupKeyStr != "" && err != nil {
		*pel = append(*pel, "备份密钥应为 Base64 编码。")
	}

	// Early return if there's parameter error
	if len(*pel) != 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, *pel)
		return
	}

	payload, err := rc.VaultSvc.RecoverRecordWithBackupKey(c.Request.Context(), id, backupKey)
	if err == nil {
		c.JSON(http.StatusOK, payload)
	} else if errors.Cause(err) == errorcode.ErrorNotFound {
		c.Writer.WriteHeader(http.StatusNotFound)
	} else if errors.Cause(err) == errorcode.ErrorEnvelopeCorrupt || errors.Cause(err) == errorcode.ErrorDecryptFailed {
		c.String(http.StatusUnprocessableEntity, err.Error())
	} else {
		c.String(http.StatusInternalServerError, err.Error())
	}
}
