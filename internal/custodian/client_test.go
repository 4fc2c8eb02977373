package custodian

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"gitee.com/czyczk/medivault-sdk/pkg/errorcode"
	"gitee.com/czyczk/medivault-sdk/pkg/models/keyshare"
	"gitee.com/czyczk/medivault-sdk/pkg/models/session"
)

// custodianMode 控制假托管方对份额请求的反应
type custodianMode int

const (
	modeGrant custodianMode = iota
	modeDeny
	modeCredentialExpired
	modeBroken
)

// newFakeCustodian 启动一个假托管方服务，按 `mode` 应答份额请求。
// 返回服务地址与该托管方收到的请求计数。
func newFakeCustodian(t *testing.T, index int, mode custodianMode) (string, *int64) {
	gin.SetMode(gin.TestMode)

	var numRequests int64

	router := gin.New()
	router.POST("/api/v1/keyshare", func(c *gin.Context) {
		atomic.AddInt64(&numRequests, 1)

		var request keyshare.ShareRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}

		switch mode {
		case modeGrant:
			c.JSON(http.StatusOK, keyshare.ShareResponse{
				Index: index,
				Share: "ZmFrZS1zaGFyZQ==",
			})
		case modeDeny:
			c.String(http.StatusForbidden, "链上策略检查未通过")
		case modeCredentialExpired:
			c.String(http.StatusUnauthorized, "会话凭证已过期")
		default:
			c.String(http.StatusInternalServerError, "托管方内部错误")
		}
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server.URL, &numRequests
}

func newSignedCredential(ttl time.Duration) session.Credential {
	return session.Credential{
		SubjectAddress: "dGVzdC1zdWJqZWN0",
		TrustRootRef:   "medivault-policy-cc",
		IssuedAt:       time.Now(),
		TTL:            ttl,
		Signature:      "ZmFrZS1zaWduYXR1cmU=",
	}
}

func newShareRequest(threshold int) *keyshare.ShareRequest {
	return &keyshare.ShareRequest{
		Identity:   "aWRlbnRpdHk=",
		PolicyTx:   "cG9saWN5LXR4",
		Credential: newSignedCredential(10 * time.Minute),
		Threshold:  threshold,
	}
}

func TestFetchSharesReachesThreshold(t *testing.T) {
	// 3 个托管方中 1 个拒绝，其余 2 个放行，门限 2 应当达到
	endpoint1, _ := newFakeCustodian(t, 1, modeGrant)
	endpoint2, _ := newFakeCustodian(t, 2, modeDeny)
	endpoint3, _ := newFakeCustodian(t, 3, modeGrant)

	client := NewClient(5 * time.Second)
	shares, err := client.FetchShares(context.Background(), newShareRequest(2), []string{endpoint1, endpoint2, endpoint3})
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	if isLen := assert.Len(t, shares, 2); !isLen {
		t.FailNow()
	}

	for _, share := range shares {
		if isNotEmpty := assert.NotEmpty(t, share.Share); !isNotEmpty {
			t.FailNow()
		}
	}
}

func TestFetchSharesDeniedAtThreshold(t *testing.T) {
	// 拒绝数量达到门限时应归类为无权访问而非份额不足
	endpoint1, _ := newFakeCustodian(t, 1, modeDeny)
	endpoint2, _ := newFakeCustodian(t, 2, modeDeny)
	endpoint3, _ := newFakeCustodian(t, 3, modeGrant)

	client := NewClient(5 * time.Second)
	_, err := client.FetchShares(context.Background(), newShareRequest(2), []string{endpoint1, endpoint2, endpoint3})
	if isEqual := assert.Equal(t, errorcode.ErrorNotAuthorized, err); !isEqual {
		t.FailNow()
	}
}

func TestFetchSharesCredentialExpiredWins(t *testing.T) {
	// 有托管方判定凭证过期时，过期优先于其他归类
	endpoint1, _ := newFakeCustodian(t, 1, modeCredentialExpired)
	endpoint2, _ := newFakeCustodian(t, 2, modeDeny)
	endpoint3, _ := newFakeCustodian(t, 3, modeDeny)

	client := NewClient(5 * time.Second)
	_, err := client.FetchShares(context.Background(), newShareRequest(2), []string{endpoint1, endpoint2, endpoint3})
	if isEqual := assert.Equal(t, errorcode.ErrorCredentialExpired, err); !isEqual {
		t.FailNow()
	}
}

func TestFetchSharesInsufficientOnFailures(t *testing.T) {
	// 托管方故障导致成功数不足门限，且拒绝数未达门限
	endpoint1, _ := newFakeCustodian(t, 1, modeGrant)
	endpoint2, _ := newFakeCustodian(t, 2, modeBroken)
	endpoint3, _ := newFakeCustodian(t, 3, modeBroken)

	client := NewClient(5 * time.Second)
	_, err := client.FetchShares(context.Background(), newShareRequest(2), []string{endpoint1, endpoint2, endpoint3})
	if isEqual := assert.Equal(t, errorcode.ErrorInsufficientShares, err); !isEqual {
		t.FailNow()
	}
}

func TestFetchSharesUnsignedCredentialShortCircuits(t *testing.T) {
	endpoint1, numRequests1 := newFakeCustodian(t, 1, modeGrant)
	endpoint2, numRequests2 := newFakeCustodian(t, 2, modeGrant)

	request := newShareRequest(2)
	request.Credential.Signature = ""

	client := NewClient(5 * time.Second)
	_, err := client.FetchShares(context.Background(), request, []string{endpoint1, endpoint2})
	if isEqual := assert.Equal(t, errorcode.ErrorUnsignedCredential, err); !isEqual {
		t.FailNow()
	}

	// 本地预检不通过时不应发出任何网络调用
	if isZero := assert.Zero(t, atomic.LoadInt64(numRequests1)); !isZero {
		t.FailNow()
	}
	if isZero := assert.Zero(t, atomic.LoadInt64(numRequests2)); !isZero {
		t.FailNow()
	}
}

func TestFetchSharesExpiredCredentialShortCircuits(t *testing.T) {
	endpoint1, numRequests1 := newFakeCustodian(t, 1, modeGrant)

	request := newShareRequest(1)
	request.Credential.IssuedAt = time.Now().Add(-1 * time.Hour)
	request.Credential.TTL = 1 * time.Minute

	client := NewClient(5 * time.Second)
	_, err := client.FetchShares(context.Background(), request, []string{endpoint1})
	if isEqual := assert.Equal(t, errorcode.ErrorCredentialExpired, err); !isEqual {
		t.FailNow()
	}
	if isZero := assert.Zero(t, atomic.LoadInt64(numRequests1)); !isZero {
		t.FailNow()
	}
}

func TestFetchSharesThresholdBeyondCustodians(t *testing.T) {
	endpoint1, _ := newFakeCustodian(t, 1, modeGrant)

	client := NewClient(5 * time.Second)
	_, err := client.FetchShares(context.Background(), newShareRequest(2), []string{endpoint1})
	if isEqual := assert.Equal(t, errorcode.ErrorThresholdMismatch, err); !isEqual {
		t.FailNow()
	}
}
