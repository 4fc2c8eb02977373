// Package custodian 实现向密钥份额托管方并发取回身份解密份额的客户端。
// 托管方是独立部署的服务，收到请求后在本地重放链上访问策略，通过校验才释放
// 自己名下的主密钥份额对应的身份解密份额。
package custodian

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"gitee.com/czyczk/medivault-sdk/pkg/errorcode"
	"gitee.com/czyczk/medivault-sdk/pkg/models/keyshare"
)

// DefaultFetchTimeout 为单次份额请求的默认超时。取回份额阻塞在用户可感知的
// 解密路径上，超时应明显短于块存储读取的超时。
const DefaultFetchTimeout = 15 * time.Second

const keySharePath = "/api/v1/keyshare"

// Fetcher 是份额取回能力的抽象，便于上层服务在测试中注入假实现。
type Fetcher interface {
	FetchShares(ctx context.Context, request *keyshare.ShareRequest, endpoints []string) ([]*keyshare.ShareResponse, error)
}

// Client 为基于 HTTP 的份额取回客户端
type Client struct {
	httpClient   *http.Client
	fetchTimeout time.Duration
}

// NewClient 构造份额取回客户端。`fetchTimeout` 不为正时使用 `DefaultFetchTimeout`。
func NewClient(fetchTimeout time.Duration) *Client {
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}

	return &Client{
		httpClient:   &http.Client{},
		fetchTimeout: fetchTimeout,
	}
}

// fetchResult 为单个托管方的应答。三种终态互斥：取得份额、策略拒绝、失败。
type fetchResult struct {
	share             *keyshare.ShareResponse
	denied            bool
	credentialExpired bool
	err               error
}

// FetchShares 并发向所有托管方请求身份解密份额，收集到门限数量即返回，
// 同时取消其余仍在途的请求。迟到的应答一律丢弃，不会混入下一轮尝试。
//
// 未达门限时等所有托管方应答完毕再归类错误：任一托管方报告凭证过期即返回
// `errorcode.ErrorCredentialExpired`；否则策略拒绝数量达到门限时返回
// `errorcode.ErrorNotAuthorized`；其余情况返回 `errorcode.ErrorInsufficientShares`。
//
// 参数：
//   请求上下文
//   份额请求（所有托管方收到相同的请求体）
//   托管方端点列表
//
// 返回：
//   门限数量的份额应答
func (c *Client) FetchShares(ctx context.Context, request *keyshare.ShareRequest, endpoints []string) ([]*keyshare.ShareResponse, error) {
	// 凭证本地预检不通过则不发出任何网络调用
	if err := request.Credential.Validate(time.Now()); err != nil {
		return nil, err
	}

	threshold := request.Threshold
	if threshold <= 0 || threshold > len(endpoints) {
		return nil, errorcode.ErrorThresholdMismatch
	}

	requestBytes, err := json.Marshal(request)
	if err != nil {
		return nil, errors.Wrap(err, "无法序列化份额请求")
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 带缓冲的通道保证取消后迟到的 goroutine 也能写完退出，不会泄漏
	resultChan := make(chan *fetchResult, len(endpoints))
	for _, endpoint := range endpoints {
		go func(endpoint string) {
			resultChan <- c.fetchFromEndpoint(fetchCtx, endpoint, requestBytes)
		}(endpoint)
	}

	shares := make([]*keyshare.ShareResponse, 0, threshold)
	numDenied := 0
	numFailed := 0
	sawCredentialExpired := false

	for i := 0; i < len(endpoints); i++ {
		result := <-resultChan

		switch {
		case result.credentialExpired:
			sawCredentialExpired = true
		case result.denied:
			numDenied++
		case result.err != nil:
			log.Debugf("份额请求失败，继续等待其余托管方: %v", result.err)
			numFailed++
		default:
			shares = append(shares, result.share)
			if len(shares) >= threshold {
				return shares, nil
			}
		}
	}

	if sawCredentialExpired {
		return nil, errorcode.ErrorCredentialExpired
	}
	if numDenied >= threshold {
		return nil, errorcode.ErrorNotAuthorized
	}

	log.Debugf("份额收集未达门限: 成功 %v，拒绝 %v，失败 %v，门限 %v", len(shares), numDenied, numFailed, threshold)
	return nil, errorcode.ErrorInsufficientShares
}

// fetchFromEndpoint 向单个托管方发出份额请求并归类应答
func (c *Client) fetchFromEndpoint(ctx context.Context, endpoint string, requestBytes []byte) *fetchResult {
	callCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	httpRequest, err := http.NewRequestWithContext(callCtx, http.MethodPost, endpoint+keySharePath, bytes.NewReader(requestBytes))
	if err != nil {
		return &fetchResult{err: errors.Wrapf(err, "无法构造发往 %v 的份额请求", endpoint)}
	}
	httpRequest.Header.Set("Content-Type", "application/json")

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return &fetchResult{err: errors.Wrapf(err, "发往 %v 的份额请求失败", endpoint)}
	}
	defer httpResponse.Body.Close()

	switch httpResponse.StatusCode {
	case http.StatusOK:
		var share keyshare.ShareResponse
		if err := json.NewDecoder(httpResponse.Body).Decode(&share); err != nil {
			return &fetchResult{err: errors.Wrapf(err, "无法解析托管方 %v 的份额应答", endpoint)}
		}
		return &fetchResult{share: &share}
	case http.StatusUnauthorized:
		// 托管方按自身时钟判定凭证已过期
		return &fetchResult{credentialExpired: true}
	case http.StatusForbidden:
		// 策略重放未通过
		return &fetchResult{denied: true}
	default:
		return &fetchResult{err: errors.Errorf("托管方 %v 返回意外状态码 %v", endpoint, httpResponse.StatusCode)}
	}
}
