package keyshare

import (
	"gitee.com/czyczk/medivault-sdk/pkg/models/session"
)

// ShareRequest 表示发给单个密钥份额托管方的份额请求
type ShareRequest struct {
	Identity   string             `json:"identity"`   // 身份标识（Base64 编码）
	PolicyTx   string             `json:"policyTx"`   // 未签名的策略检查交易字节（Base64 编码）
	Credential session.Credential `json:"credential"` // 请求者的会话凭证（必须已签名）
	Threshold  int                `json:"threshold"`  // 信封中记录的解密门限
}

// ShareResponse 表示托管方在策略重放通过后返回的密钥份额。
// 份额是单次解密尝试的临时产物：聚合完成或尝试失败后即应丢弃，不得持久化，
// 也不得与另一轮尝试的份额混用。
type ShareResponse struct {
	Index int    `json:"index"` // 托管方的主密钥份额序号（Shamir 插值点的横坐标）
	Share string `json:"share"` // 身份解密份额（G1 压缩格式）（Base64 编码）
}
