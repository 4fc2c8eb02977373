package bcao

import (
	"gitee.com/czyczk/medivault-sdk/pkg/models/grant"
	"gitee.com/czyczk/medivault-sdk/pkg/models/query"
)

// GrantBCAOInterface 定义授权凭证的链上访问操作。链上的授权状态是策略检查的
// 权威依据：凭证创建与撤销都必须立即反映到后续的策略重放中。
type GrantBCAOInterface interface {
	// CreateGrant 在链上创建一条授权凭证
	CreateGrant(g *grant.Grant, eventID ...string) (*TransactionCreationInfo, error)
	// RevokeGrant 撤销一条授权凭证，返回交易 ID。只有凭证属主能撤销。
	RevokeGrant(grantID string, eventID ...string) (string, error)
	// GetGrant 按 ID 读取授权凭证。被撤销的凭证返回 `errorcode.ErrorNotFound`。
	GetGrant(grantID string) (*grant.Grant, error)
	// ListGrantIDsByGrantee 按被授权方地址分页列出未撤销的授权凭证 ID
	ListGrantIDsByGrantee(grantee string, pageSize int, bookmark string) (*query.IDsWithPagination, error)
	// ListGrantIDsByOwner 按属主地址分页列出未撤销的授权凭证 ID
	ListGrantIDsByOwner(owner string, pageSize int, bookmark string) (*query.IDsWithPagination, error)
}
