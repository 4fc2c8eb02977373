package service

import (
	"time"

	"gitee.com/czyczk/medivault-sdk/pkg/models/grant"
	"gitee.com/czyczk/medivault-sdk/pkg/models/query"
)

// GrantServiceInterface 定义了有关于授权凭证的服务的接口
type GrantServiceInterface interface {
	// 以当前主体为属主创建授权凭证。
	//
	// 参数：
	//   被授权方地址
	//   作用范围类别
	//   范围为记录集合时的记录 ID 列表
	//   权限级别
	//   过期时间
	//   授权理由
	//
	// 返回：
	//   授权凭证 ID
	CreateGrant(grantee string, scopeType grant.ScopeType, recordIDs []string, permission grant.Permission, expiresAt time.Time, reason string) (string, error)

	// 撤销当前主体名下的授权凭证。撤销立即生效，之后的策略检查中该凭证视同不存在。
	//
	// 参数：
	//   授权凭证 ID
	//
	// 返回：
	//   交易 ID
	RevokeGrant(grantID string) (string, error)

	// 获取授权凭证。
	//
	// 参数：
	//   授权凭证 ID
	//
	// 返回：
	//   授权凭证
	GetGrant(grantID string) (*grant.Grant, error)

	// 按被授权方地址分页列出未撤销的授权凭证 ID。
	//
	// 参数：
	//   被授权方地址
	//   分页大小
	//   分页书签
	//
	// 返回：
	//   带书签的 ID 列表
	ListGrantIDsByGrantee(grantee string, pageSize int, bookmark string) (*query.IDsWithPagination, error)

	// 按属主地址分页列出未撤销的授权凭证 ID。
	//
	// 参数：
	//   属主地址
	//   分页大小
	//   分页书签
	//
	// 返回：
	//   带书签的 ID 列表
	ListGrantIDsByOwner(owner string, pageSize int, bookmark string) (*query.IDsWithPagination, error)

	// 查找覆盖指定访问请求的授权凭证。未找到时返回 nil，不视作错误。
	//
	// 参数：
	//   被授权方地址
	//   属主地址
	//   记录 ID
	//   所请求的权限
	//
	// 返回：
	//   覆盖该请求的授权凭证
	FindCoveringGrant(grantee string, owner string, recordID string, requested grant.Permission) (*grant.Grant, error)
}
