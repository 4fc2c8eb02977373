package grant

import (
	"fmt"
	"time"
)

// Permission 表示授权凭证赋予的操作权限
type Permission int

const (
	// Read 表示只读权限。
	Read Permission = iota
	// Write 表示读写权限。Write 蕴含 Read。
	Write
)

func (p Permission) String() string {
	switch p {
	case Read:
		return "Read"
	case Write:
		return "Write"
	default:
		return fmt.Sprintf("%d", int(p))
	}
}

// NewPermissionFromString 从 enum 名称获得 Permission enum。
func NewPermissionFromString(enumString string) (ret Permission, err error) {
	switch enumString {
	case "Read":
		ret = Read
		return
	case "Write":
		ret = Write
		return
	default:
		err = fmt.Errorf("不正确的 enum 字符串")
		return
	}
}

// Covers 返回权限 `p` 是否覆盖所请求的权限。Write 覆盖 Read。
func (p Permission) Covers(requested Permission) bool {
	return p >= requested
}

// ScopeType 表示授权凭证的作用范围类别
type ScopeType int

const (
	// AllRecords 表示授权覆盖属主的全部记录，包括授权之后新建的记录。
	AllRecords ScopeType = iota
	// RecordSet 表示授权只覆盖创建时显式列出的记录集合，不自动包含之后新建的记录。
	RecordSet
)

func (t ScopeType) String() string {
	switch t {
	case AllRecords:
		return "AllRecords"
	case RecordSet:
		return "RecordSet"
	default:
		return fmt.Sprintf("%d", int(t))
	}
}

// NewScopeTypeFromString 从 enum 名称获得 ScopeType enum。
func NewScopeTypeFromString(enumString string) (ret ScopeType, err error) {
	switch enumString {
	case "AllRecords":
		ret = AllRecords
		return
	case "RecordSet":
		ret = RecordSet
		return
	default:
		err = fmt.Errorf("不正确的 enum 字符串")
		return
	}
}

// Grant 为属主签发的授权凭证。创建后不可变更，删除（撤销）除外。
// 过期与否是纯时间戳比较；链上策略检查为权威判定，客户端检查只作优化。
type Grant struct {
	ID         string                 `json:"id"`         // 授权凭证 ID
	Owner      string                 `json:"owner"`      // 属主地址（Base64 编码）
	Grantee    string                 `json:"grantee"`    // 被授权方地址（Base64 编码）
	ScopeType  ScopeType              `json:"scopeType"`  // 作用范围类别
	RecordIDs  []string               `json:"recordIDs"`  // 范围为 `RecordSet` 时的记录 ID 集合
	Permission Permission             `json:"permission"` // 权限级别
	ExpiresAt  time.Time              `json:"expiresAt"`  // 过期时间
	Reason     string                 `json:"reason"`     // 授权理由
	CreatedAt  time.Time              `json:"createdAt"`  // 创建时间
	Extensions map[string]interface{} `json:"extensions"` // 扩展字段
}

// IsExpired 返回凭证在 `now` 时刻是否已过期。已过期的凭证在策略检查中
// 视同不存在，无论是否被显式撤销。
func (g *Grant) IsExpired(now time.Time) bool {
	return g.ExpiresAt.Before(now)
}

// Covers 返回凭证在 `now` 时刻是否授权 `grantee` 以 `requested` 权限访问
// 记录 `recordID`。`AllRecords` 范围覆盖属主名下任意记录 ID。
func (g *Grant) Covers(grantee string, recordID string, requested Permission, now time.Time) bool {
	if g.Grantee != grantee {
		return false
	}

	if g.IsExpired(now) {
		return false
	}

	if !g.Permission.Covers(requested) {
		return false
	}

	if g.ScopeType == AllRecords {
		return true
	}

	for _, id := range g.RecordIDs {
		if id == recordID {
			return true
		}
	}

	return false
}
