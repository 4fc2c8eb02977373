package service

import (
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"gitee.com/czyczk/medivault-sdk/internal/utils/idutils"
	"gitee.com/czyczk/medivault-sdk/pkg/errorcode"
	"gitee.com/czyczk/medivault-sdk/pkg/models/grant"
	"gitee.com/czyczk/medivault-sdk/pkg/models/query"
)

// grantListPageSize 为查找覆盖授权时每页拉取的 ID 数量
const grantListPageSize = 20

// GrantService 实现了 `GrantServiceInterface` 接口，提供授权凭证的管理服务
type GrantService struct {
	ServiceInfo *Info
}

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
func (s *GrantService) CreateGrant(grantee string, scopeType grant.ScopeType, recordIDs []string, permission grant.Permission, expiresAt time.Time, reason string) (string, error) {
	if strings.TrimSpace(grantee) == "" {
		return "", fmt.Errorf("被授权方地址不能为空")
	}

	owner := s.ServiceInfo.Signer.Address()
	if grantee == owner {
		return "", fmt.Errorf("不能为属主自己创建授权凭证")
	}

	if scopeType == grant.RecordSet && len(recordIDs) == 0 {
		return "", fmt.Errorf("记录集合范围的授权必须列出至少一条记录 ID")
	}
	if scopeType == grant.AllRecords && len(recordIDs) != 0 {
		return "", fmt.Errorf("覆盖全部记录的授权不应列出记录 ID")
	}

	now := time.Now()
	if !expiresAt.After(now) {
		return "", fmt.Errorf("过期时间必须在将来")
	}

	grantID, err := idutils.GenerateSnowflakeId()
	if err != nil {
		return "", err
	}

	g := &grant.Grant{
		ID:         grantID,
		Owner:      owner,
		Grantee:    grantee,
		ScopeType:  scopeType,
		RecordIDs:  recordIDs,
		Permission: permission,
		ExpiresAt:  expiresAt,
		Reason:     reason,
		CreatedAt:  now,
	}

	creationInfo, err := s.ServiceInfo.GrantBCAO.CreateGrant(g)
	if err != nil {
		return "", err
	}

	log.Debugf("授权凭证 '%v' 已创建于交易 '%v'（区块 '%v'）", grantID, creationInfo.TransactionID, creationInfo.BlockID)
	return grantID, nil
}

// 撤销当前主体名下的授权凭证。撤销立即生效，之后的策略检查中该凭证视同不存在。
//
// 参数：
//   授权凭证 ID
//
// 返回：
//   交易 ID
func (s *GrantService) RevokeGrant(grantID string) (string, error) {
	if strings.TrimSpace(grantID) == "" {
		return "", fmt.Errorf("授权凭证 ID 不能为空")
	}

	g, err := s.ServiceInfo.GrantBCAO.GetGrant(grantID)
	if err != nil {
		return "", err
	}

	// 链码同样会检查属主身份，这里提前拒绝以省去一次无谓的交易
	if g.Owner != s.ServiceInfo.Signer.Address() {
		return "", errorcode.ErrorForbidden
	}

	return s.ServiceInfo.GrantBCAO.RevokeGrant(grantID)
}

// 获取授权凭证。
//
// 参数：
//   授权凭证 ID
//
// 返回：
//   授权凭证
func (s *GrantService) GetGrant(grantID string) (*grant.Grant, error) {
	return s.ServiceInfo.GrantBCAO.GetGrant(grantID)
}

// 按被授权方地址分页列出未撤销的授权凭证 ID。
//
// 参数：
//   被授权方地址
//   分页大小
//   分页书签
//
// 返回：
//   带书签的 ID 列表
func (s *GrantService) ListGrantIDsByGrantee(grantee string, pageSize int, bookmark string) (*query.IDsWithPagination, error) {
	return s.ServiceInfo.GrantBCAO.ListGrantIDsByGrantee(grantee, pageSize, bookmark)
}

// 按属主地址分页列出未撤销的授权凭证 ID。
//
// 参数：
//   属主地址
//   分页大小
//   分页书签
//
// 返回：
//   带书签的 ID 列表
func (s *GrantService) ListGrantIDsByOwner(owner string, pageSize int, bookmark string) (*query.IDsWithPagination, error) {
	return s.ServiceInfo.GrantBCAO.ListGrantIDsByOwner(owner, pageSize, bookmark)
}

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
func (s *GrantService) FindCoveringGrant(grantee string, owner string, recordID string, requested grant.Permission) (*grant.Grant, error) {
	now := time.Now()
	bookmark := ""

	for {
		page, err := s.ServiceInfo.GrantBCAO.ListGrantIDsByGrantee(grantee, grantListPageSize, bookmark)
		if err != nil {
			return nil, err
		}
		if len(page.IDs) == 0 {
			return nil, nil
		}

		for _, grantID := range page.IDs {
			g, err := s.ServiceInfo.GrantBCAO.GetGrant(grantID)
			if err == errorcode.ErrorNotFound {
				// 凭证在列出与读取之间被撤销
				continue
			} else if err != nil {
				return nil, err
			}

			if g.Owner == owner && g.Covers(grantee, recordID, requested, now) {
				return g, nil
			}
		}

		if page.Bookmark == "" {
			return nil, nil
		}
		bookmark = page.Bookmark
	}
}
