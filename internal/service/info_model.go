package service

import (
	"gorm.io/gorm"

	"gitee.com/czyczk/medivault-sdk/internal/blobstore"
	"gitee.com/czyczk/medivault-sdk/internal/blockchain/bcao"
	"gitee.com/czyczk/medivault-sdk/internal/custodian"
	"gitee.com/czyczk/medivault-sdk/internal/tibe"
	"gitee.com/czyczk/medivault-sdk/internal/wallet"
	"gitee.com/czyczk/medivault-sdk/pkg/models/vault"
)

// Info 包含各 service 所需的全部依赖。所有依赖在启动时装配完成后注入，
// service 本身不做任何全局查找。
type Info struct {
	TrustRootRef string             // 策略链码（trust root）引用
	PublicParams *tibe.PublicParams // 加密方案公开参数
	Signer       wallet.Signer      // 当前主体的钱包签名器
	DataBCAO     bcao.DataBCAOInterface
	GrantBCAO    bcao.GrantBCAOInterface
	BlobStore    blobstore.Store
	ShareFetcher custodian.Fetcher
	Custodians   []vault.ServiceRef // 托管方集合，写入新信封
	Threshold    int                // 部署约定的解密门限，写入新信封
	DB           *gorm.DB           // 本地缓存数据库，可为 nil
}
