package chaincodectx

import (
	"github.com/hyperledger/fabric-sdk-go/pkg/client/channel"
	"github.com/hyperledger/fabric-sdk-go/pkg/client/ledger"
)

// FabricChaincodeCtx 包含访问单个链码所需的客户端与定位信息
type FabricChaincodeCtx struct {
	ChannelID     string
	OrgName       string
	Username      string
	ChaincodeID   string
	ChannelClient *channel.Client
	LedgerClient  *ledger.Client
}
