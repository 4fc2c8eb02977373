package appinit

import (
	"sync"

	"github.com/hyperledger/fabric-sdk-go/pkg/client/channel"
	"github.com/hyperledger/fabric-sdk-go/pkg/client/ledger"
	"github.com/hyperledger/fabric-sdk-go/pkg/client/msp"
	"github.com/hyperledger/fabric-sdk-go/pkg/client/resmgmt"
	"github.com/hyperledger/fabric-sdk-go/pkg/fabsdk"
	errors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// A ClientRegistry lazily creates and caches SDK clients per org and user.
// 客户端由注册表持有并按需注入到使用方，不设包级单例。
type ClientRegistry struct {
	sdk *fabsdk.FabricSDK

	mu             sync.Mutex
	resMgmtClients map[string]*resmgmt.Client
	mspClients     map[string]*msp.Client
	channelClients map[string]*channel.Client
	ledgerClients  map[string]*ledger.Client
}

// NewClientRegistry creates a client registry upon the initialized SDK instance.
func NewClientRegistry(sdk *fabsdk.FabricSDK) *ClientRegistry {
	return &ClientRegistry{
		sdk:            sdk,
		resMgmtClients: make(map[string]*resmgmt.Client),
		mspClients:     make(map[string]*msp.Client),
		channelClients: make(map[string]*channel.Client),
		ledgerClients:  make(map[string]*ledger.Client),
	}
}

func userKey(orgName, userID string) string {
	return userID + "@" + orgName
}

func channelUserKey(channelID, orgName, userID string) string {
	return userID + "@" + orgName + "/" + channelID
}

// ResMgmtClient returns the resource management client for the user of the org as specified, creating it on first use.
//
// Parameters:
//   organization name
//   user ID
func (r *ClientRegistry) ResMgmtClient(orgName, userID string) (*resmgmt.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := userKey(orgName, userID)
	if client := r.resMgmtClients[key]; client != nil {
		return client, nil
	}

	clientCtx := r.sdk.Context(fabsdk.WithUser(userID), fabsdk.WithOrg(orgName))
	if clientCtx == nil {
		return nil, errors.Errorf("无法为 %v@%v 创建客户端环境", userID, orgName)
	}

	resMgmtClient, err := resmgmt.New(clientCtx)
	if err != nil {
		return nil, errors.Wrapf(err, "无法为 %v@%v 创建资源管理客户端", userID, orgName)
	}

	r.resMgmtClients[key] = resMgmtClient

	return resMgmtClient, nil
}

// MSPClient returns the MSP client for the user of the org as specified, creating it on first use.
//
// Parameters:
//   organization name
//   user ID
func (r *ClientRegistry) MSPClient(orgName, userID string) (*msp.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := userKey(orgName, userID)
	if client := r.mspClients[key]; client != nil {
		return client, nil
	}

	clientCtx := r.sdk.Context(fabsdk.WithUser(userID), fabsdk.WithOrg(orgName))
	if clientCtx == nil {
		return nil, errors.Errorf("无法为 %v@%v 创建客户端环境", userID, orgName)
	}

	mspClient, err := msp.New(clientCtx, msp.WithOrg(orgName))
	if err != nil {
		return nil, errors.Wrapf(err, "无法为 %v@%v 创建 MSP 客户端", userID, orgName)
	}

	r.mspClients[key] = mspClient

	return mspClient, nil
}

// ChannelClient returns the channel client on the specified channel for the specified user in the specified org, creating it on first use.
// Channel clients can query chaincode, execute chaincode and register chaincode events on specific channel.
//
// Parameters:
//   channel ID
//   organization name
//   user ID
func (r *ClientRegistry) ChannelClient(channelID, orgName, userID string) (*channel.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := channelUserKey(channelID, orgName, userID)
	if client := r.channelClients[key]; client != nil {
		return client, nil
	}

	clientCtx := r.sdk.ChannelContext(channelID, fabsdk.WithUser(userID), fabsdk.WithOrg(orgName))
	channelClient, err := channel.New(clientCtx)
	if err != nil {
		return nil, errors.Wrapf(err, "无法在通道 '%v' 上为 %v@%v 创建通道客户端", channelID, userID, orgName)
	}

	r.channelClients[key] = channelClient
	log.Printf("已在通道 '%v' 上为 %v@%v 创建通道客户端。", channelID, userID, orgName)

	return channelClient, nil
}

// LedgerClient returns the ledger client for the specified channel, org and user ID, creating it on first use.
// Ledger clients can query blocks and transactions on the channel.
//
// Parameters:
//   channel ID
//   organization name
//   user ID
func (r *ClientRegistry) LedgerClient(channelID, orgName, userID string) (*ledger.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := channelUserKey(channelID, orgName, userID)
	if client := r.ledgerClients[key]; client != nil {
		return client, nil
	}

	clientCtx := r.sdk.ChannelContext(channelID, fabsdk.WithUser(userID), fabsdk.WithOrg(orgName))
	ledgerClient, err := ledger.New(clientCtx)
	if err != nil {
		return nil, errors.Wrapf(err, "无法在通道 '%v' 上为 %v@%v 创建账本客户端", channelID, userID, orgName)
	}

	r.ledgerClients[key] = ledgerClient
	log.Printf("已在通道 '%v' 上为 %v@%v 创建账本客户端。", channelID, userID, orgName)

	return ledgerClient, nil
}
