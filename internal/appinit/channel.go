package appinit

import (
	"github.com/hyperledger/fabric-sdk-go/pkg/client/resmgmt"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/errors/retry"
	providersmsp "github.com/hyperledger/fabric-sdk-go/pkg/common/providers/msp"
	errors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ApplyChannelConfigTx applies a channel config transaction file to create a channel or configure a channel.
//
// Parameters:
//   the client registry
//   channel ID
//   channel config info
func ApplyChannelConfigTx(registry *ClientRegistry, channelID string, info *ChannelConfigInfo) error {
	mspClient, err := registry.MSPClient(info.OrgName, info.UserID)
	if err != nil {
		return err
	}

	resMgmtClient, err := registry.ResMgmtClient(info.OrgName, info.UserID)
	if err != nil {
		return err
	}

	// Create signing identity from the MSP client
	signingIdentity, err := mspClient.GetSigningIdentity(info.UserID)
	if err != nil {
		return errors.Wrapf(err, "无法获取 %v@%v 的签名身份", info.UserID, info.OrgName)
	}

	// Create a "save channel" request
	channelReq := resmgmt.SaveChannelRequest{
		ChannelID:         channelID,
		ChannelConfigPath: info.Path,
		SigningIdentities: []providersmsp.SigningIdentity{signingIdentity},
	}

	// Get the channel creation response with a transaction ID
	_, err = resMgmtClient.SaveChannel(channelReq,
		resmgmt.WithRetry(retry.DefaultResMgmtOpts))
	if err != nil {
		return errors.Wrapf(err, "为通道 '%v' 应用通道配置交易文件 '%v' 失败", channelID, info.Path)
	}

	log.Printf("已为通道 '%v' 应用通道配置交易文件 '%v'。\n", channelID, info.Path)

	return nil
}

// JoinChannel joins the peers of the specified org to the specified channel with the specified operating identity.
//
// Parameters:
//   the client registry
//   channel ID
//   organization name
//   operating identity
func JoinChannel(registry *ClientRegistry, channelID, orgName string, operatingIdentity *OperatingIdentity) error {
	resMgmtClient, err := registry.ResMgmtClient(operatingIdentity.OrgName, operatingIdentity.UserID)
	if err != nil {
		return err
	}

	// Peers are not specified in options, so it will join all peers that belong to the client's MSP.
	err = resMgmtClient.JoinChannel(channelID, resmgmt.WithRetry(retry.DefaultResMgmtOpts))
	if err != nil {
		return errors.Wrapf(err, "无法将 '%v' 的节点加入通道 '%v'", orgName, channelID)
	}

	log.Printf("已将 '%v' 的节点加入通道 '%v'。\n", operatingIdentity.OrgName, channelID)

	return nil
}
