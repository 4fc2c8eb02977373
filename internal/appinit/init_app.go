package appinit

import (
	"github.com/hyperledger/fabric-sdk-go/pkg/core/config"
	"github.com/hyperledger/fabric-sdk-go/pkg/fabsdk"
	errors "github.com/pkg/errors"
)

// SetupSDK creates a Fabric SDK instance from the specified config file.
//
// Parameters:
//   the path to the config file
//
// Returns:
//   the initialized SDK instance
func SetupSDK(configFilePath string) (*fabsdk.FabricSDK, error) {
	configProvider := config.FromFile(configFilePath)
	sdk, err := fabsdk.New(configProvider)
	if err != nil {
		return nil, errors.Wrap(err, "初始化 Fabric SDK 失败")
	}

	return sdk, nil
}

// InitApp configures channels and chaincodes according to the init info.
//
// Parameters:
//   a client registry upon the initialized SDK instance
//   the init info
func InitApp(registry *ClientRegistry, initInfo *InitInfo) error {
	// Configure channels if the channels section is specified
	if initInfo.Channels != nil {
		if err := configureChannels(registry, initInfo.Channels); err != nil {
			return err
		}
	}

	// Configure chaincodes if the chaincodes section is specified
	if initInfo.Chaincodes != nil {
		if err := configureChaincodes(registry, initInfo.Chaincodes); err != nil {
			return err
		}
	}

	return nil
}

// This function creates and configures channels according to the channel init info and joins the peers to the channels.
func configureChannels(registry *ClientRegistry, channels map[string]*ChannelInfo) error {
	// Apply the specifications for each of the channels
	for channelID, channelInfo := range channels {
		// Apply channel configs in order
		for _, channelConfigInfo := range channelInfo.Configs {
			if err := ApplyChannelConfigTx(registry, channelID, channelConfigInfo); err != nil {
				return err
			}
		}

		// Join peers to the channel
		for orgName, operatingIdentity := range channelInfo.Participants {
			if err := JoinChannel(registry, channelID, orgName, operatingIdentity); err != nil {
				return err
			}
		}
	}

	return nil
}

// This function installs and instantiates chaincodes according to the init info.
func configureChaincodes(registry *ClientRegistry, chaincodes map[string]*ChaincodeInfo) error {
	// Install and instantiate each chaincode in the list
	for ccID, chaincodeInfo := range chaincodes {
		// Perform installations for the chaincode
		for orgName, operatingIdentity := range chaincodeInfo.Installations {
			// For each organization ($orgName), install the chaincode using the operating identity ($operatingIdentity)
			if err := InstallCC(registry, ccID, chaincodeInfo.Version, chaincodeInfo.Path, chaincodeInfo.GoPath, orgName, operatingIdentity); err != nil {
				return err
			}
		}

		// Perform instantiations for the chaincode
		for channelID, instantiationInfo := range chaincodeInfo.Instantiations {
			if err := InstantiateCC(registry, ccID, chaincodeInfo.Path, chaincodeInfo.Version, channelID, instantiationInfo); err != nil {
				return err
			}
		}
	}

	return nil
}
