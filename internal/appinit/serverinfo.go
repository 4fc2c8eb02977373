package appinit

import (
	"io/ioutil"

	errors "github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// ServerInfo is the Go struct for contents in serve.yaml.
type ServerInfo struct {
	User           *OperatingIdentity `yaml:"user"`
	ChannelID      string             `yaml:"channelID"`
	ChaincodeID    string             `yaml:"chaincodeID"` // 策略链码 ID，同时作为会话凭证中的 trust root 引用
	Threshold      int                `yaml:"threshold"`
	Custodians     []*CustodianInfo   `yaml:"custodians"`
	BlobStore      *BlobStoreInfo     `yaml:"blobStore"`
	Port           int                `yaml:"port"`
	IsPinServer    bool               `yaml:"isPinServer"`
	Wallet         *KeyPairLocation   `yaml:"wallet"`
	ProtocolParams string             `yaml:"protocolParams"` // 门限加密公共参数（MPK）文件的路径
	LocalDBDSN     string             `yaml:"localDBDSN"`     // 可选的本地数据库 DSN，用于缓存已解密的记录
	ShowTimingLogs bool               `yaml:"showTimingLogs"`
}

// OperatingIdentity represents the client / user that performs the operation.
type OperatingIdentity struct {
	OrgName string `yaml:"orgName"` // The name of the organization to which the user that performs the operation belongs
	UserID  string `yaml:"userID"`  // The ID of the user
}

// CustodianInfo 描述一个托管方：其标识与份额释放端点。
type CustodianInfo struct {
	ID       string `yaml:"id"`
	Endpoint string `yaml:"endpoint"`
}

// BlobStoreInfo 描述块存储网络的接入参数。
type BlobStoreInfo struct {
	Aggregators []string `yaml:"aggregators"` // 读取用的聚合端点
	Publishers  []string `yaml:"publishers"`  // 写入用的发布端点
	TipBudget   int64    `yaml:"tipBudget"`   // 单次写入的小费预算上限
	TipPerPin   int64    `yaml:"tipPerPin"`   // 每多钉住一个节点花费的小费
}

// KeyPairLocation records the paths to a key pair.
type KeyPairLocation struct {
	PrivateKey string `yaml:"privateKey"` // The path to the private key
	PublicKey  string `yaml:"publicKey"`  // The path to the public key
}

// LoadServerInfo loads the server config file (in YAML) which contains info needed to start a server.
//
// Parameters:
//   the path to the config file
//
// Returns:
//   the `ServerInfo` struct containing the info needed to start a server
func LoadServerInfo(configFilePath string) (ret ServerInfo, err error) {
	yamlStr, err := ioutil.ReadFile(configFilePath)
	if err != nil {
		err = errors.Wrap(err, "读取服务器配置文件失败")
		return
	}

	err = yaml.Unmarshal(yamlStr, &ret)
	if err != nil {
		err = errors.Wrap(err, "解析 YAML 文件时出现错误")
		return
	}

	return
}
