package main

import (
	"crypto/x509"
	"fmt"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/hyperledger/fabric-chaincode-go/shim"
)

func getKeyForRecordMetadata(recordID string) string {
	return fmt.Sprintf("record_%s_metadata", recordID)
}

// 身份标识到记录 ID 的正排索引。身份标识是全局唯一的（属主地址 + 随机数），
// 托管方重放策略检查时以它为入口。
func getKeyForIdentity(identityAsBase64 string) string {
	return fmt.Sprintf("identity_%s", identityAsBase64)
}

func getKeyForGrant(grantID string) string {
	return fmt.Sprintf("grant_%s", grantID)
}

// 记录创建授权凭证的交易创建者，撤销时据此检查属主身份
func getKeyForGrantCreator(grantID string) string {
	return fmt.Sprintf("grant_%s_creator", grantID)
}

func getTimeFromStub(stub shim.ChaincodeStubInterface) (ret time.Time, err error) {
	// 从 stub 中得到交易提案创建时间
	timestamp, err := stub.GetTxTimestamp()
	if err != nil {
		return
	}

	// 转为 Go 中的 time.Time
	ret = time.Unix(timestamp.GetSeconds(), int64(timestamp.GetNanos()))
	return
}

func getPKDERFromStub(stub shim.ChaincodeStubInterface) ([]byte, error) {
	// 从 stub 中抽取 X509 证书
	cert, err := cid.GetX509Certificate(stub)
	if err != nil {
		return nil, err
	}

	// 返回公钥的 DER 表示
	ret, err := x509.MarshalPKIXPublicKey(cert.PublicKey)
	if err != nil {
		return nil, err
	}

	return ret, nil
}
