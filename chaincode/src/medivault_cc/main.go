package main

import (
	"fmt"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-protos-go/peer"
)

// MediVaultCC 实现 Chaincode 接口。它负责记录元数据登记、授权凭证生命周期
// 与托管方重放的策略检查在区块链上的存取与判定。
type MediVaultCC struct{}

// Init 用于初始化链码。
func (mc *MediVaultCC) Init(stub shim.ChaincodeStubInterface) peer.Response {
	args := stub.GetArgs()
	if len(args) != 0 {
		return shim.Error("初始化不接收参数")
	}

	return shim.Success(nil)
}

// Invoke 用于分流链码调用。
func (mc *MediVaultCC) Invoke(stub shim.ChaincodeStubInterface) peer.Response {
	// 解出具体函数名与参数
	funcName, args := stub.GetFunctionAndParameters()

	switch funcName {
	// record.go
	case "createRecordMetadata":
		return mc.createRecordMetadata(stub, args)
	case "getRecordMetadata":
		return mc.getRecordMetadata(stub, args)
	case "getRecordMetadataByIdentity":
		return mc.getRecordMetadataByIdentity(stub, args)
	case "listRecordIDsByOwner":
		return mc.listRecordIDsByOwner(stub, args)
	// grant.go
	case "createGrant":
		return mc.createGrant(stub, args)
	case "revokeGrant":
		return mc.revokeGrant(stub, args)
	case "getGrant":
		return mc.getGrant(stub, args)
	case "listGrantIDsByGrantee":
		return mc.listGrantIDsByGrantee(stub, args)
	case "listGrantIDsByOwner":
		return mc.listGrantIDsByOwner(stub, args)
	// policy.go
	case "checkPolicy":
		return mc.checkPolicy(stub, args)
	}

	return shim.Error("未知的链码函数调用")
}

func main() {
	err := shim.Start(new(MediVaultCC))
	if err != nil {
		fmt.Printf("无法启动 MediVaultCC: %s", err)
	}
}
