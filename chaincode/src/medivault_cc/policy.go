package main

import (
	"encoding/json"
	"fmt"

	"gitee.com/czyczk/medivault-sdk/pkg/errorcode"
	"gitee.com/czyczk/medivault-sdk/pkg/models/data"
	"gitee.com/czyczk/medivault-sdk/pkg/models/grant"
	"gitee.com/czyczk/medivault-sdk/pkg/models/policy"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-protos-go/peer"
)

// checkPolicy 判定一笔策略检查交易"若真实提交是否会成功"。托管方在释放
// 密钥份额前重放这一调用。它只读链上状态，不产生任何状态变更，因此同一
// 交易可被任意多个托管方独立重放而结果一致。
//
// 判定依据在交易提案时间下评估：请求主体是记录属主，或存在属主签发的、
// 未过期且未撤销的授权凭证覆盖该记录的读取权限。
func (mc *MediVaultCC) checkPolicy(stub shim.ChaincodeStubInterface, args []string) peer.Response {
	// 检查参数数量
	lenArgs := len(args)
	if lenArgs != 1 {
		return shim.Error("参数数量不正确。应为 1 个")
	}

	// 解析第 0 个参数为策略检查交易并校验协议标签
	checkTx, err := policy.ParseCheckTx([]byte(args[0]))
	if err != nil {
		return shim.Error(fmt.Sprintf("无法解析策略检查交易: %v", err))
	}

	// 经身份标识索引定位记录，若身份标识未登记则返回 codeNotFound
	dbIdentityKey := getKeyForIdentity(checkTx.Identity)
	recordIDBytes, err := stub.GetState(dbIdentityKey)
	if err != nil {
		return shim.Error(fmt.Sprintf("无法读取身份标识索引: %v", err))
	}

	if len(recordIDBytes) == 0 {
		return shim.Error(errorcode.CodeNotFound)
	}

	recordID := string(recordIDBytes)
	dbMetadataKey := getKeyForRecordMetadata(recordID)
	metadataBytes, err := stub.GetState(dbMetadataKey)
	if err != nil {
		return shim.Error(fmt.Sprintf("无法读取元数据: %v", err))
	}

	if len(metadataBytes) == 0 {
		return shim.Error(errorcode.CodeNotFound)
	}

	metadataStored := data.RecordMetadataStored{}
	if err = json.Unmarshal(metadataBytes, &metadataStored); err != nil {
		return shim.Error(fmt.Sprintf("无法解析元数据: %v", err))
	}

	// 属主恒有权访问自己的记录
	subject := checkTx.Subject
	if subject == metadataStored.Owner {
		return shim.Success([]byte("true"))
	}

	timestamp, err := getTimeFromStub(stub)
	if err != nil {
		return shim.Error(fmt.Sprintf("无法获得时间戳: %v", err))
	}

	// 遍历以请求主体为被授权方的授权凭证，寻找覆盖该记录读取权限的一张。
	// 已撤销的凭证在撤销时即从索引中摘除，不会出现在这里
	ckObjectType := "grantee~grantid"
	it, err := stub.GetStateByPartialCompositeKey(ckObjectType, []string{subject})
	if err != nil {
		return shim.Error(fmt.Sprintf("无法查询索引 '%v': %v", ckObjectType, err))
	}

	defer it.Close()

	for it.HasNext() {
		entry, err := it.Next()
		if err != nil {
			return shim.Error(fmt.Sprintf("无法查询索引 '%v': %v", ckObjectType, err))
		}

		_, ckParts, err := stub.SplitCompositeKey(entry.Key)
		if err != nil {
			return shim.Error(fmt.Sprintf("无法查询索引 '%v': %v", ckObjectType, err))
		}

		grantID := ckParts[1]
		grantBytes, err := stub.GetState(getKeyForGrant(grantID))
		if err != nil {
			return shim.Error(fmt.Sprintf("无法读取授权凭证: %v", err))
		}
		if len(grantBytes) == 0 {
			continue
		}

		g := grant.Grant{}
		if err = json.Unmarshal(grantBytes, &g); err != nil {
			return shim.Error(fmt.Sprintf("无法解析授权凭证: %v", err))
		}

		// 凭证必须出自记录属主之手，他人签发的凭证不构成授权
		if g.Owner != metadataStored.Owner {
			continue
		}

		if g.Covers(subject, recordID, grant.Read, timestamp) {
			return shim.Success([]byte("true"))
		}
	}

	return shim.Error(errorcode.CodeForbidden)
}
