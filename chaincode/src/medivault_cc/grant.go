package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"gitee.com/czyczk/medivault-sdk/pkg/errorcode"
	"gitee.com/czyczk/medivault-sdk/pkg/models/grant"
	"gitee.com/czyczk/medivault-sdk/pkg/models/query"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-protos-go/peer"
)

func (mc *MediVaultCC) createGrant(stub shim.ChaincodeStubInterface, args []string) peer.Response {
	// 检查参数数量
	lenArgs := len(args)
	if lenArgs < 1 || lenArgs > 2 {
		return shim.Error("参数数量不正确。应为 1 或 2 个")
	}

	// 解析第 0 个参数为 grant.Grant
	g := grant.Grant{}
	if err := json.Unmarshal([]byte(args[0]), &g); err != nil {
		return shim.Error(fmt.Sprintf("无法解析参数中的 JSON 对象: %v", err))
	}

	// 若第 1 个参数有指定，则解析为 eventID
	var eventID string
	if lenArgs == 2 {
		eventID = args[1]
	}

	if g.ID == "" {
		return shim.Error("授权凭证 ID 不能为空")
	}
	if g.Owner == "" {
		return shim.Error("属主地址不能为空")
	}
	if g.Grantee == "" {
		return shim.Error("被授权方地址不能为空")
	}
	if g.Grantee == g.Owner {
		return shim.Error("不能为属主自己创建授权凭证")
	}
	if g.ScopeType == grant.RecordSet && len(g.RecordIDs) == 0 {
		return shim.Error("记录集合范围的授权必须列出至少一条记录 ID")
	}

	// 检查授权凭证 ID 是否被占用
	dbGrantKey := getKeyForGrant(g.ID)
	dbGrantVal, err := stub.GetState(dbGrantKey)
	if err != nil {
		return shim.Error(fmt.Sprintf("无法确定授权凭证 ID 可用性: %v", err))
	}

	if len(dbGrantVal) != 0 {
		return shim.Error(fmt.Sprintf("授权凭证 ID '%v' 已被占用", g.ID))
	}

	// 获取创建者与时间戳
	creator, err := getPKDERFromStub(stub)
	if err != nil {
		return shim.Error(fmt.Sprintf("无法获取创建者: %v", err))
	}
	creatorAsBase64 := base64.StdEncoding.EncodeToString(creator)

	timestamp, err := getTimeFromStub(stub)
	if err != nil {
		return shim.Error(fmt.Sprintf("无法获得时间戳: %v", err))
	}

	// 创建时间以交易提案时间为准
	g.CreatedAt = timestamp

	if !g.ExpiresAt.After(g.CreatedAt) {
		return shim.Error("过期时间必须在创建时间之后")
	}

	// 写入数据库
	grantBytes, err := json.Marshal(&g)
	if err != nil {
		return shim.Error(fmt.Sprintf("无法序列化授权凭证: %v", err))
	}
	if err = stub.PutState(dbGrantKey, grantBytes); err != nil {
		return shim.Error(fmt.Sprintf("无法存储授权凭证: %v", err))
	}

	dbCreatorKey := getKeyForGrantCreator(g.ID)
	if err = stub.PutState(dbCreatorKey, []byte(creatorAsBase64)); err != nil {
		return shim.Error(fmt.Sprintf("无法存储创建者信息: %v", err))
	}

	// 建立索引
	// grantee~grantid 绑定被授权方与授权凭证 ID
	ckObjectType := "grantee~grantid"
	ckGranteeGrantID, err := stub.CreateCompositeKey(ckObjectType, []string{g.Grantee, g.ID})
	if err != nil {
		return shim.Error(fmt.Sprintf("无法创建索引 '%v': %v", ckObjectType, err))
	}
	if err = stub.PutState(ckGranteeGrantID, []byte{0x00}); err != nil {
		return shim.Error(fmt.Sprintf("无法创建索引 '%v': %v", ckObjectType, err))
	}

	// owner~grantid 绑定属主与授权凭证 ID
	ckObjectType = "owner~grantid"
	ckOwnerGrantID, err := stub.CreateCompositeKey(ckObjectType, []string{g.Owner, g.ID})
	if err != nil {
		return shim.Error(fmt.Sprintf("无法创建索引 '%v': %v", ckObjectType, err))
	}
	if err = stub.PutState(ckOwnerGrantID, []byte{0x00}); err != nil {
		return shim.Error(fmt.Sprintf("无法创建索引 '%v': %v", ckObjectType, err))
	}

	txID := stub.GetTxID()

	// 发事件
	if eventID != "" {
		if err = stub.SetEvent(eventID, []byte(txID)); err != nil {
			return shim.Error(fmt.Sprintf("无法生成事件 '%v': %v", eventID, err))
		}
	}

	return shim.Success([]byte(txID))
}

func (mc *MediVaultCC) revokeGrant(stub shim.ChaincodeStubInterface, args []string) peer.Response {
	// 检查参数数量
	lenArgs := len(args)
	if lenArgs < 1 || lenArgs > 2 {
		return shim.Error("参数数量不正确。应为 1 或 2 个")
	}

	// 解析第 0 个参数为 grantID
	grantID := args[0]

	// 若第 1 个参数有指定，则解析为 eventID
	var eventID string
	if lenArgs == 2 {
		eventID = args[1]
	}

	// 读授权凭证，若未找到则返回 codeNotFound
	dbGrantKey := getKeyForGrant(grantID)
	grantBytes, err := stub.GetState(dbGrantKey)
	if err != nil {
		return shim.Error(fmt.Sprintf("无法读取授权凭证: %v", err))
	}

	if len(grantBytes) == 0 {
		return shim.Error(errorcode.CodeNotFound)
	}

	g := grant.Grant{}
	if err = json.Unmarshal(grantBytes, &g); err != nil {
		return shim.Error(fmt.Sprintf("无法解析授权凭证: %v", err))
	}

	// 只有创建授权凭证的属主能撤销它
	dbCreatorKey := getKeyForGrantCreator(grantID)
	creatorStoredAsBase64, err := stub.GetState(dbCreatorKey)
	if err != nil {
		return shim.Error(fmt.Sprintf("无法读取创建者信息: %v", err))
	}

	caller, err := getPKDERFromStub(stub)
	if err != nil {
		return shim.Error(fmt.Sprintf("无法获取调用者信息: %v", err))
	}
	callerAsBase64 := base64.StdEncoding.EncodeToString(caller)

	if callerAsBase64 != string(creatorStoredAsBase64) {
		return shim.Error(errorcode.CodeForbidden)
	}

	// 撤销立即生效。删除凭证本体、创建者信息与两个索引项，
	// 此后 getGrant 返回 codeNotFound，列表函数不再给出该 ID
	if err = stub.DelState(dbGrantKey); err != nil {
		return shim.Error(fmt.Sprintf("无法删除授权凭证: %v", err))
	}
	if err = stub.DelState(dbCreatorKey); err != nil {
		return shim.Error(fmt.Sprintf("无法删除创建者信息: %v", err))
	}

	ckObjectType := "grantee~grantid"
	ckGranteeGrantID, err := stub.CreateCompositeKey(ckObjectType, []string{g.Grantee, g.ID})
	if err != nil {
		return shim.Error(fmt.Sprintf("无法删除索引 '%v': %v", ckObjectType, err))
	}
	if err = stub.DelState(ckGranteeGrantID); err != nil {
		return shim.Error(fmt.Sprintf("无法删除索引 '%v': %v", ckObjectType, err))
	}

	ckObjectType = "owner~grantid"
	ckOwnerGrantID, err := stub.CreateCompositeKey(ckObjectType, []string{g.Owner, g.ID})
	if err != nil {
		return shim.Error(fmt.Sprintf("无法删除索引 '%v': %v", ckObjectType, err))
	}
	if err = stub.DelState(ckOwnerGrantID); err != nil {
		return shim.Error(fmt.Sprintf("无法删除索引 '%v': %v", ckObjectType, err))
	}

	txID := stub.GetTxID()

	// 发事件
	if eventID != "" {
		if err = stub.SetEvent(eventID, []byte(txID)); err != nil {
			return shim.Error(fmt.Sprintf("无法生成事件 '%v': %v", eventID, err))
		}
	}

	return shim.Success([]byte(txID))
}

func (mc *MediVaultCC) getGrant(stub shim.ChaincodeStubInterface, args []string) peer.Response {
	// 检查参数数量
	lenArgs := len(args)
	if lenArgs != 1 {
		return shim.Error("参数数量不正确。应为 1 个")
	}

	// 解析第一个参数为 grantID
	grantID := args[0]

	// 读授权凭证并返回，若未找到则返回 codeNotFound
	dbKey := getKeyForGrant(grantID)
	grantBytes, err := stub.GetState(dbKey)
	if err != nil {
		return shim.Error(fmt.Sprintf("无法读取授权凭证: %v", err))
	}

	if len(grantBytes) == 0 {
		return shim.Error(errorcode.CodeNotFound)
	}

	return shim.Success(grantBytes)
}

func (mc *MediVaultCC) listGrantIDsByGrantee(stub shim.ChaincodeStubInterface, args []string) peer.Response {
	return mc.listGrantIDs(stub, "grantee~grantid", args)
}

func (mc *MediVaultCC) listGrantIDsByOwner(stub shim.ChaincodeStubInterface, args []string) peer.Response {
	return mc.listGrantIDs(stub, "owner~grantid", args)
}

func (mc *MediVaultCC) listGrantIDs(stub shim.ChaincodeStubInterface, ckObjectType string, args []string) peer.Response {
	// 检查参数数量
	lenArgs := len(args)
	if lenArgs != 3 {
		return shim.Error("参数数量不正确。应为 3 个")
	}

	// args = [address string, pageSize int, bookmark string]
	address := args[0]

	pageSizeStr := args[1]
	pageSize, err := strconv.Atoi(pageSizeStr)
	if err != nil {
		return shim.Error(fmt.Sprintf("无法解析参数 pageSize，值为 %v。应为正整数", pageSizeStr))
	}
	if pageSize <= 0 {
		return shim.Error(fmt.Sprintf("参数 pageSize 值为 %v。应为正整数", pageSizeStr))
	}

	bookmarkAsBase64 := args[2]
	bookmarkBytes, err := base64.StdEncoding.DecodeString(bookmarkAsBase64)
	if err != nil {
		return shim.Error(fmt.Sprintf("无法解析书签: %v", err))
	}
	bookmark := string(bookmarkBytes)

	// 提供 address 项以获取迭代器
	it, respMetadata, err := stub.GetStateByPartialCompositeKeyWithPagination(ckObjectType, []string{address}, int32(pageSize), bookmark)
	if err != nil {
		return shim.Error(fmt.Sprintf("无法查询索引 '%v': %v", ckObjectType, err))
	}

	defer it.Close()

	// 遍历迭代器，解出 grantid 项，组成列表
	grantIDs := []string{}
	for it.HasNext() {
		entry, err := it.Next()
		if err != nil {
			return shim.Error(fmt.Sprintf("无法查询索引 '%v': %v", ckObjectType, err))
		}

		_, ckParts, err := stub.SplitCompositeKey(entry.Key)
		if err != nil {
			return shim.Error(fmt.Sprintf("无法查询索引 '%v': %v", ckObjectType, err))
		}

		grantIDs = append(grantIDs, ckParts[1])
	}

	// 序列化结果列表并返回
	paginationResult := query.IDsWithPagination{
		IDs:      grantIDs,
		Bookmark: base64.StdEncoding.EncodeToString([]byte(respMetadata.Bookmark)),
	}
	paginationResultAsBytes, err := json.Marshal(paginationResult)
	if err != nil {
		return shim.Error(fmt.Sprintf("无法序列化结果列表: %v", err))
	}

	return shim.Success(paginationResultAsBytes)
}
