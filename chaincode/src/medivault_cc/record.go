package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"gitee.com/czyczk/medivault-sdk/pkg/errorcode"
	"gitee.com/czyczk/medivault-sdk/pkg/models/data"
	"gitee.com/czyczk/medivault-sdk/pkg/models/query"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-protos-go/peer"
)

func (mc *MediVaultCC) createRecordMetadata(stub shim.ChaincodeStubInterface, args []string) peer.Response {
	// 检查参数数量
	lenArgs := len(args)
	if lenArgs < 1 || lenArgs > 2 {
		return shim.Error("参数数量不正确。应为 1 或 2 个")
	}

	// 解析第 0 个参数为 data.RecordMetadata
	metadata := data.RecordMetadata{}
	if err := json.Unmarshal([]byte(args[0]), &metadata); err != nil {
		return shim.Error(fmt.Sprintf("无法解析参数中的 JSON 对象: %v", err))
	}

	// 若第 1 个参数有指定，则解析为 eventID
	var eventID string
	if lenArgs == 2 {
		eventID = args[1]
	}

	if metadata.RecordID == "" {
		return shim.Error("记录 ID 不能为空")
	}
	if metadata.Owner == "" {
		return shim.Error("属主地址不能为空")
	}
	if metadata.Identity == "" {
		return shim.Error("身份标识不能为空")
	}

	// 检查记录 ID 是否被占用
	dbMetadataKey := getKeyForRecordMetadata(metadata.RecordID)
	dbMetadataVal, err := stub.GetState(dbMetadataKey)
	if err != nil {
		return shim.Error(fmt.Sprintf("无法确定记录 ID 可用性: %v", err))
	}

	if len(dbMetadataVal) != 0 {
		return shim.Error(fmt.Sprintf("记录 ID '%v' 已被占用", metadata.RecordID))
	}

	// 检查身份标识是否被占用。同一身份标识只能绑定一条记录，
	// 否则策略检查的入口会产生歧义
	dbIdentityKey := getKeyForIdentity(metadata.Identity)
	dbIdentityVal, err := stub.GetState(dbIdentityKey)
	if err != nil {
		return shim.Error(fmt.Sprintf("无法确定身份标识可用性: %v", err))
	}

	if len(dbIdentityVal) != 0 {
		return shim.Error(fmt.Sprintf("身份标识 '%v' 已被占用", metadata.Identity))
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

	// 准备存储元数据
	metadataStored := data.RecordMetadataStored{
		RecordID:   metadata.RecordID,
		Owner:      metadata.Owner,
		Identity:   metadata.Identity,
		StorageRef: metadata.StorageRef,
		Hash:       metadata.Hash,
		Size:       metadata.Size,
		Extensions: metadata.Extensions,
		Creator:    creatorAsBase64,
		Timestamp:  timestamp,
	}

	// 写入数据库
	metadataStoredBytes, err := json.Marshal(metadataStored)
	if err != nil {
		return shim.Error(fmt.Sprintf("无法序列化元数据: %v", err))
	}
	if err = stub.PutState(dbMetadataKey, metadataStoredBytes); err != nil {
		return shim.Error(fmt.Sprintf("无法存储元数据: %v", err))
	}

	if err = stub.PutState(dbIdentityKey, []byte(metadata.RecordID)); err != nil {
		return shim.Error(fmt.Sprintf("无法存储身份标识索引: %v", err))
	}

	// 建立索引
	// owner~recordid 绑定属主与记录 ID
	ckObjectType := "owner~recordid"
	ckOwnerRecordID, err := stub.CreateCompositeKey(ckObjectType, []string{metadata.Owner, metadata.RecordID})
	if err != nil {
		return shim.Error(fmt.Sprintf("无法创建索引 '%v': %v", ckObjectType, err))
	}
	if err = stub.PutState(ckOwnerRecordID, []byte{0x00}); err != nil {
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

func (mc *MediVaultCC) getRecordMetadata(stub shim.ChaincodeStubInterface, args []string) peer.Response {
	// 检查参数数量
	lenArgs := len(args)
	if lenArgs != 1 {
		return shim.Error("参数数量不正确。应为 1 个")
	}

	// 解析第一个参数为 recordID
	recordID := args[0]

	// 读 metadata 并返回，若未找到则返回 codeNotFound
	dbKey := getKeyForRecordMetadata(recordID)
	metadataBytes, err := stub.GetState(dbKey)
	if err != nil {
		return shim.Error(fmt.Sprintf("无法读取元数据: %v", err))
	}

	if len(metadataBytes) == 0 {
		return shim.Error(errorcode.CodeNotFound)
	}

	return shim.Success(metadataBytes)
}

func (mc *MediVaultCC) getRecordMetadataByIdentity(stub shim.ChaincodeStubInterface, args []string) peer.Response {
	// 检查参数数量
	lenArgs := len(args)
	if lenArgs != 1 {
		return shim.Error("参数数量不正确。应为 1 个")
	}

	// 解析第一个参数为 Base64 编码的身份标识
	identityAsBase64 := args[0]

	// 先经身份标识索引解出记录 ID
	dbIdentityKey := getKeyForIdentity(identityAsBase64)
	recordIDBytes, err := stub.GetState(dbIdentityKey)
	if err != nil {
		return shim.Error(fmt.Sprintf("无法读取身份标识索引: %v", err))
	}

	if len(recordIDBytes) == 0 {
		return shim.Error(errorcode.CodeNotFound)
	}

	// 读 metadata 并返回，若未找到则返回 codeNotFound
	dbKey := getKeyForRecordMetadata(string(recordIDBytes))
	metadataBytes, err := stub.GetState(dbKey)
	if err != nil {
		return shim.Error(fmt.Sprintf("无法读取元数据: %v", err))
	}

	if len(metadataBytes) == 0 {
		return shim.Error(errorcode.CodeNotFound)
	}

	return shim.Success(metadataBytes)
}

func (mc *MediVaultCC) listRecordIDsByOwner(stub shim.ChaincodeStubInterface, args []string) peer.Response {
	// 检查参数数量
	lenArgs := len(args)
	if lenArgs != 3 {
		return shim.Error("参数数量不正确。应为 3 个")
	}

	// args = [owner string, pageSize int, bookmark string]
	owner := args[0]

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

	// 提供 owner 项以获取迭代器
	ckObjectType := "owner~recordid"
	it, respMetadata, err := stub.GetStateByPartialCompositeKeyWithPagination(ckObjectType, []string{owner}, int32(pageSize), bookmark)
	if err != nil {
		return shim.Error(fmt.Sprintf("无法查询索引 '%v': %v", ckObjectType, err))
	}

	defer it.Close()

	// 遍历迭代器，解出 recordid 项，组成列表
	recordIDs := []string{}
	for it.HasNext() {
		entry, err := it.Next()
		if err != nil {
			return shim.Error(fmt.Sprintf("无法查询索引 '%v': %v", ckObjectType, err))
		}

		_, ckParts, err := stub.SplitCompositeKey(entry.Key)
		if err != nil {
			return shim.Error(fmt.Sprintf("无法查询索引 '%v': %v", ckObjectType, err))
		}

		recordIDs = append(recordIDs, ckParts[1])
	}

	// 序列化结果列表并返回
	paginationResult := query.IDsWithPagination{
		IDs:      recordIDs,
		Bookmark: base64.StdEncoding.EncodeToString([]byte(respMetadata.Bookmark)),
	}
	paginationResultAsBytes, err := json.Marshal(paginationResult)
	if err != nil {
		return shim.Error(fmt.Sprintf("无法序列化结果列表: %v", err))
	}

	return shim.Success(paginationResultAsBytes)
}
