package fabricbcao

import (
	"encoding/json"
	"strconv"

	"github.com/hyperledger/fabric-sdk-go/pkg/client/channel"
	"github.com/pkg/errors"

	"gitee.com/czyczk/medivault-sdk/internal/blockchain/bcao"
	"gitee.com/czyczk/medivault-sdk/internal/blockchain/chaincodectx"
	"gitee.com/czyczk/medivault-sdk/pkg/models/data"
	"gitee.com/czyczk/medivault-sdk/pkg/models/query"
)

type DataBCAOFabricImpl struct {
	ctx *chaincodectx.FabricChaincodeCtx
}

func NewDataBCAOFabricImpl(ctx *chaincodectx.FabricChaincodeCtx) *DataBCAOFabricImpl {
	return &DataBCAOFabricImpl{
		ctx: ctx,
	}
}

func (o *DataBCAOFabricImpl) CreateRecordMetadata(metadata *data.RecordMetadata, eventID ...string) (string, error) {
	metadataBytes, err := json.Marshal(metadata)
	if err != nil {
		return "", errors.Wrap(err, "无法序列化链码参数")
	}

	chaincodeFcn := "createRecordMetadata"
	chaincodeArgs := [][]byte{metadataBytes}
	if len(eventID) != 0 {
		chaincodeArgs = append(chaincodeArgs, []byte(eventID[0]))
	}
	channelReq := channel.Request{
		ChaincodeID: o.ctx.ChaincodeID,
		Fcn:         chaincodeFcn,
		Args:        chaincodeArgs,
	}

	resp, err := executeChannelRequestWithTimer(o.ctx.ChannelClient, &channelReq, "链上登记记录元数据")
	if err != nil {
		return "", bcao.GetClassifiedError(chaincodeFcn, err)
	} else {
		return string(resp.TransactionID), nil
	}
}

func (o *DataBCAOFabricImpl) GetRecordMetadata(recordID string) (*data.RecordMetadataStored, error) {
	chaincodeFcn := "getRecordMetadata"
	channelReq := channel.Request{
		ChaincodeID: o.ctx.ChaincodeID,
		Fcn:         chaincodeFcn,
		Args:        [][]byte{[]byte(recordID)},
	}

	resp, err := o.ctx.ChannelClient.Query(channelReq)
	if err != nil {
		return nil, bcao.GetClassifiedError(chaincodeFcn, err)
	}

	var metadataStored data.RecordMetadataStored
	if err = json.Unmarshal(resp.Payload, &metadataStored); err != nil {
		return nil, errors.Wrap(err, "获取的元数据不合法")
	}

	return &metadataStored, nil
}

func (o *DataBCAOFabricImpl) GetRecordMetadataByIdentity(identity string) (*data.RecordMetadataStored, error) {
	chaincodeFcn := "getRecordMetadataByIdentity"
	channelReq := channel.Request{
		ChaincodeID: o.ctx.ChaincodeID,
		Fcn:         chaincodeFcn,
		Args:        [][]byte{[]byte(identity)},
	}

	resp, err := o.ctx.ChannelClient.Query(channelReq)
	if err != nil {
		return nil, bcao.GetClassifiedError(chaincodeFcn, err)
	}

	var metadataStored data.RecordMetadataStored
	if err = json.Unmarshal(resp.Payload, &metadataStored); err != nil {
		return nil, errors.Wrap(err, "获取的元数据不合法")
	}

	return &metadataStored, nil
}

func (o *DataBCAOFabricImpl) ListRecordIDsByOwner(owner string, pageSize int, bookmark string) (*query.IDsWithPagination, error) {
	chaincodeFcn := "listRecordIDsByOwner"
	channelReq := channel.Request{
		ChaincodeID: o.ctx.ChaincodeID,
		Fcn:         chaincodeFcn,
		Args:        [][]byte{[]byte(owner), []byte(strconv.Itoa(pageSize)), []byte(bookmark)},
	}

	resp, err := o.ctx.ChannelClient.Query(channelReq)
	err = bcao.GetClassifiedError(chaincodeFcn, err)
	if err != nil {
		return nil, err
	}

	var recordIDs query.IDsWithPagination
	err = json.Unmarshal(resp.Payload, &recordIDs)
	if err != nil {
		return nil, errors.Wrap(err, "无法解析结果列表")
	}

	return &recordIDs, nil
}
