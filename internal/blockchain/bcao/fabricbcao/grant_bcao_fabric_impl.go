package fabricbcao

import (
	"encoding/json"
	"strconv"

	"github.com/hyperledger/fabric-sdk-go/pkg/client/channel"
	"github.com/pkg/errors"

	"gitee.com/czyczk/medivault-sdk/internal/blockchain/bcao"
	"gitee.com/czyczk/medivault-sdk/internal/blockchain/chaincodectx"
	"gitee.com/czyczk/medivault-sdk/pkg/models/grant"
	"gitee.com/czyczk/medivault-sdk/pkg/models/query"
)

type GrantBCAOFabricImpl struct {
	ctx *chaincodectx.FabricChaincodeCtx
}

func NewGrantBCAOFabricImpl(ctx *chaincodectx.FabricChaincodeCtx) *GrantBCAOFabricImpl {
	return &GrantBCAOFabricImpl{
		ctx: ctx,
	}
}

func (o *GrantBCAOFabricImpl) CreateGrant(g *grant.Grant, eventID ...string) (*bcao.TransactionCreationInfo, error) {
	grantBytes, err := json.Marshal(g)
	if err != nil {
		return nil, errors.Wrap(err, "无法序列化链码参数")
	}

	chaincodeFcn := "createGrant"
	chaincodeArgs := [][]byte{grantBytes}
	if len(eventID) != 0 {
		chaincodeArgs = append(chaincodeArgs, []byte(eventID[0]))
	}
	channelReq := channel.Request{
		ChaincodeID: o.ctx.ChaincodeID,
		Fcn:         chaincodeFcn,
		Args:        chaincodeArgs,
	}

	resp, err := executeChannelRequestWithTimer(o.ctx.ChannelClient, &channelReq, "链上创建授权凭证")
	if err != nil {
		return nil, bcao.GetClassifiedError(chaincodeFcn, err)
	}

	// 授权生效以链上为准，这里一并取回区块哈希供调用方留证
	txID := resp.TransactionID
	blockHashAsHex, err := getBlockHashFromTxID(o.ctx.LedgerClient, txID)
	if err != nil {
		return nil, bcao.GetClassifiedError(chaincodeFcn, err)
	}

	creationInfo := &bcao.TransactionCreationInfo{
		TransactionID: string(txID),
		BlockID:       blockHashAsHex,
	}

	return creationInfo, nil
}

func (o *GrantBCAOFabricImpl) RevokeGrant(grantID string, eventID ...string) (string, error) {
	chaincodeFcn := "revokeGrant"
	chaincodeArgs := [][]byte{[]byte(grantID)}
	if len(eventID) != 0 {
		chaincodeArgs = append(chaincodeArgs, []byte(eventID[0]))
	}
	channelReq := channel.Request{
		ChaincodeID: o.ctx.ChaincodeID,
		Fcn:         chaincodeFcn,
		Args:        chaincodeArgs,
	}

	resp, err := executeChannelRequestWithTimer(o.ctx.ChannelClient, &channelReq, "链上撤销授权凭证")
	if err != nil {
		return "", bcao.GetClassifiedError(chaincodeFcn, err)
	} else {
		return string(resp.TransactionID), nil
	}
}

func (o *GrantBCAOFabricImpl) GetGrant(grantID string) (*grant.Grant, error) {
	chaincodeFcn := "getGrant"
	channelReq := channel.Request{
		ChaincodeID: o.ctx.ChaincodeID,
		Fcn:         chaincodeFcn,
		Args:        [][]byte{[]byte(grantID)},
	}

	resp, err := o.ctx.ChannelClient.Query(channelReq)
	if err != nil {
		return nil, bcao.GetClassifiedError(chaincodeFcn, err)
	}

	var g grant.Grant
	if err = json.Unmarshal(resp.Payload, &g); err != nil {
		return nil, errors.Wrap(err, "获取的授权凭证不合法")
	}

	return &g, nil
}

func (o *GrantBCAOFabricImpl) ListGrantIDsByGrantee(grantee string, pageSize int, bookmark string) (*query.IDsWithPagination, error) {
	return o.listGrantIDs("listGrantIDsByGrantee", grantee, pageSize, bookmark)
}

func (o *GrantBCAOFabricImpl) ListGrantIDsByOwner(owner string, pageSize int, bookmark string) (*query.IDsWithPagination, error) {
	return o.listGrantIDs("listGrantIDsByOwner", owner, pageSize, bookmark)
}

func (o *GrantBCAOFabricImpl) listGrantIDs(chaincodeFcn string, address string, pageSize int, bookmark string) (*query.IDsWithPagination, error) {
	channelReq := channel.Request{
		ChaincodeID: o.ctx.ChaincodeID,
		Fcn:         chaincodeFcn,
		Args:        [][]byte{[]byte(address), []byte(strconv.Itoa(pageSize)), []byte(bookmark)},
	}

	resp, err := o.ctx.ChannelClient.Query(channelReq)
	err = bcao.GetClassifiedError(chaincodeFcn, err)
	if err != nil {
		return nil, err
	}

	var grantIDs query.IDsWithPagination
	err = json.Unmarshal(resp.Payload, &grantIDs)
	if err != nil {
		return nil, errors.Wrap(err, "无法解析结果列表")
	}

	return &grantIDs, nil
}
