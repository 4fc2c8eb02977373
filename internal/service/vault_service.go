package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"gitee.com/czyczk/medivault-sdk/internal/db"
	"gitee.com/czyczk/medivault-sdk/internal/tibe"
	"gitee.com/czyczk/medivault-sdk/internal/utils/idutils"
	"gitee.com/czyczk/medivault-sdk/internal/utils/timingutils"
	"gitee.com/czyczk/medivault-sdk/pkg/errorcode"
	"gitee.com/czyczk/medivault-sdk/pkg/models/data"
	"gitee.com/czyczk/medivault-sdk/pkg/models/grant"
	"gitee.com/czyczk/medivault-sdk/pkg/models/keyshare"
	"gitee.com/czyczk/medivault-sdk/pkg/models/policy"
	"gitee.com/czyczk/medivault-sdk/pkg/models/query"
	"gitee.com/czyczk/medivault-sdk/pkg/models/record"
	"gitee.com/czyczk/medivault-sdk/pkg/models/session"
	"gitee.com/czyczk/medivault-sdk/pkg/models/vault"
)

// VaultService 实现了 `VaultServiceInterface` 接口，提供加密记录的创建与取回服务
type VaultService struct {
	ServiceInfo *Info
}

// 加密并存储一条记录，在链上登记其元数据。
//
// 参数：
//   请求上下文
//   记录负载
//   扩展字段（包含可公开的属性）
//
// 返回：
//   创建结果（含属主备份密钥）
func (s *VaultService) CreateRecord(ctx context.Context, payload *record.Payload, extensions map[string]interface{}) (*CreationResult, error) {
	defer timingutils.GetDeferrableTimingLogger("加密并登记记录")()

	if payload == nil {
		return nil, fmt.Errorf("记录负载不能为空")
	}

	payloadBytes, err := payload.Serialize()
	if err != nil {
		return nil, err
	}

	recordID, err := idutils.GenerateSnowflakeId()
	if err != nil {
		return nil, err
	}

	// 身份标识 = 属主地址字节 ++ 随机 nonce。nonce 保证同一属主的每条记录
	// 各有独立的加密身份。
	nonce := make([]byte, vault.IdentityNonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return nil, errors.Wrap(err, "无法生成身份标识 nonce")
	}
	identity := append(s.ServiceInfo.Signer.AddressBytes(), nonce...)

	ciphertext, backupKey, err := tibe.Encrypt(s.ServiceInfo.PublicParams, identity, payloadBytes)
	if err != nil {
		return nil, err
	}

	envelope := &vault.Envelope{
		Version:      vault.EnvelopeVersion,
		Identity:     base64.StdEncoding.EncodeToString(identity),
		TrustRootRef: s.ServiceInfo.TrustRootRef,
		Threshold:    s.ServiceInfo.Threshold,
		Custodians:   s.ServiceInfo.Custodians,
		C1:           base64.StdEncoding.EncodeToString(ciphertext.C1),
		WrappedKey:   base64.StdEncoding.EncodeToString(ciphertext.WrappedKey),
		Nonce:        base64.StdEncoding.EncodeToString(ciphertext.Nonce),
		Ciphertext:   base64.StdEncoding.EncodeToString(ciphertext.Body),
	}

	envelopeBytes, err := envelope.Serialize()
	if err != nil {
		return nil, err
	}

	storageRef, err := s.ServiceInfo.BlobStore.Put(ctx, envelopeBytes)
	if err != nil {
		return nil, err
	}

	// 信封入库后在链上登记，身份标识自此与记录及属主绑定
	hash := sha256.Sum256(payloadBytes)
	metadata := &data.RecordMetadata{
		RecordID:   recordID,
		Owner:      s.ServiceInfo.Signer.Address(),
		Identity:   envelope.Identity,
		StorageRef: storageRef,
		Hash:       base64.StdEncoding.EncodeToString(hash[:]),
		Size:       uint64(len(payloadBytes)),
		Extensions: extensions,
	}

	txID, err := s.ServiceInfo.DataBCAO.CreateRecordMetadata(metadata)
	if err != nil {
		return nil, err
	}

	return &CreationResult{
		RecordID:      recordID,
		StorageRef:    storageRef,
		TransactionID: txID,
		BackupKey:     backupKey,
	}, nil
}

// 经由托管方授权协议取回并解密一条记录。
//
// 参数：
//   请求上下文
//   记录 ID
//   已签名的会话凭证
//   阶段通知通道（可为 nil）
//
// 返回：
//   解密后的记录负载
func (s *VaultService) GetRecord(ctx context.Context, recordID string, credential *session.Credential, progress chan<- Progress) (*record.Payload, error) {
	defer timingutils.GetDeferrableTimingLogger("取回并解密记录")()

	if strings.TrimSpace(recordID) == "" {
		return nil, fmt.Errorf("记录 ID 不能为空")
	}
	if credential == nil {
		return nil, errorcode.ErrorUnsignedCredential
	}

	metadata, err := s.ServiceInfo.DataBCAO.GetRecordMetadata(recordID)
	if err != nil {
		return nil, err
	}

	envelopeBytes, err := s.ServiceInfo.BlobStore.Get(ctx, metadata.StorageRef)
	if err != nil {
		return nil, err
	}

	envelope, err := vault.ParseEnvelope(envelopeBytes)
	if err != nil {
		return nil, err
	}

	// 信封中的门限必须与部署约定一致，不一致视为信封被篡改或装配有误
	if envelope.Threshold != s.ServiceInfo.Threshold {
		return nil, errorcode.ErrorThresholdMismatch
	}

	identity, err := envelope.IdentityBytes()
	if err != nil {
		return nil, err
	}

	if err := credential.Validate(time.Now()); err != nil {
		return nil, err
	}

	// 本地预检：非属主时先查授权凭证，明显无权的请求不再打扰托管方。
	// 权威判定仍在托管方的策略重放，预检失败不影响其结论。
	subject := s.ServiceInfo.Signer.Address()
	if metadata.Owner != subject {
		grantService := &GrantService{ServiceInfo: s.ServiceInfo}
		covering, err := grantService.FindCoveringGrant(subject, metadata.Owner, recordID, grant.Read)
		if err != nil {
			log.Debugf("授权凭证预检失败，交由托管方判定: %v", err)
		} else if covering == nil {
			return nil, errorcode.ErrorNotAuthorized
		}
	}

	checkTx := policy.NewCheckTx(envelope.TrustRootRef, identity, subject)
	checkTxBytes, err := checkTx.Serialize()
	if err != nil {
		return nil, err
	}

	notifyProgress(progress, ProgressPolicyTxBuilt)

	endpoints := make([]string, 0, len(envelope.Custodians))
	for _, custodianRef := range envelope.Custodians {
		endpoints = append(endpoints, custodianRef.Endpoint)
	}

	shareRequest := &keyshare.ShareRequest{
		Identity:   envelope.Identity,
		PolicyTx:   base64.StdEncoding.EncodeToString(checkTxBytes),
		Credential: *credential,
		Threshold:  envelope.Threshold,
	}

	responses, err := s.ServiceInfo.ShareFetcher.FetchShares(ctx, shareRequest, endpoints)
	if err != nil {
		return nil, err
	}

	notifyProgress(progress, ProgressSharesAggregated)

	shares := make([]*tibe.KeyShare, 0, len(responses))
	for _, response := range responses {
		shareBytes, err := base64.StdEncoding.DecodeString(response.Share)
		if err != nil {
			return nil, errors.Wrapf(err, "托管方份额 '%v' 不是合法的 Base64", response.Index)
		}

		share, err := tibe.ParseKeyShare(response.Index, shareBytes)
		if err != nil {
			return nil, err
		}
		shares = append(shares, share)
	}

	ciphertext, err := ciphertextFromEnvelope(envelope)
	if err != nil {
		return nil, err
	}

	payloadBytes, err := tibe.Decrypt(ciphertext, identity, envelope.Threshold, shares)
	if err != nil {
		return nil, err
	}

	payload, err := record.ParsePayload(payloadBytes)
	if err != nil {
		return nil, err
	}

	// 解密结果存入本地缓存数据库，失败只记录日志，不影响返回
	if s.ServiceInfo.DB != nil {
		if err := db.SaveDecryptedRecordToLocalDB(payload, recordID, time.Now(), s.ServiceInfo.DB); err != nil {
			log.Warnf("无法缓存解密后的记录 '%v': %v", recordID, err)
		}
	}

	return payload, nil
}

// 用属主备份密钥解密一条记录，不经过托管方。
//
// 参数：
//   请求上下文
//   记录 ID
//   属主备份密钥
//
// 返回：
//   解密后的记录负载
func (s *VaultService) RecoverRecordWithBackupKey(ctx context.Context, recordID string, backupKey []byte) (*record.Payload, error) {
	defer timingutils.GetDeferrableTimingLogger("用备份密钥恢复记录")()

	if strings.TrimSpace(recordID) == "" {
		return nil, fmt.Errorf("记录 ID 不能为空")
	}

	metadata, err := s.ServiceInfo.DataBCAO.GetRecordMetadata(recordID)
	if err != nil {
		return nil, err
	}

	envelopeBytes, err := s.ServiceInfo.BlobStore.Get(ctx, metadata.StorageRef)
	if err != nil {
		return nil, err
	}

	envelope, err := vault.ParseEnvelope(envelopeBytes)
	if err != nil {
		return nil, err
	}

	identity, err := envelope.IdentityBytes()
	if err != nil {
		return nil, err
	}

	ciphertext, err := ciphertextFromEnvelope(envelope)
	if err != nil {
		return nil, err
	}

	payloadBytes, err := tibe.DecryptWithBackupKey(ciphertext, identity, backupKey)
	if err != nil {
		return nil, err
	}

	return record.ParsePayload(payloadBytes)
}

// 获取链上登记的记录元数据。
//
// 参数：
//   记录 ID
//
// 返回：
//   元数据
func (s *VaultService) GetRecordMetadata(recordID string) (*data.RecordMetadataStored, error) {
	return s.ServiceInfo.DataBCAO.GetRecordMetadata(recordID)
}

// 分页列出当前主体名下的记录 ID。
//
// 参数：
//   分页大小
//   分页书签
//
// 返回：
//   带书签的 ID 列表
func (s *VaultService) ListRecordIDs(pageSize int, bookmark string) (*query.IDsWithPagination, error) {
	return s.ServiceInfo.DataBCAO.ListRecordIDsByOwner(s.ServiceInfo.Signer.Address(), pageSize, bookmark)
}

// notifyProgress 向阶段通知通道发送一个阶段标识。通道为 nil 或无人接收时直接略过，
// 解密流程不因通知而阻塞。
func notifyProgress(progress chan<- Progress, stage Progress) {
	if progress == nil {
		return
	}

	select {
	case progress <- stage:
	default:
	}
}

// ciphertextFromEnvelope 把信封中的 Base64 字段还原成加密原语层的密文对象
func ciphertextFromEnvelope(envelope *vault.Envelope) (*tibe.Ciphertext, error) {
	c1, err := base64.StdEncoding.DecodeString(envelope.C1)
	if err != nil {
		return nil, errorcode.ErrorEnvelopeCorrupt
	}

	wrappedKey, err := base64.StdEncoding.DecodeString(envelope.WrappedKey)
	if err != nil {
		return nil, errorcode.ErrorEnvelopeCorrupt
	}

	nonce, err := base64.StdEncoding.DecodeString(envelope.Nonce)
	if err != nil {
		return nil, errorcode.ErrorEnvelopeCorrupt
	}

	body, err := base64.StdEncoding.DecodeString(envelope.Ciphertext)
	if err != nil {
		return nil, errorcode.ErrorEnvelopeCorrupt
	}

	return &tibe.Ciphertext{
		C1:         c1,
		WrappedKey: wrappedKey,
		Nonce:      nonce,
		Body:       body,
	}, nil
}
