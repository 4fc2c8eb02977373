package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/tjfoc/gmsm/sm2"

	"gitee.com/czyczk/medivault-sdk/internal/blockchain/bcao"
	"gitee.com/czyczk/medivault-sdk/internal/custodian"
	"gitee.com/czyczk/medivault-sdk/internal/tibe"
	"gitee.com/czyczk/medivault-sdk/internal/wallet"
	"gitee.com/czyczk/medivault-sdk/pkg/errorcode"
	"gitee.com/czyczk/medivault-sdk/pkg/models/data"
	"gitee.com/czyczk/medivault-sdk/pkg/models/grant"
	"gitee.com/czyczk/medivault-sdk/pkg/models/keyshare"
	"gitee.com/czyczk/medivault-sdk/pkg/models/policy"
	"gitee.com/czyczk/medivault-sdk/pkg/models/query"
	"gitee.com/czyczk/medivault-sdk/pkg/models/vault"
)

// fakeDataBCAO 为内存中的记录登记表
type fakeDataBCAO struct {
	mu       sync.RWMutex
	metadata map[string]*data.RecordMetadataStored
	numTxs   int
}

func newFakeDataBCAO() *fakeDataBCAO {
	return &fakeDataBCAO{metadata: make(map[string]*data.RecordMetadataStored)}
}

func (o *fakeDataBCAO) CreateRecordMetadata(metadata *data.RecordMetadata, eventID ...string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.numTxs++
	o.metadata[metadata.RecordID] = &data.RecordMetadataStored{
		RecordID:   metadata.RecordID,
		Owner:      metadata.Owner,
		Identity:   metadata.Identity,
		StorageRef: metadata.StorageRef,
		Hash:       metadata.Hash,
		Size:       metadata.Size,
		Extensions: metadata.Extensions,
		Creator:    metadata.Owner,
		Timestamp:  time.Now(),
	}
	return fmt.Sprintf("tx-%v", o.numTxs), nil
}

func (o *fakeDataBCAO) GetRecordMetadata(recordID string) (*data.RecordMetadataStored, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	stored, ok := o.metadata[recordID]
	if !ok {
		return nil, errorcode.ErrorNotFound
	}
	return stored, nil
}

func (o *fakeDataBCAO) GetRecordMetadataByIdentity(identity string) (*data.RecordMetadataStored, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	for _, stored := range o.metadata {
		if stored.Identity == identity {
			return stored, nil
		}
	}
	return nil, errorcode.ErrorNotFound
}

func (o *fakeDataBCAO) ListRecordIDsByOwner(owner string, pageSize int, bookmark string) (*query.IDsWithPagination, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	ids := []string{}
	for _, stored := range o.metadata {
		if stored.Owner == owner {
			ids = append(ids, stored.RecordID)
		}
	}
	return &query.IDsWithPagination{IDs: ids, Bookmark: ""}, nil
}

// fakeGrantBCAO 为内存中的授权凭证表
type fakeGrantBCAO struct {
	mu     sync.RWMutex
	grants map[string]*grant.Grant
	numTxs int
}

func newFakeGrantBCAO() *fakeGrantBCAO {
	return &fakeGrantBCAO{grants: make(map[string]*grant.Grant)}
}

func (o *fakeGrantBCAO) CreateGrant(g *grant.Grant, eventID ...string) (*bcao.TransactionCreationInfo, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.numTxs++
	o.grants[g.ID] = g
	return &bcao.TransactionCreationInfo{
		TransactionID: fmt.Sprintf("tx-grant-%v", o.numTxs),
		BlockID:       fmt.Sprintf("block-%v", o.numTxs),
	}, nil
}

func (o *fakeGrantBCAO) RevokeGrant(grantID string, eventID ...string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.grants[grantID]; !ok {
		return "", errorcode.ErrorNotFound
	}
	delete(o.grants, grantID)
	o.numTxs++
	return fmt.Sprintf("tx-grant-%v", o.numTxs), nil
}

func (o *fakeGrantBCAO) GetGrant(grantID string) (*grant.Grant, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	g, ok := o.grants[grantID]
	if !ok {
		return nil, errorcode.ErrorNotFound
	}
	return g, nil
}

func (o *fakeGrantBCAO) ListGrantIDsByGrantee(grantee string, pageSize int, bookmark string) (*query.IDsWithPagination, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	ids := []string{}
	for _, g := range o.grants {
		if g.Grantee == grantee {
			ids = append(ids, g.ID)
		}
	}
	return &query.IDsWithPagination{IDs: ids, Bookmark: ""}, nil
}

func (o *fakeGrantBCAO) ListGrantIDsByOwner(owner string, pageSize int, bookmark string) (*query.IDsWithPagination, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	ids := []string{}
	for _, g := range o.grants {
		if g.Owner == owner {
			ids = append(ids, g.ID)
		}
	}
	return &query.IDsWithPagination{IDs: ids, Bookmark: ""}, nil
}

// fakeBlobStore 为内存中的块存储
type fakeBlobStore struct {
	mu      sync.RWMutex
	blobs   map[string][]byte
	numPuts int
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (s *fakeBlobStore) Put(ctx context.Context, payload []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.numPuts++
	ref := fmt.Sprintf("Qm-test-%v", s.numPuts)
	s.blobs[ref] = append([]byte{}, payload...)
	return ref, nil
}

func (s *fakeBlobStore) Get(ctx context.Context, ref string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, ok := s.blobs[ref]
	if !ok {
		return nil, errors.Errorf("块存储中没有引用 '%v'", ref)
	}
	return append([]byte{}, payload...), nil
}

// newCustodianServer 启动一个测试用托管方服务。它持有一个主密钥份额，
// 收到份额请求后校验凭证并对登记表与授权表重放访问策略，通过后才释放
// 身份解密份额。`available` 置为 false 时服务以 500 应答。
func newCustodianServer(t *testing.T, masterShare *tibe.MasterShare, dataBCAO *fakeDataBCAO, grantBCAO *fakeGrantBCAO, available *atomic.Bool) string {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/api/v1/keyshare", func(c *gin.Context) {
		if !available.Load() {
			c.String(http.StatusInternalServerError, "托管方暂不可用")
			return
		}

		var request keyshare.ShareRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}

		// 凭证校验：过期或签名不合法都拒绝放行
		if err := request.Credential.Validate(time.Now()); err != nil {
			c.String(http.StatusUnauthorized, err.Error())
			return
		}
		signature, err := base64.StdEncoding.DecodeString(request.Credential.Signature)
		if err != nil {
			c.String(http.StatusUnauthorized, "凭证签名不是合法的 Base64")
			return
		}
		ok, err := wallet.VerifyPersonalMessage(request.Credential.SubjectAddress, request.Credential.CanonicalMessage(), signature)
		if err != nil || !ok {
			c.String(http.StatusUnauthorized, "凭证签名校验未通过")
			return
		}

		// 策略重放
		policyTxBytes, err := base64.StdEncoding.DecodeString(request.PolicyTx)
		if err != nil {
			c.String(http.StatusBadRequest, "策略检查交易不是合法的 Base64")
			return
		}
		checkTx, err := policy.ParseCheckTx(policyTxBytes)
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		if checkTx.Subject != request.Credential.SubjectAddress {
			c.String(http.StatusForbidden, "策略检查交易的主体与凭证不一致")
			return
		}

		metadata, err := dataBCAO.GetRecordMetadataByIdentity(checkTx.Identity)
		if err != nil {
			c.String(http.StatusForbidden, "身份标识未在链上登记")
			return
		}

		if metadata.Owner != checkTx.Subject {
			page, err := grantBCAO.ListGrantIDsByGrantee(checkTx.Subject, 100, "")
			if err != nil {
				c.String(http.StatusInternalServerError, err.Error())
				return
			}

			covered := false
			now := time.Now()
			for _, grantID := range page.IDs {
				g, err := grantBCAO.GetGrant(grantID)
				if err != nil {
					continue
				}
				if g.Owner == metadata.Owner && g.Covers(checkTx.Subject, metadata.RecordID, grant.Read, now) {
					covered = true
					break
				}
			}
			if !covered {
				c.String(http.StatusForbidden, "链上策略检查未通过")
				return
			}
		}

		identity, err := checkTx.IdentityBytes()
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}

		keyShare := masterShare.ExtractShare(identity)
		c.JSON(http.StatusOK, keyshare.ShareResponse{
			Index: keyShare.Index,
			Share: base64.StdEncoding.EncodeToString(keyShare.SerializeShare()),
		})
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server.URL
}

// testEnv 把一套完整的协议参与方装配起来：门限加密参数、内存账本、
// 内存块存储、若干测试托管方与两个主体的钱包。
type testEnv struct {
	pp           *tibe.PublicParams
	threshold    int
	dataBCAO     *fakeDataBCAO
	grantBCAO    *fakeGrantBCAO
	blobStore    *fakeBlobStore
	custodians   []vault.ServiceRef
	availability []*atomic.Bool
	ownerSigner  *wallet.SM2Signer
	otherSigner  *wallet.SM2Signer
}

func newTestEnv(t *testing.T, threshold int, numCustodians int) *testEnv {
	pp, masterShares, err := tibe.Setup(threshold, numCustodians)
	if err != nil {
		t.Fatal(err)
	}

	env := &testEnv{
		pp:        pp,
		threshold: threshold,
		dataBCAO:  newFakeDataBCAO(),
		grantBCAO: newFakeGrantBCAO(),
		blobStore: newFakeBlobStore(),
	}

	for i, masterShare := range masterShares {
		available := &atomic.Bool{}
		available.Store(true)
		endpoint := newCustodianServer(t, masterShare, env.dataBCAO, env.grantBCAO, available)
		env.availability = append(env.availability, available)
		env.custodians = append(env.custodians, vault.ServiceRef{
			ID:       fmt.Sprintf("custodian-%v", i+1),
			Endpoint: endpoint,
		})
	}

	ownerKey, err := sm2.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	otherKey, err := sm2.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	env.ownerSigner = wallet.NewSM2Signer(ownerKey)
	env.otherSigner = wallet.NewSM2Signer(otherKey)

	return env
}

// infoFor 为指定主体装配一份服务依赖。不同主体共享同一套账本、块存储与托管方。
func (env *testEnv) infoFor(signer wallet.Signer) *Info {
	return &Info{
		TrustRootRef: "medivault-policy-cc",
		PublicParams: env.pp,
		Signer:       signer,
		DataBCAO:     env.dataBCAO,
		GrantBCAO:    env.grantBCAO,
		BlobStore:    env.blobStore,
		ShareFetcher: custodian.NewClient(5 * time.Second),
		Custodians:   env.custodians,
		Threshold:    env.threshold,
	}
}
