package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gitee.com/czyczk/medivault-sdk/pkg/errorcode"
	"gitee.com/czyczk/medivault-sdk/pkg/models/grant"
)

func TestCreateGrantValidations(t *testing.T) {
	env := newTestEnv(t, 2, 3)
	grantService := &GrantService{ServiceInfo: env.infoFor(env.ownerSigner)}
	expiresAt := time.Now().Add(1 * time.Hour)

	_, err := grantService.CreateGrant("", grant.AllRecords, nil, grant.Read, expiresAt, "")
	if isError := assert.Error(t, err); !isError {
		t.FailNow()
	}

	_, err = grantService.CreateGrant(env.ownerSigner.Address(), grant.AllRecords, nil, grant.Read, expiresAt, "")
	if isError := assert.Error(t, err); !isError {
		t.FailNow()
	}

	_, err = grantService.CreateGrant(env.otherSigner.Address(), grant.RecordSet, nil, grant.Read, expiresAt, "")
	if isError := assert.Error(t, err); !isError {
		t.FailNow()
	}

	_, err = grantService.CreateGrant(env.otherSigner.Address(), grant.AllRecords, []string{"r1"}, grant.Read, expiresAt, "")
	if isError := assert.Error(t, err); !isError {
		t.FailNow()
	}

	_, err = grantService.CreateGrant(env.otherSigner.Address(), grant.AllRecords, nil, grant.Read, time.Now().Add(-1*time.Minute), "")
	if isError := assert.Error(t, err); !isError {
		t.FailNow()
	}
}

func TestRevokeGrantOnlyByOwner(t *testing.T) {
	env := newTestEnv(t, 2, 3)
	ownerGrants := &GrantService{ServiceInfo: env.infoFor(env.ownerSigner)}
	otherGrants := &GrantService{ServiceInfo: env.infoFor(env.otherSigner)}

	grantID, err := ownerGrants.CreateGrant(
		env.otherSigner.Address(), grant.AllRecords, nil, grant.Read, time.Now().Add(1*time.Hour), "")
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	// 被授权方不能撤销属主的授权凭证
	_, err = otherGrants.RevokeGrant(grantID)
	if isEqual := assert.Equal(t, errorcode.ErrorForbidden, err); !isEqual {
		t.FailNow()
	}

	_, err = ownerGrants.RevokeGrant(grantID)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	_, err = ownerGrants.GetGrant(grantID)
	if isEqual := assert.Equal(t, errorcode.ErrorNotFound, err); !isEqual {
		t.FailNow()
	}
}

func TestFindCoveringGrantPermissionSemantics(t *testing.T) {
	env := newTestEnv(t, 2, 3)
	ownerGrants := &GrantService{ServiceInfo: env.infoFor(env.ownerSigner)}
	grantee := env.otherSigner.Address()
	owner := env.ownerSigner.Address()

	_, err := ownerGrants.CreateGrant(grantee, grant.AllRecords, nil, grant.Read, time.Now().Add(1*time.Hour), "")
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	// 只读授权覆盖读请求，但不覆盖写请求
	covering, err := ownerGrants.FindCoveringGrant(grantee, owner, "any-record", grant.Read)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	if isNotNil := assert.NotNil(t, covering); !isNotNil {
		t.FailNow()
	}

	covering, err = ownerGrants.FindCoveringGrant(grantee, owner, "any-record", grant.Write)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	if isNil := assert.Nil(t, covering); !isNil {
		t.FailNow()
	}
}

func TestExpiredGrantDoesNotCover(t *testing.T) {
	env := newTestEnv(t, 2, 3)
	ownerGrants := &GrantService{ServiceInfo: env.infoFor(env.ownerSigner)}
	grantee := env.otherSigner.Address()
	owner := env.ownerSigner.Address()

	_, err := ownerGrants.CreateGrant(grantee, grant.AllRecords, nil, grant.Read, time.Now().Add(50*time.Millisecond), "")
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	time.Sleep(100 * time.Millisecond)

	// 过期的凭证视同不存在，无须显式撤销
	covering, err := ownerGrants.FindCoveringGrant(grantee, owner, "any-record", grant.Read)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	if isNil := assert.Nil(t, covering); !isNil {
		t.FailNow()
	}
}
