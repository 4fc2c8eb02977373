package tibe

import (
	"crypto/rand"
	"testing"

	"gitee.com/czyczk/medivault-sdk/pkg/errorcode"
	"github.com/stretchr/testify/assert"
)

func makeIdentity(t *testing.T) []byte {
	identity := make([]byte, 48)
	_, err := rand.Read(identity)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	return identity
}

func TestThresholdRoundTrip(t *testing.T) {
	// 2-of-3 初始化
	pp, masterShares, err := Setup(2, 3)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	if isEqual := assert.Equal(t, 3, len(masterShares)); !isEqual {
		t.FailNow()
	}

	identity := makeIdentity(t)
	plaintext := []byte(`{"name":"Alice"}`)

	ciphertext, backupKey, err := Encrypt(pp, identity, plaintext)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	if isEqual := assert.Equal(t, DEKLength, len(backupKey)); !isEqual {
		t.FailNow()
	}

	// 任意 2 个托管方释放份额即可恢复明文
	shares := []*KeyShare{
		masterShares[0].ExtractShare(identity),
		masterShares[2].ExtractShare(identity),
	}

	decrypted, err := Decrypt(ciphertext, identity, 2, shares)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	if isEqual := assert.Equal(t, plaintext, decrypted); !isEqual {
		t.FailNow()
	}

	// 换一组托管方同样可以恢复
	shares = []*KeyShare{
		masterShares[1].ExtractShare(identity),
		masterShares[0].ExtractShare(identity),
	}

	decrypted, err = Decrypt(ciphertext, identity, 2, shares)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	if isEqual := assert.Equal(t, plaintext, decrypted); !isEqual {
		t.FailNow()
	}
}

func TestInsufficientShares(t *testing.T) {
	pp, masterShares, err := Setup(2, 3)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	identity := makeIdentity(t)

	ciphertext, _, err := Encrypt(pp, identity, []byte("secret"))
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	// 只有 1 个份额，未达到门限
	shares := []*KeyShare{masterShares[0].ExtractShare(identity)}

	_, err = Decrypt(ciphertext, identity, 2, shares)
	if isEqual := assert.Equal(t, errorcode.ErrorInsufficientShares, err); !isEqual {
		t.FailNow()
	}
}

func TestIdentityBinding(t *testing.T) {
	pp, masterShares, err := Setup(2, 3)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	identity := makeIdentity(t)
	otherIdentity := makeIdentity(t)

	ciphertext, _, err := Encrypt(pp, identity, []byte("secret"))
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	// 份额针对另一个身份标识释放，解密必须失败而非返回篡改后的明文
	shares := []*KeyShare{
		masterShares[0].ExtractShare(otherIdentity),
		masterShares[1].ExtractShare(otherIdentity),
	}

	_, err = Decrypt(ciphertext, otherIdentity, 2, shares)
	if isEqual := assert.Equal(t, errorcode.ErrorDecryptFailed, err); !isEqual {
		t.FailNow()
	}
}

func TestDuplicateShareIndexRejected(t *testing.T) {
	pp, masterShares, err := Setup(2, 3)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	identity := makeIdentity(t)

	ciphertext, _, err := Encrypt(pp, identity, []byte("secret"))
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	// 同一托管方的份额重复出现不能凑数
	share := masterShares[0].ExtractShare(identity)
	_, err = Decrypt(ciphertext, identity, 2, []*KeyShare{share, share})
	if isEqual := assert.Equal(t, errorcode.ErrorDecryptFailed, err); !isEqual {
		t.FailNow()
	}
}

func TestBackupKeyBypassesCustodians(t *testing.T) {
	pp, _, err := Setup(2, 3)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	identity := makeIdentity(t)
	plaintext := []byte(`{"name":"Alice"}`)

	ciphertext, backupKey, err := Encrypt(pp, identity, plaintext)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	decrypted, err := DecryptWithBackupKey(ciphertext, identity, backupKey)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	if isEqual := assert.Equal(t, plaintext, decrypted); !isEqual {
		t.FailNow()
	}
}

func TestShareSerialization(t *testing.T) {
	_, masterShares, err := Setup(2, 3)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	identity := makeIdentity(t)

	share := masterShares[1].ExtractShare(identity)
	shareBytes := share.SerializeShare()
	if isEqual := assert.Equal(t, ShareLength, len(shareBytes)); !isEqual {
		t.FailNow()
	}

	parsed, err := ParseKeyShare(share.Index, shareBytes)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	if isTrue := assert.True(t, share.D.IsEqual(parsed.D)); !isTrue {
		t.FailNow()
	}
}
