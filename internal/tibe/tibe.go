// Package tibe 实现基于 BLS12-381 配对的门限身份基加密（Boneh–Franklin 风格）。
//
// 主私钥 s 在可信初始化（见 cmd/custodiankeygen）时以 Shamir 门限方式分散给
// 各密钥份额托管方，此后不在任何单点存在。加密只需要主公钥 mpk = s·g2；
// 解密需要任意门限数量的托管方针对同一身份标识释放份额 d_i = s_i·H1(identity)，
// 本地经指数上的 Lagrange 插值聚合出 d = s·H1(identity) 后完成解封。
//
// 对称层为 AES-256-GCM：明文以一次性的数据加密密钥（DEK）加密，DEK 由
// IBE KEM 派生的密钥流包裹。DEK 同时作为属主持有的备份密钥（灾难恢复的
// 带外逃生通道），完全绕过托管方；它只在加密时返回一次，绝不与密文同存。
package tibe

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"

	"gitee.com/czyczk/medivault-sdk/pkg/errorcode"
	"github.com/cloudflare/circl/ecc/bls12381"
	"github.com/pkg/errors"
)

// dst 为哈希到 G1 的 domain separation tag。一经发布不可变动，否则旧密文不可解。
const dst = "MEDIVAULT-V1-CS01-with-BLS12381G1_XMD:SHA-256_SSWU_RO_"

const (
	// DEKLength 为数据加密密钥（亦即备份密钥）的字节长度
	DEKLength = 32
	// GCMNonceLength 为 AES-GCM nonce 的字节长度
	GCMNonceLength = 12
	// C1Length 为 KEM 密文点（G2 压缩格式）的字节长度
	C1Length = 96
	// ShareLength 为单个解密份额（G1 压缩格式）的字节长度
	ShareLength = 48
)

// PublicParams 为方案的公开参数，由可信初始化产生，作为 trust root 材料分发。
type PublicParams struct {
	MPK *bls12381.G2 // 主公钥 mpk = s·g2
}

// SerializeMPK 将主公钥序列化为 G2 压缩格式字节切片。
func (pp *PublicParams) SerializeMPK() []byte {
	return pp.MPK.BytesCompressed()
}

// ParsePublicParams 从 G2 压缩格式字节切片中解析出公开参数。
func ParsePublicParams(mpkBytes []byte) (*PublicParams, error) {
	mpk := &bls12381.G2{}
	if err := mpk.SetBytes(mpkBytes); err != nil {
		return nil, errors.Wrap(err, "无法解析主公钥")
	}

	return &PublicParams{MPK: mpk}, nil
}

// MasterShare 为单个托管方持有的主私钥份额（Shamir 插值点）。
type MasterShare struct {
	Index int              // 插值点横坐标，从 1 开始
	Value *bls12381.Scalar // 插值点纵坐标 f(Index)
}

// SerializeMasterShare 将主密钥份额的纵坐标序列化为字节切片。份额属于敏感材料，
// 序列化结果只应交付给对应的托管方。
func (ms *MasterShare) SerializeMasterShare() ([]byte, error) {
	valueBytes, err := ms.Value.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "无法序列化主密钥份额")
	}

	return valueBytes, nil
}

// ParseMasterShare 从字节切片中解析出一个主密钥份额。
func ParseMasterShare(index int, valueBytes []byte) (*MasterShare, error) {
	value := &bls12381.Scalar{}
	if err := value.UnmarshalBinary(valueBytes); err != nil {
		return nil, errors.Wrap(err, "无法解析主密钥份额")
	}

	return &MasterShare{Index: index, Value: value}, nil
}

// KeyShare 为托管方针对某个身份标识释放的解密份额 d_i = s_i·H1(identity)。
// 它是单次解密尝试的临时产物，聚合完成或尝试失败后即应丢弃。
type KeyShare struct {
	Index int
	D     *bls12381.G1
}

// SerializeShare 将解密份额点序列化为 G1 压缩格式字节切片。
func (ks *KeyShare) SerializeShare() []byte {
	return ks.D.BytesCompressed()
}

// ParseKeyShare 从 G1 压缩格式字节切片中解析出一个解密份额。
func ParseKeyShare(index int, shareBytes []byte) (*KeyShare, error) {
	if len(shareBytes) != ShareLength {
		return nil, errors.Errorf("份额长度不正确，应为 %v 字节，得到 %v 字节", ShareLength, len(shareBytes))
	}

	d := &bls12381.G1{}
	if err := d.SetBytes(shareBytes); err != nil {
		return nil, errors.Wrap(err, "无法解析密钥份额")
	}

	return &KeyShare{Index: index, D: d}, nil
}

// Setup 执行可信初始化：抽样主私钥 s，按 threshold-of-n 的 Shamir 方案切分，
// 返回公开参数与各托管方的主密钥份额。主私钥本身不返回、不落盘。
func Setup(threshold int, numCustodians int) (*PublicParams, []*MasterShare, error) {
	if threshold < 1 || threshold > numCustodians {
		return nil, nil, errors.Errorf("门限参数不合法：threshold=%v, n=%v", threshold, numCustodians)
	}

	// f(x) = s + a_1·x + ... + a_{t-1}·x^{t-1}，s = f(0) 为主私钥
	coefficients := make([]*bls12381.Scalar, threshold)
	for i := range coefficients {
		coefficients[i] = &bls12381.Scalar{}
		if err := coefficients[i].Random(rand.Reader); err != nil {
			return nil, nil, errors.Wrap(err, "无法抽样多项式系数")
		}
	}

	mpk := &bls12381.G2{}
	mpk.ScalarMult(coefficients[0], bls12381.G2Generator())

	shares := make([]*MasterShare, numCustodians)
	for i := 1; i <= numCustodians; i++ {
		shares[i-1] = &MasterShare{
			Index: i,
			Value: evalPolynomial(coefficients, i),
		}
	}

	return &PublicParams{MPK: mpk}, shares, nil
}

// ExtractShare 用主密钥份额为给定身份标识计算解密份额 d_i = s_i·H1(identity)。
// 托管方只应在链上策略重放通过后调用此函数。
func (ms *MasterShare) ExtractShare(identity []byte) *KeyShare {
	qID := &bls12381.G1{}
	qID.Hash(identity, []byte(dst))

	d := &bls12381.G1{}
	d.ScalarMult(ms.Value, qID)

	return &KeyShare{Index: ms.Index, D: d}
}

// Ciphertext 为加密原语层的输出。信封层负责携带身份标识与门限等元数据。
type Ciphertext struct {
	C1         []byte // KEM 密文点 r·g2（G2 压缩格式）
	WrappedKey []byte // DEK ⊕ KDF(e(H1(identity), mpk)^r)
	Nonce      []byte // AES-GCM nonce
	Body       []byte // AES-GCM 密文本体
}

// Encrypt 对明文执行混合加密，返回密文与属主持有的备份密钥（即 DEK）。
// 备份密钥只在此处出现一次；调用方必须将其交付属主保管，绝不可与密文同存。
func Encrypt(pp *PublicParams, identity []byte, plaintext []byte) (*Ciphertext, []byte, error) {
	dek := make([]byte, DEKLength)
	if _, err := rand.Read(dek); err != nil {
		return nil, nil, errors.Wrap(err, "无法生成数据加密密钥")
	}

	// KEM：r 随机，C1 = r·g2，K = e(H1(identity), mpk)^r
	r := &bls12381.Scalar{}
	if err := r.Random(rand.Reader); err != nil {
		return nil, nil, errors.Wrap(err, "无法抽样 KEM 随机量")
	}

	c1 := &bls12381.G2{}
	c1.ScalarMult(r, bls12381.G2Generator())

	qID := &bls12381.G1{}
	qID.Hash(identity, []byte(dst))

	gID := bls12381.Pair(qID, pp.MPK)
	k := &bls12381.Gt{}
	k.Exp(gID, r)

	pad, err := deriveKeyPad(k, identity)
	if err != nil {
		return nil, nil, err
	}

	wrappedKey := make([]byte, DEKLength)
	subtle.XORBytes(wrappedKey, dek, pad)

	nonce := make([]byte, GCMNonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, errors.Wrap(err, "无法生成 GCM nonce")
	}

	body, err := sealWithDEK(dek, nonce, identity, plaintext)
	if err != nil {
		return nil, nil, err
	}

	ciphertext := &Ciphertext{
		C1:         c1.BytesCompressed(),
		WrappedKey: wrappedKey,
		Nonce:      nonce,
		Body:       body,
	}

	return ciphertext, dek, nil
}

// Decrypt 用聚合到的密钥份额执行本地门限解密。
//
// 参数：
//   密文
//   身份标识（须与加密时逐字节一致）
//   门限
//   密钥份额列表
//
// 返回：
//   明文
//
// 份额数量不足时确定性地返回 `errorcode.ErrorInsufficientShares`；份额充足
// 但解封失败（密文或身份标识不一致）时返回 `errorcode.ErrorDecryptFailed`，
// 绝不返回部分或全零明文。
func Decrypt(ciphertext *Ciphertext, identity []byte, threshold int, shares []*KeyShare) ([]byte, error) {
	if len(shares) < threshold {
		return nil, errorcode.ErrorInsufficientShares
	}

	d, err := recoverDecryptionKey(shares[:threshold])
	if err != nil {
		return nil, err
	}

	c1 := &bls12381.G2{}
	if err := c1.SetBytes(ciphertext.C1); err != nil {
		return nil, errorcode.ErrorEnvelopeCorrupt
	}

	// K = e(d, C1) = e(s·H1(identity), r·g2) = e(H1(identity), mpk)^r
	k := bls12381.Pair(d, c1)

	pad, err := deriveKeyPad(k, identity)
	if err != nil {
		return nil, err
	}

	if len(ciphertext.WrappedKey) != DEKLength {
		return nil, errorcode.ErrorEnvelopeCorrupt
	}

	dek := make([]byte, DEKLength)
	subtle.XORBytes(dek, ciphertext.WrappedKey, pad)

	plaintext, err := openWithDEK(dek, ciphertext.Nonce, identity, ciphertext.Body)
	if err != nil {
		return nil, errorcode.ErrorDecryptFailed
	}

	return plaintext, nil
}

// DecryptWithBackupKey 用属主持有的备份密钥直接解封密文，完全绕过托管方。
func DecryptWithBackupKey(ciphertext *Ciphertext, identity []byte, backupKey []byte) ([]byte, error) {
	if len(backupKey) != DEKLength {
		return nil, errorcode.ErrorDecryptFailed
	}

	plaintext, err := openWithDEK(backupKey, ciphertext.Nonce, identity, ciphertext.Body)
	if err != nil {
		return nil, errorcode.ErrorDecryptFailed
	}

	return plaintext, nil
}

// deriveKeyPad 由 KEM 共享元素与身份标识派生包裹 DEK 的密钥流。
func deriveKeyPad(k *bls12381.Gt, identity []byte) ([]byte, error) {
	kBytes, err := k.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "无法序列化 KEM 共享元素")
	}

	h := sha256.New()
	h.Write([]byte(dst))
	h.Write(kBytes)
	h.Write(identity)
	return h.Sum(nil), nil
}

func sealWithDEK(dek []byte, nonce []byte, identity []byte, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(dek)
	if err != nil {
		return nil, errors.Wrap(err, "无法创建 AES block")
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "无法创建 GCM 实例")
	}

	// 身份标识作为附加认证数据，将密文与身份绑定
	return aead.Seal(nil, nonce, plaintext, identity), nil
}

func openWithDEK(dek []byte, nonce []byte, identity []byte, body []byte) ([]byte, error) {
	block, err := aes.NewCipher(dek)
	if err != nil {
		return nil, errors.Wrap(err, "无法创建 AES block")
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "无法创建 GCM 实例")
	}

	if len(nonce) != aead.NonceSize() {
		return nil, errors.Errorf("GCM nonce 长度不正确")
	}

	return aead.Open(nil, nonce, body, identity)
}
