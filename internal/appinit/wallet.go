package appinit

import (
	"io/ioutil"

	"gitee.com/czyczk/medivault-sdk/internal/wallet"
	"gitee.com/czyczk/medivault-sdk/pkg/sm2keyutils"
	errors "github.com/pkg/errors"
)

// LoadWallet loads an SM2 key pair from the paths specified in `location` and wraps it as a wallet signer.
//
// Parameters:
//   a key pair location object
//
// Returns:
//   the wallet signer for the key pair
func LoadWallet(location *KeyPairLocation) (*wallet.SM2Signer, error) {
	privKeyPem, err := ioutil.ReadFile(location.PrivateKey)
	if err != nil {
		return nil, errors.Wrap(err, "无法读取钱包私钥")
	}

	privKey, err := sm2keyutils.ConvertPEMToPrivateKey(privKeyPem)
	if err != nil {
		return nil, errors.Wrap(err, "无法解析钱包私钥，可能不是合法的 SM2 私钥")
	}

	return wallet.NewSM2Signer(privKey), nil
}
