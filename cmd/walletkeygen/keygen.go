package main

import (
	"crypto/rand"
	"fmt"
	"io/ioutil"
	"os"
	"path"

	"gitee.com/czyczk/medivault-sdk/pkg/sm2keyutils"
	"github.com/pkg/errors"
	"github.com/tjfoc/gmsm/sm2"
)

func generateKeys(dirKeys string, users []string) error {
	// Exit if the dir exists
	if _, err := os.Stat(dirKeys); err == nil {
		return fmt.Errorf("the wallet keys are already generated. Delete the folder first before running again")
	}

	// Create the dir
	os.Mkdir(dirKeys, 0755)

	for _, user := range users {
		// Generate keys
		privKey, err := sm2.GenerateKey(rand.Reader)
		if err != nil {
			return errors.Wrapf(err, "cannot generate a private key for '%v'", user)
		}

		// Create a directory for the user
		if _, err = os.Stat(path.Join(dirKeys, user)); os.IsNotExist(err) {
			os.Mkdir(path.Join(dirKeys, user), 0755)
		}

		// Save the private key and the public key to files
		privKeyPem, err := sm2keyutils.ConvertPrivateKeyToPEM(privKey)
		if err != nil {
			return errors.Wrapf(err, "cannot save the private key for '%v'", user)
		}
		ioutil.WriteFile(path.Join(dirKeys, user, "sk"), privKeyPem, 0600)

		pubKeyPem, err := sm2keyutils.ConvertPublicKeyToPEM(&privKey.PublicKey)
		if err != nil {
			return errors.Wrapf(err, "cannot save the public key for '%v'", user)
		}
		ioutil.WriteFile(path.Join(dirKeys, user, user+".pem"), pubKeyPem, 0644)
	}

	return nil
}
