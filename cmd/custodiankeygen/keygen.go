package main

import (
	"encoding/base64"
	"fmt"
	"io/ioutil"
	"os"
	"path"

	"gitee.com/czyczk/medivault-sdk/internal/tibe"
	"github.com/pkg/errors"
)

// generateKeys runs the trusted setup and writes the outputs to `dirKeys`:
// the public params (MPK) in `mpk` and one master share file per custodian.
// 主私钥在初始化过程结束后即不可恢复，不写入任何文件。
func generateKeys(dirKeys string, config *custodianConfig) error {
	// Exit if the dir exists
	if _, err := os.Stat(dirKeys); err == nil {
		return fmt.Errorf("the custodian keys are already generated. Delete the folder first before running again")
	}

	publicParams, masterShares, err := tibe.Setup(config.Threshold, len(config.Custodians))
	if err != nil {
		return errors.Wrap(err, "cannot run the trusted setup")
	}

	// Create the dir
	os.Mkdir(dirKeys, 0755)

	// Save the public params
	mpkBase64 := base64.StdEncoding.EncodeToString(publicParams.SerializeMPK())
	if err := ioutil.WriteFile(path.Join(dirKeys, "mpk"), []byte(mpkBase64), 0644); err != nil {
		return errors.Wrap(err, "cannot save the public params")
	}

	// Save one master share file per custodian
	for i, custodianID := range config.Custodians {
		shareBytes, err := masterShares[i].SerializeMasterShare()
		if err != nil {
			return errors.Wrapf(err, "cannot serialize the master share for '%v'", custodianID)
		}

		shareBase64 := base64.StdEncoding.EncodeToString(shareBytes)
		// 文件名中的序号即插值点横坐标，托管方释放份额时需要一并返回
		fileName := fmt.Sprintf("%v-%v.share", masterShares[i].Index, custodianID)
		if err := ioutil.WriteFile(path.Join(dirKeys, fileName), []byte(shareBase64), 0600); err != nil {
			return errors.Wrapf(err, "cannot save the master share for '%v'", custodianID)
		}
	}

	fmt.Printf("已生成 %v 个托管方的主密钥份额，门限为 %v。\n", len(config.Custodians), config.Threshold)

	return nil
}
