package appinit

import (
	"encoding/base64"
	"io/ioutil"
	"strings"

	"gitee.com/czyczk/medivault-sdk/internal/tibe"
	errors "github.com/pkg/errors"
)

// LoadPublicParams loads the threshold encryption public params (MPK) from the specified file.
// 文件内容为主公钥的 Base64 编码，由 custodiankeygen 工具生成。
//
// Parameters:
//   the path to the public params file
//
// Returns:
//   the parsed public params
func LoadPublicParams(path string) (*tibe.PublicParams, error) {
	contents, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "无法读取门限加密公共参数文件")
	}

	mpkBytes, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(contents)))
	if err != nil {
		return nil, errors.Wrap(err, "门限加密公共参数文件应为 Base64 编码")
	}

	publicParams, err := tibe.ParsePublicParams(mpkBytes)
	if err != nil {
		return nil, errors.Wrap(err, "无法解析门限加密公共参数")
	}

	return publicParams, nil
}
