package main

import (
	"io/ioutil"

	log "github.com/sirupsen/logrus"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// custodianConfig is the Go struct for contents in custodians.yaml.
type custodianConfig struct {
	Threshold  int      `yaml:"threshold"`  // 解密门限
	Custodians []string `yaml:"custodians"` // 托管方标识列表
}

func main() {
	dirKeys := "custodiankeys"

	// Load the config, run the trusted setup and save the outputs
	filePath := "cmd/custodiankeygen/custodians.yaml"
	config, err := loadConfig(filePath)
	if err != nil {
		log.Fatalln(err)
	}

	if err := generateKeys(dirKeys, config); err != nil {
		log.Fatalln(err)
	}
}

func loadConfig(filePath string) (*custodianConfig, error) {
	fileBytes, err := ioutil.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read config file")
	}

	config := &custodianConfig{}
	if err = yaml.Unmarshal(fileBytes, config); err != nil {
		return nil, errors.Wrap(err, "cannot load config file")
	}

	return config, nil
}
