package main

import (
	"io/ioutil"

	log "github.com/sirupsen/logrus"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

func main() {
	dirKeys := "walletkeys"

	// Load the config, generate and save keys
	filePath := "cmd/walletkeygen/users.yaml"
	users, err := loadConfig(filePath)
	if err != nil {
		log.Fatalln(err)
	}

	if err := generateKeys(dirKeys, users); err != nil {
		log.Fatalln(err)
	}
}

func loadConfig(filePath string) ([]string, error) {
	fileBytes, err := ioutil.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read config file")
	}

	users := []string{}
	if err = yaml.Unmarshal(fileBytes, &users); err != nil {
		return nil, errors.Wrap(err, "cannot load config file")
	}

	return users, nil
}
