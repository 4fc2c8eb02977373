// Package networkinfo extracts the parts of the SDK network config that are useful to clients.
package networkinfo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/core"
	"github.com/hyperledger/fabric-sdk-go/pkg/fab"
	"github.com/mitchellh/mapstructure"
)

// Config contains config info about the network which is needed by a client.
type Config struct {
	Orderers      map[string]Orderer
	Organizations map[string]Organization
	Peers         map[string]Peer
}

// Orderer contains info about an orderer which is needed by a client.
type Orderer struct {
	Name string
	URL  string
}

// Organization contains info about an organization which is needed by a client.
type Organization struct {
	Name       string
	MSPID      string
	CryptoPath string
	Peers      []string
	Users      []string
}

// Peer contains info about a peer which is needed by a client.
type Peer struct {
	Name string
	URL  string
}

// String renders a short human-readable summary of the network, suitable for the init command output.
func (c Config) String() string {
	var sb strings.Builder

	sb.WriteString("orderers:\n")
	for _, name := range sortedKeysOfOrderers(c.Orderers) {
		fmt.Fprintf(&sb, "  %v (%v)\n", name, c.Orderers[name].URL)
	}

	sb.WriteString("organizations:\n")
	for _, name := range sortedKeysOfOrganizations(c.Organizations) {
		org := c.Organizations[name]
		fmt.Fprintf(&sb, "  %v (MSP ID: %v, %v 个节点, %v 个用户)\n", name, org.MSPID, len(org.Peers), len(org.Users))
	}

	sb.WriteString("peers:\n")
	for _, name := range sortedKeysOfPeers(c.Peers) {
		fmt.Fprintf(&sb, "  %v (%v)\n", name, c.Peers[name].URL)
	}

	return sb.String()
}

func sortedKeysOfOrderers(m map[string]Orderer) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysOfOrganizations(m map[string]Organization) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysOfPeers(m map[string]Peer) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseOrderers parses the "orderers" section of the config from the config backend instance provided and returns a map of Orderer instances.
func ParseOrderers(configBackend core.ConfigBackend) (result map[string]Orderer, err error) {
	// Lookup the "orderers" section
	configBackendOrderers, ok := configBackend.Lookup("orderers")
	if !ok {
		err = fmt.Errorf("error parsing orderers")
		return
	}

	// Parse the section into a map
	orderersMap := make(map[string]fab.OrdererConfig)
	err = mapstructure.Decode(configBackendOrderers, &orderersMap)
	if err != nil {
		return
	}

	// Extract useful info for clients
	result = make(map[string]Orderer)
	for k, v := range orderersMap {
		result[k] = Orderer{Name: k, URL: v.URL}
	}

	return
}

// ParseOrganizations parses the "organizations" section of the config from the config backend instance provided and returns a map of Organization instances.
func ParseOrganizations(configBackend core.ConfigBackend) (result map[string]Organization, err error) {
	// Lookup the "organizations" section
	configBackendOrganizations, ok := configBackend.Lookup("organizations")
	if !ok {
		err = fmt.Errorf("error parsing organizations")
		return
	}

	// Parse the section into a map
	organizationsMap := make(map[string]fab.OrganizationConfig)
	err = mapstructure.Decode(configBackendOrganizations, &organizationsMap)
	if err != nil {
		return
	}

	// Extract useful info for clients
	result = make(map[string]Organization)
	for k, v := range organizationsMap {
		var users []string
		for userName := range v.Users {
			users = append(users, userName)
		}
		sort.Strings(users)

		result[k] = Organization{
			Name:       k,
			MSPID:      v.MSPID,
			CryptoPath: v.CryptoPath,
			Peers:      v.Peers,
			Users:      users,
		}
	}

	return
}

// ParsePeers parses the "peers" section of the config from the config backend instance provided and returns a map of Peer instances.
func ParsePeers(configBackend core.ConfigBackend) (result map[string]Peer, err error) {
	// Lookup the "peers" section
	configBackendPeers, ok := configBackend.Lookup("peers")
	if !ok {
		err = fmt.Errorf("error parsing peers")
		return
	}

	// Parse the section into a map
	peersMap := make(map[string]fab.PeerConfig)
	err = mapstructure.Decode(configBackendPeers, &peersMap)
	if err != nil {
		return
	}

	// Extract useful info for clients
	result = make(map[string]Peer)
	for k, v := range peersMap {
		result[k] = Peer{
			Name: k,
			URL:  v.URL,
		}
	}

	return
}

// ParseConfig parses multiple sections of the SDK config from the config backend instance provided and returns Config containing maps of multiple config instances.
func ParseConfig(config core.ConfigBackend) (result Config, err error) {
	orderers, err := ParseOrderers(config)
	if err != nil {
		return
	}

	organizations, err := ParseOrganizations(config)
	if err != nil {
		return
	}

	peers, err := ParsePeers(config)
	if err != nil {
		return
	}

	result = Config{Orderers: orderers, Organizations: organizations, Peers: peers}
	return
}
