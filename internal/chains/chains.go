package chains

import (
	"strconv"
	"strings"
)

// EVM networks the payroll contracts are deployed on.
const (
	Ethereum    int64 = 1
	Sepolia     int64 = 11155111
	Base        int64 = 8453
	BaseSepolia int64 = 84532
	Hardhat     int64 = 31337
)

type Network struct {
	ChainID  int64
	Name     string
	Explorer string
}

var networks = map[int64]Network{
	Ethereum:    {ChainID: Ethereum, Name: "Ethereum", Explorer: "https://etherscan.io"},
	Sepolia:     {ChainID: Sepolia, Name: "Sepolia", Explorer: "https://sepolia.etherscan.io"},
	Base:        {ChainID: Base, Name: "Base", Explorer: "https://basescan.org"},
	BaseSepolia: {ChainID: BaseSepolia, Name: "Base Sepolia", Explorer: "https://sepolia.basescan.org"},
	Hardhat:     {ChainID: Hardhat, Name: "Hardhat"},
}

func Lookup(chainID int64) (Network, bool) {
	n, ok := networks[chainID]
	return n, ok
}

// Name returns the network name, or "chain <id>" for unknown networks.
func Name(chainID int64) string {
	if n, ok := networks[chainID]; ok {
		return n.Name
	}
	return "chain " + strconv.FormatInt(chainID, 10)
}

// TxURL links a transaction on the network's block explorer. It returns an
// empty string when the network has no explorer.
func TxURL(explorer, txHash string) string {
	if explorer == "" {
		return ""
	}
	return strings.TrimRight(explorer, "/") + "/tx/" + txHash
}
