package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// poolABIJSON describes the constant-product pool contract. Swap keeps the
// argument order of the deployed contract; its fields are not indexed.
const poolABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "user", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "tokenGive", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "tokenGiveAmount", "type": "uint256"},
      {"indexed": false, "internalType": "address", "name": "tokenGet", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "tokenGetAmount", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "token1Balance", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "token2Balance", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "timestamp", "type": "uint256"}
    ],
    "name": "Swap",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "provider", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "token1Amount", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "token2Amount", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "shares", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "token1Balance", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "token2Balance", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "totalShares", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "timestamp", "type": "uint256"}
    ],
    "name": "Deposit",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "provider", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "token1Amount", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "token2Amount", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "shares", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "token1Balance", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "token2Balance", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "totalShares", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "timestamp", "type": "uint256"}
    ],
    "name": "Withdraw",
    "type": "event"
  },
  {"inputs": [], "name": "token1", "outputs": [{"internalType": "address", "name": "", "type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "token2", "outputs": [{"internalType": "address", "name": "", "type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "token1Balance", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "token2Balance", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "totalShares", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "", "type": "address"}], "name": "shares", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "uint256", "name": "_token1Amount", "type": "uint256"}], "name": "calculateToken1Swap", "outputs": [{"internalType": "uint256", "name": "token2Amount", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "uint256", "name": "_token2Amount", "type": "uint256"}], "name": "calculateToken2Swap", "outputs": [{"internalType": "uint256", "name": "token1Amount", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

var (
	poolABI     abi.ABI
	poolABIOnce sync.Once
	poolABIErr  error
)

// PoolABI returns the parsed pool ABI.
func PoolABI() (abi.ABI, error) {
	poolABIOnce.Do(func() {
		poolABI, poolABIErr = abi.JSON(strings.NewReader(poolABIJSON))
	})
	return poolABI, poolABIErr
}
