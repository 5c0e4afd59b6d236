package configloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "logging:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "sepolia", cfg.Network.Identifier)
	assert.Equal(t, DefaultContractAddress, cfg.Contract.Address)
	assert.Equal(t, "http://127.0.0.1:8080/abi.json", cfg.Contract.ABISource)
	assert.Equal(t, "web/abi.json", cfg.Server.ABIFile)
	assert.Equal(t, int64(1000), cfg.Wallet.PollIntervalMillis)
	assert.Equal(t, 60, cfg.TxStore.TTLMinutes)
	assert.Empty(t, cfg.Wallet.URL)
}

func TestLoad_KeepsExplicitValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  port: "9090"
network:
  identifier: holesky
  rpcURLs: ["http://localhost:8545"]
contract:
  address: "0x0000000000000000000000000000000000000042"
  abiSource: ./web/abi.json
wallet:
  url: ws://127.0.0.1:8546
`))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "holesky", cfg.Network.Identifier)
	assert.Equal(t, []string{"http://localhost:8545"}, cfg.Network.RPCURLs)
	assert.Equal(t, "./web/abi.json", cfg.Contract.ABISource)
	assert.Equal(t, "ws://127.0.0.1:8546", cfg.Wallet.URL)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "contract:\n  address: nope\n"))
	assert.Error(t, err)
}
