package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresRPCURL(t *testing.T) {
	_, err := Load(EnvMap{})
	require.EqualError(t, err, "RPC_URL is required")

	_, err = Load(nil)
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(EnvMap{"RPC_URL": "https://rpc.testnet.near.org"})
	require.NoError(t, err)

	assert.Equal(t, "https://rpc.testnet.near.org", cfg.RPCURL)
	assert.Equal(t, HashStoreMemory, cfg.HashStore)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "mysterybox-acks", cfg.KafkaTopic)
	assert.Equal(t, "mysterybox-notifier", cfg.KafkaGroupID)
	assert.Nil(t, cfg.KafkaBrokers)
	assert.Equal(t, uint64(10), cfg.AckMaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.AckMaxElapsed)
	assert.Equal(t, time.Second, cfg.AckInitialInterval)
	assert.Equal(t, 10*time.Second, cfg.RPCTimeout)
	assert.Equal(t, 100, cfg.LogMaxSizeMB)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(EnvMap{
		"RPC_URL":          "http://localhost:3030",
		"HASH_STORE":       " Redis ",
		"REDIS_ADDR":       "redis:6379",
		"KAFKA_BROKERS":    "a:9092, b:9092,,",
		"ACK_MAX_ATTEMPTS": "3",
		"ACK_MAX_ELAPSED":  "30s",
		"CONTRACT_ID":      "mysterybox.testnet",
	})
	require.NoError(t, err)

	assert.Equal(t, HashStoreRedis, cfg.HashStore)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, uint64(3), cfg.AckMaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.AckMaxElapsed)
	assert.Equal(t, "mysterybox.testnet", cfg.ContractID)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]EnvMap{
		"store":    {"RPC_URL": "x", "HASH_STORE": "etcd"},
		"attempts": {"RPC_URL": "x", "ACK_MAX_ATTEMPTS": "-1"},
		"elapsed":  {"RPC_URL": "x", "ACK_MAX_ELAPSED": "soon"},
		"redis":    {"RPC_URL": "x", "HASH_STORE": "redis", "REDIS_ADDR": " "},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(env)
			assert.Error(t, err)
		})
	}
}
