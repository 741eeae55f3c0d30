package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	RPCURL             string
	RPCTimeout         time.Duration
	ContractID         string
	HashStore          string
	RedisAddr          string
	RedisKeyPrefix     string
	SQLitePath         string
	DBDSN              string
	HTTPAddr           string
	OtelEndpoint       string
	KafkaBrokers       []string
	KafkaTopic         string
	KafkaGroupID       string
	AckMaxAttempts     uint64
	AckMaxElapsed      time.Duration
	AckInitialInterval time.Duration
	LogLevel           string
	LogFile            string
	LogMaxSizeMB       int
	LogMaxBackups      int
}

const (
	HashStoreMemory = "memory"
	HashStoreRedis  = "redis"
	HashStoreSQLite = "sqlite"
	HashStoreMySQL  = "mysql"
)

type EnvSource interface {
	Lookup(key string) (string, bool)
}

type EnvMap map[string]string

func (e EnvMap) Lookup(key string) (string, bool) {
	value, ok := e[key]
	return value, ok
}

func FromEnviron() EnvSource {
	env := make(EnvMap)
	for _, entry := range os.Environ() {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		env[parts[0]] = parts[1]
	}
	return env
}

func Load(source EnvSource) (Config, error) {
	if source == nil {
		return Config{}, errors.New("env source is required")
	}

	rpcURL, ok := source.Lookup("RPC_URL")
	if !ok || strings.TrimSpace(rpcURL) == "" {
		return Config{}, errors.New("RPC_URL is required")
	}

	rpcTimeout, err := parseDurationEnv(source, "RPC_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}

	hashStore := HashStoreMemory
	if raw, ok := source.Lookup("HASH_STORE"); ok && strings.TrimSpace(raw) != "" {
		hashStore = strings.ToLower(strings.TrimSpace(raw))
	}
	switch hashStore {
	case HashStoreMemory, HashStoreRedis, HashStoreSQLite, HashStoreMySQL:
	default:
		return Config{}, fmt.Errorf("invalid HASH_STORE: %q", hashStore)
	}

	redisAddr := "127.0.0.1:6379"
	if raw, ok := source.Lookup("REDIS_ADDR"); ok {
		redisAddr = strings.TrimSpace(raw)
	}
	if hashStore == HashStoreRedis && redisAddr == "" {
		return Config{}, errors.New("REDIS_ADDR is required for redis hash store")
	}
	redisKeyPrefix := "mysterybox:processed:"
	if raw, ok := source.Lookup("REDIS_KEY_PREFIX"); ok && raw != "" {
		redisKeyPrefix = raw
	}

	sqlitePath := "data/processed.db"
	if raw, ok := source.Lookup("SQLITE_PATH"); ok && strings.TrimSpace(raw) != "" {
		sqlitePath = raw
	}

	dbDSN, ok := source.Lookup("DB_DSN")
	if !ok || strings.TrimSpace(dbDSN) == "" {
		dbDSN = "root:@tcp(127.0.0.1:3306)/mysterybox?parseTime=true"
	}

	httpAddr := ":8080"
	if raw, ok := source.Lookup("HTTP_ADDR"); ok && raw != "" {
		httpAddr = raw
	}

	otelEndpoint, _ := source.Lookup("OTEL_EXPORTER_OTLP_ENDPOINT")
	otelEndpoint = strings.TrimSpace(otelEndpoint)

	contractID, _ := source.Lookup("CONTRACT_ID")
	contractID = strings.TrimSpace(contractID)

	kafkaBrokers := parseList(source, "KAFKA_BROKERS")
	kafkaTopic, ok := source.Lookup("KAFKA_TOPIC")
	if !ok || kafkaTopic == "" {
		kafkaTopic = "mysterybox-acks"
	}
	kafkaGroupID, ok := source.Lookup("KAFKA_GROUP_ID")
	if !ok || kafkaGroupID == "" {
		kafkaGroupID = "mysterybox-notifier"
	}

	ackMaxAttempts, err := parseUintEnv(source, "ACK_MAX_ATTEMPTS", 10)
	if err != nil {
		return Config{}, err
	}
	ackMaxElapsed, err := parseDurationEnv(source, "ACK_MAX_ELAPSED", 2*time.Minute)
	if err != nil {
		return Config{}, err
	}
	ackInitialInterval, err := parseDurationEnv(source, "ACK_INITIAL_INTERVAL", time.Second)
	if err != nil {
		return Config{}, err
	}

	logLevel, _ := source.Lookup("LOG_LEVEL")
	logFile, _ := source.Lookup("LOG_FILE")
	logMaxSize, err := parseUintEnv(source, "LOG_MAX_SIZE_MB", 100)
	if err != nil {
		return Config{}, err
	}
	logMaxBackups, err := parseUintEnv(source, "LOG_MAX_BACKUPS", 5)
	if err != nil {
		return Config{}, err
	}

	return Config{
		RPCURL:             rpcURL,
		RPCTimeout:         rpcTimeout,
		ContractID:         contractID,
		HashStore:          hashStore,
		RedisAddr:          redisAddr,
		RedisKeyPrefix:     redisKeyPrefix,
		SQLitePath:         sqlitePath,
		DBDSN:              dbDSN,
		HTTPAddr:           httpAddr,
		OtelEndpoint:       otelEndpoint,
		KafkaBrokers:       kafkaBrokers,
		KafkaTopic:         kafkaTopic,
		KafkaGroupID:       kafkaGroupID,
		AckMaxAttempts:     ackMaxAttempts,
		AckMaxElapsed:      ackMaxElapsed,
		AckInitialInterval: ackInitialInterval,
		LogLevel:           logLevel,
		LogFile:            logFile,
		LogMaxSizeMB:       int(logMaxSize),
		LogMaxBackups:      int(logMaxBackups),
	}, nil
}

func parseUintEnv(source EnvSource, key string, defaultValue uint64) (uint64, error) {
	raw, ok := source.Lookup(key)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func parseDurationEnv(source EnvSource, key string, defaultValue time.Duration) (time.Duration, error) {
	raw, ok := source.Lookup(key)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

// parseList returns nil when the key is unset; Kafka is optional.
func parseList(source EnvSource, key string) []string {
	raw, ok := source.Lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	var values []string
	for _, item := range strings.Split(raw, ",") {
		value := strings.TrimSpace(item)
		if value == "" {
			continue
		}
		values = append(values, value)
	}
	return values
}
