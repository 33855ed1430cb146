package util

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var environmentLogger = log.With().Str("logger_name", "util::environment").Logger()

type solitaireEnvironment struct {
	PersistMethod    string
	RewardStore      string
	RedisHost        string
	RedisPort        string
	RedisPW          string
	RedisDB          string
	PostgresHost     string
	PostgresPort     string
	PostgresDB       string
	PostgresUser     string
	PostgresPW       string
	PostgresSSLMode  string
	LedgerAPIURL     string
	NatsURL          string
	PayoutPolicyFile string
	LogLevel         string
}

// Env is a helper object for accessing environment variables.
var Env = &solitaireEnvironment{
	PersistMethod:    "PERSIST_METHOD",
	RewardStore:      "REWARD_STORE",
	RedisHost:        "REDIS_HOST",
	RedisPort:        "REDIS_PORT",
	RedisPW:          "REDIS_PW",
	RedisDB:          "REDIS_DB",
	PostgresHost:     "POSTGRES_HOST",
	PostgresPort:     "POSTGRES_PORT",
	PostgresDB:       "POSTGRES_DB",
	PostgresUser:     "POSTGRES_USER",
	PostgresPW:       "POSTGRES_PASSWORD",
	PostgresSSLMode:  "POSTGRES_SSL_MODE",
	LedgerAPIURL:     "LEDGER_API_URL",
	NatsURL:          "NATS_URL",
	PayoutPolicyFile: "PAYOUT_POLICY_FILE",
	LogLevel:         "LOG_LEVEL",
}

func (s *solitaireEnvironment) GetPersistMethod() string {
	method := os.Getenv(s.PersistMethod)
	if method == "" {
		return "memory"
	}
	return method
}

func (s *solitaireEnvironment) GetRewardStore() string {
	store := os.Getenv(s.RewardStore)
	if store == "" {
		return "memory"
	}
	return store
}

func (s *solitaireEnvironment) GetRedisHost() string {
	host := os.Getenv(s.RedisHost)
	if host == "" {
		msg := fmt.Sprintf("%s is not defined", s.RedisHost)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return host
}

func (s *solitaireEnvironment) GetRedisPort() int {
	portStr := os.Getenv(s.RedisPort)
	if portStr == "" {
		msg := fmt.Sprintf("%s is not defined", s.RedisPort)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	portNum, err := strconv.Atoi(portStr)
	if err != nil {
		msg := fmt.Sprintf("Invalid Redis port %s", portStr)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return portNum
}

func (s *solitaireEnvironment) GetRedisPW() string {
	return os.Getenv(s.RedisPW)
}

func (s *solitaireEnvironment) GetRedisDB() int {
	dbStr := os.Getenv(s.RedisDB)
	if dbStr == "" {
		return 0
	}
	dbNum, err := strconv.Atoi(dbStr)
	if err != nil {
		msg := fmt.Sprintf("Invalid Redis db %s", dbStr)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return dbNum
}

func (s *solitaireEnvironment) GetPostgresHost() string {
	host := os.Getenv(s.PostgresHost)
	if host == "" {
		msg := fmt.Sprintf("%s is not defined", s.PostgresHost)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return host
}

func (s *solitaireEnvironment) GetPostgresPort() int {
	portStr := os.Getenv(s.PostgresPort)
	if portStr == "" {
		msg := fmt.Sprintf("%s is not defined", s.PostgresPort)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	portNum, err := strconv.Atoi(portStr)
	if err != nil {
		msg := fmt.Sprintf("Invalid Postgres port %s", portStr)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return portNum
}

func (s *solitaireEnvironment) GetPostgresDB() string {
	db := os.Getenv(s.PostgresDB)
	if db == "" {
		msg := fmt.Sprintf("%s is not defined", s.PostgresDB)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return db
}

func (s *solitaireEnvironment) GetPostgresUser() string {
	user := os.Getenv(s.PostgresUser)
	if user == "" {
		msg := fmt.Sprintf("%s is not defined", s.PostgresUser)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return user
}

func (s *solitaireEnvironment) GetPostgresPW() string {
	return os.Getenv(s.PostgresPW)
}

func (s *solitaireEnvironment) GetPostgresSSLMode() string {
	mode := os.Getenv(s.PostgresSSLMode)
	if mode == "" {
		return "disable"
	}
	return mode
}

func (s *solitaireEnvironment) GetLedgerAPIURL() string {
	url := os.Getenv(s.LedgerAPIURL)
	if url == "" {
		msg := fmt.Sprintf("%s is not defined", s.LedgerAPIURL)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
	return url
}

func (s *solitaireEnvironment) GetNatsURL() string {
	return os.Getenv(s.NatsURL)
}

func (s *solitaireEnvironment) GetPayoutPolicyFile() string {
	return os.Getenv(s.PayoutPolicyFile)
}

func (s *solitaireEnvironment) GetZeroLogLogLevel() zerolog.Level {
	levelStr := os.Getenv(s.LogLevel)
	switch levelStr {
	case "":
		return zerolog.InfoLevel
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	default:
		msg := fmt.Sprintf("Unsupported log level %s", levelStr)
		environmentLogger.Error().Msg(msg)
		panic(msg)
	}
}
