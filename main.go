package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"voyager.com/solitaire/game"
	"voyager.com/solitaire/internal"
	"voyager.com/solitaire/nats"
	"voyager.com/solitaire/rest"
	"voyager.com/solitaire/settlement"
	"voyager.com/solitaire/util"
	"voyager.com/solitaire/util/random"
)

var mainLogger = util.GetZeroLogger("main::main", nil)

var policyFile *string
var disableNats *bool

func init() {
	policyFile = flag.String("policy", "", "YAML file containing the payout policy")
	disableNats = flag.Bool("no-nats", false, "disables publishing session events to NATS")
}

func main() {
	rand.Seed(random.NewSeed())

	err := run()
	if err != nil {
		mainLogger.Error().Msg(err.Error())
		os.Exit(1)
	}
}

func run() error {
	logLevel := util.Env.GetZeroLogLogLevel()
	fmt.Printf("Setting log level to %s\n", logLevel)
	zerolog.SetGlobalLevel(logLevel)
	flag.Parse()

	policy, err := loadPolicy()
	if err != nil {
		return errors.Wrap(err, "Error while loading payout policy")
	}

	sessionPersist, err := createSessionPersist()
	if err != nil {
		return errors.Wrap(err, "Error while creating session persistence")
	}

	rewardStore, err := createRewardStore()
	if err != nil {
		return errors.Wrap(err, "Error while creating reward store")
	}

	verifier := settlement.NewLedgerClient(util.Env.GetLedgerAPIURL())
	coordinator := settlement.NewCoordinator(verifier, rewardStore, policy)

	var publisher game.EventPublisher
	if !*disableNats && util.Env.GetNatsURL() != "" {
		natsPublisher, err := nats.NewEventPublisher(util.Env.GetNatsURL())
		if err != nil {
			return errors.Wrap(err, "Error while connecting to NATS")
		}
		publisher = natsPublisher
	}

	manager, err := game.NewManager(sessionPersist, coordinator, publisher)
	if err != nil {
		return errors.Wrap(err, "Error while creating session manager")
	}

	rest.RunRestServer(manager)
	return nil
}

func loadPolicy() (settlement.PayoutPolicy, error) {
	file := *policyFile
	if file == "" {
		file = util.Env.GetPayoutPolicyFile()
	}
	if file == "" {
		return settlement.DefaultPayoutPolicy(), nil
	}
	return settlement.ParsePayoutPolicy(file)
}

func createSessionPersist() (game.PersistSessionState, error) {
	switch method := util.Env.GetPersistMethod(); method {
	case "memory":
		return game.NewMemorySessionTracker(), nil
	case "redis":
		addr := fmt.Sprintf("%s:%d", util.Env.GetRedisHost(), util.Env.GetRedisPort())
		return game.NewRedisSessionTracker(addr, util.Env.GetRedisPW(), util.Env.GetRedisDB()), nil
	default:
		return nil, fmt.Errorf("Unsupported persist method [%s]", method)
	}
}

func createRewardStore() (settlement.RewardStore, error) {
	switch store := util.Env.GetRewardStore(); store {
	case "memory":
		return settlement.NewMemoryRewardStore(), nil
	case "redis":
		addr := fmt.Sprintf("%s:%d", util.Env.GetRedisHost(), util.Env.GetRedisPort())
		return settlement.NewRedisRewardStore(addr, util.Env.GetRedisPW(), util.Env.GetRedisDB()), nil
	case "postgres":
		db, err := sqlx.Open("postgres", internal.GetRewardsConnStr())
		if err != nil {
			return nil, errors.Wrap(err, "Unable to open rewards db")
		}
		pgStore := settlement.NewPostgresRewardStore(db)
		if err := pgStore.EnsureSchema(context.Background()); err != nil {
			return nil, err
		}
		return pgStore, nil
	default:
		return nil, fmt.Errorf("Unsupported reward store [%s]", store)
	}
}
