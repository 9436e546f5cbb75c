package events

import (
	"fmt"
	"strings"

	"github.com/soltixdb/popstats/internal/config"
	"github.com/soltixdb/popstats/internal/utils"
)

// NewBus creates the Bus described by cfg. Default is the memory bus if
// type is not specified.
func NewBus(cfg config.EventsConfig) (Bus, error) {
	busType := utils.EventBusType(strings.ToLower(cfg.Type))
	if busType == "" {
		busType = utils.EventBusMemory
	}

	var (
		bus Bus
		err error
	)

	switch busType {
	case utils.EventBusMemory:
		return NewMemoryBus(), nil

	case utils.EventBusNATS:
		bus, err = NewNATSBus(cfg.URL, cfg.Password)

	case utils.EventBusRedis:
		bus, err = NewRedisBus(RedisConfig{
			URL:      cfg.URL,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
			Stream:   cfg.RedisStream,
			Group:    cfg.RedisGroup,
			Consumer: cfg.RedisConsumer,
		})

	case utils.EventBusKafka:
		bus, err = NewKafkaBus(KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.KafkaGroupID,
		})

	default:
		return nil, fmt.Errorf("unsupported event bus type: %s (supported: memory, nats, redis, kafka)", busType)
	}
	if err != nil {
		return nil, err
	}
	return bus, nil
}
