package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/confbook/booking-service/internal/server"
	"github.com/confbook/booking-service/pkg/kafka"
	"github.com/confbook/booking-service/pkg/logger"
	"github.com/confbook/booking-service/pkg/postgres"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server        server.Config
	Database      postgres.Config
	Kafka         kafka.Config
	Log           logger.Log
	JWTKey        string        `envconfig:"JWT_KEY" default:"booking-secret"`
	SweepInterval time.Duration `envconfig:"MAINTENANCE_SWEEP_INTERVAL" default:"1h"`
}

var (
	once sync.Once
	cfg  Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = config
		printConfig(cfg)
	})

	return cfg
}

func printConfig(cfg Config) {
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
