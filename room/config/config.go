package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/kelseyhightower/envconfig"

	"github.com/Astemirdum/foyer-service/pkg/logger"
	"github.com/Astemirdum/foyer-service/pkg/postgres"
	"github.com/Astemirdum/foyer-service/pkg/server"
)

type Config struct {
	Server   server.Config `yaml:"server" envconfig:"ROOM_HTTP"`
	Database postgres.DB   `yaml:"db" envconfig:"DB"`
	Log      logger.Log    `yaml:"log" envconfig:"LOG"`
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = &config
		printConfig(cfg)
	})

	return cfg
}

func printConfig(cfg *Config) {
	c := *cfg
	c.Database.Password = "***"
	jscfg, _ := json.MarshalIndent(c, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
