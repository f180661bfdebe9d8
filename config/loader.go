package config

import (
	"fmt"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

var (
	instance Config
	once     sync.Once
)

// Load reads the given YAML or env files in order, then environment
// variables. Later sources override earlier ones. The first successful
// result is reused by later calls until Reset.
func Load(configPaths ...string) (Config, error) {
	var err error
	once.Do(func() {
		cfg := &config{}

		for _, configPath := range configPaths {
			if err = cleanenv.ReadConfig(configPath, cfg); err != nil {
				err = fmt.Errorf("failed to read config file %s: %w", configPath, err)
				return
			}
		}

		// Secrets only come from the environment
		if err = cleanenv.ReadEnv(cfg); err != nil {
			err = fmt.Errorf("failed to read environment variables: %w", err)
			return
		}

		instance = cfg
	})

	if err != nil {
		once = sync.Once{}
		return nil, err
	}
	if instance == nil {
		return nil, fmt.Errorf("config failed to load earlier, call Reset before retrying")
	}
	return instance, nil
}

func Reset() {
	instance = nil
	once = sync.Once{}
}
