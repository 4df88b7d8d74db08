package utils

import (
	"fmt"
	"os"

	"dario.cat/mergo"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/ethpandaops/herald/config"
	"github.com/ethpandaops/herald/types"
)

// ReadConfig will process a configuration
func ReadConfig(cfg *types.Config, path string) error {
	err := readConfigFile(cfg, path)
	if err != nil {
		return err
	}

	readConfigEnv(cfg)

	return nil
}

func readConfigFile(cfg *types.Config, path string) error {
	defaultCfg := &types.Config{}
	err := yaml.Unmarshal([]byte(config.DefaultConfigYml), defaultCfg)
	if err != nil {
		return fmt.Errorf("error parsing default config: %v", err)
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("error opening config file %v: %v", path, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		err = decoder.Decode(cfg)
		if err != nil {
			return fmt.Errorf("error decoding config file %v: %v", path, err)
		}
	}

	err = mergo.Merge(cfg, defaultCfg)
	if err != nil {
		return fmt.Errorf("error merging default config: %v", err)
	}

	return nil
}

func readConfigEnv(cfg *types.Config) error {
	return envconfig.Process("HERALD", cfg)
}
