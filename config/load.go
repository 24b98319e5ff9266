package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"
)

const envPrefix = "INDEXER"

var (
	ErrConfigFailedToSetDefaults = errors.New("error occurred while setting defaults")
	ErrConfigPath                = errors.New("config path error")
	ErrConfigFailedToDump        = errors.New("failed to dump config")
)

// Load reads the defaults, overrides them with config.yaml from the first of the given
// directories containing one and finally with INDEXER_ prefixed environment variables.
func Load(configFileDirs ...string) (*IndexerConfig, error) {
	v := viper.New()
	indexerConfig := getDefaultIndexerConfig()

	err := setDefaults(v, indexerConfig)
	if err != nil {
		return nil, err
	}

	err = overrideWithFiles(v, configFileDirs...)
	if err != nil {
		return nil, err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err = v.Unmarshal(indexerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if indexerConfig.Tracing != nil {
		tracingAttributes := make([]attribute.KeyValue, 0, len(indexerConfig.Tracing.Attributes))
		for key, value := range indexerConfig.Tracing.Attributes {
			tracingAttributes = append(tracingAttributes, attribute.String(key, value))
		}

		if len(tracingAttributes) > 0 {
			indexerConfig.Tracing.KeyValueAttributes = tracingAttributes
		}
	}

	return indexerConfig, nil
}

func setDefaults(v *viper.Viper, defaultConfig *IndexerConfig) error {
	defaultsMap := make(map[string]interface{})

	if err := mapstructure.Decode(defaultConfig, &defaultsMap); err != nil {
		err = errors.Join(ErrConfigFailedToSetDefaults, err)
		return err
	}

	for key, value := range defaultsMap {
		v.SetDefault(key, value)
	}

	return nil
}

func overrideWithFiles(v *viper.Viper, configFileDirs ...string) error {
	if len(configFileDirs) == 0 || configFileDirs[0] == "" {
		return nil
	}

	for _, path := range configFileDirs {
		stat, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return errors.Join(ErrConfigPath, fmt.Errorf("path: %s does not exist", path))
			}
			return err
		}
		if !stat.IsDir() {
			return errors.Join(ErrConfigPath, fmt.Errorf("path: %s should be a directory", path))
		}

		v.AddConfigPath(path)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	return v.ReadInConfig()
}

// DumpConfig writes the effective configuration to the given file as yaml.
func DumpConfig(indexerConfig *IndexerConfig, filename string) error {
	settings := make(map[string]interface{})

	err := mapstructure.Decode(indexerConfig, &settings)
	if err != nil {
		return errors.Join(ErrConfigFailedToDump, err)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return errors.Join(ErrConfigFailedToDump, err)
	}

	err = os.WriteFile(filename, data, 0o600)
	if err != nil {
		return errors.Join(ErrConfigFailedToDump, err)
	}

	return nil
}
