package config

import (
	"os"

	"github.com/go-yaml/yaml"
)

type Config struct {
	Server Server `yaml:"server"`
	Auth   Auth   `yaml:"auth"`
}

type Server struct {
	FQDN          string `yaml:"fqdn"`
	Listen        string `yaml:"listen"`
	BaseURL       string `yaml:"baseURL"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

type Auth struct {
	SessionSecret string           `yaml:"sessionSecret"`
	Providers     map[string]OAuth `yaml:"providers"` // keyed by provider name, e.g. google
}

type OAuth struct {
	Key    string `yaml:"key"`
	Secret string `yaml:"secret"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if config.Server.Listen == "" {
		config.Server.Listen = ":8000"
	}

	return config, nil
}
