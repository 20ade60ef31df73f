package config

import (
	"fmt"
	"net/netip"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig описывает один сервер камеры из файла конфигурации
type ServerConfig struct {
	Address string `yaml:"address"`
	Label   string `yaml:"label,omitempty"`
}

// ServersConfigFile представляет структуру YAML файла конфигурации
type ServersConfigFile struct {
	Servers []ServerConfig `yaml:"servers"`
}

// LoadServersFromYAML загружает список серверов из YAML файла
func LoadServersFromYAML(path string) ([]ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var configFile ServersConfigFile
	if err := yaml.Unmarshal(data, &configFile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Валидация: каждый сервер должен иметь корректный адрес
	for i, srv := range configFile.Servers {
		if srv.Address == "" {
			return nil, fmt.Errorf("server at index %d has no address", i)
		}
		if _, err := netip.ParseAddr(srv.Address); err != nil {
			return nil, fmt.Errorf("server at index %d has invalid address %q", i, srv.Address)
		}
	}

	return configFile.Servers, nil
}
