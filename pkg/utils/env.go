package utils

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type EnvVars struct {
	Host        string
	Port        int
	HealthPort  int
	RabbitHost  string
	RabbitPort  int
	RabbitUser  string
	RabbitPass  string
	WorkQueue   string
	ResultQueue string
	LogLevel    string
	LogFormat   string
	ConfigFile  string
}

// ReadEnvVars loads the service settings from the environment. An empty
// RABBIT_HOST disables the queue worker.
func ReadEnvVars() (EnvVars, error) {
	// Loading .env file if it exists
	// It will not override already existing env vars
	_ = godotenv.Load()
	port, err := readIntEnvVarOr("PORT", 8080)
	if err != nil {
		return EnvVars{}, err
	}
	healthPort, err := readIntEnvVarOr("HEALTH_PORT", 50051)
	if err != nil {
		return EnvVars{}, err
	}
	rabbitPort, err := readIntEnvVarOr("RABBIT_PORT", 5672)
	if err != nil {
		return EnvVars{}, err
	}
	return EnvVars{
		Host: readStringEnvVarOr("HOST", ""), Port: port, HealthPort: healthPort,
		RabbitHost: readStringEnvVarOr("RABBIT_HOST", ""), RabbitPort: rabbitPort,
		RabbitUser: readStringEnvVarOr("RABBIT_USER", "guest"),
		RabbitPass: readStringEnvVarOr("RABBIT_PASSWORD", "guest"),
		WorkQueue:  readStringEnvVarOr("WORK_QUEUE", "work"), ResultQueue: readStringEnvVarOr("RESULT_QUEUE", "result"),
		LogLevel: readStringEnvVarOr("LOG_LEVEL", "info"), LogFormat: readStringEnvVarOr("LOG_FORMAT", "json"),
		ConfigFile: readStringEnvVarOr("CONFIG_FILE", ""),
	}, nil
}

// Address is the HTTP listen address.
func (e EnvVars) Address() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// HealthAddress is the gRPC health listen address.
func (e EnvVars) HealthAddress() string {
	return fmt.Sprintf("%s:%d", e.Host, e.HealthPort)
}

func readStringEnvVar(name string) (string, error) {
	value := os.Getenv(name)
	if value == "" {
		return "", fmt.Errorf("%s not set", name)
	}
	return value, nil
}

func readStringEnvVarOr(name string, or string) string {
	value, err := readStringEnvVar(name)
	if err != nil {
		value = or
	}
	return value
}

// readIntEnvVarOr falls back to or when name is unset, but rejects a value
// that is set and not a number.
func readIntEnvVarOr(name string, or int) (int, error) {
	valueStr, err := readStringEnvVar(name)
	if err != nil {
		return or, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("could not convert %s to a number: %w", name, err)
	}
	return value, nil
}
