package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./consolelogs")

	viper.SetDefault("robot.url", "ws://nerftank.local/ws")

	viper.SetDefault("sample.hz", 20)

	viper.SetDefault("surface.radius", 100.0)
	viper.SetDefault("surface.deadZone", 0.15)

	viper.SetDefault("input.device", "")
	viper.SetDefault("input.width", 800.0)
	viper.SetDefault("input.height", 480.0)

	viper.SetDefault("turret.ammo", 5)

	viper.SetDefault("recorder.backend", "sqlite")
	viper.SetDefault("recorder.sqlitePath", "./console_recorder.db")
	viper.SetDefault("recorder.flushSeconds", 2)

	viper.SetDefault("recorder.postgres.host", "localhost")
	viper.SetDefault("recorder.postgres.port", "5432")
	viper.SetDefault("recorder.postgres.username", "postgres")
	viper.SetDefault("recorder.postgres.password", "postgres")
	viper.SetDefault("recorder.postgres.database", "nerftank")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "nerftank-metrics")
	viper.SetDefault("influx.bucket", "console_performance")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("review.url", "")
	viper.SetDefault("review.apiKey", "")

	viper.SetConfigName("console.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetFloat64 returns a float config value.
func GetFloat64(key string) float64 {
	return viper.GetFloat64(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
