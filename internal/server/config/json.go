package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/ontop/internal/flagx"
	"github.com/dmitrijs2005/ontop/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration. Duration
// fields accept "10s" style strings or integer nanoseconds. Zero values
// leave the corresponding Config field untouched.
type JsonConfig struct {
	ListenAddr       string         `json:"listen_addr"`
	SQLitePath       string         `json:"sqlite_path"`
	DatabaseHost     string         `json:"db_host"`
	DatabasePort     int            `json:"db_port"`
	DatabaseName     string         `json:"db_name"`
	DatabaseUser     string         `json:"db_user"`
	DatabasePassword string         `json:"db_password"`
	DatabaseSSLMode  string         `json:"db_sslmode"`
	MaxOpenConns     int            `json:"max_open_conns"`
	MaxIdleConns     int            `json:"max_idle_conns"`
	ConnMaxLifetime  timex.Duration `json:"conn_max_lifetime"`
	RequestTimeout   timex.Duration `json:"request_timeout"`
	ShutdownTimeout  timex.Duration `json:"shutdown_timeout"`
	SecretKey        string         `json:"secret_key"`
	TokenTTL         timex.Duration `json:"token_ttl"`
	AdminKey         string         `json:"admin_key"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	LogLevel         string         `json:"log_level"`
	LogFormat        string         `json:"log_format"`
}

// parseJson loads configuration values from the file named by -c/-config.
// Without the flag nothing is loaded. An unreadable file or invalid JSON
// panics, matching the rest of the startup configuration path.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.ListenAddr, c.ListenAddr)
	setString(&config.SQLitePath, c.SQLitePath)
	setString(&config.DatabaseHost, c.DatabaseHost)
	setInt(&config.DatabasePort, c.DatabasePort)
	setString(&config.DatabaseName, c.DatabaseName)
	setString(&config.DatabaseUser, c.DatabaseUser)
	setString(&config.DatabasePassword, c.DatabasePassword)
	setString(&config.DatabaseSSLMode, c.DatabaseSSLMode)
	setInt(&config.MaxOpenConns, c.MaxOpenConns)
	setInt(&config.MaxIdleConns, c.MaxIdleConns)
	setDuration(&config.ConnMaxLifetime, c.ConnMaxLifetime)
	setDuration(&config.RequestTimeout, c.RequestTimeout)
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.TokenTTL, c.TokenTTL)
	setString(&config.AdminKey, c.AdminKey)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
