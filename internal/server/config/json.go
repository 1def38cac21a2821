package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophcrud/internal/flagx"
	"github.com/dmitrijs2005/gophcrud/internal/timex"
	"gopkg.in/yaml.v3"
)

// JsonConfig is the on-disk shape of the optional config file. Durations
// accept "90s" style strings or integer nanoseconds. Absent keys leave the
// current value untouched.
type JsonConfig struct {
	HTTPAddr               string         `json:"http_addr" yaml:"http_addr"`
	GRPCAddr               string         `json:"grpc_addr" yaml:"grpc_addr"`
	DatabaseDSN            string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey              string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenTTL         timex.Duration `json:"access_token_ttl" yaml:"access_token_ttl"`
	ResetTokenTTL          timex.Duration `json:"reset_token_ttl" yaml:"reset_token_ttl"`
	PasswordScheme         string         `json:"password_scheme" yaml:"password_scheme"`
	BcryptCost             int            `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	OpenRegistration       *bool          `json:"users_open_registration" yaml:"users_open_registration"`
	ProjectName            string         `json:"project_name" yaml:"project_name"`
	FrontendHost           string         `json:"frontend_host" yaml:"frontend_host"`
	Environment            string         `json:"environment" yaml:"environment"`
	LogLevel               string         `json:"log_level" yaml:"log_level"`
	CORSOrigins            []string       `json:"backend_cors_origins" yaml:"backend_cors_origins"`
	FirstSuperuser         string         `json:"first_superuser" yaml:"first_superuser"`
	FirstSuperuserPassword string         `json:"first_superuser_password" yaml:"first_superuser_password"`
	EmailsFromEmail        string         `json:"emails_from_email" yaml:"emails_from_email"`
	EmailsFromName         string         `json:"emails_from_name" yaml:"emails_from_name"`
	SupportEmail           string         `json:"support_email" yaml:"support_email"`
	PostmarkServerToken    string         `json:"postmark_server_token" yaml:"postmark_server_token"`
	PostmarkAccountToken   string         `json:"postmark_account_token" yaml:"postmark_account_token"`
	MailDevDir             string         `json:"mail_dev_dir" yaml:"mail_dev_dir"`
	DBConnectAttempts      int            `json:"db_connect_attempts" yaml:"db_connect_attempts"`
	DBConnectInterval      timex.Duration `json:"db_connect_interval" yaml:"db_connect_interval"`
	HealthCheckInterval    timex.Duration `json:"health_check_interval" yaml:"health_check_interval"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// decodeConfigFile picks the decoder by extension: .yaml and .yml go
// through yaml.v3, everything else is JSON.
func decodeConfigFile(path string, data []byte, c *JsonConfig) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, c)
	default:
		return json.Unmarshal(data, c)
	}
}

// parseJson loads the file named by -c/-config, if any, into config.
// An unreadable or malformed file panics: the process cannot start
// with a half-applied configuration.
func parseJson(config *Config, args []string) {
	jsonConfigFile := flagx.ConfigFile(args)

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := decodeConfigFile(jsonConfigFile, file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.PasswordScheme, c.PasswordScheme)
	setString(&config.ProjectName, c.ProjectName)
	setString(&config.FrontendHost, c.FrontendHost)
	setString(&config.Environment, c.Environment)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.FirstSuperuser, c.FirstSuperuser)
	setString(&config.FirstSuperuserPassword, c.FirstSuperuserPassword)
	setString(&config.EmailsFromEmail, c.EmailsFromEmail)
	setString(&config.EmailsFromName, c.EmailsFromName)
	setString(&config.SupportEmail, c.SupportEmail)
	setString(&config.PostmarkServerToken, c.PostmarkServerToken)
	setString(&config.PostmarkAccountToken, c.PostmarkAccountToken)
	setString(&config.MailDevDir, c.MailDevDir)

	if c.AccessTokenTTL.Duration != 0 {
		config.AccessTokenTTL = c.AccessTokenTTL.Duration
	}
	if c.ResetTokenTTL.Duration != 0 {
		config.ResetTokenTTL = c.ResetTokenTTL.Duration
	}
	if c.DBConnectInterval.Duration != 0 {
		config.DBConnectInterval = c.DBConnectInterval.Duration
	}
	if c.HealthCheckInterval.Duration != 0 {
		config.HealthCheckInterval = c.HealthCheckInterval.Duration
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.DBConnectAttempts != 0 {
		config.DBConnectAttempts = c.DBConnectAttempts
	}
	if c.OpenRegistration != nil {
		config.OpenRegistration = *c.OpenRegistration
	}
	if c.CORSOrigins != nil {
		config.CORSOrigins = c.CORSOrigins
	}
}
