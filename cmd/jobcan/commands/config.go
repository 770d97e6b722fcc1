package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"jobcan-cli/internal/components/chrono"
	"jobcan-cli/internal/components/telemetry"
	"jobcan-cli/internal/jobcan"
	"jobcan-cli/internal/journal"
	"jobcan-cli/lib/configutil"
)

const (
	configName = "jobcan.json5"

	envEmail    = "JOBCAN_EMAIL"
	envPassword = "JOBCAN_PASSWORD"
	envGroupID  = "JOBCAN_GROUP_ID"
)

type DeploymentConfig struct {
	LoginURL       string `json:"login_url"`
	EmployeeURL    string `json:"employee_url"`
	StampURL       string `json:"stamp_url"`
	StatusEncoding string `json:"status_encoding"`
	UserAgent      string `json:"user_agent"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// Config is the shape of jobcan.json5.
type Config struct {
	Email      string               `json:"email"`
	Password   string               `json:"password"`
	GroupID    string               `json:"group_id"`
	Deployment DeploymentConfig     `json:"deployment"`
	Journal    journal.Config       `json:"journal"`
	Otlp       telemetry.OtlpConfig `json:"otlp"`
	DumpHttp   string               `json:"dump_http"`
	// IANA zone used for journal timestamps, empty means local time
	Timezone string `json:"timezone"`
}

// loadConfig reads an explicit config path, or searches for jobcan.json5
// from the working directory upwards. Not finding one is not an error.
func loadConfig(explicit string) (Config, string, error) {
	if explicit != "" {
		cfg, err := configutil.ReadConfig[Config](explicit)
		if err != nil {
			return Config{}, "", fmt.Errorf("read config %s: %w", explicit, err)
		}
		return cfg, explicit, nil
	}

	cfg, path, err := configutil.ReadRecursively[Config](configName)
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, "", nil
	}
	if err != nil {
		return Config{}, "", fmt.Errorf("read config %s: %w", path, err)
	}
	return cfg, path, nil
}

// flagValues are the raw command line values, empty means not given.
type flagValues struct {
	email    string
	password string
	dumpHttp string
}

// Settings is the fully resolved input of one run.
type Settings struct {
	Account jobcan.Account
	// from the environment or the config file, --group-id/--group-name
	// take precedence over it
	GroupID    string
	Deployment jobcan.Deployment
	Timeout    time.Duration
	UserAgent  string
	Journal    journal.Config
	DumpHttp   string
	Clock      chrono.API
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolveSettings applies flag > environment > config file precedence.
func resolveSettings(cfg Config, flags flagValues, getenv func(string) string) (Settings, error) {
	email := firstNonEmpty(flags.email, getenv(envEmail), cfg.Email)
	password := firstNonEmpty(flags.password, getenv(envPassword), cfg.Password)

	var missing []error
	if email == "" {
		missing = append(missing, fmt.Errorf("jobcan email is required (--email or $%s)", envEmail))
	}
	if password == "" {
		missing = append(missing, fmt.Errorf("jobcan password is required (--password or $%s)", envPassword))
	}
	if len(missing) > 0 {
		return Settings{}, errors.Join(missing...)
	}

	encoding, err := jobcan.ParseStatusEncoding(cfg.Deployment.StatusEncoding)
	if err != nil {
		return Settings{}, err
	}
	clock, err := chrono.NewStandardImpl(cfg.Timezone)
	if err != nil {
		return Settings{}, fmt.Errorf("load timezone: %w", err)
	}

	return Settings{
		Account: jobcan.NewAccount(email, password),
		GroupID: firstNonEmpty(getenv(envGroupID), cfg.GroupID),
		Deployment: jobcan.Deployment{
			LoginURL:       cfg.Deployment.LoginURL,
			EmployeeURL:    cfg.Deployment.EmployeeURL,
			StampURL:       cfg.Deployment.StampURL,
			StatusEncoding: encoding,
		},
		Timeout:   time.Duration(cfg.Deployment.TimeoutSeconds) * time.Second,
		UserAgent: cfg.Deployment.UserAgent,
		Journal:   cfg.Journal,
		DumpHttp:  firstNonEmpty(flags.dumpHttp, cfg.DumpHttp),
		Clock:     clock,
	}, nil
}
