package commands

import (
	"context"
	"fmt"
	"os"

	"jobcan-cli/internal/components/telemetry"
	"jobcan-cli/internal/jobcan"
)

func currentSettings() (Settings, error) {
	return resolveSettings(config, flags, os.Getenv)
}

// newSession creates a client for the configured account and logs it in.
func newSession(ctx context.Context, s Settings) (*jobcan.Client, error) {
	opts := jobcan.ClientOptions{
		Deployment: s.Deployment,
		Timeout:    s.Timeout,
		UserAgent:  s.UserAgent,
		Telemetry:  telemetry.SlogAPI{},
	}
	if s.DumpHttp != "" {
		out, err := telemetry.NewFilesystemOutput(s.DumpHttp)
		if err != nil {
			return nil, fmt.Errorf("create http dump directory: %w", err)
		}
		opts.HttpDump = out
	}

	client, err := jobcan.NewClient(s.Account, opts)
	if err != nil {
		return nil, err
	}
	err = client.Login(ctx)
	if err != nil {
		return nil, err
	}
	return client, nil
}
