package main

import (
	"context"
	"fmt"

	"github.com/earlybird-mp3/onthespot-scdl/internal/session"
	"github.com/earlybird-mp3/onthespot-scdl/internal/shared"
	"github.com/urfave/cli/v3"
)

// SessionBootstrap scrapes a fresh client_id and app_version from the
// public site and persists them to the config file.
func (r *Runner) SessionBootstrap(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("bootstrapping session from public site")

	token, err := session.Bootstrap(ctx, r.httpClient)
	if err != nil {
		return err
	}

	r.logger.Info("session discovered", "client_id", token.ClientID, "app_version", token.AppVersion)

	r.config.Credentials.SoundCloud.ClientID = token.ClientID
	r.config.Credentials.SoundCloud.AppVersion = token.AppVersion
	if r.config.Credentials.SoundCloud.AppLocale == "" {
		r.config.Credentials.SoundCloud.AppLocale = token.AppLocale
	}

	if r.configPath != "" {
		if err := shared.SaveConfig(r.configPath, r.config); err != nil {
			return fmt.Errorf("discovered session but failed to save config: %w", err)
		}
		r.logger.Info("config updated", "path", r.configPath)
	}

	r.writePlain("✓ Session bootstrapped\n")
	r.writePlain("Client ID: %s\n", token.ClientID)
	r.writePlain("App version: %s\n", token.AppVersion)
	return nil
}

// SessionAdd stores a browser-session OAuth token after verifying it.
func (r *Runner) SessionAdd(ctx context.Context, cmd *cli.Command) error {
	accessToken := cmd.StringArg("token")
	if accessToken == "" {
		return fmt.Errorf("%w: token", shared.ErrMissingArgument)
	}
	if r.config.Credentials.SoundCloud.ClientID == "" {
		return fmt.Errorf("%w: no client_id configured, run 'scdl session bootstrap' first", shared.ErrMissingCredentials)
	}

	r.logger.Info("verifying OAuth token")
	if err := session.Verify(ctx, r.httpClient, r.config.Credentials.SoundCloud.ClientID, accessToken); err != nil {
		return err
	}

	r.config.Credentials.SoundCloud.OAuthToken = accessToken
	if r.configPath != "" {
		if err := shared.SaveConfig(r.configPath, r.config); err != nil {
			return fmt.Errorf("token verified but failed to save config: %w", err)
		}
	}

	r.writePlain("✓ OAuth token verified and saved\n")
	return nil
}

// SessionStatus reports the configured session and re-verifies the OAuth
// token when one is present.
func (r *Runner) SessionStatus(ctx context.Context, cmd *cli.Command) error {
	sc := r.config.Credentials.SoundCloud
	if sc.ClientID == "" {
		r.writePlain("✗ No session configured\n")
		r.writePlain("Run 'scdl session bootstrap' to discover a client_id\n")
		return nil
	}

	r.writePlain("Client ID: %s\n", sc.ClientID)
	r.writePlain("App version: %s\n", sc.AppVersion)

	if sc.OAuthToken == "" {
		r.writePlain("Account: guest (no OAuth token)\n")
		return nil
	}

	if err := session.Verify(ctx, r.httpClient, sc.ClientID, sc.OAuthToken); err != nil {
		r.writePlain("Account: ✗ OAuth token rejected (%v)\n", err)
		return nil
	}
	r.writePlain("Account: ✓ OAuth token valid\n")
	return nil
}

// sessionCommand handles session discovery and OAuth token management
func sessionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Manage the SoundCloud web session",
		Commands: []*cli.Command{
			{
				Name:   "bootstrap",
				Usage:  "Discover client_id and app_version from the public site",
				Action: r.SessionBootstrap,
			},
			{
				Name:  "add",
				Usage: "Verify and store a browser-session OAuth token",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "token",
					},
				},
				Action: r.SessionAdd,
			},
			{
				Name:   "status",
				Usage:  "Show the configured session and verify the OAuth token",
				Action: r.SessionStatus,
			},
		},
	}
}
