package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tunex/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigInit writes the config template to the --config path.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = cmd.String("config")
	}

	r.logger.Info("creating config file from template", "path", path)
	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	r.writePlain("✓ Config written to %s\n\n", path)
	r.writePlain("Next steps:\n")
	r.writePlain("1. Set credentials.spotify.client_id and client_secret (or SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET)\n")
	return r.writePlain("2. Run 'tunex auth login' to read your library\n")
}
