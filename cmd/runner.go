package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunex/internal/formatter"
	"github.com/desertthunder/tunex/internal/server"
	"github.com/desertthunder/tunex/internal/services"
	"github.com/desertthunder/tunex/internal/shared"
	"github.com/desertthunder/tunex/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Configuration, the authenticator and the Spotify transport are built on first use so that
// commands like `config init` work without credentials.
type Runner struct {
	config      *shared.Config
	configPath  string
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	notices     io.Writer
	openBrowser func(url string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config // skips loading the config file when set
	ConfigPath  string
	HTTPClient  *http.Client // used for both the API and the accounts service
	Logger      *log.Logger
	Output      io.Writer // command results, defaults to stdout
	Notices     io.Writer // prompts for the user, defaults to stderr
	OpenBrowser func(url string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Notices == nil {
		opts.Notices = os.Stderr
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		notices:     opts.Notices,
		openBrowser: opts.OpenBrowser,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		playlistCommand, albumCommand, searchCommand, libraryCommand, authCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the configuration once per run.
//
// A missing config file falls back to the embedded defaults unless --config named it explicitly.
// Credentials from flags or the environment override the file.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config == nil {
		path := r.configPath
		if path == "" {
			path = cmd.String("config")
		}

		if _, err := os.Stat(path); err == nil {
			config, err := shared.LoadConfig(path)
			if err != nil {
				return nil, err
			}
			r.config = config
			r.logger.Debug("loaded config", "path", path)
		} else if cmd.IsSet("config") {
			return nil, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
		} else {
			r.logger.Debug("config file not found, using defaults", "path", path)
			r.config = shared.DefaultConfig()
		}
	}

	if id := cmd.String("client-id"); id != "" {
		r.config.Credentials.Spotify.ClientID = id
	}
	if secret := cmd.String("client-secret"); secret != "" {
		r.config.Credentials.Spotify.ClientSecret = secret
	}

	return r.config, nil
}

func (r *Runner) tokenStore(config *shared.Config) *shared.TokenCache {
	return shared.NewTokenCache(config.Cache.TokenPath)
}

func (r *Runner) authenticator(config *shared.Config) (*services.Authenticator, error) {
	spotify := config.Credentials.Spotify
	return services.NewAuthenticator(services.AuthOptions{
		ClientID:     spotify.ClientID,
		ClientSecret: spotify.ClientSecret,
		RedirectURI:  spotify.RedirectURI,
		Scopes:       spotify.Scopes,
		AccountsURL:  config.API.AccountsURL,
		HTTPClient:   r.httpClient,
		Logger:       r.logger,
	})
}

// authorizeFunc runs the browser flow: a one-shot callback listener whose root redirects to the
// Spotify consent page.
func (r *Runner) authorizeFunc(config *shared.Config, auth *services.Authenticator, showDialog bool) services.AuthorizeFunc {
	return func(ctx context.Context) (*oauth2.Token, error) {
		state, err := shared.GenerateState()
		if err != nil {
			return nil, err
		}

		authURL := auth.AuthURL(state, showDialog)
		return server.Listen(ctx, server.CallbackOptions{
			Addr:     config.Server.CallbackAddr(),
			AuthURL:  authURL,
			State:    state,
			Exchange: auth.Exchange,
			Logger:   r.logger,
			Ready: func(localURL string) {
				r.notify("→ Opening browser for Spotify authorization...\n")
				if err := r.openBrowser(localURL); err != nil {
					r.logger.Warn("failed to open browser automatically", "error", err)
					r.notify("⚠ Could not open browser automatically.\nPlease open this URL in your browser:\n%s\n\n", authURL)
				}
				r.notify("→ Waiting for authorization (%s timeout)...\n", server.DefaultCallbackTimeout)
			},
		})
	}
}

// access selects which kind of token an operation needs.
type access int

const (
	appAccess  access = iota // client credentials, public catalog data
	userAccess               // authorization code, the user's library
)

func (r *Runner) token(ctx context.Context, cmd *cli.Command, config *shared.Config, kind access) (services.Token, error) {
	auth, err := r.authenticator(config)
	if err != nil {
		return "", err
	}

	if kind == appAccess {
		return auth.AppToken(ctx)
	}

	store := r.tokenStore(config)
	if cmd.Bool("reauth") {
		return auth.Authorize(ctx, store, r.authorizeFunc(config, auth, true))
	}
	return auth.UserToken(ctx, store, r.authorizeFunc(config, auth, false))
}

func (r *Runner) engine(config *shared.Config, progress chan<- tasks.ProgressUpdate) (*tasks.Engine, error) {
	spotify, err := services.NewSpotify(services.SpotifyOptions{
		BaseURL:           config.API.BaseURL,
		HTTPClient:        r.httpClient,
		Timeout:           config.API.Timeout(),
		RequestsPerSecond: config.API.RequestsPerSecond,
		PageLimit:         config.API.PageLimit,
		Logger:            r.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify client: %w", err)
	}

	return tasks.NewEngine(spotify, tasks.Options{
		MaxPages:          config.API.MaxPages,
		FeaturesBatchSize: config.API.FeaturesBatchSize,
		Logger:            r.logger,
		Progress:          progress,
	}), nil
}

// trackProgress logs engine progress until the returned stop function is called.
func (r *Runner) trackProgress() (chan<- tasks.ProgressUpdate, func()) {
	updates := make(chan tasks.ProgressUpdate, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for u := range updates {
			if u.Total > 0 && u.Phase != tasks.Done {
				r.logger.Info(u.Message, "phase", u.Phase, "step", u.Step, "total", u.Total)
			} else {
				r.logger.Info(u.Message, "phase", u.Phase)
			}
		}
	}()

	return updates, func() {
		close(updates)
		wg.Wait()
	}
}

// operation is one engine call, bound to its arguments.
type operation func(ctx context.Context, engine *tasks.Engine, token services.Token, withFeatures bool) (tasks.Result, error)

// run executes a data command: resolve config and token, run the engine, then write the result.
//
// Nothing is written unless the whole result was collected.
func (r *Runner) run(ctx context.Context, cmd *cli.Command, kind access, op operation) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}

	if timeout := cmd.Duration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	token, err := r.token(ctx, cmd, config, kind)
	if err != nil {
		return err
	}

	progress, stop := r.trackProgress()
	engine, err := r.engine(config, progress)
	if err != nil {
		stop()
		return err
	}

	result, err := op(ctx, engine, token, cmd.Bool("with-features"))
	stop()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", shared.ErrTimeout, err)
		}
		return err
	}

	return r.writeResult(result, format, cmd.Bool("pretty"), cmd.String("output"))
}

func (r *Runner) writeResult(result tasks.Result, format formatter.Format, pretty bool, path string) error {
	if path == "" {
		return formatter.Write(r.output, result, format, pretty)
	}

	if err := formatter.WriteFile(path, result, format, pretty); err != nil {
		return err
	}
	r.logger.Info("wrote tracks", "count", len(result.Records), "file", path, "format", format)
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) notify(format string, args ...any) {
	fmt.Fprintf(r.notices, format, args...)
}
