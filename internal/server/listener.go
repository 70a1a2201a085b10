package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunex/internal/shared"
	"golang.org/x/oauth2"
)

// DefaultCallbackTimeout bounds how long [Listen] waits for the browser to come back.
const DefaultCallbackTimeout = 2 * time.Minute

// CallbackOptions configures [Listen].
type CallbackOptions struct {
	Addr     string        // host:port to bind, port 0 picks a free one
	AuthURL  string        // where "/" redirects the browser
	State    string        // expected state parameter
	Exchange ExchangeFunc  // trades the returned code for a token
	Timeout  time.Duration // defaults to DefaultCallbackTimeout
	Logger   *log.Logger

	// Ready is called once the listener is bound, with the local URL that starts the flow.
	Ready func(localURL string)
}

// Listen serves the authorization callback until one result arrives, ctx ends, or the timeout
// fires, then shuts the listener down.
//
// "/" redirects to AuthURL and "/callback" receives the code.
func Listen(ctx context.Context, opts CallbackOptions) (*oauth2.Token, error) {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultCallbackTimeout
	}

	oauthHandler := NewOAuthHandler(opts.Exchange, opts.State)
	router := NewBasicRouter()
	router.Use(RequestLogger(logger))
	router.Handle(http.MethodGet, "/{$}", RedirectHandler(opts.AuthURL))
	router.Handler(oauthHandler)

	listener, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind callback listener on %s: %w", opts.Addr, err)
	}

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error shutting down callback listener", "error", err)
		}
	}()

	localURL := "http://" + listener.Addr().String() + "/"
	logger.Info("waiting for authorization callback", "addr", listener.Addr().String())
	if opts.Ready != nil {
		opts.Ready(localURL)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("callback listener error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}
