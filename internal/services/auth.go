package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunex/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const spotifyAccountsURL = "https://accounts.spotify.com"

// TokenStore persists refresh tokens between runs. [shared.TokenCache] implements it.
type TokenStore interface {
	Load() (string, error)
	Save(token *oauth2.Token) error
}

// AuthorizeFunc runs the interactive authorization-code flow and returns the exchanged token.
type AuthorizeFunc func(ctx context.Context) (*oauth2.Token, error)

// AuthOptions configures [NewAuthenticator].
type AuthOptions struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	AccountsURL  string
	HTTPClient   *http.Client
	Logger       *log.Logger
}

// Authenticator exchanges Spotify app credentials for bearer tokens.
//
// App-only tokens come from the client credentials grant. User tokens come from a cached refresh
// token or, failing that, the interactive authorization-code flow.
type Authenticator struct {
	config     *oauth2.Config
	httpClient *http.Client
	logger     *log.Logger
}

// NewAuthenticator creates an Authenticator. ClientID and ClientSecret are required.
func NewAuthenticator(opts AuthOptions) (*Authenticator, error) {
	if opts.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	accounts := strings.TrimRight(opts.AccountsURL, "/")
	if accounts == "" {
		accounts = spotifyAccountsURL
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	config := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		RedirectURL:  opts.RedirectURI,
		Scopes:       opts.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   accounts + "/authorize",
			TokenURL:  accounts + "/api/token",
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	return &Authenticator{
		config:     config,
		httpClient: opts.HTTPClient,
		logger:     shared.WithLogger(logger, "service", "auth"),
	}, nil
}

// OAuthConfig returns the authorization-code configuration.
func (a *Authenticator) OAuthConfig() *oauth2.Config {
	return a.config
}

// AuthURL returns the URL the user visits to grant access. showDialog forces Spotify to ask again
// even when access was already granted.
func (a *Authenticator) AuthURL(state string, showDialog bool) string {
	opts := []oauth2.AuthCodeOption{}
	if showDialog {
		opts = append(opts, oauth2.SetAuthURLParam("show_dialog", "true"))
	}
	return a.config.AuthCodeURL(state, opts...)
}

// context attaches the configured HTTP client for the oauth2 package to use.
func (a *Authenticator) context(ctx context.Context) context.Context {
	if a.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
}

// AppToken requests an app-only token with the client credentials grant.
func (a *Authenticator) AppToken(ctx context.Context) (Token, error) {
	cc := clientcredentials.Config{
		ClientID:     a.config.ClientID,
		ClientSecret: a.config.ClientSecret,
		TokenURL:     a.config.Endpoint.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	tok, err := cc.Token(a.context(ctx))
	if err != nil {
		return "", authError("client credentials grant", a.config.Endpoint.TokenURL, err)
	}

	a.logger.Debug("obtained app token", "expires", tok.Expiry)
	return Token(tok.AccessToken), nil
}

// Exchange trades an authorization code for a token.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := a.config.Exchange(a.context(ctx), code)
	if err != nil {
		return nil, authError("authorization code exchange", a.config.Endpoint.TokenURL, err)
	}
	return tok, nil
}

// Refresh trades a refresh token for a new access token. Spotify may omit a new refresh token,
// in which case the returned token carries the one passed in.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	tok, err := a.config.TokenSource(a.context(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, authError("refresh token grant", a.config.Endpoint.TokenURL, err)
	}
	return tok, nil
}

// Authorize runs the interactive flow and stores the resulting refresh token.
//
// A failure to store is logged and does not fail the call.
func (a *Authenticator) Authorize(ctx context.Context, store TokenStore, authorize AuthorizeFunc) (Token, error) {
	if authorize == nil {
		return "", fmt.Errorf("%w: no cached refresh token and interactive authorization is unavailable", shared.ErrNoRefreshToken)
	}

	tok, err := authorize(ctx)
	if err != nil {
		return "", err
	}
	if tok == nil || tok.AccessToken == "" {
		return "", fmt.Errorf("%w: authorization returned no access token", shared.ErrAuthFailed)
	}

	a.store(store, tok)
	return Token(tok.AccessToken), nil
}

// UserToken returns a user-delegated token, preferring the refresh token in store and falling
// back to authorize when none is cached or the cached one is rejected.
func (a *Authenticator) UserToken(ctx context.Context, store TokenStore, authorize AuthorizeFunc) (Token, error) {
	if store != nil {
		refreshToken, err := store.Load()
		switch {
		case err == nil:
			tok, err := a.Refresh(ctx, refreshToken)
			if err == nil {
				a.logger.Debug("refreshed user token from cache")
				a.store(store, tok)
				return Token(tok.AccessToken), nil
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			a.logger.Warn("cached refresh token rejected, authorizing again", "error", err)
		case errors.Is(err, shared.ErrNoRefreshToken):
			a.logger.Debug("no cached refresh token")
		default:
			a.logger.Warn("could not read token cache", "error", err)
		}
	}

	return a.Authorize(ctx, store, authorize)
}

func (a *Authenticator) store(store TokenStore, tok *oauth2.Token) {
	if store == nil {
		return
	}
	if err := store.Save(tok); err != nil {
		a.logger.Warn("failed to cache refresh token", "error", err)
	}
}

// authError maps an oauth2 failure onto [shared.ErrAuthFailed], keeping the accounts service message.
func authError(grant, tokenURL string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		statusErr := shared.NewStatusError(retrieveErr.Response.StatusCode, tokenURL, retrieveErr.Body)
		return fmt.Errorf("%w: %s: %s", shared.ErrAuthFailed, grant, statusErr.Error())
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", shared.ErrAuthFailed, grant, err)
	}
	return fmt.Errorf("%w: %s: %v", shared.ErrAuthFailed, grant, err)
}
