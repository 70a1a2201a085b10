// Package services implements the Spotify Web API transport ([Spotify]) and token acquisition ([Authenticator]).
//
// # Tokens
//
// A [Token] is a plain bearer value. It is obtained once per invocation and passed explicitly into
// every [Catalog] call; no client holds on to it. Re-authentication is an explicit call on the
// [Authenticator].
//
// # Authentication
//
// [Authenticator.AppToken] uses the client credentials grant (golang.org/x/oauth2/clientcredentials)
// for catalog reads that need no user. [Authenticator.UserToken] refreshes a cached refresh token
// through a [TokenStore] and falls back to an [AuthorizeFunc], which runs the browser-based
// authorization-code flow. Refresh tokens are written back to the store; a failed write is only logged.
//
// # Transport
//
// [Spotify] issues one GET per page or chunk. Requests are paced by a golang.org/x/time/rate limiter
// and never retried. Page cursors are the absolute next URLs returned by the API and must stay on the
// API host.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.StatusError] : non-2xx response, unwraps to [shared.ErrAPIRequest]
//   - [shared.ErrAPIRequest] : transport or decode failure
//   - [shared.ErrAuthFailed] : token grant rejected or empty token
//   - [shared.ErrTrackNotFound] : search returned no match
//   - [shared.ErrNoRefreshToken] : no usable cached token and no interactive flow
package services
