// Package server runs the one-shot local listener that completes Spotify's authorization-code flow.
//
// # Callback Listener
//
// [Listen] binds the configured address (127.0.0.1:8008 by default), serves two routes, and returns
// as soon as one authorization result arrives:
//   - "/" redirects the browser to the Spotify authorize URL
//   - "/callback" is handled by [OAuthHandler]
//
// The listener is shut down before [Listen] returns. It gives up after [DefaultCallbackTimeout] or
// when the context ends.
//
// # OAuth Callback Handler
//
// [OAuthHandler] validates the state parameter, trades the code for a token through an [ExchangeFunc],
// and sends the result through a channel. Only the first callback is processed.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [Middleware] wraps handlers in
// reverse order (last added executes first). [BasicRouter] implements it over [http.ServeMux] with
// method filtering. [RequestLogger] logs each request at debug level.
package server
