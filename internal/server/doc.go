// Package server exposes the resolver and relay over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering. The method check
// runs inside the middleware stack, so 405 and preflight responses carry CORS headers too.
//
// # Middleware
//
//   - [Recover] : handler panics become 500 JSON errors
//   - [Logging] : request id (X-Request-ID) and one log line per request
//   - [CORS] : permissive cross-origin headers, 204 for OPTIONS
//   - [RateLimit] : token bucket shared across all clients, 429 when exhausted
//
// # Routes
//
//	GET /stream?v=<id|url>      resolve a stream
//	GET /search?q=<text>        search listing
//	GET /playlist?list=<id|url> playlist listing
//	GET /trending?region=<cc>   trending listing
//	GET /proxy?url=<media url>  range-preserving byte relay ([ProxyHandler])
//	GET /health                 version and registered strategies
//	GET /                       route listing
//
// Resolver exhaustion is a 500 with the attempt log; validation failures are 400.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
