// Package services defines the [Strategy] interface and implements it for each upstream that can
// resolve a video id to audio, or a query to a listing.
//
// # Strategy Interface
//
// A [Strategy] names itself, lists its instances and performs one attempt against one instance.
// It never walks instances on its own; ordering, per-attempt timeouts and fallback live in package resolver.
//
// # Adapters
//
//   - [CobaltService]: POSTs a watch URL to cobalt instances (stream)
//   - [PipedService]: Piped mirrors (stream, search, playlist, trending)
//   - [InvidiousService]: Invidious mirrors (stream, search, playlist, trending)
//   - [InnertubeService]: direct player calls; instances are client identities (stream)
//   - [ScrapeService]: playlist page scraping, optionally enriched through [OEmbedService] (playlist)
//
// # Error Handling
//
// Attempt failures are [models.AttemptError] values built with:
//   - [models.TransportError] : connection, TLS, read failures and deadline expiry
//   - [models.UpstreamStatusError] : non-2xx upstream status
//   - [models.ParseError] : invalid JSON, missing fields, upstream-reported errors
//   - [models.EmptyResultError] : a well-formed response with nothing usable
//
// # Selection
//
// Stream adapters collect [models.Candidate] values and pick one with [SelectBest]: highest bitrate
// among candidates with an absolute URL, first wins on ties.
//
// [APIService] is unrelated to upstreams: it is a raw client for a running purelyd server.
package services
