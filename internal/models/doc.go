// Package models defines the per-request entities of the purelyd resolution core.
//
// Nothing in this package is persisted or shared across requests:
//   - [Capability] : what kind of content is requested (stream, search, playlist, trending)
//   - [Candidate] : one media track option reported by an upstream
//   - [ResolvedItem] : the normalized winning stream with an absolute media URL
//   - [Listing] / [ListingItem] : normalized search, playlist and trending results
//   - [Attempt] / [AttemptLog] : the diagnostic trail of one resolution call
//   - [Resolution] : the success side of a resolution result
//
// Failures are described by [AttemptError], built with [TransportError], [UpstreamStatusError], [ParseError]
// and [EmptyResultError]. Strategies return them; the resolver records them as attempts and only surfaces
// an [ExhaustedError] once every strategy has failed.
package models
