// Package models defines the persisted documents and catalog types of the streamsavvy client.
//
// The package contains two categories of types:
//
// 1. Persisted documents: weakly-typed JSON stored under stable keys by the store adapter
//   - [Identity] : a locally registered user, stored in the identity collection
//   - [Session] : what the current context believes about authentication and payment
//   - [Account] : secondary snapshot of the last user and payment flag
//   - [WatchlistEntry] : a denormalized copy of a saved media item
//   - [Notification] : an ephemeral UI signal, capped and deduplicated
//
// 2. Collaborator DTOs: shapes returned by external APIs
//   - [CatalogItem], [CatalogDetails], [CatalogPage] : TMDB metadata
//   - [CustomMovie] : a user-registered movie served by the mock REST API
//
// Watchlist entries are identified by a [MediaKey], a tagged union of catalog movie, catalog tv and custom ids,
// so catalog ids and locally-assigned custom ids never collide.
package models
