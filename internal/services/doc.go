// Package services implements the HTTP collaborators of the application: the catalog metadata API, the
// custom movie REST API and the breached-password range API.
//
// # Catalog
//
// [CatalogClient] talks to TMDB v3 with an API key passed as a query parameter. Requests are paced
// client-side with a [rate.Limiter] sized from the [catalog] config section. A missing key, or the
// placeholder key shipped in the example config, fails fast with [shared.ErrMissingCredentials] before any
// request is made.
//
// # Custom Movies
//
// [MockAPIClient] performs CRUD on /movies and registration on /users against the mock REST API served by
// internal/server (or any json-server compatible backend). [NewCustomMovie] fills the same defaults the web
// client used when registering a movie from a bare video URL.
//
// # Breach Checks
//
// [BreachService] queries the k-anonymity range endpoint with the first five characters of the password's
// SHA-1 digest. Responses are cached per prefix in a [BreachCache] owned by the caller. Every failure is
// soft: the count is zero and a warning is logged.
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrMissingCredentials] : no usable API key, or the API rejected it
//   - [shared.ErrNetworkFailure] : transport failure, unexpected status or undecodable body
//   - [shared.ErrNotFound] : 404 from the API
//   - [shared.ErrInvalidInput] : local validation or a 400 from the API
//   - [shared.ErrDuplicateEmail] : the mock API already has a user with that email
//
// All of them are built on [APIService], the raw request helper.
package services
