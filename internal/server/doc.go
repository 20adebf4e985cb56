// Package server provides the mock REST API that custom movies and remote user registration talk to.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method-qualified patterns ("GET /api/movies/{id}").
//
// # Resources
//
// [CollectionHandler] implements the [Handler] interface for one collection of a [JSONDB], the json-server
// shape of a flat JSON file with one array per collection:
//
//	GET    /api/{collection}        list, filtered by ?field=value
//	POST   /api/{collection}        create; ids are time-derived integers
//	GET    /api/{collection}/{id}   read
//	PUT    /api/{collection}/{id}   replace
//	PATCH  /api/{collection}/{id}   merge
//	DELETE /api/{collection}/{id}   delete
//
// Users are created through [RejectDuplicateEmail], which answers 400 {"error":"Email already in use"} when
// the email is taken.
//
// # Middleware
//
// [CORS] allows any origin. [Delay] simulates network latency, 300ms in the default config. [Logging] writes one
// line per request and [Recover] turns panics into 500 responses.
package server
