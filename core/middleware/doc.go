// Package middleware contains HTTP middleware for the Fiber application.
//
// It provides cross-cutting concerns that sit between the request and the handler.
//
// # Components
//
//   - Auth: Implements API key validation to protect the layout and schedule
//     endpoints.
//   - RayID: Generates a unique Request ID (RayID) for every incoming request,
//     injecting it into the context and response headers so handler logs can
//     be correlated via logger.WithRayID.
//
// Both are registered globally in the start command, rayid first so the auth
// rejection logs still carry a ray id.
package middleware
