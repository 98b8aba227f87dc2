// Package api exposes the account, place and image workflows over HTTP.
// Handlers decode and validate requests, call the service layer and turn
// results and failures into JSON responses. Routing lives in cmd/server.
package api
