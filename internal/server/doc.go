// Package server hosts the companion daemon's HTTP surface: the OAuth
// redirect endpoint, the browser extension's content CRUD, the relay's
// websocket event stream, and health reporting.
//
// Routing follows a small [Router] interface over [http.ServeMux] with
// method-qualified patterns; endpoint groups implement [Handler] and
// register their own routes.
package server
