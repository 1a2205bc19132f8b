// Package http exposes the converter over HTTP using echo.
//
// Routes mount under a base path (default /api):
//   - POST {base}/convert: HEAL record in, Dataverse dataset version out
//   - POST {base}/validate: HEAL record in, schema issues out
//   - GET {base}/deployments: configured deployments
//   - GET /healthz
//
// The deployment serving a request is picked from its Host header, so one
// process can answer for both the demo and the production site.
package http
