// Package api exposes the study session and the item collection over HTTP.
// Handlers translate requests into session machine and item store calls and
// map their errors onto status codes with safe client messages.
package api
