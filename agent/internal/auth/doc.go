// Package auth protects the agent's status API.
//
// APIKey(mode, header, key) wraps an http.Handler and rejects requests whose
// header value does not match key. With mode "none" or an empty key it is a
// pass-through, so the API stays open unless a key is configured.
package auth
