// Package providers contains the marketplace login provider: an OAuth2
// authorization code flow with PKCE whose redirect lands on a local loopback
// listener.
package providers
