// Package core holds the onboarding domain: account records, the session,
// the collaborator contracts and the Service that sequences them. Adapters
// for storage, login and the marketplace API depend on this package, never
// the other way around.
package core
