// Package driving defines interfaces that external actors (CLI, daemon API,
// MCP clients, scheduler) use to interact with core services. These are the
// "driving" ports in hexagonal architecture terminology.
//
// Most implementations live in internal/core/services; AccountService is
// implemented by the auth adapter because sign-in is provider specific.
package driving
