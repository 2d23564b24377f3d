// Package domain defines the error catalog for warmd.
//
// Every failure that crosses a component boundary is a *DomainError with a
// stable code:
//
//   - Startup errors (LOCK, ROOT, PORT) abort Start with no partial state
//   - Connection errors (CONN, EXEC) become one "ERROR: " response line
//   - Argument errors (ARG) are returned by executors for malformed commands
//
// Errors compare by code, so errors.Is matches a copy carrying details or a
// cause against the catalog value.
package domain
