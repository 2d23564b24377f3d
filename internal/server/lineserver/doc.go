// Package lineserver provides the warm line-per-connection TCP server.
//
// Each TCP connection carries exactly one request: a single line terminated
// by '\n'. The server answers with one line and closes the connection.
//
// Connections flow through a fixed pipeline:
//
//   - listener.go: port scan, bind, accept loop
//   - admission.go: connection cap and optional accept rate limit
//   - queue.go: bounded hand-off from the accept loop to the worker
//   - worker.go: the single goroutine that handles requests in order
//   - reader.go: deadline-bound, length-bound line reading
//   - handler.go: per-connection state machine and response writing
//
// The request line is read as soon as a connection is admitted, so every read
// timeout runs on its own clock; the worker waits for each line in turn.
//
// Exactly one request is executed at a time, so the session.Context shared
// by all requests is never mutated concurrently. The bound port is published
// in a discovery file (see internal/infra/portlock) that is removed on Close
// or, if the process dies first, by a registered exit hook.
package lineserver
