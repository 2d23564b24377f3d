// Package connection provides the warmd line client.
//
//   - client.go: one request per connection over TCP, with dial and IO timeouts
//   - discover.go: resolving a server address from a project's discovery file
package connection
