// Package service provides the default request evaluator for warmd.
//
// Evaluator implements session.Executor with a small command language over
// the shared session variables:
//
//	ping [text]          PONG, or text
//	echo <text>          text, spacing preserved
//	set <key> <value>    store value (rest of line) under key
//	get <key>            stored value
//	del <key>            1 if the key existed, else 0
//	keys                 sorted key names, space separated
//	incr <key>           increment an integer value (missing keys start at 0)
//	info                 session id, root, request count and uptime
//	sleep <duration>     pause the worker, e.g. "sleep 250ms"
//
// Command names are case-insensitive. Extra commands can be added with
// Register.
package service
