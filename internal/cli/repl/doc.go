// Package repl provides the interactive shell behind "warmd shell".
//
// Each line typed is sent as one request to the running server and the
// response is printed. Lines starting with a backslash are shell built-ins
// (\help, \history, \quit); "exit" and "quit" also leave the shell.
package repl
