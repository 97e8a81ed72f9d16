// Package publish announces finished graph rebuilds to interested parties,
// such as an evaluator process or an editor, over a persistent socket.io
// connection. A Nop publisher is used when nothing is configured.
package publish
