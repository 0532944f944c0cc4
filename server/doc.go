// Package server exposes the tool dispatcher over the Model Context
// Protocol, on stdio for subprocess embedding or over streamable HTTP for
// networked clients. Every tool call is funneled through the dispatcher, so
// transport choice never changes validation or error semantics.
package server
