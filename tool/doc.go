// Package tool implements the dispatch engine: the single entry point the
// transport layer depends on. Each operation is registered as a named tool
// with a declared JSON-object schema; dispatch validates the payload against
// that schema, converts it to a typed request, invokes the orchestration
// layer and normalizes every outcome into a uniform result/error envelope.
//
// The transport stays ignorant of internal component boundaries: every
// operation is reachable exclusively through Dispatcher.Dispatch.
package tool
