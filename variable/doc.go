// Package variable implements validated get/set access to the named variables
// a model declares. Every name is checked against the handle's cached catalog
// before the engine is touched, translating catalog mismatches into typed
// errors and keeping half-applied writes off the engine: a multi-set request
// validates every name first and only then writes.
package variable
