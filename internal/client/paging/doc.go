// Package paging accumulates pages of a backend list into one ordered
// sequence per filter context.
//
// Each FilterContext is an independent stream. Loads within a stream run
// one at a time so page N+1 is appended only after page N; loads across
// streams run freely. Reset starts a new generation of a stream, and any
// load still in flight for an older generation is dropped when it returns.
package paging
