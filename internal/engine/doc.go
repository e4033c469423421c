// Package engine is the capability provider the shell delegates to: it
// fetches pages, runs transfers, saves pages to disk and evaluates small
// scripts against a loaded page. It reports transfer lifecycle through a
// download.Sink and never touches UI state.
//
// Rendering and layout are out of scope; a Page is the parsed document plus
// its readable text.
package engine
