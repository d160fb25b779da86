// Package rotation drives the outer content loop of the show: it owns
// the ordered list of content items, fades panels out and in around
// each change, builds and destroys one carousel engine per displayed
// item, and decides when to advance, either from the engine's
// completion signal or from a fallback breathing timer.
package rotation
