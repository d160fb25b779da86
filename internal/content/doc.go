// Package content defines the slideshow data model: content items with
// their image variations, the manifest the daemon serves, markdown
// parsing for authored content, and the visual style library.
package content
