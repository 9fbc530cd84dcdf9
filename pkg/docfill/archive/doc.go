// Package archive exposes the members of a zip-based office document as
// in-memory text buffers and re-serializes the container.
//
// Only members written through Write are re-encoded on Serialize. Every other
// member, including images and embedded objects, is copied with its original
// compressed bytes, so a document where nothing was written serializes to an
// archive with identical member contents.
package archive
