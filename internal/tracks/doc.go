// Package tracks implements the sorting pipeline: discovering source tracks,
// caching them locally, deriving destination keys from their ID3 tags, and
// re-uploading them in sorted order.
package tracks
