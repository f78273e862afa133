// Package ytmeta resolves video metadata and caption transcripts for
// imported videos.
package ytmeta
