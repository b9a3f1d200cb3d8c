// Package internal contains shared types and utilities for sortie.
//
// It provides configuration loading, logging setup, session management,
// cleanup orchestration, and I/O abstractions used across the docker,
// s3io, cache, and tracks packages.
package internal
