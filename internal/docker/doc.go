// Package docker provides the container launcher for sortie.
//
// It handles forced image removal, image rebuilds from a build context,
// container lifecycle, TTY attachment, and resource cleanup. The Client
// type is the main entry point for all Docker operations.
package docker
