// Package cli defines the Cobra command tree for the acpisetup CLI. The root
// command performs the setup itself; each other file registers one
// subcommand. Commands only parse flags, wire collaborators, and format
// output; the work happens in the internal packages.
package cli
