// Package config manages the system-wide settings stored at
// /etc/acpisetup/config.yaml. Every key has a default and can be overridden
// with an ACPISETUP_-prefixed environment variable. The file is validated
// against an embedded JSON schema before it is used or written.
package config
