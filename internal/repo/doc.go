// Package repo keeps the local working copy of the kernel module source in
// sync with its remote. Sync always ends on a clean checkout of the remote's
// default branch, whatever state the working copy was left in.
package repo
