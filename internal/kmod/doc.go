// Package kmod builds, installs, and loads an out-of-tree kernel module from
// its source directory with make, depmod, and modprobe.
package kmod
