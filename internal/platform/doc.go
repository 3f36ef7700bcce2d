// Package platform decides whether the host can be set up at all and reports
// facts about the running kernel.
package platform
