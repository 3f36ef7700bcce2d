// Package runner executes external commands on behalf of the setup steps.
// Every command carries its own working directory and an elevation flag, so
// callers never change the process-wide working directory and never spell
// out sudo themselves. Exec runs commands for real, DryRun only prints them,
// and Recorder captures them for tests.
package runner
