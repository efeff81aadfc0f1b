// Package cli defines the cascade command tree (plan, run, resolve, serve,
// watch, history) on top of app.App. Commands render their results as
// tables or JSON and report failures as an ExitError carrying the process
// exit code.
package cli
