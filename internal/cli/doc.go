// Package cli turns the realityserver command line into an app.Config:
// the configuration paths to load, logging options and the port override.
// Help and usage errors surface as an ExitError carrying the exit code.
package cli
