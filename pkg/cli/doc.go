/*
Package cli provides shared helpers for the vulcan command-line interface.

It contains the typed errors commands return (ConfigError, CommandError)
and signal handling for graceful shutdown:

	ctx := cli.SetupSignalHandler()
	// ctx is cancelled on SIGINT or SIGTERM
*/
package cli
