// Package cli provides the interactive ontop command-line client.
//
// It wires configuration, the local store, the session, the connectivity
// monitor, the sync queue and worker, and an interactive REPL. Every edit is
// saved locally first; the status line shows whether the server is
// reachable and how many changes are still waiting to be delivered.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
