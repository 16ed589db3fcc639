// Package app contains the server process. It wires the object registry, the
// screen bridge and the compiled-in hardware interfaces together, serves the
// HTTP API and the editor socket.io hub, and owns the process lifecycle,
// decoupled from any specific entrypoint like a CLI.
package app
