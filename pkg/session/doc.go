/*
Package session owns the live circuits behind an editor.

A Manager keeps one circuit graph per session, serializes the operations on
each session with refcounted local locks (plus an optional distributed lock
for multi-replica deployments) and writes every edit back to a
ports.CircuitStore so circuits survive a restart.

While a session is simulating, every edit and every user interaction runs one
propagation step. Truth tables are enumerated asynchronously on a clone of the
circuit and tracked as jobs.
*/
package session
