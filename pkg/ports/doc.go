/*
Package ports defines the driven ports of the simulator.

  - CircuitStore persists circuit documents by name. Sessions use it to
    survive restarts.
  - DistributedLocker coordinates access to a session across replicas.

RunCircuitStoreContract is the shared test suite every CircuitStore adapter
runs.
*/
package ports
