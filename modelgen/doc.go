/*
Package modelgen runs a decoy generation program over many processes at once.

A run is split into Jobs by Plan, each with its own share of the models and
its own random seed. A Supervisor starts one process per Job and waits for
all of them, and a Consolidator then gathers every worker's structures into
one models directory, optionally completing side chains on the way.

The generator itself is opaque to this package: the Supervisor is given a
CommandFunc that returns the command line for a Job.
*/
package modelgen
