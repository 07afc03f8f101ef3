/*
Package rosetta builds command lines for generating decoys with Rosetta's
AbinitioRelax (or its membrane variant) and reads the files Rosetta writes.

Rosetta is never run by this package. A Config describes one folding setup
and Command turns it into the arguments for a single worker, which is
usually run by a modelgen.Supervisor.
*/
package rosetta
