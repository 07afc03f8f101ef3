/*
Package spicker provides a wrapper for clustering structural models with
Spicker.

Spicker takes no arguments. It reads a fixed set of files from its working
directory and writes its report to str.txt in the same directory:

	rep1.tra1   alpha-carbon coordinates of every model (the trajectory)
	rmsinp      number of residues used for the RMSD calculation
	tra.in      the list of trajectory files to cluster
	seq.dat     residue numbers and names of the first model

WriteInput creates all of these, plus file_list, which maps the 1-based
index of each trajectory record back to the model it came from. The report
refers to models only by that index, so ReadReport needs the same list to
recover model paths.

A typical run over a directory of models looks like:

	models, _ := filepath.Glob("models/*.pdb")
	conf := spicker.DefaultConfig
	conf.Clusters = 3
	results, err := conf.Run(ctx, "spicker", models)
*/
package spicker
