package pipeline

import (
	"github.com/TuftsBCB/decoys/apps/spicker"
	"github.com/TuftsBCB/decoys/pdb"
	"github.com/TuftsBCB/decoys/rmsd"
)

// Spread is how far the kept members of a cluster are from its centroid,
// as carbon-alpha RMSD in Angstroms. It is a check on Spicker's own
// distances, which are measured from the cluster center rather than from
// the centroid model.
type Spread struct {
	Cluster int
	Mean    float64
	Max     float64
}

func clusterSpread(r spicker.Result) (Spread, error) {
	s := Spread{Cluster: r.Index}
	if len(r.Members) < 2 {
		return s, nil
	}
	centroid, err := pdb.Read(r.Centroid)
	if err != nil {
		return s, err
	}
	var sum float64
	for _, m := range r.Members[1:] {
		entry, err := pdb.Read(m.Path)
		if err != nil {
			return s, err
		}
		d, err := rmsd.Entries(centroid, entry)
		if err != nil {
			return s, err
		}
		sum += d
		s.Max = max(s.Max, d)
	}
	s.Mean = sum / float64(len(r.Members)-1)
	return s, nil
}
