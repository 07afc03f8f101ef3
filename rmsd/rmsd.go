/*
Package rmsd computes the root mean square deviation between two structures
after optimal superposition.

The superposition is never built. Instead, the RMSD is read off the largest
eigenvalue of the quaternion characteristic polynomial (QCP) of the two
centered coordinate sets, which is found with Newton's method:

	Douglas L. Theobald (2005)
	"Rapid calculation of RMSD using a quaternion-based characteristic
	polynomial."
	Acta Crystallographica A 61(4):478-480.
*/
package rmsd

import (
	"errors"
	"fmt"
	"math"

	"github.com/TuftsBCB/decoys/pdb"
)

const (
	maxIterations = 50
	evalPrecision = 1e-11
)

// Entries returns the RMSD between the carbon-alpha atoms of two entries.
func Entries(e1, e2 *pdb.Entry) (float64, error) {
	if e1.Len() != e2.Len() {
		return 0, fmt.Errorf("'%s' has %d carbon-alpha atoms but '%s' has %d.",
			e1.Path, e1.Len(), e2.Path, e2.Len())
	}
	return Atoms(e1.CaAtoms, e2.CaAtoms)
}

// Atoms returns the RMSD between two equal length sets of atoms, pairing
// atoms by position.
func Atoms(struct1, struct2 []pdb.Atom) (float64, error) {
	if len(struct1) != len(struct2) {
		return 0, fmt.Errorf("Computing the RMSD of two structures requires "+
			"that they have equal length, but they have lengths %d and %d.",
			len(struct1), len(struct2))
	}
	if len(struct1) == 0 {
		return 0, errors.New("Cannot compute the RMSD of empty structures.")
	}
	c1 := make([]pdb.Coords, len(struct1))
	c2 := make([]pdb.Coords, len(struct2))
	for i := range struct1 {
		c1[i], c2[i] = struct1[i].Coords, struct2[i].Coords
	}
	return QCP(c1, c2), nil
}

// QCP returns the RMSD between two coordinate sets of the same non-zero
// length. Neither slice is modified.
func QCP(c1, c2 []pdb.Coords) float64 {
	n := len(c1)
	x, y := centered(c1), centered(c2)

	// E0 is half the sum of squared norms; A is the inner product matrix.
	var e0 float64
	var a [3][3]float64
	for i := range n {
		e0 += dot(x[i], x[i]) + dot(y[i], y[i])
		xi := [3]float64{x[i].X, x[i].Y, x[i].Z}
		yi := [3]float64{y[i].X, y[i].Y, y[i].Z}
		for r := range 3 {
			for c := range 3 {
				a[r][c] += xi[r] * yi[c]
			}
		}
	}
	e0 *= 0.5

	lambda := maxEigenvalue(a, e0)
	return math.Sqrt(math.Abs(2 * (e0 - lambda) / float64(n)))
}

// maxEigenvalue finds the largest root of the characteristic polynomial of
// the 4x4 key matrix built from a, starting from the upper bound e0.
func maxEigenvalue(a [3][3]float64, e0 float64) float64 {
	sxx, sxy, sxz := a[0][0], a[0][1], a[0][2]
	syx, syy, syz := a[1][0], a[1][1], a[1][2]
	szx, szy, szz := a[2][0], a[2][1], a[2][2]

	sxx2, syy2, szz2 := sxx*sxx, syy*syy, szz*szz
	sxy2, syz2, sxz2 := sxy*sxy, syz*syz, sxz*sxz
	syx2, szy2, szx2 := syx*syx, szy*szy, szx*szx

	syzSzyMinusSyySzz2 := 2 * (syz*szy - syy*szz)
	sxx2Syy2Szz2Syz2Szy2 := syy2 + szz2 - sxx2 + syz2 + szy2
	sxy2Sxz2Syx2Szx2 := sxy2 + sxz2 - syx2 - szx2

	sxzPszx, syzPszy, sxyPsyx := sxz+szx, syz+szy, sxy+syx
	syzMszy, sxzMszx, sxyMsyx := syz-szy, sxz-szx, sxy-syx
	sxxPsyy, sxxMsyy := sxx+syy, sxx-syy

	// The polynomial is x^4 + c2*x^2 + c1*x + c0.
	c2 := -2 * (sxx2 + syy2 + szz2 + sxy2 + syx2 + sxz2 + szx2 + syz2 + szy2)
	c1 := 8 * (sxx*syz*szy + syy*szx*sxz + szz*sxy*syx -
		sxx*syy*szz - syz*szx*sxy - szy*syx*sxz)
	c0 := sxy2Sxz2Syx2Szx2*sxy2Sxz2Syx2Szx2 +
		(sxx2Syy2Szz2Syz2Szy2+syzSzyMinusSyySzz2)*
			(sxx2Syy2Szz2Syz2Szy2-syzSzyMinusSyySzz2) +
		(-sxzPszx*syzMszy+sxyMsyx*(sxxMsyy-szz))*
			(-sxzMszx*syzPszy+sxyMsyx*(sxxMsyy+szz)) +
		(-sxzPszx*syzPszy-sxyPsyx*(sxxPsyy-szz))*
			(-sxzMszx*syzMszy-sxyPsyx*(sxxPsyy+szz)) +
		(sxyPsyx*syzPszy+sxzPszx*(sxxMsyy+szz))*
			(-sxyMsyx*syzMszy+sxzPszx*(sxxPsyy+szz)) +
		(sxyPsyx*syzMszy+sxzMszx*(sxxMsyy-szz))*
			(-sxyMsyx*syzPszy+sxzMszx*(sxxPsyy-szz))

	lambda := e0
	for range maxIterations {
		old := lambda
		x2 := lambda * lambda
		b := (x2 + c2) * lambda
		p := b + c1
		lambda -= (p*lambda + c0) / (2*x2*lambda + b + p)
		if math.Abs(lambda-old) < math.Abs(evalPrecision*lambda) {
			break
		}
	}
	return lambda
}

// centered returns a copy of cs translated so its centroid is the origin.
func centered(cs []pdb.Coords) []pdb.Coords {
	var mid pdb.Coords
	for _, c := range cs {
		mid.X += c.X
		mid.Y += c.Y
		mid.Z += c.Z
	}
	n := float64(len(cs))
	mid.X, mid.Y, mid.Z = mid.X/n, mid.Y/n, mid.Z/n

	out := make([]pdb.Coords, len(cs))
	for i, c := range cs {
		out[i] = pdb.Coords{X: c.X - mid.X, Y: c.Y - mid.Y, Z: c.Z - mid.Z}
	}
	return out
}

func dot(a, b pdb.Coords) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}
