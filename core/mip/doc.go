// Package mip holds the intermediate representation handed to optimization
// solvers: typed and bounded variables, linear and quadratic expressions, a
// single objective and a tagged constraint set made of linear, quadratic and
// indicator constraints.
//
// Variables can be created one at a time (AddVar) or as whole blocks
// (AddBlock) and constraints can be added one by one or as the rows of a
// gonum matrix (AddMatrixConstraints, AddIndicatorBlock). Both paths produce
// the same descriptors, so models built in either style can be compared with
// Canonical.
package mip
