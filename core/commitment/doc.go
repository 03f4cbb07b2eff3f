// Package commitment encodes unit commitment problems as mixed-integer
// quadratic programs. For every unit g and interval t it creates
//
//	output[g,t]     continuous, >= 0
//	committed[g,t]  binary, 1 while the unit is on
//	startup[g,t]    binary, 1 when the unit turns on at the start of t
//	shutdown[g,t]   binary, 1 when the unit turns off at the start of t
//
// minimizes the sum of fixed, linear, quadratic, startup and shutdown costs
// and adds power balance, transition and indicator-gated output limits.
// EncodeElementwise and EncodeBulk build the same model; the first adds one
// variable and one constraint at a time, the second works on whole index
// ranges with gonum matrices.
//
// Consecutive intervals are only coupled through the transition equations:
// there are no minimum up or down times.
package commitment
