// Package events defines the solve related events emitted on the event bus.
//
// Available event types:
//   - SolveStarted: a model was encoded and handed to a solver
//   - GapImproved: the termination monitor saw a meaningful gap change
//   - TerminationRequested: the monitor asked the solver to stop
//   - SolveFinished: the solver returned
package events
