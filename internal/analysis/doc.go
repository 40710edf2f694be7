// Package analysis extracts figures of merit from recorded closed-loop
// responses.
//
//   - [DominantFrequency]: strongest oscillation in a sampled signal (FFT)
//   - [Step]: overshoot, rise time, settling time and steady-state error
//
// Both work on plain slices so they apply equally to a fresh simulation
// result and to series loaded back from the run store.
package analysis
