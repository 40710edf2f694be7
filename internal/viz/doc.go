// Package viz renders closed-loop runs in the terminal.
//
// [Plot] draws a measured series against its setpoint with asciigraph.
// [Live] is a Bubble Tea model that steps a PID loop in real time and lets
// the user retune it while it runs.
//
// # Key Bindings
//
//	Tab     - Select the next parameter
//	Up/K    - Increase the selected parameter
//	Down/J  - Decrease the selected parameter
//	R       - Reset the controller history
//	Space   - Pause/Resume
//	Q       - Quit
//
// The side panel shows the output the controller would produce on the next
// tick for the current measurement, computed without advancing its state.
package viz
