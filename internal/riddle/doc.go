// Package riddle produces geography riddles for the buffer pipeline.
//
// # Generators
//
// Two Generator implementations exist:
//
//   - PhasedGenerator: the placeholder source. Runs a configurable number of
//     timed phases, publishing one progress milestone per phase, then draws a
//     riddle from a built-in city pool.
//   - OracleGenerator: the production source. Asks an OpenAI-compatible
//     chat-completion model for a riddle in a strict JSON shape, with
//     retries for transient failures.
//
// Both publish progress notes through the Publisher interface so stream
// subscribers see generation activity in real time. Generators only produce;
// the buffer refiller decides when to run them and where the output goes.
package riddle
