// Package viz holds the terminal styling and text charts used by the
// starsys CLI.
//
//   - lipgloss styles for headers, labels and values
//   - [Sparkline]: a one-line chart of a sampled series
//   - [Series]: extracts a body's coordinate column from stored states
package viz
