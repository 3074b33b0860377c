// Package diag defines the diagnostic model shared by the loader, the code
// generator and the build driver.
//
// Diagnostic is the central record: severity, a compact numeric Code with a
// stable string form (INP/GEN/IO/PRJ/OBS families), a short message, the
// primary source.Span and optional notes. Bag collects diagnostics with a
// limit and gives them a deterministic order.
//
// Package diag does not format or print anything; rendering lives in
// internal/diagfmt.
package diag
