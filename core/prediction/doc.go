// Package prediction supplies distributions of predicted monthly peak demand
// (kW). Each value is one Monte Carlo sample of a future monthly peak. The
// package does not forecast on its own: it loads samples produced elsewhere
// or synthesises them for demos.
package prediction
