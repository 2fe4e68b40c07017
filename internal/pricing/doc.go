// Package pricing queries upload prices and balances.
//
// Every query is a read-only HTTP GET. Results are returned as Amount,
// which keeps the atomic integer value and converts to display units
// with a fixed 10^12 divisor: winc to credits for the payment service,
// winston to AR for bundling nodes and gateways.
//
// Failures here never block an upload. Summary collects every figure it
// can and leaves the rest unknown.
package pricing
