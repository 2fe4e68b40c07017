// Package registry registers uploaded content ids with the asset
// indexing contract layer.
//
// Registration tells the contract gateway to track a data item as an
// atomic asset. Calls are paced by a token-bucket limiter so consecutive
// registrations are at least Delay apart.
package registry
