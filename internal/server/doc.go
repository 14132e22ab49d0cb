// Package server runs a receiver in a background receive loop and exposes its
// health, statistics and Prometheus metrics over HTTP.
package server
