// Package request executes one HTTP request over a resolving client and
// reduces the outcome to a Result: the response body on success, or an
// *apperr.Error classifying what went wrong.
//
// Execute never retries. Every call produces exactly one Result, delivered
// through a Future that is fulfilled once.
package request
