// Package apperr defines the error taxonomy shared by the request pipeline.
// It is a leaf package with no internal imports, allowing any package
// (including low-level infrastructure like doh and resolver) to use the
// sentinels without creating import cycles.
package apperr
