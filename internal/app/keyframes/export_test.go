// internal/app/keyframes/export_test.go
package keyframes

// Bridges for the package's external tests.
var (
	ParseBlob      = parseBlob
	CountKeyframes = countKeyframes
)
