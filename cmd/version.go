// -- cmd/version.go --
package cmd

// Version is dynamically set at build time using -ldflags.
// Example: go build -ldflags="-X 'github.com/xkilldash9x/scanrelay/cmd.Version=v1.2.3'"
var Version = "1.0"
