package core

// DebugMode controls whether failed builds keep detailed diagnostics.
// When true, build errors carry stack traces captured at the panic site.
var DebugMode = true

// SetDebugMode enables or disables debug mode for the framework.
func SetDebugMode(debug bool) {
	DebugMode = debug
}
