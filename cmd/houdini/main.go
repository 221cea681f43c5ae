// Houdini collects telemetry from Go HTTP services and delivers it to a
// collector endpoint as JSON over HTTP.
//
// Usage:
//
//	# Run the instrumented demo server
//	houdini serve --config houdini.yaml
//
//	# Push test messages through the pipeline and report delivery
//	houdini send --message "deploy finished" --count 10
//
//	# Check a configuration file
//	houdini validate --config houdini.yaml --output json
//
//	# Show version information
//	houdini version
//
// Without --config the configuration comes from defaults and HOUDINI_*
// environment variables (HOUDINI_DSN, HOUDINI_API_KEY, ...).
package main

func main() {
	Execute()
}
