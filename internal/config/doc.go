// Package config provides configuration management for itrun.
//
// This package implements a layered configuration system that allows users to
// customize how the service under test is started, how readiness is detected
// and how test programs are invoked. Configuration is loaded from multiple
// sources and merged in a specific order, with later sources overriding
// earlier ones.
//
// # Configuration Layers
//
// Configuration is loaded and merged in the following order:
//
//  1. Default Configuration (embedded in binary)
//     - Starts the proxy test server with `go run main/test-server.go`
//     - Runs `.js` files with the `mongo` shell on port 8000
//
//  2. User Configuration (~/.config/itrun/config.yaml)
//     - User-specific settings that apply to all projects
//
//  3. Project Configuration (./.itrun/config.yaml)
//     - Project-specific settings in the current directory
//     - Allows teams to share configuration via version control
//
//  4. Explicit file passed with --config
//
// Command-line flags are applied on top by the cmd package.
//
// # Configuration Structure
//
//	service:
//	  command: ["go", "run", "main/test-server.go"]
//	  port: 8000
//	  logLevel: 1
//	  portFlag: "-port=%d"
//	  logLevelFlag: "-logLevel=%d"
//	  shutdownTimeout: 10s
//
//	readiness:
//	  mode: delay        # or "probe"
//	  warmUp: 2s
//	  timeout: 30s
//	  initialBackoff: 100ms
//	  maxBackoff: 2s
//
//	tests:
//	  suffix: ".js"
//	  runner: ["mongo"]
//	  portFlag: "--port=%d"
//
//	envFile: ".env"
//	logDir: "logs"
//	reportPath: "reports"
//
// # Environment File
//
// When envFile is set, the file is read with godotenv and its variables are
// added to the environment of the service and of every test subprocess.
package config
