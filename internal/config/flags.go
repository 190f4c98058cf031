package config

import (
	"github.com/spf13/pflag"
)

// Flag names shared by the service commands.
const (
	FlagEnvFile      = "env-file"
	FlagHost         = "host"
	FlagPort         = "port"
	FlagSecret       = "secret"
	FlagDebug        = "debug"
	FlagLogLevel     = "log-level"
	FlagDataDir      = "data-dir"
	FlagDatabasePath = "database-path"
)

// RegisterServiceFlags adds the flags every service understands.
func RegisterServiceFlags(fs *pflag.FlagSet) {
	fs.String(FlagEnvFile, ".env", "dotenv file loaded before the environment is read")
	fs.String(FlagHost, "", "bind host (overrides "+KeyAPI+")")
	fs.Int(FlagPort, 0, "listen port (overrides "+KeyPort+")")
	fs.Bool(FlagDebug, false, "enable debug logging")
	fs.String(FlagLogLevel, "", "log level: trace, debug, info, warn, error")
}

// OverridesFromFlags builds Overrides from the flags that were set
// explicitly. Flags that were not registered are ignored.
func OverridesFromFlags(fs *pflag.FlagSet) Overrides {
	var o Overrides
	if fs.Changed(FlagEnvFile) {
		v, _ := fs.GetString(FlagEnvFile)
		o.EnvFile = &v
	}
	if fs.Changed(FlagHost) {
		v, _ := fs.GetString(FlagHost)
		o.Host = &v
	}
	if fs.Changed(FlagPort) {
		v, _ := fs.GetInt(FlagPort)
		o.Port = &v
	}
	if fs.Changed(FlagSecret) {
		v, _ := fs.GetString(FlagSecret)
		o.Secret = &v
	}
	if fs.Changed(FlagDebug) {
		v, _ := fs.GetBool(FlagDebug)
		o.Debug = &v
	}
	if fs.Changed(FlagLogLevel) {
		v, _ := fs.GetString(FlagLogLevel)
		o.LogLevel = &v
	}
	if fs.Changed(FlagDataDir) {
		v, _ := fs.GetString(FlagDataDir)
		o.DataDir = &v
	}
	if fs.Changed(FlagDatabasePath) {
		v, _ := fs.GetString(FlagDatabasePath)
		o.DatabasePath = &v
	}
	return o
}
