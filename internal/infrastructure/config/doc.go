// Package config handles configuration loading for Lumen.
//
// Configuration is layered: hardcoded defaults, then a YAML file, then
// LUMEN_* environment variables, then validation. Both binaries (lumenctl
// and lumend) share one schema; each reads only the sections it needs.
//
// Running without a config file is supported; Default() yields a working
// configuration for a local unauthenticated broker on domain 0.
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	deadline := cfg.Issuer.AckDeadline()
package config
