// Package config handles configuration loading, parsing, and validation
// from environment variables, an optional .env file and an optional YAML
// file. It provides type-safe access to the settings of the server, the
// item store, the snapshot store and the daily study goals.
package config
