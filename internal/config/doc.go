// Package config loads and validates application settings from config files
// and STOCKQ_-prefixed environment variables. Every component receives its
// settings as a typed struct; nothing else in the codebase reads the
// environment directly.
package config
