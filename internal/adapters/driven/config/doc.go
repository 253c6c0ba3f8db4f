// Package config holds the typed value map shared by the configuration
// stores, together with key flattening, environment overrides and the
// aliases for the legacy flat configuration layout.
package config
