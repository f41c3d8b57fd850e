// Package config loads the service configuration.
//
// Values start from built-in defaults, are overlaid by an optional YAML file and
// then by COMMUNITY_ADMIN_* environment variables, and are validated last.
package config
