// Package config provides YAML configuration loading and validation for the rar listener:
// receiver bind address and mode, the metrics HTTP endpoint and logging.
package config
