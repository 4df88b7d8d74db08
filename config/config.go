package config

import (
	_ "embed"
)

// default herald config
//
//go:embed default.config.yml
var DefaultConfigYml string
