package config

import (
	"os"
	"strconv"
)

// IsDebug reads VITAL_DEBUG; any value strconv.ParseBool accepts as true enables it.
func IsDebug() bool {
	on, _ := strconv.ParseBool(os.Getenv("VITAL_DEBUG"))
	return on
}
