package params

const (
	// EnvPrefix prefixes every environment variable read by viper, eg. ORTOMAP_MAPS.
	EnvPrefix = "ORTOMAP"

	// ConfigName is the base name of the optional config file in $HOME.
	ConfigName = ".ortomap"
)
