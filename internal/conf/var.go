package conf

var (
	Conf *Config

	Version   = "dev"
	GitCommit = "unknown"
)
