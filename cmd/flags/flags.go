package flags

var (
	DataDir string
	Debug   bool
	LogStd  bool
)
