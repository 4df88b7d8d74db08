package types

// Config is a struct to hold the configuration data
type Config struct {
	Logging struct {
		OutputLevel  string `yaml:"outputLevel" envconfig:"LOGGING_OUTPUT_LEVEL"`
		OutputStderr bool   `yaml:"outputStderr" envconfig:"LOGGING_OUTPUT_STDERR"`

		FilePath  string `yaml:"filePath" envconfig:"LOGGING_FILE_PATH"`
		FileLevel string `yaml:"fileLevel" envconfig:"LOGGING_FILE_LEVEL"`
	} `yaml:"logging"`

	Verify struct {
		// Concurrency is the worker count for header and state proof
		// verification. 0 means one worker per CPU core.
		Concurrency int `yaml:"concurrency" envconfig:"VERIFY_CONCURRENCY"`

		HashingFunction string `yaml:"hashingFunction" envconfig:"VERIFY_HASHING_FUNCTION"`

		// VerifyingKeyPath points at the pinned groth16 verifying key for
		// the block proof circuit.
		VerifyingKeyPath string `yaml:"verifyingKeyPath" envconfig:"VERIFY_VERIFYING_KEY_PATH"`
	} `yaml:"verify"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" envconfig:"METRICS_ENABLED"`
		Host    string `yaml:"host" envconfig:"METRICS_HOST"`
		Port    string `yaml:"port" envconfig:"METRICS_PORT"`
	} `yaml:"metrics"`
}
