package config

import (
	"os"
	"strings"
)

// lambdaDataDir is the only writable directory in a Lambda sandbox unless an
// EFS mount is configured
const lambdaDataDir = "/tmp"

// IsServerlessMode returns true when running inside AWS Lambda
func IsServerlessMode() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// GetDeploymentMode returns the current deployment mode
func GetDeploymentMode() string {
	if IsServerlessMode() {
		return "serverless"
	}
	return "server"
}

// AdaptConfigForServerless moves relative paths onto a writable mount and
// disables the in-process backup schedule, which cannot run between
// invocations
func AdaptConfigForServerless(config *Config) *Config {
	if !IsServerlessMode() {
		return config
	}

	dataDir := lambdaDataDir
	if efs := os.Getenv("EFS_MOUNT_PATH"); efs != "" {
		dataDir = strings.TrimSuffix(efs, "/")
	}

	if !strings.HasPrefix(config.Database.Path, "/") {
		config.Database.Path = dataDir + "/pos.db"
	}
	if config.Storage.Type == "local" && !strings.HasPrefix(config.Storage.LocalPath, "/") {
		config.Storage.LocalPath = dataDir + "/backups"
	}

	// Lambda has no persistent process for rotation
	config.Logging.File = ""
	config.Backup.Schedule = ""

	return config
}
