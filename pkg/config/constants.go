package config

// EnvPrefix is passed to envconfig; individual fields carry fully
// qualified env tags so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "LEADROTOR_DB_DSN"
	EnvDBHost = "LEADROTOR_DB_HOST"
	EnvDBUser = "LEADROTOR_DB_USER"
	EnvDBName = "LEADROTOR_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
