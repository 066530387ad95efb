package config

// EnvPrefix is the envconfig prefix shared by every StreamVault variable.
const EnvPrefix = "STREAMVAULT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Canonical environment variable names, kept as constants so tests and
// bootstrap tooling reference the same spelling.
const (
	EnvAppEnv   = "STREAMVAULT_APP_ENV"
	EnvPort     = "STREAMVAULT_APP_PORT"
	EnvDBDSN    = "STREAMVAULT_DB_DSN"
	EnvDBHost   = "STREAMVAULT_DB_HOST"
	EnvDBUser   = "STREAMVAULT_DB_USER"
	EnvDBName   = "STREAMVAULT_DB_NAME"
	EnvRedisURL = "STREAMVAULT_REDIS_URL"

	EnvJWTSecret  = "STREAMVAULT_JWT_SECRET"
	EnvJWTIssuer  = "STREAMVAULT_JWT_ISSUER"
	EnvJWTExpMins = "STREAMVAULT_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "STREAMVAULT_GCP_PROJECT_ID"

	EnvPubSubDomainTopic       = "STREAMVAULT_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubDomainSub         = "STREAMVAULT_PUBSUB_DOMAIN_SUBSCRIPTION"
	EnvPubSubNotificationTopic = "STREAMVAULT_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotificationSub   = "STREAMVAULT_PUBSUB_NOTIFICATION_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
