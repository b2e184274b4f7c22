package config

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "FUNDRAISER"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv               = "FUNDRAISER_APP_ENV"
	EnvPort                 = "FUNDRAISER_APP_PORT"
	EnvRedisURL             = "FUNDRAISER_REDIS_URL"
	EnvBlobBucket           = "FUNDRAISER_BLOB_BUCKET_NAME"
	EnvSquareAccessToken    = "FUNDRAISER_SQUARE_ACCESS_TOKEN"
	EnvSquareEnv            = "FUNDRAISER_SQUARE_ENV"
	EnvSquareLocationID     = "FUNDRAISER_SQUARE_LOCATION_ID"
	EnvWebhookSignatureKey  = "FUNDRAISER_WEBHOOK_SIGNATURE_KEY"
	EnvWebhookURL           = "FUNDRAISER_WEBHOOK_NOTIFICATION_URL"
	EnvWebhookAllowUnsigned = "FUNDRAISER_WEBHOOK_ALLOW_UNSIGNED"
)
