package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	PublicURL       string `envconfig:"PUBLIC_URL" default:"http://localhost:8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	DatabaseSchema  string `envconfig:"DATABASE_SCHEMA" default:"contratos"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"30"`
	MaxUploadBytes  int64  `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`

	// Cognito Auth
	CognitoUserPoolID string `envconfig:"COGNITO_USER_POOL_ID"`
	CognitoClientID   string `envconfig:"COGNITO_CLIENT_ID"`
	CognitoIssuerURL  string `envconfig:"COGNITO_ISSUER_URL"`

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes

	// Storage. "supabase" talks to the Supabase Storage REST API, "s3" uses
	// the AWS SDK (any S3 compatible endpoint).
	StorageBackend    string `envconfig:"STORAGE_BACKEND" default:"supabase"`
	SupabaseProjectID string `envconfig:"SUPABASE_PROJECT_ID"`
	SupabaseAPIKey    string `envconfig:"SUPABASE_API_KEY"`
	PrivateBucket     string `envconfig:"PRIVATE_BUCKET" default:"documents"`
	PublicBucket      string `envconfig:"PUBLIC_BUCKET" default:"public-assets"`
	S3Endpoint        string `envconfig:"S3_ENDPOINT"`

	// Member cache
	RedisAddr         string `envconfig:"REDIS_ADDR"`
	RedisPassword     string `envconfig:"REDIS_PASSWORD"`
	MemberCacheTTLSec int    `envconfig:"MEMBER_CACHE_TTL_SEC" default:"300"`

	// Outbound services
	BackgroundCheckURL    string `envconfig:"BACKGROUND_CHECK_URL"`
	BackgroundCheckAPIKey string `envconfig:"BACKGROUND_CHECK_API_KEY"`
	ContractGeneratorURL  string `envconfig:"CONTRACT_GENERATOR_URL"`
	DocumentVerifierURL   string `envconfig:"DOCUMENT_VERIFIER_URL"`
	GoogleCredentialsFile string `envconfig:"GOOGLE_CREDENTIALS_FILE"`

	// Email
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	MailFrom     string `envconfig:"MAIL_FROM" default:"no-reply@contratos.app"`
	ContactEmail string `envconfig:"CONTACT_EMAIL"`

	// Extension date rules are checked on new extension requests only.
	EnforceExtensionRules bool `envconfig:"ENFORCE_EXTENSION_RULES" default:"true"`
}
