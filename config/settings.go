package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Settings is the typed view of the process environment.
type Settings struct {
	ServerPort  string
	GinMode     string
	Environment string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBDatabase string
	DBUsername string
	DBPassword string
	DebugSQL   bool

	JWTSecret      string
	JWTExpireHours int

	SMTP   SMTPSettings
	Twilio TwilioSettings

	DefaultCountryCode string
	NotifyTimeout      time.Duration

	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string
	ApplicationFee    decimal.Decimal
	PaymentCurrency   string

	StorageDriver      string
	UploadPath         string
	S3Bucket           string
	S3Region           string
	S3Endpoint         string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	MaxUploadBytes     int64

	KafkaBrokers []string
	KafkaTopic   string

	LoginRatePerMinute int
	CORSAllowedOrigins []string

	LogFile string

	AdminEmail    string
	AdminPassword string
}

type SMTPSettings struct {
	Host          string
	Port          int
	User          string
	Pass          string
	From          string
	SkipTLSVerify bool
}

type TwilioSettings struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_HOST", "127.0.0.1")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("JWT_EXPIRE_HOURS", 24)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("TWILIO_BASE_URL", "https://api.twilio.com")
	v.SetDefault("DEFAULT_COUNTRY_CODE", "+91")
	v.SetDefault("NOTIFY_TIMEOUT", "10s")
	v.SetDefault("RAZORPAY_BASE_URL", "https://api.razorpay.com")
	v.SetDefault("APPLICATION_FEE", "999.00")
	v.SetDefault("PAYMENT_CURRENCY", "INR")
	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("UPLOAD_PATH", "./uploads")
	v.SetDefault("MAX_UPLOAD_BYTES", 10<<20)
	v.SetDefault("KAFKA_TOPIC", "vendor-application-events")
	v.SetDefault("LOGIN_RATE_PER_MINUTE", 10)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_FILE", "logs/vendor-api.log")
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads .env (when present) and the environment into Settings.
func Load() *Settings {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// FromViper builds Settings from an already populated viper instance.
func FromViper(v *viper.Viper) *Settings {
	fee, err := decimal.NewFromString(v.GetString("APPLICATION_FEE"))
	if err != nil || !fee.IsPositive() {
		log.Printf("Warning: invalid APPLICATION_FEE %q, using 999.00", v.GetString("APPLICATION_FEE"))
		fee = decimal.RequireFromString("999.00")
	}

	timeout := v.GetDuration("NOTIFY_TIMEOUT")
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Settings{
		ServerPort:  v.GetString("SERVER_PORT"),
		GinMode:     v.GetString("GIN_MODE"),
		Environment: strings.ToLower(v.GetString("ENVIRONMENT")),

		DBDriver:   strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBDatabase: v.GetString("DB_DATABASE"),
		DBUsername: v.GetString("DB_USERNAME"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DebugSQL:   v.GetBool("DEBUG_SQL"),

		JWTSecret:      v.GetString("JWT_SECRET"),
		JWTExpireHours: v.GetInt("JWT_EXPIRE_HOURS"),

		SMTP: SMTPSettings{
			Host:          v.GetString("SMTP_HOST"),
			Port:          v.GetInt("SMTP_PORT"),
			User:          v.GetString("SMTP_USER"),
			Pass:          v.GetString("SMTP_PASS"),
			From:          v.GetString("SMTP_FROM"),
			SkipTLSVerify: v.GetString("SMTP_SKIP_TLS_VERIFY") == "1",
		},
		Twilio: TwilioSettings{
			AccountSID: v.GetString("TWILIO_ACCOUNT_SID"),
			AuthToken:  v.GetString("TWILIO_AUTH_TOKEN"),
			FromNumber: v.GetString("TWILIO_PHONE_NUMBER"),
			BaseURL:    v.GetString("TWILIO_BASE_URL"),
		},

		DefaultCountryCode: v.GetString("DEFAULT_COUNTRY_CODE"),
		NotifyTimeout:      timeout,

		RazorpayKeyID:     v.GetString("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: v.GetString("RAZORPAY_KEY_SECRET"),
		RazorpayBaseURL:   v.GetString("RAZORPAY_BASE_URL"),
		ApplicationFee:    fee,
		PaymentCurrency:   strings.ToUpper(v.GetString("PAYMENT_CURRENCY")),

		StorageDriver:      strings.ToLower(v.GetString("STORAGE_DRIVER")),
		UploadPath:         v.GetString("UPLOAD_PATH"),
		S3Bucket:           v.GetString("S3_BUCKET"),
		S3Region:           v.GetString("S3_REGION"),
		S3Endpoint:         v.GetString("S3_ENDPOINT"),
		AWSAccessKeyID:     v.GetString("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
		MaxUploadBytes:     v.GetInt64("MAX_UPLOAD_BYTES"),

		KafkaBrokers: splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:   v.GetString("KAFKA_TOPIC"),

		LoginRatePerMinute: v.GetInt("LOGIN_RATE_PER_MINUTE"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		LogFile: v.GetString("LOG_FILE"),

		AdminEmail:    v.GetString("ADMIN_EMAIL"),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),
	}
}

// IsProduction reports whether ENVIRONMENT=production.
func (s *Settings) IsProduction() bool {
	return s.Environment == "production"
}
