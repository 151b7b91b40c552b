package myconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	StripeSecretKey     string
	StripeWebhookSecret string
	SuccessURL          string
	CancelURL           string
	Currency            string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
	MailTo       []string
	ShopName     string

	DebugEndpoints bool
}

// Load reads an optional .env file, after which the process environment takes precedence.
func Load(envFiles ...string) (Config, error) {
	err := godotenv.Load(envFiles...)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("error loading env file: %s", err)
	}

	return FromLookup(os.LookupEnv)
}

func FromLookup(lookup func(key string) (string, bool)) (Config, error) {
	get := func(key, fallback string) string {
		val, found := lookup(key)
		val = strings.TrimSpace(val)
		if !found || val == "" {
			return fallback
		}
		return val
	}

	missing := []string{}
	required := func(keys ...string) string {
		for _, key := range keys {
			if val := get(key, ""); val != "" {
				return val
			}
		}
		missing = append(missing, strings.Join(keys, "|"))
		return ""
	}

	cfg := Config{
		Port:                get("PORT", "4242"),
		StripeSecretKey:     required("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: required("STRIPE_WEBHOOK_SECRET"),
		SuccessURL:          get("CHECKOUT_SUCCESS_URL", ""),
		CancelURL:           get("CHECKOUT_CANCEL_URL", ""),
		Currency:            strings.ToLower(get("SETTLEMENT_CURRENCY", "cad")),
		SMTPHost:            get("SMTP_HOST", "smtp.gmail.com"),
		SMTPUser:            required("SMTP_USER"),
		SMTPPassword:        required("GMAIL_APP_PASSWORD", "SMTP_PASSWORD"),
		ShopName:            get("SHOP_NAME", "Futbolero"),
	}

	port, err := strconv.Atoi(get("SMTP_PORT", "587"))
	if err != nil || port <= 0 {
		return Config{}, fmt.Errorf("invalid SMTP_PORT '%s'", get("SMTP_PORT", ""))
	}
	cfg.SMTPPort = port

	cfg.DebugEndpoints, err = strconv.ParseBool(get("ENABLE_DEBUG_ENDPOINTS", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid ENABLE_DEBUG_ENDPOINTS '%s'", get("ENABLE_DEBUG_ENDPOINTS", ""))
	}

	cfg.MailFrom = get("MAIL_FROM", cfg.SMTPUser)
	cfg.MailTo = splitList(get("MAIL_TO", cfg.MailFrom))

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func splitList(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
