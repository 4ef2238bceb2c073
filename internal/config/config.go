package config // package config loads application configuration from environment variables

import (
	"crypto/rand" // rand generates a throwaway session secret when none is configured
	"encoding/hex"
	"log" // log reports configuration problems at startup
	"strings"
	"time"

	"github.com/joho/godotenv" // godotenv loads a local .env file into the environment
)

// DefaultAPIBaseURL is used when neither API_BASE_URL nor VITE_API_BASE_URL is set.
const DefaultAPIBaseURL = "http://localhost:8000"

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Nothing here is required: every value has a
// default so the assistant can be started with an empty environment and will
// talk to a chat API on localhost.
type Config struct {
	Env               string        // application environment (e.g. "dev", "prod")
	Port              string        // HTTP port the UI server listens on
	APIBaseURL        string        // base URL of the remote chat API
	SessionSecret     string        // HMAC secret used to sign UI session cookies
	SessionTTL        time.Duration // idle lifetime of a UI session
	ShowStore         string        // "memory" or "redis"
	VoiceDismissDelay time.Duration // how long the listening overlay lingers after a final transcript
	SeatPrice         int           // per-seat price used when a show carries no parsable price
}

// Load reads configuration values from the environment and returns a Config.
// A .env file in the working directory is loaded first when present; values
// already present in the process environment win over the file.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded (%v); using process environment", err)
	}
	cfg := Config{
		Env:               envStr("APP_ENV", "dev"),
		Port:              envStr("APP_PORT", "3000"),
		APIBaseURL:        apiBaseURL(),
		SessionSecret:     envStr("SESSION_SECRET", ""),
		SessionTTL:        envDur("SESSION_TTL", 30*time.Minute),
		ShowStore:         strings.ToLower(envStr("SHOW_STORE", "memory")),
		VoiceDismissDelay: envDur("VOICE_DISMISS_DELAY", 800*time.Millisecond),
		SeatPrice:         envInt("BOOKING_SEAT_PRICE", 250),
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = randomSecret()
		log.Printf("config: SESSION_SECRET not set; sessions will not survive a restart")
	}
	if cfg.SeatPrice < 0 {
		cfg.SeatPrice = 250
	}
	return cfg
}

// apiBaseURL resolves the chat API base URL.  VITE_API_BASE_URL is honoured
// so an existing front-end .env can be reused unchanged.
func apiBaseURL() string {
	u := envStr("API_BASE_URL", envStr("VITE_API_BASE_URL", DefaultAPIBaseURL))
	return strings.TrimRight(u, "/")
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("config: cannot generate session secret: %v", err)
	}
	return hex.EncodeToString(buf)
}
