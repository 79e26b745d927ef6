package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time expresses the hold TTL and sweep interval
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. The types reflect how the values are used
// in the application: strings for identifiers and secrets, durations
// for the reservation timing knobs.
type Config struct {
	Env           string        // application environment (e.g. "dev", "prod")
	Port          string        // HTTP port to listen on
	DBDriver      string        // claim store backend: "mysql" or "memory"
	DBUser        string        // database username
	DBPass        string        // database password (optional)
	DBHost        string        // database host address
	DBPort        string        // database port number
	DBName        string        // database name
	JWTSecret     string        // secret used to sign admin JWTs
	AdminEmail    string        // login of the single organizer account
	AdminPassHash string        // bcrypt hash of the organizer password
	AccessTTLMin  int           // admin access token time-to-live in minutes
	HoldTTL       time.Duration // default hold TTL applied when Acquire carries none
	HoldTTLMax    time.Duration // upper bound for caller-supplied hold TTLs
	SweepInterval time.Duration // cadence of the expiry sweeper
}

// Load reads configuration values from environment variables and
// returns a Config. Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
// Database credentials are only required for the mysql driver.
//
// The hold TTL is deliberately configuration, not a constant: the
// default is 10 minutes and per-request overrides are clamped to
// HOLD_TTL_MAX_MIN (default 30). The sweep interval must stay well
// under the default TTL so expired holds are reclaimed promptly.
func Load() Config {
	cfg := Config{
		Env:           must("APP_ENV"),    // environment (dev/test/prod)
		Port:          must("APP_PORT"),   // port to bind the HTTP server
		DBDriver:      envStr("DB_DRIVER", "mysql"),
		JWTSecret:     must("JWT_SECRET"), // secret used for signing admin JWTs
		AdminEmail:    must("ADMIN_EMAIL"),
		AdminPassHash: must("ADMIN_PASSWORD_HASH"),
		AccessTTLMin:  mustInt("ACCESS_TOKEN_TTL_MIN"),
		HoldTTL:       time.Duration(envInt("HOLD_TTL_MIN", 10)) * time.Minute,
		HoldTTLMax:    time.Duration(envInt("HOLD_TTL_MAX_MIN", 30)) * time.Minute,
		SweepInterval: envDur("SWEEP_INTERVAL", time.Minute),
	}
	if cfg.DBDriver == "mysql" {
		cfg.DBUser = must("DB_USER")      // database user
		cfg.DBPass = os.Getenv("DB_PASS") // database password (empty allowed)
		cfg.DBHost = must("DB_HOST")      // database host
		cfg.DBPort = must("DB_PORT")      // database port
		cfg.DBName = must("DB_NAME")      // database name
	}
	if cfg.HoldTTLMax < cfg.HoldTTL {
		cfg.HoldTTLMax = cfg.HoldTTL
	}
	if cfg.SweepInterval >= cfg.HoldTTL {
		log.Printf("config: SWEEP_INTERVAL %s is not shorter than HOLD_TTL %s; expired holds will linger", cfg.SweepInterval, cfg.HoldTTL)
	}
	return cfg
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
