// Package config loads the service configuration from a .env file,
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/optimode/mailprobe"
)

// Config captures everything the service binary needs.
type Config struct {
	Port        string
	HeloDomain  string
	MailFrom    string
	Workers     int
	ItemTimeout time.Duration
	DNSTimeout  time.Duration
	SMTPTimeout time.Duration
	Nameservers []string
	SOCKS5Proxy string
	DNSCacheTTL time.Duration
	LogLevel    string
	LogFormat   string
}

func defaults() Config {
	return Config{
		Port:        "5000",
		Workers:     5,
		ItemTimeout: 30 * time.Second,
		DNSTimeout:  5 * time.Second,
		SMTPTimeout: 10 * time.Second,
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// Load reads the optional .env files and the environment.
// A missing .env file is not an error.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaults()
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("PORT", &cfg.Port)
	str("MAILPROBE_HELO", &cfg.HeloDomain)
	str("MAILPROBE_MAIL_FROM", &cfg.MailFrom)
	str("MAILPROBE_SOCKS5", &cfg.SOCKS5Proxy)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	dur("MAILPROBE_ITEM_TIMEOUT", &cfg.ItemTimeout)
	dur("MAILPROBE_DNS_TIMEOUT", &cfg.DNSTimeout)
	dur("MAILPROBE_SMTP_TIMEOUT", &cfg.SMTPTimeout)
	dur("MAILPROBE_DNS_CACHE_TTL", &cfg.DNSCacheTTL)

	if v := os.Getenv("MAILPROBE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Errorf("MAILPROBE_WORKERS: invalid value %q", v))
		} else {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("MAILPROBE_NAMESERVERS"); v != "" {
		cfg.Nameservers = splitList(v)
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RegisterFlags attaches the override flags to cmd and its subcommands.
// Flags left unset keep the value from the environment.
func RegisterFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("port", "", "HTTP listen port (PORT)")
	flags.String("helo", "", "EHLO/HELO domain for SMTP probes (MAILPROBE_HELO)")
	flags.String("mail-from", "", "Envelope sender for SMTP probes (MAILPROBE_MAIL_FROM)")
	flags.Int("workers", 0, "Addresses verified concurrently (MAILPROBE_WORKERS)")
	flags.Duration("item-timeout", 0, "Deadline per address (MAILPROBE_ITEM_TIMEOUT)")
	flags.Duration("dns-timeout", 0, "Timeout per DNS lookup (MAILPROBE_DNS_TIMEOUT)")
	flags.Duration("smtp-timeout", 0, "Timeout per SMTP probe (MAILPROBE_SMTP_TIMEOUT)")
	flags.StringSlice("nameserver", nil, "DNS servers to query (MAILPROBE_NAMESERVERS)")
	flags.String("socks5", "", "SOCKS5 proxy for SMTP probes, host:port (MAILPROBE_SOCKS5)")
	flags.Duration("dns-cache-ttl", 0, "Cache DNS outcomes for this long, 0 disables (MAILPROBE_DNS_CACHE_TTL)")
	flags.String("log-level", "", "Logging level: debug, info, warn, error (LOG_LEVEL)")
	flags.String("log-format", "", "Log format: text or json (LOG_FORMAT)")
}

// ApplyFlags overrides cfg with every flag the user set explicitly.
func ApplyFlags(cmd *cobra.Command, cfg *Config) error {
	flags := cmd.Flags()
	var err error
	set := func(name string, apply func() error) {
		if err == nil && flags.Changed(name) {
			err = apply()
		}
	}

	set("port", func() (e error) { cfg.Port, e = flags.GetString("port"); return })
	set("helo", func() (e error) { cfg.HeloDomain, e = flags.GetString("helo"); return })
	set("mail-from", func() (e error) { cfg.MailFrom, e = flags.GetString("mail-from"); return })
	set("workers", func() (e error) { cfg.Workers, e = flags.GetInt("workers"); return })
	set("item-timeout", func() (e error) { cfg.ItemTimeout, e = flags.GetDuration("item-timeout"); return })
	set("dns-timeout", func() (e error) { cfg.DNSTimeout, e = flags.GetDuration("dns-timeout"); return })
	set("smtp-timeout", func() (e error) { cfg.SMTPTimeout, e = flags.GetDuration("smtp-timeout"); return })
	set("nameserver", func() (e error) { cfg.Nameservers, e = flags.GetStringSlice("nameserver"); return })
	set("socks5", func() (e error) { cfg.SOCKS5Proxy, e = flags.GetString("socks5"); return })
	set("dns-cache-ttl", func() (e error) { cfg.DNSCacheTTL, e = flags.GetDuration("dns-cache-ttl"); return })
	set("log-level", func() (e error) { cfg.LogLevel, e = flags.GetString("log-level"); return })
	set("log-format", func() (e error) { cfg.LogFormat, e = flags.GetString("log-format"); return })
	return err
}

// Logger builds the logrus logger described by LogLevel and LogFormat.
func (c Config) Logger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	log := logrus.New()
	log.SetLevel(level)
	switch strings.ToLower(c.LogFormat) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("log format: unknown %q", c.LogFormat)
	}
	return log, nil
}

// Verifier builds a Verifier from the configuration.
func (c Config) Verifier(log logrus.FieldLogger) *mailprobe.Verifier {
	return mailprobe.New().
		WithLogger(log).
		WithDNS(mailprobe.DNSOptions{
			Timeout:     c.DNSTimeout,
			Nameservers: c.Nameservers,
			CacheTTL:    c.DNSCacheTTL,
		}).
		WithSMTP(mailprobe.SMTPOptions{
			HeloDomain:  c.HeloDomain,
			MailFrom:    c.MailFrom,
			Timeout:     c.SMTPTimeout,
			SOCKS5Proxy: c.SOCKS5Proxy,
		}).
		WithConcurrency(mailprobe.ConcurrencyOptions{
			Workers:     c.Workers,
			ItemTimeout: c.ItemTimeout,
		})
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
