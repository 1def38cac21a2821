package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/gophcrud/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-g string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r int      password reset token validity, hours
//	-l string   log level
//
// Only these flags are looked at, so -c/-e and test flags pass through.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-t", "-r", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to serve HTTP")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "address and port to serve gRPC")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	accessMinutes := fs.Int("t", int(config.AccessTokenTTL.Minutes()), "access token validity (in minutes)")
	resetHours := fs.Int("r", int(config.ResetTokenTTL.Hours()), "password reset token validity (in hours)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// durations only change when given, so sub-unit values from env survive
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenTTL = time.Duration(*accessMinutes) * time.Minute
		case "r":
			config.ResetTokenTTL = time.Duration(*resetHours) * time.Hour
		}
	})
}
