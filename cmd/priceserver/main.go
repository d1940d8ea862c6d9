/*
Priceserver starts a pricing-DSL server and begins listening for new
connections.

Usage:

	priceserver [flags]
	priceserver [flags] -l [[ADDRESS]:PORT]

Once started, the server listens for HTTP requests and responds to them
using REST protocol: user/login management plus contract, calibration, and
evaluation endpoints. By default it listens on localhost:8080. This can be
changed with the --listen/-l flag (or the equivalent environment variable).
The flag argument must be either a full address with port, such as
"192.168.0.2:6001", or just the port preceded by a colon, such as ":6001".

If a JWT token secret is not given, one is generated and seeded from a
random source. As a consequence, in this mode of operation all tokens are
rendered invalid as soon as the server shuts down. This is suitable for
testing, but a secret must be given via either CLI flag or environment
variable if running in production.

The flags are:

	-v, --version
		Give the current version of the server and then exit.

	-l, --listen LISTEN_ADDRESS
		Listen on the given address. Must be in BIND_ADDRESS:PORT or :PORT
		format. If not given, defaults to the value of environment variable
		PRICESERVER_LISTEN_ADDRESS, and if that is not given, to
		localhost:8080.

	-s, --secret TOKEN_SECRET
		Use the provided secret for signing JWT tokens. If there are less
		than 32 bytes in the secret, it is repeated until it is. The maximum
		size is 64 bytes. If not given, defaults to the value of environment
		variable PRICESERVER_TOKEN_SECRET. If no secret is specified, a
		random secret is generated, and any tokens issued become invalid as
		soon as the server shuts down.

	--db DRIVER[:PARAMS]
		Use the given DB connection string. DRIVER must be one of: inmem,
		sqlite. inmem takes no further params. sqlite needs the path to the
		data directory, such as sqlite:path/to/db_dir. If not given, defaults
		to the value of environment variable PRICESERVER_DATABASE. If none is
		specified, an in-memory database is used.
*/
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/rhassan/pricedsl/server"
	"github.com/rhassan/pricedsl/server/dao"
	"github.com/rhassan/pricedsl/server/serr"
	"github.com/spf13/pflag"
)

const (
	EnvListen = "PRICESERVER_LISTEN_ADDRESS"
	EnvSecret = "PRICESERVER_TOKEN_SECRET"
	EnvDB     = "PRICESERVER_DATABASE"
)

var (
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of the server and then exit.")
	flagListen  = pflag.StringP("listen", "l", "", "Listen on the given address.")
	flagSecret  = pflag.StringP("secret", "s", "", "Use the given secret for token generation.")
	flagDB      = pflag.String("db", "", "Use the given DB connection string.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("priceserver v%s\n", server.Version)
		return
	}

	args := pflag.Args()
	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		os.Exit(1)
	}

	listenAddr := os.Getenv(EnvListen)
	if pflag.Lookup("listen").Changed {
		listenAddr = *flagListen
	}
	if listenAddr == "" {
		listenAddr = "localhost:8080"
	}
	if _, _, err := splitHostPort(listenAddr); err != nil {
		fmt.Fprintf(os.Stderr, "Listen address is not in ADDRESS:PORT or :PORT format.\nDo -h for help.\n")
		os.Exit(1)
	}

	var cfg server.Config

	dbConnStr := os.Getenv(EnvDB)
	if pflag.Lookup("db").Changed {
		dbConnStr = *flagDB
	}
	if dbConnStr == "" {
		dbConnStr = "inmem"
	}
	db, err := server.ParseDBConnString(dbConnStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\nDo -h for help.\n", err.Error())
		os.Exit(1)
	}
	cfg.DB = db

	tokSecStr := os.Getenv(EnvSecret)
	if pflag.Lookup("secret").Changed {
		tokSecStr = *flagSecret
	}

	var tokSecret []byte
	if tokSecStr != "" {
		tokSecret = []byte(tokSecStr)

		for len(tokSecret) < server.MinSecretSize {
			doubled := make([]byte, len(tokSecret)*2)
			copy(doubled, tokSecret)
			copy(doubled[len(tokSecret):], tokSecret)
			tokSecret = doubled
		}

		if len(tokSecret) > server.MaxSecretSize {
			fmt.Fprintf(os.Stderr, "Token secret is %d bytes, but it must be <= %d bytes\nDo -h for help.\n", len(tokSecret), server.MaxSecretSize)
			os.Exit(1)
		}
	} else {
		tokSecret = make([]byte, server.MaxSecretSize)
		if _, err := rand.Read(tokSecret); err != nil {
			fmt.Fprintf(os.Stderr, "Could not generate token secret: %s\n", err.Error())
			os.Exit(1)
		}
		log.Printf("WARN  Using generated token secret; all tokens issued will become invalid at shutdown")
	}
	cfg.TokenSecret = tokSecret

	tqs, err := server.New(cfg)
	if err != nil {
		log.Fatalf("FATAL could not start server: %s", err.Error())
	}
	log.Printf("DEBUG Server initialized")

	_, err = tqs.CreateUser(context.Background(), "admin", "password", "bogus@example.com", dao.Admin)
	if err != nil && !errors.Is(err, serr.ErrAlreadyExists) {
		log.Printf("ERROR could not create initial admin user: %v", err)
		os.Exit(2)
	}
	if err == nil {
		log.Printf("INFO  Added initial admin user with password 'password'...")
	}

	log.Printf("INFO  Starting pricing server %s on %s...", server.Version, listenAddr)
	if err := tqs.ServeForever(listenAddr); err != nil {
		log.Fatalf("FATAL server exited: %s", err.Error())
	}
}

// splitHostPort validates that addr is in ADDRESS:PORT or :PORT format,
// returning the parsed host and port.
func splitHostPort(addr string) (host string, port int, err error) {
	parts := strings.SplitN(addr, ":", 2)
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("not in ADDRESS:PORT or :PORT format")
	}
	port, err = strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, fmt.Errorf("%q is not a valid port number", parts[1])
	}
	return parts[0], port, nil
}
