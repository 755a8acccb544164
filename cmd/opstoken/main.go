// Command opstoken mints a bearer token for a venue operator. Operator
// credentials are provisioned out-of-band before the event; this tool
// signs them against the server's JWT_SECRET so door staff can be handed
// a token for the day.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"bmmregistration/config"
	"bmmregistration/internal/adapters/auth"
)

func main() {
	var (
		operatorID = flag.String("operator", "", "operator identity recorded on every check-in")
		email      = flag.String("email", "", "operator email")
		venue      = flag.String("venue", "", "venue the operator works")
		ttl        = flag.Duration("ttl", 24*time.Hour, "token lifetime")
	)
	flag.Parse()

	if *operatorID == "" {
		fmt.Fprintln(os.Stderr, "opstoken: -operator is required")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "opstoken: load config: %v\n", err)
		os.Exit(1)
	}

	issuer := auth.NewJWTIssuer(cfg.JWTSecret)
	token, err := issuer.Issue(*operatorID, *email, *venue, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opstoken: issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
