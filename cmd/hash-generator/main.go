// Command hash-generator prints bcrypt hashes for the given passwords, for
// seeding users (such as the first administrator) directly in the database.
package main

import (
	"fmt"
	"os"

	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cost := pflag.Int("cost", bcrypt.DefaultCost, "bcrypt cost factor")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: hash-generator [--cost N] PASSWORD...\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() == 0 {
		pflag.Usage()
		os.Exit(2)
	}

	hasher := auth.NewBcrypt(*cost)
	failed := false
	for _, password := range pflag.Args() {
		hash, err := hasher.Hash(password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error hashing password: %v\n", err)
			failed = true
			continue
		}
		fmt.Println(hash)
	}
	if failed {
		os.Exit(1)
	}
}
