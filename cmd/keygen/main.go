// Command keygen creates an RSA signing key for the broker.
//
// Without -dir it prints the environment variables for single-key mode.
// With -dir it drops a new generation into the key directory.
package main

import (
	"encoding/base64"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/keys"

	"github.com/google/uuid"
)

func main() {
	kid := flag.String("kid", "", "key id (default: random uuid)")
	dir := flag.String("dir", "", "write key files into this directory instead of printing env vars")
	flag.Parse()

	if *kid == "" {
		*kid = uuid.NewString()
	}

	if err := run(*kid, *dir); err != nil {
		fmt.Fprintln(os.Stderr, "keygen:", err)
		os.Exit(1)
	}
}

func run(kid, dir string) error {
	key, err := keys.GenerateRSA(kid, time.Now().UTC())
	if err != nil {
		return err
	}

	if dir != "" {
		privPath, pubPath, err := keys.WriteKeyFiles(dir, key)
		if err != nil {
			return err
		}
		fmt.Println(privPath)
		fmt.Println(pubPath)
		return nil
	}

	privPEM, err := keys.EncodePrivateKeyPEM(key.Private)
	if err != nil {
		return err
	}
	pubPEM, err := keys.EncodePublicKeyPEM(key.Public)
	if err != nil {
		return err
	}

	fmt.Printf("OIDC_KEY_ID=%s\n", key.ID)
	fmt.Printf("OIDC_PRIVATE_KEY_BASE64=%s\n", base64.StdEncoding.EncodeToString(privPEM))
	fmt.Printf("OIDC_PUBLIC_KEY_BASE64=%s\n", base64.StdEncoding.EncodeToString(pubPEM))
	return nil
}
