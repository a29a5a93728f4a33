// Utilidad operativa: genera la clave maestra de secretbox y cifra/descifra
// valores cortos con ella (p.ej. para inspeccionar secretos TOTP en soporte).
//
//	enc -gen                     genera una clave nueva para SECRETBOX_MASTER_KEY
//	enc -value <texto>           cifra el valor con la clave del entorno
//	enc -decrypt -value <blob>   descifra un valor cifrado
package main

import (
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/conecta-accounts/internal/security/secretbox"
)

func main() {
	var (
		flagGen     = flag.Bool("gen", false, "genera una clave maestra nueva (base64, 32 bytes)")
		flagValue   = flag.String("value", "", "valor a cifrar o descifrar")
		flagDecrypt = flag.Bool("decrypt", false, "descifra en lugar de cifrar")
	)
	flag.Parse()

	if *flagGen {
		k := make([]byte, 32)
		if _, err := rand.Read(k); err != nil {
			log.Fatalf("rand: %v", err)
		}
		fmt.Println(base64.StdEncoding.EncodeToString(k))
		return
	}

	_ = godotenv.Load(".env")
	master := os.Getenv("SECRETBOX_MASTER_KEY")
	if master == "" {
		log.Fatal("SECRETBOX_MASTER_KEY not set")
	}
	if *flagValue == "" {
		log.Fatal("falta -value")
	}

	box, err := secretbox.New(master)
	if err != nil {
		log.Fatalf("secretbox: %v", err)
	}

	var out string
	if *flagDecrypt {
		out, err = box.Decrypt(*flagValue)
	} else {
		out, err = box.Encrypt(*flagValue)
	}
	if err != nil {
		log.Fatalf("enc: %v", err)
	}
	fmt.Println(out)
}
