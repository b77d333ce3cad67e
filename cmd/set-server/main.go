package main

import (
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"os"

	"github.com/bcspragu/Set/cryptorand"
	"github.com/bcspragu/Set/memdb"
	"github.com/bcspragu/Set/web"
	"github.com/gorilla/securecookie"
	"github.com/namsral/flag"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "HTTP service address")
		hashKeyFile  = flag.String("hash_key_file", "hashKey", "File holding the cookie signing key, created if it doesn't exist")
		blockKeyFile = flag.String("block_key_file", "blockKey", "File holding the cookie encryption key, created if it doesn't exist")
	)

	flag.Parse()

	sc, err := loadKeys(*hashKeyFile, *blockKeyFile)
	if err != nil {
		log.Fatalf("failed to load cookie keys: %v", err)
	}

	log.Printf("Server is running on %q", *addr)
	if err := http.ListenAndServe(*addr, web.New(memdb.New(), cryptorand.New(), sc)); err != nil {
		log.Fatal("ListenAndServe: ", err)
	}
}

func loadKeys(hashKeyFile, blockKeyFile string) (*securecookie.SecureCookie, error) {
	hashKey, err := loadOrGenKey(hashKeyFile)
	if err != nil {
		return nil, err
	}

	blockKey, err := loadOrGenKey(blockKeyFile)
	if err != nil {
		return nil, err
	}

	return securecookie.New(hashKey, blockKey), nil
}

func loadOrGenKey(name string) ([]byte, error) {
	f, err := ioutil.ReadFile(name)
	if err == nil {
		return f, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read key file %q: %w", name, err)
	}

	dat := securecookie.GenerateRandomKey(32)
	if dat == nil {
		return nil, errors.New("failed to generate key")
	}

	if err := ioutil.WriteFile(name, dat, 0600); err != nil {
		return nil, fmt.Errorf("failed to write key file %q: %w", name, err)
	}
	return dat, nil
}
