package main

import (
	"flag"
	"log"

	"github.com/On-Jun9/DupeChecker/internal/config"
	"github.com/On-Jun9/DupeChecker/internal/web"
)

var (
	version = "dev" // set by ldflags during build
)

func main() {
	addr := flag.String("addr", "localhost:8080", "HTTP server address")
	cfgFile := flag.String("config", "", "config file path")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *cfgFile != "" {
		loaded, err := config.LoadFromFile(*cfgFile)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}

	server, err := web.NewServer(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer server.Close()
	server.SetVersion(version)

	if err := server.Start(*addr); err != nil {
		log.Fatal(err)
	}
}
