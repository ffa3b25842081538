package main

import (
	"context"
	"os"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for minimal Android/Termux images

	"github.com/ericfisherdev/hotspotlogin/internal/adapter/driven/probe"
	"github.com/ericfisherdev/hotspotlogin/internal/config"
)

func main() {
	os.Exit(check())
}

// check exits 0 when the probe URL answers 2xx and 1 otherwise, for use in
// shell scripts and cron jobs.
func check() int {
	url := config.DefaultProbeURL
	if cfg, err := config.Load(); err == nil {
		url = cfg.ProbeURL
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if !probe.New(url).IsConnected(ctx) {
		return 1
	}
	return 0
}
