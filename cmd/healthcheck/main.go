// Package main is the container health probe. It exits 0 when the local
// server answers /livez (or /readyz with -ready) with 200.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/garyellow/ders-bilgi-bot/internal/config"
)

func main() {
	ready := flag.Bool("ready", false, "probe /readyz instead of /livez")
	timeout := flag.Duration("timeout", 5*time.Second, "request timeout")
	flag.Parse()

	port := os.Getenv(config.EnvPort)
	if port == "" {
		port = config.DefaultPort
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	if err := probe(ctx, http.DefaultClient, probeURL(port, *ready)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func probeURL(port string, ready bool) string {
	path := "/livez"
	if ready {
		path = "/readyz"
	}
	return "http://localhost:" + port + path
}

func probe(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d", url, resp.StatusCode)
	}
	return nil
}
