package httpx

import "golang.org/x/crypto/acme/autocert"

// certCacheDir stores issued certificates between restarts.
const certCacheDir = "assets/certs"

func autoCert(host string) *autocert.Manager {
	m := &autocert.Manager{
		Prompt: autocert.AcceptTOS,
		Cache:  autocert.DirCache(certCacheDir),
	}
	if host != "" {
		m.HostPolicy = autocert.HostWhitelist(host)
	}
	return m
}
