// Package config resolves the dictionary sources and client parameters
// this module needs at startup. Adapted from the teacher's ConfigManager:
// the same DIAMETER_CONFIG_BASE-relative resource resolution and
// file-or-http ReadResource helper survive, stripped of the search-rule
// and per-instance bootstrap machinery that served the teacher's
// multi-tenant AAA platform (out of scope for a single-dictionary,
// single-client module).
package config

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/francistor/diameter/dict"
	"github.com/francistor/diameter/logging"
)

// DictionarySource names one XML dictionary document to layer on top of
// the embedded base dictionary, read via ReadResource.
type DictionarySource struct {
	// Location is a file path (resolved against DIAMETER_CONFIG_BASE) or
	// an http(s) URL.
	Location string
}

// ClientConfig is the parameter set the client shell needs: where to
// connect, and which dictionary sources to layer on top of the embedded
// base dictionary.
type ClientConfig struct {
	Address string

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	ExtraDictionaries []DictionarySource
}

// FromEnv applies DIAMETER_CLIENT_ADDRESS on top of cfg if set, mirroring
// the teacher's convention of keeping deployment-specific values in the
// environment rather than source.
func FromEnv(cfg ClientConfig) ClientConfig {
	if addr := os.Getenv("DIAMETER_CLIENT_ADDRESS"); addr != "" {
		cfg.Address = addr
	}
	return cfg
}

// BuildDictionary loads the embedded base dictionary and merges cfg's
// extra sources on top, in order, with later sources overriding earlier
// ones on (code, vendor-id) collision.
func BuildDictionary(cfg ClientConfig) (*dict.Dictionary, error) {
	d, err := dict.Embedded()
	if err != nil {
		return nil, err
	}
	if len(cfg.ExtraDictionaries) == 0 {
		return d, nil
	}

	readers := make([]io.Reader, 0, len(cfg.ExtraDictionaries))
	for _, src := range cfg.ExtraDictionaries {
		text, err := ReadResource(src.Location)
		if err != nil {
			return nil, err
		}
		readers = append(readers, strings.NewReader(text))
	}
	return d.Merge(readers...)
}

// ReadResource reads the resource at location, which may be an http(s)
// URL or a file path resolved against the DIAMETER_CONFIG_BASE
// environment variable, exactly as the teacher's ReadResource does for
// its own configuration objects.
func ReadResource(location string) (string, error) {
	if strings.HasPrefix(location, "http") {
		resp, err := http.Get(location)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", err
		}
		return string(body), nil
	}

	path := os.Getenv("DIAMETER_CONFIG_BASE") + location
	logging.L.Debugw("reading configuration resource", "path", path)
	body, err := os.ReadFile(path)
	if err != nil {
		logging.L.Debugw("resource not found", "path", path, "error", err)
		return "", err
	}
	return string(body), nil
}
