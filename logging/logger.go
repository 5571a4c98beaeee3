// Package logging sets up the package-level zap logger shared by the
// codec, dictionary and client packages.
package logging

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// L is the shared sugared logger. Safe for concurrent use once Init has
// returned; before that, it defaults to zap's no-op logger so packages
// that log during init (e.g. dictionary construction in a test) never
// nil-panic.
var L = zap.NewNop().Sugar()

var once sync.Once

// Init builds the production logger from a small JSON zap.Config literal,
// mirroring the teacher's config.SetupLogger. Safe to call more than once;
// only the first call takes effect.
func Init() {
	once.Do(func() {
		rawJSON := []byte(`{
			"level": "info",
			"development": false,
			"encoding": "json",
			"outputPaths": ["stdout"],
			"errorOutputPaths": ["stderr"],
			"disableCaller": false,
			"disableStackTrace": false,
			"encoderConfig": {
				"messageKey": "message",
				"levelKey": "level",
				"levelEncoder": "lowercase",
				"callerKey": "caller",
				"callerEncoder": "",
				"timeKey": "ts",
				"timeEncoder": "ISO8601"
				}
			}`)

		var cfg zap.Config
		if err := json.Unmarshal(rawJSON, &cfg); err != nil {
			panic(err)
		}

		logger, err := cfg.Build()
		if err != nil {
			panic(err)
		}

		L = logger.Sugar()
	})
}

// InitDevelopment builds a human-readable, debug-level logger. Intended
// for tests and the CLI client's -verbose flag.
func InitDevelopment() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	L = logger.Sugar()
}
