package bootstrap

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v9"
	"github.com/semonara/semonara/cmd/flags"
	"github.com/semonara/semonara/internal/conf"
	log "github.com/sirupsen/logrus"
)

// InitConfig builds the runtime configuration from defaults and
// SEMONARA_-prefixed environment variables.
func InitConfig() {
	conf.Conf = conf.DefaultConfig()
	if flags.DataDir != "" {
		conf.Conf.Database.File = filepath.Join(flags.DataDir, "semonara.db")
		conf.Conf.Log.Name = filepath.Join(flags.DataDir, "log", "semonara.log")
	}
	if err := env.ParseWithOptions(conf.Conf, env.Options{Prefix: "SEMONARA_"}); err != nil {
		log.Fatalf("failed to parse config from environment: %+v", err)
	}
	if conf.Conf.Session.JwtSecret == "" {
		conf.Conf.Session.JwtSecret = randomSecret()
		log.Warn("no jwt secret configured, generated a volatile one; sessions will not survive restarts")
	}
	if err := os.MkdirAll(filepath.Dir(conf.Conf.Database.File), 0o755); err != nil {
		log.Fatalf("failed to create data dir: %+v", err)
	}
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("failed to generate jwt secret: %+v", err)
	}
	return hex.EncodeToString(buf)
}
