package conf

type Database struct {
	File string `json:"file" env:"FILE"`
}

type LogConfig struct {
	Enable     bool   `json:"enable" env:"ENABLE"`
	Name       string `json:"name" env:"NAME"`
	MaxSize    int    `json:"max_size" env:"MAX_SIZE"`
	MaxBackups int    `json:"max_backups" env:"MAX_BACKUPS"`
	MaxAge     int    `json:"max_age" env:"MAX_AGE"`
	Compress   bool   `json:"compress" env:"COMPRESS"`
}

type Scheme struct {
	Address string `json:"address" env:"ADDR"`
	Port    int    `json:"port" env:"PORT"`
}

// Session holds the tunables of the device-session core. Durations are
// in seconds except where noted.
type Session struct {
	// JwtSecret signs session tokens. Generated at first start when empty.
	JwtSecret string `json:"jwt_secret" env:"JWT_SECRET"`
	// TokenTTL is the nominal session lifetime in minutes.
	TokenTTL int `json:"token_ttl" env:"TOKEN_TTL"`
	// GracePeriod is the extra lifetime granted to a recently active
	// session after nominal expiry.
	GracePeriod int `json:"grace_period" env:"GRACE_PERIOD"`
	// ActivityThreshold is the maximum idle time still counted as
	// recently active when expiry fires.
	ActivityThreshold int `json:"activity_threshold" env:"ACTIVITY_THRESHOLD"`
	// MaxDevices caps concurrent sessions per user; the oldest session
	// is evicted when a login would exceed it.
	MaxDevices int `json:"max_devices" env:"MAX_DEVICES"`
	// SweepInterval controls the periodic cleanup of sessions whose
	// timers were lost, in minutes.
	SweepInterval int `json:"sweep_interval" env:"SWEEP_INTERVAL"`
}

type Mail struct {
	Host     string `json:"host" env:"HOST"`
	Port     int    `json:"port" env:"PORT"`
	Username string `json:"username" env:"USERNAME"`
	Password string `json:"password" env:"PASSWORD"`
	From     string `json:"from" env:"FROM"`
}

type Config struct {
	Scheme   Scheme    `json:"scheme" envPrefix:"SCHEME_"`
	Database Database  `json:"database" envPrefix:"DB_"`
	Log      LogConfig `json:"log" envPrefix:"LOG_"`
	Session  Session   `json:"session" envPrefix:"SESSION_"`
	Mail     Mail      `json:"mail" envPrefix:"MAIL_"`
	// AuthorizedEmail is the only address allowed to request login codes.
	AuthorizedEmail string `json:"authorized_email" env:"AUTHORIZED_EMAIL"`
	Cors            bool   `json:"cors" env:"CORS"`
}

func DefaultConfig() *Config {
	return &Config{
		Scheme: Scheme{
			Address: "0.0.0.0",
			Port:    3000,
		},
		Database: Database{
			File: "data/semonara.db",
		},
		Log: LogConfig{
			Enable:     true,
			Name:       "data/log/semonara.log",
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     28,
		},
		Session: Session{
			TokenTTL:          30,
			GracePeriod:       300,
			ActivityThreshold: 120,
			MaxDevices:        3,
			SweepInterval:     10,
		},
		Cors: true,
	}
}
