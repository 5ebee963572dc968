package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env string
	} `mapstructure:"app"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	// Storage.Driver: postgres | sqlite
	Storage struct {
		Driver     string
		SQLitePath string `mapstructure:"sqlite_path"`
	} `mapstructure:"storage"`

	Redis struct {
		Addr     string
		Password string
		DB       int
	} `mapstructure:"redis"`

	// Cart.Backend: postgres | redis | memory
	Cart struct {
		Backend           string
		MaxItems          int           `mapstructure:"max_items"`
		TTL               time.Duration `mapstructure:"ttl"`
		DiversityBonus    float64       `mapstructure:"diversity_bonus"`
		DiversityMaxItems int           `mapstructure:"diversity_max_items"`
	} `mapstructure:"cart"`

	Scoring struct {
		Profile     string
		ProfileFile string        `mapstructure:"profile_file"`
		RangeTTL    time.Duration `mapstructure:"range_ttl"`
	} `mapstructure:"scoring"`

	// Telegram.AdminChatID чат, из которого принимается загрузка каталога.
	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
	} `mapstructure:"telegram"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	RateLimit struct {
		RPS   float64 `mapstructure:"rps"`
		Burst int
	} `mapstructure:"ratelimit"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("storage.sqlite_path", "eco-wardrobe.db")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cart.backend", "postgres")
	v.SetDefault("cart.max_items", 20)
	v.SetDefault("cart.ttl", "720h")
	v.SetDefault("cart.diversity_bonus", 1.05)
	v.SetDefault("cart.diversity_max_items", 3)
	v.SetDefault("scoring.profile", "enhanced")
	v.SetDefault("scoring.profile_file", "")
	v.SetDefault("scoring.range_ttl", "10m")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_chat_id", 0)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("ratelimit.rps", 10)
	v.SetDefault("ratelimit.burst", 20)
}

// Load читает YAML по пути path. Переменные окружения APP_* (APP_POSTGRES_DSN,
// APP_CART_BACKEND, ...) имеют приоритет; .env из рабочей папки подхватывается,
// если есть. Пустой path — только значения по умолчанию и окружение.
func Load(path string) (Config, error) {
	var c Config
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return c, err
	}

	v := viper.New()
	defaults(v)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return c, err
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
