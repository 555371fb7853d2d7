package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定です。
type Config struct {
	AppEnv             string
	Port               string
	SpectatorEnabled   bool
	SpectatorJWTSecret string
	CORSAllowedOrigins []string
	GameSeed           int64         // 0 の場合は現在時刻をシードにする
	TickInterval       time.Duration // 自動落下の経過時間を計測する間隔
	LogFile            string        // ターミナル表示中のログ出力先
}

// Default は環境変数が設定されていない場合の設定を返します。
func Default() Config {
	return Config{
		AppEnv:             "development",
		Port:               "8080",
		SpectatorEnabled:   false,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		GameSeed:           0,
		TickInterval:       16 * time.Millisecond,
		LogFile:            "blockfall.log",
	}
}

// Load は本番環境以外で .env ファイルを読み込んだ後、環境変数から設定を組み立てます。
func Load() (Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("[Config] warning: Error loading .env file (this is fine in production): %v", err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup は lookup 関数から設定を組み立てます。
// テストでは map から値を返す関数を渡します。
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		if !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}

	if v, ok := get("APP_ENV"); ok {
		cfg.AppEnv = v
	}
	if v, ok := get("PORT"); ok {
		if _, err := strconv.ParseUint(v, 10, 16); err != nil {
			return Config{}, fmt.Errorf("PORT の値が不正です (%q): %w", v, err)
		}
		cfg.Port = v
	}
	if v, ok := get("SPECTATOR_ENABLED"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("SPECTATOR_ENABLED の値が不正です (%q): %w", v, err)
		}
		cfg.SpectatorEnabled = enabled
	}
	if v, ok := get("SPECTATOR_JWT_SECRET"); ok {
		cfg.SpectatorJWTSecret = v
	}
	if v, ok := get("CORS_ALLOWED_ORIGINS"); ok {
		origins := make([]string, 0)
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			cfg.CORSAllowedOrigins = origins
		}
	}
	if v, ok := get("GAME_SEED"); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("GAME_SEED の値が不正です (%q): %w", v, err)
		}
		cfg.GameSeed = seed
	}
	if v, ok := get("TICK_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("TICK_INTERVAL の値が不正です (%q): %w", v, err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("TICK_INTERVAL は正の値である必要があります: %s", d)
		}
		cfg.TickInterval = d
	}
	if v, ok := get("LOG_FILE"); ok {
		cfg.LogFile = v
	}

	return cfg, nil
}

// IsProduction は本番環境かどうかを返します。
func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Addr は観戦サーバーの待ち受けアドレスを返します。
func (c Config) Addr() string {
	return ":" + c.Port
}
