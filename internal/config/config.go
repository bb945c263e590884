// Package config loads service settings from built-in defaults, an optional
// YAML file and QUOTE_ prefixed environment variables, in that order.
package config

import (
	"freight-quote-service/internal/platform/budget"
	"freight-quote-service/internal/platform/ttlcache"
	"os"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	EnvPrefix      = "QUOTE_"
	envPathEnv     = "QUOTE_CONFIG"
	defaultCfgFile = "config.yaml"
)

type Config struct {
	HTTP         HTTP         `koanf:"http"`
	Log          Log          `koanf:"log"`
	ORS          ORS          `koanf:"ors"`
	TollGuru     TollGuru     `koanf:"tollguru"`
	Holidays     Holidays     `koanf:"holidays"`
	Datex        Datex        `koanf:"datex"`
	Cache        Cache        `koanf:"cache"`
	Budget       Budget       `koanf:"budget"`
	GeocodeStore GeocodeStore `koanf:"geocodeStore"`
	Keywords     Keywords     `koanf:"keywords"`

	// Offline swaps every provider for the local estimators.
	Offline bool `koanf:"offline"`
}

type HTTP struct {
	Port              int           `koanf:"port" validate:"gt=0,lt=65536"`
	ReadHeaderTimeout time.Duration `koanf:"readHeaderTimeout"`
	ReadTimeout       time.Duration `koanf:"readTimeout"`
	WriteTimeout      time.Duration `koanf:"writeTimeout"`
	IdleTimeout       time.Duration `koanf:"idleTimeout"`
	RequestTimeout    time.Duration `koanf:"requestTimeout"`
}

type Log struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn warning error"`
	Pretty bool   `koanf:"pretty"`
}

type ORS struct {
	APIKey              string        `koanf:"apiKey"`
	BaseURL             string        `koanf:"baseURL"`
	GeocodeURL          string        `koanf:"geocodeURL"`
	GeocodeTimeout      time.Duration `koanf:"geocodeTimeout"`
	DirectionsTimeout   time.Duration `koanf:"directionsTimeout"`
	Retries             int           `koanf:"retries" validate:"gte=0,lte=5"`
	DailyDirections     int           `koanf:"dailyDirections" validate:"gte=0"`
	DailyGeocoding      int           `koanf:"dailyGeocoding" validate:"gte=0"`
	PerMinuteDirections int           `koanf:"perMinuteDirections" validate:"gte=0"`
	PerMinuteGeocoding  int           `koanf:"perMinuteGeocoding" validate:"gte=0"`
}

type TollGuru struct {
	APIKey       string        `koanf:"apiKey"`
	BaseURL      string        `koanf:"baseURL"`
	Timeout      time.Duration `koanf:"timeout"`
	Retries      int           `koanf:"retries" validate:"gte=0,lte=5"`
	MonthlyLimit int           `koanf:"monthlyLimit" validate:"gte=0"`
	PerMinute    int           `koanf:"perMinute" validate:"gte=0"`
}

type Holidays struct {
	Enabled    bool          `koanf:"enabled"`
	BaseURL    string        `koanf:"baseURL"`
	Timeout    time.Duration `koanf:"timeout"`
	DailyLimit int           `koanf:"dailyLimit" validate:"gte=0"`
}

type Datex struct {
	Enabled    bool          `koanf:"enabled"`
	URL        string        `koanf:"url"`
	Country    string        `koanf:"country" validate:"len=2"`
	Timeout    time.Duration `koanf:"timeout"`
	DailyLimit int           `koanf:"dailyLimit" validate:"gte=0"`
}

// Cache TTLs of zero keep the per-kind default.
type Cache struct {
	MaxEntries      int           `koanf:"maxEntries" validate:"gte=0"`
	GeocodeTTL      time.Duration `koanf:"geocodeTTL"`
	RouteTTL        time.Duration `koanf:"routeTTL"`
	TollTTL         time.Duration `koanf:"tollTTL"`
	RestrictionsTTL time.Duration `koanf:"restrictionsTTL"`
	HolidaysTTL     time.Duration `koanf:"holidaysTTL"`
}

type Budget struct {
	Backend string `koanf:"backend" validate:"oneof=memory redis"`
	Redis   Redis  `koanf:"redis"`
}

type Redis struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"gte=0"`
	Prefix   string `koanf:"prefix"`
}

type GeocodeStore struct {
	Driver string `koanf:"driver" validate:"oneof=none postgres sqlite"`
	DSN    string `koanf:"dsn"`
}

type Keywords struct {
	SpecialTolls     []string `koanf:"specialTolls"`
	TruckRelevance   []string `koanf:"truckRelevance"`
	CriticalHolidays []string `koanf:"criticalHolidays"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		HTTP: HTTP{
			Port:              8080,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
			RequestTimeout:    45 * time.Second,
		},
		Log: Log{Level: "info"},
		ORS: ORS{
			GeocodeTimeout:      8 * time.Second,
			DirectionsTimeout:   10 * time.Second,
			DailyDirections:     2000,
			DailyGeocoding:      1000,
			PerMinuteDirections: 40,
			PerMinuteGeocoding:  100,
		},
		TollGuru: TollGuru{
			Timeout:      15 * time.Second,
			MonthlyLimit: 5000,
			PerMinute:    10,
		},
		Holidays: Holidays{
			Enabled:    true,
			Timeout:    5 * time.Second,
			DailyLimit: 5000,
		},
		Datex: Datex{
			Enabled:    true,
			Country:    "ES",
			Timeout:    10 * time.Second,
			DailyLimit: 2000,
		},
		Cache:        Cache{MaxEntries: ttlcache.DefaultMaxEntries},
		Budget:       Budget{Backend: "memory", Redis: Redis{Prefix: "quote-budget"}},
		GeocodeStore: GeocodeStore{Driver: "none"},
	}
}

// Load reads .env (when present), then the YAML file named by QUOTE_CONFIG or
// ./config.yaml (when present), then QUOTE_ environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path, required := os.Getenv(envPathEnv), true
	if path == "" {
		path, required = defaultCfgFile, false
	}
	return LoadFrom(path, required, os.Environ)
}

// LoadFrom is Load with an explicit file path and environment source. A
// missing file is an error only when required is set.
func LoadFrom(path string, required bool, environ func() []string) (*Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, errors.Wrapf(err, "read config file %s", path)
			}
		} else if required {
			return nil, errors.Errorf("config file %s not found", path)
		}
	}

	known := keyTree(reflect.TypeOf(cfg))
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:      EnvPrefix,
		EnvironFunc: environ,
		TransformFunc: func(key, v string) (string, any) {
			if key == envPathEnv {
				return "", nil
			}
			return envKeyPath(strings.TrimPrefix(key, EnvPrefix), known), v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables")
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			TagName:          "koanf",
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	cfg.Datex.Country = strings.ToUpper(cfg.Datex.Country)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	if c.Budget.Backend == "redis" && strings.TrimSpace(c.Budget.Redis.Addr) == "" {
		return errors.New("invalid config: budget.redis.addr is required for the redis backend")
	}
	if c.GeocodeStore.Driver != "none" && strings.TrimSpace(c.GeocodeStore.DSN) == "" {
		return errors.Errorf("invalid config: geocodeStore.dsn is required for driver %s", c.GeocodeStore.Driver)
	}
	return nil
}

// Limits converts the quota settings into budget limits.
func (c Config) Limits() []budget.Limit {
	return []budget.Limit{
		{Source: budget.SourceDirections, Window: budget.Daily, Quota: c.ORS.DailyDirections, PerMinute: c.ORS.PerMinuteDirections},
		{Source: budget.SourceGeocoding, Window: budget.Daily, Quota: c.ORS.DailyGeocoding, PerMinute: c.ORS.PerMinuteGeocoding},
		{Source: budget.SourceTolls, Window: budget.Monthly, Quota: c.TollGuru.MonthlyLimit, PerMinute: c.TollGuru.PerMinute},
		{Source: budget.SourceHolidays, Window: budget.Daily, Quota: c.Holidays.DailyLimit},
		{Source: budget.SourceTraffic, Window: budget.Daily, Quota: c.Datex.DailyLimit},
	}
}

// TTLs returns the per-kind cache overrides.
func (c Config) TTLs() map[ttlcache.Kind]time.Duration {
	return map[ttlcache.Kind]time.Duration{
		ttlcache.KindGeocode:      c.Cache.GeocodeTTL,
		ttlcache.KindRoute:        c.Cache.RouteTTL,
		ttlcache.KindToll:         c.Cache.TollTTL,
		ttlcache.KindRestrictions: c.Cache.RestrictionsTTL,
		ttlcache.KindHolidays:     c.Cache.HolidaysTTL,
	}
}

// keyTree mirrors the koanf tag layout of t as nested maps.
func keyTree(t reflect.Type) map[string]any {
	out := map[string]any{}
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get("koanf")
		if tag == "" {
			continue
		}
		if f.Type.Kind() == reflect.Struct && f.Type != reflect.TypeOf(time.Duration(0)) {
			out[tag] = keyTree(f.Type)
			continue
		}
		out[tag] = nil
	}
	return out
}

// envKeyPath maps ORS__API_KEY to ors.apiKey. Double underscores separate
// sections; single underscores inside a segment are ignored when matching.
func envKeyPath(raw string, known map[string]any) string {
	segments := strings.Split(strings.ToLower(raw), "__")
	out := make([]string, 0, len(segments))
	current := known

	for _, seg := range segments {
		if seg == "" {
			continue
		}
		matched, next, ok := findSegment(current, seg)
		if !ok {
			out = append(out, seg)
			current = nil
			continue
		}
		out = append(out, matched)
		current = next
	}
	return strings.Join(out, ".")
}

func findSegment(current map[string]any, segment string) (string, map[string]any, bool) {
	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}
		child, _ := value.(map[string]any)
		return key, child, true
	}
	return "", nil, false
}

func normalizeToken(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
