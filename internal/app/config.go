package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"glyphbridge/internal/codec"
	"glyphbridge/internal/input"
	"glyphbridge/internal/observability"
	"glyphbridge/internal/telemetry"
	"glyphbridge/logging"
)

// ConfigPathEnv names the environment variable holding the YAML config path.
const ConfigPathEnv = "GLYPHBRIDGE_CONFIG"

// Config is the full process configuration.
type Config struct {
	CanvasURL      string        `yaml:"canvas_url"`
	ROMURL         string        `yaml:"rom_url"`
	MaxROMBytes    int64         `yaml:"max_rom_bytes"`
	Source         string        `yaml:"source"`
	Width          int           `yaml:"width"`
	Height         int           `yaml:"height"`
	Policy         string        `yaml:"policy"`
	ChannelOrder   string        `yaml:"channel_order"`
	RenderHz       float64       `yaml:"render_hz"`
	AdvanceHz      float64       `yaml:"advance_hz"`
	MaxBatch       int           `yaml:"max_batch"`
	OriginTileX    int           `yaml:"origin_tile_x"`
	OriginTileY    int           `yaml:"origin_tile_y"`
	Interlace      bool          `yaml:"interlace"`
	EditIDs        string        `yaml:"edit_ids"`
	Hold           time.Duration `yaml:"hold"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	FatalOnClose   bool          `yaml:"fatal_on_close"`

	Controller ControllerConfig `yaml:"controller"`
	Chat       ChatConfig       `yaml:"chat"`

	DiagAddr   string `yaml:"diag_addr"`
	AdminToken string `yaml:"admin_token"`

	Logging       logging.Config       `yaml:"logging"`
	Observability observability.Config `yaml:"observability"`

	Logger telemetry.Logger `yaml:"-"`
}

// ControllerConfig places the clickable button row. Row and Col are cell
// offsets below the left edge of the screen.
type ControllerConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Row         int    `yaml:"row"`
	Col         int    `yaml:"col"`
	URLTemplate string `yaml:"url_template"`
}

// ChatConfig controls how the bridge presents itself in chat.
type ChatConfig struct {
	Nickname string   `yaml:"nickname"`
	Color    string   `yaml:"color"`
	Greeting string   `yaml:"greeting"`
	Admins   []string `yaml:"admins"`
}

const (
	SourceTestCard = "testcard"
	SourceStill    = "still"
)

// DefaultConfig matches a Game Boy screen rendered with half blocks.
func DefaultConfig() Config {
	return Config{
		Source:         SourceTestCard,
		Width:          160,
		Height:         144,
		Policy:         "halfblock",
		ChannelOrder:   string(codec.OrderRGB),
		RenderHz:       2,
		AdvanceHz:      60,
		MaxBatch:       500,
		Interlace:      true,
		EditIDs:        "seeded",
		Hold:           input.Hold,
		ReconnectDelay: time.Second,
		Controller: ControllerConfig{
			Enabled: true,
			Row:     1,
		},
		Chat: ChatConfig{
			Nickname: "glyphbridge",
			Color:    "#00aaff",
			Greeting: "type a button name (up, a, start, right+a...) to play",
		},
		DiagAddr: "127.0.0.1:8090",
		Logging:  logging.DefaultConfig(),
	}
}

// LoadFile overlays a YAML file onto cfg.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment variables onto cfg. Invalid values are
// logged and ignored.
func ApplyEnv(cfg *Config, getenv func(string) string, logger telemetry.Logger) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if logger == nil {
		logger = telemetry.LoggerFunc(nil)
	}

	str := func(name string, dst *string) {
		if raw := getenv(name); raw != "" {
			*dst = raw
		}
	}
	integer := func(name string, dst *int) {
		if raw := getenv(name); raw != "" {
			if value, err := strconv.Atoi(raw); err == nil {
				*dst = value
			} else {
				logger.Printf("invalid %s=%q: %v", name, raw, err)
			}
		}
	}
	float := func(name string, dst *float64) {
		if raw := getenv(name); raw != "" {
			if value, err := strconv.ParseFloat(raw, 64); err == nil {
				*dst = value
			} else {
				logger.Printf("invalid %s=%q: %v", name, raw, err)
			}
		}
	}
	boolean := func(name string, dst *bool) {
		if raw := getenv(name); raw != "" {
			if value, err := strconv.ParseBool(raw); err == nil {
				*dst = value
			} else {
				logger.Printf("invalid %s=%q: %v", name, raw, err)
			}
		}
	}

	str("CANVAS_URL", &cfg.CanvasURL)
	str("ROM_URL", &cfg.ROMURL)
	str("SOURCE", &cfg.Source)
	str("POLICY", &cfg.Policy)
	str("CHANNEL_ORDER", &cfg.ChannelOrder)
	str("EDIT_IDS", &cfg.EditIDs)
	str("DIAG_ADDR", &cfg.DiagAddr)
	str("ADMIN_TOKEN", &cfg.AdminToken)
	str("STATSVIEW_ADDR", &cfg.Observability.StatsviewAddr)
	str("LOG_JSON_PATH", &cfg.Logging.JSON.FilePath)
	str("CHAT_NICKNAME", &cfg.Chat.Nickname)
	integer("WIDTH", &cfg.Width)
	integer("HEIGHT", &cfg.Height)
	integer("MAX_BATCH", &cfg.MaxBatch)
	integer("ORIGIN_TILE_X", &cfg.OriginTileX)
	integer("ORIGIN_TILE_Y", &cfg.OriginTileY)
	float("RENDER_HZ", &cfg.RenderHz)
	float("ADVANCE_HZ", &cfg.AdvanceHz)
	boolean("INTERLACE", &cfg.Interlace)
	boolean("FATAL_ON_CLOSE", &cfg.FatalOnClose)
	boolean("CONTROLLER", &cfg.Controller.Enabled)
	boolean("ENABLE_PPROF", &cfg.Observability.EnablePprof)

	if raw := getenv("CHAT_ADMINS"); raw != "" {
		var admins []string
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				admins = append(admins, name)
			}
		}
		cfg.Chat.Admins = admins
	}
	if raw := getenv("LOG_LEVEL"); raw != "" {
		if severity, err := logging.ParseSeverity(raw); err == nil {
			cfg.Logging.MinimumSeverity = severity
		} else {
			logger.Printf("invalid LOG_LEVEL=%q: %v", raw, err)
		}
	}
	if cfg.Logging.JSON.FilePath != "" && !cfg.Logging.HasSink("json") {
		cfg.Logging.EnabledSinks = append(cfg.Logging.EnabledSinks, "json")
	}
}

// Validate rejects configurations the pipeline cannot run.
func (c Config) Validate() error {
	var errs []error
	if c.CanvasURL == "" {
		errs = append(errs, errors.New("canvas_url is required"))
	}
	policy, err := codec.PolicyByName(c.Policy)
	if err != nil {
		errs = append(errs, err)
	} else if _, err := codec.NewGeometry(c.Width, c.Height, policy); err != nil {
		errs = append(errs, err)
	}
	if _, err := codec.ParseChannelOrder(c.ChannelOrder); err != nil {
		errs = append(errs, err)
	}
	switch c.Source {
	case SourceTestCard:
	case SourceStill:
		if c.ROMURL == "" {
			errs = append(errs, errors.New("the still source needs rom_url"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source %q", c.Source))
	}
	switch c.EditIDs {
	case "", "seeded", "counter":
	default:
		errs = append(errs, fmt.Errorf("unknown edit_ids mode %q", c.EditIDs))
	}
	if c.RenderHz <= 0 || c.AdvanceHz <= 0 {
		errs = append(errs, errors.New("render_hz and advance_hz must be > 0"))
	}
	if c.MaxBatch <= 0 {
		errs = append(errs, errors.New("max_batch must be > 0"))
	}
	if c.OriginTileX < 0 || c.OriginTileY < 0 {
		errs = append(errs, errors.New("origin tiles must be >= 0"))
	}
	if c.Controller.Row < 0 || c.Controller.Col < 0 {
		errs = append(errs, errors.New("controller offsets must be >= 0"))
	}
	return errors.Join(errs...)
}
