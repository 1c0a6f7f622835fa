// Package config provides centralized configuration management.
// All tunables live here; other packages reference these values.
package config

import (
	"os"
	"strconv"
)

// VideoConfig holds the presentation surface settings. The surface has fixed
// dimensions for the life of the session.
type VideoConfig struct {
	Width  int // Canvas width in pixels
	Height int // Canvas height in pixels
	FPS    int // Animation frames per second
}

// DefaultVideo returns the default video configuration.
func DefaultVideo() VideoConfig {
	return VideoConfig{
		Width:  1280,
		Height: 720,
		FPS:    60,
	}
}

// VideoFromEnv returns video configuration with environment overrides.
func VideoFromEnv() VideoConfig {
	cfg := DefaultVideo()

	if w := getEnvInt("ARENA_WIDTH", 0); w > 0 {
		cfg.Width = w
	}
	if h := getEnvInt("ARENA_HEIGHT", 0); h > 0 {
		cfg.Height = h
	}
	if fps := getEnvInt("ARENA_FPS", 0); fps > 0 {
		cfg.FPS = fps
	}

	return cfg
}

// NetConfig holds the connection settings. The websocket endpoint is derived
// from the page-style origin: same host and port, scheme upgraded to the
// matching ws/wss variant, plus a fixed path.
type NetConfig struct {
	ServerURL string // http(s) origin of the game server
	WSPath    string // upgrade path on that origin
	Username  string // default display name, may be overridden interactively
}

// DefaultNet returns the default connection configuration.
func DefaultNet() NetConfig {
	return NetConfig{
		ServerURL: "http://localhost:8000",
		WSPath:    "/ws",
	}
}

// NetFromEnv returns connection configuration with environment overrides.
func NetFromEnv() NetConfig {
	cfg := DefaultNet()

	if u := os.Getenv("ARENA_SERVER_URL"); u != "" {
		cfg.ServerURL = u
	}
	if p := os.Getenv("ARENA_WS_PATH"); p != "" {
		cfg.WSPath = p
	}
	if n := os.Getenv("ARENA_USERNAME"); n != "" {
		cfg.Username = n
	}

	return cfg
}

// InputConfig holds outbound input tuning.
type InputConfig struct {
	RotateIntervalMS       int // coalescing window for rotate messages
	RotateCombatIntervalMS int // narrowed window while fire is held
}

// DefaultInput returns the default input configuration.
func DefaultInput() InputConfig {
	return InputConfig{
		RotateIntervalMS:       100,
		RotateCombatIntervalMS: 30,
	}
}

// InputFromEnv returns input configuration with environment overrides.
func InputFromEnv() InputConfig {
	cfg := DefaultInput()

	if ms := getEnvInt("ARENA_ROTATE_INTERVAL_MS", 0); ms > 0 {
		cfg.RotateIntervalMS = ms
	}
	if ms := getEnvInt("ARENA_ROTATE_COMBAT_INTERVAL_MS", 0); ms > 0 {
		cfg.RotateCombatIntervalMS = ms
	}

	return cfg
}

// AudioConfig holds sound cue settings.
type AudioConfig struct {
	Enabled bool
	Volume  float64 // 0.0 to 1.0
}

// DefaultAudio returns the default audio configuration.
func DefaultAudio() AudioConfig {
	return AudioConfig{
		Enabled: true,
		Volume:  0.2,
	}
}

// AudioFromEnv returns audio configuration with environment overrides.
func AudioFromEnv() AudioConfig {
	cfg := DefaultAudio()

	if v := getEnvFloat("ARENA_CUE_VOLUME", -1); v >= 0 {
		cfg.Volume = v
	}
	if os.Getenv("ARENA_CUES_ENABLED") == "false" {
		cfg.Enabled = false
	}

	return cfg
}

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Video VideoConfig
	Net   NetConfig
	Input InputConfig
	Audio AudioConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Video: VideoFromEnv(),
		Net:   NetFromEnv(),
		Input: InputFromEnv(),
		Audio: AudioFromEnv(),
	}
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
