// Package config provides configuration loading for gloss using TOML.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Languages configures the lookup language pair. Source "auto" enables
// detection before dictionary lookups.
type Languages struct {
	Source string `toml:"source"`
	Target string `toml:"target"`
}

// Dictionary settings.
type Dictionary struct {
	BaseURL string `toml:"baseUrl"`
}

// Translate settings. Instances are tried in order until one answers.
type Translate struct {
	Instances []string `toml:"instances"`
}

// Fetcher settings for page retrieval.
type Fetcher struct {
	UserAgent      string `toml:"userAgent"`
	TimeoutSeconds int    `toml:"timeoutSeconds"`
	ChromePath     string `toml:"chromePath"`
}

// Display settings.
type Display struct {
	ReducedMotion bool `toml:"reducedMotion"`
}

// Editor settings.
type Editor struct {
	Scheme string `toml:"scheme"` // "emacs" or "plain"
}

// Store settings for saved selections.
type Store struct {
	Path string `toml:"path"` // sqlite database location
}

// AI settings for the ask panel.
type AI struct {
	Model     string `toml:"model"`
	APIKeyEnv string `toml:"apiKeyEnv"` // env var holding the key
}

// Keybindings for the page keymap. Single printable characters; these
// never fire while a text field holds focus.
type Keybindings struct {
	Quit         string `toml:"quit"`
	ScrollDown   string `toml:"scrollDown"`
	ScrollUp     string `toml:"scrollUp"`
	HalfPageDown string `toml:"halfPageDown"`
	HalfPageUp   string `toml:"halfPageUp"`
	GoTop        string `toml:"goTop"`
	GoBottom     string `toml:"goBottom"`
	OpenURL      string `toml:"openUrl"`
	Learn        string `toml:"learn"` // act on the saved selection
	Note         string `toml:"note"`
	Chat         string `toml:"chat"`
	PlayAudio    string `toml:"playAudio"`
}

// Config is the main configuration struct.
type Config struct {
	Languages   Languages   `toml:"languages"`
	Dictionary  Dictionary  `toml:"dictionary"`
	Translate   Translate   `toml:"translate"`
	Fetcher     Fetcher     `toml:"fetcher"`
	Display     Display     `toml:"display"`
	Editor      Editor      `toml:"editor"`
	Store       Store       `toml:"store"`
	AI          AI          `toml:"ai"`
	Keybindings Keybindings `toml:"keybindings"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Languages: Languages{
			Source: "auto",
			Target: "en",
		},
		Dictionary: Dictionary{
			BaseURL: "https://api.dictionaryapi.dev/api/v2/entries/en",
		},
		Translate: Translate{
			Instances: []string{
				"https://lingva.ml",
				"https://translate.plausibility.cloud",
			},
		},
		Fetcher: Fetcher{
			UserAgent:      "gloss/1.0 (Terminal Reader)",
			TimeoutSeconds: 30,
		},
		Editor: Editor{
			Scheme: "emacs",
		},
		Store: Store{
			Path: "", // resolved to the config dir when empty
		},
		AI: AI{
			Model:     "claude-sonnet-4-20250514",
			APIKeyEnv: "ANTHROPIC_API_KEY",
		},
		Keybindings: Keybindings{
			Quit:         "q",
			ScrollDown:   "j",
			ScrollUp:     "k",
			HalfPageDown: "d",
			HalfPageUp:   "u",
			GoTop:        "g",
			GoBottom:     "G",
			OpenURL:      "o",
			Learn:        "L",
			Note:         "N",
			Chat:         "A",
			PlayAudio:    "p",
		},
	}
}

// configDir returns the configuration directory path.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "gloss"), nil
}

// ConfigPath returns the path to the user's config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// StorePath resolves the record database location, honoring an explicit
// override from the config.
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	return filepath.Join(dir, "records.db"), nil
}

// Load loads configuration, layering user config on top of defaults.
// Returns the default config if no user config exists.
func Load() (*Config, error) {
	cfg := Default()

	configPath, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	var user Config
	if _, err := toml.DecodeFile(configPath, &user); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
	}
	return merge(cfg, &user), nil
}

// merge layers user config on top of defaults. Only non-zero values from
// the user config override.
func merge(defaults, user *Config) *Config {
	result := *defaults

	setString(&result.Languages.Source, user.Languages.Source)
	setString(&result.Languages.Target, user.Languages.Target)
	setString(&result.Dictionary.BaseURL, user.Dictionary.BaseURL)
	if len(user.Translate.Instances) > 0 {
		result.Translate.Instances = user.Translate.Instances
	}
	setString(&result.Fetcher.UserAgent, user.Fetcher.UserAgent)
	if user.Fetcher.TimeoutSeconds != 0 {
		result.Fetcher.TimeoutSeconds = user.Fetcher.TimeoutSeconds
	}
	setString(&result.Fetcher.ChromePath, user.Fetcher.ChromePath)
	if user.Display.ReducedMotion {
		result.Display.ReducedMotion = true
	}
	setString(&result.Editor.Scheme, user.Editor.Scheme)
	setString(&result.Store.Path, user.Store.Path)
	setString(&result.AI.Model, user.AI.Model)
	setString(&result.AI.APIKeyEnv, user.AI.APIKeyEnv)

	setString(&result.Keybindings.Quit, user.Keybindings.Quit)
	setString(&result.Keybindings.ScrollDown, user.Keybindings.ScrollDown)
	setString(&result.Keybindings.ScrollUp, user.Keybindings.ScrollUp)
	setString(&result.Keybindings.HalfPageDown, user.Keybindings.HalfPageDown)
	setString(&result.Keybindings.HalfPageUp, user.Keybindings.HalfPageUp)
	setString(&result.Keybindings.GoTop, user.Keybindings.GoTop)
	setString(&result.Keybindings.GoBottom, user.Keybindings.GoBottom)
	setString(&result.Keybindings.OpenURL, user.Keybindings.OpenURL)
	setString(&result.Keybindings.Learn, user.Keybindings.Learn)
	setString(&result.Keybindings.Note, user.Keybindings.Note)
	setString(&result.Keybindings.Chat, user.Keybindings.Chat)
	setString(&result.Keybindings.PlayAudio, user.Keybindings.PlayAudio)

	return &result
}

func setString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// Matches reports whether a pressed rune matches a single-character
// binding.
func Matches(r rune, binding string) bool {
	rs := []rune(binding)
	return len(rs) == 1 && rs[0] == r
}

// DefaultTOML returns the default configuration as a TOML string, used to
// generate a starter config file.
func DefaultTOML() string {
	return `# gloss configuration
# Save to ~/.config/gloss/config.toml and customize
# Only include settings you want to change from defaults

[languages]
source = "auto"               # "auto" detects before dictionary lookups
target = "en"

[dictionary]
baseUrl = "https://api.dictionaryapi.dev/api/v2/entries/en"

[translate]
instances = ["https://lingva.ml", "https://translate.plausibility.cloud"]

[fetcher]
userAgent = "gloss/1.0 (Terminal Reader)"
timeoutSeconds = 30
chromePath = ""               # Path to Chrome/Chromium for JS rendering (empty = auto-detect)

[display]
reducedMotion = false         # Disable popup and scroll animations

[editor]
scheme = "emacs"              # "emacs" or "plain"

[store]
path = ""                     # sqlite path for saved selections (empty = config dir)

[ai]
model = "claude-sonnet-4-20250514"
apiKeyEnv = "ANTHROPIC_API_KEY"

[keybindings]
quit = "q"
scrollDown = "j"
scrollUp = "k"
halfPageDown = "d"
halfPageUp = "u"
goTop = "g"
goBottom = "G"
openUrl = "o"
learn = "L"                   # Open the learn panel for the saved selection
note = "N"
chat = "A"
playAudio = "p"
`
}
