package kouhai

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"git.sr.ht/~emersion/go-scfg"
	"git.sr.ht/~rockorager/vaxis"

	"git.sr.ht/~delthas/kouhai/ui"
)

func parseColor(s string, c *vaxis.Color) error {
	if strings.HasPrefix(s, "#") {
		hex, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return err
		}

		*c = vaxis.HexColor(uint32(hex))
		return nil
	}

	code, err := strconv.Atoi(s)
	if err != nil {
		return err
	}

	if code == -1 {
		*c = ui.ColorDefault
		return nil
	}

	if code < 0 || code > 255 {
		return fmt.Errorf("color code must be between 0-255. If you meant to use true colors, use #aabbcc notation")
	}

	*c = vaxis.IndexColor(uint8(code))

	return nil
}

type ConfigColors struct {
	Prompt vaxis.Color
	Unread vaxis.Color
	Nicks  ui.ColorScheme
}

// GuildConfig lists the channels of a guild opened on startup.
type GuildConfig struct {
	// Guild is a guild id or name.
	Guild string
	// Channels are channel ids or names. Empty means every text channel.
	Channels []string
}

type Config struct {
	Token string

	Guilds         []GuildConfig
	DirectMessages bool

	MessageFetchCount int
	SendRate          float64
	SendBurst         int

	Highlights      []string
	Ignores         []string
	OnHighlightBeep bool

	Mouse            bool
	NickColWidth     int
	ChanColWidth     int
	ChanColEnabled   bool
	MemberColWidth   int
	MemberColEnabled bool
	TextMaxWidth     int

	Colors ConfigColors

	LogFile string
	Debug   bool
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "kouhai", "kouhai.scfg"), nil
}

func DefaultLogPath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "kouhai", "kouhai.log"), nil
}

func Defaults() Config {
	return Config{
		DirectMessages:    true,
		MessageFetchCount: 50,
		SendRate:          1,
		SendBurst:         5,
		Mouse:             true,
		NickColWidth:      14,
		ChanColWidth:      20,
		ChanColEnabled:    true,
		MemberColWidth:    16,
		MemberColEnabled:  true,
		Colors: ConfigColors{
			Prompt: ui.ColorDefault,
			Unread: ui.ColorDefault,
			Nicks: ui.ColorScheme{
				Type: ui.ColorSchemeRoles,
			},
		},
	}
}

func LoadConfigFile(filename string) (cfg Config, err error) {
	cfg = Defaults()

	err = unmarshal(filename, &cfg)
	if err != nil {
		return cfg, err
	}
	if cfg.Token == "" {
		return cfg, errors.New("token is required")
	}
	return cfg, nil
}

func parseBool(d *scfg.Directive, b *bool) error {
	var s string
	if err := d.ParseParams(&s); err != nil {
		return err
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("directive %q: %v", d.Name, err)
	}
	*b = v
	return nil
}

func parseInt(d *scfg.Directive, i *int) error {
	var s string
	if err := d.ParseParams(&s); err != nil {
		return err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("directive %q: %v", d.Name, err)
	}
	*i = v
	return nil
}

// parseColumn reads a pane width; zero or negative widths hide the pane.
func parseColumn(d *scfg.Directive, width *int, enabled *bool) error {
	var v int
	if err := parseInt(d, &v); err != nil {
		return err
	}
	if v <= 0 {
		*enabled = false
		if v < 0 {
			*width = -v
		}
	} else {
		*width = v
	}
	return nil
}

func unmarshal(filename string, cfg *Config) (err error) {
	directives, err := scfg.Load(filename)
	if err != nil {
		return fmt.Errorf("error parsing scfg: %s", err)
	}

	for _, d := range directives {
		switch d.Name {
		case "token":
			// if a token-cmd is provided, don't use this value
			if directives.Get("token-cmd") != nil {
				continue
			}
			if err := d.ParseParams(&cfg.Token); err != nil {
				return err
			}
		case "token-cmd":
			var cmdName string
			if err := d.ParseParams(&cmdName); err != nil {
				return err
			}

			cmd := exec.Command(cmdName, d.Params[1:]...)
			var stdout []byte
			if stdout, err = cmd.Output(); err != nil {
				return fmt.Errorf("error running token command: %s", err)
			}

			token, _, _ := strings.Cut(string(stdout), "\n")
			cfg.Token = strings.TrimSpace(token)
		case "guild":
			var guild GuildConfig
			if err := d.ParseParams(&guild.Guild); err != nil {
				return err
			}
			for _, child := range d.Children {
				switch child.Name {
				case "channel":
					if len(child.Params) == 0 {
						return fmt.Errorf("directive %q: expected at least one channel", child.Name)
					}
					guild.Channels = append(guild.Channels, child.Params...)
				default:
					return fmt.Errorf("unknown directive %q", child.Name)
				}
			}
			cfg.Guilds = append(cfg.Guilds, guild)
		case "direct-messages":
			if err := parseBool(d, &cfg.DirectMessages); err != nil {
				return err
			}
		case "message-fetch-count":
			var n int
			if err := parseInt(d, &n); err != nil {
				return err
			}
			if n < 1 || n > 100 {
				return fmt.Errorf("message-fetch-count must be between 1-100")
			}
			cfg.MessageFetchCount = n
		case "send-rate":
			var rate, burst string
			if err := d.ParseParams(&rate, &burst); err != nil {
				return err
			}
			if cfg.SendRate, err = strconv.ParseFloat(rate, 64); err != nil {
				return err
			}
			if cfg.SendBurst, err = strconv.Atoi(burst); err != nil {
				return err
			}
			if cfg.SendRate <= 0 || cfg.SendBurst < 1 {
				return fmt.Errorf("send-rate must be positive")
			}
		case "highlight":
			cfg.Highlights = append(cfg.Highlights, d.Params...)
		case "ignore":
			cfg.Ignores = append(cfg.Ignores, d.Params...)
		case "pane-widths":
			for _, child := range d.Children {
				switch child.Name {
				case "nicknames":
					if err := parseInt(child, &cfg.NickColWidth); err != nil {
						return err
					}
				case "channels":
					if err := parseColumn(child, &cfg.ChanColWidth, &cfg.ChanColEnabled); err != nil {
						return err
					}
				case "members":
					if err := parseColumn(child, &cfg.MemberColWidth, &cfg.MemberColEnabled); err != nil {
						return err
					}
				case "text":
					if err := parseInt(child, &cfg.TextMaxWidth); err != nil {
						return err
					}
				default:
					return fmt.Errorf("unknown directive %q", child.Name)
				}
			}
		case "on-highlight-beep":
			if err := parseBool(d, &cfg.OnHighlightBeep); err != nil {
				return err
			}
		case "mouse":
			if err := parseBool(d, &cfg.Mouse); err != nil {
				return err
			}
		case "colors":
			for _, child := range d.Children {
				if child.Name == "nicks" {
					if err := parseNickColors(child, &cfg.Colors.Nicks); err != nil {
						return err
					}
					continue
				}

				var colorStr string
				if err := child.ParseParams(&colorStr); err != nil {
					return err
				}
				var color vaxis.Color
				if err = parseColor(colorStr, &color); err != nil {
					return err
				}
				switch child.Name {
				case "prompt":
					cfg.Colors.Prompt = color
				case "unread":
					cfg.Colors.Unread = color
				default:
					return fmt.Errorf("unknown directive %q", child.Name)
				}
			}
		case "log-file":
			if err := d.ParseParams(&cfg.LogFile); err != nil {
				return err
			}
		case "debug":
			if err := parseBool(d, &cfg.Debug); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown directive %q", d.Name)
		}
	}

	return
}

func parseNickColors(d *scfg.Directive, scheme *ui.ColorScheme) error {
	var kind string
	if err := d.ParseParams(&kind); err != nil {
		return err
	}
	switch kind {
	case "base":
		scheme.Type = ui.ColorSchemeBase
	case "extended":
		scheme.Type = ui.ColorSchemeExtended
	case "roles":
		scheme.Type = ui.ColorSchemeRoles
	case "fixed":
		var others, self string
		if err := d.ParseParams(&kind, &others, &self); err != nil {
			return err
		}
		scheme.Type = ui.ColorSchemeFixed
		if err := parseColor(others, &scheme.Others); err != nil {
			return err
		}
		if err := parseColor(self, &scheme.Self); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown nick color scheme %q", kind)
	}
	return nil
}
