package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	LevelKey   = "log.level"
	FormatKey  = "log.format"
	NoColorKey = "log.no_color"
)

// Options override the viper-provided logging configuration.
type Options struct {
	Level   string
	Format  string
	NoColor bool
}

// InitDefault sets up a console logger before flags/config are parsed.
func InitDefault() {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
	})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// Init configures the global logger. Passing nil reads level/format from the
// viper configuration (flags and TOKENBRIDGE_* environment).
func Init(opts *Options) {
	if opts == nil {
		opts = &Options{
			Level:   viper.GetString(LevelKey),
			Format:  viper.GetString(FormatKey),
			NoColor: viper.GetBool(NoColorKey),
		}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	switch strings.ToLower(opts.Format) {
	case "json":
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	default:
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
			NoColor:    opts.NoColor,
		})
	}
}
