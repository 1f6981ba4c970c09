package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration, loaded from the environment with an
// optional .env file underneath.
type Config struct {
	Addr        string `env:"ADDR" envDefault:":8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	Env         string `env:"ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	Game GameDefaults `envPrefix:"GAME_"`
}

// GameDefaults seed a new room's configuration when the client does not
// override them.
type GameDefaults struct {
	MinPlayers         int  `env:"MIN_PLAYERS" envDefault:"4"`
	MaxPlayers         int  `env:"MAX_PLAYERS" envDefault:"15"`
	MafiaCount         int  `env:"MAFIA_COUNT" envDefault:"1"`
	DoctorCount        int  `env:"DOCTOR_COUNT" envDefault:"1"`
	DetectiveCount     int  `env:"DETECTIVE_COUNT" envDefault:"1"`
	RevealRolesOnDeath bool `env:"REVEAL_ROLES_ON_DEATH" envDefault:"true"`
	ShowVoteCounts     bool `env:"SHOW_VOTE_COUNTS" envDefault:"true"`
}

func Load() (*Config, error) {
	// Missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
