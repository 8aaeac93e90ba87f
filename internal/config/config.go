package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Game     Game   `yaml:"game"`
}

type Game struct {
	Host string `yaml:"host" env:"GAME_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GAME_PORT" env-default:"12345"`

	// MoveTimeout forfeits the game when the turn owner does not move in time.
	// Zero disables the timer.
	MoveTimeout time.Duration `yaml:"move-timeout" env:"GAME_MOVE_TIMEOUT" env-default:"0s"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Game) GetGameAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
