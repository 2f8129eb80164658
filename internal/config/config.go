// Package config loads the application configuration from file,
// environment and defaults, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/oslo-method/nldnorm/internal/norm"
	"github.com/oslo-method/nldnorm/internal/solver"
	"github.com/oslo-method/nldnorm/internal/spincut"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Norm    NormConfig    `yaml:"norm" mapstructure:"norm"`
	Anchor  AnchorConfig  `yaml:"anchor" mapstructure:"anchor"`
	Spincut SpincutConfig `yaml:"spincut" mapstructure:"spincut"`
	Solver  SolverConfig  `yaml:"solver" mapstructure:"solver"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run-history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// NormConfig configures the normalization procedure.
type NormConfig struct {
	Model      string      `yaml:"model" mapstructure:"model"` // extrapolation model, "CT"
	Window     norm.Window `yaml:"window" mapstructure:"window"`
	Resolution float64     `yaml:"resolution" mapstructure:"resolution"` // level smoothing resolution [MeV]
	ExtLo      float64     `yaml:"ext_lo" mapstructure:"ext_lo"`         // extrapolation grid [MeV]
	ExtHi      float64     `yaml:"ext_hi" mapstructure:"ext_hi"`
}

// AnchorConfig holds the experimental resonance anchor.
type AnchorConfig struct {
	D0      float64 `yaml:"d0" mapstructure:"d0"`             // [eV]
	D0Sigma float64 `yaml:"d0_sigma" mapstructure:"d0_sigma"` // informative prior width [eV], 0 = 10% of D0
	Sn      float64 `yaml:"sn" mapstructure:"sn"`             // [MeV]
	Jtarget float64 `yaml:"j_target" mapstructure:"j_target"`
}

// SpincutConfig selects the spin-cutoff model and its parameters.
type SpincutConfig struct {
	Model  string         `yaml:"model" mapstructure:"model"`
	Params spincut.Params `yaml:"params" mapstructure:"params"`
}

// SolverConfig configures the bundled optimizer and sampler.
type SolverConfig struct {
	Bounds  BoundsConfig `yaml:"bounds" mapstructure:"bounds"`
	PopSize int          `yaml:"pop_size" mapstructure:"pop_size"`
	MaxIter int          `yaml:"max_iter" mapstructure:"max_iter"`
	Samples int          `yaml:"samples" mapstructure:"samples"`
	BurnIn  int          `yaml:"burn_in" mapstructure:"burn_in"`
	Seed    uint64       `yaml:"seed" mapstructure:"seed"` // 0 = time-seeded
}

// BoundsConfig is the search box for (A, alpha, T, D0).
type BoundsConfig struct {
	A     solver.Bound `yaml:"a" mapstructure:"a"`
	Alpha solver.Bound `yaml:"alpha" mapstructure:"alpha"`
	T     solver.Bound `yaml:"t" mapstructure:"t"`
	D0    solver.Bound `yaml:"d0" mapstructure:"d0"`
}

// Slice returns the bounds ordered as the objective's parameter vector.
func (b BoundsConfig) Slice() []solver.Bound {
	return []solver.Bound{b.A, b.Alpha, b.T, b.D0}
}

// ServerConfig configures the HTTP job server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("NLDNORM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "nldnorm.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("norm.model", "CT")
	v.SetDefault("norm.resolution", 0.1)
	v.SetDefault("spincut.model", "EB05")
	v.SetDefault("solver.bounds.a.lo", 0.01)
	v.SetDefault("solver.bounds.a.hi", 100)
	v.SetDefault("solver.bounds.alpha.lo", -5)
	v.SetDefault("solver.bounds.alpha.hi", 5)
	v.SetDefault("solver.bounds.t.lo", 0.05)
	v.SetDefault("solver.bounds.t.hi", 2)
	v.SetDefault("solver.bounds.d0.lo", 0.1)
	v.SetDefault("solver.bounds.d0.hi", 100)
	v.SetDefault("solver.samples", 2000)
	v.SetDefault("solver.burn_in", 1000)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
