package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/tyefraser/nab-nai-files/pkg/codetable"
)

// Codes mirrors the transaction_detail_codes block of the config file:
// three maps keyed by transaction code.
type Codes struct {
	DrCr                   map[string]string `mapstructure:"dr_cr"`
	TransactionDescription map[string]string `mapstructure:"transaction_description"`
	StatementParticulars   map[string]string `mapstructure:"statement_particulars"`
}

// Config carries everything the processing pipeline needs. Fields map
// one to one onto config file keys.
type Config struct {
	InputFolderPath        string   `mapstructure:"input_folder_path"`
	OutputFolderPath       string   `mapstructure:"output_folder_path"`
	Outputs                []string `mapstructure:"outputs"`
	Workers                int      `mapstructure:"workers"`
	TransactionCodesFile   string   `mapstructure:"transaction_codes_file"`
	TransactionDetailCodes Codes    `mapstructure:"transaction_detail_codes"`
}

// flagBindings maps config keys to the command line flags that may
// override them.
var flagBindings = map[string]string{
	"input_folder_path":      "input",
	"output_folder_path":     "output",
	"outputs":                "outputs",
	"workers":                "workers",
	"transaction_codes_file": "codes",
}

// Build assembles configuration from, in rising precedence: defaults, the
// config file, NAI_* environment variables (a .env file is loaded first
// when present) and command line flags. When cfgFile is empty a
// config.yaml in the working directory is used if there is one.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	_ = gotenv.Load()

	v := viper.New()
	v.SetDefault("workers", 1)
	v.SetDefault("outputs", []string{"checks"})

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("NAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagBindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// CodeTable builds the transaction code lookup the configuration points
// at: a codes file when one is named (the bank's XLS, or YAML), otherwise
// the inline transaction_detail_codes maps. With neither present every
// lookup simply misses.
func (c *Config) CodeTable() (codetable.Lookup, error) {
	if c.TransactionCodesFile != "" {
		if strings.EqualFold(filepath.Ext(c.TransactionCodesFile), ".xls") {
			return codetable.FromXLS(c.TransactionCodesFile)
		}
		return codetable.FromYAML(c.TransactionCodesFile)
	}

	codes := c.TransactionDetailCodes
	return codetable.New(codes.DrCr, codes.TransactionDescription, codes.StatementParticulars), nil
}
