package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the configuration struct for the service.
type Config struct {
	// Market is the backtested market.
	Market string
	// HigherTimeframeDataPath is the filepath to the 4 hour candle data.
	HigherTimeframeDataPath string
	// LowerTimeframeDataPath is the filepath to the 15 minute candle data.
	LowerTimeframeDataPath string
	// ClickHouseAddr is the optional clickhouse candle warehouse address.
	ClickHouseAddr string
	// ClickHouseDatabase is the clickhouse database name.
	ClickHouseDatabase string
	// ClickHouseUser is the clickhouse user.
	ClickHouseUser string
	// ClickHousePass is the clickhouse user pass.
	ClickHousePass string
	// ProfilePath is the optional filepath to the yaml strategy profile.
	ProfilePath string
	// OutputPath is the optional filepath for the json run result.
	OutputPath string
	// DatabaseEndpoint is the optional rqlite endpoint for trade persistence.
	DatabaseEndpoint string
	// DatabaseUser is the database user.
	DatabaseUser string
	// DatabasePass is the database user pass.
	DatabasePass string

	registeredFlags map[string]bool
}

// Validate asserts the config has sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.Market == "" {
		errs = errors.Join(errs, fmt.Errorf("market cannot be an empty string"))
	}
	if cfg.ClickHouseAddr == "" {
		if cfg.HigherTimeframeDataPath == "" {
			errs = errors.Join(errs, fmt.Errorf("higher timeframe data filepath cannot be an empty string"))
		}
		if cfg.LowerTimeframeDataPath == "" {
			errs = errors.Join(errs, fmt.Errorf("lower timeframe data filepath cannot be an empty string"))
		}
	}

	return errs
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
func (cfg *Config) registerFlag(name string, value interface{}, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(name)
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	switch val.Elem().Kind() {
	case reflect.String:
		flag.StringVar(value.(*string), name, defValue, usage)
	case reflect.Bool:
		var def bool
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		var def int
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	// Register command line arguments using loaded environment variables as defaults.
	err = cfg.registerFlag("market", &cfg.Market, "the backtested market")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("higherdata", &cfg.HigherTimeframeDataPath, "the 4 hour candle data filepath")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("lowerdata", &cfg.LowerTimeframeDataPath, "the 15 minute candle data filepath")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("clickhouseaddr", &cfg.ClickHouseAddr, "the clickhouse candle warehouse address")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("clickhousedb", &cfg.ClickHouseDatabase, "the clickhouse database name")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("clickhouseuser", &cfg.ClickHouseUser, "the clickhouse user")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("clickhousepass", &cfg.ClickHousePass, "the clickhouse user pass")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("profile", &cfg.ProfilePath, "the yaml strategy profile filepath")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("output", &cfg.OutputPath, "the json run result filepath")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("dbendpoint", &cfg.DatabaseEndpoint, "the rqlite endpoint for trade persistence")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("dbuser", &cfg.DatabaseUser, "the database user")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("dbpass", &cfg.DatabasePass, "the database user pass")
	if err != nil {
		return err
	}

	// Parse command-line flags.
	flag.Parse()

	return cfg.Validate()
}
