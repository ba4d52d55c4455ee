package main

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

type Config struct {
	BuildDir         string `json:"build_dir" env:"MPINSTALL_BUILD_DIR"`
	ReleaseDir       string `json:"release_dir" env:"MPINSTALL_RELEASE_DIR"`
	MirrorURL        string `json:"mirror_url" env:"MPINSTALL_MIRROR_URL"`
	FallbackSource   string `json:"fallback_source" env:"MPINSTALL_FALLBACK_SOURCE"`
	TeeLog           bool   `json:"tee_log" env:"MPINSTALL_TEE"`
	ProgressbarStyle int    `json:"progressbar_style,omitempty"`
}

func loadConfig() (*Config, error) {
	cfg := &Config{}

	if noConfig, _ := strconv.ParseBool(os.Getenv("MPINSTALL_NOCONFIG")); !noConfig {
		configFilePath := os.Getenv("MPINSTALL_CONFIG_FILE")
		if configFilePath == "" {
			userConfigDir, err := os.UserConfigDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get user config directory: %v", err)
			}
			configFilePath = filepath.Join(userConfigDir, "mpinstall.json")
		}

		if _, err := os.Stat(configFilePath); err == nil {
			if err := loadJSON(configFilePath, cfg); err != nil {
				return nil, fmt.Errorf("failed to load JSON file: %v", err)
			}
		}
	}

	overrideWithEnv(cfg)
	setDefaultValues(cfg)
	return cfg, nil
}

func loadJSON(filePath string, cfg *Config) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()
	return json.NewDecoder(file).Decode(cfg)
}

func overrideWithEnv(cfg *Config) {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	setFieldFromEnv := func(field reflect.Value, envVar string) bool {
		if value, exists := os.LookupEnv(envVar); exists {
			switch field.Kind() {
			case reflect.String:
				field.SetString(value)
			case reflect.Slice:
				field.Set(reflect.ValueOf(strings.Split(value, ",")))
			case reflect.Bool:
				if val, err := strconv.ParseBool(value); err == nil {
					field.SetBool(val)
				}
			case reflect.Int:
				if val, err := strconv.Atoi(value); err == nil {
					field.SetInt(int64(val))
				}
			}
			return true
		}
		return false
	}

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		envTags := strings.Split(t.Field(i).Tag.Get("env"), " ")

		if len(envTags) > 0 && setFieldFromEnv(field, envTags[0]) {
			continue
		}

		if field.IsZero() {
			for _, envVar := range envTags[1:] {
				if setFieldFromEnv(field, envVar) {
					break
				}
			}
		}
	}
}

func setDefaultValues(config *Config) {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Printf("failed to get the current working directory: %v\n", err)
		return
	}

	if config.BuildDir == "" {
		config.BuildDir = filepath.Join(cwd, "bld")
	}
	if config.ReleaseDir == "" {
		config.ReleaseDir = filepath.Join(cwd, "rel")
	}
	if config.MirrorURL == "" {
		config.MirrorURL = "https://distfiles.macports.org/MacPorts/"
	}
	if config.FallbackSource == "" {
		config.FallbackSource = "http://distfiles.macports.org/ports.tar.gz [default]"
	}
	if config.ProgressbarStyle == 0 {
		config.ProgressbarStyle = 1
	}
}

// absDirs resolves BuildDir and ReleaseDir to absolute paths. The build
// commands change the working directory, so relative paths recorded in the
// config would otherwise drift mid-run.
func (cfg *Config) absDirs() error {
	blddir, err := filepath.Abs(cfg.BuildDir)
	if err != nil {
		return fmt.Errorf("failed to resolve build directory %s: %v", cfg.BuildDir, err)
	}
	reldir, err := filepath.Abs(cfg.ReleaseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve release directory %s: %v", cfg.ReleaseDir, err)
	}
	cfg.BuildDir = blddir
	cfg.ReleaseDir = reldir
	return nil
}
