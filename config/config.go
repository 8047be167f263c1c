// Package config exposes settings as a flat map of environment variables.
// Values are read once at startup and looked up with typed getters that fall
// back to a default when a key is unset, blank or unparseable.
package config

import (
	"errors"
	"maps"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// New snapshots the process environment.
func New() map[string]string {
	return fromEnviron(os.Environ())
}

// Load layers the process environment over the given .env files, later files
// overriding earlier ones. Unreadable files are reported in the returned error
// but the remaining sources are still loaded.
func Load(files ...string) (map[string]string, error) {
	cfg := make(map[string]string)

	var readErr error
	for _, file := range files {
		values, err := godotenv.Read(file)
		if err != nil {
			readErr = errors.Join(readErr, err)
			continue
		}
		maps.Copy(cfg, values)
	}

	maps.Copy(cfg, New())
	return cfg, readErr
}

func fromEnviron(environ []string) map[string]string {
	envAsMap := make(map[string]string, len(environ))
	for _, entry := range environ {
		key, value, _ := strings.Cut(entry, "=")
		if key == "" {
			continue
		}
		envAsMap[key] = value
	}
	return envAsMap
}

func lookup(config map[string]string, key string) (string, bool) {
	if config == nil {
		return "", false
	}
	val, ok := config[key]
	if !ok {
		return "", false
	}
	val = strings.TrimSpace(val)
	return val, val != ""
}

func GetString(config map[string]string, key string, defaultValue string) string {
	if val, ok := lookup(config, key); ok {
		return val
	}
	return defaultValue
}

func GetInt(config map[string]string, key string, defaultValue int) int {
	val, ok := lookup(config, key)
	if !ok {
		return defaultValue
	}

	asInt, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return asInt
}

// GetBool accepts the forms understood by strconv.ParseBool ("1", "true", "TRUE"...).
func GetBool(config map[string]string, key string, defaultValue bool) bool {
	val, ok := lookup(config, key)
	if !ok {
		return defaultValue
	}

	asBool, err := strconv.ParseBool(val)
	if err != nil {
		return defaultValue
	}
	return asBool
}

// GetList splits a comma separated value, dropping blank entries.
func GetList(config map[string]string, key string, defaultValue []string) []string {
	val, ok := lookup(config, key)
	if !ok {
		return defaultValue
	}

	var list []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	if len(list) == 0 {
		return defaultValue
	}
	return list
}

// GetSeconds reads a whole number of seconds.
func GetSeconds(config map[string]string, key string, defaultSeconds int) time.Duration {
	return time.Duration(GetInt(config, key, defaultSeconds)) * time.Second
}

// GetMillis reads a whole number of milliseconds.
func GetMillis(config map[string]string, key string, defaultMillis int) time.Duration {
	return time.Duration(GetInt(config, key, defaultMillis)) * time.Millisecond
}
