package cmd

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/wbcore/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the default configuration",
	Long: `Dump the default configuration values in YAML format.

This shows every available configuration option with its default value.
Redirect the output to a file to create a starting point:

  wbcore config dump > wbcore.yaml

Configuration can be set via:
  - A config file (wbcore.yaml by default, or --config)
  - Environment variables (WBCORE_OUTPUT_DIR, WBCORE_CACHE_MODE, etc.)
  - A handful of command-line flags on build/watch/graph

Environment variables use the WBCORE_ prefix and underscores for
nesting, e.g. output.public_path -> WBCORE_OUTPUT_PUBLIC_PATH.`,
	RunE: runConfigDump,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configDumpCmd)
}

// toMap turns a config struct into a map keyed by its mapstructure tags
// rather than Go field names, so the emitted YAML matches the keys
// config.Load actually binds (viper/mapstructure), not however yaml.v3
// would default to casing them. Nested structs recurse; any type
// implementing fmt.Stringer (config.Duration, config.ByteSize) is
// rendered through its String method instead of its numeric underlying
// value, so the dump stays human-editable.
func toMap(v any) map[string]any {
	result := make(map[string]any)
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		key := fieldType.Tag.Get("mapstructure")
		if key == "" {
			key = strings.ToLower(fieldType.Name)
		}

		switch s := field.Interface().(type) {
		case fmt.Stringer:
			result[key] = s.String()
		default:
			if field.Kind() == reflect.Struct {
				result[key] = toMap(field.Interface())
			} else {
				result[key] = field.Interface()
			}
		}
	}
	return result
}

func runConfigDump(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading default configuration: %w", err)
	}

	yamlData, err := yaml.Marshal(toMap(cfg))
	if err != nil {
		return fmt.Errorf("marshaling configuration: %w", err)
	}

	fmt.Println("# wbcore configuration file")
	fmt.Println("# ==========================")
	fmt.Println("#")
	fmt.Println("# All values shown below are defaults.")
	fmt.Println("# Duration format: 30s, 5m, 1h")
	fmt.Println("# Size format: 20KB, 244KB, 5MB")
	fmt.Println("#")
	fmt.Println("# Environment variable overrides use the WBCORE_ prefix, e.g.")
	fmt.Println("# WBCORE_OUTPUT_DIR, WBCORE_CACHE_MODE, WBCORE_LOGGING_LEVEL.")
	fmt.Println("#")
	fmt.Println()
	fmt.Print(string(yamlData))

	return nil
}
