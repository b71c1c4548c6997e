package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "jaci"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage jaci configuration.

Running bare 'jaci config' is the same as 'jaci config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# jaci configuration
# See: jaci config show (for effective values and sources)

# SQLite database path (default: ~/.config/jaci/jaci.db)
# db_path: {{ .DBPath }}

# Pipeline target directory (default: current directory)
# source_dir: {{ .SourceDir }}

# Container registry for image references
registry: "{{ .Registry }}"

# Default build environment: production, staging, development
environment: "{{ .Environment }}"

# Coverage settings
coverage:
  # Minimum statement coverage percent for the test stage
  threshold: {{ .CoverageThreshold }}

# Assistant settings
llm:
  # Provider: openai or anthropic
  provider: "{{ .LLMProvider }}"

openai:
  # API key (or set OPENAI_API_KEY / JACI_OPENAI_API_KEY)
  api_key: ""
  model: "{{ .OpenAIModel }}"

anthropic:
  # API key (or set ANTHROPIC_API_KEY / JACI_ANTHROPIC_API_KEY)
  api_key: ""
  model: "{{ .AnthropicModel }}"

retry:
  # Query retry attempts and fixed delay between them
  max_attempts: {{ .RetryMaxAttempts }}
  delay: "{{ .RetryDelay }}"
`

type configTemplateData struct {
	DBPath            string
	SourceDir         string
	Registry          string
	Environment       string
	CoverageThreshold float64
	LLMProvider       string
	OpenAIModel       string
	AnthropicModel    string
	RetryMaxAttempts  int
	RetryDelay        string
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	// Build template data from current viper values
	data := configTemplateData{
		DBPath:            viper.GetString("db_path"),
		SourceDir:         viper.GetString("source_dir"),
		Registry:          viper.GetString("registry"),
		Environment:       viper.GetString("environment"),
		CoverageThreshold: viper.GetFloat64("coverage.threshold"),
		LLMProvider:       viper.GetString("llm.provider"),
		OpenAIModel:       viper.GetString("openai.model"),
		AnthropicModel:    viper.GetString("anthropic.model"),
		RetryMaxAttempts:  viper.GetInt("retry.max_attempts"),
		RetryDelay:        viper.GetString("retry.delay"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	if dryRun {
		ui.DryRunMsg("Would create config file: %s", cfgPath)
		fmt.Fprintln(ui.Out)
		fmt.Fprint(ui.Out, buf.String())
		return nil
	}

	// Create config directory
	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(cfgPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

// configKeyInfo describes a config key for display purposes.
type configKeyInfo struct {
	Key    string
	EnvVar string
}

var configKeys = []configKeyInfo{
	{Key: "db_path", EnvVar: "JACI_DB_PATH"},
	{Key: "source_dir", EnvVar: "JACI_SOURCE_DIR"},
	{Key: "registry", EnvVar: "JACI_REGISTRY"},
	{Key: "environment", EnvVar: "JACI_ENVIRONMENT"},
	{Key: "coverage.threshold", EnvVar: "JACI_COVERAGE_THRESHOLD"},
	{Key: "llm.provider", EnvVar: "JACI_LLM_PROVIDER"},
	{Key: "openai.model", EnvVar: "JACI_OPENAI_MODEL"},
	{Key: "anthropic.model", EnvVar: "JACI_ANTHROPIC_MODEL"},
	{Key: "retry.max_attempts", EnvVar: "JACI_RETRY_MAX_ATTEMPTS"},
	{Key: "retry.delay", EnvVar: "JACI_RETRY_DELAY"},
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if config file exists
	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	fmt.Fprintln(ui.Out)

	// Read config file values to determine file source
	fileValues := readConfigFileValues(cfgPath)

	for _, k := range configKeys {
		val := viper.Get(k.Key)
		source := detectSource(k.Key, k.EnvVar, fileValues)
		fmt.Fprintf(ui.Out, "  %-22s %v  %s\n", k.Key, val, source)
	}

	return nil
}

// readConfigFileValues reads the raw YAML file and returns a flat map of keys present in it.
func readConfigFileValues(path string) map[string]bool {
	result := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return result
	}

	// Flatten nested keys with dot notation
	flattenKeys("", parsed, result)
	return result
}

// flattenKeys recursively flattens a nested map to dot-notation keys.
func flattenKeys(prefix string, m map[string]any, result map[string]bool) {
	for key, val := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flattenKeys(fullKey, nested, result)
		} else {
			result[fullKey] = true
		}
	}
}

// detectSource determines where a config value is coming from.
func detectSource(key, envVar string, fileValues map[string]bool) string {
	if _, ok := os.LookupEnv(envVar); ok {
		return fmt.Sprintf("(env: %s)", envVar)
	}
	if fileValues[key] {
		return "(file)"
	}
	return "(default)"
}

func configEditRun() error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		return fmt.Errorf("$EDITOR is not set, set it to your preferred editor (e.g. export EDITOR=vim)")
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s (run 'jaci config init' first)", cfgPath)
	}

	c := exec.Command(editor, cfgPath)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}
