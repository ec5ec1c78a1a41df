package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/josephlewis42/treesh/core/vos"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
	AppLogName        = "app.log"
)

type Configuration struct {
	configFs         afero.Fs
	configurationDir string

	Prompt      string `json:"prompt" validate:"required"`
	ColorPrompt bool   `json:"color_prompt"`

	History History `json:"history"`

	EventLog string `json:"event_log" validate:"required,filepath"`

	Environment Environment `json:"environment"`
}

type History struct {
	File  string `json:"file" validate:"omitempty,filepath"`
	Limit int    `json:"limit" validate:"gte=0"`
}

type Environment struct {
	Inherit     bool     `json:"inherit"`
	Extra       []string `json:"extra" validate:"dive,env_assignment"`
	DefaultPath string   `json:"default_path" validate:"required"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})
	validate.RegisterValidation("env_assignment", func(fl validator.FieldLevel) bool {
		name, _, found := strings.Cut(fl.Field().String(), "=")
		return found && name != ""
	})

	return validate.Struct(c)
}

func (c *Configuration) fs() afero.Fs {
	return c.configFs
}

// Dir is the directory the configuration was loaded from, empty for the
// built-in default.
func (c *Configuration) Dir() string {
	return c.configurationDir
}

// OpenEventLog opens the event log in an append only state.
func (c *Configuration) OpenEventLog() (afero.File, error) {
	return c.fs().OpenFile(c.EventLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

func (c *Configuration) ReadEventLog() (afero.File, error) {
	return c.fs().OpenFile(c.EventLog, os.O_RDONLY, 0600)
}

// OpenAppLog opens the application log in an append only state.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// HistoryPath returns the path of the history file on disk, or an empty
// string if history shouldn't be persisted.
func (c *Configuration) HistoryPath() string {
	if c.History.File == "" || c.configurationDir == "" {
		return ""
	}
	return filepath.Join(c.configurationDir, c.History.File)
}

// NewEnv builds the starting environment of the evaluator. base is the
// environment treesh was launched with.
func (c *Configuration) NewEnv(base []string) *vos.MapEnv {
	env := vos.NewMapEnv()
	if c.Environment.Inherit {
		env = vos.NewMapEnvFromEnvList(base)
	}

	if _, ok := env.LookupEnv("PATH"); !ok {
		env.Setenv("PATH", c.Environment.DefaultPath)
	}

	for _, entry := range c.Environment.Extra {
		name, value := vos.SplitEnv(entry)
		env.Setenv(name, value)
	}

	return env
}

// Default returns the built-in configuration. Files it opens are kept in
// memory.
func Default() *Configuration {
	out := defaultConfig()
	out.configFs = afero.NewMemMapFs()
	return out
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
