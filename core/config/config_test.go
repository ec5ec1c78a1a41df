package config

import (
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestBuiltinConfig(t *testing.T) {
	rawConfig := make(map[string]interface{})
	assert.Nil(t, yaml.Unmarshal(defaultConfigData, &rawConfig))

	knownFields := make(map[string]bool)
	rt := reflect.TypeOf(Configuration{})
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		assert.NotEmpty(t, jsonTag)
		jsonField := strings.Split(jsonTag, ",")[0]
		knownFields[jsonField] = true

		if _, ok := rawConfig[jsonField]; !ok {
			assert.False(t, true, "default config missing field: %q", jsonField)
		}
	}

	for k := range rawConfig {
		_, ok := knownFields[k]
		assert.True(t, ok, "default config contains invalid field: %q", k)
	}
}

func TestDefaultConfig(t *testing.T) {
	// Will panic() on load failure because it should never happen at runtime.
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())
	assert.Empty(t, cfg.HistoryPath())

	fd, err := cfg.OpenEventLog()
	require.NoError(t, err)
	fd.Close()
}

func TestValidate(t *testing.T) {
	cases := map[string]struct {
		mutate  func(c *Configuration)
		wantErr string
	}{
		"valid": {
			mutate: func(c *Configuration) {},
		},
		"missing-prompt": {
			mutate:  func(c *Configuration) { c.Prompt = "" },
			wantErr: "prompt",
		},
		"negative-history": {
			mutate:  func(c *Configuration) { c.History.Limit = -1 },
			wantErr: "limit",
		},
		"missing-event-log": {
			mutate:  func(c *Configuration) { c.EventLog = "" },
			wantErr: "event_log",
		},
		"bad-extra-env": {
			mutate:  func(c *Configuration) { c.Environment.Extra = []string{"OK=1", "=nope"} },
			wantErr: "extra[1]",
		},
		"extra-env-without-value": {
			mutate:  func(c *Configuration) { c.Environment.Extra = []string{"NAME"} },
			wantErr: "extra[0]",
		},
		"missing-default-path": {
			mutate:  func(c *Configuration) { c.Environment.DefaultPath = "" },
			wantErr: "default_path",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tc.wantErr)
			}
		})
	}
}

func TestLoadFs(t *testing.T) {
	t.Run("strict", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		contents := append([]byte("unknown_field: 1\n"), defaultConfigData...)
		require.NoError(t, afero.WriteFile(fsys, ConfigurationName, contents, 0600))

		_, err := LoadFs(fsys)
		assert.ErrorContains(t, err, "unknown_field")
	})

	t.Run("invalid", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		contents := strings.Replace(string(defaultConfigData), "event_log: events.log", "event_log: ''", 1)
		require.NoError(t, afero.WriteFile(fsys, ConfigurationName, []byte(contents), 0600))

		_, err := LoadFs(fsys)
		assert.ErrorContains(t, err, "event_log")
	})

	t.Run("missing", func(t *testing.T) {
		_, err := LoadFs(afero.NewMemMapFs())
		assert.Error(t, err)
	})
}

func TestNewEnv(t *testing.T) {
	base := []string{"HOME=/home/user", "PATH=/custom/bin"}

	t.Run("inherit", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Environment.Extra = []string{"EXTRA=a=b", "HOME=/override"}

		env := cfg.NewEnv(base)
		assert.Equal(t, []string{"EXTRA=a=b", "HOME=/override", "PATH=/custom/bin"}, env.Environ())
	})

	t.Run("clean", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Environment.Inherit = false

		env := cfg.NewEnv(base)
		assert.Equal(t, []string{"PATH=" + cfg.Environment.DefaultPath}, env.Environ())
	})
}
