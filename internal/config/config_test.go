// File: internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, "automation_logs.json", cfg.Logger().LogFile)
	assert.Equal(t, "seeqlo-runner", cfg.Logger().ServiceName)
	assert.False(t, cfg.Browser().Headless)
	assert.True(t, cfg.Browser().AcceptDialogs)
	assert.Equal(t, 10*time.Second, cfg.Browser().DefaultTimeout)
	assert.Equal(t, "https://seeqlo-dev.vercel.app", cfg.App().BaseURL)
	assert.Equal(t, 3*time.Second, cfg.App().CloseDelay)
	assert.Equal(t, "Welcome back", cfg.App().Teacher.WelcomeText)
	assert.Len(t, cfg.App().Assignment.Types, 5)
	assert.Equal(t, ":8000", cfg.Server().Addr)
	assert.False(t, cfg.Database().Enabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoginURL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"https://example.com", "/login", "https://example.com/login"},
		{"https://example.com/", "login", "https://example.com/login"},
		{"https://example.com/", "/login", "https://example.com/login"},
	}
	for _, tt := range tests {
		app := AppConfig{BaseURL: tt.base, LoginPath: tt.path}
		assert.Equal(t, tt.want, app.LoginURL())
	}
}

func TestCredentialsComplete(t *testing.T) {
	assert.True(t, Credentials{Email: "a@b.c", Password: "x"}.Complete())
	assert.False(t, Credentials{Email: "a@b.c"}.Complete())
	assert.False(t, Credentials{}.Complete())
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Core Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()
		assert.NoError(t, cfg.Validate())

		noName := *cfg
		noName.LoggerCfg.ServiceName = ""
		err := noName.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logger.service_name is required")

		badWindow := *cfg
		badWindow.BrowserCfg.WindowWidth = 0
		err = badWindow.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "window_width")

		badTimeout := *cfg
		badTimeout.BrowserCfg.DefaultTimeout = 0
		err = badTimeout.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "browser.default_timeout")

		badSpawn := *cfg
		badSpawn.ServerCfg.SpawnBurst = -1
		err = badSpawn.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server.spawn_per_minute")
	})

	t.Run("App Validation", func(t *testing.T) {
		valid := NewDefaultConfig().AppCfg
		assert.NoError(t, valid.Validate())

		relative := valid
		relative.BaseURL = "seeqlo.example/login"
		err := relative.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "base_url must be an absolute URL")

		negativePace := valid
		negativePace.Pace = -0.5
		err = negativePace.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pace must not be negative")

		zeroPace := valid
		zeroPace.Pace = 0
		assert.NoError(t, zeroPace.Validate(), "a zero pace disables pauses and is valid")

		noRounds := valid
		noRounds.MaxRounds = 0
		err = noRounds.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_rounds must be a positive integer")

		pastDue := valid
		pastDue.Assignment.DueInDays = -1
		err = pastDue.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "due_in_days")
	})
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		yamlBytes := []byte(`
app:
  base_url: "https://staging.example.com"
  student:
    email: "kid@example.com"
    password: "pw"
browser:
  headless: true
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlBytes)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, "https://staging.example.com", cfg.App().BaseURL)
		assert.Equal(t, "kid@example.com", cfg.App().Student.Email)
		assert.True(t, cfg.App().Student.Complete())
		assert.True(t, cfg.Browser().Headless)
		// Defaults survive alongside file values.
		assert.Equal(t, "info", cfg.Logger().Level)
		assert.Equal(t, 50, cfg.App().MaxRounds)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("app.max_rounds", 0)

		cfg, err := NewConfigFromViper(v)
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "max_rounds must be a positive integer")
	})

	t.Run("Environment Variable Binding", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)

		yamlConfig := []byte(`
database:
  url: "postgres://configfile/db"
`)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlConfig)))

		t.Setenv("STUDENT_EMAIL", "env-student@example.com")
		t.Setenv("SEEQLO_APP_TEACHER_PASSWORD", "teacher-secret")
		t.Setenv("SEEQLO_DATABASE_URL", "postgres://envvar/db")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, "env-student@example.com", cfg.App().Student.Email)
		assert.Equal(t, "teacher-secret", cfg.App().Teacher.Password)
		// The env var overrides the value from the config buffer.
		assert.Equal(t, "postgres://envvar/db", cfg.Database().URL)
		assert.True(t, cfg.Database().Enabled())
	})
}

// -- Struct and Mapping Tests --

func TestConfigStructureMapping(t *testing.T) {
	yamlInput := `
logger:
  level: debug
  log_file: /var/log/automation.json
browser:
  default_timeout: 5s
  args: ["--lang=en-US"]
app:
  assignment:
    types: ["Matching"]
server:
  spawn_per_minute: 0.5
`
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(yamlInput)))

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, "debug", cfg.Logger().Level)
	assert.Equal(t, "/var/log/automation.json", cfg.Logger().LogFile)
	assert.Equal(t, 5*time.Second, cfg.Browser().DefaultTimeout)
	assert.Equal(t, []string{"--lang=en-US"}, cfg.Browser().Args)
	assert.Equal(t, []string{"Matching"}, cfg.App().Assignment.Types)
	assert.Equal(t, 0.5, cfg.Server().SpawnPerMinute)
}

func TestSetters(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SetBrowserHeadless(true)
	cfg.SetServerAddr("127.0.0.1:9000")
	cfg.SetAppPace(0)

	assert.True(t, cfg.Browser().Headless)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server().Addr)
	assert.Zero(t, cfg.App().Pace)
}
