// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	App() AppConfig
	Server() ServerConfig
	Database() DatabaseConfig
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	BrowserCfg  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	AppCfg      AppConfig      `mapstructure:"app" yaml:"app"`
	ServerCfg   ServerConfig   `mapstructure:"server" yaml:"server"`
	DatabaseCfg DatabaseConfig `mapstructure:"database" yaml:"database"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig   { return c.BrowserCfg }
func (c *Config) App() AppConfig           { return c.AppCfg }
func (c *Config) Server() ServerConfig     { return c.ServerCfg }
func (c *Config) Database() DatabaseConfig { return c.DatabaseCfg }

// --- Setters used by CLI flag overrides ---

func (c *Config) SetBrowserHeadless(b bool) { c.BrowserCfg.Headless = b }
func (c *Config) SetServerAddr(addr string) { c.ServerCfg.Addr = addr }
func (c *Config) SetAppPace(p float64)      { c.AppCfg.Pace = p }

type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// Enabled reports whether run history should be persisted.
func (d DatabaseConfig) Enabled() bool { return d.URL != "" }

type BrowserConfig struct {
	Headless       bool          `mapstructure:"headless" yaml:"headless"`
	BinaryPath     string        `mapstructure:"binary_path" yaml:"binary_path"`
	WindowWidth    int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight   int           `mapstructure:"window_height" yaml:"window_height"`
	Args           []string      `mapstructure:"args" yaml:"args"`
	AcceptDialogs  bool          `mapstructure:"accept_dialogs" yaml:"accept_dialogs"`
	StartupTimeout time.Duration `mapstructure:"startup_timeout" yaml:"startup_timeout"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout" yaml:"default_timeout"`
	Debug          bool          `mapstructure:"debug" yaml:"debug"`
}

// Credentials is one login identity on the target application.
type Credentials struct {
	Email    string `mapstructure:"email" yaml:"email"`
	Password string `mapstructure:"password" yaml:"password"`
	// WelcomeText is the heading fragment shown after a successful login.
	WelcomeText string `mapstructure:"welcome_text" yaml:"welcome_text"`
}

// Complete reports whether both halves of the credential pair are set.
func (c Credentials) Complete() bool { return c.Email != "" && c.Password != "" }

type AssignmentConfig struct {
	Type        string   `mapstructure:"type" yaml:"type"`
	Types       []string `mapstructure:"types" yaml:"types"`
	ClassName   string   `mapstructure:"class_name" yaml:"class_name"`
	Grade       string   `mapstructure:"grade" yaml:"grade"`
	Subject     string   `mapstructure:"subject" yaml:"subject"`
	Unit        string   `mapstructure:"unit" yaml:"unit"`
	Description string   `mapstructure:"description" yaml:"description"`
	DueInDays   int      `mapstructure:"due_in_days" yaml:"due_in_days"`
}

type HomeworkConfig struct {
	Subject      string `mapstructure:"subject" yaml:"subject"`
	AnswerPrefix string `mapstructure:"answer_prefix" yaml:"answer_prefix"`
	AnswerBase   int    `mapstructure:"answer_base" yaml:"answer_base"`
}

// AppConfig describes the target web application and how flows behave against it.
type AppConfig struct {
	BaseURL       string           `mapstructure:"base_url" yaml:"base_url"`
	LoginPath     string           `mapstructure:"login_path" yaml:"login_path"`
	Pace          float64          `mapstructure:"pace" yaml:"pace"`
	CloseDelay    time.Duration    `mapstructure:"close_delay" yaml:"close_delay"`
	MaxRounds     int              `mapstructure:"max_rounds" yaml:"max_rounds"`
	ScreenshotDir string           `mapstructure:"screenshot_dir" yaml:"screenshot_dir"`
	Student       Credentials      `mapstructure:"student" yaml:"student"`
	Teacher       Credentials      `mapstructure:"teacher" yaml:"teacher"`
	Assignment    AssignmentConfig `mapstructure:"assignment" yaml:"assignment"`
	Homework      HomeworkConfig   `mapstructure:"homework" yaml:"homework"`
}

// LoginURL joins the base URL and the login path.
func (a AppConfig) LoginURL() string {
	return strings.TrimRight(a.BaseURL, "/") + "/" + strings.TrimLeft(a.LoginPath, "/")
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	StaticDir       string        `mapstructure:"static_dir" yaml:"static_dir"`
	SpawnPerMinute  float64       `mapstructure:"spawn_per_minute" yaml:"spawn_per_minute"`
	SpawnBurst      int           `mapstructure:"spawn_burst" yaml:"spawn_burst"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// NewDefaultConfig creates a configuration populated only with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults registers every known key so AutomaticEnv can resolve it.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "seeqlo-runner")
	v.SetDefault("logger.log_file", "automation_logs.json")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", false)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.binary_path", "")
	v.SetDefault("browser.window_width", 1366)
	v.SetDefault("browser.window_height", 900)
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.accept_dialogs", true)
	v.SetDefault("browser.startup_timeout", "30s")
	v.SetDefault("browser.default_timeout", "10s")
	v.SetDefault("browser.debug", false)

	// -- App --
	v.SetDefault("app.base_url", "https://seeqlo-dev.vercel.app")
	v.SetDefault("app.login_path", "/login")
	v.SetDefault("app.pace", 1.0)
	v.SetDefault("app.close_delay", "3s")
	v.SetDefault("app.max_rounds", 50)
	v.SetDefault("app.screenshot_dir", "screenshots")
	v.SetDefault("app.student.email", "")
	v.SetDefault("app.student.password", "")
	v.SetDefault("app.student.welcome_text", "")
	v.SetDefault("app.teacher.email", "")
	v.SetDefault("app.teacher.password", "")
	v.SetDefault("app.teacher.welcome_text", "Welcome back")
	v.SetDefault("app.assignment.type", "Multiple Choice")
	v.SetDefault("app.assignment.types", []string{"Multiple Choice", "True/False", "Fill in the Blank", "Matching", "Short Answer"})
	v.SetDefault("app.assignment.class_name", "math grade 5")
	v.SetDefault("app.assignment.grade", "Grade 7")
	v.SetDefault("app.assignment.subject", "Mathematics")
	v.SetDefault("app.assignment.unit", "Numbers")
	v.SetDefault("app.assignment.description", "sets")
	v.SetDefault("app.assignment.due_in_days", 14)
	v.SetDefault("app.homework.subject", "Math")
	v.SetDefault("app.homework.answer_prefix", "i am bot")
	v.SetDefault("app.homework.answer_base", 123)

	// -- Server --
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.static_dir", ".")
	v.SetDefault("server.spawn_per_minute", 6.0)
	v.SetDefault("server.spawn_burst", 2)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// -- Database --
	v.SetDefault("database.url", "")
}

// NewConfigFromViper unmarshals and validates the configuration held by v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Short aliases for secrets that usually live in a .env file.
	_ = v.BindEnv("app.student.email", "SEEQLO_APP_STUDENT_EMAIL", "STUDENT_EMAIL")
	_ = v.BindEnv("app.student.password", "SEEQLO_APP_STUDENT_PASSWORD", "STUDENT_PASSWORD")
	_ = v.BindEnv("app.teacher.email", "SEEQLO_APP_TEACHER_EMAIL", "TEACHER_EMAIL")
	_ = v.BindEnv("app.teacher.password", "SEEQLO_APP_TEACHER_PASSWORD", "TEACHER_PASSWORD")
	_ = v.BindEnv("database.url", "SEEQLO_DATABASE_URL", "DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for values no component can work with.
// Credentials are checked later, by the runner, because only runs need them.
func (c *Config) Validate() error {
	if c.LoggerCfg.ServiceName == "" {
		return fmt.Errorf("logger.service_name is required")
	}
	if c.BrowserCfg.WindowWidth <= 0 || c.BrowserCfg.WindowHeight <= 0 {
		return fmt.Errorf("browser.window_width and browser.window_height must be positive integers")
	}
	if c.BrowserCfg.DefaultTimeout <= 0 {
		return fmt.Errorf("browser.default_timeout must be a positive duration")
	}
	if err := c.AppCfg.Validate(); err != nil {
		return fmt.Errorf("app configuration invalid: %w", err)
	}
	if c.ServerCfg.SpawnPerMinute < 0 || c.ServerCfg.SpawnBurst < 0 {
		return fmt.Errorf("server.spawn_per_minute and server.spawn_burst must not be negative")
	}
	return nil
}

func (a *AppConfig) Validate() error {
	u, err := url.Parse(a.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute URL, got %q", a.BaseURL)
	}
	if a.Pace < 0 {
		return fmt.Errorf("pace must not be negative")
	}
	if a.MaxRounds <= 0 {
		return fmt.Errorf("max_rounds must be a positive integer")
	}
	if a.Assignment.DueInDays < 0 {
		return fmt.Errorf("assignment.due_in_days must not be negative")
	}
	return nil
}
