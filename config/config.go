// Package config 提供 SDK 配置（环境变量加载、校验、引擎端点解析）。
//
//	cfg, err := config.FromEnv()
//	if err != nil {
//	    return err
//	}
//	endpoint := cfg.Endpoint()
package config

import (
	"strings"

	jlconfig "github.com/JeremyLoy/config"
	"github.com/rotisserie/eris"
)

// 运行环境
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
	EnvLocal       = "local"
)

// 各环境渲染引擎端点
const (
	EndpointProduction  = "https://engine.api.gist.build"
	EndpointDevelopment = "https://engine.api.dev.gist.build"
	EndpointLocal       = "http://engine.api.local.gist.build:82"
)

// DefaultDataCenter 默认数据中心
const DefaultDataCenter = "us"

var (
	ErrMissingSiteID      = eris.New("config: site id is required")
	ErrUnknownEnvironment = eris.New("config: unknown environment")
)

// Config SDK 配置
type Config struct {
	SiteID         string `config:"GIST_SITE_ID"`
	DataCenter     string `config:"GIST_DATA_CENTER"`
	Environment    string `config:"GIST_ENVIRONMENT"`
	EngineEndpoint string `config:"GIST_ENGINE_ENDPOINT"` // 非空时覆盖环境端点
	LogLevel       string `config:"GIST_LOG_LEVEL"`
}

// Default 返回默认配置（生产环境、us 数据中心、info 日志）
func Default() Config {
	return Config{
		DataCenter:  DefaultDataCenter,
		Environment: EnvProduction,
		LogLevel:    "info",
	}
}

// Load 在默认配置之上叠加 GIST_* 环境变量（不校验）
func Load() (Config, error) {
	cfg := Default()
	if err := jlconfig.FromEnv().To(&cfg); err != nil {
		return Config{}, eris.Wrap(err, "config: load from env")
	}
	return cfg, nil
}

// FromEnv 加载并校验
func FromEnv() (Config, error) {
	cfg, err := Load()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate 校验必填项与枚举值
func (c Config) Validate() error {
	if strings.TrimSpace(c.SiteID) == "" {
		return ErrMissingSiteID
	}
	switch c.env() {
	case EnvProduction, EnvDevelopment, EnvLocal:
		return nil
	default:
		return eris.Wrapf(ErrUnknownEnvironment, "environment %q", c.Environment)
	}
}

// Endpoint 返回渲染引擎端点
func (c Config) Endpoint() string {
	if c.EngineEndpoint != "" {
		return c.EngineEndpoint
	}
	switch c.env() {
	case EnvDevelopment:
		return EndpointDevelopment
	case EnvLocal:
		return EndpointLocal
	default:
		return EndpointProduction
	}
}

// IsDevelopment 是否为开发/本地环境
func (c Config) IsDevelopment() bool {
	env := c.env()
	return env == EnvDevelopment || env == EnvLocal
}

func (c Config) env() string {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	if env == "" {
		return EnvProduction
	}
	return env
}
