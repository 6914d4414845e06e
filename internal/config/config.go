// Package config 提供应用程序的配置加载和管理功能
// 使用 TOML 格式的配置文件，支持多路径查找
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml" // TOML 配置文件解析库
)

// MainConfig 主配置，包含应用基本信息
type MainConfig struct {
	AppName string `toml:"appName"` // 应用名称，用于日志标识等
	Mode    string `toml:"mode"`    // 运行模式："dev" 或 "release"
}

// GatewayConfig 远端 JSON API 配置（客户端使用）
type GatewayConfig struct {
	BaseURL         string `toml:"baseURL"`         // 主接口地址，如 "http://127.0.0.1:8000/api"
	UploadURL       string `toml:"uploadURL"`       // 附件上传接口地址
	TimeoutSeconds  int    `toml:"timeoutSeconds"`  // 单次请求超时（秒），默认 15
	ServerSideReply bool   `toml:"serverSideReply"` // AI 回复由服务端在 send_message 中一次完成
}

// PresenceConfig 在线状态心跳配置
type PresenceConfig struct {
	IntervalSeconds int `toml:"intervalSeconds"` // 心跳与联系人刷新间隔（秒），默认 30
}

// LogConfig 日志配置，使用 lumberjack 进行日志轮转
type LogConfig struct {
	LogPath    string `toml:"logPath"`    // 日志文件存储目录
	FileName   string `toml:"fileName"`   // 日志文件名
	MaxSize    int    `toml:"maxSize"`    // 单个日志文件最大大小（MB）
	MaxBackups int    `toml:"maxBackups"` // 保留旧日志文件的最大个数
	MaxAge     int    `toml:"maxAge"`     // 保留旧日志文件的最大天数
	Level      string `toml:"level"`      // 日志级别：debug, info, warn, error
}

// DevServerConfig 本地参考网关配置
type DevServerConfig struct {
	Host          string `toml:"host"`          // 监听地址，如 "127.0.0.1"
	Port          int    `toml:"port"`          // 监听端口，如 8000
	PublicBaseURL string `toml:"publicBaseURL"` // 上传文件对外访问前缀
	SSLRedirect   bool   `toml:"sslRedirect"`   // 是否将 HTTP 重定向到 HTTPS
}

// DBConfig 数据库配置
type DBConfig struct {
	Driver       string `toml:"driver"`       // "sqlite" 或 "mysql"
	Path         string `toml:"path"`         // sqlite 文件路径，":memory:" 为内存库
	Host         string `toml:"host"`         // MySQL 服务器地址
	Port         int    `toml:"port"`         // MySQL 端口，默认 3306
	User         string `toml:"user"`         // 数据库用户名
	Password     string `toml:"password"`     // 数据库密码
	DatabaseName string `toml:"databaseName"` // 数据库名称
}

// RedisConfig Redis 连接配置，Host 为空表示不启用缓存
type RedisConfig struct {
	Host     string `toml:"host"`     // Redis 服务器地址
	Port     int    `toml:"port"`     // Redis 端口，默认 6379
	Password string `toml:"password"` // Redis 密码，无密码留空
	Db       int    `toml:"db"`       // Redis 数据库编号，默认 0
}

// StaticSrcConfig 静态资源路径配置
type StaticSrcConfig struct {
	StaticFilePath string `toml:"staticFilePath"` // 上传文件存储路径
}

// SnowflakeConfig 雪花算法配置
type SnowflakeConfig struct {
	MachineID int64 `toml:"machineId"` // 雪花算法节点 ID，范围 0-1023
}

// Config 应用程序总配置，聚合所有子配置
type Config struct {
	MainConfig      `toml:"mainConfig"`      // 主配置
	GatewayConfig   `toml:"gatewayConfig"`   // 远端网关配置
	PresenceConfig  `toml:"presenceConfig"`  // 心跳配置
	LogConfig       `toml:"logConfig"`       // 日志配置
	DevServerConfig `toml:"devServerConfig"` // 参考网关配置
	DBConfig        `toml:"dbConfig"`        // 数据库配置
	RedisConfig     `toml:"redisConfig"`     // Redis 配置
	StaticSrcConfig `toml:"staticSrcConfig"` // 静态资源配置
	SnowflakeConfig `toml:"snowflakeConfig"` // 雪花算法配置
}

// config 全局配置单例，延迟加载
var config *Config

// searchPaths 候选配置文件路径（优先加载本地配置）
var searchPaths = []string{
	"configs/config_local.toml",
	"configs/config.toml",
	"../../configs/config_local.toml", // 从子目录运行时的路径
	"../../configs/config.toml",
}

// Load 从指定路径加载配置文件并填充默认值
func Load(path string) (*Config, error) {
	cfg := new(Config)
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadConfig 从多个候选路径加载配置文件
// 按顺序尝试加载，找到第一个可用的配置文件即停止
func LoadConfig() (*Config, error) {
	for _, path := range searchPaths {
		if cfg, err := Load(path); err == nil {
			return cfg, nil
		}
	}
	return nil, fmt.Errorf("could not find configuration file in any of the search paths")
}

// GetConfig 获取全局配置实例（单例模式）
// 首次调用时会自动加载配置文件，找不到时使用默认值
func GetConfig() *Config {
	if config == nil {
		cfg, err := LoadConfig()
		if err != nil {
			cfg = new(Config)
			cfg.applyDefaults()
		}
		config = cfg
	}
	return config
}

// SetConfig 替换全局配置实例（命令行 --config 参数使用）
func SetConfig(cfg *Config) {
	config = cfg
}

// applyDefaults 填充未配置的字段
func (c *Config) applyDefaults() {
	if c.AppName == "" {
		c.AppName = "chattix"
	}
	if c.Mode == "" {
		c.Mode = "dev"
	}
	if c.GatewayConfig.TimeoutSeconds <= 0 {
		c.GatewayConfig.TimeoutSeconds = 15
	}
	if c.PresenceConfig.IntervalSeconds <= 0 {
		c.PresenceConfig.IntervalSeconds = 30
	}
	if c.DevServerConfig.Host == "" {
		c.DevServerConfig.Host = "127.0.0.1"
	}
	if c.DevServerConfig.Port == 0 {
		c.DevServerConfig.Port = 8000
	}
	if c.DevServerConfig.PublicBaseURL == "" {
		c.DevServerConfig.PublicBaseURL = fmt.Sprintf("http://%s:%d", c.DevServerConfig.Host, c.DevServerConfig.Port)
	}
	if c.GatewayConfig.BaseURL == "" {
		c.GatewayConfig.BaseURL = c.DevServerConfig.PublicBaseURL + "/api"
	}
	if c.GatewayConfig.UploadURL == "" {
		c.GatewayConfig.UploadURL = c.DevServerConfig.PublicBaseURL + "/upload"
	}
	if c.DBConfig.Driver == "" {
		c.DBConfig.Driver = "sqlite"
	}
	if c.DBConfig.Driver == "sqlite" && c.DBConfig.Path == "" {
		c.DBConfig.Path = "chattix.db"
	}
	if c.DBConfig.Driver == "mysql" && c.DBConfig.Port == 0 {
		c.DBConfig.Port = 3306
	}
	if c.RedisConfig.Host != "" && c.RedisConfig.Port == 0 {
		c.RedisConfig.Port = 6379
	}
	if c.StaticFilePath == "" {
		c.StaticFilePath = "static/files"
	}
	if c.LogConfig.LogPath == "" {
		c.LogConfig.LogPath = "logs"
	}
}

// RequestTimeout 单次网关请求超时
func (g GatewayConfig) RequestTimeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// Interval 心跳间隔
func (p PresenceConfig) Interval() time.Duration {
	return time.Duration(p.IntervalSeconds) * time.Second
}
