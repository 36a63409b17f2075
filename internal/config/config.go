package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Port    string `yaml:"port"`
		Mode    string `yaml:"mode"`
		BaseURL string `yaml:"base_url"` // 对外访问地址，用于邮件中的链接
	} `yaml:"server"`

	Database DatabaseConfig `yaml:"database"`

	JWT struct {
		Secret     string `yaml:"secret"`
		ExpireTime int    `yaml:"expire_time"`
	} `yaml:"jwt"`

	Log LogConfig `yaml:"log"`

	// Admin 默认管理员账号，首次启动时创建
	Admin struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"admin"`

	Feedback FeedbackConfig `yaml:"feedback"`
	Upload   UploadConfig   `yaml:"upload"`
	Mail     MailConfig     `yaml:"mail"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // mysql, postgres, sqlite
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	Path     string `yaml:"path"` // sqlite 数据库文件
}

type LogConfig struct {
	Level    string `yaml:"level"`     // 日志级别: debug, info, warn, error, fatal
	Format   string `yaml:"format"`    // 日志格式: json, text
	Output   string `yaml:"output"`    // 输出方式: console, file, both
	FilePath string `yaml:"file_path"` // 日志文件路径
}

type FeedbackConfig struct {
	DefaultStatus  string `yaml:"default_status"`
	EnableComments *bool  `yaml:"enable_comments"`
	EnableBugs     *bool  `yaml:"enable_bugs"`
	CommentLabel   string `yaml:"comment_label"`
	BugLabel       string `yaml:"bug_label"`
	AdminEmail     string `yaml:"admin_email"`
}

// CommentsEnabled 未配置时默认开启
func (f FeedbackConfig) CommentsEnabled() bool {
	return f.EnableComments == nil || *f.EnableComments
}

func (f FeedbackConfig) BugsEnabled() bool {
	return f.EnableBugs == nil || *f.EnableBugs
}

type UploadConfig struct {
	Enabled          *bool  `yaml:"enabled"`
	Dir              string `yaml:"dir"`
	BaseURL          string `yaml:"base_url"`
	MaxFileSizeMB    int    `yaml:"max_file_size_mb"`
	AllowedFileTypes string `yaml:"allowed_file_types"` // 逗号分隔的扩展名
}

func (u UploadConfig) IsEnabled() bool {
	return u.Enabled == nil || *u.Enabled
}

type MailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

var GlobalConfig *Config

func Load() (*Config, error) {
	if GlobalConfig != nil {
		return GlobalConfig, nil
	}

	// .env 文件可选，不存在时忽略
	_ = godotenv.Load()

	// 获取配置文件路径
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		workDir, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("获取工作目录失败: %v", err)
		}

		configPath = filepath.Join(workDir, "config", "config.yaml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = filepath.Join(workDir, "config.yaml")
		}
	}

	config, err := LoadFile(configPath)
	if err != nil {
		return nil, err
	}

	GlobalConfig = config
	return config, nil
}

// LoadFile 读取并解析指定的配置文件，不修改 GlobalConfig
func LoadFile(configPath string) (*Config, error) {
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败 %s: %v", configPath, err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(configFile, config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %v", err)
	}

	applyEnv(config)
	config.SetDefaults()
	return config, nil
}

// Default 返回只包含默认值的配置
func Default() *Config {
	config := &Config{}
	config.SetDefaults()
	return config
}

// applyEnv 环境变量覆盖敏感配置
func applyEnv(config *Config) {
	if v := os.Getenv("FEEDBACK_SERVER_PORT"); v != "" {
		config.Server.Port = v
	}
	if v := os.Getenv("FEEDBACK_DB_DRIVER"); v != "" {
		config.Database.Driver = v
	}
	if v := os.Getenv("FEEDBACK_DB_HOST"); v != "" {
		config.Database.Host = v
	}
	if v := os.Getenv("FEEDBACK_DB_PASSWORD"); v != "" {
		config.Database.Password = v
	}
	if v := os.Getenv("FEEDBACK_JWT_SECRET"); v != "" {
		config.JWT.Secret = v
	}
	if v := os.Getenv("FEEDBACK_MAIL_PASSWORD"); v != "" {
		config.Mail.Password = v
	}
	if v := os.Getenv("FEEDBACK_ADMIN_PASSWORD"); v != "" {
		config.Admin.Password = v
	}
	if v := os.Getenv("FEEDBACK_UPLOAD_MAX_MB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Upload.MaxFileSizeMB = n
		}
	}
}

// SetDefaults 设置默认值
func (config *Config) SetDefaults() {
	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}
	if config.Server.Mode == "" {
		config.Server.Mode = "release"
	}

	if config.Database.Driver == "" {
		config.Database.Driver = "mysql"
	}
	config.Database.Driver = strings.ToLower(config.Database.Driver)
	if config.Database.Path == "" {
		config.Database.Path = "feedback.db"
	}
	if config.Database.SSLMode == "" {
		config.Database.SSLMode = "disable"
	}

	if config.JWT.ExpireTime == 0 {
		config.JWT.ExpireTime = 7 * 24 * 3600
	}

	// 日志配置默认值
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
	if config.Log.Output == "" {
		config.Log.Output = "console"
	}
	if config.Log.FilePath == "" {
		config.Log.FilePath = "logs/app.log"
	}

	if config.Admin.Username == "" {
		config.Admin.Username = "admin"
	}
	if config.Admin.Password == "" {
		config.Admin.Password = "feedback_admin"
	}

	if config.Feedback.DefaultStatus == "" {
		config.Feedback.DefaultStatus = "new"
	}
	if config.Feedback.CommentLabel == "" {
		config.Feedback.CommentLabel = "Leave a Comment"
	}
	if config.Feedback.BugLabel == "" {
		config.Feedback.BugLabel = "Report a Bug"
	}

	if config.Upload.Dir == "" {
		config.Upload.Dir = "uploads"
	}
	if config.Upload.BaseURL == "" {
		config.Upload.BaseURL = "/uploads"
	}
	if config.Upload.MaxFileSizeMB == 0 {
		config.Upload.MaxFileSizeMB = 25
	}

	if config.Mail.Port == 0 {
		config.Mail.Port = 25
	}
}
