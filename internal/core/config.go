package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/RecoveryAshes/GmapLeads/internal/models"
)

// Config 应用程序配置
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Output   OutputConfig   `mapstructure:"output"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	Resource ResourceConfig `mapstructure:"resource"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	BaseDir      string `mapstructure:"base_dir"`
	DatasetFile  string `mapstructure:"dataset_file"`
	ReportFile   string `mapstructure:"report_file"`
	FailuresFile string `mapstructure:"failures_file"`
	StorageDir   string `mapstructure:"storage_dir"`
}

// BrowserConfig 浏览器配置
type BrowserConfig struct {
	Headless       bool `mapstructure:"headless"`
	NavTimeoutSec  int  `mapstructure:"nav_timeout_sec"`
	BlockResources bool `mapstructure:"block_resources"`
}

// ResourceConfig 资源监控配置(内存单位为MB)
type ResourceConfig struct {
	SafetyReserveMemory int64 `mapstructure:"safety_reserve_memory"`
	SafetyThreshold     int64 `mapstructure:"safety_threshold"`
	CPULoadThreshold    int   `mapstructure:"cpu_load_threshold"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置配置文件
	if configPath != "" {
		// 使用指定的配置文件
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 添加配置搜索路径
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".gmapleads"))
		}
	}

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在,使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在,使用默认值
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 输出配置默认值
	v.SetDefault("output.base_dir", "output")
	v.SetDefault("output.dataset_file", "dataset.jsonl")
	v.SetDefault("output.report_file", "run_report.json")
	v.SetDefault("output.failures_file", "failed_tasks.json")
	v.SetDefault("output.storage_dir", "storage")

	// 浏览器配置默认值
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.nav_timeout_sec", 60)
	v.SetDefault("browser.block_resources", true)

	// 资源监控配置默认值
	v.SetDefault("resource.safety_reserve_memory", 500)
	v.SetDefault("resource.safety_threshold", 1024)
	v.SetDefault("resource.cpu_load_threshold", 90)
}

// LoadRunInput 加载运行输入JSON
// startUrls条目支持纯字符串与{url,label}对象混排,
// 这种多态解码依赖自定义UnmarshalJSON,因此走encoding/json而非viper
func LoadRunInput(inputPath string) (*models.RunInput, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("读取运行输入失败 [%s]: %w", inputPath, err)
	}

	var input models.RunInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("解析运行输入失败 [%s]: %w", inputPath, err)
	}

	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("运行输入校验失败: %w", err)
	}

	input.ApplyDefaults()
	input.ApplyCostOptimizedMode()

	return &input, nil
}
