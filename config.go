package main

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "litegen"
	envPrefix  = "LITEGEN"
)

// Config 命令行配置
// 优先级: 命令行参数 > 环境变量 LITEGEN_* > litegen.yaml > 默认值
type Config struct {
	Verbose  bool
	Output   string
	Patterns []string
	Debounce time.Duration // dev 模式的防抖动时间
	Check    bool
}

// loadConfig 从 dir 目录加载 litegen.yaml，文件不存在时只使用默认值与环境变量
func loadConfig(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("verbose", false)
	v.SetDefault("output", "")
	v.SetDefault("patterns", []string{"./..."})
	v.SetDefault("debounce", "5s")
	v.SetDefault("check", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{
		Verbose:  v.GetBool("verbose"),
		Output:   v.GetString("output"),
		Patterns: v.GetStringSlice("patterns"),
		Debounce: v.GetDuration("debounce"),
		Check:    v.GetBool("check"),
	}
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = []string{"./..."}
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 5 * time.Second
	}
	return cfg, nil
}
