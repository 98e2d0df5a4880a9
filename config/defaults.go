// =============================================================================
// 📦 GuardFlow 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:   DefaultServerConfig(),
		Scanner:  DefaultScannerConfig(),
		Analyzer: DefaultAnalyzerConfig(),
		Executor: DefaultExecutorConfig(),
		Log:      DefaultLogConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		MaxPayloadBytes: 1 << 20,
		RateLimitRPS:    100,
		RateLimitBurst:  200,
	}
}

// DefaultScannerConfig 返回默认扫描器配置
func DefaultScannerConfig() ScannerConfig {
	// 空类别列表表示启用所有内置类别
	return ScannerConfig{}
}

// DefaultAnalyzerConfig 返回默认分析器配置
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		AllowedModules: []string{"math", "json"},
	}
}

// DefaultExecutorConfig 返回默认执行器配置
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		PoolSize:           8,
		AcquireTimeout:     2 * time.Second,
		MaxDuration:        5 * time.Second,
		MaxMemoryBytes:     32 << 20,
		MaxOutputBytes:     64 << 10,
		StepsPerMemoryByte: 0.5,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}
