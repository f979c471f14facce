package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

// Config 聚合整个客户端的配置项。
type Config struct {
	Server ServerConfig
	Answer AnswerConfig
	Chat   ChatConfig
	Log    LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	answer, err := loadAnswerConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Answer: answer, Chat: chat, Log: logCfg}, nil
}

// ServerConfig 描述浏览器视图的 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "3000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":3000" 或 "127.0.0.1:3000"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AnswerConfig describes how to reach the remote answer service.
type AnswerConfig struct {
	BaseURL string
	// Timeout bounds a single request. Zero leaves the transport default in place.
	Timeout time.Duration
}

func loadAnswerConfig() (AnswerConfig, error) {
	baseURL := getEnvOrDefault("ANSWER_BASE_URL", "http://localhost:8000")
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return AnswerConfig{}, fmt.Errorf("invalid ANSWER_BASE_URL value %q: %w", baseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return AnswerConfig{}, fmt.Errorf("invalid ANSWER_BASE_URL value %q: scheme must be http or https", baseURL)
	}
	if parsed.Host == "" {
		return AnswerConfig{}, fmt.Errorf("invalid ANSWER_BASE_URL value %q: missing host", baseURL)
	}

	timeout, err := parseDurationEnv("ANSWER_TIMEOUT", 0)
	if err != nil {
		return AnswerConfig{}, err
	}
	if timeout < 0 {
		return AnswerConfig{}, fmt.Errorf("invalid ANSWER_TIMEOUT value %s: must not be negative", timeout)
	}

	return AnswerConfig{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Timeout: timeout,
	}, nil
}

// ChatConfig holds the knobs shared by both chat views.
type ChatConfig struct {
	Debounce         time.Duration
	MaxMessageLength int
	WelcomeTimeout   time.Duration
	Markdown         bool
}

func loadChatConfig() (ChatConfig, error) {
	debounce, err := parseDurationEnv("CHAT_DEBOUNCE", 300*time.Millisecond)
	if err != nil {
		return ChatConfig{}, err
	}
	if debounce < 0 {
		debounce = 0
	}

	maxLength := 200
	if override, err := parseOptionalIntEnv("CHAT_MAX_LENGTH"); err != nil {
		return ChatConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return ChatConfig{}, fmt.Errorf("invalid CHAT_MAX_LENGTH value %d: must be positive", *override)
		}
		maxLength = *override
	}

	welcome, err := parseDurationEnv("CHAT_WELCOME_TIMEOUT", 3*time.Second)
	if err != nil {
		return ChatConfig{}, err
	}

	markdown, err := parseBoolEnv("CHAT_MARKDOWN", true)
	if err != nil {
		return ChatConfig{}, err
	}

	return ChatConfig{
		Debounce:         debounce,
		MaxMessageLength: maxLength,
		WelcomeTimeout:   welcome,
		Markdown:         markdown,
	}, nil
}

// LogConfig 描述日志输出配置
type LogConfig struct {
	Level  string
	File   string
	Pretty bool
}

func loadLogConfig() (LogConfig, error) {
	pretty, err := parseBoolEnv("LOG_PRETTY", isatty.IsTerminal(os.Stderr.Fd()))
	if err != nil {
		return LogConfig{}, err
	}

	return LogConfig{
		Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		File:   strings.TrimSpace(os.Getenv("LOG_FILE")),
		Pretty: pretty,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

// parseDurationEnv accepts Go durations ("300ms", "3s") as well as bare integers,
// which are read as milliseconds.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}

	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}

	val, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return val, nil
}
