package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Session store kinds.
const (
	SessionStoreSQLite = "sqlite"
	SessionStoreMemory = "memory"
)

// Config 聚合整个客户端宿主的配置项。
type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Session  SessionConfig
	Security SecurityConfig
}

// fileConfig 是可选 YAML 配置文件的结构，环境变量优先于文件。
type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Backend struct {
		BaseURL        string `yaml:"base_url"`
		TimeoutSeconds *int   `yaml:"timeout_seconds"`
	} `yaml:"backend"`
	Session struct {
		Store string `yaml:"store"`
		Path  string `yaml:"path"`
	} `yaml:"session"`
	Security struct {
		CSRFKey       string `yaml:"csrf_key"`
		SecureCookies *bool  `yaml:"secure_cookies"`
	} `yaml:"security"`
}

// Load 从 CARBON_CONFIG 指定的 YAML 文件（可选）和环境变量加载配置。
func Load() (*Config, error) {
	file, err := loadFile(strings.TrimSpace(os.Getenv("CARBON_CONFIG")))
	if err != nil {
		return nil, err
	}

	server, err := loadServerConfig(file)
	if err != nil {
		return nil, err
	}

	backend, err := loadBackendConfig(file)
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig(file)
	if err != nil {
		return nil, err
	}

	security, err := loadSecurityConfig(file)
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Backend: backend, Session: session, Security: security}, nil
}

func loadFile(path string) (fileConfig, error) {
	var file fileConfig
	if path == "" {
		return file, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return file, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return file, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig(file fileConfig) (ServerConfig, error) {
	port := getEnvOrDefault("PORT", file.Server.Port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// BackendConfig 描述碳足迹后端 API 的地址与超时。
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

func loadBackendConfig(file fileConfig) (BackendConfig, error) {
	timeoutSeconds := 30 // 默认30秒
	if file.Backend.TimeoutSeconds != nil {
		timeoutSeconds = *file.Backend.TimeoutSeconds
	}
	override, err := parseOptionalIntEnv("CARBON_API_TIMEOUT")
	if err != nil {
		return BackendConfig{}, err
	}
	if override != nil {
		timeoutSeconds = *override
	}
	if timeoutSeconds < 0 {
		return BackendConfig{}, fmt.Errorf("invalid CARBON_API_TIMEOUT value %d: must not be negative", timeoutSeconds)
	}

	baseURL := getEnvOrDefault("CARBON_API_BASE_URL", file.Backend.BaseURL)
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}

	return BackendConfig{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Timeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// SessionConfig 描述会话存储位置。
type SessionConfig struct {
	Store string
	Path  string
}

func loadSessionConfig(file fileConfig) (SessionConfig, error) {
	store := strings.ToLower(getEnvOrDefault("CARBON_SESSION_STORE", file.Session.Store))
	if store == "" {
		store = SessionStoreSQLite
	}
	if store != SessionStoreSQLite && store != SessionStoreMemory {
		return SessionConfig{}, fmt.Errorf("invalid CARBON_SESSION_STORE value %q: want %s or %s", store, SessionStoreSQLite, SessionStoreMemory)
	}

	path := getEnvOrDefault("CARBON_SESSION_PATH", file.Session.Path)
	if path == "" {
		path = "carbon-session.db"
	}

	return SessionConfig{Store: store, Path: path}, nil
}

// SecurityConfig 描述表单 CSRF 防护。
type SecurityConfig struct {
	CSRFKey       []byte
	SecureCookies bool
}

func loadSecurityConfig(file fileConfig) (SecurityConfig, error) {
	secureDefault := false
	if file.Security.SecureCookies != nil {
		secureDefault = *file.Security.SecureCookies
	}
	secure, err := parseBoolEnv("CARBON_SECURE_COOKIES", secureDefault)
	if err != nil {
		return SecurityConfig{}, err
	}

	key, err := parseCSRFKey(getEnvOrDefault("CARBON_CSRF_KEY", file.Security.CSRFKey))
	if err != nil {
		return SecurityConfig{}, err
	}

	return SecurityConfig{CSRFKey: key, SecureCookies: secure}, nil
}

// parseCSRFKey 接受 64 位十六进制或 32 字节原始字符串；为空时每次启动随机生成。
func parseCSRFKey(raw string) ([]byte, error) {
	if raw == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate csrf key: %w", err)
		}
		return key, nil
	}

	if len(raw) == 64 {
		if key, err := hex.DecodeString(raw); err == nil {
			return key, nil
		}
	}
	if len(raw) == 32 {
		return []byte(raw), nil
	}
	return nil, fmt.Errorf("invalid CARBON_CSRF_KEY: want 32 bytes or 64 hex characters, got %d characters", len(raw))
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return strings.TrimSpace(defaultValue)
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
