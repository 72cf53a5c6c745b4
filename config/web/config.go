package config

import (
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Port      int    `env:"PORT" env-default:"8080"`
	JWTSecret string `env:"JWT_SECRET"`
	JWTTTL    int    `env:"JWT_TTL_HOURS" env-default:"72"`
	Database  DatabaseConfig
	Deepgram  DeepgramConfig
	OpenAI    OpenAIConfig
	Blob      BlobConfig
}

type DatabaseConfig struct {
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Host     string `env:"DB_HOST"`
	Name     string `env:"DB_NAME"`
	Port     int    `env:"DB_PORT"`
	SSLMode  string `env:"DB_SSLMODE" env-default:"disable"`
}

type DeepgramConfig struct {
	APIKey     string `env:"DEEPGRAM_API_KEY"`
	ProjectID  string `env:"DEEPGRAM_PROJECT_ID"`
	BaseURL    string `env:"DEEPGRAM_BASE_URL" env-default:"https://api.deepgram.com"`
	BatchModel string `env:"DEEPGRAM_BATCH_MODEL" env-default:"nova-3"`
	KeyTTLMins int    `env:"DEEPGRAM_KEY_TTL_MINUTES" env-default:"60"`
}

type OpenAIConfig struct {
	APIKey  string `env:"OPENAI_API_KEY"`
	BaseURL string `env:"OPENAI_BASE_URL" env-default:"https://api.openai.com"`
	Model   string `env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
}

type BlobConfig struct {
	Token   string `env:"BLOB_STORE_TOKEN"`
	BaseURL string `env:"BLOB_STORE_URL"`
}

func MustLoad() *Config {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("failed to read environment variables: " + err.Error())
	}

	return &cfg
}
