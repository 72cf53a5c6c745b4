package config

import (
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	APIBaseURL string `env:"MEETSCRIBE_API_URL" env-default:"http://localhost:8080"`
	APIToken   string `env:"MEETSCRIBE_API_TOKEN"`
	Live       LiveConfig
	Audio      AudioConfig
}

type LiveConfig struct {
	ListenURL      string `env:"DEEPGRAM_LISTEN_URL" env-default:"wss://api.deepgram.com/v1/listen"`
	Model          string `env:"DEEPGRAM_LIVE_MODEL" env-default:"nova-3"`
	InterimResults bool   `env:"DEEPGRAM_INTERIM_RESULTS" env-default:"true"`
	SmartFormat    bool   `env:"DEEPGRAM_SMART_FORMAT" env-default:"true"`
	UtteranceEndMS int    `env:"DEEPGRAM_UTTERANCE_END_MS" env-default:"3000"`
}

type AudioConfig struct {
	Command     string `env:"RECORDER_COMMAND" env-default:"ffmpeg"`
	InputFormat string `env:"RECORDER_INPUT_FORMAT" env-default:"pulse"`
	InputDevice string `env:"RECORDER_INPUT_DEVICE" env-default:"default"`
	SampleRate  int    `env:"RECORDER_SAMPLE_RATE" env-default:"16000"`
	Channels    int    `env:"RECORDER_CHANNELS" env-default:"1"`
}

func MustLoad() *Config {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("failed to read environment variables: " + err.Error())
	}

	return &cfg
}
