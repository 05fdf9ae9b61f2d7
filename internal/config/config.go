package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pion/webrtc/v3"
)

type Config struct {
	Env       string          `yaml:"env" env:"ENV" env-default:"local"`
	HTTP      HTTPConfig      `yaml:"http"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Rooms     RoomsConfig     `yaml:"rooms"`
	WebRTC    WebRTCConfig    `yaml:"webrtc"`
}

type HTTPConfig struct {
	Address           string        `yaml:"address" env:"HTTP_ADDRESS" env-default:""`
	Port              string        `yaml:"port" env:"PORT" env-default:""`
	AllowedOrigins    []string      `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:","`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"HTTP_READ_HEADER_TIMEOUT" env-default:"5s"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type WebSocketConfig struct {
	ReadBufferSize    int           `yaml:"read_buffer_size" env:"WS_READ_BUFFER_SIZE" env-default:"4096"`
	WriteBufferSize   int           `yaml:"write_buffer_size" env:"WS_WRITE_BUFFER_SIZE" env-default:"4096"`
	MaxMessageSize    int64         `yaml:"max_message_size" env:"WS_MAX_MESSAGE_SIZE" env-default:"1048576"`
	SendBuffer        int           `yaml:"send_buffer" env:"WS_SEND_BUFFER" env-default:"256"`
	WriteWait         time.Duration `yaml:"write_wait" env:"WS_WRITE_WAIT" env-default:"10s"`
	PongWait          time.Duration `yaml:"pong_wait" env:"WS_PONG_WAIT" env-default:"60s"`
	MessagesPerSecond float64       `yaml:"messages_per_second" env:"WS_MESSAGES_PER_SECOND" env-default:"100"`
	Burst             int           `yaml:"burst" env:"WS_BURST" env-default:"200"`
	MaxViolations     int           `yaml:"max_violations" env:"WS_MAX_VIOLATIONS" env-default:"1000"`
}

// RoomsConfig controls the optional idle eviction. Rooms live for the
// process lifetime while IdleTTL is zero.
type RoomsConfig struct {
	IdleTTL       time.Duration `yaml:"idle_ttl" env:"ROOMS_IDLE_TTL" env-default:"0s"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"ROOMS_SWEEP_INTERVAL" env-default:"1m"`
}

type WebRTCConfig struct {
	STUNServers []string   `yaml:"stun_servers" env:"WEBRTC_STUN_SERVERS" env-separator:","`
	TURN        TURNConfig `yaml:"turn"`
}

type TURNConfig struct {
	URLs       []string `yaml:"urls" env:"WEBRTC_TURN_URLS" env-separator:","`
	Username   string   `yaml:"username" env:"WEBRTC_TURN_USERNAME"`
	Credential string   `yaml:"credential" env:"WEBRTC_TURN_CREDENTIAL"`
}

func MustLoad() *Config {
	configPath := fetchConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return MustLoadEnv()
	}

	return MustLoadPath(configPath)
}

func MustLoadPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	cfg.setDefaults()

	return &cfg
}

// MustLoadEnv builds the config from environment variables only.
func MustLoadEnv() *Config {
	var cfg Config

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("cannot read config from env: " + err.Error())
	}

	cfg.setDefaults()

	return &cfg
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = "config/local.yaml"
	}

	return res
}

func (c *Config) setDefaults() {
	if port := strings.TrimPrefix(c.HTTP.Port, ":"); port != "" {
		c.HTTP.Address = ":" + port
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if len(c.HTTP.AllowedOrigins) == 0 {
		c.HTTP.AllowedOrigins = []string{"*"}
	}
	if c.WebSocket.SendBuffer <= 0 {
		c.WebSocket.SendBuffer = 256
	}
	if c.WebSocket.PongWait <= 0 {
		c.WebSocket.PongWait = 60 * time.Second
	}
	if c.WebSocket.WriteWait <= 0 {
		c.WebSocket.WriteWait = 10 * time.Second
	}
	if c.Rooms.SweepInterval <= 0 {
		c.Rooms.SweepInterval = time.Minute
	}
	if len(c.WebRTC.STUNServers) == 0 {
		c.WebRTC.STUNServers = []string{"stun:stun.l.google.com:19302"}
	}
}

// PingPeriod is how often the server pings a client. Must be less than PongWait.
func (c WebSocketConfig) PingPeriod() time.Duration {
	return (c.PongWait * 9) / 10
}

// ICEServers converts the configured STUN/TURN endpoints into the shape
// RTCPeerConnection expects on the client.
func (c WebRTCConfig) ICEServers() []webrtc.ICEServer {
	servers := make([]webrtc.ICEServer, 0, 2)

	if len(c.STUNServers) > 0 {
		servers = append(servers, webrtc.ICEServer{URLs: c.STUNServers})
	}

	if len(c.TURN.URLs) > 0 {
		servers = append(servers, webrtc.ICEServer{
			URLs:           c.TURN.URLs,
			Username:       c.TURN.Username,
			Credential:     c.TURN.Credential,
			CredentialType: webrtc.ICECredentialTypePassword,
		})
	}

	return servers
}
