package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Server config struct
type Server struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port" validate:"gte=1,lte=65535"`
	// Mode is the gin mode: debug, release or test
	Mode        string        `json:"mode" yaml:"mode" validate:"oneof=debug release test"`
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout" validate:"gte=0"`
	// WriteTimeout stays 0 by default so event streams are not cut off
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func getServerConfig(v *viper.Viper) *Server {
	return &Server{
		Host:            getStringOrDefault(v, "server.host", "0.0.0.0"),
		Port:            getIntOrDefault(v, "server.port", 8080),
		Mode:            getStringOrDefault(v, "server.mode", "release"),
		ReadTimeout:     getDurationOrDefault(v, "server.read_timeout", 30*time.Second),
		WriteTimeout:    v.GetDuration("server.write_timeout"),
		ShutdownTimeout: getDurationOrDefault(v, "server.shutdown_timeout", 30*time.Second),
	}
}
