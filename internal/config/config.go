// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDViewer   string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDDisplay  string

	// Topics
	TopicOrientation string
	TopicMotion      string
	TopicPose        string
	TopicPickRequest string
	TopicPickResult  string

	// Motion integrator
	GRange      float64 // |zAcc| dead zone, m/s²
	Gravity     float64 // |zAcc| that maps to unit acceleration, m/s²
	AccelLimit  float64 // symmetric clamp of the normalized acceleration
	MaxSpeed    float64 // units per second at unit acceleration
	TravelLimit float64 // camera stays within ±TravelLimit along the axis
	BaseFOV     float64 // degrees, no accumulated rotation
	MinFOV      float64 // degrees, fully zoomed

	// Panorama
	CylinderRadius float64
	CylinderHeight float64
	TextureWidth   int
	TextureHeight  int

	// Markers
	MarkerLifetimeMS int
	MarkerOffset     float64
	MarkerMaxActive  int // 0 = unbounded

	// Timing
	FrameInterval        int // milliseconds
	SensorSampleInterval int // milliseconds
	ConsoleLogInterval   int // milliseconds

	// Sensor source: "mock", "imu", "nmea" or "none"
	SensorSource   string
	IMUSPIDevice   string
	IMUCSPin       string
	IMUAccelRange  byte // 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUGyroRange   byte // 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	NMEASerialPort string
	NMEABaudRate   int

	// Web Server
	WebServerPort int
	WebStaticDir  string

	// Display
	DisplayI2CBus         string
	DisplayLeftI2CAddr    uint16
	DisplayRightI2CAddr   uint16
	DisplayUpdateInterval int // milliseconds

	// Logging
	LogLevel string
}

// EnvPrefix is prepended to every key when looking up environment overrides,
// e.g. PANORAMA_MQTT_BROKER.
const EnvPrefix = "PANORAMA"

var defaults = map[string]any{
	"MQTT_BROKER":             "tcp://localhost:1883",
	"MQTT_CLIENT_ID_VIEWER":   "panorama-viewer",
	"MQTT_CLIENT_ID_PRODUCER": "panorama-sensor-producer",
	"MQTT_CLIENT_ID_CONSOLE":  "panorama-console",
	"MQTT_CLIENT_ID_DISPLAY":  "panorama-display",

	"TOPIC_ORIENTATION":  "panorama/sensor/orientation",
	"TOPIC_MOTION":       "panorama/sensor/motion",
	"TOPIC_POSE":         "panorama/camera/pose",
	"TOPIC_PICK_REQUEST": "panorama/pick/request",
	"TOPIC_PICK_RESULT":  "panorama/pick/result",

	"G_RANGE":      8.2,
	"GRAVITY":      9.4,
	"ACCEL_LIMIT":  1.5,
	"MAX_SPEED":    25.0,
	"TRAVEL_LIMIT": 50.0,
	"BASE_FOV":     100.0,
	"MIN_FOV":      20.0,

	"CYLINDER_RADIUS": 20.0,
	"CYLINDER_HEIGHT": 60.0,
	"TEXTURE_WIDTH":   2800,
	"TEXTURE_HEIGHT":  1400,

	"MARKER_LIFETIME_MS": 1000,
	"MARKER_OFFSET":      0.02,
	"MARKER_MAX_ACTIVE":  0,

	"FRAME_INTERVAL":         16,
	"SENSOR_SAMPLE_INTERVAL": 20,
	"CONSOLE_LOG_INTERVAL":   500,

	"SENSOR_SOURCE":    "mock",
	"IMU_SPI_DEVICE":   "/dev/spidev6.0",
	"IMU_CS_PIN":       "18",
	"IMU_ACCEL_RANGE":  0,
	"IMU_GYRO_RANGE":   0,
	"NMEA_SERIAL_PORT": "/dev/serial0",
	"NMEA_BAUD_RATE":   9600,

	"WEB_SERVER_PORT": 8080,
	"WEB_STATIC_DIR":  "web",

	"DISPLAY_I2C_BUS":         "",
	"DISPLAY_LEFT_I2C_ADDR":   "0x3C",
	"DISPLAY_RIGHT_I2C_ADDR":  "0x3D",
	"DISPLAY_UPDATE_INTERVAL": 250,

	"LOG_LEVEL": "info",
}

// Package-level unexported variables for the process-wide config:
//   - globalConfig is only reachable through InitGlobal and Get.
//   - configOnce makes InitGlobal idempotent.
//   - configMu guards reads against the single initialization write.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg, err := fromViper(newViper())
	if err != nil {
		// defaults are static and always valid
		panic(err)
	}
	return cfg
}

// Load reads a KEY=VALUE configuration file and returns a Config struct.
// Keys missing from the file fall back to defaults; PANORAMA_<KEY>
// environment variables override both.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	v.SetConfigType("dotenv")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := checkKeys(v); err != nil {
		return nil, err
	}

	return fromViper(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// checkKeys rejects keys we do not know about, usually a typo in the file.
func checkKeys(v *viper.Viper) error {
	var unknown []string
	for _, key := range v.AllKeys() {
		if _, ok := defaults[strings.ToUpper(key)]; !ok {
			unknown = append(unknown, strings.ToUpper(key))
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown config key(s): %s", strings.Join(unknown, ", "))
	}
	return nil
}

func fromViper(v *viper.Viper) (*Config, error) {
	leftAddr, err := parseI2CAddr(v, "DISPLAY_LEFT_I2C_ADDR")
	if err != nil {
		return nil, err
	}
	rightAddr, err := parseI2CAddr(v, "DISPLAY_RIGHT_I2C_ADDR")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		MQTTBroker:           v.GetString("MQTT_BROKER"),
		MQTTClientIDViewer:   v.GetString("MQTT_CLIENT_ID_VIEWER"),
		MQTTClientIDProducer: v.GetString("MQTT_CLIENT_ID_PRODUCER"),
		MQTTClientIDConsole:  v.GetString("MQTT_CLIENT_ID_CONSOLE"),
		MQTTClientIDDisplay:  v.GetString("MQTT_CLIENT_ID_DISPLAY"),

		TopicOrientation: v.GetString("TOPIC_ORIENTATION"),
		TopicMotion:      v.GetString("TOPIC_MOTION"),
		TopicPose:        v.GetString("TOPIC_POSE"),
		TopicPickRequest: v.GetString("TOPIC_PICK_REQUEST"),
		TopicPickResult:  v.GetString("TOPIC_PICK_RESULT"),

		GRange:      v.GetFloat64("G_RANGE"),
		Gravity:     v.GetFloat64("GRAVITY"),
		AccelLimit:  v.GetFloat64("ACCEL_LIMIT"),
		MaxSpeed:    v.GetFloat64("MAX_SPEED"),
		TravelLimit: v.GetFloat64("TRAVEL_LIMIT"),
		BaseFOV:     v.GetFloat64("BASE_FOV"),
		MinFOV:      v.GetFloat64("MIN_FOV"),

		CylinderRadius: v.GetFloat64("CYLINDER_RADIUS"),
		CylinderHeight: v.GetFloat64("CYLINDER_HEIGHT"),
		TextureWidth:   v.GetInt("TEXTURE_WIDTH"),
		TextureHeight:  v.GetInt("TEXTURE_HEIGHT"),

		MarkerLifetimeMS: v.GetInt("MARKER_LIFETIME_MS"),
		MarkerOffset:     v.GetFloat64("MARKER_OFFSET"),
		MarkerMaxActive:  v.GetInt("MARKER_MAX_ACTIVE"),

		FrameInterval:        v.GetInt("FRAME_INTERVAL"),
		SensorSampleInterval: v.GetInt("SENSOR_SAMPLE_INTERVAL"),
		ConsoleLogInterval:   v.GetInt("CONSOLE_LOG_INTERVAL"),

		SensorSource:   strings.ToLower(v.GetString("SENSOR_SOURCE")),
		IMUSPIDevice:   v.GetString("IMU_SPI_DEVICE"),
		IMUCSPin:       v.GetString("IMU_CS_PIN"),
		NMEASerialPort: v.GetString("NMEA_SERIAL_PORT"),
		NMEABaudRate:   v.GetInt("NMEA_BAUD_RATE"),

		WebServerPort: v.GetInt("WEB_SERVER_PORT"),
		WebStaticDir:  v.GetString("WEB_STATIC_DIR"),

		DisplayI2CBus:         v.GetString("DISPLAY_I2C_BUS"),
		DisplayLeftI2CAddr:    leftAddr,
		DisplayRightI2CAddr:   rightAddr,
		DisplayUpdateInterval: v.GetInt("DISPLAY_UPDATE_INTERVAL"),

		LogLevel: v.GetString("LOG_LEVEL"),
	}

	accelRange := v.GetInt("IMU_ACCEL_RANGE")
	if accelRange < 0 || accelRange > 3 {
		return nil, fmt.Errorf("IMU_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", accelRange)
	}
	cfg.IMUAccelRange = byte(accelRange)

	gyroRange := v.GetInt("IMU_GYRO_RANGE")
	if gyroRange < 0 || gyroRange > 3 {
		return nil, fmt.Errorf("IMU_GYRO_RANGE must be 0-3 (0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s), got %d", gyroRange)
	}
	cfg.IMUGyroRange = byte(gyroRange)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseI2CAddr(v *viper.Viper, key string) (uint16, error) {
	raw := v.GetString(key)
	addr, err := strconv.ParseUint(raw, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return uint16(addr), nil
}

// validate checks that required fields are set and numeric ranges make sense.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.GRange <= 0 {
		return fmt.Errorf("G_RANGE must be positive, got %g", c.GRange)
	}
	if c.Gravity <= c.GRange {
		return fmt.Errorf("GRAVITY (%g) must be greater than G_RANGE (%g)", c.Gravity, c.GRange)
	}
	if c.AccelLimit <= 0 {
		return fmt.Errorf("ACCEL_LIMIT must be positive, got %g", c.AccelLimit)
	}
	if c.TravelLimit <= 0 {
		return fmt.Errorf("TRAVEL_LIMIT must be positive, got %g", c.TravelLimit)
	}
	if c.MinFOV <= 0 || c.BaseFOV >= 180 || c.MinFOV > c.BaseFOV {
		return fmt.Errorf("FOV range must satisfy 0 < MIN_FOV <= BASE_FOV < 180, got %g..%g", c.MinFOV, c.BaseFOV)
	}
	if c.CylinderRadius <= 0 || c.CylinderHeight <= 0 {
		return fmt.Errorf("CYLINDER_RADIUS and CYLINDER_HEIGHT must be positive")
	}
	if c.TextureWidth <= 0 || c.TextureHeight <= 0 {
		return fmt.Errorf("TEXTURE_WIDTH and TEXTURE_HEIGHT must be positive")
	}
	if c.MarkerLifetimeMS <= 0 {
		return fmt.Errorf("MARKER_LIFETIME_MS must be positive, got %d", c.MarkerLifetimeMS)
	}
	if c.MarkerMaxActive < 0 {
		return fmt.Errorf("MARKER_MAX_ACTIVE must be >= 0, got %d", c.MarkerMaxActive)
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("FRAME_INTERVAL is required")
	}
	if c.SensorSampleInterval <= 0 {
		return fmt.Errorf("SENSOR_SAMPLE_INTERVAL is required")
	}
	switch c.SensorSource {
	case "mock", "imu", "nmea", "none":
	default:
		return fmt.Errorf("SENSOR_SOURCE must be one of mock, imu, nmea, none; got %q", c.SensorSource)
	}
	return nil
}

// FrameDuration is the render loop period.
func (c *Config) FrameDuration() time.Duration {
	return time.Duration(c.FrameInterval) * time.Millisecond
}

// SampleDuration is the sensor polling period.
func (c *Config) SampleDuration() time.Duration {
	return time.Duration(c.SensorSampleInterval) * time.Millisecond
}

// MarkerLifetime is how long a pick marker stays in the scene.
func (c *Config) MarkerLifetime() time.Duration {
	return time.Duration(c.MarkerLifetimeMS) * time.Millisecond
}

// InitGlobal initializes the global configuration from file.
// Only the first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
