package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "panorama_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, 8.2, cfg.GRange)
	assert.Equal(t, 9.4, cfg.Gravity)
	assert.Equal(t, 1.5, cfg.AccelLimit)
	assert.Equal(t, 25.0, cfg.MaxSpeed)
	assert.Equal(t, 50.0, cfg.TravelLimit)
	assert.Equal(t, 100.0, cfg.BaseFOV)
	assert.Equal(t, 20.0, cfg.MinFOV)
	assert.Equal(t, 2800, cfg.TextureWidth)
	assert.Equal(t, 1400, cfg.TextureHeight)
	assert.Equal(t, time.Second, cfg.MarkerLifetime())
	assert.Equal(t, 16*time.Millisecond, cfg.FrameDuration())
	assert.Equal(t, uint16(0x3C), cfg.DisplayLeftI2CAddr)
	assert.Equal(t, uint16(0x3D), cfg.DisplayRightI2CAddr)
	assert.Equal(t, "mock", cfg.SensorSource)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
# comment lines are ignored
MQTT_BROKER=tcp://broker.local:1883
MAX_SPEED=12.5
MARKER_LIFETIME_MS=250
SENSOR_SOURCE=NMEA
DISPLAY_LEFT_I2C_ADDR=60
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tcp://broker.local:1883", cfg.MQTTBroker)
	assert.Equal(t, 12.5, cfg.MaxSpeed)
	assert.Equal(t, 250*time.Millisecond, cfg.MarkerLifetime())
	assert.Equal(t, "nmea", cfg.SensorSource)
	assert.Equal(t, uint16(60), cfg.DisplayLeftI2CAddr)
	// untouched keys keep their defaults
	assert.Equal(t, 8.2, cfg.GRange)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "WEB_SERVER_PORT=9000\n")
	t.Setenv("PANORAMA_WEB_SERVER_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.WebServerPort)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "NOT_A_KEY=1\n", "unknown config key"},
		{"accel range", "IMU_ACCEL_RANGE=4\n", "IMU_ACCEL_RANGE must be 0-3"},
		{"gyro range", "IMU_GYRO_RANGE=-1\n", "IMU_GYRO_RANGE must be 0-3"},
		{"gravity below dead zone", "GRAVITY=8\n", "GRAVITY"},
		{"fov inverted", "MIN_FOV=120\n", "FOV range"},
		{"bad source", "SENSOR_SOURCE=kinect\n", "SENSOR_SOURCE"},
		{"bad i2c addr", "DISPLAY_RIGHT_I2C_ADDR=zz\n", "DISPLAY_RIGHT_I2C_ADDR"},
		{"marker cap", "MARKER_MAX_ACTIVE=-2\n", "MARKER_MAX_ACTIVE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
