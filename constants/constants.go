package constants

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// audio pipeline, fixed so similarity scores stay comparable across runs
const (
	WindowBeats = 40.0
	StrideBeats = 8.0

	AbsoluteBins  = 128
	RelativeBins  = 512
	IntervalShift = 256

	AbsoluteWeight  = 0.2
	RelativeWeight  = 0.4
	FirstNoteWeight = 0.4
)

const (
	DefaultImageSize  = 100
	// MaxImageSide bounds either side of the resize target.
	MaxImageSide = 1024
	DefaultComponents = 50
	DefaultPort       = "8080"
)

var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp"}
var MidiExtensions = []string{".mid", ".midi"}

// Load reads a .env file from the working directory if there is one.
// Variables already present in the environment win.
func Load() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func GetMediaDir() string {
	return getEnv("MEDIA_PATH", "./media")
}

func GetImageDir() string {
	return getEnv("IMAGE_DIR", filepath.Join(GetMediaDir(), "images"))
}

func GetAudioDir() string {
	return getEnv("AUDIO_DIR", filepath.Join(GetMediaDir(), "audio"))
}

func GetPort() string {
	return getEnv("PORT", DefaultPort)
}

func GetLogLevel() string {
	return getEnv("LOG_LEVEL", "info")
}

func GetImageWidth() int {
	return getEnvAsInt("IMAGE_WIDTH", DefaultImageSize)
}

func GetImageHeight() int {
	return getEnvAsInt("IMAGE_HEIGHT", DefaultImageSize)
}

func GetComponents() int {
	return getEnvAsInt("PCA_COMPONENTS", DefaultComponents)
}

func GetWorkers() int {
	return getEnvAsInt("WORKERS", runtime.NumCPU())
}

// GetResample returns "nearest" or "bicubic".
func GetResample() string {
	if strings.EqualFold(getEnv("RESAMPLE", ""), "bicubic") {
		return "bicubic"
	}
	return "nearest"
}

func GetCorsOrigins() []string {
	raw := getEnv("CORS_ORIGINS", "http://localhost:3000")
	var res []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			res = append(res, origin)
		}
	}
	return res
}
