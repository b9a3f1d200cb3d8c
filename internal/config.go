package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

const (
	// DefaultStopTimeout is the timeout in seconds for gracefully stopping a
	// container before forcefully killing it.
	DefaultStopTimeout = 10

	// DefaultTTYRetries is the number of retry attempts for initial TTY resize
	// operations. The container may not be fully ready when we first try to
	// resize, so we retry with increasing delays.
	DefaultTTYRetries = 10

	// DefaultRetryDelay is the base delay between TTY resize retry attempts.
	// Each retry multiplies this by (retry+1): 10ms, 20ms, 30ms, etc.
	DefaultRetryDelay = 10 * time.Millisecond

	// DefaultImageName is the local image tag the launcher removes, rebuilds,
	// and runs.
	DefaultImageName = ImageName("sortie:latest")

	// DefaultProjectMount is where the launcher binds the project directory
	// inside the container.
	DefaultProjectMount = "/opt/sortie"

	// DefaultEntrypoint is the sortie executable inside the mounted project
	// volume. The container image's own entrypoint is always overridden.
	DefaultEntrypoint = "/opt/sortie/sortie"

	// DefaultAWSMount is where the caller's AWS credential directory is bound
	// so the payload can reach S3.
	DefaultAWSMount = "/root/.aws"
)

// Config holds the settings for a sorting run, loaded from an INI file.
type Config struct {
	// Profile is the AWS shared-config profile to use.
	Profile string

	// Bucket is the S3 bucket to sort.
	Bucket string

	LogToFile bool
	LogLevel  int
	LogFile   string

	// Mode selects how source tracks are discovered.
	Mode IngestionMode

	// TrackList is the path to the JSON track list, required in track_list mode.
	TrackList string

	CacheDir        string
	PersistentCache bool

	// SortMask is the template rendered with a track's tags to produce its
	// destination key.
	SortMask string

	// CleanUp deletes source objects after their sorted copies are uploaded.
	CleanUp bool
}

// MissingKeyError reports a required key that is absent from the config file.
type MissingKeyError struct {
	Section string
	Key     string
	Path    string
}

func (e MissingKeyError) Error() string {
	return fmt.Sprintf("key [%s] %s not present in %q\nCheck your configuration file against the example in conf/", e.Section, e.Key, e.Path)
}

// LoadConfig reads and validates the sortie INI configuration at path.
// Every required key is checked for presence so a misconfiguration surfaces
// at load time with the section, key, and file named, not midway through a run.
func LoadConfig(path string) (Config, error) {
	if _, err := os.Stat(path); err != nil {
		return Config{}, fmt.Errorf("config file not found at %q: %w\nCheck the --config flag", path, err)
	}

	file, err := ini.Load(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}

	get := func(section, key string) (string, error) {
		sec := file.Section(section)
		if !sec.HasKey(key) {
			return "", MissingKeyError{Section: section, Key: key, Path: path}
		}
		return sec.Key(key).String(), nil
	}
	getBool := func(section, key string) (bool, error) {
		sec := file.Section(section)
		if !sec.HasKey(key) {
			return false, MissingKeyError{Section: section, Key: key, Path: path}
		}
		value, err := sec.Key(key).Bool()
		if err != nil {
			return false, fmt.Errorf("key [%s] %s in %q is not a boolean: %w", section, key, path, err)
		}
		return value, nil
	}

	var config Config

	if config.Profile, err = get("aws", "environment"); err != nil {
		return Config{}, err
	}
	if config.Bucket, err = get("bucket", "name"); err != nil {
		return Config{}, err
	}

	if config.LogToFile, err = getBool("logging", "log_to_file"); err != nil {
		return Config{}, err
	}
	sec := file.Section("logging")
	if !sec.HasKey("logging_level") {
		return Config{}, MissingKeyError{Section: "logging", Key: "logging_level", Path: path}
	}
	if config.LogLevel, err = sec.Key("logging_level").Int(); err != nil {
		return Config{}, fmt.Errorf("key [logging] logging_level in %q is not an integer: %w", path, err)
	}
	if config.LogToFile {
		if config.LogFile, err = get("logging", "log_file"); err != nil {
			return Config{}, err
		}
	}

	mode, err := get("ingestion", "mode")
	if err != nil {
		return Config{}, err
	}
	config.Mode = IngestionMode(mode)
	switch config.Mode {
	case IngestionTrackList:
		if config.TrackList, err = get("ingestion", "track_list"); err != nil {
			return Config{}, err
		}
	case IngestionDynamic, IngestionCache:
	default:
		return Config{}, fmt.Errorf("unknown ingestion mode %q in %q\nValid modes are track_list, dynamic, and cache", mode, path)
	}

	if config.CacheDir, err = get("cache", "directory"); err != nil {
		return Config{}, err
	}
	if config.PersistentCache, err = getBool("cache", "persistent"); err != nil {
		return Config{}, err
	}

	if config.SortMask, err = get("targeting", "sort_mask"); err != nil {
		return Config{}, err
	}
	if config.CleanUp, err = getBool("targeting", "clean_up"); err != nil {
		return Config{}, err
	}

	return config, nil
}

// LaunchConfig holds the settings for rebuilding and running the container image.
type LaunchConfig struct {
	ImageName      ImageName
	DockerfilePath string
	ContextDir     string
	WorkingDir     string
	StopTimeout    int
	TTYRetries     int
	RetryDelay     time.Duration

	Entrypoint Command
	Args       Command
	Env        Environment
	Volumes    []string
	Network    string
}

// LaunchOptions carries the raw flag values for the launch command.
type LaunchOptions struct {
	Image      string
	Dockerfile string
	ContextDir string
	Entrypoint string
	Network    string
	Volumes    []string
	Env        []string
	Args       []string
}

// NewLaunchConfig builds the launcher configuration from flag values and the
// process environment. It fills in default terminal environment variables
// (TERM, COLORTERM) and the two default bind mounts: the project directory at
// /opt/sortie and the caller's ~/.aws at /root/.aws.
func NewLaunchConfig(opts LaunchOptions, environment []string) LaunchConfig {
	lookup := make(map[string]string)
	for _, variable := range environment {
		key, value, ok := strings.Cut(variable, "=")
		if ok {
			lookup[key] = value
		}
	}

	contextDir := opts.ContextDir
	if contextDir == "" {
		contextDir = "."
	}

	dockerfile := opts.Dockerfile
	if dockerfile == "" {
		dockerfile = filepath.Join(contextDir, "Dockerfile")
	}

	image := opts.Image
	if image == "" {
		image = string(DefaultImageName)
	}

	entrypoint := opts.Entrypoint
	if entrypoint == "" {
		entrypoint = DefaultEntrypoint
	}

	var env []string
	value, ok := lookup["TERM"]
	if !ok {
		value = "xterm-256color"
	}
	env = append(env, fmt.Sprintf("TERM=%s", value))

	value, ok = lookup["COLORTERM"]
	if !ok {
		value = "truecolor"
	}
	env = append(env, fmt.Sprintf("COLORTERM=%s", value))

	env = append(env, opts.Env...)

	volumes := []string{
		fmt.Sprintf("%s:%s", contextDir, DefaultProjectMount),
	}
	if home, ok := lookup["HOME"]; ok && home != "" {
		volumes = append(volumes, fmt.Sprintf("%s:%s", filepath.Join(home, ".aws"), DefaultAWSMount))
	}
	volumes = append(volumes, opts.Volumes...)

	network := opts.Network
	if network == "" {
		network = "default"
	}

	return LaunchConfig{
		ImageName:      ImageName(image),
		DockerfilePath: dockerfile,
		ContextDir:     contextDir,
		WorkingDir:     DefaultProjectMount,
		StopTimeout:    DefaultStopTimeout,
		TTYRetries:     DefaultTTYRetries,
		RetryDelay:     DefaultRetryDelay,
		Entrypoint:     Command([]string{entrypoint}),
		Args:           Command(opts.Args),
		Env:            Environment(env),
		Volumes:        volumes,
		Network:        network,
	}
}
