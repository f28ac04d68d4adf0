// Package cliutil provides the ambient command-line plumbing cmd/stt is
// built from: version information, a leveled logger, JSON file
// configuration and usage/help rendering, in the same shape the rest of
// the toolchain's binaries use.
package cliutil

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"
)

const (
	Version   = "0.1.0"
	BuildDate = "2026-08-02"
	CommitSHA = "unknown"
)

// VersionInfo is structured version/build/platform information for --version.
type VersionInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	CommitSHA string `json:"commit_sha"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Arch      string `json:"arch"`
}

func GetVersionInfo() *VersionInfo {
	return &VersionInfo{
		Version:   Version,
		BuildDate: BuildDate,
		CommitSHA: CommitSHA,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

func PrintVersion(toolName string, jsonOutput bool) {
	info := GetVersionInfo()

	if jsonOutput {
		data, err := json.MarshalIndent(map[string]interface{}{
			"tool":         toolName,
			"version_info": info,
		}, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to marshal version info to JSON: %v\n", err)
		} else {
			fmt.Println(string(data))

			return
		}
	}

	fmt.Printf("%s v%s\n", toolName, info.Version)
	fmt.Printf("Build Date: %s\n", info.BuildDate)
	fmt.Printf("Go Version: %s\n", info.GoVersion)
	fmt.Printf("Platform: %s/%s\n", info.Platform, info.Arch)
}

func ExitWithError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func ExitWithCode(code int, format string, args ...interface{}) {
	if format != "" {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}

	os.Exit(code)
}

// Logger is the leveled logger every stage (lexer/parser/elab driver/CLI)
// reports progress and failures through. Source, when set, names the .stt
// file (or "<prelude>") the logger's calls are currently about, so a run
// over several files doesn't need every call site to repeat it.
type Logger struct {
	Verbose   bool
	DebugMode bool
	Source    string
}

func NewLogger(verbose, debug bool) *Logger {
	return &Logger{Verbose: verbose, DebugMode: debug}
}

// WithSource returns a copy of l scoped to the named .stt file, so its log
// lines carry that file alongside the level and timestamp.
func (l *Logger) WithSource(source string) *Logger {
	scoped := *l
	scoped.Source = source

	return &scoped
}

func (l *Logger) log(level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	ts := time.Now().Format("15:04:05")

	if l.Source != "" {
		fmt.Printf("[%s] %s %s: %s\n", level, ts, l.Source, msg)
	} else {
		fmt.Printf("[%s] %s: %s\n", level, ts, msg)
	}
}

func (l *Logger) Info(format string, args ...interface{}) {
	if l.Verbose {
		l.log("INFO", format, args...)
	}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	if l.DebugMode {
		l.log("DEBUG", format, args...)
	}
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log("WARN", format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log("ERROR", format, args...)
}

// Config is the JSON-file configuration LoadConfig and SaveConfig read and
// write. cmd/stt takes its settings from flags only and does not load a
// Config.
type Config struct {
	Verbose            bool   `json:"verbose"`
	Debug              bool   `json:"debug"`
	WorkDir            string `json:"work_dir"`
	ElaborationTimeout string `json:"elaboration_timeout"`
	WatchDebounce      string `json:"watch_debounce"`
}

func defaultConfig() *Config {
	return &Config{
		WorkDir:            ".",
		ElaborationTimeout: "30s",
		WatchDebounce:      "200ms",
	}
}

func LoadConfig(configPath string) (*Config, error) {
	config := defaultConfig()

	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}

		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

func (c *Config) SaveConfig(configPath string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// FlagInfo documents one flag for PrintUsage.
type FlagInfo struct {
	Name    string
	Usage   string
	Default string
}

func PrintUsage(tool string, flags []FlagInfo) {
	fmt.Printf("%s - a core elaborator for a small dependent type theory\n\n", tool)
	fmt.Printf("USAGE:\n")
	fmt.Printf("    %s [OPTIONS] FILE.stt [FILE.stt ...]\n\n", tool)

	if len(flags) > 0 {
		fmt.Printf("OPTIONS:\n")

		for _, f := range flags {
			flagStr := fmt.Sprintf("    --%s", f.Name)

			fmt.Printf("%-24s %s\n", flagStr, f.Usage)

			if f.Default != "" {
				fmt.Printf("%-24s Default: %s\n", "", f.Default)
			}
		}

		fmt.Printf("\n")
	}

	fmt.Printf("GLOBAL OPTIONS:\n")
	fmt.Printf("    --help, -h     Show help information\n")
	fmt.Printf("    --version      Show version information\n")
	fmt.Printf("    --json         Output version in JSON format\n")
}

func HandleError(err error, logger *Logger) {
	if err == nil {
		return
	}

	if logger != nil {
		logger.Error("%v", err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	os.Exit(1)
}
