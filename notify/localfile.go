package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

const localFileNotifierName = "local_file"

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)

// LocalFileConfig holds settings for the local-file channel.
type LocalFileConfig struct {
	// OutputDir is the directory alert reports are written to.
	OutputDir string `yaml:"output_dir" env:"LOCAL_OUTPUT_DIR"`
}

type localFileNotifier struct {
	outputDir string
	now       func() time.Time
}

var _ Notifier = &localFileNotifier{}

// NewLocalFileNotifier creates a notifier that writes the report blob to
// OutputDir as performance_alert_<endpoint>_<unix-nanos>.html. Nanosecond
// timestamps keep rapid repeated alerts for one endpoint from colliding.
func NewLocalFileNotifier(config LocalFileConfig) Notifier {
	return &localFileNotifier{
		outputDir: config.OutputDir,
		now:       time.Now,
	}
}

func (n *localFileNotifier) Name() string {
	return localFileNotifierName
}

func (n *localFileNotifier) Deliver(_ context.Context, alert AlertContext, report []byte) error {
	filename := fmt.Sprintf("performance_alert_%s_%d.html",
		sanitizeEndpoint(alert.Endpoint), n.now().UnixNano())
	path := filepath.Join(n.outputDir, filename)

	if err := os.WriteFile(path, report, 0o644); err != nil {
		return fmt.Errorf("failed to write alert report: %w", err)
	}
	return nil
}

func sanitizeEndpoint(endpoint string) string {
	sanitized := unsafePathChars.ReplaceAllString(endpoint, "_")
	if sanitized == "" {
		return "unknown"
	}
	return sanitized
}
