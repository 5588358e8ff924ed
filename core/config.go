package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultCaptureAction    = "android.media.action.IMAGE_CAPTURE"
	DefaultGetContentAction = "android.intent.action.GET_CONTENT"
	DefaultPickAction       = "android.intent.action.PICK"
	DefaultBuiltinBrowser   = "com.android.documentsui.DocumentsActivity"
	DefaultCapturePerm      = "android.permission.CAMERA"
	DefaultContentReadPerm  = "android.permission.READ_EXTERNAL_STORAGE"
	DefaultPathColumn       = "_data"
)

type PlatformConfig struct {
	Version int `koanf:"version" mapstructure:"version"`
}

type AuthorizationConfig struct {
	ThresholdVersion      int      `koanf:"threshold_version" mapstructure:"threshold_version"`
	CapturePermission     string   `koanf:"capture_permission" mapstructure:"capture_permission"`
	ContentReadPermission string   `koanf:"content_read_permission" mapstructure:"content_read_permission"`
	DeclaredPermissions   []string `koanf:"declared_permissions" mapstructure:"declared_permissions"`
	ProbedPermissions     []string `koanf:"probed_permissions" mapstructure:"probed_permissions"`
	ProbeReference        string   `koanf:"probe_reference" mapstructure:"probe_reference"`
}

type ActionsConfig struct {
	Capture    string `koanf:"capture" mapstructure:"capture"`
	GetContent string `koanf:"get_content" mapstructure:"get_content"`
	Pick       string `koanf:"pick" mapstructure:"pick"`
}

type ProvidersConfig struct {
	BuiltinBrowser string `koanf:"builtin_browser" mapstructure:"builtin_browser"`
}

type ChooserConfig struct {
	Title string `koanf:"title" mapstructure:"title"`
}

type SinkConfig struct {
	Directory string `koanf:"directory" mapstructure:"directory"`
	Extension string `koanf:"extension" mapstructure:"extension"`
}

type ContentConfig struct {
	PathColumn string `koanf:"path_column" mapstructure:"path_column"`
}

type CorrelationConfig struct {
	FirstToken int64 `koanf:"first_token" mapstructure:"first_token"`
}

type Config struct {
	ServiceName   string              `koanf:"service_name" mapstructure:"service_name"`
	Platform      PlatformConfig      `koanf:"platform" mapstructure:"platform"`
	Authorization AuthorizationConfig `koanf:"authorization" mapstructure:"authorization"`
	Actions       ActionsConfig       `koanf:"actions" mapstructure:"actions"`
	Providers     ProvidersConfig     `koanf:"providers" mapstructure:"providers"`
	Chooser       ChooserConfig       `koanf:"chooser" mapstructure:"chooser"`
	Sink          SinkConfig          `koanf:"sink" mapstructure:"sink"`
	Content       ContentConfig       `koanf:"content" mapstructure:"content"`
	Correlation   CorrelationConfig   `koanf:"correlation" mapstructure:"correlation"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "broker",
		Platform: PlatformConfig{
			Version: 23,
		},
		Authorization: AuthorizationConfig{
			ThresholdVersion:      23,
			CapturePermission:     DefaultCapturePerm,
			ContentReadPermission: DefaultContentReadPerm,
			DeclaredPermissions:   []string{DefaultCapturePerm, DefaultContentReadPerm},
			ProbedPermissions:     []string{DefaultContentReadPerm},
			ProbeReference:        "content://media/external/images/media",
		},
		Actions: ActionsConfig{
			Capture:    DefaultCaptureAction,
			GetContent: DefaultGetContentAction,
			Pick:       DefaultPickAction,
		},
		Providers: ProvidersConfig{
			BuiltinBrowser: DefaultBuiltinBrowser,
		},
		Chooser: ChooserConfig{
			Title: "Select picture",
		},
		Sink: SinkConfig{
			Directory: os.TempDir(),
			Extension: ".jpeg",
		},
		Content: ContentConfig{
			PathColumn: DefaultPathColumn,
		},
		Correlation: CorrelationConfig{
			FirstToken: 100,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.Actions.Capture) == "" {
		return fmt.Errorf("core: actions.capture is required")
	}
	if strings.TrimSpace(c.Actions.GetContent) == "" {
		return fmt.Errorf("core: actions.get_content is required")
	}
	if strings.TrimSpace(c.Content.PathColumn) == "" {
		return fmt.Errorf("core: content.path_column is required")
	}
	if dir := strings.TrimSpace(c.Sink.Directory); dir != "" && !filepath.IsAbs(dir) {
		return fmt.Errorf("core: sink.directory must be absolute, got %q", dir)
	}
	if c.Correlation.FirstToken < 0 {
		return fmt.Errorf("core: correlation.first_token must be >= 0")
	}
	return nil
}

func (c Config) isDeclared(permissionID string) bool {
	return containsFold(c.Authorization.DeclaredPermissions, permissionID)
}

func (c Config) isProbed(permissionID string) bool {
	return containsFold(c.Authorization.ProbedPermissions, permissionID)
}

func (c Config) gatingActive() bool {
	return c.Platform.Version >= c.Authorization.ThresholdVersion
}

func containsFold(values []string, target string) bool {
	target = strings.TrimSpace(target)
	if target == "" {
		return false
	}
	for _, value := range values {
		if strings.EqualFold(strings.TrimSpace(value), target) {
			return true
		}
	}
	return false
}
