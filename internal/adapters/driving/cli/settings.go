package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/pikia/internal/core/domain"
	"github.com/custodia-labs/pikia/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change pikia settings: the detection selection policy, the
detector, scanning and materialization defaults, and storage locations.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Change one setting",
	Long: `Change one setting. Run 'pikia settings keys' for the list of keys.
When setting detector.api_key without a value, the key is read from the
terminal without echo.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, k := range services.SettingKeys() {
			cmd.Println(k)
		}
	},
}

var settingsDetectorCmd = &cobra.Command{
	Use:   "detector",
	Short: "Configure the detector interactively",
	Args:  cobra.NoArgs,
	RunE:  runSettingsDetector,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsDetectorCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Selection]")
	cmd.Printf("  Method: %s\n", settings.Selection.Method)
	cmd.Printf("  Param: %g\n", settings.Selection.Param)
	cmd.Println()

	cmd.Println("[Scan]")
	cmd.Printf("  Recursive: %t\n", settings.Scan.Recursive)
	cmd.Printf("  Extensions: %s\n", strings.Join(settings.Scan.Extensions, ", "))
	cmd.Println()

	cmd.Println("[Detector]")
	cmd.Printf("  Provider: %s\n", settings.Detector.Provider.Description())
	if settings.Detector.Provider == domain.DetectorVision {
		cmd.Printf("  Model: %s\n", settings.Detector.Model)
		if settings.Detector.BaseURL != "" {
			cmd.Printf("  Base URL: %s\n", settings.Detector.BaseURL)
		}
		if settings.Detector.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Detector.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
		cmd.Printf("  Max side: %d px\n", settings.Detector.MaxSide)
		cmd.Printf("  Requests per second: %g\n", settings.Detector.RequestsPerSecond)
	}
	status := "configured"
	if !settings.Detector.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Materialize]")
	cmd.Printf("  Mode: %s\n", settings.Materialize.Mode.Description())
	dest := settings.Materialize.Destination
	if dest == "" {
		dest = "(ask)"
	}
	cmd.Printf("  Destination: %s\n", dest)
	cmd.Println()

	cmd.Println("[Data]")
	dataDir := settings.Data.Dir
	if dataDir == "" {
		dataDir = "~/.pikia/data"
	}
	cmd.Printf("  Database directory: %s\n", dataDir)
	cmd.Printf("  Sessions directory: %s\n", settings.Data.SessionsDir)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key := args[0]
	var value string
	if len(args) == 2 {
		value = args[1]
	} else {
		if key != services.KeyDetectorAPIKey {
			return fmt.Errorf("%w: missing value for %s", domain.ErrInvalidInput, key)
		}
		cmd.Print("Enter API key: ")
		value = readPassword()
		cmd.Println()
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if err := applySetting(settings, key, value); err != nil {
		return err
	}
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	if key == services.KeyDetectorAPIKey {
		cmd.Printf("%s set to %s\n", key, maskAPIKey(value))
	} else {
		cmd.Printf("%s set to %s\n", key, value)
	}
	return nil
}

// applySetting parses value and stores it under key in settings.
//
//nolint:gocyclo // one case per key
func applySetting(settings *domain.AppSettings, key, value string) error {
	value = strings.TrimSpace(value)
	invalid := func(reason string) error {
		return fmt.Errorf("%w: %s %s", domain.ErrInvalidInput, key, reason)
	}

	switch key {
	case services.KeySelectionMethod:
		method := domain.SelectionMethod(value)
		if !method.IsValid() {
			return fmt.Errorf("%w: %q", domain.ErrUnsupportedMethod, value)
		}
		settings.Selection = domain.Selection{Method: method, Param: method.DefaultParam()}
	case services.KeySelectionParam:
		param, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return invalid("must be a number")
		}
		sel := domain.Selection{Method: settings.Selection.Method, Param: param}
		if err := sel.Validate(); err != nil {
			return err
		}
		settings.Selection = sel
	case services.KeyScanRecursive:
		recursive, err := strconv.ParseBool(value)
		if err != nil {
			return invalid("must be true or false")
		}
		settings.Scan.Recursive = recursive
	case services.KeyScanExtensions:
		exts := parseExtensions(value)
		if len(exts) == 0 {
			return invalid("needs at least one extension")
		}
		settings.Scan.Extensions = exts
	case services.KeyMaterializeMode:
		mode := domain.TransferMode(value)
		if !mode.IsValid() {
			return invalid("must be copy or move")
		}
		settings.Materialize.Mode = mode
	case services.KeyMaterializeDest:
		settings.Materialize.Destination = value
	case services.KeyDetectorProvider:
		provider := domain.DetectorProvider(value)
		if !provider.IsValid() {
			return invalid("must be vision or sidecar")
		}
		settings.Detector.Provider = provider
	case services.KeyDetectorModel:
		settings.Detector.Model = value
	case services.KeyDetectorBaseURL:
		settings.Detector.BaseURL = value
	case services.KeyDetectorAPIKey:
		if value == "" {
			return invalid("must not be empty")
		}
		settings.Detector.APIKey = value
	case services.KeyDetectorMaxSide:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return invalid("must be a positive integer")
		}
		settings.Detector.MaxSide = n
	case services.KeyDetectorRPS:
		rps, err := strconv.ParseFloat(value, 64)
		if err != nil || rps <= 0 {
			return invalid("must be a positive number")
		}
		settings.Detector.RequestsPerSecond = rps
	case services.KeyDataDir:
		settings.Data.Dir = value
	case services.KeySessionsDir:
		if value == "" {
			return invalid("must not be empty")
		}
		settings.Data.SessionsDir = value
	default:
		return fmt.Errorf("%w: unknown setting %q (see 'pikia settings keys')", domain.ErrInvalidInput, key)
	}
	return nil
}

// parseExtensions splits a comma separated list into lower-case
// extensions with a leading dot.
func parseExtensions(value string) []string {
	var exts []string
	for _, e := range strings.Split(value, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || e == "." {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return exts
}

func runSettingsDetector(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return configureDetector(cmd, bufio.NewReader(cmd.InOrStdin()))
}

func configureDetector(cmd *cobra.Command, reader *bufio.Reader) error {
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Select Detector")
	providers := domain.AllDetectorProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	provider := providers[idx-1]

	var model, apiKey string
	if provider == domain.DetectorVision {
		cmd.Printf("Enter model name [%s]: ", settings.Detector.Model)
		model = readLine(reader)

		if settings.Detector.APIKey != "" {
			cmd.Printf("Enter API key [%s]: ", maskAPIKey(settings.Detector.APIKey))
		} else {
			cmd.Print("Enter API key: ")
		}
		apiKey = readPassword()
		cmd.Println()
		if apiKey == "" && settings.Detector.APIKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetDetector(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure detector: %w", err)
	}

	cmd.Printf("Detector configured: %s\n", provider.Description())
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
