package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fieldlens/clipocr/internal/orientation"
	"github.com/fieldlens/clipocr/internal/scan"
	"github.com/fieldlens/clipocr/internal/server"
	"github.com/fieldlens/clipocr/internal/utils"
)

// scanCmd represents the scan command.
var scanCmd = &cobra.Command{
	Use:   "scan [files...]",
	Short: "Extract text from document photos",
	Long: `Scan one or more image files and print the recognized text.

Supported formats: JPEG, PNG, BMP

A --region restricts recognition to a normalized sub-rectangle of the
image (x,y,w,h in 0..1, origin top-left). When a region is given, the
output is a JSON object carrying the text and the path of the cropped
debug image.

Examples:
  clipocr scan photo.jpg
  clipocr scan receipt.jpg --region 0.1,0.3,0.8,0.2 --digits
  clipocr scan invoice.png --format json --output result.json`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no input files provided")
		}

		cfg := GetConfig()
		if err := cfg.Validate(); err != nil {
			return err
		}

		format, err := scan.ParseFormat(cfg.Output.Format)
		if err != nil {
			return err
		}

		opts := scan.DefaultOptions()
		if regionFlag, _ := cmd.Flags().GetString("region"); regionFlag != "" {
			reg, err := server.ParseRegion(regionFlag)
			if err != nil {
				return err
			}
			opts.Region = reg
		}
		opts.DigitsOnly, _ = cmd.Flags().GetBool("digits")
		opts.Contrast = cfg.Scan.Contrast
		opts.Debug, _ = cmd.Flags().GetBool("debug-image")
		if tag, _ := cmd.Flags().GetInt("orientation"); tag != 0 {
			opts.Orientation = orientation.Tag(tag)
		}

		scanner, err := scan.NewBuilder().WithConfig(cfg.ToScanConfig()).Build()
		if err != nil {
			return fmt.Errorf("failed to build scanner: %w", err)
		}
		defer func() {
			if err := scanner.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Error closing scanner: %v\n", err)
			}
		}()

		var outputs []string
		for _, path := range args {
			if !utils.IsSupportedImage(path) {
				return fmt.Errorf("unsupported image format: %s", path)
			}

			result, err := scanner.ScanFile(cmd.Context(), path, opts)
			if err != nil {
				return fmt.Errorf("scan failed for %s: %w", path, err)
			}

			rendered, err := renderResult(result, format, len(args) > 1, path)
			if err != nil {
				return err
			}
			outputs = append(outputs, rendered)
		}

		final := strings.Join(outputs, "\n")
		if cfg.Output.File != "" {
			if err := os.WriteFile(cfg.Output.File, []byte(final+"\n"), 0o600); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", cfg.Output.File); err != nil {
				return err
			}
			return nil
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), final)
		return err
	},
}

// renderResult encodes one scan result. The text format follows the
// scan output convention: plain text, switching to a compact JSON
// payload when a region or debug artifact is involved.
func renderResult(result *scan.Result, format scan.Format, labeled bool, path string) (string, error) {
	if format == scan.FormatText {
		out, err := result.Output()
		if err != nil {
			return "", err
		}
		if labeled {
			out = path + ":" + out
		}
		return out, nil
	}
	return result.Encode(format)
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().String("region", "", "normalized region to scan as x,y,w,h (0..1, origin top-left)")
	scanCmd.Flags().Bool("digits", false, "numeric-literal mode: digits whitelist, dictionary correction off")
	scanCmd.Flags().Float64("contrast", 0, "contrast factor for enhancement (0 = automatic)")
	scanCmd.Flags().Int("orientation", 0, "orientation tag of the input (1-8, 0 = upright)")
	scanCmd.Flags().Bool("debug-image", false, "write the prepared image even for whole-image scans")
	scanCmd.Flags().StringP("format", "f", "text", "output format (text, json, yaml)")
	scanCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	scanCmd.Flags().String("debug-dir", "", "directory for cropped debug images (default: temp dir)")

	bindScanFlags(scanCmd)
}

// bindScanFlags binds scan flags to viper configuration keys.
func bindScanFlags(cmd *cobra.Command) {
	flagBindings := []struct {
		key  string
		flag string
	}{
		{"output.format", "format"},
		{"output.file", "output"},
		{"scan.contrast", "contrast"},
		{"scan.debug_dir", "debug-dir"},
	}

	for _, binding := range flagBindings {
		if err := viper.BindPFlag(binding.key, cmd.Flags().Lookup(binding.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", binding.flag, err))
		}
	}
}

// GetScanCommand returns the scan command for testing purposes.
func GetScanCommand() *cobra.Command {
	return scanCmd
}
