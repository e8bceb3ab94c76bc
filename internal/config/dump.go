// internal/config/dump.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ErrExists is returned by Dump when the target exists and overwrite is false.
var ErrExists = errors.New("config: file already exists")

// Dump writes cfg as YAML to outputPath.
func Dump(cfg Config, outputPath string, overwrite bool) error {
	buffer, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	if !overwrite {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, outputPath)
		}
	}

	log.Infoln("writing default configuration to", outputPath)
	if err := os.WriteFile(outputPath, buffer, 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", outputPath, err)
	}
	return nil
}

// InitCfg prepares a configuration template for the application.
func InitCfg(cmd *cobra.Command, _ []string) error {
	printFlag, _ := cmd.Flags().GetBool("print")
	outputPath, _ := cmd.Flags().GetString("output")
	overwriteFlag, _ := cmd.Flags().GetBool("yes")

	cfg := Default()

	if printFlag {
		buffer, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), string(buffer))
		return err
	}

	if outputPath == "" {
		outputPath = DefaultConfig
	}
	return Dump(cfg, outputPath, overwriteFlag)
}
